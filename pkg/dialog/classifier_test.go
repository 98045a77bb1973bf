package dialog

import (
	"strings"
	"testing"
)

func TestClassifyPriorityOrder(t *testing.T) {
	c := NewClassifier(ClinicInfo{})
	sess := &Session{CallID: "CA1"}

	// Tone feedback outranks pain when both appear.
	resp, ok := c.Classify(sess, "you sound like a robot and my back hurts")
	if !ok || resp != RespondToneFeedback {
		t.Fatalf("expected tone response, got %q ok=%v", resp, ok)
	}
	if !sess.HumanMode {
		t.Fatalf("expected human mode set")
	}
	if sess.PainMentioned {
		t.Fatalf("pain flag must not be set when tone short-circuits")
	}
}

func TestClassifyUrgencySetsPain(t *testing.T) {
	c := NewClassifier(ClinicInfo{})
	sess := &Session{CallID: "CA1"}
	resp, ok := c.Classify(sess, "this is an emergency")
	if !ok || resp != RespondUrgency {
		t.Fatalf("expected urgency response, got %q ok=%v", resp, ok)
	}
	if !sess.Urgency || !sess.PainMentioned {
		t.Fatalf("expected urgency and pain flags set")
	}
}

func TestClassifyFrustrationOffersFrontDesk(t *testing.T) {
	c := NewClassifier(ClinicInfo{Phone: "(512) 555-0199"})
	sess := &Session{CallID: "CA1"}
	resp, ok := c.Classify(sess, "this is ridiculous")
	if !ok || !strings.Contains(resp, "(512) 555-0199") {
		t.Fatalf("expected front desk number in response, got %q ok=%v", resp, ok)
	}
	if !sess.Frustrated {
		t.Fatalf("expected frustrated flag set")
	}
}

func TestClassifyFlagsAreSticky(t *testing.T) {
	c := NewClassifier(ClinicInfo{})
	sess := &Session{CallID: "CA1"}
	c.Classify(sess, "my neck is sore")
	if !sess.PainMentioned {
		t.Fatalf("expected pain flag set")
	}
	if _, ok := c.Classify(sess, "next tuesday at 2pm"); ok {
		t.Fatalf("neutral utterance must not classify")
	}
	if !sess.PainMentioned {
		t.Fatalf("pain flag must stay set")
	}
}

func TestBookingIntent(t *testing.T) {
	c := NewClassifier(ClinicInfo{})
	for _, u := range []string{
		"i need to book an appointment",
		"can i schedule a visit",
		"i want to come in for an adjustment",
	} {
		if !c.BookingIntent(u) {
			t.Fatalf("expected booking intent for %q", u)
		}
	}
	if c.BookingIntent("what are your hours") {
		t.Fatalf("expected no booking intent for hours question")
	}
}

func TestFAQAnswer(t *testing.T) {
	c := NewClassifier(ClinicInfo{Location: "42 Pier Road"})
	cases := []struct {
		in   string
		want string
	}{
		{"what are your hours", "Monday through Friday"},
		{"where are you located", "42 Pier Road"},
		{"do you take insurance", "insurance plans"},
		{"can you help with headaches", "back pain"},
	}
	for _, tc := range cases {
		got, ok := c.FAQAnswer(tc.in)
		if !ok || !strings.Contains(got, tc.want) {
			t.Fatalf("FAQAnswer(%q) = %q ok=%v", tc.in, got, ok)
		}
	}
	if _, ok := c.FAQAnswer("tell me a joke"); ok {
		t.Fatalf("expected no FAQ match")
	}
}

func TestIsAffirmation(t *testing.T) {
	for _, u := range []string{"yes", "yeah that works", "sounds good", "yep", "that's right"} {
		if !isAffirmation(u) {
			t.Fatalf("expected affirmation for %q", u)
		}
	}
	for _, u := range []string{
		"no, that's not right",
		"no",
		"not sure",
		"that doesn't work",
		"yesterday",
		"make it 3pm instead",
	} {
		if isAffirmation(u) {
			t.Fatalf("expected no affirmation for %q", u)
		}
	}
}
