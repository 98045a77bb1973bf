package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chirodesk/voicebot/pkg/speech"
)

type stubGateway struct {
	calls int
	err   error
	last  BookingRequest
}

func (g *stubGateway) BookAppointment(ctx context.Context, req BookingRequest) error {
	g.calls++
	g.last = req
	return g.err
}

func newTestFlow(t *testing.T, gw BookingGateway) *Flow {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return New(Config{
		Resolver: speech.NewResolver(loc),
		Gateway:  gw,
	})
}

// checkFieldPrefix asserts the booking fields are always a prefix of
// {datetime, name, phone, email}.
func checkFieldPrefix(t *testing.T, b Booking) {
	t.Helper()
	present := []bool{!b.DateTime.IsZero(), b.Name != "", b.Phone != "", b.Email != ""}
	seenGap := false
	for i, p := range present {
		if !p {
			seenGap = true
		} else if seenGap {
			t.Fatalf("field %d present after a missing earlier field: %+v", i, b)
		}
	}
}

func TestEndToEndBooking(t *testing.T) {
	gw := &stubGateway{}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	reply := f.HandleTurn(ctx, sess, "I need to book an appointment")
	if reply != PromptAskDateTime {
		t.Fatalf("expected day/time prompt, got %q", reply)
	}
	if sess.Booking.Intent != IntentBooking {
		t.Fatalf("expected booking intent set")
	}
	checkFieldPrefix(t, sess.Booking)

	reply = f.HandleTurn(ctx, sess, "next Tuesday at 2pm")
	if !strings.HasPrefix(reply, "Just to confirm") {
		t.Fatalf("expected confirmation question, got %q", reply)
	}
	if sess.Booking.CandidateDT.Hour() != 14 {
		t.Fatalf("expected candidate at 14:00, got %v", sess.Booking.CandidateDT)
	}
	if !sess.Booking.DateTime.IsZero() {
		t.Fatalf("datetime must not finalize before confirmation")
	}
	checkFieldPrefix(t, sess.Booking)

	reply = f.HandleTurn(ctx, sess, "yes")
	if !strings.Contains(reply, "full name") {
		t.Fatalf("expected name prompt, got %q", reply)
	}
	if sess.Booking.DateTime.Hour() != 14 {
		t.Fatalf("expected finalized 14:00, got %v", sess.Booking.DateTime)
	}
	checkFieldPrefix(t, sess.Booking)

	reply = f.HandleTurn(ctx, sess, "John Smith")
	if !strings.Contains(reply, "phone number") {
		t.Fatalf("expected phone prompt, got %q", reply)
	}
	if sess.Booking.Name != "John Smith" {
		t.Fatalf("expected name stored, got %q", sess.Booking.Name)
	}
	checkFieldPrefix(t, sess.Booking)

	reply = f.HandleTurn(ctx, sess, "five five five, one two three, four five six seven")
	if reply != PromptAskEmail {
		t.Fatalf("expected email prompt, got %q", reply)
	}
	if sess.Booking.Phone != "+15551234567" {
		t.Fatalf("expected formatted phone, got %q", sess.Booking.Phone)
	}
	checkFieldPrefix(t, sess.Booking)

	reply = f.HandleTurn(ctx, sess, "john at gmail dot com")
	if gw.calls != 1 {
		t.Fatalf("expected exactly one booking call, got %d", gw.calls)
	}
	if gw.last.Email != "john@gmail.com" || gw.last.Phone != "+15551234567" || gw.last.Name != "John Smith" {
		t.Fatalf("unexpected booking request: %+v", gw.last)
	}
	if gw.last.Start.Hour() != 14 {
		t.Fatalf("expected booking at 14:00, got %v", gw.last.Start)
	}
	if !strings.Contains(reply, "4567") {
		t.Fatalf("expected confirmation mentioning the phone, got %q", reply)
	}
	if sess.Booking.Intent != IntentNone || !sess.Booking.DateTime.IsZero() {
		t.Fatalf("expected booking record reset after commit: %+v", sess.Booking)
	}
}

func TestAmbiguousTimeScenario(t *testing.T) {
	gw := &stubGateway{}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	f.HandleTurn(ctx, sess, "I'd like to schedule a checkup")

	reply := f.HandleTurn(ctx, sess, "Thursday at 9")
	if reply != speech.ClarifyMeridiem {
		t.Fatalf("expected meridiem clarification, got %q", reply)
	}
	if !sess.Booking.AwaitingAMPM {
		t.Fatalf("expected awaiting am/pm flag")
	}

	// A non-answer re-asks rather than guessing.
	reply = f.HandleTurn(ctx, sess, "whenever")
	if reply != speech.ClarifyMeridiem {
		t.Fatalf("expected re-ask, got %q", reply)
	}

	reply = f.HandleTurn(ctx, sess, "morning")
	if !strings.Contains(reply, "full name") {
		t.Fatalf("expected name prompt after resolution, got %q", reply)
	}
	if sess.Booking.AwaitingAMPM {
		t.Fatalf("expected awaiting flag cleared")
	}
	if got := sess.Booking.DateTime.Hour(); got != 9 {
		t.Fatalf("expected 9 AM, got hour %d", got)
	}
	if sess.Booking.Stage != StageCollectName {
		t.Fatalf("expected name stage, got %s", sess.Booking.Stage)
	}
}

func TestTimeOnlyFollowUpKeepsDay(t *testing.T) {
	gw := &stubGateway{}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	f.HandleTurn(ctx, sess, "I want to book an appointment")
	f.HandleTurn(ctx, sess, "next Thursday at 2pm")
	day := sess.Booking.CandidateDT.Weekday()

	reply := f.HandleTurn(ctx, sess, "actually make it 4pm")
	if !strings.HasPrefix(reply, "Just to confirm") {
		t.Fatalf("expected new confirmation, got %q", reply)
	}
	if got := sess.Booking.CandidateDT; got.Weekday() != day || got.Hour() != 16 {
		t.Fatalf("expected same weekday at 16:00, got %v", got)
	}
}

func TestGatewayFailureLeavesStateForRetry(t *testing.T) {
	gw := &stubGateway{err: errors.New("upstream timeout")}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	f.HandleTurn(ctx, sess, "book me an appointment")
	f.HandleTurn(ctx, sess, "tomorrow at 3pm")
	f.HandleTurn(ctx, sess, "yes")
	f.HandleTurn(ctx, sess, "Jane Doe")
	f.HandleTurn(ctx, sess, "212 555 0100")

	reply := f.HandleTurn(ctx, sess, "jane at work dot com")
	if reply != RespondBookingFailed {
		t.Fatalf("expected failure response, got %q", reply)
	}
	if gw.calls != 1 {
		t.Fatalf("expected one attempt, got %d", gw.calls)
	}
	b := sess.Booking
	if b.DateTime.IsZero() || b.Name == "" || b.Phone == "" || b.Email == "" {
		t.Fatalf("expected fields preserved after failure: %+v", b)
	}
	if !b.CommitPending {
		t.Fatalf("expected commit pending")
	}

	// The caller retries conversationally; nothing is re-collected.
	gw.err = nil
	reply = f.HandleTurn(ctx, sess, "okay try again")
	if gw.calls != 2 {
		t.Fatalf("expected retry to re-invoke gateway, got %d calls", gw.calls)
	}
	if !strings.Contains(reply, "all set") {
		t.Fatalf("expected confirmation, got %q", reply)
	}
	if sess.Booking.CommitPending || sess.Booking.Intent != IntentNone {
		t.Fatalf("expected record reset after successful retry: %+v", sess.Booking)
	}
}

func TestEmotionalOverrideStillSetsIntent(t *testing.T) {
	gw := &stubGateway{}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	reply := f.HandleTurn(ctx, sess, "my back hurts and I need to come in")
	if reply != RespondPain {
		t.Fatalf("expected empathy response, got %q", reply)
	}
	if !sess.PainMentioned {
		t.Fatalf("expected pain flag set")
	}
	if sess.Booking.Intent != IntentBooking {
		t.Fatalf("expected booking intent recorded in the same turn")
	}

	reply = f.HandleTurn(ctx, sess, "tomorrow at 3pm")
	if !strings.HasPrefix(reply, "Just to confirm") {
		t.Fatalf("expected booking flow to continue, got %q", reply)
	}
}

func TestToneFeedbackShortensPrompts(t *testing.T) {
	gw := &stubGateway{}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	reply := f.HandleTurn(ctx, sess, "please sound more natural")
	if reply != RespondToneFeedback {
		t.Fatalf("expected tone response, got %q", reply)
	}
	reply = f.HandleTurn(ctx, sess, "i want to book an appointment")
	if reply != PromptAskDateTimeBrief {
		t.Fatalf("expected brief prompt in human mode, got %q", reply)
	}
}

func TestFAQAndFallbacks(t *testing.T) {
	gw := &stubGateway{}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	if got := f.HandleTurn(ctx, sess, "what are your hours"); got != AnswerHours {
		t.Fatalf("expected hours answer, got %q", got)
	}
	if got := f.HandleTurn(ctx, sess, "where are you located"); !strings.Contains(got, "123 Main Street") {
		t.Fatalf("expected location answer, got %q", got)
	}
	if got := f.HandleTurn(ctx, sess, "do you take insurance"); got != AnswerPricing {
		t.Fatalf("expected pricing answer, got %q", got)
	}
	if got := f.HandleTurn(ctx, sess, "tell me a joke"); got != PromptMenu {
		t.Fatalf("expected menu prompt, got %q", got)
	}
	if got := f.HandleTurn(ctx, sess, "   "); got != PromptRepeat {
		t.Fatalf("expected repeat prompt, got %q", got)
	}
}

func TestRejectedConfirmationDoesNotFinalize(t *testing.T) {
	gw := &stubGateway{}
	f := newTestFlow(t, gw)
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	f.HandleTurn(ctx, sess, "I need to book an appointment")
	f.HandleTurn(ctx, sess, "tomorrow at 3pm")
	if sess.Booking.CandidateDT.IsZero() {
		t.Fatalf("expected a candidate awaiting confirmation")
	}

	reply := f.HandleTurn(ctx, sess, "no, that's not right")
	if strings.Contains(reply, "full name") {
		t.Fatalf("rejection must not advance to name collection, got %q", reply)
	}
	if !sess.Booking.DateTime.IsZero() {
		t.Fatalf("rejection must not finalize datetime: %v", sess.Booking.DateTime)
	}

	reply = f.HandleTurn(ctx, sess, "friday at 2pm")
	if !strings.HasPrefix(reply, "Just to confirm") {
		t.Fatalf("expected a fresh confirmation, got %q", reply)
	}
	if sess.Booking.CandidateDT.Hour() != 14 {
		t.Fatalf("expected new candidate at 14:00, got %v", sess.Booking.CandidateDT)
	}
}

func TestClinicInfoFlowsIntoPrompts(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	f := New(Config{
		Resolver: speech.NewResolver(loc),
		Gateway:  &stubGateway{},
		Clinic: ClinicInfo{
			Name:     "Lakeside Spine",
			Location: "42 Pier Road",
			Phone:    "(512) 555-0199",
		},
	})
	sess := &Session{CallID: "CA1"}
	ctx := context.Background()

	if got := f.Greeting(); !strings.Contains(got, "Lakeside Spine") {
		t.Fatalf("expected clinic name in greeting, got %q", got)
	}
	if got := f.HandleTurn(ctx, sess, "what's your address"); !strings.Contains(got, "42 Pier Road") {
		t.Fatalf("expected clinic location in answer, got %q", got)
	}
	if got := f.HandleTurn(ctx, sess, "this is ridiculous"); !strings.Contains(got, "(512) 555-0199") {
		t.Fatalf("expected clinic phone in handoff offer, got %q", got)
	}
}

func TestTurnPanicYieldsApology(t *testing.T) {
	// A nil resolver makes the datetime stage panic; the turn boundary
	// must convert that into the generic apology.
	f := New(Config{Gateway: &stubGateway{}})
	sess := &Session{CallID: "CA1"}

	reply := f.HandleTurn(context.Background(), sess, "book me for tomorrow at 3pm")
	if reply != RespondInternalError {
		t.Fatalf("expected apology, got %q", reply)
	}
}
