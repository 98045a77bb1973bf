package speech

import "testing"

func TestNormalizeTimeTokens(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3 a m", "3 am"},
		{"3 p m", "3 pm"},
		{"3 a pm", "3 pm"},
		{"3 p am", "3 am"},
		{"nine o'clock", "nine"},
		{"9 oclock", "9"},
		{"Next  Tuesday   at 2 PM", "next tuesday at 2 pm"},
	}
	for _, tc := range cases {
		if got := NormalizeTimeTokens(tc.in); got != tc.want {
			t.Fatalf("NormalizeTimeTokens(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTimeTokensIdempotent(t *testing.T) {
	inputs := []string{"3 a m", "next tuesday at 2 pm", "9 o'clock sharp"}
	for _, in := range inputs {
		once := NormalizeTimeTokens(in)
		if twice := NormalizeTimeTokens(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeSpokenEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"john at gmail dot com", "john@gmail.com"},
		{"j o h n at g m a i l dot com", "john@gmail.com"},
		{"mary underscore smith at yahoo period com", "mary_smith@yahoo.com"},
		{"bob dash jones at work dash mail dot org", "bob-jones@work-mail.org"},
		{"amy plus spam at gmail dot com", "amy+spam@gmail.com"},
		{"JOHN AT GMAIL DOT COM", "john@gmail.com"},
	}
	for _, tc := range cases {
		if got := NormalizeSpokenEmail(tc.in); got != tc.want {
			t.Fatalf("NormalizeSpokenEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeSpokenEmailIdempotent(t *testing.T) {
	inputs := []string{"john@gmail.com", "john at gmail dot com"}
	for _, in := range inputs {
		once := NormalizeSpokenEmail(in)
		if twice := NormalizeSpokenEmail(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  a\t b \n c  "); got != "a b c" {
		t.Fatalf("got %q", got)
	}
}
