package speech

import (
	"testing"
	"time"
)

func testResolver(t *testing.T, now time.Time) *Resolver {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	r := NewResolver(loc)
	r.now = func() time.Time { return now.In(loc) }
	return r
}

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestResolveExplicitMeridiem(t *testing.T) {
	loc := chicago(t)
	// Monday morning.
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	r := testResolver(t, now)

	res := r.Resolve("tomorrow at 3pm", time.Time{})
	if res.Outcome != OutcomeResolved {
		t.Fatalf("expected resolved, got outcome %d clarify %q", res.Outcome, res.Clarify)
	}
	want := time.Date(2026, 3, 3, 15, 0, 0, 0, loc)
	if !res.Time.Equal(want) {
		t.Fatalf("expected %v, got %v", want, res.Time)
	}
}

func TestResolveAmbiguousHourAsksForMeridiem(t *testing.T) {
	loc := chicago(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	r := testResolver(t, now)

	res := r.Resolve("tomorrow at 9", time.Time{})
	if res.Outcome != OutcomeAmbiguousHour {
		t.Fatalf("expected ambiguous hour, got outcome %d", res.Outcome)
	}
	if res.Clarify != ClarifyMeridiem {
		t.Fatalf("expected clarify %q, got %q", ClarifyMeridiem, res.Clarify)
	}
	want := time.Date(2026, 3, 3, 9, 0, 0, 0, loc)
	if !res.Time.Equal(want) {
		t.Fatalf("expected candidate %v, got %v", want, res.Time)
	}
}

func TestResolvePrefersFuture(t *testing.T) {
	loc := chicago(t)
	// 10am, so a plain "9am" already passed today.
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	r := testResolver(t, now)

	res := r.Resolve("9am", time.Time{})
	if res.Outcome != OutcomeResolved {
		t.Fatalf("expected resolved, got outcome %d", res.Outcome)
	}
	want := time.Date(2026, 3, 3, 9, 0, 0, 0, loc)
	if !res.Time.Equal(want) {
		t.Fatalf("expected %v, got %v", want, res.Time)
	}
}

func TestResolveAnchorsTimeOnlyToReference(t *testing.T) {
	loc := chicago(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	r := testResolver(t, now)
	ref := time.Date(2026, 3, 5, 9, 0, 0, 0, loc) // Thursday

	res := r.Resolve("make it 3pm", ref)
	if res.Outcome != OutcomeResolved {
		t.Fatalf("expected resolved, got outcome %d", res.Outcome)
	}
	want := time.Date(2026, 3, 5, 15, 0, 0, 0, loc)
	if !res.Time.Equal(want) {
		t.Fatalf("expected %v, got %v", want, res.Time)
	}

	res = r.Resolve("actually 9:30 am", ref)
	want = time.Date(2026, 3, 5, 9, 30, 0, 0, loc)
	if res.Outcome != OutcomeResolved || !res.Time.Equal(want) {
		t.Fatalf("expected %v, got outcome %d time %v", want, res.Outcome, res.Time)
	}
}

func TestResolveDateWordOverridesReference(t *testing.T) {
	loc := chicago(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	r := testResolver(t, now)
	ref := time.Date(2026, 3, 5, 9, 0, 0, 0, loc)

	// Naming a new day discards the old reference day.
	res := r.Resolve("tomorrow at 3pm", ref)
	if res.Outcome != OutcomeResolved {
		t.Fatalf("expected resolved, got outcome %d", res.Outcome)
	}
	want := time.Date(2026, 3, 3, 15, 0, 0, 0, loc)
	if !res.Time.Equal(want) {
		t.Fatalf("expected %v, got %v", want, res.Time)
	}
}

func TestResolveNoParse(t *testing.T) {
	r := testResolver(t, time.Date(2026, 3, 2, 10, 0, 0, 0, chicago(t)))
	res := r.Resolve("I like turtles", time.Time{})
	if res.Outcome != OutcomeNoParse {
		t.Fatalf("expected no parse, got outcome %d time %v", res.Outcome, res.Time)
	}
	if res.Clarify != ClarifyDayTime {
		t.Fatalf("expected clarify %q, got %q", ClarifyDayTime, res.Clarify)
	}
}

func TestResolveMeridiem(t *testing.T) {
	loc := chicago(t)
	r := testResolver(t, time.Date(2026, 3, 2, 10, 0, 0, 0, loc))
	candidate := time.Date(2026, 3, 5, 3, 0, 0, 0, loc)

	dt, ok := r.ResolveMeridiem(candidate, "in the afternoon")
	if !ok || dt.Hour() != 15 {
		t.Fatalf("expected 15:00, got %v ok=%v", dt, ok)
	}

	dt, ok = r.ResolveMeridiem(candidate, "morning please")
	if !ok || dt.Hour() != 3 {
		t.Fatalf("expected 3:00, got %v ok=%v", dt, ok)
	}

	evening := time.Date(2026, 3, 5, 21, 0, 0, 0, loc)
	dt, ok = r.ResolveMeridiem(evening, "morning")
	if !ok || dt.Hour() != 9 {
		t.Fatalf("expected 9:00, got %v ok=%v", dt, ok)
	}

	if _, ok := r.ResolveMeridiem(candidate, "whenever works"); ok {
		t.Fatalf("expected no answer for neither half of the day")
	}
}

func TestExplicitClock(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		found  bool
	}{
		{"thursday at 3pm", 15, 0, true},
		{"thursday at 9", 9, 0, true},
		{"9:30 am", 9, 30, true},
		{"12 pm", 12, 0, true},
		{"12 am", 0, 0, true},
		{"next tuesday", 0, 0, false},
		{"march 5", 0, 0, false},
	}
	for _, tc := range cases {
		h, m, found := explicitClock(NormalizeTimeTokens(tc.in))
		if found != tc.found {
			t.Fatalf("explicitClock(%q) found=%v, want %v", tc.in, found, tc.found)
		}
		if found && (h != tc.hour || m != tc.minute) {
			t.Fatalf("explicitClock(%q) = %d:%02d, want %d:%02d", tc.in, h, m, tc.hour, tc.minute)
		}
	}
}

func TestPreferFuture(t *testing.T) {
	loc := chicago(t)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)

	past := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	if got := preferFuture(past, base); !got.Equal(past.AddDate(0, 0, 1)) {
		t.Fatalf("expected roll forward one day, got %v", got)
	}

	future := time.Date(2026, 3, 2, 11, 0, 0, 0, loc)
	if got := preferFuture(future, base); !got.Equal(future) {
		t.Fatalf("expected untouched future time, got %v", got)
	}
}

func TestFriendly(t *testing.T) {
	loc := chicago(t)
	dt := time.Date(2026, 3, 5, 15, 30, 0, 0, loc)
	if got := Friendly(dt); got != "Thursday, March 5 at 3:30 PM" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveMeridiemDSTTransitionDay(t *testing.T) {
	loc := chicago(t)
	r := NewResolver(loc)

	// Spring-forward day: the 2 AM hour does not exist, so adding
	// twelve hours to the 1 AM instant would land on 2 PM wall clock.
	candidate := time.Date(2026, 3, 8, 1, 0, 0, 0, loc)
	dt, ok := r.ResolveMeridiem(candidate, "in the afternoon")
	if !ok {
		t.Fatalf("expected resolution")
	}
	if dt.Day() != 8 || dt.Hour() != 13 {
		t.Fatalf("expected 1 PM on the same day, got %v", dt)
	}
}
