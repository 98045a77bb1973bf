package speech

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Clarification prompts emitted by the resolver. The state machine plays
// these verbatim and re-asks them on a failed follow-up.
const (
	ClarifyDayTime  = "What day and time works for you?"
	ClarifyMeridiem = "Did you mean morning or afternoon?"
)

// Outcome discriminates resolver results.
type Outcome int

const (
	// OutcomeResolved carries a final timezone-aware date-time.
	OutcomeResolved Outcome = iota
	// OutcomeAmbiguousHour carries a candidate whose 1-11 hour needs a
	// morning-or-afternoon answer before it can be accepted.
	OutcomeAmbiguousHour
	// OutcomeNoParse means nothing date-like was found.
	OutcomeNoParse
)

// Resolution is the result of one resolver pass over an utterance.
type Resolution struct {
	Outcome Outcome
	Time    time.Time // resolved or candidate time, zero for OutcomeNoParse
	Clarify string    // clarification prompt when Outcome != OutcomeResolved
}

var (
	meridiemTokenRe = regexp.MustCompile(`\b(?:[01]?\d)(?::[0-5]\d)?\s*(am|pm)\b|\b(a\.m\.|p\.m\.)`)
	dayHalfWordRe   = regexp.MustCompile(`\b(morning|afternoon|evening|tonight|noon|midnight)\b`)
	clockRe         = regexp.MustCompile(`\b(?:at\s+)?([01]?\d|2[0-3])(?::([0-5]\d))?\s*(am|pm)?\b`)
	bareTimeRe      = regexp.MustCompile(`\b([01]?\d)(?::([0-5]\d))?\s*(am|pm)\b`)

	morningWordRe   = regexp.MustCompile(`\b(morning|am|a\.m\.?|early)\b`)
	afternoonWordRe = regexp.MustCompile(`\b(afternoon|evening|tonight|night|pm|p\.m\.?|later)\b`)

	dateWordRe = regexp.MustCompile(`\b(today|tomorrow|next|monday|tuesday|wednesday|thursday|friday|saturday|sunday|january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

// Resolver parses free-form spoken date/time phrases into concrete times
// in the clinic's timezone, preferring future dates.
type Resolver struct {
	parser *when.Parser
	loc    *time.Location
	now    func() time.Time
}

// NewResolver builds a resolver pinned to the given timezone. A nil
// location falls back to UTC.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Resolver{parser: w, loc: loc, now: time.Now}
}

// Resolve parses an utterance into a date-time or a clarification request.
// ref, when non-zero, anchors a time-only utterance ("make it 3pm") to a
// previously resolved day.
func (r *Resolver) Resolve(utterance string, ref time.Time) Resolution {
	normalized := NormalizeTimeTokens(utterance)
	base := r.now().In(r.loc)

	// "make it 3pm" after a resolved Thursday means Thursday 3pm, not
	// today 3pm: a time-only phrase with a prior reference day anchors
	// there before the general parse gets a chance to pick today.
	if !ref.IsZero() && !dateWordRe.MatchString(normalized) {
		if dt, ok := r.anchorToReference(normalized, ref); ok {
			return Resolution{Outcome: OutcomeResolved, Time: dt}
		}
	}

	result, err := r.parser.Parse(normalized, base)
	if err != nil || result == nil {
		return Resolution{Outcome: OutcomeNoParse, Clarify: ClarifyDayTime}
	}

	dt := result.Time.In(r.loc)
	explicit := hasExplicitMeridiem(normalized)

	// The library's hour rule does not cover every spoken form ("thursday
	// at 9"); an explicit clock phrase in the text wins over whatever hour
	// the parse landed on.
	if h, m, found := explicitClock(normalized); found {
		dt = time.Date(dt.Year(), dt.Month(), dt.Day(), h, m, 0, 0, r.loc)
	}
	dt = preferFuture(dt, base)

	if explicit {
		return Resolution{Outcome: OutcomeResolved, Time: dt}
	}
	if h := dt.Hour(); h >= 1 && h <= 11 {
		return Resolution{Outcome: OutcomeAmbiguousHour, Time: dt, Clarify: ClarifyMeridiem}
	}
	return Resolution{Outcome: OutcomeResolved, Time: dt}
}

// ResolveMeridiem applies a morning-or-afternoon follow-up answer to a
// pending candidate. The second return is false when the answer named
// neither half of the day and the question must be re-asked.
func (r *Resolver) ResolveMeridiem(candidate time.Time, utterance string) (time.Time, bool) {
	normalized := NormalizeTimeTokens(utterance)
	dt := candidate.In(r.loc)
	hour := dt.Hour()
	switch {
	case morningWordRe.MatchString(normalized):
		if hour >= 12 {
			hour -= 12
		}
	case afternoonWordRe.MatchString(normalized):
		if hour < 12 {
			hour += 12
		}
	default:
		return time.Time{}, false
	}
	// Rebuild on the candidate's wall clock: shifting the instant by
	// twelve hours lands an hour off on DST transition days.
	return time.Date(dt.Year(), dt.Month(), dt.Day(), hour, dt.Minute(), 0, 0, r.loc), true
}

// Friendly renders a resolved time the way it should be spoken back.
func Friendly(dt time.Time) string {
	return dt.Format("Monday, January 2 at 3:04 PM")
}

// anchorToReference combines a prior resolved day with a bare
// hour-with-meridiem phrase ("make it 3pm" after a Thursday).
func (r *Resolver) anchorToReference(normalized string, ref time.Time) (time.Time, bool) {
	m := bareTimeRe.FindStringSubmatch(normalized)
	if m == nil {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	hour = hour % 12
	if m[3] == "pm" {
		hour += 12
	}
	ref = ref.In(r.loc)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, r.loc), true
}

// preferFuture rolls a parse that landed in the past forward by whole
// days. NL parsers anchor to the reference instant, so "9" on a Thursday
// evening resolves to this morning.
func preferFuture(dt, base time.Time) time.Time {
	for dt.Before(base) {
		dt = dt.AddDate(0, 0, 1)
	}
	return dt
}

func hasExplicitMeridiem(normalized string) bool {
	return meridiemTokenRe.MatchString(normalized) ||
		dayHalfWordRe.MatchString(normalized) ||
		strings.Contains(normalized, "a.m") ||
		strings.Contains(normalized, "p.m")
}

// explicitClock pulls an hour/minute mentioned literally in the text.
// Meridiem-qualified phrases are preferred over bare "at 9" phrases.
func explicitClock(normalized string) (hour, minute int, found bool) {
	if m := bareTimeRe.FindStringSubmatch(normalized); m != nil {
		h, _ := strconv.Atoi(m[1])
		h = h % 12
		if m[3] == "pm" {
			h += 12
		}
		mm := 0
		if m[2] != "" {
			mm, _ = strconv.Atoi(m[2])
		}
		return h, mm, true
	}
	m := clockRe.FindStringSubmatch(normalized)
	if m == nil || !strings.Contains(m[0], "at ") && !strings.Contains(m[0], ":") {
		// A lone number with no "at" or minutes is more likely a date
		// fragment than a clock time; trust the parser for those.
		return 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm := 0
	if m[2] != "" {
		mm, _ = strconv.Atoi(m[2])
	}
	return h, mm, true
}
