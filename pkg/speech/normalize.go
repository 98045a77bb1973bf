// Package speech turns raw recognized caller speech into canonical tokens
// and structured values: normalized time phrases, spoken email syntax,
// date/time resolution and contact-field extraction.
package speech

import (
	"regexp"
	"strings"
)

var (
	spacedMeridiemRe = regexp.MustCompile(`\b([ap])\s*\.?\s+m\b\.?`)
	brokenPMRe       = regexp.MustCompile(`(\d)\s*a\s+pm\b`)
	brokenAMRe       = regexp.MustCompile(`(\d)\s*p\s+am\b`)
	oclockRe         = regexp.MustCompile(`\s*o'?\s?clock\b`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
	letterRunRe      = regexp.MustCompile(`\b(?:[a-z0-9] )+[a-z0-9]\b`)
)

// spoken separators in dictated email addresses, applied in order.
// Multi-word forms come first so " dot dot " style repeats cannot
// leave half-replaced text behind.
var emailReplacer = strings.NewReplacer(
	" at ", "@",
	" dot ", ".",
	" period ", ".",
	" underscore ", "_",
	" dash ", "-",
	" hyphen ", "-",
	" plus ", "+",
	" space ", "",
)

// CollapseWhitespace collapses runs of whitespace to a single space and
// trims both ends.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// NormalizeTimeTokens repairs recognizer artifacts around meridiem tokens
// so the datetime resolver sees canonical "am"/"pm". Idempotent.
//
//	"3 a m"   -> "3 am"
//	"3 a pm"  -> "3 pm"
//	"3 p am"  -> "3 am"
//	"9 o'clock" -> "9"
func NormalizeTimeTokens(text string) string {
	out := strings.ToLower(CollapseWhitespace(text))
	out = brokenPMRe.ReplaceAllString(out, "$1 pm")
	out = brokenAMRe.ReplaceAllString(out, "$1 am")
	out = spacedMeridiemRe.ReplaceAllString(out, "${1}m")
	out = oclockRe.ReplaceAllString(out, "")
	return CollapseWhitespace(out)
}

// NormalizeSpokenEmail converts dictated email syntax into a literal
// address candidate: "john at gmail dot com" -> "john@gmail.com",
// "j o h n at g m a i l dot com" -> "john@gmail.com". Idempotent.
func NormalizeSpokenEmail(text string) string {
	out := " " + strings.ToLower(CollapseWhitespace(text)) + " "
	out = letterRunRe.ReplaceAllStringFunc(out, func(run string) string {
		return strings.ReplaceAll(run, " ", "")
	})
	out = emailReplacer.Replace(out)
	return strings.Join(strings.Fields(out), "")
}
