package speech

import (
	"regexp"
	"strings"
)

var (
	digitRe = regexp.MustCompile(`\D`)
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
)

// ExtractName accepts any non-empty trimmed utterance as the caller's
// name verbatim.
func ExtractName(utterance string) (string, bool) {
	name := CollapseWhitespace(utterance)
	return name, name != ""
}

// Recognizers emit phone numbers as words as often as numerals.
var digitWords = map[string]byte{
	"zero": '0', "oh": '0',
	"one": '1', "two": '2', "three": '3', "four": '4', "five": '5',
	"six": '6', "seven": '7', "eight": '8', "nine": '9',
}

// ExtractPhone converts spoken digit words, strips non-digits and keeps
// the last ten, formatted with a US country-code prefix. Fewer than ten
// digits is a re-prompt.
func ExtractPhone(utterance string) (string, bool) {
	var b strings.Builder
	for _, tok := range strings.Fields(strings.ToLower(utterance)) {
		if d, ok := digitWords[strings.Trim(tok, ",.!?")]; ok {
			b.WriteByte(d)
			continue
		}
		b.WriteString(tok)
	}
	digits := digitRe.ReplaceAllString(b.String(), "")
	if len(digits) < 10 {
		return "", false
	}
	return "+1" + digits[len(digits)-10:], true
}

// ExtractEmail finds an address in the spoken-email normalization of the
// utterance, falling back to the raw text for callers who dictated a
// literal address.
func ExtractEmail(utterance string) (string, bool) {
	for _, candidate := range []string{NormalizeSpokenEmail(utterance), utterance} {
		if match := emailRe.FindString(candidate); match != "" {
			return strings.ToLower(match), true
		}
	}
	return "", false
}
