package dialog

import (
	"fmt"
	"regexp"
	"strings"
)

// Keyword groups checked per turn, highest priority first. Matching is
// plain substring containment over the lowercased utterance, which keeps
// the classifier predictable over noisy phone-quality transcripts.
var (
	toneKeywords = []string{
		"more natural", "too robotic", "sound like a robot",
		"too slow", "talk faster", "speak normally",
	}
	urgencyKeywords = []string{
		"emergency", "urgent", "right away", "as soon as possible",
		"can't wait", "cannot wait", "immediately",
	}
	painKeywords = []string{
		"hurt", "sore", "aching", "in pain", "killing me", "agony",
	}
	frustrationKeywords = []string{
		"frustrated", "frustrating", "this is ridiculous", "not listening",
		"useless", "speak to a human", "real person",
	}
	confusionKeywords = []string{
		"confused", "don't understand", "what do you mean",
		"i'm lost", "makes no sense",
	}

	bookingKeywords = []string{
		"book", "appointment", "schedule", "visit", "come in",
		"pain", "hurt", "adjustment", "checkup", "check up",
	}

	hoursKeywords    = []string{"hours", "open", "close", "closing"}
	locationKeywords = []string{"location", "address", "where", "directions"}
	pricingKeywords  = []string{"price", "pricing", "cost", "how much", "insurance", "copay"}
	painFAQKeywords  = []string{"back", "neck", "headache", "sciatica"}
)

// Confirmation words match on word boundaries so "yes" inside
// "yesterday" does not count, and any negation word vetoes the match:
// "no, that's not right" contains "right" but rejects the candidate.
var (
	affirmationRe = regexp.MustCompile(`\b(yes|yeah|yep|yup|correct|right|sure|absolutely|perfect|that works|sounds good)\b`)
	negationRe    = regexp.MustCompile(`\b(no|not|nope|nah|wrong|never)\b|n't\b`)
)

type faqGroup struct {
	keywords []string
	answer   string
}

// Classifier flags emotional state and booking intent from caller speech
// and answers the canned FAQ groups with the clinic's own facts.
type Classifier struct {
	frustration string
	faq         []faqGroup
}

func NewClassifier(clinic ClinicInfo) *Classifier {
	clinic = clinic.withDefaults()
	return &Classifier{
		frustration: fmt.Sprintf(RespondFrustrationTpl, clinic.Phone),
		faq: []faqGroup{
			{hoursKeywords, AnswerHours},
			{locationKeywords, fmt.Sprintf(AnswerLocationTpl, clinic.Location)},
			{pricingKeywords, AnswerPricing},
			{painFAQKeywords, AnswerPainFAQ},
		},
	}
}

// Classify checks the emotional keyword groups in priority order. The
// first group that matches sets its sticky session flag and returns the
// override response for this turn. The bool is false when nothing
// matched and the normal flow should proceed.
func (c *Classifier) Classify(sess *Session, utterance string) (string, bool) {
	switch {
	case containsAny(utterance, toneKeywords):
		sess.HumanMode = true
		return RespondToneFeedback, true
	case containsAny(utterance, urgencyKeywords):
		sess.Urgency = true
		sess.PainMentioned = true
		return RespondUrgency, true
	case containsAny(utterance, painKeywords):
		sess.PainMentioned = true
		return RespondPain, true
	case containsAny(utterance, frustrationKeywords):
		sess.Frustrated = true
		return c.frustration, true
	case containsAny(utterance, confusionKeywords):
		sess.Confused = true
		return RespondConfusion, true
	}
	return "", false
}

// BookingIntent reports whether the utterance mentions booking. The flow
// records it before emotional overrides run, so "my back hurts and I need
// to come in" both earns empathy and enters the booking flow.
func (c *Classifier) BookingIntent(utterance string) bool {
	return containsAny(utterance, bookingKeywords)
}

// FAQAnswer matches the utterance against the canned question groups.
func (c *Classifier) FAQAnswer(utterance string) (string, bool) {
	for _, g := range c.faq {
		if containsAny(utterance, g.keywords) {
			return g.answer, true
		}
	}
	return "", false
}

func isAffirmation(utterance string) bool {
	return affirmationRe.MatchString(utterance) && !negationRe.MatchString(utterance)
}

func containsAny(utterance string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(utterance, kw) {
			return true
		}
	}
	return false
}
