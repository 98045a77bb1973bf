package dialog

// ClinicInfo carries the clinic facts spoken in prompts and answers.
type ClinicInfo struct {
	Name     string
	Location string
	Phone    string
}

func (c ClinicInfo) withDefaults() ClinicInfo {
	if c.Name == "" {
		c.Name = "Vanguard Chiropractic"
	}
	if c.Location == "" {
		c.Location = "123 Main Street, Suite 456, in downtown Austin, right across from the public library"
	}
	if c.Phone == "" {
		c.Phone = "(830) 429-4111"
	}
	return c
}

// Spoken lines used by the booking flow. Phrasing is tuned for TTS over a
// phone line: short sentences, no abbreviations, numbers spelled out.
const (
	PromptGreetingTpl = "Thank you for calling %s. How can I help you today?"
	PromptRepeat      = "I'm sorry, I didn't hear anything. Could you say that again?"
	PromptMenu        = "I'm sorry, I didn't quite catch that. Are you calling about scheduling an appointment, our hours, or our location?"

	PromptAskDateTime      = "I'd be happy to help you schedule an appointment. What day and time works for you?"
	PromptAskDateTimeBrief = "Sure. What day and time works for you?"
	PromptConfirmDateTime  = "Just to confirm, %s. Is that right?"
	PromptAskName          = "Perfect, I have you down for %s. Can I get your full name?"
	PromptNameRetry        = "I'm sorry, I didn't catch your name. Could you say it again?"
	PromptAskPhone         = "Thanks, %s. What's the best phone number to reach you?"
	PromptPhoneRetry       = "I'm sorry, I need a ten digit phone number including the area code. Please say it digit by digit."
	PromptAskEmail         = "Got it. And what's your email address?"
	PromptEmailRetry       = "I didn't catch a valid email address. You can spell it out, for example, john at gmail dot com."

	RespondBookingConfirmed = "You're all set. I've booked your appointment for %s, and we'll send a confirmation to the number ending in %s. Is there anything else I can help you with?"
	RespondBookingFailed    = "I'm sorry, something went wrong while booking your appointment. Your details are saved, so just say try again and I'll give it another shot."
	RespondAlreadyBooked    = "Your appointment is already confirmed. Is there anything else I can help you with?"

	RespondToneFeedback   = "Got it, I'll keep things brief and natural. How can I help?"
	RespondUrgency        = "I understand this is urgent. Let's get you the earliest available appointment. What day and time works for you?"
	RespondPain           = "I'm really sorry you're hurting. The doctor will take good care of you. Would you like to schedule an appointment?"
	RespondFrustrationTpl = "I'm sorry for the trouble. You can reach our front desk directly at %s, or I'm happy to keep helping."
	RespondConfusion      = "No problem, let me explain. I can book appointments, share our hours, or give directions. What would you like to do?"

	RespondInternalError = "I'm sorry, something went wrong on my end. Could you say that again?"

	AnswerHours       = "We're open Monday through Friday from 9 AM to 6 PM, and Saturday from 10 AM to 2 PM. We're closed on Sundays. Is there anything else I can help you with?"
	AnswerLocationTpl = "We're located at %s. Is there anything else I can help you with?"
	AnswerPricing     = "We accept most major insurance plans, and new patient visits start at sixty five dollars. Our front desk can confirm your coverage. Is there anything else I can help you with?"
	AnswerPainFAQ     = "Chiropractic care helps with back pain, neck pain, and headaches. Would you like to schedule an appointment with the doctor?"
)
