package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chirodesk/voicebot/pkg/errorsx"
	"github.com/chirodesk/voicebot/pkg/redact"
	"github.com/chirodesk/voicebot/pkg/speech"
)

// BookingRequest carries the four collected fields to the booking gateway.
type BookingRequest struct {
	Name  string
	Phone string
	Email string
	Start time.Time
}

// BookingGateway persists a confirmed appointment with the clinic's CRM.
// The flow calls it exactly once per completed collection cycle and never
// retries on its own; a failure is surfaced to the caller, who retries
// conversationally.
type BookingGateway interface {
	BookAppointment(ctx context.Context, req BookingRequest) error
}

// Config holds dependencies for the booking flow.
type Config struct {
	Resolver   *speech.Resolver
	Classifier *Classifier
	Gateway    BookingGateway
	Logger     *slog.Logger
	Clinic     ClinicInfo
}

func (c Config) withDefaults() Config {
	c.Clinic = c.Clinic.withDefaults()
	if c.Classifier == nil {
		c.Classifier = NewClassifier(c.Clinic)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Flow is the booking dialog state machine. One turn in, one spoken reply
// out; all state lives on the session.
type Flow struct {
	resolver   *speech.Resolver
	classifier *Classifier
	gateway    BookingGateway
	logger     *slog.Logger
	greeting   string
}

// New builds a flow. Resolver and Gateway are required.
func New(cfg Config) *Flow {
	cfg = cfg.withDefaults()
	return &Flow{
		resolver:   cfg.Resolver,
		classifier: cfg.Classifier,
		gateway:    cfg.Gateway,
		logger:     cfg.Logger,
		greeting:   fmt.Sprintf(PromptGreetingTpl, cfg.Clinic.Name),
	}
}

// Greeting is the opening line spoken when a call connects.
func (f *Flow) Greeting() string { return f.greeting }

// HandleTurn processes one caller utterance and returns the reply to
// speak. It holds the session lock for the whole turn, including the
// booking commit, so concurrent turns for one call cannot interleave.
// Any panic below is converted into a generic apology; a turn never
// drops the call.
func (f *Flow) HandleTurn(ctx context.Context, sess *Session, rawSpeech string) (reply string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("turn_panic",
				slog.String("call_id", sess.CallID),
				slog.Any("panic", r),
			)
			reply = RespondInternalError
		}
	}()

	raw := speech.CollapseWhitespace(rawSpeech)
	utterance := strings.ToLower(raw)
	f.logger.Info("turn_received",
		slog.String("call_id", sess.CallID),
		slog.String("stage", sess.Booking.Stage.String()),
		slog.String("utterance", redact.Text(utterance)),
	)

	if utterance == "" {
		return PromptRepeat
	}

	// Booking intent is sticky and recorded even when an emotional
	// override wins the turn's response.
	if sess.Booking.Intent == IntentNone && f.classifier.BookingIntent(utterance) {
		sess.Booking.Intent = IntentBooking
	}

	if resp, ok := f.classifier.Classify(sess, utterance); ok {
		return resp
	}

	if sess.Booking.Intent == IntentBooking {
		return f.bookingTurn(ctx, sess, utterance, raw)
	}

	if answer, ok := f.classifier.FAQAnswer(utterance); ok {
		return answer
	}
	return PromptMenu
}

// bookingTurn advances the collection stages. utterance is lowercased
// for matching; raw keeps the recognizer's casing so the name is stored
// verbatim.
func (f *Flow) bookingTurn(ctx context.Context, sess *Session, utterance, raw string) string {
	b := &sess.Booking

	if b.CommitPending {
		return f.commit(ctx, sess)
	}
	if !b.DateTime.IsZero() && b.Name != "" && b.Phone != "" && b.Email != "" {
		return RespondAlreadyBooked
	}

	switch b.Stage {
	case StageCollectDateTime:
		return f.collectDateTime(sess, utterance)

	case StageCollectName:
		name, ok := speech.ExtractName(raw)
		if !ok {
			return PromptNameRetry
		}
		b.Name = name
		b.Stage = StageCollectPhone
		return fmt.Sprintf(PromptAskPhone, name)

	case StageCollectPhone:
		phone, ok := speech.ExtractPhone(utterance)
		if !ok {
			return PromptPhoneRetry
		}
		b.Phone = phone
		b.Stage = StageCollectEmail
		return PromptAskEmail

	case StageCollectEmail:
		email, ok := speech.ExtractEmail(utterance)
		if !ok {
			return PromptEmailRetry
		}
		b.Email = email
		return f.commit(ctx, sess)

	default:
		return PromptMenu
	}
}

func (f *Flow) collectDateTime(sess *Session, utterance string) string {
	b := &sess.Booking

	if b.AwaitingAMPM && !b.CandidateDT.IsZero() {
		dt, ok := f.resolver.ResolveMeridiem(b.CandidateDT, utterance)
		if !ok {
			return speech.ClarifyMeridiem
		}
		b.AwaitingAMPM = false
		f.finalizeDateTime(sess, dt)
		return fmt.Sprintf(PromptAskName, b.FriendlyDT)
	}

	if !b.CandidateDT.IsZero() && isAffirmation(utterance) {
		f.finalizeDateTime(sess, b.CandidateDT)
		return fmt.Sprintf(PromptAskName, b.FriendlyDT)
	}

	res := f.resolver.Resolve(utterance, b.LastContextDT)
	switch res.Outcome {
	case speech.OutcomeResolved:
		b.CandidateDT = res.Time
		b.LastContextDT = res.Time
		return fmt.Sprintf(PromptConfirmDateTime, speech.Friendly(res.Time))

	case speech.OutcomeAmbiguousHour:
		b.CandidateDT = res.Time
		b.LastContextDT = res.Time
		b.AwaitingAMPM = true
		return res.Clarify

	default:
		if !b.askedDateTime {
			b.askedDateTime = true
			if sess.HumanMode {
				return PromptAskDateTimeBrief
			}
			return PromptAskDateTime
		}
		return res.Clarify
	}
}

func (f *Flow) finalizeDateTime(sess *Session, dt time.Time) {
	b := &sess.Booking
	b.DateTime = dt
	b.FriendlyDT = speech.Friendly(dt)
	b.LastContextDT = dt
	b.CandidateDT = time.Time{}
	b.Stage = StageCollectName
	f.logger.Info("datetime_confirmed",
		slog.String("call_id", sess.CallID),
		slog.Time("datetime", dt),
	)
}

// commit fires the booking gateway once with the collected fields. On
// success the booking record resets so a new flow can start in the same
// call; on failure the record stays intact and CommitPending arms a
// conversational retry.
func (f *Flow) commit(ctx context.Context, sess *Session) string {
	b := &sess.Booking
	req := BookingRequest{
		Name:  b.Name,
		Phone: b.Phone,
		Email: b.Email,
		Start: b.DateTime,
	}

	if err := f.gateway.BookAppointment(ctx, req); err != nil {
		b.CommitPending = true
		f.logger.Warn("booking_failed",
			slog.String("call_id", sess.CallID),
			slog.String("reason", string(errorsx.Reason(err))),
			slog.String("error", redact.Text(err.Error())),
		)
		return RespondBookingFailed
	}

	friendly := b.FriendlyDT
	phoneTail := b.Phone
	if len(phoneTail) > 4 {
		phoneTail = phoneTail[len(phoneTail)-4:]
	}
	f.logger.Info("booking_confirmed",
		slog.String("call_id", sess.CallID),
		slog.Time("datetime", b.DateTime),
	)

	sess.Booking = Booking{}
	return fmt.Sprintf(RespondBookingConfirmed, friendly, phoneTail)
}
