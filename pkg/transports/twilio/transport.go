// Package twilio serves the Twilio Voice webhook: each POST is one
// conversational turn, answered with TwiML that speaks the reply and
// gathers the caller's next utterance.
package twilio

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	twilioclient "github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"

	"github.com/chirodesk/voicebot/pkg/dialog"
	"github.com/chirodesk/voicebot/pkg/errorsx"
	"github.com/chirodesk/voicebot/pkg/metrics"
	"github.com/chirodesk/voicebot/pkg/synth"
)

type Config struct {
	ServerAddr        string `mapstructure:"server_addr"`
	PublicURL         string `mapstructure:"public_url"`
	AuthToken         string `mapstructure:"auth_token"`
	AccountSID        string `mapstructure:"account_sid"`
	VoicePath         string `mapstructure:"voice_path"`
	GatherPath        string `mapstructure:"gather_path"`
	AudioPath         string `mapstructure:"audio_path"`
	ValidateSignature bool   `mapstructure:"validate_signature"`
	Language          string `mapstructure:"language"`
	SpeechTimeout     string `mapstructure:"speech_timeout"`
	FallbackVoice     string `mapstructure:"fallback_voice"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.VoicePath == "" {
		c.VoicePath = "/voice"
	}
	if c.GatherPath == "" {
		c.GatherPath = "/handle-response"
	}
	if c.AudioPath == "" {
		c.AudioPath = "/audio/"
	}
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.SpeechTimeout == "" {
		c.SpeechTimeout = "auto"
	}
	if c.FallbackVoice == "" {
		c.FallbackVoice = "Polly.Joanna"
	}
	return c
}

// Transport wires the dialog flow and synthesizer to Twilio's webhook
// protocol. The synthesizer is optional: without one, replies fall back
// to Twilio's <Say> voice.
type Transport struct {
	cfg       Config
	server    *http.Server
	flow      *dialog.Flow
	store     *dialog.Store
	synth     *synth.Synthesizer
	validator *twilioclient.RequestValidator
	logger    *slog.Logger
	observer  metrics.Observer

	draining atomic.Bool
}

// Deps carries the collaborators the transport drives per turn.
type Deps struct {
	Flow        *dialog.Flow
	Store       *dialog.Store
	Synthesizer *synth.Synthesizer
	Logger      *slog.Logger
	Observer    metrics.Observer
}

func New(cfg Config, deps Deps) *Transport {
	cfg = cfg.withDefaults()
	t := &Transport{
		cfg:      cfg,
		flow:     deps.Flow,
		store:    deps.Store,
		synth:    deps.Synthesizer,
		logger:   deps.Logger,
		observer: deps.Observer,
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.observer == nil {
		t.observer = metrics.NoopObserver{}
	}
	if cfg.ValidateSignature && cfg.AuthToken != "" {
		v := twilioclient.NewRequestValidator(cfg.AuthToken)
		t.validator = &v
	}
	return t
}

func (t *Transport) Name() string { return "twilio" }

func (t *Transport) ReadyFields() map[string]any {
	return map[string]any{
		"voice_webhook_url": t.cfg.PublicURL + t.cfg.VoicePath,
		"gather_url":        t.cfg.PublicURL + t.cfg.GatherPath,
	}
}

// Handler exposes the webhook mux, mainly for tests.
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(t.cfg.VoicePath, t.handleVoice)
	mux.HandleFunc(t.cfg.GatherPath, t.handleGather)
	mux.HandleFunc(t.cfg.AudioPath, t.handleAudio)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.server = &http.Server{
		Addr:              t.cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           t.Handler(),
	}
	go func() {
		<-ctx.Done()
		_ = t.server.Close()
	}()
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("twilio_transport_server_error", slog.String("error", err.Error()))
		}
	}()
	return nil
}

func (t *Transport) Stop() error {
	t.draining.Store(true)
	if t.server != nil {
		_ = t.server.Close()
	}
	return nil
}

// handleVoice answers the initial webhook for a new call with the
// greeting and the first gather.
func (t *Transport) handleVoice(w http.ResponseWriter, r *http.Request) {
	if !t.acceptWebhook(w, r) {
		return
	}
	callSID := t.callSID(r)
	t.store.GetOrCreate(callSID)
	t.logger.Info("call_started", slog.String("call_id", callSID))
	t.respond(w, r, t.flow.Greeting())
}

// handleGather processes one recognized utterance and replies with the
// next prompt. Twilio sends every subsequent turn here.
func (t *Transport) handleGather(w http.ResponseWriter, r *http.Request) {
	if !t.acceptWebhook(w, r) {
		return
	}
	callSID := t.callSID(r)
	speech := r.PostFormValue("SpeechResult")
	if conf := r.PostFormValue("Confidence"); conf != "" {
		t.logger.Debug("speech_received",
			slog.String("call_id", callSID),
			slog.String("confidence", conf),
		)
	}

	start := time.Now()
	sess := t.store.GetOrCreate(callSID)
	reply := t.flow.HandleTurn(r.Context(), sess, speech)
	t.observer.RecordEvent(metrics.MetricsEvent{
		Name:  "turn_handled",
		Time:  time.Now(),
		Value: time.Since(start).Seconds(),
		Tags:  map[string]string{"transport": "twilio"},
	})
	t.respond(w, r, reply)
}

// handleAudio serves synthesized audio referenced by <Play> URLs.
func (t *Transport) handleAudio(w http.ResponseWriter, r *http.Request) {
	if t.synth == nil {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, t.cfg.AudioPath)
	audio, ok := t.synth.Audio(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	_, _ = w.Write(audio)
}

// respond speaks reply and gathers the next utterance. Synthesis failure
// downgrades to Twilio's own voice so the call always gets an answer.
func (t *Transport) respond(w http.ResponseWriter, r *http.Request, reply string) {
	var speak twiml.Element = &twiml.VoiceSay{
		Message:  reply,
		Voice:    t.cfg.FallbackVoice,
		Language: t.cfg.Language,
	}
	if t.synth != nil {
		if id, err := t.synth.Speak(r.Context(), reply); err == nil {
			speak = &twiml.VoicePlay{Url: t.cfg.PublicURL + t.cfg.AudioPath + id}
		} else {
			t.logger.Warn("tts_fallback_to_say", slog.String("error", err.Error()))
		}
	}

	gather := &twiml.VoiceGather{
		Input:         "speech",
		Action:        t.cfg.GatherPath,
		Method:        http.MethodPost,
		Language:      t.cfg.Language,
		SpeechTimeout: t.cfg.SpeechTimeout,
		SpeechModel:   "phone_call",
		InnerElements: []twiml.Element{speak},
	}

	doc, err := twiml.Voice([]twiml.Element{gather})
	if err != nil {
		t.logger.Error("twiml_render_failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(doc))
}

// acceptWebhook rejects requests while draining and verifies Twilio's
// signature when configured.
func (t *Transport) acceptWebhook(w http.ResponseWriter, r *http.Request) bool {
	if t.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return false
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	if t.validator != nil {
		params := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}
		url := t.cfg.PublicURL + r.URL.Path
		if !t.validator.Validate(url, params, r.Header.Get("X-Twilio-Signature")) {
			t.logger.Warn("webhook_signature_rejected",
				slog.String("path", r.URL.Path),
				slog.String("reason", string(errorsx.ReasonTransportInvalidSignature)))
			w.WriteHeader(http.StatusForbidden)
			return false
		}
	}
	return true
}

// callSID falls back to a generated id when Twilio omits one, so a
// malformed webhook still gets a session instead of a crash.
func (t *Transport) callSID(r *http.Request) string {
	if sid := r.PostFormValue("CallSid"); sid != "" {
		return sid
	}
	return "generated-" + uuid.NewString()
}
