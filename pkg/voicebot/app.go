// Package voicebot assembles the clinic voice assistant: configuration,
// vendor providers, the booking dialog and the telephony transport.
package voicebot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chirodesk/voicebot/pkg/configutil"
	"github.com/chirodesk/voicebot/pkg/dialog"
	"github.com/chirodesk/voicebot/pkg/logging"
	"github.com/chirodesk/voicebot/pkg/metrics"
	"github.com/chirodesk/voicebot/pkg/speech"
	"github.com/chirodesk/voicebot/pkg/synth"
	"github.com/chirodesk/voicebot/pkg/transports"
	twiliotransport "github.com/chirodesk/voicebot/pkg/transports/twilio"
)

type twilioSettings struct {
	AccountSID        string `mapstructure:"account_sid"`
	AuthToken         string `mapstructure:"auth_token"`
	PublicURL         string `mapstructure:"public_url"`
	ServerAddr        string `mapstructure:"server_addr"`
	VoicePath         string `mapstructure:"voice_path"`
	GatherPath        string `mapstructure:"gather_path"`
	AudioPath         string `mapstructure:"audio_path"`
	ValidateSignature *bool  `mapstructure:"validate_signature"`
	Language          string `mapstructure:"language"`
	SpeechTimeout     string `mapstructure:"speech_timeout"`
	FallbackVoice     string `mapstructure:"fallback_voice"`
}

// App owns the assembled components and their lifecycle.
type App struct {
	cfg         Config
	logger      *slog.Logger
	store       *dialog.Store
	flow        *dialog.Flow
	transport   transports.Transport
	metricsFile *os.File
	asyncObs    *metrics.AsyncObserver
}

// NewApp builds the full component graph from config. The registry
// resolves vendor names to constructors; DefaultRegistry covers the
// built-in ones.
func NewApp(cfg Config, reg *ProviderRegistry, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Clinic.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clinic.timezone: %w", err)
	}

	app := &App{cfg: cfg, logger: logger}
	observer, err := app.buildObserver()
	if err != nil {
		return nil, err
	}

	gateway, err := reg.BuildBooking(cfg.Vendors.Booking.Provider, cfg)
	if err != nil {
		return nil, err
	}

	ttsProvider, err := reg.BuildTTS(cfg.Vendors.TTS.Provider, cfg)
	if err != nil {
		return nil, err
	}
	synthesizer := synth.New(synth.Config{
		Provider:         ttsProvider,
		Logger:           logging.NewComponentLogger(logger, "synth"),
		Observer:         observer,
		MaxRetries:       cfg.Synthesis.MaxRetries,
		RetryBackoff:     time.Duration(cfg.Synthesis.RetryBackoffMS) * time.Millisecond,
		BreakerThreshold: cfg.Synthesis.BreakerThreshold,
		BreakerCooldown:  time.Duration(cfg.Synthesis.BreakerCooldownMS) * time.Millisecond,
		CacheTTL:         time.Duration(cfg.Synthesis.CacheTTLMinutes) * time.Minute,
	})

	store := dialog.NewStore(time.Duration(cfg.Sessions.TTLMinutes) * time.Minute)
	flow := dialog.New(dialog.Config{
		Resolver: speech.NewResolver(loc),
		Gateway:  gateway,
		Logger:   logging.NewComponentLogger(logger, "dialog"),
		Clinic: dialog.ClinicInfo{
			Name:     cfg.Clinic.Name,
			Location: cfg.Clinic.Location,
			Phone:    cfg.Clinic.Phone,
		},
	})

	app.store = store
	app.flow = flow

	transport, err := app.buildTransport(synthesizer, observer)
	if err != nil {
		return nil, err
	}
	app.transport = transport
	return app, nil
}

func (a *App) buildTransport(synthesizer *synth.Synthesizer, observer metrics.Observer) (transports.Transport, error) {
	switch a.cfg.Transport.Provider {
	case "twilio":
		if err := configutil.ValidateSettings(a.cfg.Transport.Settings, configutil.Schema{
			Optional: []string{
				"account_sid", "auth_token", "public_url", "server_addr",
				"voice_path", "gather_path", "audio_path",
				"validate_signature", "language", "speech_timeout", "fallback_voice",
			},
		}); err != nil {
			return nil, fmt.Errorf("transport.settings: %w", err)
		}
		var settings twilioSettings
		if err := configutil.DecodeSettings(a.cfg.Transport.Settings, &settings); err != nil {
			return nil, err
		}
		return twiliotransport.New(twiliotransport.Config{
			ServerAddr:        settings.ServerAddr,
			PublicURL:         settings.PublicURL,
			AuthToken:         settings.AuthToken,
			AccountSID:        settings.AccountSID,
			VoicePath:         settings.VoicePath,
			GatherPath:        settings.GatherPath,
			AudioPath:         settings.AudioPath,
			ValidateSignature: configutil.BoolValue(settings.ValidateSignature, true),
			Language:          settings.Language,
			SpeechTimeout:     settings.SpeechTimeout,
			FallbackVoice:     settings.FallbackVoice,
		}, twiliotransport.Deps{
			Flow:        a.flow,
			Store:       a.store,
			Synthesizer: synthesizer,
			Logger:      logging.NewComponentLogger(a.logger, "transport"),
			Observer:    observer,
		}), nil
	default:
		return nil, fmt.Errorf("transport provider not registered: %s", a.cfg.Transport.Provider)
	}
}

// buildObserver writes turn metrics as JSONL, off the request path and
// optionally sampled.
func (a *App) buildObserver() (metrics.Observer, error) {
	if a.cfg.Observability.MetricsPath == "" {
		return metrics.NoopObserver{}, nil
	}
	f, err := os.OpenFile(a.cfg.Observability.MetricsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("observability.metrics_path: %w", err)
	}
	a.metricsFile = f
	a.asyncObs = metrics.NewAsyncObserver(metrics.NewJSONLObserver(f), 256)

	var obs metrics.Observer = a.asyncObs
	if rate := a.cfg.Observability.SampleRate; rate > 0 && rate < 1 {
		obs = metrics.NewSamplingObserver(obs, rate)
	}
	return obs, nil
}

func (a *App) Start(ctx context.Context) error {
	if err := a.transport.Start(ctx); err != nil {
		return err
	}
	fields := []any{
		slog.String("environment", a.cfg.Environment),
		slog.String("transport", a.transport.Name()),
		slog.String("tts_provider", a.cfg.Vendors.TTS.Provider),
		slog.String("booking_provider", a.cfg.Vendors.Booking.Provider),
	}
	if reporter, ok := a.transport.(transports.ReadyReporter); ok {
		for k, v := range reporter.ReadyFields() {
			fields = append(fields, slog.Any(k, v))
		}
	}
	a.logger.Info("voicebot_ready", fields...)
	return nil
}

func (a *App) Stop() error {
	err := a.transport.Stop()
	if a.asyncObs != nil {
		a.asyncObs.Close()
	}
	if a.metricsFile != nil {
		_ = a.metricsFile.Close()
	}
	return err
}

// Drain stops accepting webhooks. In-flight turns are request-scoped
// and finish with their HTTP handlers.
func (a *App) Drain() error {
	return a.transport.Stop()
}
