package voicebot

import (
	"fmt"
	"strings"
	"time"

	"github.com/chirodesk/voicebot/pkg/configutil"
	"github.com/chirodesk/voicebot/pkg/dialog"
	"github.com/chirodesk/voicebot/pkg/providers/elevenlabs"
	"github.com/chirodesk/voicebot/pkg/providers/gohighlevel"
	"github.com/chirodesk/voicebot/pkg/providers/mock"
	"github.com/chirodesk/voicebot/pkg/synth"
)

type TTSFactory func(cfg Config) (synth.Provider, error)
type BookingFactory func(cfg Config) (dialog.BookingGateway, error)

// ProviderRegistry maps vendor names from config to constructors.
type ProviderRegistry struct {
	tts     map[string]TTSFactory
	booking map[string]BookingFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		tts:     make(map[string]TTSFactory),
		booking: make(map[string]BookingFactory),
	}
}

func (r *ProviderRegistry) RegisterTTS(name string, factory TTSFactory) {
	r.tts[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) RegisterBooking(name string, factory BookingFactory) {
	r.booking[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) BuildTTS(provider string, cfg Config) (synth.Provider, error) {
	fn := r.tts[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, fmt.Errorf("tts provider not registered: %s", provider)
	}
	return fn(cfg)
}

func (r *ProviderRegistry) BuildBooking(provider string, cfg Config) (dialog.BookingGateway, error) {
	fn := r.booking[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, fmt.Errorf("booking provider not registered: %s", provider)
	}
	return fn(cfg)
}

type elevenlabsSettings struct {
	APIKey          string  `mapstructure:"api_key"`
	VoiceID         string  `mapstructure:"voice_id"`
	ModelID         string  `mapstructure:"model_id"`
	BaseURL         string  `mapstructure:"base_url"`
	TimeoutMS       int     `mapstructure:"timeout_ms"`
	Stability       float64 `mapstructure:"stability"`
	SimilarityBoost float64 `mapstructure:"similarity_boost"`
}

type gohighlevelSettings struct {
	APIKey     string `mapstructure:"api_key"`
	LocationID string `mapstructure:"location_id"`
	CalendarID string `mapstructure:"calendar_id"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
}

type mockTTSSettings struct {
	LatencyMS int `mapstructure:"latency_ms"`
	FailFirst int `mapstructure:"fail_first"`
}

// DefaultRegistry registers the production vendors plus the mocks used
// for local runs without API keys.
func DefaultRegistry() *ProviderRegistry {
	reg := NewProviderRegistry()

	reg.RegisterTTS("elevenlabs", func(cfg Config) (synth.Provider, error) {
		if err := configutil.ValidateSettings(cfg.Vendors.TTS.Settings, configutil.Schema{
			Required: []string{"api_key", "voice_id"},
			Optional: []string{"model_id", "base_url", "timeout_ms", "stability", "similarity_boost"},
		}); err != nil {
			return nil, fmt.Errorf("vendors.tts.settings: %w", err)
		}
		var settings elevenlabsSettings
		if err := configutil.DecodeSettings(cfg.Vendors.TTS.Settings, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.APIKey, "vendors.tts.settings.api_key"); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.VoiceID, "vendors.tts.settings.voice_id"); err != nil {
			return nil, err
		}
		return elevenlabs.New(elevenlabs.Config{
			APIKey:          settings.APIKey,
			VoiceID:         settings.VoiceID,
			ModelID:         settings.ModelID,
			BaseURL:         settings.BaseURL,
			Timeout:         time.Duration(settings.TimeoutMS) * time.Millisecond,
			Stability:       settings.Stability,
			SimilarityBoost: settings.SimilarityBoost,
		})
	})

	reg.RegisterTTS("mock", func(cfg Config) (synth.Provider, error) {
		if err := configutil.ValidateSettings(cfg.Vendors.TTS.Settings, configutil.Schema{
			Optional: []string{"latency_ms", "fail_first"},
		}); err != nil {
			return nil, fmt.Errorf("vendors.tts.settings: %w", err)
		}
		var settings mockTTSSettings
		if err := configutil.DecodeSettings(cfg.Vendors.TTS.Settings, &settings); err != nil {
			return nil, err
		}
		return mock.NewTTS(mock.TTSConfig{
			Latency:   time.Duration(settings.LatencyMS) * time.Millisecond,
			FailFirst: settings.FailFirst,
		}), nil
	})

	reg.RegisterBooking("gohighlevel", func(cfg Config) (dialog.BookingGateway, error) {
		if err := configutil.ValidateSettings(cfg.Vendors.Booking.Settings, configutil.Schema{
			Required: []string{"api_key", "location_id", "calendar_id"},
			Optional: []string{"base_url", "timeout_ms"},
		}); err != nil {
			return nil, fmt.Errorf("vendors.booking.settings: %w", err)
		}
		var settings gohighlevelSettings
		if err := configutil.DecodeSettings(cfg.Vendors.Booking.Settings, &settings); err != nil {
			return nil, err
		}
		return gohighlevel.New(gohighlevel.Config{
			APIKey:     settings.APIKey,
			LocationID: settings.LocationID,
			CalendarID: settings.CalendarID,
			BaseURL:    settings.BaseURL,
			Timezone:   cfg.Clinic.Timezone,
			Timeout:    time.Duration(settings.TimeoutMS) * time.Millisecond,
		})
	})

	reg.RegisterBooking("mock", func(cfg Config) (dialog.BookingGateway, error) {
		return mock.NewBookingGateway(mock.BookingConfig{}), nil
	})

	return reg
}
