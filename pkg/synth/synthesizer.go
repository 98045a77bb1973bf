// Package synth turns reply text into playable audio. It fronts a TTS
// provider with an exact-text cache, bounded retries and a circuit
// breaker, so a flaky vendor degrades to the telephony fallback voice
// instead of stalling calls.
package synth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/chirodesk/voicebot/pkg/errorsx"
	"github.com/chirodesk/voicebot/pkg/metrics"
	"github.com/chirodesk/voicebot/pkg/resilience"
)

// Provider synthesizes one utterance to audio bytes.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config holds synthesizer tuning. Zero values get sensible defaults.
type Config struct {
	Provider Provider
	Logger   *slog.Logger
	Observer metrics.Observer

	MaxRetries       int
	RetryBackoff     time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
	CacheTTL         time.Duration
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Observer == nil {
		c.Observer = metrics.NoopObserver{}
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	return c
}

// Synthesizer is safe for concurrent use by webhook handlers.
type Synthesizer struct {
	provider Provider
	retry    resilience.RetryPolicy
	breaker  *resilience.CircuitBreaker
	logger   *slog.Logger
	observer metrics.Observer

	// byText maps lowercased prompt text to an audio id; audio holds
	// the synthesized bytes served back to the telephony provider.
	byText *cache.Cache
	audio  *cache.Cache
}

// New builds a synthesizer over the given provider.
func New(cfg Config) *Synthesizer {
	cfg = cfg.withDefaults()
	return &Synthesizer{
		provider: cfg.Provider,
		retry:    resilience.NewRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff),
		breaker:  resilience.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		logger:   cfg.Logger,
		observer: cfg.Observer,
		byText:   cache.New(cfg.CacheTTL, cfg.CacheTTL/4),
		audio:    cache.New(cfg.CacheTTL, cfg.CacheTTL/4),
	}
}

// Speak synthesizes text and returns an audio id to hand to the
// transport's audio route. Repeated prompts hit the cache; the same
// question is asked on nearly every call.
func (s *Synthesizer) Speak(ctx context.Context, text string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return "", errorsx.Wrap(errEmptyText, errorsx.ReasonTTSSynthesize)
	}

	if v, ok := s.byText.Get(key); ok {
		id := v.(string)
		if _, live := s.audio.Get(id); live {
			s.observer.RecordEvent(metrics.MetricsEvent{
				Name: "tts_synthesized",
				Time: time.Now(),
				Tags: map[string]string{"provider": s.provider.Name(), "cache": "hit"},
			})
			return id, nil
		}
	}

	if !s.breaker.Allow() {
		return "", errorsx.Wrap(errCircuitOpen, errorsx.ReasonTTSCircuitOpen)
	}

	start := time.Now()
	var data []byte
	err := s.retry.Do(func() error {
		var synthErr error
		data, synthErr = s.provider.Synthesize(ctx, text)
		return synthErr
	})
	if err != nil {
		s.breaker.OnError(err)
		reason := errorsx.ReasonTTSSynthesize
		if resilience.IsRateLimit(err) {
			reason = errorsx.ReasonTTSRateLimit
		}
		s.logger.Warn("tts_synthesize_failed",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
		return "", errorsx.Wrap(err, reason)
	}
	s.breaker.OnSuccess()

	id := uuid.NewString()
	s.audio.Set(id, data, cache.DefaultExpiration)
	s.byText.Set(key, id, cache.DefaultExpiration)
	s.observer.RecordEvent(metrics.MetricsEvent{
		Name:  "tts_synthesized",
		Time:  time.Now(),
		Value: time.Since(start).Seconds(),
		Tags:  map[string]string{"provider": s.provider.Name(), "cache": "miss"},
	})
	s.logger.Debug("tts_synthesized",
		slog.String("provider", s.provider.Name()),
		slog.Int("size_bytes", len(data)),
	)
	return id, nil
}

// Audio returns the synthesized bytes for an id issued by Speak.
func (s *Synthesizer) Audio(id string) ([]byte, bool) {
	v, ok := s.audio.Get(id)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const (
	errEmptyText   = sentinelError("empty synthesis text")
	errCircuitOpen = sentinelError("tts circuit open")
)
