// Package elevenlabs is a REST text-to-speech provider.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chirodesk/voicebot/pkg/errorsx"
	"github.com/chirodesk/voicebot/pkg/resilience"
	"github.com/chirodesk/voicebot/pkg/synth"
)

type Config struct {
	APIKey          string
	VoiceID         string
	ModelID         string
	BaseURL         string
	Timeout         time.Duration
	Stability       float64
	SimilarityBoost float64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.elevenlabs.io"
	}
	if c.ModelID == "" {
		c.ModelID = "eleven_monolingual_v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Stability == 0 {
		c.Stability = 0.5
	}
	if c.SimilarityBoost == 0 {
		c.SimilarityBoost = 0.75
	}
	return c
}

// ElevenLabsTTS synthesizes one utterance per request. Telephony prompts
// are short, so the non-streaming endpoint is fast enough and the reply
// is cacheable as a whole.
type ElevenLabsTTS struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) (*ElevenLabsTTS, error) {
	if cfg.APIKey == "" || cfg.VoiceID == "" {
		return nil, errors.New("missing elevenlabs config")
	}
	cfg = cfg.withDefaults()
	return &ElevenLabsTTS{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (s *ElevenLabsTTS) Name() string { return "elevenlabs" }

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns MPEG audio for the text.
func (s *ElevenLabsTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: s.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       s.cfg.Stability,
			SimilarityBoost: s.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}

	url := s.cfg.BaseURL + "/v1/text-to-speech/" + s.cfg.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	req.Header.Set("xi-api-key", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.RateLimitError{Provider: "elevenlabs", Message: resp.Status}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorsx.Wrap(
			fmt.Errorf("elevenlabs status %s", resp.Status),
			errorsx.ReasonTTSSynthesize,
		)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSynthesize)
	}
	return audio, nil
}

var _ synth.Provider = (*ElevenLabsTTS)(nil)
