// Package mock provides in-process stand-ins for the TTS and booking
// vendors, used in tests and local runs without API keys.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/chirodesk/voicebot/pkg/dialog"
	"github.com/chirodesk/voicebot/pkg/synth"
)

type TTSConfig struct {
	// Latency delays each synthesis to mimic a network round trip.
	Latency time.Duration
	// FailFirst makes the first N calls fail, for retry paths.
	FailFirst int
}

// TTS returns the input text as fake audio bytes so tests can assert on
// what would have been spoken.
type TTS struct {
	cfg   TTSConfig
	mu    sync.Mutex
	calls int
}

func NewTTS(cfg TTSConfig) *TTS {
	return &TTS{cfg: cfg}
}

func (t *TTS) Name() string { return "mock_tts" }

func (t *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if t.cfg.Latency > 0 {
		select {
		case <-time.After(t.cfg.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.calls <= t.cfg.FailFirst {
		return nil, errSynthesisFailed
	}
	return []byte("audio:" + text), nil
}

// Calls reports how many synthesis attempts were made.
func (t *TTS) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

type mockError string

func (e mockError) Error() string { return string(e) }

const errSynthesisFailed = mockError("mock synthesis failed")

var _ synth.Provider = (*TTS)(nil)
var _ dialog.BookingGateway = (*BookingGateway)(nil)
