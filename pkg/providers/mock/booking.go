package mock

import (
	"context"
	"sync"

	"github.com/chirodesk/voicebot/pkg/dialog"
)

type BookingConfig struct {
	// Err makes every booking attempt fail with this error.
	Err error
}

// BookingGateway records booking requests instead of calling a CRM.
type BookingGateway struct {
	cfg      BookingConfig
	mu       sync.Mutex
	requests []dialog.BookingRequest
}

func NewBookingGateway(cfg BookingConfig) *BookingGateway {
	return &BookingGateway{cfg: cfg}
}

func (g *BookingGateway) BookAppointment(ctx context.Context, req dialog.BookingRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cfg.Err != nil {
		return g.cfg.Err
	}
	g.requests = append(g.requests, req)
	return nil
}

// Requests returns a copy of the recorded bookings.
func (g *BookingGateway) Requests() []dialog.BookingRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]dialog.BookingRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

// SetErr toggles failure injection at runtime.
func (g *BookingGateway) SetErr(err error) {
	g.mu.Lock()
	g.cfg.Err = err
	g.mu.Unlock()
}
