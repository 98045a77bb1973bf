// Package gohighlevel books appointments against the GoHighLevel CRM.
package gohighlevel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chirodesk/voicebot/pkg/dialog"
	"github.com/chirodesk/voicebot/pkg/errorsx"
	"github.com/chirodesk/voicebot/pkg/redact"
)

type Config struct {
	APIKey     string
	LocationID string
	CalendarID string
	BaseURL    string
	Timezone   string
	Timeout    time.Duration
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://rest.gohighlevel.com"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Chicago"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Gateway performs the two-step booking: create-or-update the contact,
// then create the appointment against the clinic calendar. It never
// retries; the dialog layer offers the caller a conversational retry
// instead, keeping the commit at most once per caller action.
type Gateway struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func New(cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" || cfg.LocationID == "" || cfg.CalendarID == "" {
		return nil, errorsx.Wrap(errors.New("missing gohighlevel config"), errorsx.ReasonBookingConfig)
	}
	cfg = cfg.withDefaults()
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger,
	}, nil
}

type contactPayload struct {
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	LocationID string `json:"locationId"`
}

type contactResponse struct {
	ID      string `json:"id"`
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
}

type appointmentPayload struct {
	CalendarID       string `json:"calendarId"`
	ContactID        string `json:"contactId"`
	StartTime        string `json:"startTime"`
	Title            string `json:"title"`
	LocationID       string `json:"locationId"`
	SelectedTimezone string `json:"selectedTimezone"`
}

// BookAppointment implements dialog.BookingGateway.
func (g *Gateway) BookAppointment(ctx context.Context, req dialog.BookingRequest) error {
	contactID, err := g.upsertContact(ctx, req)
	if err != nil {
		return err
	}

	payload := appointmentPayload{
		CalendarID:       g.cfg.CalendarID,
		ContactID:        contactID,
		StartTime:        req.Start.Format(time.RFC3339),
		Title:            "Appointment with " + req.Name,
		LocationID:       g.cfg.LocationID,
		SelectedTimezone: g.cfg.Timezone,
	}
	if err := g.post(ctx, "/v1/appointments/", payload, nil); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonBookingAppointment)
	}

	g.logger.Info("appointment_booked",
		slog.String("contact_id", contactID),
		slog.Time("start", req.Start),
	)
	return nil
}

func (g *Gateway) upsertContact(ctx context.Context, req dialog.BookingRequest) (string, error) {
	first, last := splitName(req.Name)
	payload := contactPayload{
		Email:      req.Email,
		Phone:      req.Phone,
		FirstName:  first,
		LastName:   last,
		LocationID: g.cfg.LocationID,
	}

	var resp contactResponse
	if err := g.post(ctx, "/v1/contacts/", payload, &resp); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonBookingContact)
	}

	id := resp.ID
	if id == "" {
		id = resp.Contact.ID
	}
	if id == "" {
		return "", errorsx.Wrap(errors.New("contact id missing in response"), errorsx.ReasonBookingContact)
	}
	return id, nil
}

func (g *Gateway) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errorsx.Wrap(err, errorsx.ReasonBookingTimeout)
		}
		g.logger.Warn("gohighlevel_request_failed",
			slog.String("path", path),
			slog.String("error", redact.Text(err.Error())),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("gohighlevel status %s on %s", resp.Status, path)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

var _ dialog.BookingGateway = (*Gateway)(nil)
