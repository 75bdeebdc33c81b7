// Package crm integrates with external customer-relationship systems. Sync is
// best-effort and at-most-once: failures are logged by callers and never roll
// back local state.
package crm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/config"
)

// AppointmentData is the payload pushed to the external system.
type AppointmentData struct {
	CustomerID      string `json:"customer_id"`
	ServiceType     string `json:"service_type"`
	AppointmentTime string `json:"appointment_time"`
	EndTime         string `json:"end_time"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status,omitempty"`
	LocalID         string `json:"db_id,omitempty"`
}

// Record is what the external system reports back.
type Record struct {
	ID string `json:"id"`
}

// Client is implemented once per external system plus a null implementation.
// The concrete client is selected by configuration at startup.
type Client interface {
	Name() string
	CreateAppointment(ctx context.Context, data AppointmentData) (*Record, error)
	UpdateAppointment(ctx context.Context, id string, data AppointmentData) (*Record, error)
}

// New selects the client for the configured provider. Unknown providers fall
// back to the null client.
func New(cfg config.CRMConfig, logger *zap.Logger) Client {
	httpClient := &http.Client{Timeout: cfg.Timeout()}
	switch strings.ToLower(cfg.Provider) {
	case "hubspot":
		return &hubspotClient{cfg: cfg, http: httpClient, logger: logger}
	case "salesforce":
		return &salesforceClient{cfg: cfg, http: httpClient, logger: logger}
	default:
		if !strings.EqualFold(cfg.Provider, "none") && cfg.Provider != "" {
			logger.Warn("unknown CRM provider, sync disabled", zap.String("provider", cfg.Provider))
		}
		return NoopClient{}
	}
}

// NoopClient satisfies Client without talking to anything.
type NoopClient struct{}

func (NoopClient) Name() string { return "none" }

func (NoopClient) CreateAppointment(ctx context.Context, data AppointmentData) (*Record, error) {
	return nil, nil
}

func (NoopClient) UpdateAppointment(ctx context.Context, id string, data AppointmentData) (*Record, error) {
	return nil, nil
}

// retryDelays bounds the simple retry loop shared by the HTTP clients.
var retryDelays = []time.Duration{time.Second, 2 * time.Second}
