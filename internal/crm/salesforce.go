package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/config"
)

type salesforceClient struct {
	cfg    config.CRMConfig
	http   *http.Client
	logger *zap.Logger
}

func (c *salesforceClient) Name() string { return "salesforce" }

func (c *salesforceClient) CreateAppointment(ctx context.Context, data AppointmentData) (*Record, error) {
	body := map[string]interface{}{
		"WhoId":             data.CustomerID,
		"Subject":           data.ServiceType,
		"StartDateTime":     data.AppointmentTime,
		"EndDateTime":       data.EndTime,
		"Description":       data.Notes,
		"Voice_Local_Id__c": data.LocalID,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/services/data/v58.0/sobjects/Event", body, &out); err != nil {
		return nil, err
	}
	return &Record{ID: out.ID}, nil
}

func (c *salesforceClient) UpdateAppointment(ctx context.Context, id string, data AppointmentData) (*Record, error) {
	body := map[string]interface{}{
		"StartDateTime": data.AppointmentTime,
		"EndDateTime":   data.EndTime,
		"Description":   data.Notes,
	}
	if err := c.do(ctx, http.MethodPatch, "/services/data/v58.0/sobjects/Event/"+id, body, nil); err != nil {
		return nil, err
	}
	return &Record{ID: id}, nil
}

func (c *salesforceClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode salesforce payload: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build salesforce request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if out != nil && resp.StatusCode != http.StatusNoContent {
					err = json.NewDecoder(resp.Body).Decode(out)
				}
				resp.Body.Close()
				if err != nil {
					return fmt.Errorf("failed to decode salesforce response: %w", err)
				}
				return nil
			}
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			lastErr = fmt.Errorf("salesforce returned %d: %s", resp.StatusCode, raw)
			if resp.StatusCode < 500 {
				return lastErr
			}
		} else {
			lastErr = fmt.Errorf("salesforce request failed: %w", err)
		}

		if attempt >= len(retryDelays) {
			return lastErr
		}
		c.logger.Warn("retrying salesforce call",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelays[attempt]):
		}
	}
}
