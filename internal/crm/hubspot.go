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

type hubspotClient struct {
	cfg    config.CRMConfig
	http   *http.Client
	logger *zap.Logger
}

func (c *hubspotClient) Name() string { return "hubspot" }

// HubSpot models appointments as meeting engagements.
func (c *hubspotClient) CreateAppointment(ctx context.Context, data AppointmentData) (*Record, error) {
	body := map[string]interface{}{
		"properties": c.meetingProperties(data),
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/meetings", body, &out); err != nil {
		return nil, err
	}
	return &Record{ID: out.ID}, nil
}

func (c *hubspotClient) UpdateAppointment(ctx context.Context, id string, data AppointmentData) (*Record, error) {
	body := map[string]interface{}{
		"properties": c.meetingProperties(data),
	}
	if err := c.do(ctx, http.MethodPatch, "/crm/v3/objects/meetings/"+id, body, nil); err != nil {
		return nil, err
	}
	return &Record{ID: id}, nil
}

func (c *hubspotClient) meetingProperties(data AppointmentData) map[string]string {
	return map[string]string{
		"hs_timestamp":        data.AppointmentTime,
		"hs_meeting_title":    data.ServiceType,
		"hs_meeting_body":     data.Notes,
		"hs_meeting_end_time": data.EndTime,
	}
}

func (c *hubspotClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode hubspot payload: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build hubspot request: %w", err)
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
					return fmt.Errorf("failed to decode hubspot response: %w", err)
				}
				return nil
			}
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			lastErr = fmt.Errorf("hubspot returned %d: %s", resp.StatusCode, raw)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
		} else {
			lastErr = fmt.Errorf("hubspot request failed: %w", err)
		}

		if attempt >= len(retryDelays) {
			return lastErr
		}
		c.logger.Warn("retrying hubspot call",
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
