package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/config"
)

func TestNewSelectsProvider(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		provider string
		want     string
	}{
		{"hubspot", "hubspot"},
		{"HubSpot", "hubspot"},
		{"salesforce", "salesforce"},
		{"none", "none"},
		{"", "none"},
		{"pipedrive", "none"},
	}
	for _, tt := range tests {
		client := New(config.CRMConfig{Provider: tt.provider}, logger)
		if client.Name() != tt.want {
			t.Errorf("New(%q) selected %q, want %q", tt.provider, client.Name(), tt.want)
		}
	}
}

func TestNoopClientReturnsNothing(t *testing.T) {
	var c NoopClient
	rec, err := c.CreateAppointment(context.Background(), AppointmentData{ServiceType: "repair"})
	if err != nil || rec != nil {
		t.Errorf("CreateAppointment returned (%v, %v), want (nil, nil)", rec, err)
	}
	rec, err = c.UpdateAppointment(context.Background(), "ext-1", AppointmentData{})
	if err != nil || rec != nil {
		t.Errorf("UpdateAppointment returned (%v, %v), want (nil, nil)", rec, err)
	}
}

func TestHubspotCreateAppointment(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"12345"}`))
	}))
	defer server.Close()

	client := New(config.CRMConfig{
		Provider: "hubspot",
		BaseURL:  server.URL,
		APIKey:   "secret",
	}, zap.NewNop())

	rec, err := client.CreateAppointment(context.Background(), AppointmentData{
		ServiceType:     "plumbing repair",
		AppointmentTime: "2026-03-16T15:00:00-06:00",
		EndTime:         "2026-03-16T15:30:00-06:00",
		Notes:           "leaky faucet",
	})
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	if rec == nil || rec.ID != "12345" {
		t.Fatalf("CreateAppointment record = %+v, want ID 12345", rec)
	}
	if gotPath != "/crm/v3/objects/meetings" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	props := gotBody["properties"]
	if props["hs_meeting_title"] != "plumbing repair" {
		t.Errorf("hs_meeting_title = %q", props["hs_meeting_title"])
	}
	if props["hs_timestamp"] != "2026-03-16T15:00:00-06:00" {
		t.Errorf("hs_timestamp = %q", props["hs_timestamp"])
	}
}

func TestSalesforceClientErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`[{"message":"bad WhoId"}]`))
	}))
	defer server.Close()

	client := New(config.CRMConfig{
		Provider: "salesforce",
		BaseURL:  server.URL,
		APIKey:   "secret",
	}, zap.NewNop())

	_, err := client.CreateAppointment(context.Background(), AppointmentData{CustomerID: "nope"})
	if err == nil {
		t.Fatal("expected error on 400 response")
	}
	if calls != 1 {
		t.Errorf("4xx responses retried %d times, want a single attempt", calls)
	}
}
