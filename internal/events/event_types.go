package events

import (
	"time"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAppointmentCreated       EventType = "appointment_created"
	EventAppointmentUpdated       EventType = "appointment_updated"
	EventAppointmentRescheduled   EventType = "appointment_rescheduled"
	EventAppointmentCancelled     EventType = "appointment_cancelled"
	EventAppointmentStatusChanged EventType = "appointment_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	AppointmentID string      `json:"appointment_id"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// AppointmentCreatedPayload payload.
type AppointmentCreatedPayload struct {
	CustomerID  string    `json:"customer_id"`
	ServiceType string    `json:"service_type"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CallID      *string   `json:"call_id,omitempty"`
}

// AppointmentUpdatedPayload payload.
type AppointmentUpdatedPayload struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// AppointmentRescheduledPayload payload.
type AppointmentRescheduledPayload struct {
	OldTime time.Time `json:"old_time"`
	NewTime time.Time `json:"new_time"`
	Reason  string    `json:"reason,omitempty"`
}

// AppointmentCancelledPayload payload.
type AppointmentCancelledPayload struct {
	Reason          string `json:"reason,omitempty"`
	RescheduleLater bool   `json:"reschedule_later"`
}

// AppointmentStatusChangedPayload payload.
type AppointmentStatusChangedPayload struct {
	OldStatus domain.AppointmentStatus `json:"old_status"`
	NewStatus domain.AppointmentStatus `json:"new_status"`
}
