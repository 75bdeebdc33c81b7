package dto

import (
	"time"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// CreateAppointmentRequest payload.
type CreateAppointmentRequest struct {
	CustomerID      string    `json:"customer_id"`
	ServiceType     string    `json:"service_type"`
	AppointmentTime time.Time `json:"appointment_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
	CreatedByCallID *string   `json:"created_by_call_id"`
}

// UpdateAppointmentRequest payload; absent fields are untouched.
type UpdateAppointmentRequest struct {
	ServiceType     *string                   `json:"service_type"`
	AppointmentTime *time.Time                `json:"appointment_time"`
	DurationMinutes *int                      `json:"duration_minutes"`
	Notes           *string                   `json:"notes"`
	Status          *domain.AppointmentStatus `json:"status"`
}

// RescheduleAppointmentRequest payload.
type RescheduleAppointmentRequest struct {
	NewTime time.Time `json:"new_time"`
	Reason  string    `json:"reason"`
}

// CancelAppointmentRequest payload.
type CancelAppointmentRequest struct {
	Reason          string `json:"reason"`
	RescheduleLater bool   `json:"reschedule_later"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.AppointmentStatus `json:"status"`
}

// BookAppointmentRequest is the webhook booking payload from the voice
// platform.
type BookAppointmentRequest struct {
	Transcript   string  `json:"transcript"`
	From         string  `json:"from"`
	CustomerName string  `json:"customer_name"`
	ServiceType  string  `json:"service_type"`
	CallID       *string `json:"call_id"`
}

// AppointmentResponse is the full appointment view.
type AppointmentResponse struct {
	ID              string                     `json:"id"`
	CustomerID      string                     `json:"customer_id"`
	ServiceType     string                     `json:"service_type"`
	AppointmentTime string                     `json:"appointment_time"`
	EndTime         string                     `json:"end_time"`
	DurationMinutes int                        `json:"duration_minutes"`
	Status          domain.AppointmentStatus   `json:"status"`
	Notes           string                     `json:"notes,omitempty"`
	CreatedByCallID *string                    `json:"created_by_call_id,omitempty"`
	Metadata        domain.AppointmentMetadata `json:"metadata"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// AvailabilitySlotResponse is one bookable window.
type AvailabilitySlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}
