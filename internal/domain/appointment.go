package domain

import "time"

// AppointmentStatus enumerates lifecycle states for appointments.
type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// ValidStatus reports whether the value is one of the enumerated statuses.
func ValidStatus(status AppointmentStatus) bool {
	switch status {
	case AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Appointment is the aggregate for booked calendar slots. It is never
// physically deleted; cancellation is a terminal status.
type Appointment struct {
	ID              string
	CustomerID      string
	ServiceType     string
	StartTime       time.Time
	DurationMinutes int
	Status          AppointmentStatus
	Notes           string
	CreatedByCallID *string
	Metadata        AppointmentMetadata
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EndTime returns the exclusive end of the booked interval.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AppointmentMetadata is the audit bag embedded in the appointment row.
// History lists are append-only and never truncated or reordered.
type AppointmentMetadata struct {
	RescheduleHistory []RescheduleEntry `json:"reschedule_history,omitempty"`
	StatusHistory     []StatusEntry     `json:"status_history,omitempty"`
	Cancellation      *Cancellation     `json:"cancellation,omitempty"`
	CRMAppointmentID  string            `json:"crm_appointment_id,omitempty"`
}

// RescheduleEntry records one time change.
type RescheduleEntry struct {
	OldTime   time.Time `json:"old_time"`
	NewTime   time.Time `json:"new_time"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusEntry records one status transition.
type StatusEntry struct {
	OldStatus AppointmentStatus `json:"old_status"`
	NewStatus AppointmentStatus `json:"new_status"`
	Timestamp time.Time         `json:"timestamp"`
}

// Cancellation records the terminal cancellation details.
type Cancellation struct {
	Timestamp       time.Time `json:"timestamp"`
	Reason          string    `json:"reason,omitempty"`
	RescheduleLater bool      `json:"reschedule_later"`
}
