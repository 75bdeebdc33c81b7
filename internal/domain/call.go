package domain

import "time"

// CallIntent classifies what the caller asked for.
type CallIntent string

const (
	IntentBookAppointment       CallIntent = "book_appointment"
	IntentRescheduleAppointment CallIntent = "reschedule_appointment"
	IntentCancelAppointment     CallIntent = "cancel_appointment"
	IntentTransfer              CallIntent = "transfer"
	IntentGeneralQuestion       CallIntent = "general_question"
)

// Call records one inbound voice interaction delivered by the upstream
// webhook. The transcript is plain text with no structural guarantees.
type Call struct {
	ID         string
	CallerID   string
	CustomerID *string
	Transcript string
	Intent     CallIntent
	CreatedAt  time.Time
}
