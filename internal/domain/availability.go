package domain

import "time"

// AvailabilitySlot is an ephemeral candidate interval used for availability
// display. Slots are generated fresh per query and never persisted.
type AvailabilitySlot struct {
	StartTime   time.Time
	EndTime     time.Time
	Available   bool
	ServiceType string
}
