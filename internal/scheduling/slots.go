package scheduling

import (
	"time"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// Business hours for slot generation. Eight hours of 30-minute increments
// yield exactly 16 slots per day.
const (
	BusinessStartHour = 9
	BusinessEndHour   = 17
	SlotMinutes       = 30
)

// GenerateSlots returns the ordered fixed-width slots for one day, each
// flagged available unless it overlaps a non-cancelled appointment. When
// serviceType is non-empty only appointments of that service type block slots.
func GenerateSlots(date time.Time, serviceType string, existing []domain.Appointment) []domain.AvailabilitySlot {
	relevant := existing
	if serviceType != "" {
		relevant = make([]domain.Appointment, 0, len(existing))
		for _, appt := range existing {
			if appt.ServiceType == serviceType {
				relevant = append(relevant, appt)
			}
		}
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), BusinessStartHour, 0, 0, 0, businessZone)
	dayEnd := time.Date(date.Year(), date.Month(), date.Day(), BusinessEndHour, 0, 0, 0, businessZone)

	var slots []domain.AvailabilitySlot
	for cursor := dayStart; cursor.Before(dayEnd); cursor = cursor.Add(SlotMinutes * time.Minute) {
		slots = append(slots, domain.AvailabilitySlot{
			StartTime:   cursor,
			EndTime:     cursor.Add(SlotMinutes * time.Minute),
			Available:   len(Conflicts(cursor, SlotMinutes, relevant, "")) == 0,
			ServiceType: serviceType,
		})
	}
	return slots
}
