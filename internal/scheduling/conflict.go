package scheduling

import (
	"time"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// Conflicts returns the subset of existing appointments whose booked interval
// overlaps a candidate [start, start+duration) window. Cancelled appointments
// and the excluded id never conflict. Pure and side-effect free; it gates
// writes and feeds the availability generator.
//
// Intervals are half-open: touching boundaries (one ends exactly where the
// other starts) do not conflict.
func Conflicts(start time.Time, durationMinutes int, existing []domain.Appointment, excludeID string) []domain.Appointment {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	var overlapping []domain.Appointment
	for _, appt := range existing {
		if appt.Status == domain.AppointmentStatusCancelled {
			continue
		}
		if excludeID != "" && appt.ID == excludeID {
			continue
		}
		if overlaps(start, end, appt.StartTime, appt.EndTime()) {
			overlapping = append(overlapping, appt)
		}
	}
	return overlapping
}

// overlaps enumerates the three overlap cases: the candidate starts inside the
// existing interval, ends inside it, or fully contains it. The enumeration is
// equivalent to s1 < e2 && s2 < e1 and preserves exclusive boundaries.
func overlaps(candidateStart, candidateEnd, existingStart, existingEnd time.Time) bool {
	// Candidate starts during the existing appointment.
	if !existingStart.After(candidateStart) && existingEnd.After(candidateStart) {
		return true
	}
	// Candidate ends during the existing appointment.
	if existingStart.Before(candidateEnd) && !existingEnd.Before(candidateEnd) {
		return true
	}
	// Candidate fully contains the existing appointment.
	if !existingStart.Before(candidateStart) && !existingEnd.After(candidateEnd) {
		return true
	}
	return false
}
