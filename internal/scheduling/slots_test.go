package scheduling

import (
	"testing"
	"time"

	"github.com/callwise/voice-scheduler/internal/domain"
)

func TestGenerateSlotsEmptyDay(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, BusinessZone())

	slots := GenerateSlots(day, "", nil)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	first := slots[0]
	if first.StartTime.Hour() != BusinessStartHour || first.StartTime.Minute() != 0 {
		t.Errorf("first slot starts %s, want 09:00", first.StartTime.Format("15:04"))
	}
	last := slots[len(slots)-1]
	if last.EndTime.Hour() != BusinessEndHour || last.EndTime.Minute() != 0 {
		t.Errorf("last slot ends %s, want 17:00", last.EndTime.Format("15:04"))
	}
	for i, slot := range slots {
		if !slot.Available {
			t.Errorf("slot %d unexpectedly unavailable", i)
		}
		if !slot.EndTime.Equal(slot.StartTime.Add(SlotMinutes * time.Minute)) {
			t.Errorf("slot %d is not 30 minutes wide", i)
		}
		if i > 0 && !slot.StartTime.Equal(slots[i-1].EndTime) {
			t.Errorf("slot %d does not follow slot %d contiguously", i, i-1)
		}
	}
}

func TestGenerateSlotsFirstSlotBooked(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, BusinessZone())
	nineAM := time.Date(2026, 3, 12, 9, 0, 0, 0, BusinessZone())
	existing := []domain.Appointment{
		appointmentAt("a1", nineAM, 30, domain.AppointmentStatusConfirmed),
	}

	slots := GenerateSlots(day, "", existing)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if slots[0].Available {
		t.Error("first slot should be unavailable")
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Available {
			t.Errorf("slot %d should be available", i)
		}
	}
}

func TestGenerateSlotsCancelledDoesNotBlock(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, BusinessZone())
	nineAM := time.Date(2026, 3, 12, 9, 0, 0, 0, BusinessZone())
	existing := []domain.Appointment{
		appointmentAt("a1", nineAM, 30, domain.AppointmentStatusCancelled),
	}

	slots := GenerateSlots(day, "", existing)
	if !slots[0].Available {
		t.Error("cancelled appointment must not block the slot")
	}
}

func TestGenerateSlotsServiceTypeFilter(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, BusinessZone())
	nineAM := time.Date(2026, 3, 12, 9, 0, 0, 0, BusinessZone())
	haircut := appointmentAt("a1", nineAM, 30, domain.AppointmentStatusConfirmed)
	haircut.ServiceType = "haircut"
	existing := []domain.Appointment{haircut}

	slots := GenerateSlots(day, "consultation", existing)
	if !slots[0].Available {
		t.Error("appointment of another service type must not block a filtered query")
	}

	slots = GenerateSlots(day, "haircut", existing)
	if slots[0].Available {
		t.Error("matching service type must block the slot")
	}
}

func TestGenerateSlotsIdempotentRead(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, BusinessZone())
	tenAM := time.Date(2026, 3, 12, 10, 0, 0, 0, BusinessZone())
	existing := []domain.Appointment{
		appointmentAt("a1", tenAM, 30, domain.AppointmentStatusConfirmed),
	}

	first := GenerateSlots(day, "", existing)
	second := GenerateSlots(day, "", existing)
	if len(first) != len(second) {
		t.Fatalf("slot counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Available != second[i].Available || !first[i].StartTime.Equal(second[i].StartTime) {
			t.Errorf("slot %d differs between identical reads", i)
		}
	}
}
