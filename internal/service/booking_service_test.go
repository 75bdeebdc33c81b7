package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/events"
	"github.com/callwise/voice-scheduler/internal/scheduling"
)

func newTestBookingService(repo *fakeAppointmentRepo, customers *fakeCustomerRepo) *BookingService {
	logger := zap.NewNop()
	now := func() time.Time { return time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC) } // a Wednesday
	appointments := NewAppointmentService(AppointmentDependencies{
		AppointmentRepo: repo,
		CustomerRepo:    customers,
		Dispatcher:      events.NewInMemoryDispatcher(),
		Logger:          logger,
		Now:             now,
	})
	return NewBookingService(
		scheduling.NewExtractor(logger, now),
		scheduling.NewNormalizer(logger, now),
		appointments,
		customers,
		logger,
	)
}

func TestBookFromTranscriptExplicitDateTime(t *testing.T) {
	repo := newFakeAppointmentRepo()
	customers := newFakeCustomerRepo(testCustomer)
	svc := newTestBookingService(repo, customers)

	result, err := svc.BookFromTranscript(context.Background(), BookingInput{
		Transcript:   "I'd like an appointment next Monday at 3pm",
		CallerPhone:  testCustomer.Phone,
		CustomerName: "Ada",
	})
	if err != nil {
		t.Fatalf("BookFromTranscript returned error: %v", err)
	}
	if result.Start.DateTime != "2026-03-16T15:00:00-06:00" {
		t.Errorf("start = %q, want 2026-03-16T15:00:00-06:00", result.Start.DateTime)
	}
	if result.End.DateTime != "2026-03-16T15:30:00-06:00" {
		t.Errorf("end = %q, want 2026-03-16T15:30:00-06:00", result.End.DateTime)
	}
	if result.Start.TimeZone != "America/Chicago" {
		t.Errorf("time zone = %q", result.Start.TimeZone)
	}
	if result.Summary != "Appointment - Ada" {
		t.Errorf("summary = %q", result.Summary)
	}
	if result.Appointment.CustomerID != testCustomer.ID {
		t.Errorf("booked for %q, want existing customer %q", result.Appointment.CustomerID, testCustomer.ID)
	}
}

func TestBookFromTranscriptGarbledStillBooks(t *testing.T) {
	repo := newFakeAppointmentRepo()
	customers := newFakeCustomerRepo(testCustomer)
	svc := newTestBookingService(repo, customers)

	result, err := svc.BookFromTranscript(context.Background(), BookingInput{
		Transcript:  "uh hm static noise",
		CallerPhone: testCustomer.Phone,
	})
	if err != nil {
		t.Fatalf("BookFromTranscript returned error: %v", err)
	}
	// Next business day at the default hour.
	if result.Start.DateTime != "2026-03-12T10:00:00-06:00" {
		t.Errorf("start = %q, want 2026-03-12T10:00:00-06:00", result.Start.DateTime)
	}
	if result.Summary != "Appointment - Client" {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(repo.appointments) != 1 {
		t.Errorf("stored %d appointments, want 1", len(repo.appointments))
	}
}

func TestBookFromTranscriptCreatesCustomer(t *testing.T) {
	repo := newFakeAppointmentRepo()
	customers := newFakeCustomerRepo()
	svc := newTestBookingService(repo, customers)

	result, err := svc.BookFromTranscript(context.Background(), BookingInput{
		Transcript:   "appointment tomorrow at 2pm",
		CallerPhone:  "+15125550123",
		CustomerName: "Grace",
	})
	if err != nil {
		t.Fatalf("BookFromTranscript returned error: %v", err)
	}
	created, err := customers.GetByPhone(context.Background(), "+15125550123")
	if err != nil {
		t.Fatalf("customer not created: %v", err)
	}
	if created.Name != "Grace" {
		t.Errorf("customer name = %q", created.Name)
	}
	if result.Appointment.CustomerID != created.ID {
		t.Error("appointment not linked to created customer")
	}
	if !strings.HasPrefix(result.Start.DateTime, "2026-03-12T14:00:00") {
		t.Errorf("start = %q, want tomorrow 2 PM", result.Start.DateTime)
	}
}

func TestBookFromTranscriptRequiresPhone(t *testing.T) {
	svc := newTestBookingService(newFakeAppointmentRepo(), newFakeCustomerRepo())
	_, err := svc.BookFromTranscript(context.Background(), BookingInput{Transcript: "appointment tomorrow"})
	if domainErrorCode(err) != "VALIDATION_FAILED" {
		t.Errorf("error code = %q, want VALIDATION_FAILED", domainErrorCode(err))
	}
}
