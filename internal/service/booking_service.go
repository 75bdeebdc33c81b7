package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/internal/repository"
	"github.com/callwise/voice-scheduler/internal/scheduling"
	"github.com/callwise/voice-scheduler/pkg/util"
)

// BookingService turns call transcripts into confirmed appointments. The
// extraction pipeline is total: any transcript, however garbled, yields a
// bookable window.
type BookingService struct {
	extractor    *scheduling.Extractor
	normalizer   *scheduling.Normalizer
	appointments *AppointmentService
	customers    repository.CustomerRepository
	logger       *zap.Logger
}

// BookingInput is the transcript-driven booking payload.
type BookingInput struct {
	Transcript   string
	CallerPhone  string
	CustomerName string
	ServiceType  string
	CallID       *string
}

// EventTime is one endpoint of a calendar event.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// BookingResult pairs the stored appointment with the calendar event payload
// handed back to the voice platform.
type BookingResult struct {
	Appointment *domain.Appointment `json:"appointment"`
	Summary     string              `json:"summary"`
	Start       EventTime           `json:"start"`
	End         EventTime           `json:"end"`
}

// NewBookingService constructs the service.
func NewBookingService(
	extractor *scheduling.Extractor,
	normalizer *scheduling.Normalizer,
	appointments *AppointmentService,
	customers repository.CustomerRepository,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		extractor:    extractor,
		normalizer:   normalizer,
		appointments: appointments,
		customers:    customers,
		logger:       logger,
	}
}

// BookFromTranscript extracts a date and time from the transcript, normalizes
// them into a 30-minute window and books the appointment for the caller,
// creating the customer record if the phone number is new.
func (s *BookingService) BookFromTranscript(ctx context.Context, input BookingInput) (*BookingResult, error) {
	extraction := s.extractor.Extract(input.Transcript)
	start, end := s.normalizer.Normalize(extraction.Date, extraction.Time)

	if !extraction.HasExplicitDate || !extraction.HasExplicitTime {
		if ContainsAppointmentIntent(input.Transcript) {
			s.logger.Info("appointment intent detected, booking with fallback window")
		} else {
			s.logger.Info("no clear appointment intent, booking with default window")
		}
	}
	s.logger.Info("booking window resolved",
		zap.String("date", extraction.Date),
		zap.String("time", extraction.Time),
		zap.Bool("explicit_date", extraction.HasExplicitDate),
		zap.Bool("explicit_time", extraction.HasExplicitTime))

	customer, err := s.resolveCustomer(ctx, input.CallerPhone, input.CustomerName)
	if err != nil {
		return nil, err
	}

	serviceType := input.ServiceType
	if serviceType == "" {
		serviceType = "general"
	}

	appt, err := s.appointments.Create(ctx, AppointmentCreateInput{
		CustomerID:      customer.ID,
		ServiceType:     serviceType,
		StartTime:       start,
		DurationMinutes: scheduling.AppointmentWindowMinutes,
		CreatedByCallID: input.CallID,
	})
	if err != nil {
		return nil, err
	}

	name := input.CustomerName
	if name == "" {
		name = "Client"
	}
	return &BookingResult{
		Appointment: appt,
		Summary:     fmt.Sprintf("Appointment - %s", name),
		Start:       EventTime{DateTime: scheduling.FormatTimestamp(start), TimeZone: scheduling.TimeZoneLabel},
		End:         EventTime{DateTime: scheduling.FormatTimestamp(end), TimeZone: scheduling.TimeZoneLabel},
	}, nil
}

// resolveCustomer finds the caller by phone or registers a new customer.
func (s *BookingService) resolveCustomer(ctx context.Context, phone, name string) (*domain.Customer, error) {
	if phone == "" {
		return nil, util.NewValidationError("caller phone number is required", nil)
	}

	customer, err := s.customers.GetByPhone(ctx, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.NewInternalError(err)
	}

	if name == "" {
		name = "Unknown"
	}
	customer = &domain.Customer{
		ID:    uuid.NewString(),
		Name:  name,
		Phone: phone,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, util.NewInternalError(err)
	}
	s.logger.Info("customer created from call",
		zap.String("customer_id", customer.ID),
		zap.String("phone", phone))
	return customer, nil
}
