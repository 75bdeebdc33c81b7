package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/crm"
	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/internal/events"
	"github.com/callwise/voice-scheduler/internal/repository"
	"github.com/callwise/voice-scheduler/internal/scheduling"
	"github.com/callwise/voice-scheduler/pkg/util"
)

// AppointmentService coordinates the booking lifecycle. Every state change
// runs its conflict check and its write inside one transaction; CRM sync and
// event publication happen after commit and never fail the operation.
type AppointmentService struct {
	appointments repository.AppointmentRepository
	customers    repository.CustomerRepository
	dispatcher   events.Dispatcher
	crm          crm.Client
	logger       *zap.Logger
	now          func() time.Time
}

// AppointmentDependencies bundles collaborators for the appointment service.
type AppointmentDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	CustomerRepo    repository.CustomerRepository
	Dispatcher      events.Dispatcher
	CRM             crm.Client
	Logger          *zap.Logger
	Now             func() time.Time
}

// AppointmentCreateInput describes appointment creation payload.
type AppointmentCreateInput struct {
	CustomerID      string
	ServiceType     string
	StartTime       time.Time
	DurationMinutes int
	Notes           string
	CreatedByCallID *string
}

// AppointmentUpdateInput carries partial updates; nil fields are untouched.
type AppointmentUpdateInput struct {
	ServiceType     *string
	StartTime       *time.Time
	DurationMinutes *int
	Notes           *string
	Status          *domain.AppointmentStatus
}

// AppointmentListFilter describes listing filters.
type AppointmentListFilter struct {
	CustomerID *string
	Status     *domain.AppointmentStatus
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// NewAppointmentService constructs the service.
func NewAppointmentService(deps AppointmentDependencies) *AppointmentService {
	svc := &AppointmentService{
		appointments: deps.AppointmentRepo,
		customers:    deps.CustomerRepo,
		dispatcher:   deps.Dispatcher,
		crm:          deps.CRM,
		logger:       deps.Logger,
		now:          deps.Now,
	}
	if svc.crm == nil {
		svc.crm = crm.NoopClient{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Create books a new appointment. The requested window must be free of
// non-cancelled appointments; conflicts reject the booking without writing.
func (s *AppointmentService) Create(ctx context.Context, input AppointmentCreateInput) (*domain.Appointment, error) {
	exists, err := s.customers.Exists(ctx, input.CustomerID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	if !exists {
		return nil, util.NewNotFound("customer", map[string]any{"customer_id": input.CustomerID})
	}

	if input.DurationMinutes <= 0 {
		input.DurationMinutes = scheduling.AppointmentWindowMinutes
	}

	appt := &domain.Appointment{
		ID:              uuid.NewString(),
		CustomerID:      input.CustomerID,
		ServiceType:     input.ServiceType,
		StartTime:       input.StartTime,
		DurationMinutes: input.DurationMinutes,
		Status:          domain.AppointmentStatusConfirmed,
		Notes:           input.Notes,
		CreatedByCallID: input.CreatedByCallID,
	}

	err = s.withConflictGuard(ctx, appt.StartTime, appt.EndTime(), "", func(tx pgx.Tx) error {
		return s.appointments.Create(ctx, tx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.EventAppointmentCreated,
		AppointmentID: appt.ID,
		Payload: events.AppointmentCreatedPayload{
			CustomerID:  appt.CustomerID,
			ServiceType: appt.ServiceType,
			StartTime:   appt.StartTime,
			EndTime:     appt.EndTime(),
			CallID:      appt.CreatedByCallID,
		},
	})

	s.syncCreateToCRM(ctx, appt)
	return appt, nil
}

// Get fetches a single appointment.
func (s *AppointmentService) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("appointment", map[string]any{"id": id})
		}
		return nil, util.NewInternalError(err)
	}
	return appt, nil
}

// List returns appointments matching the filter ordered by start time.
func (s *AppointmentService) List(ctx context.Context, filter AppointmentListFilter) ([]domain.Appointment, error) {
	appts, err := s.appointments.ListWithFilter(ctx, repository.AppointmentFilter{
		CustomerID: filter.CustomerID,
		Status:     filter.Status,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return appts, nil
}

// Update applies partial field changes. A time or duration change re-runs the
// conflict check with the appointment itself excluded.
func (s *AppointmentService) Update(ctx context.Context, id string, input AppointmentUpdateInput) (*domain.Appointment, error) {
	if input.Status != nil && !domain.ValidStatus(*input.Status) {
		return nil, util.NewValidationError(fmt.Sprintf("invalid status: %s", *input.Status), nil)
	}

	var updated *domain.Appointment
	var oldStatus domain.AppointmentStatus
	statusChanged := false
	err := s.inTransaction(ctx, func(tx pgx.Tx) error {
		appt, err := s.lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}

		if input.ServiceType != nil {
			appt.ServiceType = *input.ServiceType
		}
		if input.Notes != nil {
			appt.Notes = *input.Notes
		}
		if input.Status != nil && *input.Status != appt.Status {
			oldStatus = appt.Status
			appt.Status = *input.Status
			appt.Metadata.StatusHistory = append(appt.Metadata.StatusHistory, domain.StatusEntry{
				OldStatus: oldStatus,
				NewStatus: appt.Status,
				Timestamp: s.now(),
			})
			statusChanged = true
		}

		timeChanged := input.StartTime != nil && !input.StartTime.Equal(appt.StartTime)
		durationChanged := input.DurationMinutes != nil && *input.DurationMinutes != appt.DurationMinutes
		if input.StartTime != nil {
			appt.StartTime = *input.StartTime
		}
		if input.DurationMinutes != nil {
			appt.DurationMinutes = *input.DurationMinutes
		}
		if timeChanged || durationChanged {
			if err := s.guardWindow(ctx, tx, appt.StartTime, appt.DurationMinutes, appt.ID); err != nil {
				return err
			}
		}

		if err := s.appointments.Update(ctx, tx, appt); err != nil {
			return err
		}
		updated = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.EventAppointmentUpdated,
		AppointmentID: updated.ID,
		Payload: events.AppointmentUpdatedPayload{
			StartTime: updated.StartTime,
			EndTime:   updated.EndTime(),
		},
	})
	if statusChanged {
		s.publish(ctx, events.Event{
			Type:          events.EventAppointmentStatusChanged,
			AppointmentID: updated.ID,
			Payload: events.AppointmentStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: updated.Status,
			},
		})
	}
	s.syncUpdateToCRM(ctx, updated, crm.AppointmentData{
		ServiceType:     updated.ServiceType,
		AppointmentTime: scheduling.FormatTimestamp(updated.StartTime),
		EndTime:         scheduling.FormatTimestamp(updated.EndTime()),
		Notes:           updated.Notes,
		Status:          string(updated.Status),
	})
	return updated, nil
}

// Reschedule moves an appointment to a new time, recording the move in the
// append-only reschedule history and annotating the notes when a reason is
// given.
func (s *AppointmentService) Reschedule(ctx context.Context, id string, newTime time.Time, reason string) (*domain.Appointment, error) {
	var updated *domain.Appointment
	err := s.inTransaction(ctx, func(tx pgx.Tx) error {
		appt, err := s.lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := s.guardWindow(ctx, tx, newTime, appt.DurationMinutes, appt.ID); err != nil {
			return err
		}

		oldTime := appt.StartTime
		appt.StartTime = newTime

		if reason != "" {
			annotation := fmt.Sprintf("Rescheduled from %s to %s. Reason: %s",
				scheduling.FormatTimestamp(oldTime), scheduling.FormatTimestamp(newTime), reason)
			if appt.Notes != "" {
				appt.Notes += "\n\n" + annotation
			} else {
				appt.Notes = annotation
			}
		}

		appt.Metadata.RescheduleHistory = append(appt.Metadata.RescheduleHistory, domain.RescheduleEntry{
			OldTime:   oldTime,
			NewTime:   newTime,
			Reason:    reason,
			Timestamp: s.now(),
		})

		if err := s.appointments.Update(ctx, tx, appt); err != nil {
			return err
		}
		updated = appt

		s.logger.Info("appointment rescheduled",
			zap.String("appointment_id", appt.ID),
			zap.Time("old_time", oldTime),
			zap.Time("new_time", newTime))
		return nil
	})
	if err != nil {
		return nil, err
	}

	history := updated.Metadata.RescheduleHistory
	last := history[len(history)-1]
	s.publish(ctx, events.Event{
		Type:          events.EventAppointmentRescheduled,
		AppointmentID: updated.ID,
		Payload: events.AppointmentRescheduledPayload{
			OldTime: last.OldTime,
			NewTime: last.NewTime,
			Reason:  reason,
		},
	})
	s.syncUpdateToCRM(ctx, updated, crm.AppointmentData{
		AppointmentTime: scheduling.FormatTimestamp(updated.StartTime),
		EndTime:         scheduling.FormatTimestamp(updated.EndTime()),
		Notes:           updated.Notes,
	})
	return updated, nil
}

// Cancel marks the appointment cancelled. Cancellation frees the slot but
// keeps the row and its history.
func (s *AppointmentService) Cancel(ctx context.Context, id string, reason string, rescheduleLater bool) (*domain.Appointment, error) {
	var updated *domain.Appointment
	err := s.inTransaction(ctx, func(tx pgx.Tx) error {
		appt, err := s.lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}

		appt.Status = domain.AppointmentStatusCancelled
		if reason != "" {
			annotation := "Cancelled: " + reason
			if appt.Notes != "" {
				appt.Notes += "\n\n" + annotation
			} else {
				appt.Notes = annotation
			}
		}
		appt.Metadata.Cancellation = &domain.Cancellation{
			Timestamp:       s.now(),
			Reason:          reason,
			RescheduleLater: rescheduleLater,
		}

		if err := s.appointments.Update(ctx, tx, appt); err != nil {
			return err
		}
		updated = appt

		s.logger.Info("appointment cancelled",
			zap.String("appointment_id", appt.ID),
			zap.Bool("reschedule_later", rescheduleLater))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.EventAppointmentCancelled,
		AppointmentID: updated.ID,
		Payload: events.AppointmentCancelledPayload{
			Reason:          reason,
			RescheduleLater: rescheduleLater,
		},
	})
	s.syncUpdateToCRM(ctx, updated, crm.AppointmentData{
		Status: string(domain.AppointmentStatusCancelled),
		Notes:  updated.Notes,
	})
	return updated, nil
}

// SetStatus transitions the appointment to the given status and appends the
// transition to the status history.
func (s *AppointmentService) SetStatus(ctx context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	if !domain.ValidStatus(status) {
		return nil, util.NewValidationError(fmt.Sprintf("invalid status: %s", status), map[string]any{
			"valid": []domain.AppointmentStatus{
				domain.AppointmentStatusConfirmed,
				domain.AppointmentStatusCancelled,
				domain.AppointmentStatusCompleted,
				domain.AppointmentStatusNoShow,
			},
		})
	}

	var updated *domain.Appointment
	var oldStatus domain.AppointmentStatus
	err := s.inTransaction(ctx, func(tx pgx.Tx) error {
		appt, err := s.lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}

		oldStatus = appt.Status
		appt.Status = status
		appt.Metadata.StatusHistory = append(appt.Metadata.StatusHistory, domain.StatusEntry{
			OldStatus: oldStatus,
			NewStatus: status,
			Timestamp: s.now(),
		})

		if err := s.appointments.Update(ctx, tx, appt); err != nil {
			return err
		}
		updated = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:          events.EventAppointmentStatusChanged,
		AppointmentID: updated.ID,
		Payload: events.AppointmentStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	s.syncUpdateToCRM(ctx, updated, crm.AppointmentData{Status: string(status)})
	return updated, nil
}

// GetAvailability returns the fixed business-hours slot grid for a day with
// booked slots marked unavailable. Reading availability never mutates state.
func (s *AppointmentService) GetAvailability(ctx context.Context, day time.Time, serviceType string) ([]domain.AvailabilitySlot, error) {
	existing, err := s.appointments.ListOnDay(ctx, day)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return scheduling.GenerateSlots(day, serviceType, existing), nil
}

// withConflictGuard runs the write inside a transaction after verifying the
// window [start, end) is free. excludeID is skipped during the check.
func (s *AppointmentService) withConflictGuard(ctx context.Context, start, end time.Time, excludeID string, write func(pgx.Tx) error) error {
	return s.inTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.appointments.ListAroundForUpdate(ctx, tx, start, end)
		if err != nil {
			return err
		}
		duration := int(end.Sub(start) / time.Minute)
		if conflicts := scheduling.Conflicts(start, duration, existing, excludeID); len(conflicts) > 0 {
			return conflictError(conflicts)
		}
		return write(tx)
	})
}

func (s *AppointmentService) guardWindow(ctx context.Context, tx pgx.Tx, start time.Time, durationMinutes int, excludeID string) error {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	existing, err := s.appointments.ListAroundForUpdate(ctx, tx, start, end)
	if err != nil {
		return err
	}
	if conflicts := scheduling.Conflicts(start, durationMinutes, existing, excludeID); len(conflicts) > 0 {
		return conflictError(conflicts)
	}
	return nil
}

func (s *AppointmentService) inTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.appointments.Begin(ctx)
	if err != nil {
		return util.NewInternalError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		if repository.IsOverlapViolation(err) {
			return util.NewConflict("the requested appointment time conflicts with existing appointments", nil)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if repository.IsOverlapViolation(err) {
			return util.NewConflict("the requested appointment time conflicts with existing appointments", nil)
		}
		return util.NewInternalError(err)
	}
	return nil
}

func (s *AppointmentService) lockAppointment(ctx context.Context, tx pgx.Tx, id string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("appointment", map[string]any{"id": id})
		}
		return nil, util.NewInternalError(err)
	}
	return appt, nil
}

func conflictError(conflicts []domain.Appointment) error {
	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ID)
	}
	return util.NewConflict("the requested appointment time conflicts with existing appointments", map[string]any{
		"conflicting_appointment_ids": ids,
	})
}

func (s *AppointmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publication failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

// syncCreateToCRM pushes the new appointment to the external system and, when
// it reports an id, stores it in the appointment metadata. Failures are
// logged and swallowed.
func (s *AppointmentService) syncCreateToCRM(ctx context.Context, appt *domain.Appointment) {
	record, err := s.crm.CreateAppointment(ctx, crm.AppointmentData{
		CustomerID:      appt.CustomerID,
		ServiceType:     appt.ServiceType,
		AppointmentTime: scheduling.FormatTimestamp(appt.StartTime),
		EndTime:         scheduling.FormatTimestamp(appt.EndTime()),
		Notes:           appt.Notes,
		LocalID:         appt.ID,
	})
	if err != nil {
		s.logger.Error("crm appointment creation failed",
			zap.String("appointment_id", appt.ID),
			zap.Error(err))
		return
	}
	if record == nil || record.ID == "" {
		return
	}

	appt.Metadata.CRMAppointmentID = record.ID
	err = s.inTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.appointments.GetByIDForUpdate(ctx, tx, appt.ID)
		if err != nil {
			return err
		}
		current.Metadata.CRMAppointmentID = record.ID
		return s.appointments.Update(ctx, tx, current)
	})
	if err != nil {
		s.logger.Error("storing crm appointment id failed",
			zap.String("appointment_id", appt.ID),
			zap.Error(err))
	}
}

// syncUpdateToCRM mirrors a change to the external system when the
// appointment has been synced before. Failures are logged and swallowed.
func (s *AppointmentService) syncUpdateToCRM(ctx context.Context, appt *domain.Appointment, data crm.AppointmentData) {
	crmID := appt.Metadata.CRMAppointmentID
	if crmID == "" {
		return
	}
	if _, err := s.crm.UpdateAppointment(ctx, crmID, data); err != nil {
		s.logger.Error("crm appointment update failed",
			zap.String("appointment_id", appt.ID),
			zap.String("crm_appointment_id", crmID),
			zap.Error(err))
	}
}
