package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/callwise/voice-scheduler/internal/api/dto"
	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/internal/scheduling"
	"github.com/callwise/voice-scheduler/internal/service"
	apperrors "github.com/callwise/voice-scheduler/pkg/util"
)

// AppointmentsHandler manages the appointment lifecycle endpoints.
type AppointmentsHandler struct {
	appointments *service.AppointmentService
	booking      *service.BookingService
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(appointments *service.AppointmentService, booking *service.BookingService) *AppointmentsHandler {
	return &AppointmentsHandler{appointments: appointments, booking: booking}
}

// Create POST /appointments.
func (h *AppointmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerID == "" || req.AppointmentTime.IsZero() {
		return apperrors.NewValidationError("customer_id and appointment_time required", nil)
	}

	appt, err := h.appointments.Create(c.UserContext(), service.AppointmentCreateInput{
		CustomerID:      req.CustomerID,
		ServiceType:     req.ServiceType,
		StartTime:       req.AppointmentTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		CreatedByCallID: req.CreatedByCallID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Book POST /appointments/book: transcript-driven booking for the voice
// platform.
func (h *AppointmentsHandler) Book(c *fiber.Ctx) error {
	var req dto.BookAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.booking.BookFromTranscript(c.UserContext(), service.BookingInput{
		Transcript:   req.Transcript,
		CallerPhone:  req.From,
		CustomerName: req.CustomerName,
		ServiceType:  req.ServiceType,
		CallID:       req.CallID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(result)
}

// List GET /appointments.
func (h *AppointmentsHandler) List(c *fiber.Ctx) error {
	filter := service.AppointmentListFilter{
		Limit:  parseIntQuery(c, "limit", 100),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if v := c.Query("customer_id"); v != "" {
		filter.CustomerID = &v
	}
	if v := c.Query("status"); v != "" {
		status := domain.AppointmentStatus(v)
		filter.Status = &status
	}
	if v := c.Query("from_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperrors.NewValidationError("invalid from_date, use RFC3339", nil)
		}
		filter.FromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperrors.NewValidationError("invalid to_date, use RFC3339", nil)
		}
		filter.ToDate = &t
	}

	appts, err := h.appointments.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AppointmentResponse, 0, len(appts))
	for i := range appts {
		items = append(items, appointmentResponse(&appts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /appointments/:id.
func (h *AppointmentsHandler) Get(c *fiber.Ctx) error {
	appt, err := h.appointments.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Update PUT /appointments/:id.
func (h *AppointmentsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appt, err := h.appointments.Update(c.UserContext(), c.Params("id"), service.AppointmentUpdateInput{
		ServiceType:     req.ServiceType,
		StartTime:       req.AppointmentTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Status:          req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Reschedule POST /appointments/:id/reschedule.
func (h *AppointmentsHandler) Reschedule(c *fiber.Ctx) error {
	var req dto.RescheduleAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NewTime.IsZero() {
		return apperrors.NewValidationError("new_time required", nil)
	}
	appt, err := h.appointments.Reschedule(c.UserContext(), c.Params("id"), req.NewTime, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Cancel POST /appointments/:id/cancel.
func (h *AppointmentsHandler) Cancel(c *fiber.Ctx) error {
	var req dto.CancelAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appt, err := h.appointments.Cancel(c.UserContext(), c.Params("id"), req.Reason, req.RescheduleLater)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// UpdateStatus PATCH /appointments/:id/status.
func (h *AppointmentsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appt, err := h.appointments.SetStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Availability GET /appointments/availability?date=YYYY-MM-DD.
func (h *AppointmentsHandler) Availability(c *fiber.Ctx) error {
	dateStr := c.Query("date")
	if dateStr == "" {
		return apperrors.NewValidationError("date query parameter required", nil)
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, scheduling.BusinessZone())
	if err != nil {
		return apperrors.NewValidationError("invalid date format, use YYYY-MM-DD", nil)
	}

	slots, err := h.appointments.GetAvailability(c.UserContext(), day, c.Query("service_type"))
	if err != nil {
		return err
	}
	items := make([]dto.AvailabilitySlotResponse, 0, len(slots))
	for _, slot := range slots {
		items = append(items, dto.AvailabilitySlotResponse{
			StartTime: scheduling.FormatTimestamp(slot.StartTime),
			EndTime:   scheduling.FormatTimestamp(slot.EndTime),
			Available: slot.Available,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func appointmentResponse(appt *domain.Appointment) dto.AppointmentResponse {
	return dto.AppointmentResponse{
		ID:              appt.ID,
		CustomerID:      appt.CustomerID,
		ServiceType:     appt.ServiceType,
		AppointmentTime: scheduling.FormatTimestamp(appt.StartTime),
		EndTime:         scheduling.FormatTimestamp(appt.EndTime()),
		DurationMinutes: appt.DurationMinutes,
		Status:          appt.Status,
		Notes:           appt.Notes,
		CreatedByCallID: appt.CreatedByCallID,
		Metadata:        appt.Metadata,
		CreatedAt:       appt.CreatedAt,
		UpdatedAt:       appt.UpdatedAt,
	}
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
