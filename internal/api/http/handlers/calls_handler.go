package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/callwise/voice-scheduler/internal/api/dto"
	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/internal/service"
	apperrors "github.com/callwise/voice-scheduler/pkg/util"
)

// CallsHandler manages call processing endpoints.
type CallsHandler struct {
	calls *service.CallService
}

// NewCallsHandler constructs handler.
func NewCallsHandler(calls *service.CallService) *CallsHandler {
	return &CallsHandler{calls: calls}
}

// Process POST /calls/process: classifies the transcript and records the
// call.
func (h *CallsHandler) Process(c *fiber.Ctx) error {
	var req dto.ProcessCallRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.calls.ProcessCall(c.UserContext(), service.ProcessCallInput{
		CallID:       req.CallID,
		CallerPhone:  req.From,
		CustomerName: req.CustomerName,
		Transcript:   req.Transcript,
	})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Get GET /calls/:id.
func (h *CallsHandler) Get(c *fiber.Ctx) error {
	call, err := h.calls.GetCall(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": callResponse(call)})
}

// ListByCustomer GET /customers/:id/calls.
func (h *CallsHandler) ListByCustomer(c *fiber.Ctx) error {
	calls, err := h.calls.ListCustomerCalls(c.UserContext(), c.Params("id"),
		parseIntQuery(c, "limit", 100), parseIntQuery(c, "offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.CallResponse, 0, len(calls))
	for i := range calls {
		items = append(items, callResponse(&calls[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func callResponse(call *domain.Call) dto.CallResponse {
	return dto.CallResponse{
		ID:         call.ID,
		CallerID:   call.CallerID,
		CustomerID: call.CustomerID,
		Transcript: call.Transcript,
		Intent:     call.Intent,
		CreatedAt:  call.CreatedAt,
	}
}
