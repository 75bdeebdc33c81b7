package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/internal/knowledge"
	"github.com/callwise/voice-scheduler/internal/repository"
	"github.com/callwise/voice-scheduler/pkg/util"
)

// appointmentKeywords mark transcripts that carry scheduling intent even when
// the word "appointment" never appears.
var appointmentKeywords = []string{
	"appointment", "schedule", "book", "reserve", "set up", "meeting",
	"consultation", "session", "talk", "chat", "meet", "visit",
	"consult", "conversation", "discuss", "review", "call",
}

// CallService classifies inbound calls and records them.
type CallService struct {
	calls     repository.CallRepository
	customers repository.CustomerRepository
	knowledge *knowledge.Base
	logger    *zap.Logger
}

// ProcessCallInput is the inbound call payload.
type ProcessCallInput struct {
	CallID       string
	CallerPhone  string
	CustomerName string
	Transcript   string
}

// ProcessCallResult is what the voice platform receives back.
type ProcessCallResult struct {
	Status     string             `json:"status"`
	Intent     domain.CallIntent  `json:"intent"`
	Response   string             `json:"response"`
	CallID     string             `json:"call_id"`
	CustomerID string             `json:"customer_id,omitempty"`
	Answers    []knowledge.Answer `json:"answers,omitempty"`
}

// NewCallService constructs the service. kb may be nil, disabling knowledge
// lookups for general questions.
func NewCallService(calls repository.CallRepository, customers repository.CustomerRepository, kb *knowledge.Base, logger *zap.Logger) *CallService {
	return &CallService{calls: calls, customers: customers, knowledge: kb, logger: logger}
}

// ProcessCall classifies the transcript, consults the knowledge base for
// general questions and logs the call.
func (s *CallService) ProcessCall(ctx context.Context, input ProcessCallInput) (*ProcessCallResult, error) {
	intent := ClassifyIntent(input.Transcript)

	result := &ProcessCallResult{
		Status:   "success",
		Intent:   intent,
		Response: "Detected intent: " + string(intent),
		CallID:   input.CallID,
	}

	if intent == domain.IntentGeneralQuestion && s.knowledge != nil {
		answers, err := s.knowledge.Query(ctx, input.Transcript, 3)
		if err != nil {
			s.logger.Warn("knowledge lookup failed", zap.Error(err))
		} else {
			result.Answers = answers
		}
	}

	var customerID *string
	if input.CallerPhone != "" {
		if customer, err := s.customers.GetByPhone(ctx, input.CallerPhone); err == nil {
			customerID = &customer.ID
			result.CustomerID = customer.ID
		} else if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("customer lookup failed", zap.String("phone", input.CallerPhone), zap.Error(err))
		}
	}

	call := &domain.Call{
		ID:         input.CallID,
		CallerID:   input.CallerPhone,
		CustomerID: customerID,
		Transcript: input.Transcript,
		Intent:     intent,
	}
	if call.ID == "" {
		call.ID = uuid.NewString()
		result.CallID = call.ID
	}
	if err := s.calls.Create(ctx, call); err != nil {
		// Classification already succeeded; a logging failure must not fail
		// the live call.
		s.logger.Error("call logging failed", zap.String("call_id", call.ID), zap.Error(err))
	}

	return result, nil
}

// GetCall fetches one recorded call.
func (s *CallService) GetCall(ctx context.Context, id string) (*domain.Call, error) {
	call, err := s.calls.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("call", map[string]any{"id": id})
		}
		return nil, util.NewInternalError(err)
	}
	return call, nil
}

// ListCustomerCalls returns recorded calls for one customer, newest first.
func (s *CallService) ListCustomerCalls(ctx context.Context, customerID string, limit, offset int) ([]domain.Call, error) {
	calls, err := s.calls.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return calls, nil
}

// ClassifyIntent maps a transcript onto a call intent. The first matching
// cue wins; anything unmatched is a general question.
func ClassifyIntent(transcript string) domain.CallIntent {
	lowered := strings.ToLower(transcript)
	switch {
	case strings.Contains(lowered, "appointment"):
		return domain.IntentBookAppointment
	case strings.Contains(lowered, "reschedule"):
		return domain.IntentRescheduleAppointment
	case strings.Contains(lowered, "cancel"):
		return domain.IntentCancelAppointment
	case strings.Contains(lowered, "talk to a human"):
		return domain.IntentTransfer
	default:
		return domain.IntentGeneralQuestion
	}
}

// ContainsAppointmentIntent reports whether the transcript suggests the
// caller wants to schedule something.
func ContainsAppointmentIntent(transcript string) bool {
	if transcript == "" {
		return false
	}
	lowered := strings.ToLower(transcript)
	for _, keyword := range appointmentKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
