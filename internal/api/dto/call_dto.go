package dto

import (
	"time"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// ProcessCallRequest is the inbound webhook payload.
type ProcessCallRequest struct {
	CallID       string `json:"call_id"`
	From         string `json:"from"`
	CustomerName string `json:"customer_name"`
	Transcript   string `json:"transcript"`
}

// CallResponse is the recorded call view.
type CallResponse struct {
	ID         string            `json:"id"`
	CallerID   string            `json:"caller_id"`
	CustomerID *string           `json:"customer_id,omitempty"`
	Transcript string            `json:"transcript"`
	Intent     domain.CallIntent `json:"intent"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CreateKnowledgeItemRequest payload.
type CreateKnowledgeItemRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// UpdateKnowledgeItemRequest payload; empty fields are untouched.
type UpdateKnowledgeItemRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// KnowledgeQueryRequest payload.
type KnowledgeQueryRequest struct {
	Question   string `json:"question"`
	MaxResults int    `json:"max_results"`
}
