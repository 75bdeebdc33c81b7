package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/callwise/voice-scheduler/internal/api/dto"
	"github.com/callwise/voice-scheduler/internal/knowledge"
	apperrors "github.com/callwise/voice-scheduler/pkg/util"
)

// KnowledgeHandler manages the knowledge base endpoints.
type KnowledgeHandler struct {
	base *knowledge.Base
}

// NewKnowledgeHandler constructs handler.
func NewKnowledgeHandler(base *knowledge.Base) *KnowledgeHandler {
	return &KnowledgeHandler{base: base}
}

// Query POST /knowledge/query.
func (h *KnowledgeHandler) Query(c *fiber.Ctx) error {
	var req dto.KnowledgeQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Question == "" {
		return apperrors.NewValidationError("question required", nil)
	}
	answers, err := h.base.Query(c.UserContext(), req.Question, req.MaxResults)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": answers})
}

// Create POST /knowledge.
func (h *KnowledgeHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateKnowledgeItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.base.AddItem(c.UserContext(), req.Title, req.Content, req.Category, req.Tags)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": item})
}

// Update PUT /knowledge/:id.
func (h *KnowledgeHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateKnowledgeItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.base.UpdateItem(c.UserContext(), c.Params("id"), req.Title, req.Content, req.Category, req.Tags)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": item})
}

// Delete DELETE /knowledge/:id.
func (h *KnowledgeHandler) Delete(c *fiber.Ctx) error {
	if err := h.base.DeleteItem(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": c.Params("id"), "status": "deleted"}})
}
