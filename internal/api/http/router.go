package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/callwise/voice-scheduler/internal/api/http/handlers"
	"github.com/callwise/voice-scheduler/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Appointments   *handlers.AppointmentsHandler
	Calls          *handlers.CallsHandler
	Knowledge      *handlers.KnowledgeHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. The webhook surface is keyed for the
// voice platform; everything else requires an operator token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	webhook := api.Group("", cfg.AuthMiddleware.RequireWebhookKey)
	webhook.Post("/calls/process", cfg.Calls.Process)
	webhook.Post("/appointments/book", cfg.Appointments.Book)

	operator := api.Group("", cfg.AuthMiddleware.RequireOperator)
	operator.Post("/appointments", cfg.Appointments.Create)
	operator.Get("/appointments", cfg.Appointments.List)
	operator.Get("/appointments/availability", cfg.Appointments.Availability)
	operator.Get("/appointments/:id", cfg.Appointments.Get)
	operator.Put("/appointments/:id", cfg.Appointments.Update)
	operator.Post("/appointments/:id/reschedule", cfg.Appointments.Reschedule)
	operator.Post("/appointments/:id/cancel", cfg.Appointments.Cancel)
	operator.Patch("/appointments/:id/status", cfg.Appointments.UpdateStatus)

	operator.Get("/calls/:id", cfg.Calls.Get)
	operator.Get("/customers/:id/calls", cfg.Calls.ListByCustomer)

	operator.Post("/knowledge/query", cfg.Knowledge.Query)
	operator.Post("/knowledge", cfg.Knowledge.Create)
	operator.Put("/knowledge/:id", cfg.Knowledge.Update)
	operator.Delete("/knowledge/:id", cfg.Knowledge.Delete)
}
