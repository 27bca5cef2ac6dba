package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Approvals *handlers.ApprovalsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/approvals", cfg.Approvals.RequestApproval)
	api.Get("/approve/:ticket_id", cfg.Approvals.Approve)
	api.Get("/reject/:ticket_id", cfg.Approvals.Reject)
	api.Get("/status/:ticket_id", cfg.Approvals.Status)
	api.Get("/pending", cfg.Approvals.Pending)
}
