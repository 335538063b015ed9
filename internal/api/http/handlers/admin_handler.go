package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpme/helpdesk-service/internal/api/dto"
	"github.com/helpme/helpdesk-service/internal/auth"
	"github.com/helpme/helpdesk-service/internal/observability"
	"github.com/helpme/helpdesk-service/internal/service"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// AdminHandler serves dashboard read models and process metrics.
type AdminHandler struct {
	stats   *service.StatsService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(statsService *service.StatsService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{stats: statsService, metrics: metrics}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	dashboard, err := h.stats.AdminDashboard(c.UserContext(), identity.Principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardFromService(dashboard)})
}

// Trends handles GET /admin/trends?days=N.
func (h *AdminHandler) Trends(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	days := parseInt(c.Query("days"), 0)
	trend, err := h.stats.CreatedTrend(c.UserContext(), identity.Principal, days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TrendFromService(trend)})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// AgentDashboard handles GET /agent/dashboard.
func (h *AdminHandler) AgentDashboard(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	dashboard, err := h.stats.OwnDashboard(c.UserContext(), identity.Principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentDashboardFromService(dashboard)})
}
