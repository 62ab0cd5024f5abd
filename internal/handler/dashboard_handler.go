package handler

import (
	"github.com/aody34/Darusalaampharmcy/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.ReportService
}

func NewDashboardHandler(s service.ReportService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics: stock counts, stock value,
// low-stock items and today's revenue.
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.DashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "UNKNOWN", "Failed to fetch dashboard stats")
	}
	return respondData(c, fiber.StatusOK, stats)
}
