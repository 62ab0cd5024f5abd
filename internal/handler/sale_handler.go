package handler

import (
	"time"

	"github.com/aody34/Darusalaampharmcy/internal/model"
	"github.com/aody34/Darusalaampharmcy/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	sales   service.SalesService
	reports service.ReportService
}

func NewSaleHandler(sales service.SalesService, reports service.ReportService) *SaleHandler {
	return &SaleHandler{sales: sales, reports: reports}
}

// CreateSale handles POST /sales: sell a quantity of a tracked item.
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req model.SellRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "Invalid JSON")
	}
	req.SellerID = getUserID(c)

	outcome, err := h.sales.Sell(c.UserContext(), &req)
	if err != nil {
		return respondSaleError(c, err)
	}
	return respondData(c, fiber.StatusCreated, outcome)
}

// CreateCustomSale handles POST /sales/custom: record a sale that is not
// backed by inventory.
func (h *SaleHandler) CreateCustomSale(c *fiber.Ctx) error {
	var req model.CustomSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "Invalid JSON")
	}
	req.SellerID = getUserID(c)

	outcome, err := h.sales.SellCustom(c.UserContext(), &req)
	if err != nil {
		return respondSaleError(c, err)
	}
	return respondData(c, fiber.StatusCreated, outcome)
}

// GetSalesReport handles GET /sales?view=all|today|range&start&end.
// Range dates are YYYY-MM-DD in the server's local calendar.
func (h *SaleHandler) GetSalesReport(c *fiber.Ctx) error {
	view := model.ReportView(c.Query("view", string(model.ReportAll)))

	var start, end time.Time
	if view == model.ReportRange {
		var err error
		start, err = time.ParseInLocation("2006-01-02", c.Query("start"), time.Local)
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid start date, expected YYYY-MM-DD")
		}
		end, err = time.ParseInLocation("2006-01-02", c.Query("end"), time.Local)
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid end date, expected YYYY-MM-DD")
		}
	}

	report, err := h.reports.SalesReport(c.UserContext(), view, start, end)
	if err != nil {
		if service.IsTransient(err) {
			return respondError(c, fiber.StatusServiceUnavailable, "TRANSIENT_FAILURE", err.Error())
		}
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	}
	return respondData(c, fiber.StatusOK, report)
}
