package handler

import (
	"time"

	"go-envoi-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GET /api/v1/reports/stock?envoi_id=&low_stock_threshold=
func (h *ReportHandler) StockReport(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	threshold := c.QueryInt("low_stock_threshold", -1)
	report, err := h.reportService.StockReport(eid, threshold)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(report)
}

// GET /api/v1/reports/monthly?envoi_id=&year=
func (h *ReportHandler) MonthlyReport(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	year := c.QueryInt("year", time.Now().Year())
	report, err := h.reportService.MonthlyReport(eid, year)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(report)
}
