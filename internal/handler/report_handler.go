package handler

import (
	"supermarket-pos/internal/service"
	"supermarket-pos/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetSummary returns today's totals and low stock alerts
// GET /api/sales/summary
func (h *ReportHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.reportService.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "", summary)
}
