package handlers

import (
	"tikalinvest/internal/core/services"
	"tikalinvest/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Request queues a report
// @Summary Request a report
// @Description The report is built in the background; poll GET /reports/{id}
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ReportInput true "Report type and date range"
// @Success 202 {object} response.Response{data=models.Report}
// @Failure 400 {object} response.Response
// @Router /reports [post]
func (h *ReportHandler) Request(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ReportInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	report, err := h.reportService.Request(c.Context(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to request report")
	}

	return c.Status(fiber.StatusAccepted).JSON(response.Response{
		Success: true,
		Message: "Report requested successfully",
		Data:    report,
	})
}

// List lists the caller's reports
// @Summary My reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /reports [get]
func (h *ReportHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	reports, err := h.reportService.List(c.Context(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to list reports")
	}
	return response.Success(c, "Reports retrieved successfully", reports)
}

// Get returns one report with its content
// @Summary Get report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 200 {object} response.Response{data=models.Report}
// @Failure 404 {object} response.Response
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid report ID")
	}

	report, err := h.reportService.Get(c.Context(), userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to get report")
	}
	return response.Success(c, "Report retrieved successfully", report)
}
