package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/jazetjaz01/streamdi/internal/middleware"
	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/service"
)

type ReportHandler struct {
	reports  *service.ReportService
	profiles *service.ProfileService
}

func NewReportHandler(reports *service.ReportService, profiles *service.ProfileService) *ReportHandler {
	return &ReportHandler{reports: reports, profiles: profiles}
}

// Submit handles POST /api/reports
func (h *ReportHandler) Submit(c fiber.Ctx) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	var req model.CreateReportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateUUID(req.VideoID, "videoId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.VideoID = videoID

	reason, errMsg := middleware.ValidateReason(req.Reason)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_REASON", errMsg)
	}
	req.Reason = reason

	req.Details = middleware.TruncateDetails(req.Details)

	resp, err := h.reports.Submit(c.Context(), profile.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateReport):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "DUPLICATE_REPORT", "You already reported this video")
		case errors.Is(err, service.ErrNotFound):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		default:
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to submit report")
		}
	}

	Metrics.ReportsTotal.WithLabelValues(req.Reason).Inc()
	if resp.VideoBlocked {
		Metrics.VideosBlocked.Inc()
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Resolve handles POST /api/reports/:reportId/resolve (operator only).
func (h *ReportHandler) Resolve(c fiber.Ctx) error {
	reportID, errMsg := middleware.ValidateUUID(c.Params("reportId"), "reportId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.reports.Resolve(c.Context(), reportID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Report not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve report")
	}

	return c.JSON(fiber.Map{"success": true})
}

// Pending handles GET /api/reports/pending (operator only).
func (h *ReportHandler) Pending(c fiber.Ctx) error {
	reports, err := h.reports.Pending(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reports")
	}

	return c.JSON(fiber.Map{"reports": reports})
}
