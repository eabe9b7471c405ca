package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/jazetjaz01/streamdi/internal/middleware"
	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/service"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Resolve handles POST /api/profiles — find-or-create the caller's profile.
func (h *ProfileHandler) Resolve(c fiber.Ctx) error {
	accountID := middleware.AccountID(c)
	if accountID == "" {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Sign in required")
	}

	// Hints are optional; an empty body is a plain resolve.
	var req model.ResolveProfileRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		}
	}

	profile, created, err := h.svc.Resolve(c.Context(), accountID, c.IP(), req)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve profile")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
		Metrics.ProfilesCreated.Inc()
	}

	return c.Status(status).JSON(model.ProfileResponse{Profile: profile, Created: created})
}

// Me handles GET /api/profiles/me — the caller's profile.
func (h *ProfileHandler) Me(c fiber.Ctx) error {
	accountID := middleware.AccountID(c)
	if accountID == "" {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Sign in required")
	}

	profile, err := h.svc.Get(c.Context(), accountID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Profile not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile")
	}

	return c.JSON(model.ProfileResponse{Profile: profile})
}
