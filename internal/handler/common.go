package handler

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v3"

	"github.com/jazetjaz01/streamdi/internal/middleware"
	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/service"
)

var errNotAuthenticated = errors.New("not authenticated")

// currentProfile loads the profile of the authenticated caller. The auth
// middleware has already verified the session; a missing profile means the
// account never resolved one.
func currentProfile(c fiber.Ctx, profiles *service.ProfileService) (*model.Profile, error) {
	accountID := middleware.AccountID(c)
	if accountID == "" {
		return nil, errNotAuthenticated
	}
	return profiles.Get(c.Context(), accountID)
}

// profileError maps currentProfile failures to API responses.
func profileError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errNotAuthenticated):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Sign in required")
	case errors.Is(err, service.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "NO_PROFILE", "No profile for this account; call POST /api/profiles first")
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile")
	}
}

// formUpload extracts one optional file field from a multipart form.
// Returns (nil, nil) when the field is absent. The caller owns closing.
func formUpload(c fiber.Ctx, field, purpose string) (*service.MediaUpload, multipart.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		// Absent file field; fasthttp reports it as an error.
		return nil, nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}

	return &service.MediaUpload{
		Purpose:     purpose,
		Filename:    fh.Filename,
		Reader:      f,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
	}, f, nil
}
