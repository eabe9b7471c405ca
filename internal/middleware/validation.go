package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/pkg/slug"
)

// Field length limits matching database schema constraints.
const (
	MaxTitleLen     = 200 // videos.title VARCHAR(200)
	MaxDetailsLen   = 2000
	MaxSessionIDLen = 128
	MaxHandleLen    = 64 // profiles.handle / channels.handle VARCHAR(64)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateUUID checks that an identifier is a well-formed UUID.
func ValidateUUID(id, field string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", field + " is required"
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", field + " must be a valid identifier"
	}
	return id, ""
}

// ValidateHandle checks that a handle is a well-formed slug.
func ValidateHandle(h string) (string, string) {
	h = strings.TrimSpace(strings.ToLower(h))
	if h == "" {
		return "", "handle is required"
	}
	if len(h) > MaxHandleLen {
		return "", "handle is too long"
	}
	if !slug.Valid(h) {
		return "", "handle contains invalid characters"
	}
	return h, ""
}

// ValidateTitle trims and bounds a video or channel title.
func ValidateTitle(t string) (string, string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", "title is required"
	}
	if len(t) > MaxTitleLen {
		return "", "title is too long"
	}
	return t, ""
}

// ValidateVisibility normalizes the visibility field, defaulting to public.
func ValidateVisibility(v string) (string, string) {
	v = strings.TrimSpace(strings.ToLower(v))
	switch v {
	case "":
		return model.VisibilityPublic, ""
	case model.VisibilityPublic, model.VisibilityPrivate:
		return v, ""
	default:
		return "", "visibility must be public or private"
	}
}

// ValidateSessionID bounds the opaque client session marker. The value is
// hashed before use, so only presence and length are enforced here.
func ValidateSessionID(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "sessionId is required"
	}
	if len(s) > MaxSessionIDLen {
		return "", "sessionId is too long"
	}
	return s, ""
}

// TruncateDetails caps free-form report details at MaxDetailsLen bytes
// without splitting a multi-byte UTF-8 sequence.
func TruncateDetails(s string) string {
	if len(s) <= MaxDetailsLen {
		return s
	}
	cut := MaxDetailsLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ValidateReason checks the report reason against the accepted set.
func ValidateReason(r string) (string, string) {
	r = strings.TrimSpace(strings.ToLower(r))
	if r == "" {
		return "", "reason is required"
	}
	if !model.ReportReasons[r] {
		return "", "reason is not a recognized report reason"
	}
	return r, ""
}
