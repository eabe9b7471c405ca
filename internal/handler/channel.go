package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/jazetjaz01/streamdi/internal/middleware"
	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/service"
)

type ChannelHandler struct {
	channels   *service.ChannelService
	profiles   *service.ProfileService
	engagement *service.EngagementService
}

func NewChannelHandler(channels *service.ChannelService, profiles *service.ProfileService, engagement *service.EngagementService) *ChannelHandler {
	return &ChannelHandler{channels: channels, profiles: profiles, engagement: engagement}
}

// Create handles POST /api/channels (multipart form).
func (h *ChannelHandler) Create(c fiber.Ctx) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	var req model.CreateChannelRequest
	if err := c.Bind().Form(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid form data")
	}

	name, errMsg := middleware.ValidateTitle(req.Name)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Name = name

	visibility, errMsg := middleware.ValidateVisibility(req.Visibility)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Visibility = visibility

	var uploads []service.MediaUpload
	for _, spec := range []struct{ field, purpose string }{
		{"avatar", "avatar"},
		{"banner", "banner"},
	} {
		up, f, err := formUpload(c, spec.field, spec.purpose)
		if err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILE", "Could not read uploaded file")
		}
		if up == nil {
			continue
		}
		defer f.Close()
		uploads = append(uploads, *up)
	}

	channel, err := h.channels.Create(c.Context(), profile, req, uploads)
	if err != nil {
		var banned *service.BannedWordError
		switch {
		case errors.Is(err, service.ErrLimitExceeded):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "CHANNEL_LIMIT",
				"A profile may own at most 5 channels")
		case errors.As(err, &banned):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "BANNED_WORD", banned.Error())
		default:
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create channel")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(model.ChannelResponse{Channel: channel})
}

// Get handles GET /api/channels/:handle
func (h *ChannelHandler) Get(c fiber.Ctx) error {
	handle, errMsg := middleware.ValidateHandle(c.Params("handle"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.channels.Lookup(c.Context(), handle)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup channel")
	}

	return c.JSON(resp)
}

// ListMine handles GET /api/channels — the caller's channels.
func (h *ChannelHandler) ListMine(c fiber.Ctx) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	channels, err := h.channels.ListForProfile(c.Context(), profile.ID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list channels")
	}

	return c.JSON(fiber.Map{"channels": channels})
}

// Subscribe handles POST /api/channels/:channelId/subscribe
func (h *ChannelHandler) Subscribe(c fiber.Ctx) error {
	return h.toggleSubscription(c, true)
}

// Unsubscribe handles DELETE /api/channels/:channelId/subscribe
func (h *ChannelHandler) Unsubscribe(c fiber.Ctx) error {
	return h.toggleSubscription(c, false)
}

func (h *ChannelHandler) toggleSubscription(c fiber.Ctx, subscribe bool) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	channelID, errMsg := middleware.ValidateUUID(c.Params("channelId"), "channelId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var resp *model.SubscriptionStatusResponse
	if subscribe {
		resp, err = h.engagement.Subscribe(c.Context(), channelID, profile.ID)
	} else {
		resp, err = h.engagement.Unsubscribe(c.Context(), channelID, profile.ID)
	}
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update subscription")
	}

	direction := "on"
	if !subscribe {
		direction = "off"
	}
	Metrics.TogglesTotal.WithLabelValues("subscription", direction).Inc()

	return c.JSON(resp)
}

// SubscriptionStatus handles GET /api/channels/:channelId/subscription
func (h *ChannelHandler) SubscriptionStatus(c fiber.Ctx) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	channelID, errMsg := middleware.ValidateUUID(c.Params("channelId"), "channelId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.engagement.SubscriptionStatus(c.Context(), channelID, profile.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load subscription status")
	}

	return c.JSON(resp)
}
