package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/jazetjaz01/streamdi/internal/middleware"
	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/service"
)

type VideoHandler struct {
	videos     *service.VideoService
	profiles   *service.ProfileService
	engagement *service.EngagementService
}

func NewVideoHandler(videos *service.VideoService, profiles *service.ProfileService, engagement *service.EngagementService) *VideoHandler {
	return &VideoHandler{videos: videos, profiles: profiles, engagement: engagement}
}

// Upload handles POST /api/videos (multipart form).
func (h *VideoHandler) Upload(c fiber.Ctx) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	var req model.UploadVideoRequest
	if err := c.Bind().Form(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid form data")
	}

	channelID, errMsg := middleware.ValidateUUID(req.ChannelID, "channelId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.ChannelID = channelID

	title, errMsg := middleware.ValidateTitle(req.Title)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Title = title

	visibility, errMsg := middleware.ValidateVisibility(req.Visibility)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Visibility = visibility

	media, mf, err := formUpload(c, "media", "media")
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILE", "Could not read media file")
	}
	if media == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "media file is required")
	}
	defer mf.Close()
	uploads := []service.MediaUpload{*media}

	thumb, tf, err := formUpload(c, "thumbnail", "thumb")
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILE", "Could not read thumbnail file")
	}
	if thumb != nil {
		defer tf.Close()
		uploads = append(uploads, *thumb)
	}

	video, err := h.videos.Upload(c.Context(), profile, req, uploads)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to upload video")
	}

	return c.Status(fiber.StatusCreated).JSON(video)
}

// Feed handles GET /api/videos — the public home feed, newest first.
func (h *VideoHandler) Feed(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit")

	items, err := h.videos.Feed(c.Context(), limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load feed")
	}
	if items == nil {
		items = []model.FeedItem{}
	}

	return c.JSON(fiber.Map{"videos": items})
}

// Watch handles GET /api/videos/:videoId — video plus owning channel.
func (h *VideoHandler) Watch(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateUUID(c.Params("videoId"), "videoId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.videos.Watch(c.Context(), videoID)
	if err != nil {
		// Blocked videos are indistinguishable from absent ones here.
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video")
	}

	return c.JSON(resp)
}

// ListForChannel handles GET /api/channels/:channelId/videos
func (h *VideoHandler) ListForChannel(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateUUID(c.Params("channelId"), "channelId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	videos, err := h.videos.ListForChannel(c.Context(), channelID, false)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list videos")
	}

	return c.JSON(fiber.Map{"videos": videos})
}

// View handles POST /api/videos/:videoId/view — session-deduped increment.
func (h *VideoHandler) View(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateUUID(c.Params("videoId"), "videoId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var req model.ViewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	sessionID, errMsg := middleware.ValidateSessionID(req.SessionID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.engagement.RecordView(c.Context(), videoID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record view")
	}

	if resp.Counted {
		Metrics.ViewsTotal.Inc()
	}

	return c.JSON(resp)
}

// Like handles POST /api/videos/:videoId/like
func (h *VideoHandler) Like(c fiber.Ctx) error {
	return h.toggleLike(c, true)
}

// Unlike handles DELETE /api/videos/:videoId/like
func (h *VideoHandler) Unlike(c fiber.Ctx) error {
	return h.toggleLike(c, false)
}

func (h *VideoHandler) toggleLike(c fiber.Ctx, like bool) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	videoID, errMsg := middleware.ValidateUUID(c.Params("videoId"), "videoId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var resp *model.LikeResponse
	if like {
		resp, err = h.engagement.Like(c.Context(), videoID, profile.ID)
	} else {
		resp, err = h.engagement.Unlike(c.Context(), videoID, profile.ID)
	}
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update like")
	}

	direction := "on"
	if !like {
		direction = "off"
	}
	Metrics.TogglesTotal.WithLabelValues("like", direction).Inc()

	return c.JSON(resp)
}

// LikeStatus handles GET /api/videos/:videoId/like
func (h *VideoHandler) LikeStatus(c fiber.Ctx) error {
	profile, err := currentProfile(c, h.profiles)
	if err != nil {
		return profileError(c, err)
	}

	videoID, errMsg := middleware.ValidateUUID(c.Params("videoId"), "videoId")
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.engagement.LikeStatus(c.Context(), videoID, profile.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load like status")
	}

	return c.JSON(resp)
}
