package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/storage"
)

// VideoStore is the persistence surface for video rows.
type VideoStore interface {
	FindByID(ctx context.Context, id string) (*model.Video, error)
	Insert(ctx context.Context, v *model.Video) error
	ListByChannel(ctx context.Context, channelID string, includeBlocked bool) ([]model.Video, error)
	ListRecent(ctx context.Context, limit int) ([]model.FeedItem, error)
}

// Feed page size bounds. A limit of zero falls back to the default; the
// cap keeps a single request from draining the table.
const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

// VideoService handles uploads and watch-page reads.
type VideoService struct {
	videos   VideoStore
	channels ChannelReader
	media    MediaStore
	cache    *CacheService
}

func NewVideoService(videos VideoStore, channels ChannelReader, media MediaStore, cache *CacheService) *VideoService {
	return &VideoService{videos: videos, channels: channels, media: media, cache: cache}
}

// Upload persists a new video for a channel the profile owns. Media and
// thumbnail blobs go to object storage first; an upload failure aborts the
// whole creation so no row references a missing blob.
func (s *VideoService) Upload(ctx context.Context, profile *model.Profile, req model.UploadVideoRequest, uploads []MediaUpload) (*model.Video, error) {
	ch, err := s.channels.FindByID(ctx, req.ChannelID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if ch.ProfileID != profile.ID {
		// Publishing to someone else's channel reads as absent, not as a
		// distinct permission error.
		return nil, ErrNotFound
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	v := &model.Video{
		ID:          uuid.New().String(),
		ChannelID:   ch.ID,
		Title:       req.Title,
		Description: req.Description,
		Visibility:  visibility,
		Status:      model.VideoStatusActive,
	}

	for _, up := range uploads {
		url, err := s.media.Upload(ctx, storage.ObjectName(ch.Handle, up.Purpose, up.Filename), up.Reader, up.Size, up.ContentType)
		if err != nil {
			return nil, err
		}
		switch up.Purpose {
		case "thumb":
			v.ThumbnailURL = &url
		default:
			v.MediaURL = url
		}
	}

	if err := s.videos.Insert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Watch returns the watch-page payload: the video plus its owning channel.
// Blocked videos are absent from the public surface. Cache-aside.
func (s *VideoService) Watch(ctx context.Context, videoID string) (*model.WatchResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.GetVideo(ctx, videoID)
		if err != nil {
			log.Printf("cache: video get error: %v", err)
		} else if cached != nil {
			var resp model.WatchResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	v, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if v.Status == model.VideoStatusBlocked {
		return nil, ErrNotFound
	}

	ch, err := s.channels.FindByID(ctx, v.ChannelID)
	if err != nil {
		return nil, mapNoRows(err)
	}

	resp := &model.WatchResponse{Video: v, Channel: ch}
	if s.cache != nil {
		if err := s.cache.SetVideo(ctx, videoID, resp); err != nil {
			log.Printf("cache: video set error: %v", err)
		}
	}
	return resp, nil
}

// Feed returns the public home feed: active public videos across all
// channels, newest first, with each owning channel's summary.
func (s *VideoService) Feed(ctx context.Context, limit int) ([]model.FeedItem, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	return s.videos.ListRecent(ctx, limit)
}

// ListForChannel returns a channel's videos. Owner views include blocked
// entries so creators can see moderation outcomes.
func (s *VideoService) ListForChannel(ctx context.Context, channelID string, includeBlocked bool) ([]model.Video, error) {
	return s.videos.ListByChannel(ctx, channelID, includeBlocked)
}
