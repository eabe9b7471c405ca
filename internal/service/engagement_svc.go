package service

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/pkg/hash"
)

// LikeStore performs the atomic like toggle against the pair table.
type LikeStore interface {
	Like(ctx context.Context, videoID, profileID string) (int64, error)
	Unlike(ctx context.Context, videoID, profileID string) (int64, error)
	Exists(ctx context.Context, videoID, profileID string) (bool, error)
}

// SubscriptionStore performs the atomic subscribe toggle.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, channelID, profileID string) (int, error)
	Unsubscribe(ctx context.Context, channelID, profileID string) (int, error)
	Exists(ctx context.Context, channelID, profileID string) (bool, error)
}

// VideoCounterStore increments and reads the monotonic view counter.
type VideoCounterStore interface {
	IncrementViews(ctx context.Context, videoID string) (int64, error)
	FindByID(ctx context.Context, id string) (*model.Video, error)
}

// ChannelReader reads channel aggregates for status responses.
type ChannelReader interface {
	FindByID(ctx context.Context, id string) (*model.Channel, error)
}

// ViewMarker reads and sets the per-(session, video) de-duplication
// marker.
type ViewMarker interface {
	Seen(ctx context.Context, sessionKey, videoID string) (bool, error)
	MarkViewed(ctx context.Context, sessionKey, videoID string) (bool, error)
}

// EngagementService implements the idempotent like/subscribe toggles and
// the session-deduplicated view counter.
type EngagementService struct {
	likes  LikeStore
	subs   SubscriptionStore
	videos VideoCounterStore
	chans  ChannelReader
	marker ViewMarker
	cache  *CacheService
}

func NewEngagementService(likes LikeStore, subs SubscriptionStore, videos VideoCounterStore, chans ChannelReader, marker ViewMarker, cache *CacheService) *EngagementService {
	return &EngagementService{
		likes:  likes,
		subs:   subs,
		videos: videos,
		chans:  chans,
		marker: marker,
		cache:  cache,
	}
}

// Like records a like; liking an already-liked video is a no-op that still
// returns the current count.
func (s *EngagementService) Like(ctx context.Context, videoID, profileID string) (*model.LikeResponse, error) {
	count, err := s.likes.Like(ctx, videoID, profileID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	s.invalidateVideo(ctx, videoID)
	return &model.LikeResponse{Liked: true, LikesCount: count}, nil
}

// Unlike removes a like; removing an absent like is a no-op. The count
// never goes below zero because it is recounted from the pair rows.
func (s *EngagementService) Unlike(ctx context.Context, videoID, profileID string) (*model.LikeResponse, error) {
	count, err := s.likes.Unlike(ctx, videoID, profileID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	s.invalidateVideo(ctx, videoID)
	return &model.LikeResponse{Liked: false, LikesCount: count}, nil
}

// LikeStatus reports whether the profile likes the video, with the count.
func (s *EngagementService) LikeStatus(ctx context.Context, videoID, profileID string) (*model.LikeResponse, error) {
	v, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	liked, err := s.likes.Exists(ctx, videoID, profileID)
	if err != nil {
		return nil, err
	}
	return &model.LikeResponse{Liked: liked, LikesCount: v.LikesCount}, nil
}

// Subscribe records a subscription; duplicates are treated as success.
func (s *EngagementService) Subscribe(ctx context.Context, channelID, profileID string) (*model.SubscriptionStatusResponse, error) {
	count, err := s.subs.Subscribe(ctx, channelID, profileID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &model.SubscriptionStatusResponse{Subscribed: true, SubscribersCount: count}, nil
}

// Unsubscribe removes a subscription; removing an absent one is a no-op.
func (s *EngagementService) Unsubscribe(ctx context.Context, channelID, profileID string) (*model.SubscriptionStatusResponse, error) {
	count, err := s.subs.Unsubscribe(ctx, channelID, profileID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &model.SubscriptionStatusResponse{Subscribed: false, SubscribersCount: count}, nil
}

// SubscriptionStatus reports whether the profile subscribes to the channel.
func (s *EngagementService) SubscriptionStatus(ctx context.Context, channelID, profileID string) (*model.SubscriptionStatusResponse, error) {
	ch, err := s.chans.FindByID(ctx, channelID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	subscribed, err := s.subs.Exists(ctx, channelID, profileID)
	if err != nil {
		return nil, err
	}
	return &model.SubscriptionStatusResponse{Subscribed: subscribed, SubscribersCount: ch.SubscribersCount}, nil
}

// RecordView counts a view once per (client session, video). The marker
// is set only after the increment commits, so a failed counter write is
// not recorded as seen and the session's retry still counts. The accepted
// race runs toward over-counting: a marker store outage or two requests
// landing inside the read/increment gap count twice rather than losing a
// view. The counter write is awaited to completion, never
// fire-and-forget.
func (s *EngagementService) RecordView(ctx context.Context, videoID, sessionID string) (*model.ViewResponse, error) {
	key := hash.SessionKey(sessionID)

	seen, err := s.marker.Seen(ctx, key, videoID)
	if err != nil {
		log.Printf("views: marker error, counting anyway: %v", err)
		seen = false
	}
	if seen {
		v, err := s.videos.FindByID(ctx, videoID)
		if err != nil {
			return nil, mapNoRows(err)
		}
		return &model.ViewResponse{Counted: false, Views: v.ViewsCount}, nil
	}

	views, err := s.videos.IncrementViews(ctx, videoID)
	if err != nil {
		return nil, mapNoRows(err)
	}

	if _, err := s.marker.MarkViewed(ctx, key, videoID); err != nil {
		log.Printf("views: marker set error: %v", err)
	}
	return &model.ViewResponse{Counted: true, Views: views}, nil
}

func (s *EngagementService) invalidateVideo(ctx context.Context, videoID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVideo(ctx, videoID); err != nil {
		log.Printf("cache: invalidate video error: %v", err)
	}
}

// mapNoRows converts store row-absence into the service-level not-found.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
