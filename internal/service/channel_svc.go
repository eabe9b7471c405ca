package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/repository"
	"github.com/jazetjaz01/streamdi/internal/storage"
	"github.com/jazetjaz01/streamdi/pkg/slug"
)

// MaxChannelsPerProfile is the per-profile channel ceiling.
const MaxChannelsPerProfile = 5

// Word-count caps applied before the banned-word check. Overflow tokens
// are dropped, not rejected.
const (
	maxNameWords        = 20
	maxDescriptionWords = 100
)

// ChannelStore is the persistence surface the provisioner needs.
type ChannelStore interface {
	FindByID(ctx context.Context, id string) (*model.Channel, error)
	FindByHandle(ctx context.Context, handle string) (*model.Channel, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	CountByProfile(ctx context.Context, profileID string) (int, error)
	Insert(ctx context.Context, ch *model.Channel, maxPerProfile int) error
	ListByProfile(ctx context.Context, profileID string) ([]model.Channel, error)
}

// ProfileCounter bumps the cached channels_count optimization field.
type ProfileCounter interface {
	BumpChannelsCount(ctx context.Context, profileID string, delta int) error
}

// MediaStore uploads blobs and returns their public locators.
type MediaStore interface {
	Upload(ctx context.Context, objectName string, src io.Reader, size int64, contentType string) (string, error)
}

// MediaUpload is one file attached to a channel creation or video upload.
type MediaUpload struct {
	Purpose     string // "avatar", "banner", "media", "thumb"
	Filename    string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ChannelService provisions channels: one default channel per new profile
// and explicit creation under the per-profile ceiling.
type ChannelService struct {
	channels ChannelStore
	profiles ProfileCounter
	media    MediaStore
	filter   *WordFilter
	cache    *CacheService
	alloc    *HandleAllocator
}

func NewChannelService(channels ChannelStore, profiles ProfileCounter, media MediaStore, filter *WordFilter, cache *CacheService) *ChannelService {
	return &ChannelService{
		channels: channels,
		profiles: profiles,
		media:    media,
		filter:   filter,
		cache:    cache,
		alloc:    NewHandleAllocator(channels),
	}
}

// EnsureDefault guarantees the profile owns at least one channel, creating
// a public one named after the display name when it owns none. Called on
// every identity resolution so a crash between profile insert and channel
// insert heals on the next call.
func (s *ChannelService) EnsureDefault(ctx context.Context, p *model.Profile) error {
	count, err := s.channels.CountByProfile(ctx, p.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	ch := &model.Channel{
		ID:         uuid.New().String(),
		ProfileID:  p.ID,
		Name:       p.DisplayName,
		Visibility: model.VisibilityPublic,
	}
	if _, err := s.insertWithHandle(ctx, p.DisplayName, ch); err != nil {
		return err
	}

	s.bumpCount(ctx, p.ID)
	return nil
}

// Create provisions an explicitly requested additional channel. Order of
// checks: ceiling, word-count truncation, banned words (name first), media
// upload, row insert. A failed media upload aborts creation so no partial
// record references a missing blob.
//
// The ceiling read here is only a fast path that rejects before any media
// is uploaded; the store re-checks it inside the insert transaction, so
// concurrent creates that both pass this read still cannot overshoot.
func (s *ChannelService) Create(ctx context.Context, profile *model.Profile, req model.CreateChannelRequest, uploads []MediaUpload) (*model.Channel, error) {
	count, err := s.channels.CountByProfile(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	if count >= MaxChannelsPerProfile {
		return nil, ErrLimitExceeded
	}

	name := truncateWords(strings.TrimSpace(req.Name), maxNameWords)
	description := truncateWords(strings.TrimSpace(req.Description), maxDescriptionWords)

	if term, found := s.filter.FirstMatch(name); found {
		return nil, &BannedWordError{Field: "name", Term: term}
	}
	if term, found := s.filter.FirstMatch(description); found {
		return nil, &BannedWordError{Field: "description", Term: term}
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	ch := &model.Channel{
		ID:          uuid.New().String(),
		ProfileID:   profile.ID,
		Name:        name,
		Description: description,
		Visibility:  visibility,
	}

	// Media goes to object storage before the record insert; the object
	// name is derived from the base slug since the final handle is only
	// fixed at insert time.
	base := slug.Make(name)
	for _, up := range uploads {
		url, err := s.media.Upload(ctx, storage.ObjectName(base, up.Purpose, up.Filename), up.Reader, up.Size, up.ContentType)
		if err != nil {
			return nil, err
		}
		switch up.Purpose {
		case "banner":
			ch.BannerURL = &url
		default:
			ch.AvatarURL = &url
		}
	}

	if _, err := s.insertWithHandle(ctx, name, ch); err != nil {
		if errors.Is(err, repository.ErrLimitExceeded) {
			return nil, ErrLimitExceeded
		}
		return nil, err
	}

	s.bumpCount(ctx, profile.ID)
	return ch, nil
}

// Lookup returns the channel response for a handle, cache-aside.
func (s *ChannelService) Lookup(ctx context.Context, handle string) (*model.ChannelResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.GetChannel(ctx, handle)
		if err != nil {
			log.Printf("cache: channel get error: %v", err)
		} else if cached != nil {
			var resp model.ChannelResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	ch, err := s.channels.FindByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp := &model.ChannelResponse{Channel: ch}
	if s.cache != nil {
		if err := s.cache.SetChannel(ctx, handle, resp); err != nil {
			log.Printf("cache: channel set error: %v", err)
		}
	}
	return resp, nil
}

// GetByID returns a channel by identifier, mapping absence to ErrNotFound.
func (s *ChannelService) GetByID(ctx context.Context, id string) (*model.Channel, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ch, nil
}

// ListForProfile returns all channels a profile owns.
func (s *ChannelService) ListForProfile(ctx context.Context, profileID string) ([]model.Channel, error) {
	return s.channels.ListByProfile(ctx, profileID)
}

func (s *ChannelService) insertWithHandle(ctx context.Context, nameHint string, ch *model.Channel) (string, error) {
	return s.alloc.AllocateWithRetry(ctx, nameHint, func(handle string) error {
		ch.Handle = handle
		return s.channels.Insert(ctx, ch, MaxChannelsPerProfile)
	})
}

// bumpCount updates the cached channels_count. The field is not the source
// of truth, so a failure here is logged and ignored.
func (s *ChannelService) bumpCount(ctx context.Context, profileID string) {
	if err := s.profiles.BumpChannelsCount(ctx, profileID, 1); err != nil {
		log.Printf("profiles: channels_count bump failed for %s: %v", profileID, err)
	}
}
