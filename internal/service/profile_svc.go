package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jazetjaz01/streamdi/internal/geo"
	"github.com/jazetjaz01/streamdi/internal/model"
	"github.com/jazetjaz01/streamdi/internal/repository"
	"github.com/jazetjaz01/streamdi/pkg/slug"
)

// ProfileStore is the persistence surface the identity resolver needs.
type ProfileStore interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error)
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	Insert(ctx context.Context, p *model.Profile) error
	BumpChannelsCount(ctx context.Context, profileID string, delta int) error
}

// GeoLookup resolves an approximate location for an IP, best effort.
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (geo.Location, error)
}

// errProfileRaced aborts the handle allocation loop when a concurrent
// first call already created the account's profile.
var errProfileRaced = errors.New("profile created concurrently")

// ProfileService maps authenticated accounts to durable profiles, creating
// profile and default channel on first resolution.
type ProfileService struct {
	profiles ProfileStore
	channels *ChannelService
	geo      GeoLookup
	alloc    *HandleAllocator
}

func NewProfileService(profiles ProfileStore, channels *ChannelService, geoLookup GeoLookup) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		channels: channels,
		geo:      geoLookup,
		alloc:    NewHandleAllocator(profiles),
	}
}

// Resolve returns the profile for an authenticated account, creating it
// (and its default channel) on first call. The default-channel step runs
// on every resolution, so an earlier partial failure (profile persisted,
// channel insert failed) heals here instead of leaving the account
// channel-less. Returns the profile and whether it was created now.
func (s *ProfileService) Resolve(ctx context.Context, accountID, clientIP string, req model.ResolveProfileRequest) (*model.Profile, bool, error) {
	p, err := s.profiles.FindByAccountID(ctx, accountID)
	if err == nil {
		if err := s.channels.EnsureDefault(ctx, p); err != nil {
			return nil, false, err
		}
		return p, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = slug.Fallback
	}

	newProfile := &model.Profile{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		DisplayName: displayName,
	}
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		newProfile.Locale = &locale
	}
	s.enrichLocation(ctx, newProfile, clientIP)

	var raced *model.Profile
	_, err = s.alloc.AllocateWithRetry(ctx, displayName, func(handle string) error {
		newProfile.Handle = handle
		insertErr := s.profiles.Insert(ctx, newProfile)
		if errors.Is(insertErr, repository.ErrDuplicate) {
			// The duplicate may be the account reference, not the handle:
			// a concurrent first call for the same account won the insert.
			if existing, findErr := s.profiles.FindByAccountID(ctx, accountID); findErr == nil {
				raced = existing
				return errProfileRaced
			}
		}
		return insertErr
	})
	if errors.Is(err, errProfileRaced) {
		if err := s.channels.EnsureDefault(ctx, raced); err != nil {
			return nil, false, err
		}
		return raced, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if err := s.channels.EnsureDefault(ctx, newProfile); err != nil {
		// The profile row is committed; the next resolution retries only
		// the missing channel step.
		return nil, false, err
	}

	return newProfile, true, nil
}

// Get returns the profile for an account without provisioning anything.
func (s *ProfileService) Get(ctx context.Context, accountID string) (*model.Profile, error) {
	p, err := s.profiles.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByID returns a profile by identifier, mapping absence to ErrNotFound.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// enrichLocation fills city/country from the geo client. Failures are
// logged and ignored: enrichment never blocks profile creation.
func (s *ProfileService) enrichLocation(ctx context.Context, p *model.Profile, clientIP string) {
	if s.geo == nil {
		return
	}
	loc, err := s.geo.Lookup(ctx, clientIP)
	if err != nil {
		log.Printf("geo: lookup failed for profile enrichment: %v", err)
		return
	}
	if loc.City != "" {
		p.City = &loc.City
	}
	if loc.Country != "" {
		p.Country = &loc.Country
	}
}
