package model

import "time"

// Profile is the durable identity record for an authenticated account.
// Exactly one exists per account; it owns up to MaxChannelsPerProfile channels.
type Profile struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"-"`
	DisplayName   string    `json:"displayName"`
	Handle        string    `json:"handle"`
	AvatarURL     *string   `json:"avatarUrl,omitempty"`
	BannerURL     *string   `json:"bannerUrl,omitempty"`
	Locale        *string   `json:"locale,omitempty"`
	City          *string   `json:"city,omitempty"`
	Country       *string   `json:"country,omitempty"`
	ChannelsCount int       `json:"channelsCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ResolveProfileRequest carries the optional hints sent on first sign-in.
type ResolveProfileRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

// ProfileResponse is the API response for profile resolution and lookups.
type ProfileResponse struct {
	Profile *Profile `json:"profile"`
	Created bool     `json:"created"`
}
