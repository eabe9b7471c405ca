package model

import "time"

// Channel visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Channel is a publishing identity owned by exactly one profile.
// Its handle is globally unique in a namespace separate from profile handles.
type Channel struct {
	ID               string    `json:"id"`
	ProfileID        string    `json:"profileId"`
	Name             string    `json:"name"`
	Handle           string    `json:"handle"`
	Description      string    `json:"description,omitempty"`
	Visibility       string    `json:"visibility"`
	AvatarURL        *string   `json:"avatarUrl,omitempty"`
	BannerURL        *string   `json:"bannerUrl,omitempty"`
	SubscribersCount int       `json:"subscribersCount"`
	TotalViewsCount  int64     `json:"totalViewsCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CreateChannelRequest is the API request body (multipart form fields) for
// explicit channel creation. Avatar and banner files are read from the form.
type CreateChannelRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Visibility  string `json:"visibility" form:"visibility"`
}

// ChannelResponse is the API response for channel lookups.
type ChannelResponse struct {
	Channel *Channel `json:"channel"`
}

// SubscriptionStatusResponse reports whether the caller subscribes to a channel.
type SubscriptionStatusResponse struct {
	Subscribed       bool `json:"subscribed"`
	SubscribersCount int  `json:"subscribersCount"`
}
