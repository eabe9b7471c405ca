package model

import "time"

// Video status values. A video transitions to blocked when the report
// threshold is reached and is never auto-unblocked.
const (
	VideoStatusActive  = "active"
	VideoStatusBlocked = "blocked"
)

// Video is owned by exactly one channel.
type Video struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	MediaURL     string    `json:"mediaUrl"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	Visibility   string    `json:"visibility"`
	ViewsCount   int64     `json:"viewsCount"`
	LikesCount   int64     `json:"likesCount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UploadVideoRequest is the multipart form for video upload.
type UploadVideoRequest struct {
	ChannelID   string `json:"channelId" form:"channelId"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Visibility  string `json:"visibility" form:"visibility"`
}

// FeedChannel is the owning-channel summary embedded in feed entries.
type FeedChannel struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Handle    string  `json:"handle"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// FeedItem is one entry of the public home feed.
type FeedItem struct {
	Video
	Channel FeedChannel `json:"channel"`
}

// WatchResponse is the API response for the watch page: the video plus its
// owning channel.
type WatchResponse struct {
	Video   *Video   `json:"video"`
	Channel *Channel `json:"channel"`
}

// ViewRequest carries the client session marker for view de-duplication.
type ViewRequest struct {
	SessionID string `json:"sessionId"`
}

// ViewResponse is the API response after a view increment.
type ViewResponse struct {
	Counted bool  `json:"counted"`
	Views   int64 `json:"views"`
}

// LikeResponse is the API response after a like/unlike toggle.
type LikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}
