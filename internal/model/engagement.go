package model

import "time"

// Like is a join record: one per (profile, video) pair. Its existence is the
// source of truth for the video's likes count.
type Like struct {
	VideoID   string    `json:"videoId"`
	ProfileID string    `json:"profileId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription is a join record: one per (subscriber profile, channel) pair.
type Subscription struct {
	ChannelID    string    `json:"channelId"`
	SubscriberID string    `json:"subscriberId"`
	CreatedAt    time.Time `json:"createdAt"`
}
