package model

import "time"

// AnonMode selects whether posts hide the poster entirely or relay their name.
type AnonMode string

const (
	AnonModeAnonymous AnonMode = "anon"
	AnonModeProxy     AnonMode = "proxy"
)

// AnonKind selects text or image posting.
type AnonKind string

const (
	AnonKindText  AnonKind = "text"
	AnonKindImage AnonKind = "image"
)

// AnonPost is the moderation log line kept for every relayed post.
type AnonPost struct {
	PostID    int64
	GuildID   string
	ChannelID string
	UserID    string
	UserTag   string
	Mode      AnonMode
	Kind      AnonKind
	CreatedAt time.Time
}

// AnonPanel 记录频道中当前的投稿面板消息
type AnonPanel struct {
	ChannelID string
	MessageID string
	Mode      AnonMode
	Kind      AnonKind
	UpdatedAt time.Time
}
