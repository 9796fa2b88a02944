package model

import "slices"

// LogSlot is the guild channel slot that receives audit notifications.
const LogSlot = "log"

// GuildSettings is the per-guild binding of categories to channels plus
// the submission deny-list.
type GuildSettings struct {
	GuildID         string
	Channels        map[Category]string
	LogChannelID    string
	DenyList        []string
	TrackSubmitters bool
}

// ChannelFor returns the destination channel for a category, or "".
func (g *GuildSettings) ChannelFor(c Category) string {
	if g == nil || g.Channels == nil {
		return ""
	}
	return g.Channels[c]
}

// IsDenied reports whether userID is on the deny-list.
func (g *GuildSettings) IsDenied(userID string) bool {
	if g == nil {
		return false
	}
	return slices.Contains(g.DenyList, userID)
}
