package model

// RoleKeep is the set of roles a member held when they left a guild.
type RoleKeep struct {
	GuildID string
	UserID  string
	RoleIDs []string
}
