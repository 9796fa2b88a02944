package utils

import (
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/miyasty1919/discordmaidbot/config"
)

// CheckAuth 检查用户是否有权限
func CheckAuth(userID string, roles []string) bool {
	authConfig := config.Get().Commands.Auth

	// 检查是否为开发者
	if slices.Contains(authConfig.Developers, userID) {
		return true
	}

	// 检查是否拥有管理员角色
	for _, role := range roles {
		if slices.Contains(authConfig.AdminRoles, role) {
			return true
		}
	}

	return false
}

// IsModerator accepts configured developers and admin roles, plus anyone
// holding the Discord permission bit in the interaction's resolved
// permissions.
func IsModerator(i *discordgo.InteractionCreate, perm int64) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if perm != 0 && i.Member.Permissions&perm == perm {
		return true
	}
	return CheckAuth(InteractionUserID(i), i.Member.Roles)
}
