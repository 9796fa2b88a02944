package command

import (
	"github.com/miyasty1919/discordmaidbot/command/def"

	"github.com/bwmarrin/discordgo"
)

// AllCommands contains all of the commands
var AllCommands = []*discordgo.ApplicationCommand{
	def.DBSetupCommand,
	def.DBMenuCommand,
	def.DBDeleteCommand,
	def.DBPurgeUserCommand,
	def.DBBlacklistCommand,
	def.DBPrivacyCommand,
	def.DBLookupCommand,
	def.AnonPanelCommand,
	def.PostLogCommand,
	def.RolePanelCommand,
	def.PostCommand,
	def.PurgeCommand,
	def.KickCommand,
	def.BanCommand,
	def.ServerInfoCommand,
	def.SlowmodeCommand,
	def.ReadCommand,
}
