package def

import (
	"github.com/bwmarrin/discordgo"
)

var (
	manageMessages = int64(discordgo.PermissionManageMessages)
	manageChannels = int64(discordgo.PermissionManageChannels)
	kickMembers    = int64(discordgo.PermissionKickMembers)
	banMembers     = int64(discordgo.PermissionBanMembers)

	minPurge = float64(1)
)

var PostCommand = &discordgo.ApplicationCommand{
	Name:                     "post",
	Description:              "ボットとしてメッセージを投稿します",
	DefaultMemberPermissions: &manageMessages,
	Options: []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionString, Name: "content", Description: "本文", Required: true, MaxLength: 4000},
		{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "タイトル", MaxLength: 256},
	},
}

var PurgeCommand = &discordgo.ApplicationCommand{
	Name:                     "purge",
	Description:              "最近のメッセージを一括削除します",
	DefaultMemberPermissions: &manageMessages,
	Options: []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "削除する件数 (1-100)", Required: true, MinValue: &minPurge, MaxValue: 100},
	},
}

var KickCommand = &discordgo.ApplicationCommand{
	Name:                     "kick",
	Description:              "メンバーをキックします",
	DefaultMemberPermissions: &kickMembers,
	Options: []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "対象メンバー", Required: true},
		{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "理由"},
	},
}

var BanCommand = &discordgo.ApplicationCommand{
	Name:                     "ban",
	Description:              "メンバーをBANします",
	DefaultMemberPermissions: &banMembers,
	Options: []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "対象メンバー", Required: true},
		{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "理由"},
	},
}

var ServerInfoCommand = &discordgo.ApplicationCommand{
	Name:        "server_info",
	Description: "サーバー情報を表示します",
}

var SlowmodeCommand = &discordgo.ApplicationCommand{
	Name:                     "slowmode",
	Description:              "このチャンネルの低速モードを設定します",
	DefaultMemberPermissions: &manageChannels,
	Options: []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionInteger, Name: "seconds", Description: "秒数 (0で解除)", Required: true, MaxValue: 21600},
	},
}

var ReadCommand = &discordgo.ApplicationCommand{
	Name:        "read",
	Description: "ボットの使い方を表示します",
}
