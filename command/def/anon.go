package def

import (
	"github.com/bwmarrin/discordgo"

	"github.com/miyasty1919/discordmaidbot/model"
)

var AnonPanelCommand = &discordgo.ApplicationCommand{
	Name:                     "anon_panel",
	Description:              "匿名投稿パネルを設置します",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "mode",
			Description: "投稿モード",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "匿名", Value: string(model.AnonModeAnonymous)},
				{Name: "代理 (名前表示)", Value: string(model.AnonModeProxy)},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "kind",
			Description: "投稿の種類",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "テキスト", Value: string(model.AnonKindText)},
				{Name: "画像", Value: string(model.AnonKindImage)},
			},
		},
	},
}

var PostLogCommand = &discordgo.ApplicationCommand{
	Name:                     "post_log",
	Description:              "匿名投稿の投稿者を確認します",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "post_id",
			Description: "投稿番号",
			Required:    true,
		},
	},
}
