package def

import (
	"github.com/bwmarrin/discordgo"

	"github.com/miyasty1919/discordmaidbot/model"
)

var adminOnly = int64(discordgo.PermissionManageGuild)

func categoryChoices() []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: c.Label(), Value: string(c)})
	}
	return out
}

func categoryOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "category",
		Description: "カテゴリー",
		Required:    required,
		Choices:     categoryChoices(),
	}
}

var DBSetupCommand = &discordgo.ApplicationCommand{
	Name:                     "db_setup",
	Description:              "データベースの投稿先チャンネルを設定します",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "slot",
			Description: "設定する項目",
			Required:    true,
			Choices: append(categoryChoices(), &discordgo.ApplicationCommandOptionChoice{
				Name: "ログ", Value: model.LogSlot,
			}),
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "チャンネル",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
	},
}

var DBMenuCommand = &discordgo.ApplicationCommand{
	Name:                     "db_menu",
	Description:              "作品登録パネルを設置します",
	DefaultMemberPermissions: &adminOnly,
}

var DBDeleteCommand = &discordgo.ApplicationCommand{
	Name:                     "db_delete",
	Description:              "登録済みの作品を削除します",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		categoryOption(true),
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "title",
			Description: "作品タイトル (完全一致)",
			Required:    true,
			MaxLength:   100,
		},
	},
}

var DBPurgeUserCommand = &discordgo.ApplicationCommand{
	Name:                     "db_purge_user",
	Description:              "指定ユーザーの登録をすべて削除します",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "対象ユーザー",
			Required:    true,
		},
		categoryOption(false),
	},
}

var DBBlacklistCommand = &discordgo.ApplicationCommand{
	Name:                     "db_blacklist",
	Description:              "NGユーザーを追加・解除します",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "対象ユーザー",
			Required:    true,
		},
	},
}

var DBPrivacyCommand = &discordgo.ApplicationCommand{
	Name:                     "db_privacy",
	Description:              "登録者の記録を切り替えます",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "track",
			Description: "登録者を記録する",
			Required:    true,
		},
	},
}

var DBLookupCommand = &discordgo.ApplicationCommand{
	Name:        "db_lookup",
	Description: "登録済みの作品を検索します",
	Options: []*discordgo.ApplicationCommandOption{
		categoryOption(false),
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "title",
			Description: "タイトルの一部",
			MaxLength:   100,
		},
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "登録者 (自分以外はモデレーターのみ)",
		},
	},
}
