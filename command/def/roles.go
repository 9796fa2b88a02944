package def

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// MaxPanelRoles is the number of role slots /role_panel offers.
const MaxPanelRoles = 4

var RolePanelCommand = &discordgo.ApplicationCommand{
	Name:                     "role_panel",
	Description:              "ロール付与パネルを設置します",
	DefaultMemberPermissions: &manageRoles,
	Options:                  rolePanelOptions(),
}

var manageRoles = int64(discordgo.PermissionManageRoles)

func rolePanelOptions() []*discordgo.ApplicationCommandOption {
	opts := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "title",
			Description: "パネルのタイトル",
			Required:    true,
			MaxLength:   100,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "color",
			Description: "ボタンの色",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "緑", Value: "green"},
				{Name: "青", Value: "blue"},
				{Name: "赤", Value: "red"},
				{Name: "灰", Value: "grey"},
			},
		},
	}
	for n := 1; n <= MaxPanelRoles; n++ {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        fmt.Sprintf("role%d", n),
			Description: fmt.Sprintf("ロール%d", n),
			Required:    n == 1,
		})
	}
	for n := 1; n <= MaxPanelRoles; n++ {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        fmt.Sprintf("label%d", n),
			Description: fmt.Sprintf("ロール%dのボタン表示名", n),
			MaxLength:   80,
		})
	}
	return opts
}
