package handler

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestRouteKeyAndArgs(t *testing.T) {
	assert.Equal(t, "anon_post", routeKey("anon_post:proxy:text"))
	assert.Equal(t, "db_menu", routeKey("db_menu"))
	assert.Equal(t, []string{"proxy", "text"}, CustomIDArgs("anon_post:proxy:text"))
	assert.Nil(t, CustomIDArgs("db_menu"))
}

func TestOnInteractionCreate_RoutesComponentsByPrefix(t *testing.T) {
	var got string
	AddComponentHandler("role_assign", func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		got = i.MessageComponentData().CustomID
	})
	AddCommandHandler("read", func(*discordgo.Session, *discordgo.InteractionCreate) { got = "read" })

	OnInteractionCreate(nil, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "role_assign:42"},
	}})
	assert.Equal(t, "role_assign:42", got)

	OnInteractionCreate(nil, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: "read"},
	}})
	assert.Equal(t, "read", got)

	got = ""
	OnInteractionCreate(nil, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionModalSubmit,
		Data: discordgo.ModalSubmitInteractionData{CustomID: "unknown:1"},
	}})
	assert.Empty(t, got)
}
