package handler

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc handles one interaction.
type HandlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

var (
	commandHandlers   = make(map[string]HandlerFunc)
	componentHandlers = make(map[string]HandlerFunc)
	modalHandlers     = make(map[string]HandlerFunc)
)

// AddCommandHandler registers a handler for a slash command.
func AddCommandHandler(name string, handler HandlerFunc) {
	commandHandlers[name] = handler
}

// AddComponentHandler registers a handler for a message component. The key
// is the custom ID up to the first ':'.
func AddComponentHandler(customID string, handler HandlerFunc) {
	componentHandlers[customID] = handler
}

// AddModalHandler registers a handler for a modal submission, keyed like
// components.
func AddModalHandler(customID string, handler HandlerFunc) {
	modalHandlers[customID] = handler
}

// routeKey returns the handler key of a custom ID.
func routeKey(customID string) string {
	key, _, _ := strings.Cut(customID, ":")
	return key
}

// CustomIDArgs splits the arguments following the route key.
func CustomIDArgs(customID string) []string {
	_, rest, ok := strings.Cut(customID, ":")
	if !ok {
		return nil
	}
	return strings.Split(rest, ":")
}

// OnInteractionCreate is the main interaction router.
func OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if h := lookup(i); h != nil {
		h(s, i)
	}
}

func lookup(i *discordgo.InteractionCreate) HandlerFunc {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return commandHandlers[i.ApplicationCommandData().Name]
	case discordgo.InteractionMessageComponent:
		return componentHandlers[routeKey(i.MessageComponentData().CustomID)]
	case discordgo.InteractionModalSubmit:
		return modalHandlers[routeKey(i.ModalSubmitData().CustomID)]
	}
	return nil
}
