package bot

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/miyasty1919/discordmaidbot/ledger"
)

// messagePageSize is the most messages Discord returns per history request.
const messagePageSize = 100

// restClient is the part of *discordgo.Session the messenger uses.
type restClient interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Messenger stores ledger containers as embeds in Discord channels.
type Messenger struct {
	rest  restClient
	color int
}

// NewMessenger wraps a discordgo session.
func NewMessenger(rest restClient) *Messenger {
	return &Messenger{rest: rest, color: 0x3498db}
}

var noMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}

// RecentMessages pages backwards through the channel history.
func (m *Messenger) RecentMessages(ctx context.Context, channelID string, limit int) ([]ledger.Message, error) {
	out := make([]ledger.Message, 0, limit)
	before := ""
	for len(out) < limit {
		n := min(limit-len(out), messagePageSize)
		page, err := m.rest.ChannelMessages(channelID, n, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapError(err)
		}
		for _, msg := range page {
			out = append(out, toMessage(msg))
		}
		if len(page) < n {
			break
		}
		before = page[len(page)-1].ID
	}
	return out, nil
}

func toMessage(msg *discordgo.Message) ledger.Message {
	out := ledger.Message{ID: msg.ID}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	if len(msg.Embeds) > 0 {
		out.Title = msg.Embeds[0].Title
		out.Body = msg.Embeds[0].Description
	}
	return out
}

func (m *Messenger) embed(title, body string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: body, Color: m.color}
}

func (m *Messenger) SendContainer(ctx context.Context, channelID, title, body string) (string, error) {
	msg, err := m.rest.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{m.embed(title, body)},
		AllowedMentions: noMentions,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return msg.ID, nil
}

func (m *Messenger) EditContainer(ctx context.Context, channelID, messageID, title, body string) error {
	embeds := []*discordgo.MessageEmbed{m.embed(title, body)}
	_, err := m.rest.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:              messageID,
		Channel:         channelID,
		Embeds:          &embeds,
		AllowedMentions: noMentions,
	}, discordgo.WithContext(ctx))
	return mapError(err)
}

func (m *Messenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return mapError(m.rest.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

// mapError turns discordgo failures into ledger errors: vanished messages
// and channels are NotFound, everything else TransientIO.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil {
			switch rest.Message.Code {
			case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
				return ledger.ErrNotFound.WithCause(err)
			}
		}
		if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return ledger.ErrNotFound.WithCause(err)
		}
	}
	return ledger.ErrTransientIO.WithCause(err)
}
