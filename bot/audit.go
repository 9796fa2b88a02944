package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/miyasty1919/discordmaidbot/ledger"
	"github.com/miyasty1919/discordmaidbot/utils"
)

type auditClient interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// AuditLog posts ledger operation logs as embeds.
type AuditLog struct {
	rest auditClient
}

func NewAuditLog(rest auditClient) *AuditLog {
	return &AuditLog{rest: rest}
}

func auditEmbed(e ledger.AuditEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     e.Action,
		Color:     0x95a5a6,
		Timestamp: e.At.Format(time.RFC3339),
		Author:    &discordgo.MessageEmbedAuthor{Name: e.Actor.Name, IconURL: e.Actor.AvatarURL},
		Footer:    &discordgo.MessageEmbedFooter{Text: "User ID: " + e.Actor.ID},
	}
	if e.Subject != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "対象", Value: utils.Truncate(e.Subject, 1024)})
	}
	if e.Detail != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "詳細", Value: utils.Truncate(e.Detail, 1024)})
	}
	return embed
}

func (a *AuditLog) Audit(ctx context.Context, channelID string, e ledger.AuditEntry) error {
	_, err := a.rest.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{auditEmbed(e)},
		AllowedMentions: noMentions,
	}, discordgo.WithContext(ctx))
	return err
}
