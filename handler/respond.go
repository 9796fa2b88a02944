package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/utils"
)

// Timeout bounds the background work of one interaction.
const Timeout = 30 * time.Second

// DeferEphemeral acknowledges i with a private "thinking" response. It must
// run within the platform's three second window.
func DeferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	return deferResponse(s, i, discordgo.InteractionResponseDeferredChannelMessageWithSource)
}

// DeferUpdate acknowledges a component interaction without a new message.
func DeferUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	return deferResponse(s, i, discordgo.InteractionResponseDeferredMessageUpdate)
}

func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, typ discordgo.InteractionResponseType) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: typ,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		utils.Logger().Error("error sending deferred response", zap.String("interaction_id", i.ID), zap.Error(err))
		return false
	}
	return true
}

// Async runs fn in a goroutine with a bounded context. A panic is logged and
// reported to the user through the deferred response.
func Async(s *discordgo.Session, i *discordgo.InteractionCreate, name string, fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), Timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				utils.Logger().Error("panic in interaction handler",
					zap.String("handler", name),
					zap.Any("panic", r),
					zap.Stack("stack"))
				EditReply(s, i, "❌ 内部エラーが発生しました。")
			}
		}()
		fn(ctx)
	}()
}

// EditReply replaces the content of the deferred response.
func EditReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: utils.StringPtr(content),
	})
	if err != nil {
		utils.Logger().Warn("failed to edit interaction response", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

// EditReplyf is EditReply with formatting.
func EditReplyf(s *discordgo.Session, i *discordgo.InteractionCreate, format string, args ...any) {
	EditReply(s, i, fmt.Sprintf(format, args...))
}

// RespondEphemeral answers immediately with a private message.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		utils.Logger().Warn("failed to respond", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

// Options indexes the top-level options of a slash command by name.
func Options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// ModalValues collects the text inputs of a modal submission by custom ID.
func ModalValues(i *discordgo.InteractionCreate) map[string]string {
	out := make(map[string]string)
	for _, row := range i.ModalSubmitData().Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok {
				out[ti.CustomID] = ti.Value
			}
		}
	}
	return out
}

// RequireModerator checks perm (or configured admin access) and reports a
// refusal through the deferred response.
func RequireModerator(s *discordgo.Session, i *discordgo.InteractionCreate, perm int64) bool {
	if utils.IsModerator(i, perm) {
		return true
	}
	EditReply(s, i, "❌ この操作を行う権限がありません。")
	return false
}
