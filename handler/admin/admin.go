package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/command/def"
	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/utils"
)

// RegisterHandlers registers the moderation commands.
func RegisterHandlers() {
	handler.AddCommandHandler(def.PostCommand.Name, postCommandHandler)
	handler.AddCommandHandler(def.PurgeCommand.Name, purgeCommandHandler)
	handler.AddCommandHandler(def.KickCommand.Name, kickCommandHandler)
	handler.AddCommandHandler(def.BanCommand.Name, banCommandHandler)
	handler.AddCommandHandler(def.ServerInfoCommand.Name, serverInfoCommandHandler)
	handler.AddCommandHandler(def.SlowmodeCommand.Name, slowmodeCommandHandler)
}

func reasonOf(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	if o, ok := opts["reason"]; ok && o.StringValue() != "" {
		return o.StringValue()
	}
	return "理由なし"
}

func postCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "post", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionManageMessages) {
			return
		}
		opts := handler.Options(i)
		embed := &discordgo.MessageEmbed{
			Description: opts["content"].StringValue(),
			Color:       0xf1c40f,
		}
		if o, ok := opts["title"]; ok {
			embed.Title = o.StringValue()
		}
		if _, err := s.ChannelMessageSendEmbed(i.ChannelID, embed, discordgo.WithContext(ctx)); err != nil {
			handler.EditReplyf(s, i, "❌ 投稿に失敗しました: %v", err)
			return
		}
		handler.EditReply(s, i, "✅ 投稿しました。")
	})
}

// bulkDeletable drops messages older than the two week bulk-delete limit.
func bulkDeletable(msgs []*discordgo.Message, now time.Time) []string {
	cutoff := now.Add(-14*24*time.Hour + time.Minute)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.After(cutoff) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func purgeCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "purge", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionManageMessages) {
			return
		}
		amount := int(handler.Options(i)["amount"].IntValue())
		msgs, err := s.ChannelMessages(i.ChannelID, amount, "", "", "", discordgo.WithContext(ctx))
		if err != nil {
			handler.EditReplyf(s, i, "❌ メッセージを取得できませんでした: %v", err)
			return
		}
		ids := bulkDeletable(msgs, time.Now())
		switch len(ids) {
		case 0:
		case 1:
			err = s.ChannelMessageDelete(i.ChannelID, ids[0], discordgo.WithContext(ctx))
		default:
			err = s.ChannelMessagesBulkDelete(i.ChannelID, ids, discordgo.WithContext(ctx))
		}
		if err != nil {
			utils.Logger().Warn("purge failed", zap.String("channel_id", i.ChannelID), zap.Error(err))
			handler.EditReplyf(s, i, "❌ 削除に失敗しました: %v", err)
			return
		}
		handler.EditReplyf(s, i, "🧹 %d件のメッセージを削除しました。", len(ids))
	})
}

func kickCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "kick", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionKickMembers) {
			return
		}
		opts := handler.Options(i)
		target := opts["member"].UserValue(nil)
		reason := reasonOf(opts)
		if err := s.GuildMemberDeleteWithReason(i.GuildID, target.ID, reason, discordgo.WithContext(ctx)); err != nil {
			handler.EditReplyf(s, i, "❌ キックできませんでした: %v", err)
			return
		}
		utils.Logger().Info("member kicked", zap.String("user_id", target.ID), zap.String("by", utils.InteractionUserID(i)))
		handler.EditReplyf(s, i, "👢 <@%s> をキックしました。理由: %s", target.ID, reason)
	})
}

func banCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "ban", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionBanMembers) {
			return
		}
		opts := handler.Options(i)
		target := opts["member"].UserValue(nil)
		reason := reasonOf(opts)
		if err := s.GuildBanCreateWithReason(i.GuildID, target.ID, reason, 0, discordgo.WithContext(ctx)); err != nil {
			handler.EditReplyf(s, i, "❌ BANできませんでした: %v", err)
			return
		}
		utils.Logger().Info("member banned", zap.String("user_id", target.ID), zap.String("by", utils.InteractionUserID(i)))
		handler.EditReplyf(s, i, "🔨 <@%s> をBANしました。理由: %s", target.ID, reason)
	})
}

func serverInfoEmbed(g *discordgo.Guild) *discordgo.MessageEmbed {
	created, _ := discordgo.SnowflakeTimestamp(g.ID)
	embed := &discordgo.MessageEmbed{
		Title: "🏰 " + g.Name,
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "オーナー", Value: "<@" + g.OwnerID + ">", Inline: true},
			{Name: "メンバー数", Value: fmt.Sprint(max(g.MemberCount, g.ApproximateMemberCount)), Inline: true},
			{Name: "ロール数", Value: fmt.Sprint(len(g.Roles)), Inline: true},
			{Name: "作成日", Value: fmt.Sprintf("<t:%d:D>", created.Unix()), Inline: true},
		},
	}
	if g.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.IconURL("256")}
	}
	return embed
}

func serverInfoCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "server_info", func(ctx context.Context) {
		g, err := s.State.Guild(i.GuildID)
		if err != nil {
			if g, err = s.GuildWithCounts(i.GuildID, discordgo.WithContext(ctx)); err != nil {
				handler.EditReplyf(s, i, "❌ サーバー情報を取得できませんでした: %v", err)
				return
			}
		}
		embeds := []*discordgo.MessageEmbed{serverInfoEmbed(g)}
		s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	})
}

func slowmodeCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "slowmode", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionManageChannels) {
			return
		}
		secs := int(handler.Options(i)["seconds"].IntValue())
		_, err := s.ChannelEdit(i.ChannelID, &discordgo.ChannelEdit{RateLimitPerUser: &secs}, discordgo.WithContext(ctx))
		if err != nil {
			handler.EditReplyf(s, i, "❌ 設定できませんでした: %v", err)
			return
		}
		if secs == 0 {
			handler.EditReply(s, i, "🐇 低速モードを解除しました。")
			return
		}
		handler.EditReplyf(s, i, "🐢 低速モードを%d秒に設定しました。", secs)
	})
}
