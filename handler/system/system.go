// Package system posts the welcome and startup notices and answers /read.
package system

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/command/def"
	"github.com/miyasty1919/discordmaidbot/config"
	"github.com/miyasty1919/discordmaidbot/db"
	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

const versionKey = "version"

// RegisterHandlers registers /read.
func RegisterHandlers() {
	handler.AddCommandHandler(def.ReadCommand.Name, readCommandHandler)
}

func welcomeEmbed(m *discordgo.Member) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔔 ご主人様のご帰宅です！",
		Description: "お帰りなさいませ、ご主人様！🎀\n今日も一日お疲れ様でした！",
		Color:       0xe91e63,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: m.AvatarURL("256")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "お名前", Value: m.Mention(), Inline: true},
			{Name: "会員番号 (ID)", Value: "`" + m.User.ID + "`", Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "ゆっくりしていってくださいね！☕"},
	}
}

// OnMemberAdd greets a new member in the welcome channel.
func OnMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	channelID := config.Get().System.WelcomeChannelID
	if channelID == "" || m.User == nil || m.User.Bot {
		return
	}
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         m.Mention() + " 様、いらっしゃいませ！",
		Embeds:          []*discordgo.MessageEmbed{welcomeEmbed(m.Member)},
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{m.User.ID}},
	})
	if err != nil {
		utils.Logger().Warn("failed to send welcome", zap.String("user_id", m.User.ID), zap.Error(err))
	}
}

// startupMessage picks the notice for this start and reports whether the
// stored version should be bumped.
func startupMessage(sys model.SystemConfig, lastVersion string, pick func(int) int) (string, bool) {
	if lastVersion != sys.Version {
		return fmt.Sprintf("🎉 **アップデート完了 (ver %s)** 🎉\n%s", sys.Version, sys.UpdateNote), true
	}
	if len(sys.StartupMessages) == 0 {
		return "", false
	}
	return sys.StartupMessages[pick(len(sys.StartupMessages))], false
}

// AnnounceStartup posts the update note once per version, or a greeting.
func AnnounceStartup(ctx context.Context, s *discordgo.Session, store *db.Store) {
	sys := config.Get().System
	if sys.StartupChannelID == "" {
		return
	}
	logger := utils.Logger().With(zap.String("channel_id", sys.StartupChannelID))
	last, err := store.Meta(ctx, versionKey)
	if err != nil {
		logger.Warn("failed to read stored version", zap.Error(err))
		return
	}
	msg, bump := startupMessage(sys, last, rand.Intn)
	if msg == "" {
		return
	}
	if _, err := s.ChannelMessageSend(sys.StartupChannelID, msg, discordgo.WithContext(ctx)); err != nil {
		logger.Warn("failed to send startup notice", zap.Error(err))
		return
	}
	if bump {
		if err := store.SetMeta(ctx, versionKey, sys.Version); err != nil {
			logger.Warn("failed to store version", zap.Error(err))
		}
	}
}

func helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📖 メイドBot 取扱説明書",
		Description: "ご主人様、こちらができることの一覧です！✨",
		Color:       0xf1c40f,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📚 作品データベース (`/db_menu`)", Value: "視聴・閲覧した作品を記録できます！ボタンで媒体を選んで入力してください。"},
			{Name: "🔍 作品検索 (`/db_lookup`)", Value: "登録済みの作品をタイトルで探せます。"},
			{Name: "🎭 匿名投稿 (`/anon_panel`)", Value: "パネルのボタンから名前を隠して投稿できます。"},
			{Name: "🏷️ ロールパネル (`/role_panel`)", Value: "ボタンでロールを付け外しできます。"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "困ったときはメイドにお任せください！🎀"},
	}
}

func readCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{helpEmbed()}},
	})
	if err != nil {
		utils.Logger().Warn("failed to answer /read", zap.Error(err))
	}
}
