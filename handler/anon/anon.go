package anon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/command/def"
	"github.com/miyasty1919/discordmaidbot/config"
	"github.com/miyasty1919/discordmaidbot/db"
	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

const (
	postButtonPrefix = "anon_post"
	modalPrefix      = "anon_modal"
	contentInputID   = "content"
	webhookName      = "ProxyWebhook"
)

var deps *handler.Deps

// RegisterHandlers registers the anonymous posting handlers.
func RegisterHandlers(d *handler.Deps) {
	deps = d
	handler.AddCommandHandler(def.AnonPanelCommand.Name, panelCommandHandler)
	handler.AddCommandHandler(def.PostLogCommand.Name, postLogCommandHandler)
	handler.AddComponentHandler(postButtonPrefix, postButtonHandler)
	handler.AddModalHandler(modalPrefix, modalSubmitHandler)
}

func parseArgs(customID string) (model.AnonMode, model.AnonKind, bool) {
	args := handler.CustomIDArgs(customID)
	if len(args) != 2 {
		return "", "", false
	}
	mode, kind := model.AnonMode(args[0]), model.AnonKind(args[1])
	if mode != model.AnonModeAnonymous && mode != model.AnonModeProxy {
		return "", "", false
	}
	if kind != model.AnonKindText && kind != model.AnonKindImage {
		return "", "", false
	}
	return mode, kind, true
}

func panelMessage(mode model.AnonMode, kind model.AnonKind) *discordgo.MessageSend {
	who := "匿名"
	if mode == model.AnonModeProxy {
		who = "代理投稿"
	}
	what, color, label, style := "雑談", 0x2ecc71, "✍️ 書き込む", discordgo.SuccessButton
	if kind == model.AnonKindImage {
		what, color, label, style = "画像掲示板", 0x3498db, "🖼️ 画像をアップ", discordgo.PrimaryButton
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🎭 " + who + what,
			Description: "ご主人様、こちらからお手紙をお送りくださいませ。",
			Color:       color,
		}},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    label,
				Style:    style,
				CustomID: fmt.Sprintf("%s:%s:%s", postButtonPrefix, mode, kind),
			},
		}}},
	}
}

// sendPanel posts a fresh panel at the bottom of the channel, removing the
// previous one.
func sendPanel(ctx context.Context, s *discordgo.Session, channelID string, mode model.AnonMode, kind model.AnonKind) error {
	if old, err := deps.Store.AnonPanel(ctx, channelID); err != nil {
		return err
	} else if old != nil {
		if err := s.ChannelMessageDelete(channelID, old.MessageID, discordgo.WithContext(ctx)); err != nil {
			utils.Logger().Debug("old panel already gone", zap.String("message_id", old.MessageID), zap.Error(err))
		}
	}
	msg, err := s.ChannelMessageSendComplex(channelID, panelMessage(mode, kind), discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	return deps.Store.SaveAnonPanel(ctx, model.AnonPanel{ChannelID: channelID, MessageID: msg.ID, Mode: mode, Kind: kind})
}

func panelCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "anon_panel", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionManageGuild) {
			return
		}
		opts := handler.Options(i)
		mode := model.AnonMode(opts["mode"].StringValue())
		kind := model.AnonKind(opts["kind"].StringValue())
		if err := sendPanel(ctx, s, i.ChannelID, mode, kind); err != nil {
			utils.Logger().Error("failed to set up anon panel", zap.String("channel_id", i.ChannelID), zap.Error(err))
			handler.EditReplyf(s, i, "❌ パネルの設置に失敗しました: %v", err)
			return
		}
		handler.EditReply(s, i, "✅ 投稿パネルを設置しましたわ。")
	})
}

// cooldownLeft returns how long the user still has to wait.
func cooldownLeft(last, now time.Time, cooldown time.Duration) time.Duration {
	if last.IsZero() {
		return 0
	}
	if left := cooldown - now.Sub(last); left > 0 {
		return left
	}
	return 0
}

func postButtonHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	mode, kind, ok := parseArgs(i.MessageComponentData().CustomID)
	if !ok {
		handler.RespondEphemeral(s, i, "❌ 不正なパネルです。")
		return
	}
	cfg := config.Get().Anon

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	last, err := deps.Store.LastAnonPostAt(ctx, i.GuildID, utils.InteractionUserID(i))
	if err != nil {
		utils.Logger().Warn("cooldown lookup failed", zap.Error(err))
	}
	if left := cooldownLeft(last, time.Now(), cfg.Cooldown); left > 0 {
		handler.RespondEphemeral(s, i, fmt.Sprintf("⏳ 連続投稿はできませんわ。あと%d秒お待ちくださいませ。", int(left.Seconds())+1))
		return
	}

	input := discordgo.TextInput{
		CustomID:  contentInputID,
		Label:     "メッセージ内容",
		Style:     discordgo.TextInputParagraph,
		Required:  true,
		MaxLength: cfg.MaxLength,
	}
	if kind == model.AnonKindImage {
		input.Label = "画像URL"
		input.Style = discordgo.TextInputShort
		input.MaxLength = 512
	}
	title := "匿名投稿"
	if mode == model.AnonModeProxy {
		title = "代理投稿"
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   fmt.Sprintf("%s:%s:%s", modalPrefix, mode, kind),
			Title:      title,
			Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}},
		},
	})
	if err != nil {
		utils.Logger().Error("failed to open anon modal", zap.Error(err))
	}
}

// posterName is the webhook username shown on a relayed post.
func posterName(postID int64, mode model.AnonMode, displayName string) string {
	if mode == model.AnonModeProxy {
		return utils.Truncate(fmt.Sprintf("%d | %s", postID, displayName), 80)
	}
	return strconv.FormatInt(postID, 10)
}

func validImageURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

func channelWebhook(ctx context.Context, s *discordgo.Session, channelID string) (*discordgo.Webhook, error) {
	hooks, err := s.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for _, h := range hooks {
		if h.Name == webhookName && h.Token != "" {
			return h, nil
		}
	}
	return s.WebhookCreate(channelID, webhookName, "", discordgo.WithContext(ctx))
}

func modalSubmitHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	mode, kind, ok := parseArgs(i.ModalSubmitData().CustomID)
	if !ok || !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "anon_post", func(ctx context.Context) {
		cfg := config.Get().Anon
		content := strings.TrimSpace(handler.ModalValues(i)[contentInputID])
		if content == "" {
			handler.EditReply(s, i, "❌ 内容が空ですわ。")
			return
		}
		if kind == model.AnonKindImage && !validImageURL(content) {
			handler.EditReply(s, i, "❌ 画像のURLを入力してくださいませ。")
			return
		}
		if kind == model.AnonKindText && len([]rune(content)) > cfg.MaxLength {
			handler.EditReplyf(s, i, "❌ %d文字以内でお願いいたしますわ。", cfg.MaxLength)
			return
		}

		user := utils.InteractionUser(i)
		postID, err := deps.Store.RecordAnonPost(ctx, model.AnonPost{
			GuildID:   i.GuildID,
			ChannelID: i.ChannelID,
			UserID:    user.ID,
			UserTag:   user.String(),
			Mode:      mode,
			Kind:      kind,
		})
		if err != nil {
			utils.Logger().Error("failed to record anon post", zap.Error(err))
			handler.EditReply(s, i, "❌ 投稿に失敗しましたわ。")
			return
		}
		utils.Logger().Info("anon post",
			zap.Int64("post_id", postID),
			zap.String("guild_id", i.GuildID),
			zap.String("user_id", user.ID),
			zap.String("mode", string(mode)))

		hook, err := channelWebhook(ctx, s, i.ChannelID)
		if err != nil {
			utils.Logger().Error("failed to get webhook", zap.String("channel_id", i.ChannelID), zap.Error(err))
			handler.EditReply(s, i, "❌ Webhookを用意できませんでしたわ。ボットの権限をご確認くださいませ。")
			return
		}

		params := &discordgo.WebhookParams{
			Username:        posterName(postID, mode, utils.DisplayName(i)),
			AvatarURL:       cfg.DefaultAvatar,
			AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
		}
		if mode == model.AnonModeProxy {
			params.AvatarURL = user.AvatarURL("")
		}
		if kind == model.AnonKindImage {
			params.Embeds = []*discordgo.MessageEmbed{{Color: 0x2f3136, Image: &discordgo.MessageEmbedImage{URL: content}}}
		} else {
			params.Content = content
		}
		if _, err := s.WebhookExecute(hook.ID, hook.Token, true, params, discordgo.WithContext(ctx)); err != nil {
			utils.Logger().Error("failed to relay anon post", zap.Int64("post_id", postID), zap.Error(err))
			handler.EditReply(s, i, "❌ 投稿に失敗しましたわ。")
			return
		}

		if err := sendPanel(ctx, s, i.ChannelID, mode, kind); err != nil {
			utils.Logger().Warn("failed to move anon panel", zap.String("channel_id", i.ChannelID), zap.Error(err))
		}
		handler.EditReply(s, i, "投稿完了いたしましたわ、ご主人様。")
	})
}

func postLogCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "post_log", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, discordgo.PermissionManageGuild) {
			return
		}
		postID := handler.Options(i)["post_id"].IntValue()
		p, err := deps.Store.AnonPost(ctx, i.GuildID, postID)
		if errors.Is(err, db.ErrNoRows) {
			handler.EditReplyf(s, i, "🔍 投稿番号 %d は見つかりませんわ。", postID)
			return
		}
		if err != nil {
			handler.EditReplyf(s, i, "❌ 検索に失敗しましたわ: %v", err)
			return
		}
		mode := "匿名"
		if p.Mode == model.AnonModeProxy {
			mode = "代理"
		}
		handler.EditReplyf(s, i, "📜 投稿 %d: <@%s> (%s) [%s] <t:%d:f>", p.PostID, p.UserID, p.UserTag, mode, p.CreatedAt.Unix())
	})
}
