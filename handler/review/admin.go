package review

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/ledger"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

const adminPerm = discordgo.PermissionManageGuild

func actorOf(i *discordgo.InteractionCreate) ledger.Actor {
	a := ledger.Actor{Name: utils.DisplayName(i)}
	if u := utils.InteractionUser(i); u != nil {
		a.ID = u.ID
		a.AvatarURL = u.AvatarURL("")
	}
	return a
}

func setupCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_setup", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, adminPerm) {
			return
		}
		opts := handler.Options(i)
		slot := opts["slot"].StringValue()
		channel := opts["channel"].ChannelValue(s)

		if err := deps.Store.SetChannel(ctx, i.GuildID, slot, channel.ID); err != nil {
			utils.Logger().Error("failed to bind channel", zap.String("guild_id", i.GuildID), zap.String("slot", slot), zap.Error(err))
			handler.EditReplyf(s, i, "❌ 設定の保存に失敗しました: %v", err)
			return
		}
		label := "ログ"
		if slot != model.LogSlot {
			label = model.Category(slot).Label()
		}
		utils.Logger().Info("channel bound", zap.String("guild_id", i.GuildID), zap.String("slot", slot), zap.String("channel_id", channel.ID))
		deps.Ledger.Notify(ctx, i.GuildID, ledger.AuditEntry{
			Actor:   actorOf(i),
			Action:  "⚙️ チャンネル設定",
			Subject: label,
			Detail:  "<#" + channel.ID + ">",
		})
		handler.EditReplyf(s, i, "✅ %sの投稿先を <#%s> に設定しました。", label, channel.ID)
	})
}

func menuCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_menu", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, adminPerm) {
			return
		}
		if _, err := s.ChannelMessageSendComplex(i.ChannelID, panelMessage(), discordgo.WithContext(ctx)); err != nil {
			utils.Logger().Error("error sending panel message", zap.String("channel_id", i.ChannelID), zap.Error(err))
			handler.EditReplyf(s, i, "❌ パネルの設置に失敗しました: %v", err)
			return
		}
		handler.EditReply(s, i, "✅ 作品登録パネルを設置しました。")
	})
}

func deleteCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_delete", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, adminPerm) {
			return
		}
		opts := handler.Options(i)
		res, err := deps.Ledger.Delete(ctx, ledger.DeleteRequest{
			GuildID:  i.GuildID,
			Actor:    actorOf(i),
			Category: model.Category(opts["category"].StringValue()),
			Title:    opts["title"].StringValue(),
		})
		if err != nil {
			handler.EditReply(s, i, describeError(err))
			return
		}
		handler.EditReply(s, i, describeDelete(res))
	})
}

func purgeUserCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_purge_user", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, adminPerm) {
			return
		}
		opts := handler.Options(i)
		target := opts["user"].UserValue(nil)
		req := ledger.PurgeRequest{GuildID: i.GuildID, Actor: actorOf(i), SubmitterID: target.ID}
		if o, ok := opts["category"]; ok {
			req.Category = model.Category(o.StringValue())
		}

		n, err := deps.Ledger.PurgeSubmitter(ctx, req)
		if err != nil {
			utils.Logger().Warn("purge finished with errors", zap.String("user_id", target.ID), zap.Int("removed", n), zap.Error(err))
			handler.EditReplyf(s, i, "⚠️ <@%s> の登録を%d件削除しましたが、一部のページの更新に失敗しました。", target.ID, n)
			return
		}
		handler.EditReplyf(s, i, "🧹 <@%s> の登録を%d件削除しました。", target.ID, n)
	})
}

func blacklistCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_blacklist", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, adminPerm) {
			return
		}
		target := handler.Options(i)["user"].UserValue(nil)
		denied, err := deps.Store.ToggleDenied(ctx, i.GuildID, target.ID, utils.InteractionUserID(i))
		if err != nil {
			utils.Logger().Error("failed to toggle deny-list", zap.String("user_id", target.ID), zap.Error(err))
			handler.EditReplyf(s, i, "❌ NGユーザーの更新に失敗しました: %v", err)
			return
		}

		action, reply := "🔓 NGユーザー解除", fmt.Sprintf("🔓 <@%s> をNGユーザーから解除しました。", target.ID)
		if denied {
			action, reply = "🚫 NGユーザー追加", fmt.Sprintf("🚫 <@%s> をNGユーザーに追加しました。", target.ID)
		}
		deps.Ledger.Notify(ctx, i.GuildID, ledger.AuditEntry{Actor: actorOf(i), Action: action, Subject: "<@" + target.ID + ">"})
		handler.EditReply(s, i, reply)
	})
}

func privacyCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_privacy", func(ctx context.Context) {
		if !handler.RequireModerator(s, i, adminPerm) {
			return
		}
		track := handler.Options(i)["track"].BoolValue()
		if err := deps.Store.SetTrackSubmitters(ctx, i.GuildID, track); err != nil {
			handler.EditReplyf(s, i, "❌ 設定の保存に失敗しました: %v", err)
			return
		}
		if track {
			handler.EditReply(s, i, "👁️ 今後の登録では登録者を記録します。")
			return
		}
		handler.EditReply(s, i, "🙈 今後の登録では登録者を記録しません。既存の記録はそのまま残ります。")
	})
}
