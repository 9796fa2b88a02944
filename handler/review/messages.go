package review

import (
	"errors"
	"fmt"
	"math"

	"github.com/miyasty1919/discordmaidbot/ledger"
	"github.com/miyasty1919/discordmaidbot/model"
)

// describeError turns a failed ledger operation into the reply shown to the
// user.
func describeError(err error) string {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		return "❌ 処理中にエラーが発生しました。"
	}
	switch lerr.Kind {
	case ledger.KindForbidden:
		return "🚫 あなたは現在、作品を登録できません。"
	case ledger.KindRateLimited:
		secs := int(math.Ceil(lerr.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("⏳ 連続登録の上限に達しました。%d秒後にもう一度お試しください。", secs)
	case ledger.KindNotFound:
		return "🔍 該当する作品が見つかりませんでした。"
	case ledger.KindCapacityExceeded:
		return "📏 内容が長すぎて登録できません。タイトルやタグを短くしてください。"
	case ledger.KindNotConfigured:
		return "⚙️ このカテゴリーの投稿先チャンネルが設定されていません。管理者に連絡してください。"
	case ledger.KindTransientIO:
		return "⚠️ Discordとの通信に失敗しました。しばらくしてから再度お試しください。"
	}
	return "❌ 処理中にエラーが発生しました。"
}

func describeAdd(guildID string, r *ledger.Result, c model.Category) string {
	link := messageLink(guildID, r.ChannelID, r.MessageID)
	if r.Created {
		return fmt.Sprintf("✅ 「%s」を%sコレクションに登録しました。(新しいページを作成) %s", r.Entry.Title, c.Label(), link)
	}
	return fmt.Sprintf("✅ 「%s」を%sコレクションに登録しました。 %s", r.Entry.Title, c.Label(), link)
}

func describeDelete(r *ledger.Result) string {
	if r.Deleted {
		return fmt.Sprintf("🗑️ 「%s」を削除しました。(空になったページも削除)", r.Entry.Title)
	}
	return fmt.Sprintf("🗑️ 「%s」を削除しました。", r.Entry.Title)
}

func messageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
