package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/ledger"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

const (
	pageButtonPrefix = "db_page"
	hitsPerPage      = 5
	maxPages         = 20
)

// lookupPages is a cached lookup result browsed with the page buttons.
type lookupPages struct {
	UserID        string
	GuildID       string
	Query         string
	Hits          []ledger.Hit
	ShowSubmitter bool
}

func (p lookupPages) pageCount() int {
	n := (len(p.Hits) + hitsPerPage - 1) / hitsPerPage
	return min(max(n, 1), maxPages)
}

func lookupCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_lookup", func(ctx context.Context) {
		req, query, ok := lookupRequest(i)
		if !ok {
			handler.EditReply(s, i, "❌ この操作を行う権限がありません。")
			return
		}

		hits, err := deps.Ledger.Lookup(ctx, req)
		if err != nil {
			handler.EditReply(s, i, describeError(err))
			return
		}
		if len(hits) == 0 {
			handler.EditReply(s, i, "🔍 該当する作品が見つかりませんでした。")
			return
		}

		p := lookupPages{
			UserID:        utils.InteractionUserID(i),
			GuildID:       i.GuildID,
			Query:         query,
			Hits:          hits,
			ShowSubmitter: utils.IsModerator(i, adminPerm),
		}
		id := pages.Add(p)
		embed, components := renderPage(id, p, 0)
		_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds:     &[]*discordgo.MessageEmbed{embed},
			Components: &components,
		})
		if err != nil {
			utils.Logger().Warn("failed to send lookup results", zap.Error(err))
		}
	})
}

// lookupRequest reads the command options. Filtering by another member's
// submissions reveals authorship, so only moderators may do it.
func lookupRequest(i *discordgo.InteractionCreate) (ledger.LookupRequest, string, bool) {
	opts := handler.Options(i)
	req := ledger.LookupRequest{GuildID: i.GuildID}
	var query []string
	if o, ok := opts["category"]; ok {
		req.Category = model.Category(o.StringValue())
		query = append(query, req.Category.Label())
	}
	if o, ok := opts["title"]; ok {
		req.Title = o.StringValue()
		query = append(query, "「"+req.Title+"」")
	}
	if o, ok := opts["user"]; ok {
		req.SubmitterID = o.UserValue(nil).ID
		if req.SubmitterID != utils.InteractionUserID(i) && !utils.IsModerator(i, adminPerm) {
			return req, "", false
		}
		query = append(query, "<@"+req.SubmitterID+">")
	}
	return req, strings.Join(query, " "), true
}

func pageButtonHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	args := handler.CustomIDArgs(i.MessageComponentData().CustomID)
	if len(args) != 2 {
		return
	}
	p, ok := pages.Get(args[0])
	if !ok || p.UserID != utils.InteractionUserID(i) {
		handler.RespondEphemeral(s, i, "⌛ 検索結果の有効期限が切れました。もう一度検索してください。")
		return
	}
	page, err := strconv.Atoi(args[1])
	if err != nil {
		return
	}
	embed, components := renderPage(args[0], p, page)
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// renderPage builds one page of results; page is clamped into range.
func renderPage(id string, p lookupPages, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	total := p.pageCount()
	page = min(max(page, 0), total-1)
	start := page * hitsPerPage
	end := min(start+hitsPerPage, len(p.Hits))

	title := "🔍 検索結果"
	if p.Query != "" {
		title += ": " + p.Query
	}
	embed := &discordgo.MessageEmbed{
		Title:       utils.Truncate(title, 256),
		Description: fmt.Sprintf("%d件見つかりました (%d / %d ページ)", len(p.Hits), page+1, total),
		Color:       0x5865F2,
	}
	for _, h := range p.Hits[start:end] {
		value := fmt.Sprintf("👤 %s ｜ %s ｜ 🏷️ %s", h.Entry.Author, h.Entry.Rating, h.Entry.Genre)
		if len(h.Entry.Tags) > 0 {
			value += "\n💭 " + strings.Join(h.Entry.Tags, " ")
		}
		if p.ShowSubmitter && h.SubmitterID != "" {
			value += "\n📝 登録者: <@" + h.SubmitterID + ">"
		}
		value += fmt.Sprintf("\n[ページを開く](%s)", messageLink(p.GuildID, h.ChannelID, h.MessageID))
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  utils.Truncate(fmt.Sprintf("%s / %s ｜ %s", h.Category.Label(), h.Section, h.Entry.Title), 256),
			Value: utils.Truncate(value, 1024),
		})
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "前へ",
				Style:    discordgo.PrimaryButton,
				CustomID: fmt.Sprintf("%s:%s:%d", pageButtonPrefix, id, page-1),
				Disabled: page == 0,
			},
			discordgo.Button{
				Label:    "次へ",
				Style:    discordgo.PrimaryButton,
				CustomID: fmt.Sprintf("%s:%s:%d", pageButtonPrefix, id, page+1),
				Disabled: page >= total-1,
			},
		}},
	}
	return embed, components
}
