package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/catalog"
	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/ledger"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

const (
	panelButtonPrefix   = "db_panel"
	subtypeSelectPrefix = "db_sub"
	genreSelectPrefix   = "db_genre"
	tagsSelectPrefix    = "db_tags"
	ratingSelectPrefix  = "db_rating"
	nextButtonPrefix    = "db_next"
	formButtonPrefix    = "db_form"
	modalPrefix         = "db_modal"

	titleInputID  = "title"
	authorInputID = "author"

	maxTags = 5
)

// Draft is a registration in progress, kept between the select steps.
type Draft struct {
	GuildID  string
	UserID   string
	Category model.Category
	Subtype  string
	Genre    string
	Tags     []string
	Rating   string
}

// apply records the values of one select menu.
func (d *Draft) apply(prefix string, values []string) {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	switch prefix {
	case subtypeSelectPrefix:
		d.Subtype = first
	case genreSelectPrefix:
		d.Genre = first
	case tagsSelectPrefix:
		d.Tags = append([]string(nil), values...)
	case ratingSelectPrefix:
		d.Rating = first
	}
}

func (d Draft) record(title, author string) model.Record {
	return model.Record{
		Category:    d.Category,
		Subtype:     d.Subtype,
		Genre:       d.Genre,
		Title:       title,
		Author:      author,
		Rating:      d.Rating,
		Tags:        d.Tags,
		SubmitterID: d.UserID,
		CreatedAt:   time.Now(),
	}
}

func panelMessage() *discordgo.MessageSend {
	buttons := make([]discordgo.MessageComponent, 0, len(model.Categories))
	for _, c := range model.Categories {
		buttons = append(buttons, discordgo.Button{
			Label:    c.Label(),
			Style:    discordgo.PrimaryButton,
			CustomID: panelButtonPrefix + ":" + string(c),
		})
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📚 作品データベース",
			Description: "おすすめの作品を登録しましょう！\n下のボタンからカテゴリーを選んでください。",
			Color:       0x5865F2,
		}},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	}
}

func selectMenu(prefix, draftID, placeholder string, opts []catalog.Option, maxValues int) discordgo.ActionsRow {
	menuOpts := make([]discordgo.SelectMenuOption, 0, len(opts))
	for _, o := range opts {
		so := discordgo.SelectMenuOption{Label: o.Label, Value: o.Key()}
		if o.Emoji != "" {
			so.Emoji = &discordgo.ComponentEmoji{Name: o.Emoji}
		}
		menuOpts = append(menuOpts, so)
	}
	minValues := 1
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			CustomID:    prefix + ":" + draftID,
			Placeholder: placeholder,
			MinValues:   &minValues,
			MaxValues:   maxValues,
			Options:     menuOpts,
		},
	}}
}

func stepOne(draftID string, c model.Category) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Flags:   discordgo.MessageFlagsEphemeral,
		Content: fmt.Sprintf("**%s** の登録 (1/2)\n種類とジャンルを選んでください。", c.Label()),
		Components: []discordgo.MessageComponent{
			selectMenu(subtypeSelectPrefix, draftID, "種類を選択", deps.Catalog.Subtypes[c], 1),
			selectMenu(genreSelectPrefix, draftID, "ジャンルを選択", deps.Catalog.Genres, 1),
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "次へ", Style: discordgo.SuccessButton, CustomID: nextButtonPrefix + ":" + draftID},
			}},
		},
	}
}

func stepTwo(draftID string, c model.Category) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Flags:   discordgo.MessageFlagsEphemeral,
		Content: fmt.Sprintf("**%s** の登録 (2/2)\nタグ (最大%d個・任意) と評価を選んでください。", c.Label(), maxTags),
		Components: []discordgo.MessageComponent{
			tagsMenu(draftID),
			selectMenu(ratingSelectPrefix, draftID, "評価を選択", deps.Catalog.Ratings, 1),
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "タイトルを入力", Style: discordgo.SuccessButton, CustomID: formButtonPrefix + ":" + draftID},
			}},
		},
	}
}

func tagsMenu(draftID string) discordgo.ActionsRow {
	row := selectMenu(tagsSelectPrefix, draftID, "タグを選択 (任意)", deps.Catalog.Tags, maxTags)
	menu := row.Components[0].(discordgo.SelectMenu)
	zero := 0
	menu.MinValues = &zero
	row.Components[0] = menu
	return row
}

func panelButtonHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	args := handler.CustomIDArgs(i.MessageComponentData().CustomID)
	if len(args) != 1 || !model.Category(args[0]).Valid() {
		handler.RespondEphemeral(s, i, "❌ 不明なカテゴリーです。")
		return
	}
	c := model.Category(args[0])
	id := drafts.Add(Draft{GuildID: i.GuildID, UserID: utils.InteractionUserID(i), Category: c})

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: stepOne(id, c),
	})
	if err != nil {
		utils.Logger().Error("failed to open registration", zap.String("category", string(c)), zap.Error(err))
	}
}

// ownDraft returns the draft named by the custom ID if it belongs to the
// invoking user, answering the interaction otherwise.
func ownDraft(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) (string, Draft, bool) {
	args := handler.CustomIDArgs(customID)
	if len(args) != 1 {
		handler.RespondEphemeral(s, i, "❌ 不正な操作です。")
		return "", Draft{}, false
	}
	d, ok := drafts.Get(args[0])
	if !ok || d.UserID != utils.InteractionUserID(i) {
		handler.RespondEphemeral(s, i, "⌛ 登録の有効期限が切れました。パネルからやり直してください。")
		return "", Draft{}, false
	}
	return args[0], d, true
}

// takeOwnDraft claims a draft for submission. Drafts of other users are
// left untouched.
func takeOwnDraft(id, userID string) (Draft, bool) {
	return drafts.TakeIf(id, func(d Draft) bool { return d.UserID == userID })
}

func draftSelectHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	id, d, ok := ownDraft(s, i, data.CustomID)
	if !ok {
		return
	}
	prefix, _, _ := strings.Cut(data.CustomID, ":")
	d.apply(prefix, data.Values)
	drafts.Set(id, d)
	handler.DeferUpdate(s, i)
}

func nextButtonHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, d, ok := ownDraft(s, i, i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	if d.Subtype == "" || d.Genre == "" {
		handler.RespondEphemeral(s, i, "⚠️ 種類とジャンルを選んでください。")
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: stepTwo(id, d.Category),
	})
	if err != nil {
		utils.Logger().Error("failed to show second step", zap.Error(err))
	}
}

func formButtonHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, d, ok := ownDraft(s, i, i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	if d.Rating == "" {
		handler.RespondEphemeral(s, i, "⚠️ 評価を選んでください。")
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalPrefix + ":" + id,
			Title:    d.Category.Label() + "の登録",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  titleInputID,
						Label:     "作品タイトル",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 100,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    authorInputID,
						Label:       "作者名 (任意)",
						Style:       discordgo.TextInputShort,
						Required:    false,
						MaxLength:   100,
						Placeholder: ledger.UnknownAuthor,
					},
				}},
			},
		},
	})
	if err != nil {
		utils.Logger().Error("failed to open registration modal", zap.Error(err))
	}
}

func modalSubmitHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID
	args := handler.CustomIDArgs(customID)
	if len(args) != 1 {
		return
	}
	if !handler.DeferEphemeral(s, i) {
		return
	}
	handler.Async(s, i, "db_modal", func(ctx context.Context) {
		d, ok := takeOwnDraft(args[0], utils.InteractionUserID(i))
		if !ok {
			handler.EditReply(s, i, "⌛ 登録の有効期限が切れました。パネルからやり直してください。")
			return
		}
		values := handler.ModalValues(i)
		rec := d.record(values[titleInputID], values[authorInputID]).Normalize()

		if err := deps.Catalog.CheckRecord(rec); err != nil {
			utils.Logger().Warn("registration rejected by catalog", zap.String("user_id", d.UserID), zap.Error(err))
			handler.EditReply(s, i, "❌ 選択内容が不正です。パネルからやり直してください。")
			return
		}
		if err := rec.Validate(); err != nil {
			handler.EditReply(s, i, "❌ タイトルは1〜100文字で入力してください。")
			return
		}

		res, err := deps.Ledger.Add(ctx, ledger.AddRequest{GuildID: d.GuildID, Actor: actorOf(i), Record: rec})
		if err != nil {
			if ledger.KindOf(err) == ledger.KindRateLimited {
				// Let the user resubmit without going through the selects again.
				drafts.Set(args[0], d)
			}
			handler.EditReply(s, i, describeError(err))
			return
		}
		handler.EditReply(s, i, describeAdd(d.GuildID, res, d.Category))
	})
}
