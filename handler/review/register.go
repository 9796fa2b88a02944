package review

import (
	"time"

	"github.com/miyasty1919/discordmaidbot/command/def"
	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/utils"
)

var (
	deps   *handler.Deps
	drafts *utils.Cache[Draft]
	pages  *utils.Cache[lookupPages]
)

// RegisterHandlers registers all handlers for the review database. The
// returned function stops the draft and page caches.
func RegisterHandlers(d *handler.Deps) (stop func()) {
	deps = d
	drafts = utils.NewCache[Draft](15 * time.Minute)
	pages = utils.NewCache[lookupPages](10 * time.Minute)

	handler.AddCommandHandler(def.DBSetupCommand.Name, setupCommandHandler)
	handler.AddCommandHandler(def.DBMenuCommand.Name, menuCommandHandler)
	handler.AddCommandHandler(def.DBDeleteCommand.Name, deleteCommandHandler)
	handler.AddCommandHandler(def.DBPurgeUserCommand.Name, purgeUserCommandHandler)
	handler.AddCommandHandler(def.DBBlacklistCommand.Name, blacklistCommandHandler)
	handler.AddCommandHandler(def.DBPrivacyCommand.Name, privacyCommandHandler)
	handler.AddCommandHandler(def.DBLookupCommand.Name, lookupCommandHandler)

	// 登録フロー
	handler.AddComponentHandler(panelButtonPrefix, panelButtonHandler)
	handler.AddComponentHandler(subtypeSelectPrefix, draftSelectHandler)
	handler.AddComponentHandler(genreSelectPrefix, draftSelectHandler)
	handler.AddComponentHandler(tagsSelectPrefix, draftSelectHandler)
	handler.AddComponentHandler(ratingSelectPrefix, draftSelectHandler)
	handler.AddComponentHandler(nextButtonPrefix, nextButtonHandler)
	handler.AddComponentHandler(formButtonPrefix, formButtonHandler)
	handler.AddModalHandler(modalPrefix, modalSubmitHandler)

	handler.AddComponentHandler(pageButtonPrefix, pageButtonHandler)

	return func() {
		drafts.Stop()
		pages.Stop()
	}
}
