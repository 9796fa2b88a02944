package handler

import (
	"github.com/miyasty1919/discordmaidbot/catalog"
	"github.com/miyasty1919/discordmaidbot/db"
	"github.com/miyasty1919/discordmaidbot/ledger"
)

// Deps are the services interaction handlers work with.
type Deps struct {
	Store   *db.Store
	Ledger  *ledger.Service
	Catalog *catalog.Catalog
}
