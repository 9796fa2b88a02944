// Package bot wires the Discord session to the ledger, the store and the
// interaction handlers.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/catalog"
	"github.com/miyasty1919/discordmaidbot/command"
	"github.com/miyasty1919/discordmaidbot/db"
	"github.com/miyasty1919/discordmaidbot/handler"
	"github.com/miyasty1919/discordmaidbot/handler/admin"
	"github.com/miyasty1919/discordmaidbot/handler/anon"
	"github.com/miyasty1919/discordmaidbot/handler/review"
	"github.com/miyasty1919/discordmaidbot/handler/roles"
	"github.com/miyasty1919/discordmaidbot/handler/system"
	"github.com/miyasty1919/discordmaidbot/ledger"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

// Bot owns the Discord session and everything hanging off it.
type Bot struct {
	session *discordgo.Session
	store   *db.Store
	ledger  *ledger.Service
	limiter *utils.KeyedRateLimiter
	logger  *zap.Logger

	appID       string
	stops       []func()
	startupOnce sync.Once
}

// New opens the database and a REST-only session. Nothing is registered
// with the gateway until Open.
func New(ctx context.Context, cfg model.Config, logger *zap.Logger) (*Bot, error) {
	store, err := db.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("创建 Discord 会话时出错: %w", err)
	}
	me, err := dg.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to fetch bot user: %w", err)
	}

	lc := cfg.Ledger
	key, err := markerKey(ctx, store, lc.MarkerKey)
	if err != nil {
		store.Close()
		return nil, err
	}
	limiter := utils.NewWindowLimiter(lc.SubmitBurst, lc.SubmitWindow)
	svc := ledger.NewService(NewMessenger(dg), store, NewAuditLog(dg), limiter, logger, ledger.Options{
		BotUserID:           me.ID,
		MaxEntries:          lc.MaxEntries,
		MaxBodyLength:       lc.MaxBodyLength,
		AddScanLimit:        lc.AddScanLimit,
		DeleteScanLimit:     lc.DeleteScanLimit,
		RetryBackoff:        lc.RetryBackoff,
		AuditTimeout:        lc.AuditTimeout,
		MaxConcurrentWrites: lc.MaxConcurrentWrites,
		Codec:               ledger.NewMarkerCodec(key),
	})

	return &Bot{
		session: dg,
		store:   store,
		ledger:  svc,
		limiter: limiter,
		logger:  logger.Named("bot"),
		appID:   me.ID,
	}, nil
}

// Store exposes the database for health checks.
func (b *Bot) Store() *db.Store { return b.store }

// Open registers handlers, connects to the gateway and syncs commands to
// the configured guilds.
func (b *Bot) Open(ctx context.Context, guilds []string) error {
	deps := &handler.Deps{Store: b.store, Ledger: b.ledger, Catalog: catalog.Default()}
	b.stops = append(b.stops, review.RegisterHandlers(deps))
	anon.RegisterHandlers(deps)
	roles.RegisterHandlers(deps)
	admin.RegisterHandlers()
	system.RegisterHandlers()

	b.registerEventHandlers()
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	if err := b.SyncCommands(ctx, guilds); err != nil {
		return err
	}
	b.logger.Info("bot is now running", zap.String("user_id", b.appID), zap.Int("guilds", len(guilds)))
	return nil
}

// SyncCommands overwrites the command set of each guild.
func (b *Bot) SyncCommands(ctx context.Context, guilds []string) error {
	for _, guildID := range guilds {
		synced, err := b.session.ApplicationCommandBulkOverwrite(b.appID, guildID, command.AllCommands, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("cannot sync commands to guild %s: %w", guildID, err)
		}
		b.logger.Info("commands synced", zap.String("guild_id", guildID), zap.Int("count", len(synced)))
	}
	return nil
}

// PurgeCommands removes every command from each guild.
func (b *Bot) PurgeCommands(ctx context.Context, guilds []string) error {
	for _, guildID := range guilds {
		if _, err := b.session.ApplicationCommandBulkOverwrite(b.appID, guildID, []*discordgo.ApplicationCommand{}, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("cannot purge commands in guild %s: %w", guildID, err)
		}
		b.logger.Info("commands purged", zap.String("guild_id", guildID))
	}
	return nil
}

// Close disconnects and releases the background workers and the database.
func (b *Bot) Close() {
	if err := b.session.Close(); err != nil {
		b.logger.Warn("error closing session", zap.Error(err))
	}
	for _, stop := range b.stops {
		stop()
	}
	b.limiter.Stop()
	if err := b.store.Close(); err != nil {
		b.logger.Warn("error closing database", zap.Error(err))
	}
}
