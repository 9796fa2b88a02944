// Package ledger keeps the review collection inside bot-owned Discord
// messages. Each message ("container") carries an embed whose description is
// a list of sections, one per subtype, each listing entries in insertion
// order. The package parses container bodies into Documents, mutates them
// structurally and writes them back, serializing writes per channel.
package ledger

import (
	"context"
	"time"

	"github.com/miyasty1919/discordmaidbot/model"
)

// Message is the part of a channel message the ledger looks at.
type Message struct {
	ID       string
	AuthorID string
	// Title and Body are the first embed's title and description.
	Title string
	Body  string
}

// Messenger is the chat platform as seen by the ledger. Implementations
// return *Error values: ErrNotFound for vanished messages and ErrTransientIO
// for everything else.
type Messenger interface {
	// RecentMessages returns up to limit messages, newest first.
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	SendContainer(ctx context.Context, channelID, title, body string) (string, error)
	EditContainer(ctx context.Context, channelID, messageID, title, body string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// SettingsSource reads guild channel bindings and the deny-list.
type SettingsSource interface {
	GuildSettings(ctx context.Context, guildID string) (*model.GuildSettings, error)
}

// AuditSink delivers operation logs to a guild's log channel.
type AuditSink interface {
	Audit(ctx context.Context, channelID string, e AuditEntry) error
}

// Limiter is a keyed short-window rate limit.
type Limiter interface {
	// Take consumes one token for key, or reports how long to wait. undo
	// gives the token back and is only set when ok.
	Take(key string) (ok bool, retryAfter time.Duration, undo func())
}

// Actor is the user performing an operation.
type Actor struct {
	ID        string
	Name      string
	AvatarURL string
}

// AuditEntry is one operation log line.
type AuditEntry struct {
	Actor   Actor
	Action  string
	Subject string
	Detail  string
	At      time.Time
}

// Options configures a Service.
type Options struct {
	// BotUserID identifies containers written by this bot.
	BotUserID string

	MaxEntries      int
	MaxBodyLength   int
	AddScanLimit    int
	DeleteScanLimit int

	RetryBackoff        time.Duration
	AuditTimeout        time.Duration
	MaxConcurrentWrites int

	Codec MarkerCodec
	Now   func() time.Time
}

// Defaults used for zero Options fields.
const (
	DefaultMaxEntries      = 10
	DefaultMaxBodyLength   = 3800
	DefaultAddScanLimit    = 50
	DefaultDeleteScanLimit = 100
)

func (o Options) withDefaults() Options {
	if o.MaxEntries <= 0 {
		o.MaxEntries = DefaultMaxEntries
	}
	if o.MaxBodyLength <= 0 {
		o.MaxBodyLength = DefaultMaxBodyLength
	}
	if o.AddScanLimit <= 0 {
		o.AddScanLimit = DefaultAddScanLimit
	}
	if o.DeleteScanLimit <= 0 {
		o.DeleteScanLimit = DefaultDeleteScanLimit
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	if o.AuditTimeout <= 0 {
		o.AuditTimeout = 5 * time.Second
	}
	if o.MaxConcurrentWrites <= 0 {
		o.MaxConcurrentWrites = 2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ContainerTitle is the embed title marking a container for a category.
func ContainerTitle(c model.Category) string {
	return "📚 " + c.Label() + " コレクション"
}
