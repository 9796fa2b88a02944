package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/miyasty1919/discordmaidbot/model"
)

// Service is the entry point for every collection operation.
type Service struct {
	opts      Options
	messenger Messenger
	settings  SettingsSource
	audit     AuditSink
	limiter   Limiter
	index     *Index
	gate      *Gate
	logger    *zap.Logger
}

// NewService wires a service. audit and limiter may be nil.
func NewService(m Messenger, settings SettingsSource, audit AuditSink, limiter Limiter, logger *zap.Logger, opts Options) *Service {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		opts:      opts,
		messenger: m,
		settings:  settings,
		audit:     audit,
		limiter:   limiter,
		index:     NewIndex(opts.DeleteScanLimit * 2),
		gate:      NewGate(opts.MaxConcurrentWrites),
		logger:    logger.Named("ledger"),
	}
}

// Index exposes the parse cache so platform events can invalidate it.
func (s *Service) Index() *Index { return s.index }

// Codec returns the submitter marker codec.
func (s *Service) Codec() MarkerCodec { return s.opts.Codec }

// Result describes what a write did.
type Result struct {
	ChannelID string
	MessageID string
	Section   string
	Entry     Entry
	// Created is set when a new container was sent; Deleted when the last
	// entry was removed and the container went with it.
	Created bool
	Deleted bool
}

// AddRequest submits a record on behalf of Actor.
type AddRequest struct {
	GuildID string
	Actor   Actor
	Record  model.Record
}

// Add appends a record to the category's collection, reusing the newest
// container with room for it.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Result, error) {
	rec := req.Record.Normalize()
	if rec.SubmitterID == "" {
		rec.SubmitterID = req.Actor.ID
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.guild(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	if settings.IsDenied(rec.SubmitterID) {
		s.logger.Info("denied submission", zap.String("guild_id", req.GuildID), zap.String("user_id", rec.SubmitterID))
		s.notify(ctx, settings, AuditEntry{Actor: req.Actor, Action: "🚫 投稿拒否 (NGユーザー)", Subject: rec.Title})
		return nil, ErrForbidden
	}
	channelID := settings.ChannelFor(rec.Category)
	if channelID == "" {
		return nil, ErrNotConfigured.WithMessage(fmt.Sprintf("no channel configured for %s", rec.Category))
	}

	marker := ""
	if settings.TrackSubmitters {
		marker, _ = s.opts.Codec.Encode(rec.SubmitterID)
	}
	key := SectionKey(rec.Subtype)
	entry := NewEntry(rec, marker)
	if !s.fits(&Document{}, key, entry) {
		return nil, ErrCapacityExceeded
	}
	title := ContainerTitle(rec.Category)

	undo := func() {}
	if s.limiter != nil {
		ok, wait, release := s.limiter.Take(req.GuildID + ":" + rec.SubmitterID)
		if !ok {
			return nil, rateLimited(wait)
		}
		if release != nil {
			undo = release
		}
	}

	var res *Result
	err = s.gate.Do(ctx, channelID, func(ctx context.Context) error {
		return s.relocating(ctx, channelID, func(ctx context.Context) error {
			target, err := s.locate(ctx, channelID, title, key, entry)
			if err != nil {
				return err
			}
			doc := &Document{}
			if target != nil {
				doc = target.Doc
			}
			doc.Insert(key, entry)
			id, outcome, err := s.persist(ctx, channelID, title, target, doc)
			if err != nil {
				return err
			}
			res = &Result{
				ChannelID: channelID,
				MessageID: id,
				Section:   key,
				Entry:     entry,
				Created:   outcome == outcomeCreated,
			}
			return nil
		})
	})
	if err != nil {
		// 未写入时归还配额
		undo()
		s.logger.Error("add failed",
			zap.String("guild_id", req.GuildID),
			zap.String("channel_id", channelID),
			zap.String("title", rec.Title),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("record added",
		zap.String("channel_id", channelID),
		zap.String("message_id", res.MessageID),
		zap.Bool("created", res.Created))
	s.notify(ctx, settings, AuditEntry{
		Actor:   req.Actor,
		Action:  "✅ 作品登録",
		Subject: rec.Title,
		Detail:  rec.Category.Label() + " / " + key,
	})
	return res, nil
}

// DeleteRequest removes the first entry titled Title from a category.
type DeleteRequest struct {
	GuildID  string
	Actor    Actor
	Category model.Category
	Title    string
}

// Delete removes the first matching entry, newest container first. The
// container is deleted when it becomes empty.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*Result, error) {
	wanted := strings.TrimSpace(req.Title)
	if wanted == "" {
		return nil, ErrNotFound.WithMessage("title is empty")
	}
	settings, err := s.guild(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	channelID := settings.ChannelFor(req.Category)
	if channelID == "" {
		return nil, ErrNotConfigured.WithMessage(fmt.Sprintf("no channel configured for %s", req.Category))
	}
	title := ContainerTitle(req.Category)
	match := ByTitle(wanted)

	var res *Result
	err = s.gate.Do(ctx, channelID, func(ctx context.Context) error {
		return s.relocating(ctx, channelID, func(ctx context.Context) error {
			containers, err := s.scan(ctx, channelID, title, s.opts.DeleteScanLimit)
			if err != nil {
				return err
			}
			for i := range containers {
				c := &containers[i]
				found := c.Doc.Find(match)
				if len(found) == 0 {
					continue
				}
				removed, _ := c.Doc.Remove(match)
				id, outcome, err := s.persist(ctx, channelID, title, c, c.Doc)
				if err != nil {
					return err
				}
				res = &Result{
					ChannelID: channelID,
					MessageID: id,
					Section:   found[0].Section,
					Entry:     removed,
					Deleted:   outcome == outcomeDeleted,
				}
				return nil
			}
			return ErrNotFound.WithMessage(fmt.Sprintf("%q is not in the collection", wanted))
		})
	})
	if err != nil {
		if KindOf(err) != KindNotFound {
			s.logger.Error("delete failed", zap.String("channel_id", channelID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("record deleted",
		zap.String("channel_id", channelID),
		zap.String("message_id", res.MessageID),
		zap.Bool("container_deleted", res.Deleted))
	s.notify(ctx, settings, AuditEntry{
		Actor:   req.Actor,
		Action:  "🗑️ 作品削除",
		Subject: wanted,
		Detail:  req.Category.Label() + " / " + res.Section,
	})
	return res, nil
}

// PurgeRequest removes every entry submitted by SubmitterID. An empty
// Category purges all bound categories.
type PurgeRequest struct {
	GuildID     string
	Actor       Actor
	SubmitterID string
	Category    model.Category
}

// PurgeSubmitter removes a submitter's entries and returns how many were
// removed. Entries written while tracking was off carry no marker and are
// left alone. Failures on one container do not stop the others.
func (s *Service) PurgeSubmitter(ctx context.Context, req PurgeRequest) (int, error) {
	marker, ok := s.opts.Codec.Encode(req.SubmitterID)
	if !ok {
		return 0, fmt.Errorf("invalid submitter id %q", req.SubmitterID)
	}
	settings, err := s.guild(ctx, req.GuildID)
	if err != nil {
		return 0, err
	}
	cats := model.Categories
	if req.Category != "" {
		cats = []model.Category{req.Category}
	}

	total := 0
	var errs []error
	for _, cat := range cats {
		channelID := settings.ChannelFor(cat)
		if channelID == "" {
			continue
		}
		title := ContainerTitle(cat)
		err := s.gate.Do(ctx, channelID, func(ctx context.Context) error {
			containers, err := s.scan(ctx, channelID, title, s.opts.DeleteScanLimit)
			if err != nil {
				return err
			}
			var cerrs []error
			for i := range containers {
				c := &containers[i]
				removed := c.Doc.RemoveAll(BySubmitter(marker))
				if len(removed) == 0 {
					continue
				}
				if _, _, err := s.persist(ctx, channelID, title, c, c.Doc); err != nil {
					if errors.Is(err, errGone) {
						continue
					}
					cerrs = append(cerrs, err)
					continue
				}
				total += len(removed)
			}
			return errors.Join(cerrs...)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("submitter purged",
		zap.String("guild_id", req.GuildID),
		zap.String("user_id", req.SubmitterID),
		zap.Int("removed", total))
	s.notify(ctx, settings, AuditEntry{
		Actor:   req.Actor,
		Action:  "🧹 投稿一括削除",
		Subject: "<@" + req.SubmitterID + ">",
		Detail:  fmt.Sprintf("%d件", total),
	})
	return total, errors.Join(errs...)
}

// LookupRequest searches the collection. Empty fields do not filter.
type LookupRequest struct {
	GuildID     string
	Category    model.Category
	Title       string
	SubmitterID string
}

// Hit is one lookup result.
type Hit struct {
	Category  model.Category
	ChannelID string
	MessageID string
	Section   string
	Entry     Entry
	// SubmitterID is decoded from the entry marker when present.
	SubmitterID string
}

// Lookup returns matching entries, newest container first, without writing.
func (s *Service) Lookup(ctx context.Context, req LookupRequest) ([]Hit, error) {
	settings, err := s.guild(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	cats := model.Categories
	if req.Category != "" {
		cats = []model.Category{req.Category}
	}

	var markers []string
	if req.SubmitterID != "" {
		m, ok := s.opts.Codec.Encode(req.SubmitterID)
		if !ok {
			return nil, fmt.Errorf("invalid submitter id %q", req.SubmitterID)
		}
		markers = append(markers, m)
	}
	titleMatch := TitleContains(req.Title)
	match := func(e Entry) bool {
		if len(markers) > 0 && e.Marker != markers[0] {
			return false
		}
		return req.Title == "" || titleMatch(e)
	}

	var hits []Hit
	bound := 0
	for _, cat := range cats {
		channelID := settings.ChannelFor(cat)
		if channelID == "" {
			continue
		}
		bound++
		containers, err := s.scan(ctx, channelID, ContainerTitle(cat), s.opts.DeleteScanLimit)
		if err != nil {
			return nil, err
		}
		for _, c := range containers {
			for _, loc := range c.Doc.Find(match) {
				h := Hit{
					Category:  cat,
					ChannelID: channelID,
					MessageID: c.MessageID,
					Section:   loc.Section,
					Entry:     loc.Entry,
				}
				if loc.Entry.Marker != "" {
					h.SubmitterID, _ = s.opts.Codec.Decode(loc.Entry.Marker)
				}
				hits = append(hits, h)
			}
		}
	}
	if bound == 0 {
		return nil, ErrNotConfigured
	}
	return hits, nil
}

// Notify sends an audit entry to the guild's log channel, if one is bound.
func (s *Service) Notify(ctx context.Context, guildID string, e AuditEntry) {
	settings, err := s.guild(ctx, guildID)
	if err != nil {
		s.logger.Warn("audit skipped", zap.String("guild_id", guildID), zap.Error(err))
		return
	}
	s.notify(ctx, settings, e)
}

func (s *Service) guild(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	settings, err := s.settings.GuildSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("load guild settings: %w", err)
	}
	if settings == nil {
		settings = &model.GuildSettings{GuildID: guildID, TrackSubmitters: true}
	}
	return settings, nil
}

// notify is best-effort: failures are logged and never reach the caller.
func (s *Service) notify(ctx context.Context, settings *model.GuildSettings, e AuditEntry) {
	if s.audit == nil || settings.LogChannelID == "" {
		return
	}
	if e.At.IsZero() {
		e.At = s.opts.Now()
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AuditTimeout)
	defer cancel()
	if err := s.audit.Audit(actx, settings.LogChannelID, e); err != nil {
		s.logger.Warn("audit delivery failed",
			zap.String("channel_id", settings.LogChannelID),
			zap.String("action", e.Action),
			zap.Error(err))
	}
}
