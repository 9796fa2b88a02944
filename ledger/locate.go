package ledger

import (
	"context"

	"go.uber.org/zap"
)

type container struct {
	MessageID string
	Doc       *Document
}

// scan returns the readable containers among the newest limit messages,
// newest first. Bot messages that look like containers but do not parse are
// skipped and never written to.
func (s *Service) scan(ctx context.Context, channelID, title string, limit int) ([]container, error) {
	var msgs []Message
	err := s.retry(ctx, "fetch history", func() error {
		var err error
		msgs, err = s.messenger.RecentMessages(ctx, channelID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]container, 0, len(msgs))
	for _, m := range msgs {
		if m.AuthorID != s.opts.BotUserID || m.Title != title {
			continue
		}
		doc, err := s.index.Document(channelID, m.ID, m.Body)
		if err != nil {
			s.logger.Warn("skipping unreadable container",
				zap.String("channel_id", channelID),
				zap.String("message_id", m.ID),
				zap.Error(err))
			continue
		}
		out = append(out, container{MessageID: m.ID, Doc: doc})
	}
	s.logger.Debug("scanned containers",
		zap.String("channel_id", channelID),
		zap.Int("messages", len(msgs)),
		zap.Int("containers", len(out)))
	return out, nil
}

// locate picks the newest container that can take one more entry, or nil
// when a new container has to be created.
func (s *Service) locate(ctx context.Context, channelID, title, key string, e Entry) (*container, error) {
	containers, err := s.scan(ctx, channelID, title, s.opts.AddScanLimit)
	if err != nil {
		return nil, err
	}
	for i := range containers {
		if s.fits(containers[i].Doc, key, e) {
			return &containers[i], nil
		}
	}
	return nil, nil
}

// fits reports whether doc stays within both ceilings after inserting e.
func (s *Service) fits(doc *Document, key string, e Entry) bool {
	if doc.Count()+1 > s.opts.MaxEntries {
		return false
	}
	trial := doc.Clone()
	trial.Insert(key, e)
	return Length(trial.Render()) < s.opts.MaxBodyLength
}
