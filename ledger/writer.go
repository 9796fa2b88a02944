package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// errGone marks a NotFound raised because the target container vanished
// between scan and write.
var errGone = errors.New("container gone")

// sentCheckLimit is how far back a failed send is looked for.
const sentCheckLimit = 10

type writeOutcome int

const (
	outcomeCreated writeOutcome = iota + 1
	outcomeEdited
	outcomeDeleted
)

// persist writes doc back to the platform: a new message when target is nil,
// a deletion when doc is empty, an in-place edit otherwise.
func (s *Service) persist(ctx context.Context, channelID, title string, target *container, doc *Document) (string, writeOutcome, error) {
	body := doc.Render()

	switch {
	case target == nil:
		id, err := s.send(ctx, channelID, title, body)
		if err != nil {
			return "", 0, err
		}
		s.index.Store(channelID, id, body, doc)
		return id, outcomeCreated, nil

	case doc.Empty():
		err := s.retry(ctx, "delete container", func() error {
			return s.messenger.DeleteMessage(ctx, channelID, target.MessageID)
		})
		s.index.Invalidate(channelID, target.MessageID)
		if err != nil {
			return "", 0, gone(err)
		}
		return target.MessageID, outcomeDeleted, nil

	default:
		err := s.retry(ctx, "edit container", func() error {
			return s.messenger.EditContainer(ctx, channelID, target.MessageID, title, body)
		})
		if err != nil {
			s.index.Invalidate(channelID, target.MessageID)
			return "", 0, gone(err)
		}
		s.index.Store(channelID, target.MessageID, body, doc)
		return target.MessageID, outcomeEdited, nil
	}
}

// retry runs op, retrying once after the configured backoff when it fails
// with a transient error. Errors that are not *Error are treated as
// transient. Only idempotent requests go through retry.
func (s *Service) retry(ctx context.Context, what string, op func() error) error {
	err := platformErr(op())
	if KindOf(err) != KindTransientIO {
		return err
	}
	s.logger.Warn("platform request failed, retrying",
		zap.String("op", what),
		zap.Duration("backoff", s.opts.RetryBackoff),
		zap.Error(err))
	if err := s.backoff(ctx); err != nil {
		return err
	}
	return platformErr(op())
}

// send posts a new container. A failed send may still have reached the
// channel, so before sending again the newest messages are checked for a
// container with the same title and body.
func (s *Service) send(ctx context.Context, channelID, title, body string) (string, error) {
	id, err := s.messenger.SendContainer(ctx, channelID, title, body)
	err = platformErr(err)
	if KindOf(err) != KindTransientIO {
		return id, err
	}
	s.logger.Warn("send failed, checking channel before resending",
		zap.String("channel_id", channelID),
		zap.Error(err))
	if err := s.backoff(ctx); err != nil {
		return "", err
	}

	msgs, herr := s.messenger.RecentMessages(ctx, channelID, sentCheckLimit)
	if herr != nil {
		// 无法确认是否已发送，不再重发
		return "", platformErr(herr)
	}
	for _, m := range msgs {
		if m.AuthorID == s.opts.BotUserID && m.Title == title && m.Body == body {
			s.logger.Info("earlier send had landed", zap.String("message_id", m.ID))
			return m.ID, nil
		}
	}
	id, err = s.messenger.SendContainer(ctx, channelID, title, body)
	return id, platformErr(err)
}

func (s *Service) backoff(ctx context.Context) error {
	t := time.NewTimer(s.opts.RetryBackoff)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ErrTransientIO.WithCause(ctx.Err())
	}
}

func platformErr(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return ErrTransientIO.WithCause(err)
}

// gone tags a NotFound write failure so the caller can locate again.
func gone(err error) error {
	if KindOf(err) != KindNotFound {
		return err
	}
	return ErrNotFound.WithCause(fmt.Errorf("%w: %w", errGone, err))
}

// relocating runs fn and, if it failed because the container vanished,
// runs it once more from a fresh scan.
func (s *Service) relocating(ctx context.Context, channelID string, fn func(context.Context) error) error {
	err := fn(ctx)
	if !errors.Is(err, errGone) {
		return err
	}
	s.logger.Info("container vanished mid-operation, locating again", zap.String("channel_id", channelID))
	return fn(ctx)
}
