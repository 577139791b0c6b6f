package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/lalith-99/intakedesk/internal/repository"
	"go.uber.org/zap"
)

// PurgeResult counts what Purge removed.
type PurgeResult struct {
	Messages int `json:"messages"`
	Emails   int `json:"emails"`
	Files    int `json:"files"`
}

// Purge deletes an intake together with its message thread, its email
// history and, when the service was built WithFiles, the files attached to
// either. The intake record goes last so a failed purge can be retried.
func (s *Service) Purge(ctx context.Context, intakeID string) (*PurgeResult, error) {
	in, err := s.get(ctx, intakeID)
	if err != nil {
		return nil, err
	}

	res := &PurgeResult{}
	urls := append([]string(nil), in.FileURLs...)

	msgs, err := s.messages.Filter(ctx, repository.Where{"intake_id": in.ID}, "")
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	for _, m := range msgs {
		urls = append(urls, m.Attachments...)
		if err := s.messages.Delete(ctx, m.ID); err != nil {
			return res, fmt.Errorf("delete message %s: %w", m.ID, err)
		}
		res.Messages++
	}

	emails, err := s.emails.Filter(ctx, repository.Where{"intake_id": in.ID}, "")
	if err != nil {
		return res, fmt.Errorf("find email history: %w", err)
	}
	for _, e := range emails {
		if err := s.emails.Delete(ctx, e.ID); err != nil {
			return res, fmt.Errorf("delete email %s: %w", e.ID, err)
		}
		res.Emails++
	}

	if s.files != nil {
		var errs []error
		for _, u := range urls {
			if err := s.files.Remove(ctx, u); err != nil {
				errs = append(errs, err)
				continue
			}
			res.Files++
		}
		// Orphaned uploads are not worth keeping the intake around for.
		if err := errors.Join(errs...); err != nil {
			s.logger.Warn("purge left files behind", zap.String("intake_id", in.ID), zap.Error(err))
		}
	}

	if err := s.intakes.Delete(ctx, in.ID); err != nil {
		return res, fmt.Errorf("delete intake: %w", err)
	}
	s.logger.Info("intake purged",
		zap.String("intake_id", in.ID),
		zap.Int("messages", res.Messages),
		zap.Int("emails", res.Emails),
		zap.Int("files", res.Files))
	return res, nil
}
