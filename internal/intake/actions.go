package intake

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/lalith-99/intakedesk/internal/functions"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"go.uber.org/zap"
)

// SetStatus moves an intake to any status and fires the status-change
// notification. A failed notification is logged only.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*models.Intake, error) {
	if !models.IsStatus(status) {
		return nil, fmt.Errorf("%w: status %q", models.ErrInvalid, status)
	}
	in, err := s.intakes.Update(ctx, id, repository.Patch{"status": status})
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	s.notifyStatus(ctx, in)
	return in, nil
}

func (s *Service) notifyStatus(ctx context.Context, in *models.Intake) {
	_, err := s.fn.Invoke(ctx, functions.NotifyStatusChange, map[string]string{
		"intake_id": in.ID,
		"status":    in.Status,
	})
	if err != nil {
		s.logger.Warn("status notification failed", zap.String("intake_id", in.ID), zap.Error(err))
	}
}

// Bulk action kinds.
const (
	BulkStatus = "status"
	BulkAssign = "assign"
	BulkTag    = "tag"
)

type BulkAction struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Bulk applies one action to every id in order and stops at the first
// failure. It returns how many intakes were changed; tagging an intake that
// already has the tag changes nothing.
func (s *Service) Bulk(ctx context.Context, ids []string, action BulkAction) (int, error) {
	switch action.Kind {
	case BulkStatus:
		if !models.IsStatus(action.Value) {
			return 0, fmt.Errorf("%w: status %q", models.ErrInvalid, action.Value)
		}
	case BulkAssign, BulkTag:
	default:
		return 0, fmt.Errorf("%w: bulk action %q", models.ErrInvalid, action.Kind)
	}

	updated := 0
	for _, id := range ids {
		var err error
		changed := true
		switch action.Kind {
		case BulkStatus:
			_, err = s.SetStatus(ctx, id, action.Value)
		case BulkAssign:
			_, err = s.Assign(ctx, id, action.Value)
		case BulkTag:
			changed, err = s.addTag(ctx, id, action.Value)
		}
		if err != nil {
			return updated, err
		}
		if changed {
			updated++
		}
	}

	s.logger.Info("bulk action applied",
		zap.String("kind", action.Kind),
		zap.Int("selected", len(ids)),
		zap.Int("updated", updated))
	return updated, nil
}

// AddTag adds tag unless the intake already carries it.
func (s *Service) AddTag(ctx context.Context, id, tag string) (*models.Intake, error) {
	if _, err := s.addTag(ctx, id, tag); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *Service) addTag(ctx context.Context, id, tag string) (bool, error) {
	if tag == "" {
		return false, fmt.Errorf("%w: empty tag", models.ErrInvalid)
	}
	in, err := s.get(ctx, id)
	if err != nil {
		return false, err
	}
	if in.HasTag(tag) {
		return false, nil
	}
	tags := append(slices.Clone(in.Tags), tag)
	if _, err := s.intakes.Update(ctx, id, repository.Patch{"tags": tags}); err != nil {
		return false, fmt.Errorf("add tag: %w", err)
	}
	return true, nil
}

func (s *Service) RemoveTag(ctx context.Context, id, tag string) (*models.Intake, error) {
	in, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !in.HasTag(tag) {
		return in, nil
	}
	tags := slices.DeleteFunc(slices.Clone(in.Tags), func(t string) bool { return t == tag })
	return s.intakes.Update(ctx, id, repository.Patch{"tags": tags})
}

// Assign sets the responsible team member. An empty member unassigns.
func (s *Service) Assign(ctx context.Context, id, member string) (*models.Intake, error) {
	in, err := s.intakes.Update(ctx, id, repository.Patch{"assigned_to": member})
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	return in, nil
}

func (s *Service) SetNotes(ctx context.Context, id, notes string) (*models.Intake, error) {
	in, err := s.intakes.Update(ctx, id, repository.Patch{"internal_notes": notes})
	if err != nil {
		return nil, fmt.Errorf("set notes: %w", err)
	}
	return in, nil
}

// followUpLayout is the stored form of next_follow_up_date.
const followUpLayout = "2006-01-02"

// ScheduleFollowUp sets the next follow-up date. A zero date schedules it
// the firm's follow_up_days (default 3) from today.
func (s *Service) ScheduleFollowUp(ctx context.Context, id string, date time.Time) (*models.Intake, error) {
	if date.IsZero() {
		in, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		days := 3
		if firm, err := s.firms.Get(ctx, in.FirmID); err == nil && firm != nil && firm.FollowUpDays > 0 {
			days = firm.FollowUpDays
		}
		date = s.now().AddDate(0, 0, days)
	}

	in, err := s.intakes.Update(ctx, id, repository.Patch{"next_follow_up_date": date.Format(followUpLayout)})
	if err != nil {
		return nil, fmt.Errorf("schedule follow-up: %w", err)
	}
	return in, nil
}
