package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"go.uber.org/zap"
)

// NewMessage is one post to an intake's thread. For client posts the sender
// name and email default to the intake's client.
type NewMessage struct {
	SenderType  string   `json:"sender_type"`
	SenderName  string   `json:"sender_name,omitempty"`
	SenderEmail string   `json:"sender_email,omitempty"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

func (s *Service) PostMessage(ctx context.Context, intakeID string, msg NewMessage) (*models.Message, error) {
	if strings.TrimSpace(msg.Content) == "" && len(msg.Attachments) == 0 {
		return nil, fmt.Errorf("%w: empty message", models.ErrInvalid)
	}
	in, err := s.get(ctx, intakeID)
	if err != nil {
		return nil, err
	}

	m := &models.Message{
		IntakeID:    in.ID,
		FirmID:      in.FirmID,
		SenderType:  msg.SenderType,
		SenderName:  msg.SenderName,
		SenderEmail: msg.SenderEmail,
		Content:     msg.Content,
		Attachments: msg.Attachments,
	}
	if m.SenderType == models.SenderClient {
		if m.SenderName == "" {
			m.SenderName = in.ClientName
		}
		if m.SenderEmail == "" {
			m.SenderEmail = in.ClientEmail
		}
	}

	created, err := s.messages.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	return created, nil
}

// Thread returns an intake's messages, newest first.
func (s *Service) Thread(ctx context.Context, intakeID string) ([]*models.Message, error) {
	return s.messages.Filter(ctx, repository.Where{"intake_id": intakeID}, "-created_date")
}

// MarkThreadRead marks the other party's unread messages on the thread as
// read. reader is the sender type doing the reading. It returns how many
// messages changed.
func (s *Service) MarkThreadRead(ctx context.Context, intakeID, reader string) (int, error) {
	other := models.SenderClient
	switch reader {
	case models.SenderStaff:
	case models.SenderClient:
		other = models.SenderStaff
	default:
		return 0, fmt.Errorf("%w: reader %q", models.ErrInvalid, reader)
	}

	unread, err := s.messages.Filter(ctx, repository.Where{
		"intake_id":   intakeID,
		"sender_type": other,
		"read":        false,
	}, "")
	if err != nil {
		return 0, fmt.Errorf("find unread: %w", err)
	}

	for i, m := range unread {
		if _, err := s.messages.Update(ctx, m.ID, repository.Patch{"read": true}); err != nil {
			return i, fmt.Errorf("mark %s read: %w", m.ID, err)
		}
	}
	if len(unread) > 0 {
		s.logger.Debug("thread marked read", zap.String("intake_id", intakeID), zap.Int("messages", len(unread)))
	}
	return len(unread), nil
}

// Portal is what a client sees after proving they own the intake.
type Portal struct {
	Intake *models.Intake         `json:"intake"`
	Emails []*models.EmailHistory `json:"emails"`
}

// PortalAccess lets a client in when email matches the intake's client
// email, ignoring case and surrounding space.
func (s *Service) PortalAccess(ctx context.Context, intakeID, email string) (*Portal, error) {
	in, err := s.get(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	if in.ClientEmail == "" || !strings.EqualFold(strings.TrimSpace(in.ClientEmail), strings.TrimSpace(email)) {
		return nil, ErrAccessDenied
	}

	emails, err := s.emails.Filter(ctx, repository.Where{"intake_id": in.ID}, "-created_date")
	if err != nil {
		return nil, fmt.Errorf("load email history: %w", err)
	}
	return &Portal{Intake: in, Emails: emails}, nil
}
