// Package intake holds the workflows built on the entity store: public form
// submission, staff triage actions, the client message thread, the client
// portal check and dashboard statistics.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lalith-99/intakedesk/internal/functions"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrFirmNotFound    = errors.New("firm not found")
	ErrConsentRequired = errors.New("consent is required to submit an intake")
	ErrAccessDenied    = errors.New("email does not match our records")
)

type Service struct {
	firms    repository.FirmRepository
	intakes  repository.IntakeRepository
	emails   repository.EmailHistoryRepository
	messages repository.MessageRepository
	fn       functions.Invoker
	files    FileRemover
	now      func() time.Time
	logger   *zap.Logger
}

// FileRemover deletes an uploaded file by the URL it was stored under.
type FileRemover interface {
	Remove(ctx context.Context, fileURL string) error
}

type Option func(*Service)

// WithFiles lets Purge delete the intake's uploads along with its records.
// Without it uploads are left in place.
func WithFiles(files FileRemover) Option {
	return func(s *Service) { s.files = files }
}

func NewService(
	firms repository.FirmRepository,
	intakes repository.IntakeRepository,
	emails repository.EmailHistoryRepository,
	messages repository.MessageRepository,
	fn functions.Invoker,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		firms:    firms,
		intakes:  intakes,
		emails:   emails,
		messages: messages,
		fn:       fn,
		now:      time.Now,
		logger:   logger.Named("intake"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submission is what the public intake form sends.
type Submission struct {
	ClientName          string   `json:"client_name"`
	ClientEmail         string   `json:"client_email"`
	ClientPhone         string   `json:"client_phone,omitempty"`
	PracticeArea        string   `json:"practice_area,omitempty"`
	IssueDescription    string   `json:"issue_description"`
	Timeline            string   `json:"timeline,omitempty"`
	DeadlineDate        string   `json:"deadline_date,omitempty"`
	DeadlineDescription string   `json:"deadline_description,omitempty"`
	FileURLs            []string `json:"file_urls,omitempty"`
	ConsentGiven        bool     `json:"consent_given"`
}

// FirmBySlug resolves the public intake link. Slugs are not unique in the
// store; the first match wins and a collision is logged.
func (s *Service) FirmBySlug(ctx context.Context, slug string) (*models.Firm, error) {
	if slug == "" {
		return nil, ErrFirmNotFound
	}
	firms, err := s.firms.Filter(ctx, repository.Where{"slug": slug}, "")
	if err != nil {
		return nil, fmt.Errorf("find firm %q: %w", slug, err)
	}
	if len(firms) == 0 {
		return nil, ErrFirmNotFound
	}
	if len(firms) > 1 {
		s.logger.Warn("firm slug is shared, using the first match",
			zap.String("slug", slug),
			zap.Int("firms", len(firms)),
			zap.String("firm_id", firms[0].ID))
	}
	return firms[0], nil
}

// Submit files a new intake for the firm behind slug and runs triage on it.
// Triage failures are logged and the unscored intake is returned.
func (s *Service) Submit(ctx context.Context, slug string, sub Submission) (*models.Intake, error) {
	firm, err := s.FirmBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !sub.ConsentGiven {
		return nil, ErrConsentRequired
	}

	in := &models.Intake{
		FirmID:              firm.ID,
		ClientName:          sub.ClientName,
		ClientEmail:         sub.ClientEmail,
		ClientPhone:         sub.ClientPhone,
		PracticeArea:        sub.PracticeArea,
		IssueDescription:    sub.IssueDescription,
		Timeline:            sub.Timeline,
		DeadlineDate:        sub.DeadlineDate,
		DeadlineDescription: sub.DeadlineDescription,
		FileURLs:            sub.FileURLs,
		ConsentGiven:        true,
		Status:              models.StatusNew,
	}

	assignee, err := s.assignee(ctx, firm, sub.PracticeArea)
	if err != nil {
		return nil, err
	}
	in.AssignedTo = assignee

	created, err := s.intakes.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create intake: %w", err)
	}
	s.logger.Info("intake submitted",
		zap.String("intake_id", created.ID),
		zap.String("firm_id", firm.ID),
		zap.String("assigned_to", created.AssignedTo))

	res, err := s.fn.Invoke(ctx, functions.ProcessIntake, functions.IntakeRef{IntakeID: created.ID})
	if err != nil || !res.OK() {
		s.logger.Warn("triage failed", zap.String("intake_id", created.ID), zap.Error(err))
		return created, nil
	}

	scored, err := s.intakes.Get(ctx, created.ID)
	if err != nil || scored == nil {
		return created, nil
	}
	return scored, nil
}

// assignee applies the firm's assignment rule. Round robin hands intakes to
// team members in order of how many the firm has already received.
func (s *Service) assignee(ctx context.Context, firm *models.Firm, practiceArea string) (string, error) {
	rule := firm.AssignmentRules
	if rule == nil || !rule.Enabled {
		return "", nil
	}

	switch rule.Type {
	case "practice_area":
		return rule.PracticeAreaAssignments[practiceArea], nil
	case "round_robin":
		if len(firm.TeamMembers) == 0 {
			return "", nil
		}
		existing, err := s.intakes.Filter(ctx, repository.Where{"firm_id": firm.ID}, "")
		if err != nil {
			return "", fmt.Errorf("count firm intakes: %w", err)
		}
		return firm.TeamMembers[len(existing)%len(firm.TeamMembers)], nil
	}
	return "", nil
}

func (s *Service) get(ctx context.Context, id string) (*models.Intake, error) {
	in, err := s.intakes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("intake %s: %w", id, repository.ErrNotFound)
	}
	return in, nil
}
