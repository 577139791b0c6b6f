package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"github.com/lalith-99/intakedesk/internal/triage"
	"go.uber.org/zap"
)

type handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Local evaluates functions in-process against the repositories. Expected
// absence (an unknown intake id) comes back as ok=false in the result;
// storage and encoding failures come back as errors.
type Local struct {
	intakes    repository.IntakeRepository
	emails     repository.EmailHistoryRepository
	classifier *triage.Classifier
	logger     *zap.Logger

	handlers map[string]handler
}

func NewLocal(
	intakes repository.IntakeRepository,
	emails repository.EmailHistoryRepository,
	classifier *triage.Classifier,
	logger *zap.Logger,
) *Local {
	l := &Local{
		intakes:    intakes,
		emails:     emails,
		classifier: classifier,
		logger:     logger.Named("functions"),
	}
	l.handlers = map[string]handler{
		ProcessIntake:       l.processIntake,
		CreateCalendarEvent: l.createCalendarEvent,
		SendClientEmail:     l.sendClientEmail,
		NotifyStatusChange:  l.notify(NotifyStatusChange),
		AutoFollowUp:        l.notify(AutoFollowUp),
		ExportIntakes:       l.exportIntakes,
		OCRDocument:         l.ocrDocument,
	}
	return l
}

func (l *Local) Invoke(ctx context.Context, name string, payload any) (*Result, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	h, ok := l.handlers[name]
	if !ok {
		l.logger.Debug("no handler for function, acknowledging", zap.String("function", name))
		return newResult(Ack{OK: true})
	}

	out, err := h(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return newResult(out)
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if len(p) == 0 {
			return json.RawMessage("{}"), nil
		}
		return p, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

// decodePayload reports a payload of the wrong shape as models.ErrInvalid.
func decodePayload(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode payload: %v", models.ErrInvalid, err)
	}
	return nil
}

// processIntake scores the intake's issue text and notes, then stores the
// risk level and a summary on it.
func (l *Local) processIntake(ctx context.Context, raw json.RawMessage) (any, error) {
	var p IntakeRef
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	in, err := l.intakes.Get(ctx, p.IntakeID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return ProcessIntakeResult{Ack: Ack{OK: false, Error: "Intake not found"}}, nil
	}

	a := l.classifier.Classify(in.IssueDescription + " " + in.InternalNotes)

	summary := in.AISummary
	switch {
	case summary != "":
	case strings.TrimSpace(in.IssueDescription) != "":
		summary = "Summary: " + in.IssueDescription
	default:
		summary = "Summary: Intake received."
	}

	if _, err := l.intakes.Update(ctx, in.ID, repository.Patch{
		"ai_risk":    a.Risk,
		"ai_summary": summary,
	}); err != nil {
		return nil, err
	}

	l.logger.Info("intake processed",
		zap.String("intake_id", in.ID),
		zap.String("risk", a.Risk),
		zap.Strings("matches", a.Matches),
	)
	return ProcessIntakeResult{Ack: Ack{OK: true}, Risk: a.Risk, Summary: summary, Matches: a.Matches}, nil
}

func (l *Local) createCalendarEvent(_ context.Context, _ json.RawMessage) (any, error) {
	return CalendarEventResult{Ack: Ack{OK: true}, CalendarEventID: uuid.NewString()}, nil
}

// sendClientEmail records the email as sent. Nothing is delivered.
func (l *Local) sendClientEmail(ctx context.Context, raw json.RawMessage) (any, error) {
	var p SendEmailPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	rec := &models.EmailHistory{
		IntakeID:  p.IntakeID,
		Recipient: p.Recipient,
		Subject:   p.Subject,
		Body:      p.Body,
		Status:    models.EmailStatusSent,
		Direction: models.DirectionOutbound,
		SentBy:    p.SentBy,
	}
	if rec.Recipient == "" {
		rec.Recipient = p.To
	}
	if p.IntakeID != "" {
		in, err := l.intakes.Get(ctx, p.IntakeID)
		if err != nil {
			return nil, err
		}
		if in != nil {
			rec.FirmID = in.FirmID
			if rec.Recipient == "" {
				rec.Recipient = in.ClientEmail
			}
		}
	}

	saved, err := l.emails.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return SendEmailResult{Ack: Ack{OK: true}, EmailHistoryID: saved.ID}, nil
}

func (l *Local) notify(name string) handler {
	return func(_ context.Context, raw json.RawMessage) (any, error) {
		l.logger.Debug("notification skipped", zap.String("function", name), zap.ByteString("payload", raw))
		return Ack{OK: true}, nil
	}
}

// exportIntakes returns the firm's intakes, newest first, as CSV text.
func (l *Local) exportIntakes(ctx context.Context, raw json.RawMessage) (any, error) {
	var p ExportPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	where := repository.Where{}
	for k, v := range p.Filters {
		where[k] = v
	}
	if p.FirmID != "" {
		where["firm_id"] = p.FirmID
	}

	intakes, err := l.intakes.Filter(ctx, where, "-created_date")
	if err != nil {
		return nil, err
	}

	rows := make([]json.RawMessage, 0, len(intakes))
	for _, in := range intakes {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode intake %s: %w", in.ID, err)
		}
		rows = append(rows, b)
	}

	csv, err := BuildCSV(rows)
	if err != nil {
		return nil, err
	}
	return ExportResult{Ack: Ack{OK: true}, CSV: csv, Count: len(rows)}, nil
}

func (l *Local) ocrDocument(_ context.Context, _ json.RawMessage) (any, error) {
	return OCRResult{Ack: Ack{OK: true}, Text: ""}, nil
}
