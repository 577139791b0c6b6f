package models

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned (wrapped) when a record fails validation at the
// store boundary.
var ErrInvalid = errors.New("invalid record")

// Validator is implemented by every stored entity. Stores call Validate on
// the merged record before persisting it.
type Validator interface {
	Validate() error
}

func invalid(field, value string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalid, field, value)
}

// oneOf accepts the empty string so optional fields may stay absent.
func oneOf(v string, allowed ...string) bool {
	if v == "" {
		return true
	}
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// IsStatus reports whether s is one of the four intake statuses.
func IsStatus(s string) bool {
	return s != "" && oneOf(s, StatusNew, StatusUrgent, StatusReviewed, StatusArchived)
}

func (f *Firm) Validate() error {
	if f.FollowUpDays < 0 {
		return fmt.Errorf("%w: follow_up_days %d", ErrInvalid, f.FollowUpDays)
	}
	if f.AssignmentRules != nil && !oneOf(f.AssignmentRules.Type, "round_robin", "practice_area") {
		return invalid("assignment_rules.type", f.AssignmentRules.Type)
	}
	return nil
}

func (i *Intake) Validate() error {
	if !oneOf(i.Status, StatusNew, StatusUrgent, StatusReviewed, StatusArchived) {
		return invalid("status", i.Status)
	}
	if !oneOf(i.AIUrgency, UrgencyHigh, UrgencyMedium, UrgencyLow) {
		return invalid("ai_urgency", i.AIUrgency)
	}
	if !oneOf(i.AIRisk, RiskHigh, RiskMedium, RiskLow) {
		return invalid("ai_risk", i.AIRisk)
	}
	return nil
}

func (e *EmailHistory) Validate() error {
	if !oneOf(e.Status, EmailStatusSent, EmailStatusFailed) {
		return invalid("status", e.Status)
	}
	if !oneOf(e.Direction, DirectionOutbound, DirectionInbound) {
		return invalid("direction", e.Direction)
	}
	return nil
}

func (m *Message) Validate() error {
	if !oneOf(m.SenderType, SenderStaff, SenderClient) {
		return invalid("sender_type", m.SenderType)
	}
	return nil
}
