package models

import (
	"time"
)

// Entity names. These are the collection keys inside the persisted document
// and the path segment under /api/ for the HTTP contract.
const (
	EntityFirm         = "Firm"
	EntityIntake       = "Intake"
	EntityEmailHistory = "EmailHistory"
	EntityMessage      = "Message"
)

// Entities lists every stored entity type in document order.
var Entities = []string{EntityFirm, EntityIntake, EntityEmailHistory, EntityMessage}

// Base is embedded first in every stored record so id and the two timestamps
// lead the serialised form. The store owns these fields: callers never set
// them, and values supplied in a create or patch are overwritten.
type Base struct {
	ID          string    `json:"id,omitempty"`
	CreatedDate time.Time `json:"created_date,omitzero"`
	UpdatedDate time.Time `json:"updated_date,omitzero"`
}

// Firm is the tenant record: one law firm's configuration.
//
// Slug is the public lookup key for the intake form. Nothing in the store
// enforces uniqueness across firms.
//
// Booleans and numbers are always serialised, never omitted, so a filter on
// urgent_only_notifications=false or follow_up_days=0 finds the records that
// hold exactly that value.
type Firm struct {
	Base
	Name               string          `json:"name,omitempty"`
	Slug               string          `json:"slug,omitempty"`
	LogoURL            string          `json:"logo_url,omitempty"`
	PracticeAreas      []string        `json:"practice_areas,omitempty"`
	IntroText          string          `json:"intro_text,omitempty"`
	NotificationEmails []string        `json:"notification_emails,omitempty"`
	UrgentOnly         bool            `json:"urgent_only_notifications"`
	EmailTemplate      string          `json:"email_template,omitempty"`
	EnabledFields      map[string]bool `json:"enabled_fields,omitempty"`
	CreatedBy          string          `json:"created_by,omitempty"`
	Users              []string        `json:"users,omitempty"`
	TeamMembers        []string        `json:"team_members,omitempty"`
	AvailableTags      []string        `json:"available_tags,omitempty"`
	FollowUpDays       int             `json:"follow_up_days"`
	AssignmentRules    *AssignmentRule `json:"assignment_rules,omitempty"`
}

// AssignmentRule configures automatic assignment of new intakes.
// Type is "round_robin" or "practice_area"; the map is only consulted for
// the latter.
type AssignmentRule struct {
	Enabled                 bool              `json:"enabled"`
	Type                    string            `json:"type,omitempty"`
	PracticeAreaAssignments map[string]string `json:"practice_area_assignments,omitempty"`
}

// HasMember reports whether email is on the firm's membership list.
func (f *Firm) HasMember(email string) bool {
	for _, u := range f.Users {
		if u == email {
			return true
		}
	}
	return false
}

// EmailHistory records an outbound (or simulated) email sent about an intake.
// Records are written once and never mutated.
type EmailHistory struct {
	Base
	IntakeID  string `json:"intake_id,omitempty"`
	FirmID    string `json:"firm_id,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body,omitempty"`
	Status    string `json:"status,omitempty"`
	Direction string `json:"direction,omitempty"`
	SentBy    string `json:"sent_by,omitempty"`
}

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"

	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// Message is one chat entry on an intake's thread. Only Read ever changes
// after creation.
type Message struct {
	Base
	IntakeID    string   `json:"intake_id,omitempty"`
	FirmID      string   `json:"firm_id,omitempty"`
	SenderType  string   `json:"sender_type,omitempty"`
	SenderName  string   `json:"sender_name,omitempty"`
	SenderEmail string   `json:"sender_email,omitempty"`
	Content     string   `json:"content,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	Read        bool     `json:"read"`
}

const (
	SenderStaff  = "staff"
	SenderClient = "client"
)

// User is the session identity. It is not stored in the entity document and
// is not a security principal: at most one exists per session.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	FullName    string    `json:"full_name,omitempty"`
	CreatedDate time.Time `json:"created_date,omitzero"`
}
