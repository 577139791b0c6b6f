package models

// Intake is one prospective client's form submission and everything staff
// and the triage heuristic later attach to it. FirmID ties it to exactly one
// Firm.
//
// Status is not a state machine: any status may follow any other.
type Intake struct {
	Base
	FirmID              string         `json:"firm_id,omitempty"`
	ClientName          string         `json:"client_name,omitempty"`
	ClientEmail         string         `json:"client_email,omitempty"`
	ClientPhone         string         `json:"client_phone,omitempty"`
	PracticeArea        string         `json:"practice_area,omitempty"`
	AIPracticeArea      string         `json:"ai_practice_area,omitempty"`
	IssueDescription    string         `json:"issue_description,omitempty"`
	IssueSummary        string         `json:"issue_summary,omitempty"`
	Timeline            string         `json:"timeline,omitempty"`
	DeadlineDate        string         `json:"deadline_date,omitempty"`
	DeadlineDescription string         `json:"deadline_description,omitempty"`
	FileURLs            []string       `json:"file_urls,omitempty"`
	ConsentGiven        bool           `json:"consent_given"`
	Status              string         `json:"status,omitempty"`
	AISummary           string         `json:"ai_summary,omitempty"`
	AIUrgency           string         `json:"ai_urgency,omitempty"`
	AIRisk              string         `json:"ai_risk,omitempty"`
	AINextSteps         string         `json:"ai_next_steps,omitempty"`
	AISentiment         *Sentiment     `json:"ai_sentiment,omitempty"`
	AIConflictCheck     *ConflictCheck `json:"ai_conflict_check,omitempty"`
	AIDraftEmail        string         `json:"ai_draft_email,omitempty"`
	Tags                []string       `json:"tags,omitempty"`
	AssignedTo          string         `json:"assigned_to,omitempty"`
	LeadScore           *int           `json:"lead_score,omitempty"`
	NextFollowUpDate    string         `json:"next_follow_up_date,omitempty"`
	InternalNotes       string         `json:"internal_notes,omitempty"`
}

// Intake statuses.
const (
	StatusNew      = "new"
	StatusUrgent   = "urgent"
	StatusReviewed = "reviewed"
	StatusArchived = "archived"
)

// AI urgency levels as stored on ai_urgency.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// Triage risk levels as stored on ai_risk.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

type Sentiment struct {
	Level       string `json:"level,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

type ConflictCheck struct {
	HasConflict bool   `json:"has_conflict"`
	Details     string `json:"details,omitempty"`
}

// HasTag reports whether tag is already on the intake.
func (i *Intake) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
