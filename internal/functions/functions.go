// Package functions dispatches the named server actions (intake scoring,
// email logging, CSV export and a few stubs) either locally against the
// repositories or by POSTing to the backend.
package functions

import (
	"context"
	"encoding/json"
	"fmt"
)

// Function names understood by the dispatcher. Any other name succeeds with
// an empty acknowledgement.
const (
	ProcessIntake       = "processIntake"
	CreateCalendarEvent = "createCalendarEvent"
	SendClientEmail     = "sendClientEmail"
	NotifyStatusChange  = "notifyStatusChange"
	AutoFollowUp        = "autoFollowUp"
	ExportIntakes       = "exportIntakes"
	OCRDocument         = "ocrDocument"
)

// Invoker runs a named function with a JSON-encodable payload.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload any) (*Result, error)
}

// Result is the JSON body a function produced.
type Result struct {
	Data json.RawMessage
}

func newResult(v any) (*Result, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &Result{Data: b}, nil
}

// Decode unmarshals the result body into v.
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.Data, v)
}

// OK reports the body's "ok" field. Bodies without one count as success.
func (r *Result) OK() bool {
	var ack struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(r.Data, &ack); err != nil || ack.OK == nil {
		return true
	}
	return *ack.OK
}

func (r *Result) MarshalJSON() ([]byte, error) {
	if len(r.Data) == 0 {
		return []byte("{}"), nil
	}
	return r.Data, nil
}

// Payloads and results. Field names follow the JSON the backend speaks.

type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type IntakeRef struct {
	IntakeID string `json:"intake_id"`
}

type ProcessIntakeResult struct {
	Ack
	Risk    string   `json:"risk,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Matches []string `json:"matches,omitempty"`
}

type CalendarEventResult struct {
	Ack
	CalendarEventID string `json:"calendar_event_id,omitempty"`
}

// SendEmailPayload accepts the recipient as either "recipient" or "to".
type SendEmailPayload struct {
	IntakeID  string `json:"intake_id"`
	Recipient string `json:"recipient,omitempty"`
	To        string `json:"to,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	SentBy    string `json:"sent_by,omitempty"`
}

type SendEmailResult struct {
	Ack
	EmailHistoryID string `json:"email_history_id,omitempty"`
}

type ExportPayload struct {
	FirmID  string         `json:"firm_id,omitempty"`
	Format  string         `json:"format,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
}

type ExportResult struct {
	Ack
	CSV   string `json:"csv"`
	Count int    `json:"count"`
}

type OCRResult struct {
	Ack
	Text string `json:"text"`
}
