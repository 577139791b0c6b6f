package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeValidate(t *testing.T) {
	tests := []struct {
		name    string
		intake  Intake
		wantErr bool
	}{
		{"empty record", Intake{}, false},
		{"known status", Intake{Status: StatusArchived, AIUrgency: UrgencyHigh, AIRisk: RiskLow}, false},
		{"unknown status", Intake{Status: "closed"}, true},
		{"lowercase risk", Intake{AIRisk: "high"}, true},
		{"unknown urgency", Intake{AIUrgency: "critical"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intake.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageAndEmailValidate(t *testing.T) {
	assert.NoError(t, (&Message{SenderType: SenderClient}).Validate())
	assert.ErrorIs(t, (&Message{SenderType: "bot"}).Validate(), ErrInvalid)
	assert.NoError(t, (&EmailHistory{Status: EmailStatusSent, Direction: DirectionOutbound}).Validate())
	assert.ErrorIs(t, (&EmailHistory{Status: "queued"}).Validate(), ErrInvalid)
	assert.ErrorIs(t, (&Firm{FollowUpDays: -1}).Validate(), ErrInvalid)
}

func TestIntakeSerialisesOnlyCarriedFields(t *testing.T) {
	b, err := json.Marshal(&Intake{Base: Base{ID: "1"}, ClientName: "A,B"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","client_name":"A,B","consent_given":false}`, string(b))

	// read is always present so filtering on read=false finds unread messages
	b, err = json.Marshal(&Message{Content: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"hi","read":false}`, string(b))

	b, err = json.Marshal(&Firm{Name: "Acme"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme","urgent_only_notifications":false,"follow_up_days":0}`, string(b))
}

func TestMembershipAndTags(t *testing.T) {
	f := &Firm{Users: []string{"a@x.com", "b@x.com"}}
	assert.True(t, f.HasMember("b@x.com"))
	assert.False(t, f.HasMember("c@x.com"))

	i := &Intake{Tags: []string{"vip"}}
	assert.True(t, i.HasTag("vip"))
	assert.False(t, i.HasTag("new"))
}
