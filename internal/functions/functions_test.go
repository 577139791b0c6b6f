package functions

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lalith-99/intakedesk/internal/docstore"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository/local"
	"github.com/lalith-99/intakedesk/internal/repository/remote"
	"github.com/lalith-99/intakedesk/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	intakes *local.Repository[models.Intake]
	emails  *local.Repository[models.EmailHistory]
	fn      *Local
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := local.NewStore(docstore.NewMemoryBackend(), zap.NewNop())
	f := &fixture{
		intakes: local.NewRepository[models.Intake](store, models.EntityIntake),
		emails:  local.NewRepository[models.EmailHistory](store, models.EntityEmailHistory),
	}
	f.fn = NewLocal(f.intakes, f.emails, triage.NewClassifier(triage.DefaultRules()), zap.NewNop())
	return f
}

func (f *fixture) intake(t *testing.T, in models.Intake) *models.Intake {
	t.Helper()
	saved, err := f.intakes.Create(context.Background(), &in)
	require.NoError(t, err)
	return saved
}

func TestProcessIntakeScoresAndSummarises(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := f.intake(t, models.Intake{IssueDescription: "There is an eviction and a court deadline"})

	res, err := f.fn.Invoke(ctx, ProcessIntake, IntakeRef{IntakeID: in.ID})
	require.NoError(t, err)
	require.True(t, res.OK())

	var out ProcessIntakeResult
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, models.RiskHigh, out.Risk)
	assert.Equal(t, "Summary: There is an eviction and a court deadline", out.Summary)

	stored, err := f.intakes.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, stored.AIRisk)
	assert.Equal(t, out.Summary, stored.AISummary)
	assert.True(t, stored.UpdatedDate.After(in.UpdatedDate))
}

func TestProcessIntakeCountsNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := f.intake(t, models.Intake{
		IssueDescription: "Custody dispute",
		InternalNotes:    "client says police were called",
		AISummary:        "Existing summary",
	})

	res, err := f.fn.Invoke(ctx, ProcessIntake, map[string]any{"intake_id": in.ID})
	require.NoError(t, err)

	var out ProcessIntakeResult
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, models.RiskMedium, out.Risk)
	assert.Equal(t, "Existing summary", out.Summary, "existing summary is kept")
}

func TestProcessIntakeFallbackSummary(t *testing.T) {
	f := newFixture(t)
	in := f.intake(t, models.Intake{ClientName: "No text"})

	res, err := f.fn.Invoke(context.Background(), ProcessIntake, IntakeRef{IntakeID: in.ID})
	require.NoError(t, err)

	var out ProcessIntakeResult
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, models.RiskLow, out.Risk)
	assert.Equal(t, "Summary: Intake received.", out.Summary)
}

func TestProcessIntakeMissingReportsFailure(t *testing.T) {
	f := newFixture(t)

	res, err := f.fn.Invoke(context.Background(), ProcessIntake, IntakeRef{IntakeID: "ghost"})
	require.NoError(t, err, "missing intake is not an error")
	assert.False(t, res.OK())
}

func TestProcessIntakeMalformedPayloadIsError(t *testing.T) {
	f := newFixture(t)
	_, err := f.fn.Invoke(context.Background(), ProcessIntake, json.RawMessage(`{"intake_id": 7}`))
	assert.ErrorIs(t, err, models.ErrInvalid)
	assert.ErrorContains(t, err, "decode payload")
}

func TestSendClientEmailRecordsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := f.intake(t, models.Intake{FirmID: "firm-1", ClientEmail: "client@example.com"})

	res, err := f.fn.Invoke(ctx, SendClientEmail, SendEmailPayload{
		IntakeID: in.ID,
		Subject:  "Next steps",
		Body:     "Please call us",
	})
	require.NoError(t, err)

	var out SendEmailResult
	require.NoError(t, res.Decode(&out))
	require.True(t, out.OK)

	rec, err := f.emails.Get(ctx, out.EmailHistoryID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.EmailStatusSent, rec.Status)
	assert.Equal(t, models.DirectionOutbound, rec.Direction)
	assert.Equal(t, "client@example.com", rec.Recipient, "defaults to the intake's client email")
	assert.Equal(t, "firm-1", rec.FirmID)
}

func TestSendClientEmailAcceptsTo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.fn.Invoke(ctx, SendClientEmail, map[string]any{"intake_id": "x", "to": "a@b.c", "subject": "s"})
	require.NoError(t, err)

	var out SendEmailResult
	require.NoError(t, res.Decode(&out))
	rec, err := f.emails.Get(ctx, out.EmailHistoryID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", rec.Recipient)
}

func TestStubs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.fn.Invoke(ctx, CreateCalendarEvent, nil)
	require.NoError(t, err)
	var cal CalendarEventResult
	require.NoError(t, res.Decode(&cal))
	assert.True(t, cal.OK)
	assert.NotEmpty(t, cal.CalendarEventID)

	for _, name := range []string{NotifyStatusChange, AutoFollowUp, "somethingElse"} {
		res, err := f.fn.Invoke(ctx, name, map[string]string{"intake_id": "1"})
		require.NoError(t, err, name)
		assert.JSONEq(t, `{"ok":true}`, string(res.Data), name)
	}

	res, err = f.fn.Invoke(ctx, OCRDocument, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"text":""}`, string(res.Data))
}

func TestExportIntakes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.intake(t, models.Intake{FirmID: "f1", ClientName: "Older"})
	f.intake(t, models.Intake{FirmID: "f2", ClientName: "Other firm"})
	f.intake(t, models.Intake{FirmID: "f1", ClientName: "Newer, Jr."})

	res, err := f.fn.Invoke(ctx, ExportIntakes, ExportPayload{FirmID: "f1"})
	require.NoError(t, err)

	var out ExportResult
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, 2, out.Count)

	lines := strings.Split(out.CSV, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,created_date,updated_date,firm_id,client_name,consent_given", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], `,"f1","Newer, Jr.",false`), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], `,"f1","Older",false`), lines[2])
}

func TestExportIntakesEmpty(t *testing.T) {
	f := newFixture(t)
	res, err := f.fn.Invoke(context.Background(), ExportIntakes, nil)
	require.NoError(t, err)

	var out ExportResult
	require.NoError(t, res.Decode(&out))
	assert.True(t, out.OK)
	assert.Equal(t, "id", out.CSV, "an empty export is the bare header")
	assert.Zero(t, out.Count)
}

func TestExportIntakesKeepsHTMLCharacters(t *testing.T) {
	f := newFixture(t)
	f.intake(t, models.Intake{FirmID: "f1", ClientName: "Smith & Jones <LLP>"})

	res, err := f.fn.Invoke(context.Background(), ExportIntakes, ExportPayload{FirmID: "f1"})
	require.NoError(t, err)

	var out ExportResult
	require.NoError(t, res.Decode(&out))
	assert.Contains(t, out.CSV, `"Smith & Jones <LLP>"`)
	assert.NotContains(t, out.CSV, `\u0026`)
}

func TestBuildCSV(t *testing.T) {
	csv, err := BuildCSV([]json.RawMessage{
		json.RawMessage(`{"id":"1","client_name":"A,B"}`),
		json.RawMessage(`{"id":"2","client_name":"C"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "id,client_name\n\"1\",\"A,B\"\n\"2\",\"C\"", csv)
}

func TestBuildCSVEscapes(t *testing.T) {
	csv, err := BuildCSV([]json.RawMessage{
		json.RawMessage(`{"a":"x \u0026 y \u003cz\u003e","b":"back\\u0026slash","c":{"k":"\u003e","j":1.50}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n\"x & y <z>\",\"back\\\\u0026slash\",{\"k\":\">\",\"j\":1.50}", csv)
}

func TestBuildCSVFollowsFirstRecord(t *testing.T) {
	csv, err := BuildCSV([]json.RawMessage{
		json.RawMessage(`{"b":1,"a":"say \"hi\""}`),
		json.RawMessage(`{"a":null,"c":true}`),
		json.RawMessage(`{"b":[1, 2]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "b,a\n1,\"say \\\"hi\\\"\"\n\"\",\"\"\n[1,2],\"\"", csv)
}

func TestResultOK(t *testing.T) {
	assert.True(t, (&Result{Data: json.RawMessage(`{"ok":true}`)}).OK())
	assert.False(t, (&Result{Data: json.RawMessage(`{"ok":false}`)}).OK())
	assert.True(t, (&Result{Data: json.RawMessage(`{"data":1}`)}).OK())
	assert.True(t, (&Result{Data: json.RawMessage(`[]`)}).OK())
}

func TestRemoteInvokePostsToFunctionEndpoint(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"risk":"High"}`)
	}))
	defer srv.Close()

	client, err := remote.NewClient(srv.URL, zap.NewNop())
	require.NoError(t, err)

	res, err := NewRemote(client).Invoke(context.Background(), ProcessIntake, IntakeRef{IntakeID: "i-1"})
	require.NoError(t, err)

	assert.Equal(t, "POST /api/functions/processIntake", gotPath)
	assert.JSONEq(t, `{"intake_id":"i-1"}`, gotBody)
	var out ProcessIntakeResult
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, "High", out.Risk)
}

func TestRemoteInvokeSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := remote.NewClient(srv.URL, zap.NewNop())
	require.NoError(t, err)

	_, err = NewRemote(client).Invoke(context.Background(), ExportIntakes, nil)
	assert.True(t, remote.IsStatus(err, http.StatusBadGateway))
}
