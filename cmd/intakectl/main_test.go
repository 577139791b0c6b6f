package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lalith-99/intakedesk/internal/auth"
	"github.com/lalith-99/intakedesk/internal/intake"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEntity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intake", models.EntityIntake},
		{"intake", models.EntityIntake},
		{"intakes", models.EntityIntake},
		{"firms", models.EntityFirm},
		{"messages", models.EntityMessage},
		{"email_history", models.EntityEmailHistory},
		{"email-histories", models.EntityEmailHistory},
		{"EmailHistory", models.EntityEmailHistory},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeEntity(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := normalizeEntity("invoices")
	assert.ErrorContains(t, err, "unknown entity")
}

func TestParseWhere(t *testing.T) {
	w, err := parseWhere([]string{"status=new", "read=false", "notes="})
	require.NoError(t, err)
	assert.Equal(t, repository.Where{
		"status": repository.Text("new"),
		"read":   repository.Text("false"),
		"notes":  repository.Text(""),
	}, w)

	_, err = parseWhere([]string{"status"})
	assert.Error(t, err)
	_, err = parseWhere([]string{"=x"})
	assert.Error(t, err)
}

// cli runs commands against a file store in a temp dir. Each call opens and
// closes the store, like separate invocations from a shell.
type cli struct {
	t *testing.T
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("API_BASE_URL", "")
	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("STORE_PATH", filepath.Join(dir, "data"))
	t.Setenv("UPLOAD_STORAGE", "inline")
	t.Setenv("ENV", "development")
	return &cli{t: t}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustJSON(v any, args ...string) {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	require.NoError(c.t, json.Unmarshal([]byte(out), v), out)
}

func TestEntityCommands(t *testing.T) {
	c := newCLI(t)

	var created models.Intake
	c.mustJSON(&created, "create", "intakes", "--data", `{"client_name":"Ana","status":"new","firm_id":"f1"}`)
	require.NotEmpty(t, created.ID)

	var list []models.Intake
	c.mustJSON(&list, "list", "intake", "--where", "firm_id=f1", "--where", "status=new")
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	var updated models.Intake
	c.mustJSON(&updated, "update", "Intake", created.ID, "--data", `{"status":"reviewed"}`)
	assert.Equal(t, models.StatusReviewed, updated.Status)

	_, err := c.run("update", "intakes", created.ID, "--data", `{"status":"closed"}`)
	assert.ErrorIs(t, err, models.ErrInvalid)

	var got models.Intake
	c.mustJSON(&got, "get", "intakes", created.ID)
	assert.Equal(t, "Ana", got.ClientName)

	_, err = c.run("delete", "intakes", created.ID)
	require.NoError(t, err)
	_, err = c.run("get", "intakes", created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = c.run("list", "invoices")
	assert.ErrorContains(t, err, "unknown entity")
}

func TestSessionCommandsPersist(t *testing.T) {
	c := newCLI(t)

	var first, second models.User
	c.mustJSON(&first, "me")
	c.mustJSON(&second, "me")
	assert.Equal(t, auth.DemoEmail, first.Email)
	assert.Equal(t, first.ID, second.ID)

	var lee models.User
	c.mustJSON(&lee, "login", "--email", "lee@firm.test", "--name", "Lee")
	var me models.User
	c.mustJSON(&me, "me")
	assert.Equal(t, lee.ID, me.ID)

	out, err := c.run("logout")
	require.NoError(t, err)
	assert.Equal(t, "/\n", out)
}

func TestSubmitStatsExport(t *testing.T) {
	c := newCLI(t)

	var firm models.Firm
	c.mustJSON(&firm, "create", "firms", "--data", `{"name":"Acme Law","slug":"acme"}`)

	sub, err := json.Marshal(intake.Submission{
		ClientName:       "Bo",
		ClientEmail:      "bo@example.com",
		IssueDescription: "custody question",
		ConsentGiven:     true,
	})
	require.NoError(t, err)

	var in models.Intake
	c.mustJSON(&in, "submit", "acme", "--data", string(sub))
	assert.Equal(t, firm.ID, in.FirmID)
	assert.Equal(t, models.StatusNew, in.Status)
	assert.NotEmpty(t, in.AIRisk, "scored on submit")

	_, err = c.run("submit", "nope", "--data", string(sub))
	assert.ErrorIs(t, err, intake.ErrFirmNotFound)

	var st intake.Stats
	c.mustJSON(&st, "stats", firm.ID)
	assert.Equal(t, 1, st.Total)

	out, err := c.run("export", "--firm-id", firm.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Bo")

	path := filepath.Join(t.TempDir(), "intakes.csv")
	_, err = c.run("export", "--firm-id", firm.ID, "--out", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(b))
}

func TestInvokeAndUpload(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("invoke", "somethingElse")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, out)

	out, err = c.run("invoke", "processIntake", "--payload", `{"intake_id":"ghost"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"Intake not found"}`, out)

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o600))
	out, err = c.run("upload", path)
	require.NoError(t, err)
	assert.Equal(t, "data:text/plain;base64,aGk=", strings.TrimSpace(out))
}

func TestWorkflowCommands(t *testing.T) {
	c := newCLI(t)

	var firm models.Firm
	c.mustJSON(&firm, "create", "firms", "--data", `{"name":"Acme Law","slug":"acme","follow_up_days":2}`)
	var a, b models.Intake
	c.mustJSON(&a, "create", "intakes", "--data", `{"firm_id":"`+firm.ID+`","client_name":"Ana","client_email":"ana@example.com","status":"new"}`)
	c.mustJSON(&b, "create", "intakes", "--data", `{"firm_id":"`+firm.ID+`","client_name":"Bo","status":"new"}`)

	// Each result decodes into a fresh value; omitted fields must read as empty.
	intakeOf := func(args ...string) models.Intake {
		t.Helper()
		var v models.Intake
		c.mustJSON(&v, args...)
		return v
	}

	got := intakeOf("status", a.ID, models.StatusUrgent)
	assert.Equal(t, models.StatusUrgent, got.Status)
	_, err := c.run("status", a.ID, "closed")
	assert.ErrorIs(t, err, models.ErrInvalid)

	var bulk map[string]int
	c.mustJSON(&bulk, "bulk", intake.BulkTag, "vip", a.ID, b.ID)
	assert.Equal(t, map[string]int{"updated": 2}, bulk)
	_, err = c.run("bulk", intake.BulkAssign, "lee@firm.test", a.ID, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got = intakeOf("tag", a.ID, "callback")
	assert.Equal(t, []string{"vip", "callback"}, got.Tags)
	got = intakeOf("untag", a.ID, "vip")
	assert.Equal(t, []string{"callback"}, got.Tags)

	got = intakeOf("assign", a.ID, "lee@firm.test")
	assert.Equal(t, "lee@firm.test", got.AssignedTo)
	got = intakeOf("assign", a.ID)
	assert.Empty(t, got.AssignedTo)

	got = intakeOf("notes", a.ID, "left voicemail")
	assert.Equal(t, "left voicemail", got.InternalNotes)

	got = intakeOf("follow-up", a.ID, "--date", "2030-01-15")
	assert.Equal(t, "2030-01-15", got.NextFollowUpDate)
	_, err = c.run("follow-up", a.ID, "--date", "15/01/2030")
	assert.ErrorIs(t, err, models.ErrInvalid)
	got = intakeOf("follow-up", a.ID)
	assert.NotEqual(t, "2030-01-15", got.NextFollowUpDate)
}

func TestThreadAndPortalCommands(t *testing.T) {
	c := newCLI(t)

	var in models.Intake
	c.mustJSON(&in, "create", "intakes", "--data", `{"client_name":"Ana","client_email":"ana@example.com"}`)

	var m models.Message
	c.mustJSON(&m, "message", in.ID, "--as", "client", "--content", "any news?")
	assert.Equal(t, "Ana", m.SenderName)
	assert.Equal(t, "ana@example.com", m.SenderEmail)
	c.mustJSON(&m, "message", in.ID, "--content", "working on it", "--name", "Lee")
	assert.Equal(t, models.SenderStaff, m.SenderType)

	_, err := c.run("message", in.ID)
	assert.ErrorIs(t, err, models.ErrInvalid)

	var marked map[string]int
	c.mustJSON(&marked, "read", in.ID, "--as", "staff")
	assert.Equal(t, map[string]int{"marked": 1}, marked)
	c.mustJSON(&marked, "read", in.ID, "--as", "staff")
	assert.Equal(t, map[string]int{"marked": 0}, marked)

	var thread []models.Message
	c.mustJSON(&thread, "thread", in.ID)
	require.Len(t, thread, 2)
	for _, msg := range thread {
		assert.Equal(t, msg.SenderType == models.SenderClient, msg.Read, msg.Content)
	}

	var p intake.Portal
	c.mustJSON(&p, "portal", in.ID, "--email", "ANA@example.com")
	assert.Equal(t, in.ID, p.Intake.ID)
	_, err = c.run("portal", in.ID, "--email", "eve@example.com")
	assert.ErrorIs(t, err, intake.ErrAccessDenied)

	var res intake.PurgeResult
	c.mustJSON(&res, "purge", in.ID)
	assert.Equal(t, intake.PurgeResult{Messages: 2}, res)
	_, err = c.run("get", "intakes", in.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	c.mustJSON(&thread, "thread", in.ID)
	assert.Empty(t, thread)
}
