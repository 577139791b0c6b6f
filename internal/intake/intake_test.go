package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lalith-99/intakedesk/internal/docstore"
	"github.com/lalith-99/intakedesk/internal/functions"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"github.com/lalith-99/intakedesk/internal/repository/local"
	"github.com/lalith-99/intakedesk/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type fixture struct {
	svc      *Service
	clock    *clock
	firms    *local.Repository[models.Firm]
	intakes  *local.Repository[models.Intake]
	emails   *local.Repository[models.EmailHistory]
	messages *local.Repository[models.Message]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{t: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
	store := local.NewStore(docstore.NewMemoryBackend(), zap.NewNop(), local.WithClock(c.now))

	f := &fixture{
		clock:    c,
		firms:    local.NewRepository[models.Firm](store, models.EntityFirm),
		intakes:  local.NewRepository[models.Intake](store, models.EntityIntake),
		emails:   local.NewRepository[models.EmailHistory](store, models.EntityEmailHistory),
		messages: local.NewRepository[models.Message](store, models.EntityMessage),
	}
	fn := functions.NewLocal(f.intakes, f.emails, triage.NewClassifier(triage.DefaultRules()), zap.NewNop())
	f.svc = NewService(f.firms, f.intakes, f.emails, f.messages, fn, zap.NewNop())
	f.svc.now = c.now
	return f
}

func (f *fixture) firm(t *testing.T, firm models.Firm) *models.Firm {
	t.Helper()
	saved, err := f.firms.Create(context.Background(), &firm)
	require.NoError(t, err)
	return saved
}

func (f *fixture) intake(t *testing.T, in models.Intake) *models.Intake {
	t.Helper()
	saved, err := f.intakes.Create(context.Background(), &in)
	require.NoError(t, err)
	return saved
}

func TestSubmitScoresNewIntake(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	firm := f.firm(t, models.Firm{Name: "Acme Law", Slug: "acme"})

	in, err := f.svc.Submit(ctx, "acme", Submission{
		ClientName:       "Dana",
		ClientEmail:      "dana@example.com",
		IssueDescription: "There is an eviction and a court deadline",
		ConsentGiven:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, firm.ID, in.FirmID)
	assert.Equal(t, models.StatusNew, in.Status)
	assert.True(t, in.ConsentGiven)
	assert.Equal(t, models.RiskHigh, in.AIRisk)
	assert.Equal(t, "Summary: There is an eviction and a court deadline", in.AISummary)
}

func TestSubmitRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.firm(t, models.Firm{Slug: "acme"})

	_, err := f.svc.Submit(ctx, "nobody", Submission{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrFirmNotFound)

	_, err = f.svc.Submit(ctx, "", Submission{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrFirmNotFound)

	_, err = f.svc.Submit(ctx, "acme", Submission{ClientName: "No consent"})
	assert.ErrorIs(t, err, ErrConsentRequired)

	all, err := f.intakes.Filter(ctx, nil, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmitSharedSlugUsesFirstMatch(t *testing.T) {
	f := newFixture(t)
	f.firm(t, models.Firm{Name: "Older", Slug: "shared"})
	newer := f.firm(t, models.Firm{Name: "Newer", Slug: "shared"})

	in, err := f.svc.Submit(context.Background(), "shared", Submission{ConsentGiven: true})
	require.NoError(t, err)
	assert.Equal(t, newer.ID, in.FirmID, "collections are newest first")
}

type failingInvoker struct{}

func (failingInvoker) Invoke(context.Context, string, any) (*functions.Result, error) {
	return nil, errors.New("backend down")
}

func TestSubmitSurvivesTriageFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.fn = failingInvoker{}
	f.firm(t, models.Firm{Slug: "acme"})

	in, err := f.svc.Submit(context.Background(), "acme", Submission{ConsentGiven: true, IssueDescription: "custody"})
	require.NoError(t, err)
	assert.NotEmpty(t, in.ID)
	assert.Empty(t, in.AIRisk)
}

func TestSubmitRoundRobin(t *testing.T) {
	f := newFixture(t)
	f.firm(t, models.Firm{
		Slug:            "rr",
		TeamMembers:     []string{"a@firm.test", "b@firm.test"},
		AssignmentRules: &models.AssignmentRule{Enabled: true, Type: "round_robin"},
	})

	var got []string
	for range 3 {
		in, err := f.svc.Submit(context.Background(), "rr", Submission{ConsentGiven: true})
		require.NoError(t, err)
		got = append(got, in.AssignedTo)
	}
	assert.Equal(t, []string{"a@firm.test", "b@firm.test", "a@firm.test"}, got)
}

func TestSubmitPracticeAreaAssignment(t *testing.T) {
	f := newFixture(t)
	f.firm(t, models.Firm{
		Slug: "pa",
		AssignmentRules: &models.AssignmentRule{
			Enabled:                 true,
			Type:                    "practice_area",
			PracticeAreaAssignments: map[string]string{"Family Law": "fam@firm.test"},
		},
	})

	in, err := f.svc.Submit(context.Background(), "pa", Submission{ConsentGiven: true, PracticeArea: "Family Law"})
	require.NoError(t, err)
	assert.Equal(t, "fam@firm.test", in.AssignedTo)

	in, err = f.svc.Submit(context.Background(), "pa", Submission{ConsentGiven: true, PracticeArea: "Tax"})
	require.NoError(t, err)
	assert.Empty(t, in.AssignedTo)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := f.intake(t, models.Intake{Status: models.StatusNew})

	got, err := f.svc.SetStatus(ctx, in.ID, models.StatusArchived)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, got.Status)

	got, err = f.svc.SetStatus(ctx, in.ID, models.StatusNew)
	require.NoError(t, err, "any status may follow any other")
	assert.Equal(t, models.StatusNew, got.Status)

	_, err = f.svc.SetStatus(ctx, in.ID, "closed")
	assert.ErrorIs(t, err, models.ErrInvalid)

	_, err = f.svc.SetStatus(ctx, "ghost", models.StatusReviewed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBulk(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.intake(t, models.Intake{Tags: []string{"vip"}})
	b := f.intake(t, models.Intake{})

	n, err := f.svc.Bulk(ctx, []string{a.ID, b.ID}, BulkAction{Kind: BulkTag, Value: "vip"})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "already tagged intake is left alone")

	n, err = f.svc.Bulk(ctx, []string{a.ID, b.ID}, BulkAction{Kind: BulkStatus, Value: models.StatusReviewed})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.Bulk(ctx, []string{a.ID, b.ID}, BulkAction{Kind: BulkAssign, Value: "lee@firm.test"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{a.ID, b.ID} {
		got, err := f.intakes.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"vip"}, got.Tags)
		assert.Equal(t, models.StatusReviewed, got.Status)
		assert.Equal(t, "lee@firm.test", got.AssignedTo)
	}

	_, err = f.svc.Bulk(ctx, []string{a.ID}, BulkAction{Kind: "delete"})
	assert.ErrorIs(t, err, models.ErrInvalid)

	n, err = f.svc.Bulk(ctx, []string{a.ID, "ghost", b.ID}, BulkAction{Kind: BulkAssign, Value: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, n)
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := f.intake(t, models.Intake{Tags: []string{"a"}})

	got, err := f.svc.AddTag(ctx, in.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)

	got, err = f.svc.AddTag(ctx, in.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)

	got, err = f.svc.RemoveTag(ctx, in.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Tags)

	_, err = f.svc.AddTag(ctx, "ghost", "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotesAndFollowUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	firm := f.firm(t, models.Firm{FollowUpDays: 5})
	in := f.intake(t, models.Intake{FirmID: firm.ID})

	got, err := f.svc.SetNotes(ctx, in.ID, "called back")
	require.NoError(t, err)
	assert.Equal(t, "called back", got.InternalNotes)

	got, err = f.svc.ScheduleFollowUp(ctx, in.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-07", got.NextFollowUpDate)

	got, err = f.svc.ScheduleFollowUp(ctx, in.ID, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01", got.NextFollowUpDate)
}

func TestMessageThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := f.intake(t, models.Intake{FirmID: "firm-1", ClientName: "Dana", ClientEmail: "dana@example.com"})

	m, err := f.svc.PostMessage(ctx, in.ID, NewMessage{SenderType: models.SenderClient, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Dana", m.SenderName)
	assert.Equal(t, "dana@example.com", m.SenderEmail)
	assert.Equal(t, "firm-1", m.FirmID)
	assert.False(t, m.Read)

	_, err = f.svc.PostMessage(ctx, in.ID, NewMessage{SenderType: models.SenderClient, Content: "are you there?"})
	require.NoError(t, err)
	_, err = f.svc.PostMessage(ctx, in.ID, NewMessage{SenderType: models.SenderStaff, SenderName: "Lee", Content: "yes"})
	require.NoError(t, err)

	_, err = f.svc.PostMessage(ctx, in.ID, NewMessage{SenderType: models.SenderStaff, Content: "  "})
	assert.ErrorIs(t, err, models.ErrInvalid)
	_, err = f.svc.PostMessage(ctx, "ghost", NewMessage{SenderType: models.SenderStaff, Content: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := f.svc.MarkThreadRead(ctx, in.ID, models.SenderStaff)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.MarkThreadRead(ctx, in.ID, models.SenderStaff)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing left unread")

	thread, err := f.svc.Thread(ctx, in.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	for _, m := range thread {
		assert.Equal(t, m.SenderType == models.SenderClient, m.Read, m.Content)
	}

	_, err = f.svc.MarkThreadRead(ctx, in.ID, "bot")
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestPortalAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := f.intake(t, models.Intake{ClientEmail: "Dana@Example.com"})
	_, err := f.emails.Create(ctx, &models.EmailHistory{IntakeID: in.ID, Subject: "first"})
	require.NoError(t, err)
	f.clock.t = f.clock.t.Add(time.Minute)
	_, err = f.emails.Create(ctx, &models.EmailHistory{IntakeID: in.ID, Subject: "second"})
	require.NoError(t, err)
	_, err = f.emails.Create(ctx, &models.EmailHistory{IntakeID: "other", Subject: "not mine"})
	require.NoError(t, err)

	p, err := f.svc.PortalAccess(ctx, in.ID, " dana@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, in.ID, p.Intake.ID)
	require.Len(t, p.Emails, 2)
	assert.Equal(t, "second", p.Emails[0].Subject)

	_, err = f.svc.PortalAccess(ctx, in.ID, "someone@else.com")
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.PortalAccess(ctx, "ghost", "dana@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := f.clock.t

	f.clock.t = day.AddDate(0, 0, -40)
	f.intake(t, models.Intake{FirmID: "f1", Status: models.StatusReviewed})

	f.clock.t = day.AddDate(0, 0, -1)
	f.intake(t, models.Intake{FirmID: "f1", Status: models.StatusUrgent, PracticeArea: "Tax"})
	f.intake(t, models.Intake{FirmID: "f1", Status: models.StatusReviewed, AIUrgency: models.UrgencyHigh, AIPracticeArea: "Family Law", PracticeArea: "Tax"})

	f.clock.t = day
	f.intake(t, models.Intake{FirmID: "f1", Status: models.StatusArchived, AIUrgency: models.UrgencyLow})
	f.intake(t, models.Intake{FirmID: "other", Status: models.StatusReviewed})

	st, err := f.svc.Stats(ctx, "f1", day.AddDate(0, 0, -30))
	require.NoError(t, err)

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Urgent)
	assert.Equal(t, 2, st.Reviewed)
	assert.Equal(t, 67, st.ResponseRate)
	assert.Equal(t, map[string]int{"Tax": 1, "Family Law": 1, "Unknown": 1}, st.ByPracticeArea)
	assert.Equal(t, map[string]int{"high": 1, "low": 1}, st.ByUrgency)
	assert.Equal(t, []DayCount{{Date: "2025-06-01", Intakes: 2}, {Date: "2025-06-02", Intakes: 1}}, st.ByDay)

	all, err := f.svc.Stats(ctx, "f1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)

	none, err := f.svc.Stats(ctx, "nobody", time.Time{})
	require.NoError(t, err)
	assert.Zero(t, none.ResponseRate)
	assert.Empty(t, none.ByDay)
}

type removedFiles []string

func (r *removedFiles) Remove(_ context.Context, fileURL string) error {
	*r = append(*r, fileURL)
	return nil
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var removed removedFiles
	WithFiles(&removed)(f.svc)

	in := f.intake(t, models.Intake{ClientName: "Eve", FileURLs: []string{"/api/files/a.pdf"}})
	keep := f.intake(t, models.Intake{ClientName: "Kept"})

	_, err := f.svc.PostMessage(ctx, in.ID, NewMessage{SenderType: models.SenderClient, Content: "scan", Attachments: []string{"/api/files/b.png"}})
	require.NoError(t, err)
	_, err = f.svc.PostMessage(ctx, keep.ID, NewMessage{SenderType: models.SenderStaff, Content: "hello"})
	require.NoError(t, err)
	_, err = f.emails.Create(ctx, &models.EmailHistory{IntakeID: in.ID, Subject: "received"})
	require.NoError(t, err)

	res, err := f.svc.Purge(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Messages: 1, Emails: 1, Files: 2}, *res)
	assert.ElementsMatch(t, []string{"/api/files/a.pdf", "/api/files/b.png"}, []string(removed))

	got, err := f.intakes.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	thread, err := f.svc.Thread(ctx, in.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)

	thread, err = f.svc.Thread(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 1)

	_, err = f.svc.Purge(ctx, in.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
