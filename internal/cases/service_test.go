package cases_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbfs "github.com/garnizeh/a11ymon/db"
	"github.com/garnizeh/a11ymon/internal/cases"
	"github.com/garnizeh/a11ymon/internal/clock"
	dbpkg "github.com/garnizeh/a11ymon/internal/db"
	"github.com/garnizeh/a11ymon/internal/export"
	"github.com/garnizeh/a11ymon/internal/history"
	"github.com/garnizeh/a11ymon/internal/overdue"
	"github.com/garnizeh/a11ymon/internal/repository/sqlite"
	"github.com/garnizeh/a11ymon/internal/schedule"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

var today = models.MustDate("2024-06-10")

type fixture struct {
	svc   *cases.Service
	store *sqlite.SQLiteRepo
	alice int64
	bob   int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, dbpkg.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles))

	store := sqlite.New(d, nil)
	svc := cases.New(store, schedule.New(schedule.DefaultOffsets()), export.NewGate(nil), clock.Fixed(today), nil)

	f := &fixture{svc: svc, store: store}
	alice, err := svc.CreateUser(ctx, &models.User{DisplayName: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := svc.CreateUser(ctx, &models.User{DisplayName: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	f.alice, f.bob = alice.ID, bob.ID
	return f
}

func (f *fixture) ctx() context.Context {
	return repository.WithActor(context.Background(), f.alice)
}

func (f *fixture) update(t *testing.T, c *models.Case, mutate func(*models.Case)) *models.Case {
	t.Helper()
	out, err := f.svc.UpdateCase(f.ctx(), c.ID, c.Version, func(c *models.Case) error {
		mutate(c)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestS1_FreshCase(t *testing.T) {
	f := setup(t)
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("A", "https://a.example"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnassigned, c.Status)
	assert.Equal(t, "a.example", c.Domain)

	c = f.update(t, c, func(c *models.Case) { c.AuditorID = &f.alice })
	assert.Equal(t, models.StatusTestInProgress, c.Status)

	stored, err := f.svc.GetCase(f.ctx(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTestInProgress, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func reportReady(t *testing.T, f *fixture) *models.Case {
	t.Helper()
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("Org", "https://www.council.gov.uk/home"))
	require.NoError(t, err)
	return f.update(t, c, func(c *models.Case) {
		c.AuditorID = &f.alice
		c.ReviewerID = &f.bob
		c.Compliance.WebsiteComplianceStateInitial = models.WebsiteComplianceCompliant
		c.Compliance.StatementComplianceStateInitial = models.StatementComplianceCompliant
		c.ReportReviewStatus = models.Yes
		c.ReportApprovedStatus = models.ReportApproved
	})
}

func TestS2_ReportReadyAndFollowups(t *testing.T) {
	f := setup(t)
	c := reportReady(t, f)
	assert.Equal(t, models.StatusReportReadyToSend, c.Status)
	assert.Equal(t, models.QAStatusApproved, c.QAStatus)
	assert.Equal(t, "council.gov.uk", c.Domain)

	c = f.update(t, c, func(c *models.Case) { c.ReportSentDate = models.MustDate("2024-03-01").Ptr() })
	assert.Equal(t, models.StatusInReportCorrespondence, c.Status)
	assert.Equal(t, "2024-03-08", c.FollowupWeek1Due.String())
	assert.Equal(t, "2024-03-29", c.FollowupWeek4Due.String())
	assert.Equal(t, "2024-05-24", c.FollowupWeek12Due.String())

	stored, err := f.svc.GetCase(f.ctx(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-24", stored.FollowupWeek12Due.String())
}

func TestReportApprovedCreatesTask(t *testing.T) {
	f := setup(t)
	reportReady(t, f)

	list, err := f.store.ListTasks(f.ctx(), f.alice, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.TaskReportApproved, list[0].Type)
	assert.Equal(t, today, list[0].Date)
}

func TestS5_CloseSendBlocked(t *testing.T) {
	f := setup(t)
	c := reportReady(t, f)
	c = f.update(t, c, func(c *models.Case) {
		c.ReportSentDate = models.MustDate("2024-03-01").Ptr()
		c.ReportAcknowledgedDate = models.MustDate("2024-03-02").Ptr()
		c.TwelveWeekUpdateRequestedDate = models.MustDate("2024-05-24").Ptr()
		c.TwelveWeekCorrespondenceAcknowledgedDate = models.MustDate("2024-05-30").Ptr()
		c.IsReadyForFinalDecision = models.Yes
	})
	require.Equal(t, models.StatusFinalDecisionDue, c.Status)

	_, err := f.svc.UpdateCase(f.ctx(), c.ID, c.Version, func(c *models.Case) error {
		c.CaseCompleted = models.CaseCompletedCompleteSend
		return nil
	})
	require.Error(t, err)
	assert.True(t, models.IsExportBlocked(err))
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, models.ExportBlockedMessage, ve.Message)
	assert.Contains(t, ve.Fields, "Sector")

	stored, err := f.svc.GetCase(f.ctx(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinalDecisionDue, stored.Status)
	assert.Equal(t, models.CaseCompletedNoDecision, stored.CaseCompleted)
	assert.Equal(t, c.Version, stored.Version)
	assert.Nil(t, stored.CompletedDate)

	missing, err := f.svc.ExportReadiness(f.ctx(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, ve.Fields, missing)

	// fill everything and retry
	c = f.update(t, stored, func(c *models.Case) {
		c.Sector = "Local government"
		c.PSBLocation = models.PSBLocationWales
		c.Compliance.WebsiteComplianceState12Week = models.WebsiteComplianceCompliant
		c.Compliance.StatementComplianceState12Week = models.StatementComplianceCompliant
		c.CaseCompleted = models.CaseCompletedCompleteSend
	})
	assert.Equal(t, models.StatusCaseClosedWaitingToSend, c.Status)
	require.NotNil(t, c.CompletedDate)
	assert.Equal(t, today, *c.CompletedDate)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(f.ctx(), &buf, nil))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Local government")
}

func TestCompletedDateNeverOverwritten(t *testing.T) {
	f := setup(t)
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("A", ""))
	require.NoError(t, err)

	c = f.update(t, c, func(c *models.Case) { c.CaseCompleted = models.CaseCompletedCompleteNoSend })
	require.NotNil(t, c.CompletedDate)
	first := *c.CompletedDate

	c = f.update(t, c, func(c *models.Case) {
		c.CaseCompleted = models.CaseCompletedNoDecision
		c.CompletedDate = models.MustDate("2000-01-01").Ptr()
	})
	c = f.update(t, c, func(c *models.Case) { c.CaseCompleted = models.CaseCompletedCompleteNoSend })
	assert.Equal(t, first, *c.CompletedDate)
}

func TestS6_EnforcementBodyCompleted(t *testing.T) {
	f := setup(t)
	c := reportReady(t, f)
	c = f.update(t, c, func(c *models.Case) { c.EnforcementBodyPursuing = models.EnforcementBodyPursuingCompleted })
	assert.Equal(t, models.StatusComplete, c.Status)

	c = f.update(t, c, func(c *models.Case) {
		c.ReportSentDate = models.MustDate("2024-03-01").Ptr()
		c.AuditorID = nil
	})
	stored, err := f.svc.GetCase(f.ctx(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, stored.Status)
}

func TestUpdateCase_StaleAndNotFound(t *testing.T) {
	f := setup(t)
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("A", ""))
	require.NoError(t, err)
	f.update(t, c, func(c *models.Case) { c.Sector = "Health" })

	_, err = f.svc.UpdateCase(f.ctx(), c.ID, c.Version, func(c *models.Case) error {
		c.Sector = "Education"
		return nil
	})
	assert.ErrorIs(t, err, models.ErrStaleWrite)

	_, err = f.svc.UpdateCase(f.ctx(), 999, 1, func(*models.Case) error { return nil })
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.svc.GetCase(f.ctx(), 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateCase_MutateErrorSavesNothing(t *testing.T) {
	f := setup(t)
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("A", ""))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = f.svc.UpdateCase(f.ctx(), c.ID, c.Version, func(c *models.Case) error {
		c.Sector = "Health"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	stored, _ := f.svc.GetCase(f.ctx(), c.ID)
	assert.Equal(t, "", stored.Sector)
}

func TestUpdateCase_DerivedFieldsProtected(t *testing.T) {
	f := setup(t)
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("A", "https://a.example"))
	require.NoError(t, err)

	c = f.update(t, c, func(c *models.Case) {
		c.Status = models.StatusComplete
		c.CaseNumber = 77
		c.HomePageURL = "https://www.b.example/page"
	})
	assert.Equal(t, models.StatusUnassigned, c.Status)
	assert.Equal(t, int64(1), c.CaseNumber)
	assert.Equal(t, "b.example", c.Domain)
}

func TestHistory_EveryMutationRecorded(t *testing.T) {
	f := setup(t)
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("A", "https://a.example"))
	require.NoError(t, err)
	f.update(t, c, func(c *models.Case) { c.AuditorID = &f.alice })

	events, err := f.svc.History(f.ctx(), c.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)

	last := events[2]
	assert.Equal(t, models.EventUpdate, last.EventType)
	require.NotNil(t, last.CreatedBy)
	assert.Equal(t, f.alice, *last.CreatedBy)

	changes, err := history.ParseDifference(last.Difference)
	require.NoError(t, err)
	fields := map[string]history.Change{}
	for _, ch := range changes {
		fields[ch.Field] = ch
	}
	assert.Len(t, fields, 2)
	assert.Equal(t, "", fields["auditor_id"].Old)
	assert.Equal(t, models.Stringify(f.alice), fields["auditor_id"].New)
	assert.Equal(t, string(models.StatusUnassigned), fields["status"].Old)
	assert.Equal(t, string(models.StatusTestInProgress), fields["status"].New)

	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(events[0].Difference), &created))
	assert.Equal(t, "A", created["organisation_name"])
}

func TestChildren(t *testing.T) {
	f := setup(t)
	ctx := f.ctx()
	c, err := f.svc.CreateCase(ctx, models.NewCase("A", ""))
	require.NoError(t, err)

	_, err = f.svc.AddContact(ctx, 999, &models.Contact{Name: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	ct, err := f.svc.AddContact(ctx, c.ID, &models.Contact{Name: "Pat", Email: "pat@a.example"})
	require.NoError(t, err)
	ct, err = f.svc.UpdateContact(ctx, c.ID, ct.ID, func(ct *models.Contact) error {
		ct.Preferred = models.PreferredYes
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.PreferredYes, ct.Preferred)

	_, err = f.svc.UpdateContact(ctx, c.ID, ct.ID, func(ct *models.Contact) error {
		ct.Preferred = "maybe"
		return nil
	})
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))

	first, err := f.svc.AddCorrespondence(ctx, c.ID, &models.EqualityBodyCorrespondence{Message: "Q1"})
	require.NoError(t, err)
	second, err := f.svc.AddCorrespondence(ctx, c.ID, &models.EqualityBodyCorrespondence{Message: "Q2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.IDWithinCase)
	assert.Equal(t, int64(2), second.IDWithinCase)

	_, err = f.svc.UpdateCorrespondence(ctx, c.ID, first.ID, func(e *models.EqualityBodyCorrespondence) error {
		e.Status = models.CorrespondenceResolved
		return nil
	})
	require.NoError(t, err)

	rt, err := f.svc.AddRetest(ctx, c.ID, &models.Retest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rt.IDWithinCase)
	_, err = f.svc.UpdateRetest(ctx, c.ID, rt.ID, func(r *models.Retest) error {
		r.RetestComplianceState = models.RetestPartially
		return nil
	})
	require.NoError(t, err)

	list, err := f.svc.ListCorrespondence(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	retests, err := f.svc.ListRetests(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetestPartially, retests[0].RetestComplianceState)
}

func TestReminders_OneUnreadPerCaseAndSnooze(t *testing.T) {
	f := setup(t)
	ctx := f.ctx()
	c := reportReady(t, f)
	c = f.update(t, c, func(c *models.Case) {
		c.ReportSentDate = today.AddDays(-10).Ptr()
	})
	queues := f.svc.Queues(overdue.New(nil, 7), nil)

	got, err := queues.Overdue(ctx, &f.alice)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, overdue.LabelWeek1FollowupDue, got[0].Label)

	first, err := f.svc.SetReminder(ctx, c.ID, f.alice, today.AddDays(1), "Chase")
	require.NoError(t, err)
	second, err := f.svc.SetReminder(ctx, c.ID, f.alice, today.AddDays(2), "Chase again")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err = queues.Overdue(ctx, &f.alice)
	require.NoError(t, err)
	assert.Empty(t, got)

	bobs, err := f.svc.SetReminder(ctx, c.ID, f.bob, today.AddDays(3), "Mine now")
	require.NoError(t, err)
	current, err := f.svc.GetReminder(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, bobs.ID, current.ID)

	require.NoError(t, f.svc.ClearReminder(ctx, c.ID))
	assert.ErrorIs(t, f.svc.ClearReminder(ctx, c.ID), models.ErrNotFound)

	got, err = queues.Overdue(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	items, err := queues.Tasks(ctx, f.alice, false)
	require.NoError(t, err)
	var types []models.TaskType
	for _, it := range items {
		types = append(types, it.Type)
	}
	assert.Equal(t, []models.TaskType{models.TaskOverdue, models.TaskReportApproved}, types)

	_, err = queues.MarkTaskRead(ctx, f.bob, items[1].ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	task, err := queues.MarkTaskRead(ctx, f.alice, items[1].ID)
	require.NoError(t, err)
	assert.True(t, task.Read)
}

func TestSetReminder_Validation(t *testing.T) {
	f := setup(t)
	_, err := f.svc.SetReminder(f.ctx(), 1, f.alice, models.Date{}, "x")
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))
	_, err = f.svc.SetReminder(f.ctx(), 999, f.alice, today, "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSettingsAndQAQueue(t *testing.T) {
	f := setup(t)
	ctx := f.ctx()

	c, err := f.svc.CreateCase(ctx, models.NewCase("A", ""))
	require.NoError(t, err)
	f.update(t, c, func(c *models.Case) {
		c.AuditorID = &f.alice
		c.Compliance.WebsiteComplianceStateInitial = models.WebsiteCompliancePartially
		c.Compliance.StatementComplianceStateInitial = models.StatementComplianceNotCompliant
		c.ReportReviewStatus = models.Yes
	})

	missing := int64(999)
	_, err = f.svc.UpdateSettings(ctx, &missing)
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = f.svc.UpdateSettings(ctx, &f.bob)
	require.NoError(t, err)

	q, err := f.svc.QAQueue(ctx)
	require.NoError(t, err)
	require.NotNil(t, q.ActiveQAAuditor)
	assert.Equal(t, "Bob", q.ActiveQAAuditor.DisplayName)
	require.Len(t, q.Cases, 1)
	assert.Equal(t, models.StatusReadyToQA, q.Cases[0].Status)
	assert.Equal(t, models.QAStatusUnassigned, q.Cases[0].QAStatus)
}

func TestNextAction(t *testing.T) {
	f := setup(t)
	c := reportReady(t, f)
	c = f.update(t, c, func(c *models.Case) { c.ReportSentDate = models.MustDate("2024-03-01").Ptr() })

	na, err := f.svc.NextAction(f.ctx(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReportCorrespondence, na.Status)
	require.NotNil(t, na.DueDate)
	assert.Equal(t, "2024-03-08", na.DueDate.String())
}

func TestNextAction_ClearedDueDateIsDerivedAgain(t *testing.T) {
	f := setup(t)
	c := reportReady(t, f)
	c = f.update(t, c, func(c *models.Case) { c.ReportSentDate = models.MustDate("2024-03-01").Ptr() })
	c = f.update(t, c, func(c *models.Case) { c.FollowupWeek1Due = nil })

	assert.Equal(t, models.StatusInReportCorrespondence, c.Status)
	require.NotNil(t, c.FollowupWeek1Due)
	assert.Equal(t, "2024-03-08", c.FollowupWeek1Due.String())

	na, err := f.svc.NextAction(f.ctx(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, na.DueDate)
	assert.Equal(t, "2024-03-08", na.DueDate.String())
}

func TestNextAction_ChaserDueUsesOverdueGrace(t *testing.T) {
	f := setup(t)
	f.svc.WithOverdueGrace(3)
	c := reportReady(t, f)
	c = f.update(t, c, func(c *models.Case) {
		c.ReportSentDate = models.MustDate("2024-03-01").Ptr()
		c.ReportAcknowledgedDate = models.MustDate("2024-03-04").Ptr()
		c.TwelveWeekUpdateRequestedDate = models.MustDate("2024-05-24").Ptr()
		c.TwelveWeek1WeekChaserSent = models.MustDate("2024-06-01").Ptr()
	})
	assert.Equal(t, models.StatusAfter12WeekCorrespondence, c.Status)

	na, err := f.svc.NextAction(f.ctx(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, na.DueDate)
	assert.Equal(t, "2024-06-04", na.DueDate.String())
}

func TestCreateCase_Validation(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateCase(f.ctx(), models.NewCase("  ", ""))
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestUpdateCase_InvalidChoiceRejected(t *testing.T) {
	f := setup(t)
	c, err := f.svc.CreateCase(f.ctx(), models.NewCase("A", ""))
	require.NoError(t, err)

	_, err = f.svc.UpdateCase(f.ctx(), c.ID, c.Version, func(c *models.Case) error {
		c.PSBLocation = "atlantis"
		c.Compliance.WebsiteComplianceStateInitial = "great"
		return nil
	})
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"psb_location", "compliance.website_compliance_state_initial"}, ve.Fields)
}
