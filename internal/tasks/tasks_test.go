package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/a11ymon/internal/overdue"
	"github.com/garnizeh/a11ymon/internal/status"
	"github.com/garnizeh/a11ymon/internal/tasks"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository/mock"
)

var today = models.MustDate("2024-06-10")

func overdueCase(auditor int64) *models.Case {
	c := models.NewCase("Org", "https://org.example")
	c.AuditorID = &auditor
	c.Compliance.WebsiteComplianceStateInitial = models.WebsiteComplianceCompliant
	c.Compliance.StatementComplianceStateInitial = models.StatementComplianceCompliant
	c.ReportReviewStatus = models.Yes
	c.ReportApprovedStatus = models.ReportApproved
	c.ReportSentDate = today.AddDays(-10).Ptr()
	c.FollowupWeek1Due = today.AddDays(-3).Ptr()
	c.FollowupWeek4Due = today.AddDays(18).Ptr()
	c.FollowupWeek12Due = today.AddDays(74).Ptr()
	status.Apply(c)
	return c
}

func newBuilder() *tasks.Builder {
	link := overdue.BaseLink("")
	return tasks.NewBuilder(overdue.New(link, 7), link)
}

func TestList_CombinesStreams(t *testing.T) {
	ctx := context.Background()
	store := mock.New()
	c := store.AddCase(overdueCase(1))
	other := store.AddCase(overdueCase(2))

	store.AddTask(models.Task{Type: models.TaskQAComment, CaseID: c.ID, UserID: 1, Date: today.AddDays(-1), Description: "New comment"})
	store.AddTask(models.Task{Type: models.TaskReportApproved, CaseID: c.ID, UserID: 1, Date: today.AddDays(-5), Description: "Report approved"})
	store.AddTask(models.Task{Type: models.TaskQAComment, CaseID: other.ID, UserID: 2, Date: today, Description: "not mine"})
	store.Correspondence = append(store.Correspondence,
		models.EqualityBodyCorrespondence{ID: 1, CaseID: c.ID, IDWithinCase: 1, Status: models.CorrespondenceUnresolved, Created: today.AddDays(-2).Time()},
		models.EqualityBodyCorrespondence{ID: 2, CaseID: c.ID, IDWithinCase: 2, Status: models.CorrespondenceResolved, Created: today.AddDays(-2).Time()},
	)
	store.Retests = append(store.Retests,
		models.Retest{ID: 1, CaseID: c.ID, IDWithinCase: 1, RetestComplianceState: models.RetestNotKnown, DateOfRetest: today.AddDays(-4).Ptr()},
		models.Retest{ID: 2, CaseID: c.ID, IDWithinCase: 2, RetestComplianceState: models.RetestCompliant},
	)

	items, err := newBuilder().List(ctx, store, 1, today, false)
	require.NoError(t, err)

	var got []string
	for _, it := range items {
		got = append(got, it.Date.String()+" "+string(it.Type)+" "+it.Description)
	}
	assert.Equal(t, []string{
		"2024-06-05 report_approved Report approved",
		"2024-06-06 postcase Incomplete equality body retest #1",
		"2024-06-07 overdue 1-week follow-up to report due",
		"2024-06-08 postcase Unresolved equality body correspondence #1",
		"2024-06-09 qa_comment New comment",
	}, got)
}

func TestList_ReadOrderedDescendingAfterUnread(t *testing.T) {
	ctx := context.Background()
	store := mock.New()
	c := store.AddCase(models.NewCase("Org", "https://org.example"))
	one := int64(1)
	c.AuditorID = &one

	store.AddTask(models.Task{Type: models.TaskQAComment, CaseID: c.ID, UserID: 1, Date: today.AddDays(-9), Read: true, Description: "old read"})
	store.AddTask(models.Task{Type: models.TaskQAComment, CaseID: c.ID, UserID: 1, Date: today.AddDays(-1), Read: true, Description: "new read"})
	store.AddTask(models.Task{Type: models.TaskQAComment, CaseID: c.ID, UserID: 1, Date: today.AddDays(-2), Description: "unread"})

	items, err := newBuilder().List(ctx, store, 1, today, true)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "unread", items[0].Description)
	assert.Equal(t, "new read", items[1].Description)
	assert.Equal(t, "old read", items[2].Description)

	items, err = newBuilder().List(ctx, store, 1, today, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestList_ReminderSnoozesOverdueAndPostCase(t *testing.T) {
	ctx := context.Background()
	store := mock.New()
	c := store.AddCase(overdueCase(1))
	store.Correspondence = append(store.Correspondence,
		models.EqualityBodyCorrespondence{ID: 1, CaseID: c.ID, IDWithinCase: 1, Status: models.CorrespondenceUnresolved, Created: time.Now()})
	store.AddTask(models.Task{Type: models.TaskReminder, CaseID: c.ID, UserID: 1, Date: today.AddDays(3), Description: "Chase PSB"})

	items, err := newBuilder().List(ctx, store, 1, today, false)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestList_DueReminderShown(t *testing.T) {
	ctx := context.Background()
	store := mock.New()
	c := store.AddCase(overdueCase(1))
	store.AddTask(models.Task{Type: models.TaskReminder, CaseID: c.ID, UserID: 1, Date: today, Description: "Chase PSB"})

	items, err := newBuilder().List(ctx, store, 1, today, false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.TaskOverdue, items[0].Type)
	assert.Equal(t, models.TaskReminder, items[1].Type)
}

func TestList_Error(t *testing.T) {
	store := mock.New()
	store.Err = errors.New("boom")
	_, err := newBuilder().List(context.Background(), store, 1, today, false)
	require.Error(t, err)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	store := mock.New()
	task := store.AddTask(models.Task{Type: models.TaskQAComment, CaseID: 1, UserID: 1, Date: today})

	_, err := tasks.MarkRead(ctx, store, 2, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = tasks.MarkRead(ctx, store, 1, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := tasks.MarkRead(ctx, store, 1, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.True(t, store.Tasks[0].Read)
}
