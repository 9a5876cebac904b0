// Package tasks builds a user's next-action queue from stored tasks, overdue
// cases and open post-case work.
package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/garnizeh/a11ymon/internal/overdue"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// Sections of a case linked from post-case tasks.
const (
	SectionCorrespondence = "equality-body-correspondence"
	SectionRetests        = "retests"
)

// Item is one entry of the task list. ID is zero for derived entries that
// are not stored.
type Item struct {
	ID          int64           `json:"id,omitempty"`
	Type        models.TaskType `json:"type"`
	CaseID      int64           `json:"case_id"`
	Date        models.Date     `json:"date"`
	Description string          `json:"description"`
	Read        bool            `json:"read"`
	URL         string          `json:"url"`
}

// Reader is the read side the task list draws from.
type Reader interface {
	overdue.Reader
	ListTasks(ctx context.Context, userID int64, includeRead bool) ([]models.Task, error)
	ListUnresolvedCorrespondence(ctx context.Context, caseIDs []int64) ([]models.EqualityBodyCorrespondence, error)
	ListIncompleteRetests(ctx context.Context, caseIDs []int64) ([]models.Retest, error)
}

// Writer marks stored tasks read.
type Writer interface {
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
}

type Builder struct {
	surfacer *overdue.Surfacer
	link     overdue.LinkFunc
}

func NewBuilder(s *overdue.Surfacer, link overdue.LinkFunc) *Builder {
	if link == nil {
		link = overdue.BaseLink("")
	}
	return &Builder{surfacer: s, link: link}
}

// List returns the user's tasks: unread by date ascending, then read by date
// descending. Reminders appear once their date is reached. Read entries are
// included only when includeRead is set.
func (b *Builder) List(ctx context.Context, r Reader, userID int64, today models.Date, includeRead bool) ([]Item, error) {
	stored, err := r.ListTasks(ctx, userID, includeRead)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var items []Item
	for _, t := range stored {
		if t.Type == models.TaskReminder && !t.Read && t.Date.After(today) {
			continue
		}
		items = append(items, Item{
			ID:          t.ID,
			Type:        t.Type,
			CaseID:      t.CaseID,
			Date:        t.Date,
			Description: t.Description,
			Read:        t.Read,
			URL:         b.link(t.CaseID, ""),
		})
	}

	cases, err := r.ListCases(ctx, repository.CaseFilter{AuditorID: &userID})
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	snoozed, err := r.SnoozedCaseIDs(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("snoozed cases: %w", err)
	}

	for t := range b.surfacer.Filter(cases, snoozed, today) {
		items = append(items, Item{
			Type:        models.TaskOverdue,
			CaseID:      t.CaseID,
			Date:        t.Date,
			Description: t.Label,
			URL:         t.URL,
		})
	}

	var open []int64
	for _, c := range cases {
		if !snoozed[c.ID] {
			open = append(open, c.ID)
		}
	}
	post, err := b.postCase(ctx, r, open)
	if err != nil {
		return nil, err
	}
	items = append(items, post...)

	Sort(items)
	return items, nil
}

func (b *Builder) postCase(ctx context.Context, r Reader, caseIDs []int64) ([]Item, error) {
	if len(caseIDs) == 0 {
		return nil, nil
	}
	corr, err := r.ListUnresolvedCorrespondence(ctx, caseIDs)
	if err != nil {
		return nil, fmt.Errorf("unresolved correspondence: %w", err)
	}
	retests, err := r.ListIncompleteRetests(ctx, caseIDs)
	if err != nil {
		return nil, fmt.Errorf("incomplete retests: %w", err)
	}

	out := make([]Item, 0, len(corr)+len(retests))
	for _, c := range corr {
		out = append(out, Item{
			Type:        models.TaskPostCase,
			CaseID:      c.CaseID,
			Date:        models.DateOf(c.Created),
			Description: fmt.Sprintf("Unresolved equality body correspondence #%d", c.IDWithinCase),
			URL:         b.link(c.CaseID, SectionCorrespondence),
		})
	}
	for _, rt := range retests {
		when := models.DateOf(rt.Created)
		if rt.DateOfRetest != nil {
			when = *rt.DateOfRetest
		}
		out = append(out, Item{
			Type:        models.TaskPostCase,
			CaseID:      rt.CaseID,
			Date:        when,
			Description: fmt.Sprintf("Incomplete equality body retest #%d", rt.IDWithinCase),
			URL:         b.link(rt.CaseID, SectionRetests),
		})
	}
	return out, nil
}

// Sort orders unread items by date ascending ahead of read items by date
// descending. Ties keep case then type order.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Read != b.Read {
			return !a.Read
		}
		if !a.Date.Equal(b.Date) {
			if a.Read {
				return a.Date.After(b.Date)
			}
			return a.Date.Before(b.Date)
		}
		if a.CaseID != b.CaseID {
			return a.CaseID < b.CaseID
		}
		return a.Type < b.Type
	})
}

// MarkRead marks a stored task of userID read. Tasks of other users are
// reported as not found.
func MarkRead(ctx context.Context, w Writer, userID, taskID int64) (*models.Task, error) {
	t, err := w.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, models.ErrNotFound
	}
	if t.Read {
		return t, nil
	}
	t.Read = true
	if err := w.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
