// Package overdue surfaces cases whose current status has a time-based
// condition the auditor must act on.
package overdue

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/garnizeh/a11ymon/internal/status"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// Labels of overdue tasks.
const (
	LabelNoContactOverdue     = "No contact details response overdue"
	LabelWeek1FollowupDue     = "1-week follow-up to report due"
	LabelWeek4FollowupDue     = "4-week follow-up to report due"
	LabelWeek4FollowupSent    = "4-week follow-up to report sent, case needs to progress"
	LabelTwelveWeekUpdateDue  = "12-week update due"
	LabelTwelveWeekChaserDue  = "1-week follow-up due"
	LabelTwelveWeekChaserSent = "1-week follow-up sent, case needs to progress"
)

// Sections of a case the deep link points at.
const (
	SectionNoContact      = "find-contact-details"
	SectionReportFollowup = "report-correspondence"
	SectionTwelveWeek     = "twelve-week-correspondence"
)

// Task is one overdue case. Date is when the condition was met.
type Task struct {
	CaseID           int64         `json:"case_id"`
	CaseNumber       int64         `json:"case_number"`
	OrganisationName string        `json:"organisation_name"`
	AuditorID        *int64        `json:"auditor_id"`
	Status           models.Status `json:"status"`
	Label            string        `json:"label"`
	Date             models.Date   `json:"date"`
	URL              string        `json:"url"`
}

// LinkFunc builds the opaque deep link for a section of a case.
type LinkFunc func(caseID int64, section string) string

// BaseLink links to baseURL/cases/<id>/<section>.
func BaseLink(baseURL string) LinkFunc {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(caseID int64, section string) string {
		return fmt.Sprintf("%s/cases/%d/%s", baseURL, caseID, section)
	}
}

// Reader is the read side the surfacer queries.
type Reader interface {
	ListCases(ctx context.Context, f repository.CaseFilter) ([]*models.Case, error)
	SnoozedCaseIDs(ctx context.Context, today models.Date) (map[int64]bool, error)
}

// Statuses that can carry an overdue condition.
var Statuses = []models.Status{
	models.StatusReportReadyToSend,
	models.StatusInReportCorrespondence,
	models.StatusAwaiting12WeekDeadline,
	models.StatusAfter12WeekCorrespondence,
}

type Surfacer struct {
	grace int
	link  LinkFunc
}

// New returns a surfacer that treats a sent date as stale grace days after
// it. A nil link uses BaseLink("").
func New(link LinkFunc, grace int) *Surfacer {
	if link == nil {
		link = BaseLink("")
	}
	if grace <= 0 {
		grace = 7
	}
	return &Surfacer{grace: grace, link: link}
}

// Check returns the case's overdue task, if any. A case contributes at most
// one task: the first condition met in rule order.
func (s *Surfacer) Check(c *models.Case, today models.Date) (Task, bool) {
	due := func(d *models.Date) bool { return d != nil && d.OnOrBefore(today) }
	stale := func(d *models.Date) bool { return d != nil && d.AddDays(s.grace).OnOrBefore(today) }

	st := status.Derive(c)
	var label, section string
	var when models.Date
	switch st {
	case models.StatusReportReadyToSend:
		if !c.EnableCorrespondenceProcess {
			return Task{}, false
		}
		section = SectionNoContact
		switch {
		case stale(c.SevenDayNoContactEmailSentDate) && c.OneWeekChaserSent == nil && c.FourWeekChaserSent == nil:
			label, when = LabelNoContactOverdue, c.SevenDayNoContactEmailSentDate.AddDays(s.grace)
		case due(c.OneWeekChaserDue) && c.OneWeekChaserSent == nil:
			label, when = LabelNoContactOverdue, *c.OneWeekChaserDue
		case due(c.FourWeekChaserDue) && c.FourWeekChaserSent == nil:
			label, when = LabelNoContactOverdue, *c.FourWeekChaserDue
		}
	case models.StatusInReportCorrespondence:
		section = SectionReportFollowup
		switch {
		case due(c.FollowupWeek1Due) && c.FollowupWeek1Sent == nil:
			label, when = LabelWeek1FollowupDue, *c.FollowupWeek1Due
		case due(c.FollowupWeek4Due) && c.FollowupWeek4Sent == nil:
			label, when = LabelWeek4FollowupDue, *c.FollowupWeek4Due
		case stale(c.FollowupWeek4Sent):
			label, when = LabelWeek4FollowupSent, c.FollowupWeek4Sent.AddDays(s.grace)
		}
	case models.StatusAwaiting12WeekDeadline:
		section = SectionTwelveWeek
		if due(c.FollowupWeek12Due) {
			label, when = LabelTwelveWeekUpdateDue, *c.FollowupWeek12Due
		}
	case models.StatusAfter12WeekCorrespondence:
		section = SectionTwelveWeek
		switch {
		case due(c.TwelveWeek1WeekChaserDue) && c.TwelveWeek1WeekChaserSent == nil:
			label, when = LabelTwelveWeekChaserDue, *c.TwelveWeek1WeekChaserDue
		case stale(c.TwelveWeek1WeekChaserSent):
			label, when = LabelTwelveWeekChaserSent, c.TwelveWeek1WeekChaserSent.AddDays(s.grace)
		}
	}
	if label == "" {
		return Task{}, false
	}
	return Task{
		CaseID:           c.ID,
		CaseNumber:       c.CaseNumber,
		OrganisationName: c.OrganisationName,
		AuditorID:        c.AuditorID,
		Status:           st,
		Label:            label,
		Date:             when,
		URL:              s.link(c.ID, section),
	}, true
}

// Filter lazily yields the overdue tasks of cases not in snoozed.
func (s *Surfacer) Filter(cases []*models.Case, snoozed map[int64]bool, today models.Date) iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, c := range cases {
			if c.IsDeactivated || snoozed[c.ID] {
				continue
			}
			t, ok := s.Check(c, today)
			if !ok {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// ForUser returns overdue tasks on cases assigned to userID.
func (s *Surfacer) ForUser(ctx context.Context, r Reader, userID int64, today models.Date) (iter.Seq[Task], error) {
	return s.query(ctx, r, repository.CaseFilter{AuditorID: &userID, Statuses: Statuses}, today)
}

// All returns overdue tasks across every active case.
func (s *Surfacer) All(ctx context.Context, r Reader, today models.Date) (iter.Seq[Task], error) {
	return s.query(ctx, r, repository.CaseFilter{Statuses: Statuses}, today)
}

func (s *Surfacer) query(ctx context.Context, r Reader, f repository.CaseFilter, today models.Date) (iter.Seq[Task], error) {
	cases, err := r.ListCases(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	snoozed, err := r.SnoozedCaseIDs(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("snoozed cases: %w", err)
	}
	return s.Filter(cases, snoozed, today), nil
}
