package status

import (
	"fmt"

	"github.com/garnizeh/a11ymon/pkg/models"
)

// NextActionDueDate returns the date the next time-based action on c falls
// due, or nil when its status has none. grace is the number of days a sent
// chaser waits for a reply before it is chased again; zero means seven.
//
// A case in report correspondence always has its follow-up due dates set by
// the scheduler; a missing one is an invariant violation and panics.
func NextActionDueDate(c *models.Case, grace int) *models.Date {
	if grace <= 0 {
		grace = 7
	}
	switch Derive(c) {
	case models.StatusReportReadyToSend:
		if !c.EnableCorrespondenceProcess {
			return nil
		}
		if c.OneWeekChaserSent != nil {
			return c.FourWeekChaserDue
		}
		if c.SevenDayNoContactEmailSentDate != nil {
			return c.OneWeekChaserDue
		}
		return nil
	case models.StatusInReportCorrespondence:
		var due *models.Date
		var which string
		switch {
		case c.FollowupWeek4Sent != nil:
			due, which = c.FollowupWeek12Due, "followup_week_12_due"
		case c.FollowupWeek1Sent != nil:
			due, which = c.FollowupWeek4Due, "followup_week_4_due"
		default:
			due, which = c.FollowupWeek1Due, "followup_week_1_due"
		}
		if due == nil {
			panic(&models.InvariantError{
				Invariant: "report follow-up scheduled",
				Detail:    fmt.Sprintf("case %d is in report correspondence without %s", c.ID, which),
			})
		}
		return due
	case models.StatusAwaiting12WeekDeadline:
		return c.FollowupWeek12Due
	case models.StatusAfter12WeekCorrespondence:
		if c.TwelveWeek1WeekChaserSent != nil {
			return c.TwelveWeek1WeekChaserSent.AddDays(grace).Ptr()
		}
		return c.TwelveWeek1WeekChaserDue
	}
	return nil
}

var nextActions = map[models.Status]string{
	models.StatusUnassigned:                          "Assign an auditor",
	models.StatusTestInProgress:                      "Complete the initial test",
	models.StatusReportInProgress:                    "Write the report and mark it ready for review",
	models.StatusReadyToQA:                           "Assign a QA reviewer",
	models.StatusQAInProgress:                        "Review and approve the report",
	models.StatusReportReadyToSend:                   "Send the report",
	models.StatusInReportCorrespondence:              "Chase report acknowledgement",
	models.StatusAwaiting12WeekDeadline:              "Wait for the 12-week deadline",
	models.StatusAfter12WeekCorrespondence:           "Chase 12-week update",
	models.StatusReviewingChanges:                    "Retest and review changes",
	models.StatusFinalDecisionDue:                    "Make the final decision",
	models.StatusCaseClosedWaitingToSend:             "Send to the equality body",
	models.StatusCaseClosedSentToEnforcementBody:     "Await equality body decision",
	models.StatusInCorrespondenceWithEnforcementBody: "Respond to the equality body",
	models.StatusComplete:                            "None",
	models.StatusDeactivated:                         "None",
}

// NextAction returns a short description of what the case needs next.
func NextAction(c *models.Case) string {
	if label, ok := nextActions[Derive(c)]; ok {
		return label
	}
	return "Check case details"
}
