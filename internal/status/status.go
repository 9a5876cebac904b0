// Package status derives a case's workflow state from its recorded fields.
//
// Derivation is pure: the same fields always give the same status and no
// clock is consulted. Rules are evaluated in order and the first match wins.
package status

import "github.com/garnizeh/a11ymon/pkg/models"

// Derive returns the status of c.
func Derive(c *models.Case) models.Status {
	switch {
	case c.IsDeactivated:
		return models.StatusDeactivated
	case c.CaseCompleted == models.CaseCompletedCompleteNoSend,
		c.EnforcementBodyPursuing == models.EnforcementBodyPursuingCompleted,
		c.EnforcementBodyClosedCase == models.EnforcementBodyClosedYes:
		return models.StatusComplete
	case c.EnforcementBodyPursuing == models.EnforcementBodyPursuingInProgress,
		c.EnforcementBodyClosedCase == models.EnforcementBodyClosedInProgress:
		return models.StatusInCorrespondenceWithEnforcementBody
	case c.SentToEnforcementBodySentDate != nil:
		return models.StatusCaseClosedSentToEnforcementBody
	case c.CaseCompleted == models.CaseCompletedCompleteSend:
		return models.StatusCaseClosedWaitingToSend
	case c.NoPSBContact == models.Yes:
		return models.StatusFinalDecisionDue
	case c.AuditorID == nil:
		return models.StatusUnassigned
	case !initialTestDecided(c.Compliance):
		return models.StatusTestInProgress
	case c.ReportReviewStatus != models.Yes:
		return models.StatusReportInProgress
	case c.ReportApprovedStatus != models.ReportApproved:
		if c.ReviewerID == nil {
			return models.StatusReadyToQA
		}
		return models.StatusQAInProgress
	case c.ReportSentDate == nil:
		return models.StatusReportReadyToSend
	case c.ReportAcknowledgedDate == nil:
		return models.StatusInReportCorrespondence
	case c.TwelveWeekUpdateRequestedDate == nil && c.TwelveWeekCorrespondenceAcknowledgedDate == nil:
		return models.StatusAwaiting12WeekDeadline
	case c.TwelveWeekUpdateRequestedDate != nil &&
		c.TwelveWeekCorrespondenceAcknowledgedDate == nil &&
		c.OrganisationResponse == models.OrganisationResponseNotApplicable:
		return models.StatusAfter12WeekCorrespondence
	case (c.TwelveWeekCorrespondenceAcknowledgedDate != nil ||
		c.OrganisationResponse != models.OrganisationResponseNotApplicable) &&
		c.IsReadyForFinalDecision == models.No:
		return models.StatusReviewingChanges
	case c.IsReadyForFinalDecision == models.Yes && c.CaseCompleted == models.CaseCompletedNoDecision:
		return models.StatusFinalDecisionDue
	}
	return models.StatusUnknown
}

func initialTestDecided(cp *models.Compliance) bool {
	if cp == nil {
		return false
	}
	return cp.WebsiteComplianceStateInitial != models.WebsiteComplianceUnknown &&
		cp.StatementComplianceStateInitial != models.StatementComplianceUnknown
}

// DeriveQA returns the QA state of the report review.
func DeriveQA(c *models.Case) models.QAStatus {
	switch {
	case c.ReportApprovedStatus == models.ReportApproved:
		return models.QAStatusApproved
	case c.ReportReviewStatus == models.Yes && c.ReviewerID == nil:
		return models.QAStatusUnassigned
	case c.ReportReviewStatus == models.Yes:
		return models.QAStatusInQA
	}
	return models.QAStatusUnknown
}

// Apply recomputes and stores the cached derived states on c.
func Apply(c *models.Case) {
	c.Status = Derive(c)
	c.QAStatus = DeriveQA(c)
}
