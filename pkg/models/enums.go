package models

// Status is the derived workflow state of a case.
type Status string

const (
	StatusUnassigned                          Status = "unassigned"
	StatusTestInProgress                      Status = "test_in_progress"
	StatusReportInProgress                    Status = "report_in_progress"
	StatusQAInProgress                        Status = "qa_in_progress"
	StatusReadyToQA                           Status = "ready_to_qa"
	StatusReportReadyToSend                   Status = "report_ready_to_send"
	StatusInReportCorrespondence              Status = "in_report_correspondence"
	StatusAwaiting12WeekDeadline              Status = "awaiting_12_week_deadline"
	StatusAfter12WeekCorrespondence           Status = "after_12_week_correspondence"
	StatusReviewingChanges                    Status = "reviewing_changes"
	StatusFinalDecisionDue                    Status = "final_decision_due"
	StatusCaseClosedWaitingToSend             Status = "case_closed_waiting_to_send"
	StatusCaseClosedSentToEnforcementBody     Status = "case_closed_sent_to_enforcement_body"
	StatusInCorrespondenceWithEnforcementBody Status = "in_correspondence_with_enforcement_body"
	StatusComplete                            Status = "complete"
	StatusDeactivated                         Status = "deactivated"
	StatusUnknown                             Status = "unknown"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusUnassigned,
	StatusTestInProgress,
	StatusReportInProgress,
	StatusReadyToQA,
	StatusQAInProgress,
	StatusReportReadyToSend,
	StatusInReportCorrespondence,
	StatusAwaiting12WeekDeadline,
	StatusAfter12WeekCorrespondence,
	StatusReviewingChanges,
	StatusFinalDecisionDue,
	StatusCaseClosedWaitingToSend,
	StatusCaseClosedSentToEnforcementBody,
	StatusInCorrespondenceWithEnforcementBody,
	StatusComplete,
	StatusDeactivated,
	StatusUnknown,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// QAStatus is the derived state of the report review.
type QAStatus string

const (
	QAStatusUnassigned QAStatus = "unassigned"
	QAStatusInQA       QAStatus = "in_qa"
	QAStatusApproved   QAStatus = "approved"
	QAStatusUnknown    QAStatus = "unknown"
)

// YesNo is a two-valued choice stored as text.
type YesNo string

const (
	No  YesNo = "no"
	Yes YesNo = "yes"
)

func (v YesNo) Valid() bool { return v == No || v == Yes }

// ReportApprovedStatus tracks QA sign-off of the report.
type ReportApprovedStatus string

const (
	ReportApprovedNotStarted ReportApprovedStatus = "not_started"
	ReportApprovedInProgress ReportApprovedStatus = "in_progress"
	ReportApproved           ReportApprovedStatus = "approved"
)

func (v ReportApprovedStatus) Valid() bool {
	switch v {
	case ReportApprovedNotStarted, ReportApprovedInProgress, ReportApproved:
		return true
	}
	return false
}

// OrganisationResponse records whether the body replied to the 12-week request.
type OrganisationResponse string

const (
	OrganisationResponseNotApplicable OrganisationResponse = "not_applicable"
	OrganisationResponseNoResponse    OrganisationResponse = "no_response"
)

func (v OrganisationResponse) Valid() bool {
	return v == OrganisationResponseNotApplicable || v == OrganisationResponseNoResponse
}

// CaseCompleted is the final decision on a case.
type CaseCompleted string

const (
	CaseCompletedNoDecision     CaseCompleted = "no_decision"
	CaseCompletedCompleteSend   CaseCompleted = "complete_send"
	CaseCompletedCompleteNoSend CaseCompleted = "complete_no_send"
)

func (v CaseCompleted) Valid() bool {
	switch v {
	case CaseCompletedNoDecision, CaseCompletedCompleteSend, CaseCompletedCompleteNoSend:
		return true
	}
	return false
}

// EnforcementBodyPursuing records whether the enforcement body took the case on.
type EnforcementBodyPursuing string

const (
	EnforcementBodyPursuingNo         EnforcementBodyPursuing = "no"
	EnforcementBodyPursuingInProgress EnforcementBodyPursuing = "yes_in_progress"
	EnforcementBodyPursuingCompleted  EnforcementBodyPursuing = "yes_completed"
)

func (v EnforcementBodyPursuing) Valid() bool {
	switch v {
	case EnforcementBodyPursuingNo, EnforcementBodyPursuingInProgress, EnforcementBodyPursuingCompleted:
		return true
	}
	return false
}

// EnforcementBodyClosedCase records whether the enforcement body has closed the case.
type EnforcementBodyClosedCase string

const (
	EnforcementBodyClosedNo         EnforcementBodyClosedCase = "no"
	EnforcementBodyClosedInProgress EnforcementBodyClosedCase = "in_progress"
	EnforcementBodyClosedYes        EnforcementBodyClosedCase = "yes"
)

func (v EnforcementBodyClosedCase) Valid() bool {
	switch v {
	case EnforcementBodyClosedNo, EnforcementBodyClosedInProgress, EnforcementBodyClosedYes:
		return true
	}
	return false
}

// EnforcementBody is the regulator a closed case is sent to.
type EnforcementBody string

const (
	EnforcementBodyEHRC EnforcementBody = "ehrc"
	EnforcementBodyECNI EnforcementBody = "ecni"
)

func (v EnforcementBody) Valid() bool { return v == EnforcementBodyEHRC || v == EnforcementBodyECNI }

// PSBLocation is the nation a public sector body sits in.
type PSBLocation string

const (
	PSBLocationUnknown         PSBLocation = "unknown"
	PSBLocationEngland         PSBLocation = "england"
	PSBLocationScotland        PSBLocation = "scotland"
	PSBLocationWales           PSBLocation = "wales"
	PSBLocationNorthernIreland PSBLocation = "northern_ireland"
	PSBLocationUKWide          PSBLocation = "uk_wide"
)

func (v PSBLocation) Valid() bool {
	switch v {
	case PSBLocationUnknown, PSBLocationEngland, PSBLocationScotland, PSBLocationWales,
		PSBLocationNorthernIreland, PSBLocationUKWide:
		return true
	}
	return false
}

// WebsiteCompliance is a website compliance decision.
type WebsiteCompliance string

const (
	WebsiteComplianceUnknown   WebsiteCompliance = "unknown"
	WebsiteCompliancePartially WebsiteCompliance = "partially"
	WebsiteComplianceCompliant WebsiteCompliance = "compliant"
)

func (v WebsiteCompliance) Valid() bool {
	switch v {
	case WebsiteComplianceUnknown, WebsiteCompliancePartially, WebsiteComplianceCompliant:
		return true
	}
	return false
}

// StatementCompliance is an accessibility statement compliance decision.
type StatementCompliance string

const (
	StatementComplianceUnknown      StatementCompliance = "unknown"
	StatementComplianceNotCompliant StatementCompliance = "not_compliant"
	StatementComplianceCompliant    StatementCompliance = "compliant"
)

func (v StatementCompliance) Valid() bool {
	switch v {
	case StatementComplianceUnknown, StatementComplianceNotCompliant, StatementComplianceCompliant:
		return true
	}
	return false
}

// Preferred marks the preferred contact of a case.
type Preferred string

const (
	PreferredYes     Preferred = "yes"
	PreferredNo      Preferred = "no"
	PreferredUnknown Preferred = "unknown"
)

func (v Preferred) Valid() bool {
	return v == PreferredYes || v == PreferredNo || v == PreferredUnknown
}

// CorrespondenceType distinguishes equality body questions from retest requests.
type CorrespondenceType string

const (
	CorrespondenceQuestion CorrespondenceType = "question"
	CorrespondenceRetest   CorrespondenceType = "retest"
)

func (v CorrespondenceType) Valid() bool {
	return v == CorrespondenceQuestion || v == CorrespondenceRetest
}

// CorrespondenceStatus is whether equality body correspondence still needs action.
type CorrespondenceStatus string

const (
	CorrespondenceUnresolved CorrespondenceStatus = "unresolved"
	CorrespondenceResolved   CorrespondenceStatus = "resolved"
)

func (v CorrespondenceStatus) Valid() bool {
	return v == CorrespondenceUnresolved || v == CorrespondenceResolved
}

// RetestComplianceState is the outcome of an equality body requested retest.
type RetestComplianceState string

const (
	RetestNotKnown     RetestComplianceState = "not_known"
	RetestCompliant    RetestComplianceState = "compliant"
	RetestPartially    RetestComplianceState = "partially_compliant"
	RetestNotCompliant RetestComplianceState = "not_compliant"
)

func (v RetestComplianceState) Valid() bool {
	switch v {
	case RetestNotKnown, RetestCompliant, RetestPartially, RetestNotCompliant:
		return true
	}
	return false
}

// TaskType classifies entries in a user's task list.
type TaskType string

const (
	TaskQAComment      TaskType = "qa_comment"
	TaskReportApproved TaskType = "report_approved"
	TaskReminder       TaskType = "reminder"
	TaskOverdue        TaskType = "overdue"
	TaskPostCase       TaskType = "postcase"
)

// EventType is the kind of mutation recorded in the event history.
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
)
