// Package schedule derives follow-up due dates from correspondence sent dates.
//
// Due dates are computed at write time from the trigger field that changed
// and stored on the case; nothing sweeps them later. Offsets are calendar
// days. Clearing a trigger leaves its derived dates in place; clearing a due
// date while its trigger is set derives it again.
package schedule

import "github.com/garnizeh/a11ymon/pkg/models"

// Offsets are the calendar-day gaps between a trigger date and its due dates.
type Offsets struct {
	FollowupWeek1     int `yaml:"followup_week_1"`
	FollowupWeek4     int `yaml:"followup_week_4"`
	FollowupWeek12    int `yaml:"followup_week_12"`
	TwelveWeekChaser  int `yaml:"twelve_week_chaser"`
	NoContactOneWeek  int `yaml:"no_contact_one_week"`
	NoContactFourWeek int `yaml:"no_contact_four_week"`
}

// DefaultOffsets returns the standard 1, 4 and 12 week follow-up plan.
func DefaultOffsets() Offsets {
	return Offsets{
		FollowupWeek1:     7,
		FollowupWeek4:     28,
		FollowupWeek12:    84,
		TwelveWeekChaser:  7,
		NoContactOneWeek:  7,
		NoContactFourWeek: 28,
	}
}

// Scheduler applies Offsets to changed trigger fields.
type Scheduler struct {
	offsets Offsets
}

func New(o Offsets) *Scheduler {
	return &Scheduler{offsets: o}
}

// Apply sets the due dates on after whose trigger was written or changed
// relative to before. A nil before means the case is being created. It
// returns the names of the due-date fields it wrote. Sent dates are never
// touched.
func (s *Scheduler) Apply(before, after *models.Case) []string {
	var changed []string
	set := func(name string, dst **models.Date, v models.Date) {
		if *dst != nil && (*dst).Equal(v) {
			return
		}
		*dst = v.Ptr()
		changed = append(changed, name)
	}

	if d, ok := triggered(before, after, func(c *models.Case) *models.Date { return c.ReportSentDate }); ok {
		set("followup_week_1_due", &after.FollowupWeek1Due, d.AddDays(s.offsets.FollowupWeek1))
		set("followup_week_4_due", &after.FollowupWeek4Due, d.AddDays(s.offsets.FollowupWeek4))
		set("followup_week_12_due", &after.FollowupWeek12Due, d.AddDays(s.offsets.FollowupWeek12))
	}
	if d, ok := triggered(before, after, func(c *models.Case) *models.Date { return c.TwelveWeekUpdateRequestedDate }); ok {
		set("twelve_week_1_week_chaser_due", &after.TwelveWeek1WeekChaserDue, d.AddDays(s.offsets.TwelveWeekChaser))
	}
	if d, ok := triggered(before, after, func(c *models.Case) *models.Date { return c.SevenDayNoContactEmailSentDate }); ok {
		set("one_week_chaser_due", &after.OneWeekChaserDue, d.AddDays(s.offsets.NoContactOneWeek))
		set("four_week_chaser_due", &after.FourWeekChaserDue, d.AddDays(s.offsets.NoContactFourWeek))
	}
	return changed
}

// Fill sets the due dates on c that are empty while their trigger is set,
// leaving every other due date alone. It returns the names of the fields it
// wrote.
func (s *Scheduler) Fill(c *models.Case) []string {
	var filled []string
	fill := func(name string, trigger *models.Date, dst **models.Date, offset int) {
		if trigger == nil || *dst != nil {
			return
		}
		*dst = trigger.AddDays(offset).Ptr()
		filled = append(filled, name)
	}
	fill("followup_week_1_due", c.ReportSentDate, &c.FollowupWeek1Due, s.offsets.FollowupWeek1)
	fill("followup_week_4_due", c.ReportSentDate, &c.FollowupWeek4Due, s.offsets.FollowupWeek4)
	fill("followup_week_12_due", c.ReportSentDate, &c.FollowupWeek12Due, s.offsets.FollowupWeek12)
	fill("twelve_week_1_week_chaser_due", c.TwelveWeekUpdateRequestedDate, &c.TwelveWeek1WeekChaserDue, s.offsets.TwelveWeekChaser)
	fill("one_week_chaser_due", c.SevenDayNoContactEmailSentDate, &c.OneWeekChaserDue, s.offsets.NoContactOneWeek)
	fill("four_week_chaser_due", c.SevenDayNoContactEmailSentDate, &c.FourWeekChaserDue, s.offsets.NoContactFourWeek)
	return filled
}

// triggered reports the new trigger date when it is set on after and differs
// from before.
func triggered(before, after *models.Case, field func(*models.Case) *models.Date) (models.Date, bool) {
	next := field(after)
	if next == nil {
		return models.Date{}, false
	}
	if before != nil && models.SameDate(field(before), next) {
		return models.Date{}, false
	}
	return *next, true
}
