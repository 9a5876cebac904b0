package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/a11ymon/internal/schedule"
	"github.com/garnizeh/a11ymon/pkg/models"
)

func date(s string) *models.Date { return models.MustDate(s).Ptr() }

func TestReportSentSetsFollowups(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	before := models.NewCase("A", "https://a.example")
	after := before.Clone()
	after.ReportSentDate = date("2024-03-01")

	changed := s.Apply(before, after)

	assert.ElementsMatch(t, []string{"followup_week_1_due", "followup_week_4_due", "followup_week_12_due"}, changed)
	assert.Equal(t, "2024-03-08", after.FollowupWeek1Due.String())
	assert.Equal(t, "2024-03-29", after.FollowupWeek4Due.String())
	assert.Equal(t, "2024-05-24", after.FollowupWeek12Due.String())
}

func TestOffsetsAreCalendarDays(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	for _, sent := range []string{"2024-02-23", "2023-12-29", "2024-10-25"} {
		c := models.NewCase("A", "https://a.example")
		c.ReportSentDate = date(sent)
		s.Apply(nil, c)
		d := models.MustDate(sent)
		assert.True(t, c.FollowupWeek1Due.Equal(d.AddDays(7)), sent)
		assert.True(t, c.FollowupWeek4Due.Equal(d.AddDays(28)), sent)
		assert.True(t, c.FollowupWeek12Due.Equal(d.AddDays(84)), sent)
	}
}

func TestChangedTriggerOverwritesDerivedDates(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	before := models.NewCase("A", "https://a.example")
	before.ReportSentDate = date("2024-03-01")
	s.Apply(nil, before)

	after := before.Clone()
	after.ReportSentDate = date("2024-04-01")
	s.Apply(before, after)

	assert.Equal(t, "2024-04-08", after.FollowupWeek1Due.String())
	assert.Equal(t, "2024-06-24", after.FollowupWeek12Due.String())
}

func TestUnchangedTriggerKeepsUserEditedDueDates(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	before := models.NewCase("A", "https://a.example")
	before.ReportSentDate = date("2024-03-01")
	s.Apply(nil, before)

	after := before.Clone()
	after.FollowupWeek1Due = date("2024-03-15")
	changed := s.Apply(before, after)

	assert.Empty(t, changed)
	assert.Equal(t, "2024-03-15", after.FollowupWeek1Due.String())
}

func TestApplyIsIdempotent(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	c := models.NewCase("A", "https://a.example")
	c.ReportSentDate = date("2024-03-01")
	c.TwelveWeekUpdateRequestedDate = date("2024-05-24")
	s.Apply(nil, c)

	snapshot := c.Clone()
	changed := s.Apply(nil, c)

	assert.Empty(t, changed)
	assert.Equal(t, snapshot, c)
}

func TestSentDatesAreNeverTouched(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	before := models.NewCase("A", "https://a.example")
	after := before.Clone()
	after.ReportSentDate = date("2024-03-01")
	after.FollowupWeek1Sent = date("2024-03-02")

	s.Apply(before, after)
	assert.Equal(t, "2024-03-02", after.FollowupWeek1Sent.String())
}

func TestClearedTriggerKeepsDerivedDates(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	before := models.NewCase("A", "https://a.example")
	before.TwelveWeekUpdateRequestedDate = date("2024-05-24")
	s.Apply(nil, before)
	require.Equal(t, "2024-05-31", before.TwelveWeek1WeekChaserDue.String())

	after := before.Clone()
	after.TwelveWeekUpdateRequestedDate = nil
	changed := s.Apply(before, after)

	assert.Empty(t, changed)
	assert.Equal(t, "2024-05-31", after.TwelveWeek1WeekChaserDue.String())
}

func TestNoContactEmailSchedulesChasers(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	c := models.NewCase("A", "https://a.example")
	c.SevenDayNoContactEmailSentDate = date("2024-01-10")
	s.Apply(nil, c)

	assert.Equal(t, "2024-01-17", c.OneWeekChaserDue.String())
	assert.Equal(t, "2024-02-07", c.FourWeekChaserDue.String())
}

func TestFillRestoresClearedDueDates(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	c := models.NewCase("A", "https://a.example")
	c.ReportSentDate = date("2024-03-01")
	s.Apply(nil, c)
	c.FollowupWeek1Due = nil
	c.FollowupWeek4Due = date("2024-04-02")

	filled := s.Fill(c)

	assert.Equal(t, []string{"followup_week_1_due"}, filled)
	assert.Equal(t, "2024-03-08", c.FollowupWeek1Due.String())
	assert.Equal(t, "2024-04-02", c.FollowupWeek4Due.String())
}

func TestFillWithoutTriggerLeavesCaseAlone(t *testing.T) {
	s := schedule.New(schedule.DefaultOffsets())
	c := models.NewCase("A", "https://a.example")

	assert.Empty(t, s.Fill(c))
	assert.Nil(t, c.FollowupWeek1Due)
	assert.Nil(t, c.TwelveWeek1WeekChaserDue)
	assert.Nil(t, c.OneWeekChaserDue)
}
