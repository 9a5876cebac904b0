package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/a11ymon/internal/export"
	"github.com/garnizeh/a11ymon/pkg/models"
)

func readyCase() *models.Case {
	c := models.NewCase("Org", "https://org.example")
	c.ID = 3
	c.CaseNumber = 3
	c.Sector = "Local government"
	c.PSBLocation = models.PSBLocationEngland
	c.ReportSentDate = models.MustDate("2024-03-01").Ptr()
	c.TwelveWeekUpdateRequestedDate = models.MustDate("2024-05-24").Ptr()
	c.Compliance.WebsiteComplianceStateInitial = models.WebsiteCompliancePartially
	c.Compliance.StatementComplianceStateInitial = models.StatementComplianceNotCompliant
	c.Compliance.WebsiteComplianceState12Week = models.WebsiteComplianceCompliant
	c.Compliance.StatementComplianceState12Week = models.StatementComplianceCompliant
	return c
}

func TestDefaultColumnsAreValid(t *testing.T) {
	require.NoError(t, export.Validate(export.DefaultColumns()))
}

func TestValidateRejectsUnknownAttr(t *testing.T) {
	err := export.Validate([]export.Column{{Name: "X", SourceAttr: "no_such_field"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_field")

	err = export.Validate([]export.Column{{Name: "X", SourceAttr: "sector"}, {Name: "X", SourceAttr: "domain"}})
	require.Error(t, err)

	require.Error(t, export.Validate(nil))
}

func TestGate_ReadyCasePasses(t *testing.T) {
	g := export.NewGate(nil)
	assert.Empty(t, g.Missing(readyCase()))
	assert.NoError(t, g.Check(readyCase()))
}

func TestGate_MissingRequiredColumnBlocks(t *testing.T) {
	g := export.NewGate(nil)
	c := readyCase()
	c.Sector = ""
	c.Compliance.WebsiteComplianceState12Week = models.WebsiteComplianceUnknown

	assert.Equal(t, []string{"Sector", "Retest website compliance"}, g.Missing(c))

	err := g.Check(c)
	require.Error(t, err)
	assert.True(t, models.IsExportBlocked(err))
	assert.Contains(t, err.Error(), models.ExportBlockedMessage)
}

func TestGate_DefaultValueCountsAsMissing(t *testing.T) {
	g := export.NewGate([]export.Column{{Name: "Location", Required: true, Default: "unknown", SourceAttr: "psb_location"}})
	c := readyCase()
	c.PSBLocation = models.PSBLocationUnknown
	assert.Equal(t, []string{"Location"}, g.Missing(c))
}

func TestGate_OptionalColumnsIgnored(t *testing.T) {
	g := export.NewGate([]export.Column{{Name: "Ack", SourceAttr: "report_acknowledged_date"}})
	assert.Empty(t, g.Missing(models.NewCase("", "")))
}

func TestWriteCSV(t *testing.T) {
	g := export.NewGate([]export.Column{
		{Name: "Organisation", SourceAttr: "organisation_name"},
		{Name: "Report sent on", SourceAttr: "report_sent_date"},
		{Name: "Retest website compliance", SourceAttr: "compliance.website_compliance_state_12_week"},
	})
	var buf bytes.Buffer
	require.NoError(t, g.WriteCSV(&buf, []*models.Case{readyCase()}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Organisation", "Report sent on", "Retest website compliance"}, records[0])
	assert.Equal(t, []string{"Org", "2024-03-01", "compliant"}, records[1])
}
