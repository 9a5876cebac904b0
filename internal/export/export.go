// Package export declares the equality body export column schedule, the
// readiness gate evaluated before a case is closed to be sent, and the CSV
// writer for closed cases.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/garnizeh/a11ymon/pkg/models"
)

// Column is one exported column. SourceAttr names the case attribute it
// reads (see models.Case.Attr). A required column is populated when its value
// is non-empty and differs from Default.
type Column struct {
	Name       string `yaml:"name" json:"name"`
	Required   bool   `yaml:"required" json:"required"`
	Default    string `yaml:"default" json:"default"`
	SourceAttr string `yaml:"source_attr" json:"source_attr"`
}

// DefaultColumns is the schedule used when the configuration supplies none.
func DefaultColumns() []Column {
	return []Column{
		{Name: "Equality body", Required: true, SourceAttr: "enforcement_body"},
		{Name: "Case number", SourceAttr: "case_number"},
		{Name: "Organisation", Required: true, SourceAttr: "organisation_name"},
		{Name: "Website URL", Required: true, SourceAttr: "home_page_url"},
		{Name: "Domain", SourceAttr: "domain"},
		{Name: "Sector", Required: true, SourceAttr: "sector"},
		{Name: "Public sector body location", Required: true, Default: string(models.PSBLocationUnknown), SourceAttr: "psb_location"},
		{Name: "Report sent on", Required: true, SourceAttr: "report_sent_date"},
		{Name: "Report acknowledged", SourceAttr: "report_acknowledged_date"},
		{Name: "12-week update requested", Required: true, SourceAttr: "twelve_week_update_requested_date"},
		{Name: "Initial website compliance", Required: true, Default: string(models.WebsiteComplianceUnknown), SourceAttr: "compliance.website_compliance_state_initial"},
		{Name: "Initial statement compliance", Required: true, Default: string(models.StatementComplianceUnknown), SourceAttr: "compliance.statement_compliance_state_initial"},
		{Name: "Retest website compliance", Required: true, Default: string(models.WebsiteComplianceUnknown), SourceAttr: "compliance.website_compliance_state_12_week"},
		{Name: "Retest statement compliance", Required: true, Default: string(models.StatementComplianceUnknown), SourceAttr: "compliance.statement_compliance_state_12_week"},
		{Name: "Organisation response", SourceAttr: "organisation_response"},
		{Name: "Enforcement recommendation notes", SourceAttr: "compliance.website_compliance_notes_12_week"},
	}
}

// Validate checks that every column names a known case attribute.
func Validate(cols []Column) error {
	if len(cols) == 0 {
		return fmt.Errorf("export: no columns")
	}
	probe := models.NewCase("", "")
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if col.Name == "" {
			return fmt.Errorf("export: column with empty name")
		}
		if seen[col.Name] {
			return fmt.Errorf("export: duplicate column %q", col.Name)
		}
		seen[col.Name] = true
		if _, ok := probe.Attr(col.SourceAttr); !ok {
			return fmt.Errorf("export: column %q: unknown source attribute %q", col.Name, col.SourceAttr)
		}
	}
	return nil
}

// Gate evaluates the required columns of a schedule against a case.
type Gate struct {
	columns []Column
}

func NewGate(cols []Column) *Gate {
	if len(cols) == 0 {
		cols = DefaultColumns()
	}
	return &Gate{columns: cols}
}

func (g *Gate) Columns() []Column { return g.columns }

// Missing returns the names of required columns that are empty or still at
// their default on c, in schedule order.
func (g *Gate) Missing(c *models.Case) []string {
	var missing []string
	for _, col := range g.columns {
		if !col.Required {
			continue
		}
		v, ok := c.Attr(col.SourceAttr)
		if !ok || v == "" || v == col.Default {
			missing = append(missing, col.Name)
		}
	}
	return missing
}

// Check returns the export blocked validation error when c is not ready.
func (g *Gate) Check(c *models.Case) error {
	if missing := g.Missing(c); len(missing) > 0 {
		return &models.ValidationError{Message: models.ExportBlockedMessage, Fields: missing}
	}
	return nil
}

// WriteCSV writes a header row of column names followed by one row per case.
func (g *Gate) WriteCSV(w io.Writer, cases []*models.Case) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(g.columns))
	for i, col := range g.columns {
		header[i] = col.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(g.columns))
	for _, c := range cases {
		for i, col := range g.columns {
			row[i], _ = c.Attr(col.SourceAttr)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write case %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
