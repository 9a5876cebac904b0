package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/a11ymon/pkg/models"
)

// payloadSchema is a compiled JSON schema for one request body.
type payloadSchema struct {
	name   string
	schema *jsonschema.Schema
}

func compile(name string, doc map[string]any) *payloadSchema {
	b, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(b, rs); err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &payloadSchema{name: name, schema: rs}
}

func (p *payloadSchema) validate(ctx context.Context, body []byte) error {
	verrs, err := p.schema.ValidateBytes(ctx, body)
	if err != nil {
		return badRequestf("invalid JSON: %v", err)
	}
	if len(verrs) == 0 {
		return nil
	}
	var sb strings.Builder
	for i, v := range verrs {
		if i > 0 {
			sb.WriteString("; ")
		}
		if v.PropertyPath != "" && v.PropertyPath != "/" {
			sb.WriteString(v.PropertyPath)
			sb.WriteString(": ")
		}
		sb.WriteString(v.Message)
	}
	return badRequestf("%s does not match schema: %s", p.name, sb.String())
}

func object(required []string, props map[string]any) map[string]any {
	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func enum[T ~string](vals ...T) map[string]any {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return map[string]any{"type": "string", "enum": out}
}

var (
	str        = map[string]any{"type": "string"}
	nonEmpty   = map[string]any{"type": "string", "minLength": 1}
	versionNum = map[string]any{"type": "integer", "minimum": 1}
	nullableID = map[string]any{"type": []string{"integer", "null"}, "minimum": 1}
	date       = map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
	anyObject  = map[string]any{"type": "object"}
)

var nullableDate = map[string]any{"type": []string{"string", "null"}, "pattern": `^\d{4}-\d{2}-\d{2}$`}

var complianceProps = map[string]any{
	"website_compliance_state_initial":   enum(models.WebsiteComplianceUnknown, models.WebsiteCompliancePartially, models.WebsiteComplianceCompliant),
	"website_compliance_notes_initial":   str,
	"statement_compliance_state_initial": enum(models.StatementComplianceUnknown, models.StatementComplianceNotCompliant, models.StatementComplianceCompliant),
	"statement_compliance_notes_initial": str,
	"website_compliance_state_12_week":   enum(models.WebsiteComplianceUnknown, models.WebsiteCompliancePartially, models.WebsiteComplianceCompliant),
	"website_compliance_notes_12_week":   str,
	"statement_compliance_state_12_week": enum(models.StatementComplianceUnknown, models.StatementComplianceNotCompliant, models.StatementComplianceCompliant),
	"statement_compliance_notes_12_week": str,
}

var (
	createCaseSchema = compile("case", map[string]any{
		"type":     "object",
		"required": []string{"organisation_name"},
		"properties": map[string]any{
			"organisation_name": nonEmpty,
			"home_page_url":     str,
		},
	})

	patchCaseSchema = compile("case update", object([]string{"version", "fields"}, map[string]any{
		"version": versionNum,
		"fields":  anyObject,
	}))

	complianceSchema = compile("compliance", object([]string{"version", "compliance"}, map[string]any{
		"version":    versionNum,
		"compliance": object(nil, complianceProps),
	}))

	contactSchema = compile("contact", object(nil, map[string]any{
		"name":       str,
		"job_title":  str,
		"email":      str,
		"preferred":  enum(models.PreferredYes, models.PreferredNo, models.PreferredUnknown),
		"is_deleted": map[string]any{"type": "boolean"},
	}))

	correspondenceSchema = compile("equality body correspondence", object(nil, map[string]any{
		"type":       enum(models.CorrespondenceQuestion, models.CorrespondenceRetest),
		"status":     enum(models.CorrespondenceUnresolved, models.CorrespondenceResolved),
		"message":    str,
		"notes":      str,
		"is_deleted": map[string]any{"type": "boolean"},
	}))

	retestSchema = compile("retest", object(nil, map[string]any{
		"date_of_retest":          nullableDate,
		"retest_compliance_state": enum(models.RetestNotKnown, models.RetestCompliant, models.RetestPartially, models.RetestNotCompliant),
		"retest_notes":            str,
		"is_deleted":              map[string]any{"type": "boolean"},
	}))

	reminderSchema = compile("reminder", object([]string{"date", "description"}, map[string]any{
		"date":        date,
		"description": nonEmpty,
	}))

	settingsSchema = compile("settings", object([]string{"active_qa_auditor_id"}, map[string]any{
		"active_qa_auditor_id": nullableID,
	}))

	userSchema = compile("user", object([]string{"display_name", "email"}, map[string]any{
		"display_name": nonEmpty,
		"email":        nonEmpty,
	}))
)
