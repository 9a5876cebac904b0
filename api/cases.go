package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/garnizeh/a11ymon/internal/cases"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

type CasesHandler struct {
	svc *cases.Service
}

func NewCasesHandler(svc *cases.Service) *CasesHandler {
	return &CasesHandler{svc: svc}
}

// Fields clients never write.
var caseReadOnly = []string{
	"id", "case_number", "domain", "status", "qa_status", "completed_date",
	"version", "created_by", "created", "updated", "compliance",
}

var caseWritable = writableKeys(models.NewCase("", ""), caseReadOnly...)

var (
	contactWritable        = writableKeys(&models.Contact{}, "id", "case_id", "created")
	correspondenceWritable = writableKeys(&models.EqualityBodyCorrespondence{}, "id", "case_id", "id_within_case", "created")
	retestWritable         = writableKeys(&models.Retest{}, "id", "case_id", "id_within_case", "created")
)

// writableKeys lists the JSON keys of v minus readOnly.
func writableKeys(v any, readOnly ...string) map[string]bool {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		panic(err)
	}
	out := make(map[string]bool, len(keys))
	for k := range keys {
		out[k] = true
	}
	for _, k := range readOnly {
		delete(out, k)
	}
	return out
}

func (h *CasesHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := createCaseSchema.validate(r.Context(), body); err != nil {
		writeError(w, r, err)
		return
	}
	c := models.NewCase("", "")
	if err := applyFields(c, body, caseWritable); err != nil {
		writeError(w, r, err)
		return
	}
	if actor, ok := repository.ActorFrom(r.Context()); ok {
		c.CreatedBy = &actor
	}
	out, err := h.svc.CreateCase(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusCreated)
}

func (h *CasesHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f repository.CaseFilter
	if a := q.Get("auditor"); a != "" {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, badRequestf("invalid auditor %q", a))
			return
		}
		f.AuditorID = &id
	}
	for _, raw := range q["status"] {
		for s := range strings.SplitSeq(raw, ",") {
			st := models.Status(strings.TrimSpace(s))
			if !st.Valid() {
				writeError(w, r, badRequestf("invalid status %q", s))
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	f.IncludeDeactivated = q.Get("include_deactivated") == "true"

	list, err := h.svc.ListCases(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Case{}
	}
	writeJSON(w, map[string]any{"total": len(list), "items": list}, http.StatusOK)
}

func (h *CasesHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.GetCase(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, c, http.StatusOK)
}

type patchCaseRequest struct {
	Version int64           `json:"version"`
	Fields  json.RawMessage `json:"fields"`
}

func (h *CasesHandler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req patchCaseRequest
	if _, err := decode(r, patchCaseSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.UpdateCase(r.Context(), id, req.Version, func(c *models.Case) error {
		return applyFields(c, req.Fields, caseWritable)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusOK)
}

type complianceRequest struct {
	Version    int64           `json:"version"`
	Compliance json.RawMessage `json:"compliance"`
}

// UpdateCompliance overlays the given decisions onto the stored compliance.
func (h *CasesHandler) UpdateCompliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req complianceRequest
	if _, err := decode(r, complianceSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.UpdateCase(r.Context(), id, req.Version, func(c *models.Case) error {
		if err := json.Unmarshal(req.Compliance, c.Compliance); err != nil {
			return badRequestf("invalid compliance: %v", err)
		}
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out.Compliance, http.StatusOK)
}

func (h *CasesHandler) NextAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	na, err := h.svc.NextAction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, na, http.StatusOK)
}

func (h *CasesHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []models.EventHistory{}
	}
	writeJSON(w, events, http.StatusOK)
}

func (h *CasesHandler) ExportReadiness(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	missing, err := h.svc.ExportReadiness(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"ready":   len(missing) == 0,
		"missing": missing,
		"columns": h.svc.ExportColumns(),
	}, http.StatusOK)
}

// ExportCSV streams the export columns of closed cases as CSV.
func (h *CasesHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var statuses []models.Status
	for _, s := range r.URL.Query()["status"] {
		st := models.Status(s)
		if !st.Valid() {
			writeError(w, r, badRequestf("invalid status %q", s))
			return
		}
		statuses = append(statuses, st)
	}
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(r.Context(), &buf, statuses); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="equality-body-export.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
