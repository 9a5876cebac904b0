package api

import (
	"net/http"

	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

func (h *CasesHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.svc.ListContacts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Contact{}
	}
	writeJSON(w, list, http.StatusOK)
}

func (h *CasesHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var c models.Contact
	if _, err := decode(r, contactSchema, &c); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.AddContact(r.Context(), id, &c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusCreated)
}

func (h *CasesHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cid, err := pathID(r, "cid")
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := contactSchema.validate(r.Context(), body); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.UpdateContact(r.Context(), id, cid, func(c *models.Contact) error {
		return applyFields(c, body, contactWritable)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusOK)
}

func (h *CasesHandler) ListCorrespondence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.svc.ListCorrespondence(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.EqualityBodyCorrespondence{}
	}
	writeJSON(w, list, http.StatusOK)
}

func (h *CasesHandler) CreateCorrespondence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var c models.EqualityBodyCorrespondence
	if _, err := decode(r, correspondenceSchema, &c); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.AddCorrespondence(r.Context(), id, &c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusCreated)
}

func (h *CasesHandler) UpdateCorrespondence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cid, err := pathID(r, "cid")
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := correspondenceSchema.validate(r.Context(), body); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.UpdateCorrespondence(r.Context(), id, cid, func(c *models.EqualityBodyCorrespondence) error {
		return applyFields(c, body, correspondenceWritable)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusOK)
}

func (h *CasesHandler) ListRetests(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.svc.ListRetests(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Retest{}
	}
	writeJSON(w, list, http.StatusOK)
}

func (h *CasesHandler) CreateRetest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var rt models.Retest
	if _, err := decode(r, retestSchema, &rt); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.AddRetest(r.Context(), id, &rt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusCreated)
}

func (h *CasesHandler) UpdateRetest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rid, err := pathID(r, "rid")
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := retestSchema.validate(r.Context(), body); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.UpdateRetest(r.Context(), id, rid, func(rt *models.Retest) error {
		return applyFields(rt, body, retestWritable)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusOK)
}

type reminderRequest struct {
	Date        models.Date `json:"date"`
	Description string      `json:"description"`
}

func (h *CasesHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.svc.GetReminder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

// SetReminder sets the case reminder for the calling user.
func (h *CasesHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reminderRequest
	if _, err := decode(r, reminderSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := repository.ActorFrom(r.Context())
	t, err := h.svc.SetReminder(r.Context(), id, actor, req.Date, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

func (h *CasesHandler) ClearReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.ClearReminder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
