package api

import (
	"net/http"

	"github.com/garnizeh/a11ymon/internal/cases"
	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// QueuesHandler serves the overdue list, the task list, platform settings
// and users.
type QueuesHandler struct {
	svc    *cases.Service
	queues *cases.Queues
}

func NewQueuesHandler(svc *cases.Service, queues *cases.Queues) *QueuesHandler {
	return &QueuesHandler{svc: svc, queues: queues}
}

// Overdue lists the caller's overdue cases, or every user's with scope=all.
func (h *QueuesHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	var userID *int64
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "mine":
		actor, _ := repository.ActorFrom(r.Context())
		userID = &actor
	case "all":
	default:
		writeError(w, r, badRequestf("invalid scope %q", scope))
		return
	}
	list, err := h.queues.Overdue(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, list, http.StatusOK)
}

func (h *QueuesHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	actor, _ := repository.ActorFrom(r.Context())
	items, err := h.queues.Tasks(r.Context(), actor, r.URL.Query().Get("include_read") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, items, http.StatusOK)
}

func (h *QueuesHandler) MarkTaskRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := repository.ActorFrom(r.Context())
	t, err := h.queues.MarkTaskRead(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

func (h *QueuesHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, s, http.StatusOK)
}

type settingsRequest struct {
	ActiveQAAuditorID *int64 `json:"active_qa_auditor_id"`
}

func (h *QueuesHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if _, err := decode(r, settingsSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.svc.UpdateSettings(r.Context(), req.ActiveQAAuditorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, s, http.StatusOK)
}

func (h *QueuesHandler) QAQueue(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.QAQueue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, q, http.StatusOK)
}

func (h *QueuesHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, users, http.StatusOK)
}

func (h *QueuesHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if _, err := decode(r, userSchema, &u); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.CreateUser(r.Context(), &u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, out, http.StatusCreated)
}
