package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/garnizeh/a11ymon/pkg/models"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// badRequest is a malformed payload or query parameter.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError maps service errors to HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *models.ValidationError
		br  *badRequest
		inv *models.InvariantError
	)
	switch {
	case errors.As(err, &br):
		writeJSON(w, errorResponse{Error: br.msg}, http.StatusBadRequest)
	case errors.As(err, &ve):
		writeJSON(w, errorResponse{Error: ve.Message, Fields: ve.Fields}, http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, errorResponse{Error: "not found"}, http.StatusNotFound)
	case errors.Is(err, models.ErrStaleWrite):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusConflict)
	case errors.As(err, &inv):
		logger.Error("invariant violated", slog.String("path", r.URL.Path), slog.String("invariant", inv.Invariant), slog.String("detail", inv.Detail))
		writeJSON(w, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
	default:
		logger.Error("request failed", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("err", err))
		writeJSON(w, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, badRequestf("read body: %v", err)
	}
	if len(b) > maxBodyBytes {
		return nil, badRequestf("request body too large")
	}
	return b, nil
}

// decode validates the body against schema and unmarshals it into v.
func decode(r *http.Request, schema *payloadSchema, v any) ([]byte, error) {
	b, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if err := schema.validate(r.Context(), b); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return nil, badRequestf("invalid request: %v", err)
	}
	return b, nil
}

// applyFields overlays the JSON object raw onto dst. Keys outside writable
// are rejected before anything is changed.
func applyFields(dst any, raw json.RawMessage, writable map[string]bool) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return badRequestf("fields must be an object")
	}
	var rejected []string
	for k := range keys {
		if !writable[k] {
			rejected = append(rejected, k)
		}
	}
	if len(rejected) > 0 {
		slices.Sort(rejected)
		return &models.ValidationError{Message: "unknown or read-only fields", Fields: rejected}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return badRequestf("invalid field value: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequestf("invalid %s %q", name, raw)
	}
	return id, nil
}
