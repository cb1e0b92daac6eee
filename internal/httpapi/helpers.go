package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"itsolve.org/internal/identity"
	"itsolve.org/internal/workflow"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"message": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleWorkflowError maps workflow sentinels to the error taxonomy:
// InvalidInput 400, Forbidden 403, NotFound 404, Conflict 409, otherwise 500.
func handleWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, trimErrPrefix(err))
	case errors.Is(err, workflow.ErrForbidden):
		writeError(w, r, http.StatusForbidden, trimErrPrefix(err))
	case errors.Is(err, workflow.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "request not found")
	case errors.Is(err, workflow.ErrConflict):
		writeError(w, r, http.StatusConflict, "request is already resolved")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func handleIdentityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, trimErrPrefix(err))
	case errors.Is(err, identity.ErrConflict):
		writeError(w, r, http.StatusConflict, "email already exists")
	case errors.Is(err, identity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// trimErrPrefix strips the package prefix from a sentinel-wrapped error so
// clients see only the human-readable part.
func trimErrPrefix(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
