package httpapi

import (
	"errors"
	"net/http"

	"itsolve.org/internal/obs"
	"itsolve.org/internal/workflow"
)

type createRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type assignRequestBody struct {
	RequestID string `json:"requestId"`
	StudentID string `json:"studentId"`
}

type resolveRequestBody struct {
	RequestID string `json:"requestId"`
}

// handleRequestsCollection serves GET (role-scoped listing) and POST (create).
func (a *API) handleRequestsCollection(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		views, err := a.requests.List(r.Context(), actor)
		if err != nil {
			handleWorkflowError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"requests": views})

	case http.MethodPost:
		var body createRequestBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		view, err := a.requests.Create(r.Context(), actor, body.Title, body.Description)
		if err != nil {
			handleWorkflowError(w, r, err)
			return
		}
		obs.LogEvent("request_created", map[string]any{
			"request_id": view.ID,
			"actor_id":   actor.ID,
		})
		writeJSON(w, http.StatusCreated, view)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleAssign routes a pending request to a student.
func (a *API) handleAssign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var body assignRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if body.RequestID == "" || body.StudentID == "" {
		writeError(w, r, http.StatusBadRequest, "requestId and studentId are required")
		return
	}

	view, err := a.requests.Assign(r.Context(), actor, body.RequestID, body.StudentID)
	if err != nil {
		handleWorkflowError(w, r, err)
		return
	}
	obs.LogEvent("request_assigned", map[string]any{
		"request_id": view.ID,
		"student_id": body.StudentID,
		"actor_id":   actor.ID,
	})
	writeJSON(w, http.StatusOK, view)
}

// handleResolve closes a pending request; exactly one caller can win.
func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var body resolveRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if body.RequestID == "" {
		writeError(w, r, http.StatusBadRequest, "requestId is required")
		return
	}

	view, err := a.requests.Resolve(r.Context(), actor, body.RequestID)
	if err != nil {
		if errors.Is(err, workflow.ErrConflict) {
			obs.ObserveResolveConflict()
		}
		handleWorkflowError(w, r, err)
		return
	}
	obs.ObserveResolved(string(a.requests.Resolution()))
	obs.LogEvent("request_resolved", map[string]any{
		"request_id": view.ID,
		"actor_id":   actor.ID,
	})
	writeJSON(w, http.StatusOK, view)
}
