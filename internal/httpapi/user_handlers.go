package httpapi

import (
	"net/http"
	"strings"

	"itsolve.org/internal/identity"
	"itsolve.org/internal/obs"
	"itsolve.org/internal/policy"
)

type createUserBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Office   string `json:"office"`
	Password string `json:"password"`
}

type updateUserBody struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Office *string `json:"office"`
}

type updatePasswordBody struct {
	NewPassword string `json:"newPassword"`
}

func (a *API) authorizeUserAdmin(w http.ResponseWriter, r *http.Request) bool {
	actor, ok := mustActor(w, r)
	if !ok {
		return false
	}
	if d := a.engine.Authorize(actor, policy.ActionManageUsers, nil); !d.Allow {
		writeError(w, r, http.StatusForbidden, d.Reason)
		return false
	}
	return true
}

// handleUsersCollection serves GET (listing, optional ?role= filter) and
// POST (account creation). Supervisors manage the directory.
func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if !a.authorizeUserAdmin(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		roles := []identity.Role{identity.RoleOffice, identity.RoleStudent}
		if raw := r.URL.Query().Get("role"); raw != "" {
			role, err := identity.ParseRole(raw)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			roles = []identity.Role{role}
		}
		users, err := a.directory.ListUsers(r.Context(), roles...)
		if err != nil {
			handleIdentityError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})

	case http.MethodPost:
		var body createUserBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.directory.CreateUser(r.Context(), body.Name, body.Email, body.Role, body.Office, body.Password)
		if err != nil {
			handleIdentityError(w, r, err)
			return
		}
		obs.LogEvent("user_created", map[string]any{
			"user_id": user.ID,
			"role":    string(user.Role),
		})
		user.PasswordHash = ""
		writeJSON(w, http.StatusCreated, user)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleUserResource serves /users/{id} and /users/{id}/password.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	if !a.authorizeUserAdmin(w, r) {
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		a.handleUserByID(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] == "password":
		a.handleUserPassword(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPut:
		var body updateUserBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd := identity.Update{Name: body.Name, Email: body.Email, Office: body.Office}
		if body.Role != nil {
			role, err := identity.ParseRole(*body.Role)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			upd.Role = &role
		}
		user, err := a.directory.UpdateUser(r.Context(), id, upd)
		if err != nil {
			handleIdentityError(w, r, err)
			return
		}
		user.PasswordHash = ""
		writeJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if err := a.directory.DeleteUser(r.Context(), id); err != nil {
			handleIdentityError(w, r, err)
			return
		}
		obs.LogEvent("user_deleted", map[string]any{"user_id": id})
		writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})

	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleUserPassword(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var body updatePasswordBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.directory.ResetCredential(r.Context(), id, body.NewPassword); err != nil {
		handleIdentityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}
