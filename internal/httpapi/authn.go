package httpapi

import (
	"net/http"
	"strings"

	"itsolve.org/internal/session"
)

// publicPaths are reachable without a session token.
var publicPaths = map[string]bool{
	"/":           true,
	"/auth/login": true,
	"/healthz":    true,
	"/readyz":     true,
	"/metrics":    true,
}

// withAuth authenticates bearer tokens and stores the verified actor in the
// request context. Everything outside publicPaths requires a valid token.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, "authorization token is required")
			return
		}

		claims, err := session.ParseAndValidate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(session.ContextWithActor(r.Context(), claims.Actor())))
	})
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// mustActor fetches the actor placed by withAuth. A miss means a routing bug
// (a protected handler reachable without the middleware), so treat it as 401.
func mustActor(w http.ResponseWriter, r *http.Request) (session.Actor, bool) {
	actor, ok := session.ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authorization token is required")
		return session.Actor{}, false
	}
	return actor, true
}
