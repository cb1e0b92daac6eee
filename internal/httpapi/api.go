// Package httpapi is the HTTP boundary of the service: routing, session
// handling, error mapping, and response shaping. All domain decisions live
// below it.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"itsolve.org/internal/identity"
	"itsolve.org/internal/obs"
	"itsolve.org/internal/policy"
	"itsolve.org/internal/workflow"
)

// ReadyProbe reports whether the service can take traffic (DB ping when a
// database is configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	directory *identity.Directory
	requests  *workflow.Service
	engine    *policy.Engine

	rateBurst  int
	ratePerSec int
}

// New wires the routing table.
func New(rp ReadyProbe, version string, directory *identity.Directory, requests *workflow.Service, engine *policy.Engine) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		directory:  directory,
		requests:   requests,
		engine:     engine,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/auth/login", a.handleLogin)

	a.mux.HandleFunc("/requests", a.handleRequestsCollection)
	a.mux.HandleFunc("/requests/assign", a.handleAssign)
	a.mux.HandleFunc("/requests/resolve", a.handleResolve)

	a.mux.HandleFunc("/users", a.handleUsersCollection)
	a.mux.HandleFunc("/users/", a.handleUserResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "itsolve-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
