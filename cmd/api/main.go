package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"itsolve.org/internal/httpapi"
	"itsolve.org/internal/identity"
	"itsolve.org/internal/obs"
	"itsolve.org/internal/policy"
	"itsolve.org/internal/store/pg"
	"itsolve.org/internal/workflow"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	resolution, err := policy.ParseResolutionPolicy(os.Getenv("ITSOLVE_RESOLUTION_POLICY"))
	if err != nil {
		log.Fatalf("resolution policy: %v", err)
	}
	engine := policy.NewEngine(resolution)

	// Postgres when a DSN is set; in-memory stores otherwise (dev, demos).
	var (
		db            *sql.DB
		identityStore identity.Store = identity.NewInMemory()
		workflowStore workflow.Store = workflow.NewInMemory()
	)
	if dsn := os.Getenv("ITSOLVE_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = store.DB()
		identityStore = store.Identity()
		workflowStore = store.Workflow()
	}

	directory := identity.NewDirectory(identityStore)
	requests := workflow.NewService(workflowStore, directory, engine)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, directory, requests, engine)

	addr := os.Getenv("ITSOLVE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting itsolve-api %s (resolution=%s) on %s", version, resolution, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
