// cmd/web/main.go
//
// Worklane – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load config; resolve the database password through Vault when it is
//     a `vault:` URI.
//
//  4. Open the shared multi-tenant DB and log the active tenant count.
//
//  5. Build the tenant record cache and the scoped store + services.
//
//  6. Mount the chi router: security headers, request-info enrichment, and
//     the tenant resolver wrap every route, so tenancy is established
//     before any handler touches data.
//
// Authentication token mechanics live in a collaborator; these handlers
// read the already-verified identity headers it forwards.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worklane/worklane/internal/audit"
	"github.com/worklane/worklane/internal/config"
	"github.com/worklane/worklane/internal/database"
	"github.com/worklane/worklane/internal/identity"
	"github.com/worklane/worklane/internal/lifecycle"
	"github.com/worklane/worklane/internal/logger"
	"github.com/worklane/worklane/internal/middleware"
	"github.com/worklane/worklane/internal/requestinfo"
	"github.com/worklane/worklane/internal/server"
	"github.com/worklane/worklane/internal/service/invoice"
	"github.com/worklane/worklane/internal/service/project"
	"github.com/worklane/worklane/internal/service/task"
	"github.com/worklane/worklane/internal/service/workflow"
	"github.com/worklane/worklane/internal/store"
	"github.com/worklane/worklane/internal/tenancy"
	"github.com/worklane/worklane/internal/vault"
)

const serverEnvPath = "/usr/local/etc/worklane/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalw("load config", "err", err)
	}

	ctx := context.Background()

	//
	// ── 1.  Secrets and shared DB ───────────────────────────────────────
	//
	password := cfg.Database.Password
	if strings.HasPrefix(password, vault.URIPrefix) {
		vc, err := vault.New(ctx)
		if err != nil {
			logOut.Fatalw("vault init", "err", err)
		}
		if password, err = vc.Resolve(ctx, password); err != nil {
			logOut.Fatalw("resolve db password", "err", err)
		}
	}

	dsn := cfg.Database.DSN
	if strings.Contains(dsn, "%s") {
		dsn = fmt.Sprintf(dsn, password)
	}
	db, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalw("connect db", "err", err)
	}
	defer db.Close()

	var active int
	_ = db.Get(&active, `
	    SELECT COUNT(*) FROM tenant
	    WHERE suspended_at IS NULL AND deleted_at IS NULL`)
	logOut.Infow("db online", "active_tenants", active)

	if cfg.Geo.CityDB != "" {
		if err := requestinfo.InitGeo(cfg.Geo.CityDB); err != nil {
			logOut.Warnw("geo db unavailable", "path", cfg.Geo.CityDB, "err", err)
		}
	}

	//
	// ── 2.  Core wiring ─────────────────────────────────────────────────
	//
	st := store.New(db)
	rec := audit.New(st)
	workflows := workflow.NewService(st, rec)
	invoices := invoice.NewService(st, rec)
	tasks := task.NewService(st, rec)
	projects := project.NewService(st, rec)
	cache := tenancy.NewCache(db, tenancy.IdleTTL, tenancy.MaxEntries)

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.Resolver(cache))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/workflows", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var body struct{ Title, Detail string }
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			wf, err := workflows.Create(req.Context(), actorFrom(req), body.Title, body.Detail)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, wf)
		})
		r.Post("/{id}/submit", workflowAction(workflows.Submit))
		r.Post("/{id}/withdraw", workflowAction(workflows.Withdraw))
		r.Post("/{id}/approve", workflowDecision(workflows.Approve))
		r.Post("/{id}/reject", workflowDecision(workflows.Reject))
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Post("/{id}/send", statusAction(invoices.Send))
		r.Post("/{id}/pay", statusAction(invoices.Pay))
		r.Post("/{id}/cancel", statusAction(invoices.Cancel))
	})

	r.Post("/tasks/{id}/move", func(w http.ResponseWriter, req *http.Request) {
		id, err := pathID(req)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var body struct{ State string }
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := tasks.Move(req.Context(), actorFrom(req), id,
			lifecycle.TaskState(body.State)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Post("/{id}/activate", statusAction(projects.Activate))
		r.Post("/{id}/complete", statusAction(projects.Complete))
		r.Post("/{id}/cancel", statusAction(projects.Cancel))
	})

	handler := http.Handler(r)
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	srv := server.New(cfg.HTTP.ListenAddr, handler)
	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logOut.Fatalw("serve", "err", err)
	}
}

//
// ── Handler helpers ─────────────────────────────────────────────────────
//

// actorFrom reads the identity headers forwarded by the auth layer.
func actorFrom(r *http.Request) identity.Actor {
	id, _ := strconv.ParseUint(r.Header.Get("X-User-ID"), 10, 64)
	var roles []string
	if raw := r.Header.Get("X-User-Roles"); raw != "" {
		roles = strings.Split(raw, ",")
	}
	return identity.Actor{ID: id, Roles: roles}
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func workflowAction(fn func(context.Context, identity.Actor, uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := fn(r.Context(), actorFrom(r), id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func workflowDecision(fn func(context.Context, identity.Actor, uint64, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var body struct{ Comment string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if err := fn(r.Context(), actorFrom(r), id, body.Comment); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// statusAction handles the id-only status moves shared by invoices and
// projects.
func statusAction(fn func(context.Context, identity.Actor, uint64) error) http.HandlerFunc {
	return workflowAction(fn)
}

// writeErr translates core errors into HTTP statuses.  Transition refusals
// are client errors with an actionable message; missing-context and audit
// violations are defects and stay generic 500s.
func writeErr(w http.ResponseWriter, err error) {
	var te *lifecycle.TransitionError
	switch {
	case errors.As(err, &te):
		http.Error(w, te.Error(), http.StatusConflict)
	case errors.Is(err, invoice.ErrNotDraft):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, invoice.ErrNotFound),
		errors.Is(err, task.ErrNotFound), errors.Is(err, project.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, workflow.ErrNotOwner),
		errors.Is(err, workflow.ErrSelfAction),
		errors.Is(err, workflow.ErrRole),
		errors.Is(err, invoice.ErrRole),
		errors.Is(err, project.ErrRole):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, store.ErrNoTenant), errors.Is(err, store.ErrAuditImmutable):
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
