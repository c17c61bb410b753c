package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/CatchLog_Go/internal/database"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/worker"
)

// AccountService is the part of the engine exposed to operators
type AccountService interface {
	GetAccountProgress(ctx context.Context, accountID string) (*domain.AccountProgress, error)
	Reconcile(ctx context.Context, accountID string) (*domain.ReconcileResult, error)
}

// ReconcileRunner runs a reconcile pass over every account
type ReconcileRunner interface {
	RunOnce(ctx context.Context) (worker.ReconcileSummary, error)
}

// HealthResponse is the body of the health endpoints
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReadyz pings the database when one is configured
func handleReadyz(pool database.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), ReadinessTimeout)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				logger.FromContext(r.Context()).Error(LogMsgReadinessFailed, "error", err)
				respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Message: ErrMsgNotReady})
				return
			}
		}
		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// engineError maps engine failures to operator-facing statuses
func engineError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error(LogMsgHandlerFailed, "path", r.URL.Path, "error", err)
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		respondError(w, http.StatusBadRequest, ErrMsgMissingAccountID)
	default:
		respondError(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}

func handleAccountProgress(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		progress, err := svc.GetAccountProgress(r.Context(), chi.URLParam(r, "accountID"))
		if err != nil {
			engineError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, progress)
	}
}

func handleAccountReconcile(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Reconcile(r.Context(), chi.URLParam(r, "accountID"))
		if err != nil {
			engineError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, struct {
			*domain.ReconcileResult
			Drift int64 `json:"drift"`
		}{result, result.Drift()})
	}
}

func handleReconcileAll(runner ReconcileRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			respondError(w, http.StatusServiceUnavailable, ErrMsgReconcileBusy)
			return
		}
		summary, err := runner.RunOnce(r.Context())
		if err != nil {
			engineError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	}
}
