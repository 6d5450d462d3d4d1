package batch

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fieldline/fieldline/internal/platform/httpx"
)

// Handler exposes the cron endpoints the hosting scheduler calls.
type Handler struct {
	runner   *Runner
	secret   string
	logger   *slog.Logger
	validate *validator.Validate
	clock    func() time.Time
}

// NewHandler constructs the cron HTTP handler. secret authenticates callers
// via a bearer token.
func NewHandler(runner *Runner, secret string, logger *slog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		secret:   secret,
		logger:   logger,
		validate: validator.New(),
		clock:    time.Now,
	}
}

// MountRoutes attaches the cron routes to the supplied router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.requireCronSecret)
	r.Get("/daily-snapshots", h.handleDailySnapshots)
	r.Get("/operational-scores", h.handleOperationalScores)
	r.Post("/run", h.handleManualRun)
}

// requireCronSecret enforces the shared bearer token with a constant-time
// compare. An empty configured secret fails closed.
func (h *Handler) requireCronSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.secret == "" {
			httpx.RespondError(w, fmt.Errorf("%w: cron secret not configured", httpx.ErrMisconfigured))
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			httpx.RespondError(w, fmt.Errorf("%w: invalid cron token", httpx.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleDailySnapshots runs the snapshot aggregation for yesterday, or for
// the date supplied via ?date=YYYY-MM-DD.
func (h *Handler) handleDailySnapshots(w http.ResponseWriter, r *http.Request) {
	date, err := h.queryDate(r, h.now().AddDate(0, 0, -1))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.runner.RunSnapshots(r.Context(), date, nil)
	if err != nil {
		h.logError("daily snapshots", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

// handleOperationalScores runs the dispatch, pricebook and health scorers
// for today, or for the date supplied via ?date=YYYY-MM-DD.
func (h *Handler) handleOperationalScores(w http.ResponseWriter, r *http.Request) {
	date, err := h.queryDate(r, h.now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.runner.RunScores(r.Context(), date, nil)
	if err != nil {
		h.logError("operational scores", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

type manualRunRequest struct {
	Job        string `json:"job" validate:"required,oneof=snapshots scores"`
	TargetDate string `json:"target_date" validate:"required,datetime=2006-01-02"`
	CompanyID  *int64 `json:"company_id" validate:"omitempty,gt=0"`
}

// handleManualRun triggers one job on demand, typically to backfill a date
// or replay a single tenant after a fix.
func (h *Handler) handleManualRun(w http.ResponseWriter, r *http.Request) {
	var req manualRunRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	date, _ := time.Parse("2006-01-02", req.TargetDate)

	var (
		summary *Summary
		err     error
	)
	switch req.Job {
	case "snapshots":
		summary, err = h.runner.RunSnapshots(r.Context(), date, req.CompanyID)
	case "scores":
		summary, err = h.runner.RunScores(r.Context(), date, req.CompanyID)
	}
	if err != nil {
		h.logError("manual run", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) queryDate(r *http.Request, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return fallback.UTC().Truncate(24 * time.Hour), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation)
	}
	return date, nil
}

func (h *Handler) now() time.Time {
	if h.clock == nil {
		return time.Now()
	}
	return h.clock()
}

func (h *Handler) logError(op string, err error) {
	if h.logger != nil {
		h.logger.Error("cron endpoint failed", slog.String("op", op), slog.Any("error", err))
	}
}
