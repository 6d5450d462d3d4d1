package reporting

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldline/fieldline/internal/platform/httpx"
)

// Handler exposes read endpoints over the derived analytics tables.
type Handler struct {
	service *Service
}

// NewHandler constructs the reporting HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes attaches the reporting routes to the supplied router. The
// routes do no authentication or tenant scoping of their own: company_id is
// trusted as given, so they must be mounted behind a gateway that has
// already resolved the caller to that company.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/snapshots", h.handleSnapshots)
}

// handleSnapshots serves GET /snapshots?company_id=&from=&to=. The range
// defaults to the trailing 30 days and is capped at one year.
func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: company_id must be a positive integer", httpx.ErrValidation))
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: to must be YYYY-MM-DD", httpx.ErrValidation))
			return
		}
		from = to.AddDate(0, 0, -30)
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: from must be YYYY-MM-DD", httpx.ErrValidation))
			return
		}
	}
	if from.After(to) {
		httpx.RespondError(w, fmt.Errorf("%w: from must not be after to", httpx.ErrValidation))
		return
	}
	if to.Sub(from) > 366*24*time.Hour {
		httpx.RespondError(w, fmt.Errorf("%w: range must not exceed one year", httpx.ErrValidation))
		return
	}

	snaps, err := h.service.Snapshots(r.Context(), companyID, from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"companyId": companyID,
		"from":      from.Format("2006-01-02"),
		"to":        to.Format("2006-01-02"),
		"snapshots": snaps,
	})
}
