package batch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, secret string, tenants TenantLister) (*Handler, *mockSnapshots) {
	t.Helper()
	snaps := &mockSnapshots{}
	runner := &Runner{
		Tenants:   tenants,
		Snapshots: snaps,
		Dispatch:  &mockDispatch{},
		Pricebook: &mockPricebook{},
		Health:    &mockHealth{},
	}
	h := NewHandler(runner, secret, nil)
	h.clock = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return h, snaps
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCronRequiresBearerToken(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", &mockTenants{})

	req := httptest.NewRequest(http.MethodGet, "/daily-snapshots", nil)
	rec := serve(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/daily-snapshots", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = serve(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCronEmptySecretFailsClosed(t *testing.T) {
	h, _ := newTestHandler(t, "", &mockTenants{})

	req := httptest.NewRequest(http.MethodGet, "/daily-snapshots", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := serve(h, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Configuration Error")
}

func TestDailySnapshotsDefaultsToYesterday(t *testing.T) {
	h, snaps := newTestHandler(t, "s3cret", &mockTenants{companies: companies(1)})

	req := httptest.NewRequest(http.MethodGet, "/daily-snapshots", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"targetDate":"2026-03-13"`)
	assert.Len(t, snaps.calls, 1)
}

func TestDailySnapshotsExplicitDate(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", &mockTenants{companies: companies(1)})

	req := httptest.NewRequest(http.MethodGet, "/daily-snapshots?date=2026-02-01", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"targetDate":"2026-02-01"`)
}

func TestDailySnapshotsRejectsBadDate(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", &mockTenants{})

	req := httptest.NewRequest(http.MethodGet, "/daily-snapshots?date=03-14-2026", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationalScoresDefaultsToToday(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", &mockTenants{companies: companies(1)})

	req := httptest.NewRequest(http.MethodGet, "/operational-scores", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"targetDate":"2026-03-14"`)
}

func TestCronTenantListFailureIsServerError(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", &mockTenants{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/daily-snapshots", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCronPartialFailureStillOK(t *testing.T) {
	snaps := &mockSnapshots{errFor: map[int64]error{2: errors.New("bad tenant")}}
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(1, 2)},
		Snapshots: snaps,
	}
	h := NewHandler(runner, "s3cret", nil)

	req := httptest.NewRequest(http.MethodGet, "/daily-snapshots?date=2026-03-01", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// The run completed, so the summary itself is a success even though a
	// tenant inside it failed.
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"failCount":1`)
	assert.Contains(t, rec.Body.String(), `"successCount":1`)
}

func TestManualRunValidatesBody(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", &mockTenants{})

	cases := []string{
		`{`,
		`{"job":"reindex","target_date":"2026-03-01"}`,
		`{"job":"snapshots"}`,
		`{"job":"snapshots","target_date":"yesterday"}`,
		`{"job":"snapshots","target_date":"2026-03-01","company_id":-4}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer s3cret")
		rec := serve(h, req)
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestManualRunTargetsOneTenant(t *testing.T) {
	h, snaps := newTestHandler(t, "s3cret", &mockTenants{companies: companies(1, 2, 3)})

	body := `{"job":"snapshots","target_date":"2026-03-01","company_id":2}`
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{2}, snaps.calls)
	assert.Contains(t, rec.Body.String(), `"targetDate":"2026-03-01"`)
}

func TestManualRunScoresJob(t *testing.T) {
	h, _ := newTestHandler(t, "s3cret", &mockTenants{companies: companies(1)})

	body := `{"job":"scores","target_date":"2026-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"job":"operational_scores"`)
}
