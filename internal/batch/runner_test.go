package batch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/fieldline/internal/tenant"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockTenants struct {
	companies []tenant.Company
	err       error
}

func (m *mockTenants) ListActive(ctx context.Context) ([]tenant.Company, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.companies, nil
}

type mockSnapshots struct {
	mu       sync.Mutex
	calls    []int64
	errFor   map[int64]error
	panicFor map[int64]bool
}

func (m *mockSnapshots) RunDaily(ctx context.Context, companyID int64, date time.Time) error {
	m.mu.Lock()
	m.calls = append(m.calls, companyID)
	m.mu.Unlock()
	if m.panicFor[companyID] {
		panic("corrupt tenant state")
	}
	return m.errFor[companyID]
}

type mockDispatch struct {
	quietDay bool
	err      error
}

func (m *mockDispatch) ScoreDay(ctx context.Context, companyID int64, date time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return !m.quietDay, nil
}

type mockPricebook struct {
	items int
	err   error
}

func (m *mockPricebook) ScoreWindow(ctx context.Context, companyID int64, end time.Time) (int, error) {
	return m.items, m.err
}

type mockHealth struct {
	processed int
	skipped   int
	err       error
}

func (m *mockHealth) ScoreCustomers(ctx context.Context, companyID int64, analysisDate time.Time) (int, int, error) {
	return m.processed, m.skipped, m.err
}

type mockBumper struct {
	calls int
}

func (m *mockBumper) Bump(ctx context.Context) error {
	m.calls++
	return nil
}

func companies(ids ...int64) []tenant.Company {
	out := make([]tenant.Company, len(ids))
	for i, id := range ids {
		out[i] = tenant.Company{ID: id}
	}
	return out
}

var runDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

// ============================================================================
// TESTS
// ============================================================================

func TestRunSnapshotsAllTenantsSucceed(t *testing.T) {
	snaps := &mockSnapshots{}
	bumper := &mockBumper{}
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(1, 2, 3)},
		Snapshots: snaps,
		Cache:     bumper,
		Workers:   2,
	}

	summary, err := runner.RunSnapshots(context.Background(), runDay, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, JobSnapshots, summary.Job)
	assert.Equal(t, "2026-03-14", summary.TargetDate)
	assert.Equal(t, 3, summary.CompaniesProcessed)
	assert.Equal(t, 3, summary.SuccessCount)
	assert.Zero(t, summary.FailCount)
	assert.Len(t, snaps.calls, 3)
	assert.Equal(t, 1, bumper.calls)
}

func TestRunSnapshotsIsolatesTenantFailure(t *testing.T) {
	snaps := &mockSnapshots{errFor: map[int64]error{2: errors.New("bad day data")}}
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(1, 2, 3)},
		Snapshots: snaps,
	}

	summary, err := runner.RunSnapshots(context.Background(), runDay, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailCount)
	// Every tenant was still attempted.
	assert.Len(t, snaps.calls, 3)

	// Results are ordered by company for stable responses.
	require.Len(t, summary.Results, 3)
	assert.True(t, summary.Results[0].Success)
	assert.False(t, summary.Results[1].Success)
	assert.Contains(t, summary.Results[1].Error, "bad day data")
	assert.True(t, summary.Results[2].Success)
}

func TestRunSnapshotsRecoversTenantPanic(t *testing.T) {
	snaps := &mockSnapshots{panicFor: map[int64]bool{1: true}}
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(1, 2)},
		Snapshots: snaps,
	}

	summary, err := runner.RunSnapshots(context.Background(), runDay, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailCount)
	assert.Contains(t, summary.Results[0].Error, "panicked")
	assert.True(t, summary.Results[1].Success)
}

func TestRunSnapshotsCompanyFilter(t *testing.T) {
	snaps := &mockSnapshots{}
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(1, 2, 3)},
		Snapshots: snaps,
	}

	target := int64(2)
	summary, err := runner.RunSnapshots(context.Background(), runDay, &target)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompaniesProcessed)
	assert.Equal(t, []int64{2}, snaps.calls)
}

func TestRunSnapshotsTenantListFailure(t *testing.T) {
	runner := &Runner{
		Tenants:   &mockTenants{err: errors.New("db down")},
		Snapshots: &mockSnapshots{},
	}

	_, err := runner.RunSnapshots(context.Background(), runDay, nil)
	require.Error(t, err)
}

func TestRunScoresCollectsPerScorerCounts(t *testing.T) {
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(9)},
		Dispatch:  &mockDispatch{},
		Pricebook: &mockPricebook{items: 12},
		Health:    &mockHealth{processed: 40, skipped: 2},
	}

	summary, err := runner.RunScores(context.Background(), runDay, nil)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)

	res := summary.Results[0]
	assert.True(t, res.Success)
	assert.True(t, res.DispatchProcessed)
	assert.Equal(t, 12, res.PricebookItems)
	assert.Equal(t, 40, res.CustomersProcessed)
	assert.Equal(t, 2, res.CustomersSkipped)
}

func TestSummaryJSONKeepsExplicitFlags(t *testing.T) {
	// A day with no appointments still reports dispatchProcessed:false so
	// consumers can tell "nothing to score" from a missing field, and the
	// summary itself always carries a top-level success flag.
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(9)},
		Dispatch:  &mockDispatch{quietDay: true},
		Pricebook: &mockPricebook{},
		Health:    &mockHealth{},
	}

	summary, err := runner.RunScores(context.Background(), runDay, nil)
	require.NoError(t, err)
	assert.True(t, summary.Success)

	body, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"success":true`)
	assert.Contains(t, string(body), `"dispatchProcessed":false`)
}

func TestRunScoresScorerFailureMarksTenant(t *testing.T) {
	runner := &Runner{
		Tenants:   &mockTenants{companies: companies(9)},
		Dispatch:  &mockDispatch{},
		Pricebook: &mockPricebook{err: errors.New("query failed")},
		Health:    &mockHealth{},
	}

	summary, err := runner.RunScores(context.Background(), runDay, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailCount)
	assert.Contains(t, summary.Results[0].Error, "pricebook")
}
