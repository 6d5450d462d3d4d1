package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fieldline/fieldline/internal/snapshot"
)

type mockRepo struct {
	rows  []snapshot.DailySnapshot
	err   error
	calls int
}

func (m *mockRepo) ListRange(ctx context.Context, companyID int64, from, to time.Time) ([]snapshot.DailySnapshot, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *Cache, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, cache, func() {
		_ = client.Close()
		mr.Close()
	}
}

var (
	reportFrom = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	reportTo   = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
)

func TestSnapshotsCaches(t *testing.T) {
	repo := &mockRepo{rows: []snapshot.DailySnapshot{
		{CompanyID: 7, SnapshotDate: reportFrom, JobsCompleted: 4, TotalRevenueCents: 120000},
	}}
	svc, _, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	rows, err := svc.Snapshots(ctx, 7, reportFrom, reportTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].JobsCompleted != 4 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if repo.calls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.calls)
	}

	// Second call should hit cache.
	rows, err = svc.Snapshots(ctx, 7, reportFrom, reportTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if repo.calls != 1 {
		t.Fatalf("expected cached read, got %d repo calls", repo.calls)
	}
}

func TestBumpInvalidatesCachedReads(t *testing.T) {
	repo := &mockRepo{rows: []snapshot.DailySnapshot{{CompanyID: 7, SnapshotDate: reportFrom}}}
	svc, cache, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Snapshots(ctx, 7, reportFrom, reportTo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cache.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if _, err := svc.Snapshots(ctx, 7, reportFrom, reportTo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected reload after bump, got %d repo calls", repo.calls)
	}
}

func TestSnapshotsRepoFailure(t *testing.T) {
	repo := &mockRepo{err: errors.New("query failed")}
	svc, _, cleanup := newTestService(t, repo)
	defer cleanup()

	if _, err := svc.Snapshots(context.Background(), 7, reportFrom, reportTo); err == nil {
		t.Fatal("expected error")
	}
}
