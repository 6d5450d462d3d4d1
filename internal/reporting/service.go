package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fieldline/fieldline/internal/snapshot"
)

// Repository reads the derived snapshot rows.
type Repository interface {
	ListRange(ctx context.Context, companyID int64, from, to time.Time) ([]snapshot.DailySnapshot, error)
}

// Service serves snapshot reads through the versioned cache.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs the reporting service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Snapshots returns the company's snapshots in [from, to], newest last.
func (s *Service) Snapshots(ctx context.Context, companyID int64, from, to time.Time) ([]snapshot.DailySnapshot, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("reporting: service not configured")
	}
	key, err := s.cache.BuildKey(ctx, "reporting", "snapshots",
		strconv.FormatInt(companyID, 10),
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("reporting: build cache key: %w", err)
	}

	var out []snapshot.DailySnapshot
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListRange(ctx, companyID, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("reporting: load snapshots: %w", err)
	}
	return out, nil
}
