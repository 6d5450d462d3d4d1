package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	points []Point

	updates     []Update
	updateDates []time.Time

	// Error injection
	windowError error
	updateError error
}

func (m *mockRepository) Window(ctx context.Context, companyID int64, from, to time.Time) ([]Point, error) {
	if m.windowError != nil {
		return nil, m.windowError
	}
	return m.points, nil
}

func (m *mockRepository) UpdateTrends(ctx context.Context, companyID int64, date time.Time, u Update) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.updates = append(m.updates, u)
	m.updateDates = append(m.updateDates, date)
	return nil
}

var trendDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func series(day time.Time, revenues ...int64) []Point {
	points := make([]Point, len(revenues))
	for i, rev := range revenues {
		points[i] = Point{
			Date:          day.AddDate(0, 0, i-len(revenues)+1),
			RevenueCents:  rev,
			JobsCompleted: int(rev / 10000),
			NewCustomers:  1,
		}
	}
	return points
}

// ============================================================================
// TESTS
// ============================================================================

func TestRecalculateSkipsThinHistory(t *testing.T) {
	repo := &mockRepository{points: series(trendDay, 50000)}
	calc := NewCalculator(repo, nil)

	err := calc.Recalculate(context.Background(), 7, trendDay)
	require.NoError(t, err)
	assert.Empty(t, repo.updates)
}

func TestRecalculateWritesRollingStats(t *testing.T) {
	repo := &mockRepository{
		points: series(trendDay, 10000, 20000, 30000, 40000, 50000, 60000, 70000),
	}
	calc := NewCalculator(repo, nil)

	err := calc.Recalculate(context.Background(), 7, trendDay)
	require.NoError(t, err)
	require.Len(t, repo.updates, 1)

	u := repo.updates[0]
	assert.Equal(t, trendDay, repo.updateDates[0])
	// Mean of the full 7-point series.
	assert.Equal(t, int64(40000), u.RevenueMA7Cents)
	// Window wider than history falls back to all available points.
	assert.Equal(t, int64(40000), u.RevenueMA30Cents)
	assert.Equal(t, int64(40000), u.RevenueMA90Cents)
	// First half {10000,20000,30000} vs second half {40000..70000}.
	assert.Equal(t, TrendIncreasing, u.RevenueTrend)
	// 70000 vs 60000 the day before.
	assert.InDelta(t, 16.67, u.RevenueChangeDoD, 0.001)
	assert.Equal(t, int64(280000), u.RevenueForecast7dCents)
	assert.Equal(t, TrendIncreasing, u.JobsCompletedTrend)
	assert.Equal(t, TrendStable, u.NewCustomersTrend)
}

func TestRecalculateWindowFailure(t *testing.T) {
	repo := &mockRepository{windowError: errors.New("timeout")}
	calc := NewCalculator(repo, nil)

	err := calc.Recalculate(context.Background(), 7, trendDay)
	require.Error(t, err)
}

func TestRecalculateUpdateFailureSurfaces(t *testing.T) {
	repo := &mockRepository{
		points:      series(trendDay, 10000, 20000),
		updateError: ErrSnapshotMissing,
	}
	calc := NewCalculator(repo, nil)

	err := calc.Recalculate(context.Background(), 7, trendDay)
	require.ErrorIs(t, err, ErrSnapshotMissing)
}

func TestMovingAverage(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	// Trailing 3: (8+9+10)/3.
	assert.InDelta(t, 9.0, MovingAverage(s, 3), 0.001)
	// Window exceeding history averages everything.
	assert.InDelta(t, 5.5, MovingAverage(s, 30), 0.001)
	assert.Equal(t, 0.0, MovingAverage(nil, 7))
	assert.Equal(t, 0.0, MovingAverage(s, 0))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TrendStable, Classify([]float64{100}))
	// Flat series.
	assert.Equal(t, TrendStable, Classify([]float64{100, 100, 100, 100, 100, 100, 100}))
	// Second half well above first half.
	assert.Equal(t, TrendIncreasing, Classify([]float64{100, 100, 100, 150, 150, 150, 150}))
	// Second half well below first half.
	assert.Equal(t, TrendDecreasing, Classify([]float64{150, 150, 150, 100, 100, 100, 100}))
	// +-10% band is stable.
	assert.Equal(t, TrendStable, Classify([]float64{100, 100, 100, 105, 105, 105, 105}))
	// Growth from a zero baseline counts as increasing.
	assert.Equal(t, TrendIncreasing, Classify([]float64{0, 0, 0, 50, 50, 50, 50}))
	// Only the trailing 7 points matter.
	assert.Equal(t, TrendStable, Classify([]float64{9999, 100, 100, 100, 100, 100, 100, 100}))
}

func TestPercentChange(t *testing.T) {
	s := []float64{100, 110, 121}
	assert.InDelta(t, 10.0, PercentChange(s, 1), 0.001)
	assert.InDelta(t, 21.0, PercentChange(s, 2), 0.001)
	// Missing history.
	assert.Equal(t, 0.0, PercentChange(s, 3))
	// Zero base.
	assert.Equal(t, 0.0, PercentChange([]float64{0, 50}, 1))
}
