// Package trend derives rolling statistics over previously written daily
// snapshots and writes them back onto the current day's row.
package trend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Trend labels stored on the snapshot row.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// windowDays is how far back the calculator reads snapshots.
const windowDays = 90

// ErrSnapshotMissing indicates the target day's row does not exist; the trend
// pass updates in place and never inserts.
var ErrSnapshotMissing = errors.New("trend: snapshot row missing for target date")

// Point is the slice of a snapshot row the calculator consumes.
type Point struct {
	Date          time.Time
	RevenueCents  int64
	JobsCompleted int
	NewCustomers  int
}

// Update carries every rolling field written back to the snapshot row.
type Update struct {
	RevenueMA7Cents         int64
	RevenueMA30Cents        int64
	RevenueMA90Cents        int64
	RevenueTrend            string
	RevenueChangeDoD        float64
	RevenueChangeWoW        float64
	RevenueForecast7dCents  int64
	RevenueForecast30dCents int64
	JobsCompletedMA7        float64
	JobsCompletedMA30       float64
	JobsCompletedMA90       float64
	JobsCompletedTrend      string
	NewCustomersMA7         float64
	NewCustomersMA30        float64
	NewCustomersMA90        float64
	NewCustomersTrend       string
}

// Repository reads the trailing window and updates the current row.
type Repository interface {
	Window(ctx context.Context, companyID int64, from, to time.Time) ([]Point, error)
	UpdateTrends(ctx context.Context, companyID int64, date time.Time, u Update) error
}

// Calculator computes moving averages, trend labels, deltas and naive
// forecasts for one tenant's snapshot series.
type Calculator struct {
	repo   Repository
	logger *slog.Logger
}

// NewCalculator constructs a trend calculator.
func NewCalculator(repo Repository, logger *slog.Logger) *Calculator {
	return &Calculator{repo: repo, logger: logger}
}

// Recalculate reads snapshots in [date-90d, date] and updates the row at
// date. Fewer than two rows is a silent no-op.
func (c *Calculator) Recalculate(ctx context.Context, companyID int64, date time.Time) error {
	if c == nil || c.repo == nil {
		return fmt.Errorf("trend: calculator not configured")
	}
	day := date.UTC().Truncate(24 * time.Hour)
	from := day.AddDate(0, 0, -windowDays)

	points, err := c.repo.Window(ctx, companyID, from, day)
	if err != nil {
		return fmt.Errorf("trend: load window: %w", err)
	}
	if len(points) < 2 {
		if c.logger != nil {
			c.logger.Debug("trend pass skipped, not enough history",
				slog.Int64("company_id", companyID),
				slog.Int("rows", len(points)))
		}
		return nil
	}

	revenue := make([]float64, len(points))
	jobs := make([]float64, len(points))
	customers := make([]float64, len(points))
	for i, p := range points {
		revenue[i] = float64(p.RevenueCents)
		jobs[i] = float64(p.JobsCompleted)
		customers[i] = float64(p.NewCustomers)
	}

	u := Update{
		RevenueMA7Cents:         int64(math.Round(MovingAverage(revenue, 7))),
		RevenueMA30Cents:        int64(math.Round(MovingAverage(revenue, 30))),
		RevenueMA90Cents:        int64(math.Round(MovingAverage(revenue, 90))),
		RevenueTrend:            Classify(revenue),
		RevenueChangeDoD:        round2(PercentChange(revenue, 1)),
		RevenueChangeWoW:        round2(PercentChange(revenue, 7)),
		RevenueForecast7dCents:  int64(math.Round(MovingAverage(revenue, 7) * 7)),
		RevenueForecast30dCents: int64(math.Round(MovingAverage(revenue, 30) * 30)),
		JobsCompletedMA7:        round2(MovingAverage(jobs, 7)),
		JobsCompletedMA30:       round2(MovingAverage(jobs, 30)),
		JobsCompletedMA90:       round2(MovingAverage(jobs, 90)),
		JobsCompletedTrend:      Classify(jobs),
		NewCustomersMA7:         round2(MovingAverage(customers, 7)),
		NewCustomersMA30:        round2(MovingAverage(customers, 30)),
		NewCustomersMA90:        round2(MovingAverage(customers, 90)),
		NewCustomersTrend:       Classify(customers),
	}

	if err := c.repo.UpdateTrends(ctx, companyID, day, u); err != nil {
		return err
	}
	return nil
}

// MovingAverage averages the trailing window values of a series, or however
// many points exist when the series is shorter than the window.
func MovingAverage(series []float64, window int) float64 {
	if len(series) == 0 || window <= 0 {
		return 0
	}
	if window > len(series) {
		window = len(series)
	}
	tail := series[len(series)-window:]
	var sum float64
	for _, v := range tail {
		sum += v
	}
	return sum / float64(window)
}

// Classify labels the series direction by comparing the first-half mean of
// the trailing-7 slice against the second-half mean: more than +10% relative
// change is increasing, below -10% decreasing, anything else stable.
func Classify(series []float64) string {
	n := len(series)
	if n < 2 {
		return TrendStable
	}
	start := n - 7
	if start < 0 {
		start = 0
	}
	recent := series[start:]
	half := len(recent) / 2
	if half == 0 {
		return TrendStable
	}
	firstMean := mean(recent[:half])
	secondMean := mean(recent[half:])
	if firstMean == 0 {
		if secondMean > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	change := (secondMean - firstMean) / firstMean
	switch {
	case change > 0.10:
		return TrendIncreasing
	case change < -0.10:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// PercentChange compares the latest value against the value lag points back,
// as a percentage of the older value. Missing history or a zero base yields 0.
func PercentChange(series []float64, lag int) float64 {
	n := len(series)
	if lag <= 0 || n <= lag {
		return 0
	}
	current := series[n-1]
	previous := series[n-1-lag]
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
