package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides PostgreSQL access to the snapshot series for trend passes.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a trend store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Window returns a tenant's snapshot points in [from, to], oldest first.
func (s *Store) Window(ctx context.Context, companyID int64, from, to time.Time) ([]Point, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("trend: store not initialised")
	}
	const query = `
		SELECT snapshot_date, total_revenue_cents, jobs_completed, new_customers
		FROM daily_snapshots
		WHERE company_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		ORDER BY snapshot_date`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("trend: query window: %w", err)
	}
	defer rows.Close()

	points := make([]Point, 0)
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Date, &p.RevenueCents, &p.JobsCompleted, &p.NewCustomers); err != nil {
			return nil, fmt.Errorf("trend: scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// UpdateTrends writes the rolling fields onto the existing row for
// (company, date). The row must already exist; this never inserts.
func (s *Store) UpdateTrends(ctx context.Context, companyID int64, date time.Time, u Update) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("trend: store not initialised")
	}
	const query = `
		UPDATE daily_snapshots SET
			revenue_ma7_cents = @revenue_ma7_cents,
			revenue_ma30_cents = @revenue_ma30_cents,
			revenue_ma90_cents = @revenue_ma90_cents,
			revenue_trend = @revenue_trend,
			revenue_change_dod = @revenue_change_dod,
			revenue_change_wow = @revenue_change_wow,
			revenue_forecast_7d_cents = @revenue_forecast_7d_cents,
			revenue_forecast_30d_cents = @revenue_forecast_30d_cents,
			jobs_completed_ma7 = @jobs_completed_ma7,
			jobs_completed_ma30 = @jobs_completed_ma30,
			jobs_completed_ma90 = @jobs_completed_ma90,
			jobs_completed_trend = @jobs_completed_trend,
			new_customers_ma7 = @new_customers_ma7,
			new_customers_ma30 = @new_customers_ma30,
			new_customers_ma90 = @new_customers_ma90,
			new_customers_trend = @new_customers_trend,
			updated_at = NOW()
		WHERE company_id = @company_id AND snapshot_date = @snapshot_date`

	args := pgx.NamedArgs{
		"company_id":                 companyID,
		"snapshot_date":              date,
		"revenue_ma7_cents":          u.RevenueMA7Cents,
		"revenue_ma30_cents":         u.RevenueMA30Cents,
		"revenue_ma90_cents":         u.RevenueMA90Cents,
		"revenue_trend":              u.RevenueTrend,
		"revenue_change_dod":         u.RevenueChangeDoD,
		"revenue_change_wow":         u.RevenueChangeWoW,
		"revenue_forecast_7d_cents":  u.RevenueForecast7dCents,
		"revenue_forecast_30d_cents": u.RevenueForecast30dCents,
		"jobs_completed_ma7":         u.JobsCompletedMA7,
		"jobs_completed_ma30":        u.JobsCompletedMA30,
		"jobs_completed_ma90":        u.JobsCompletedMA90,
		"jobs_completed_trend":       u.JobsCompletedTrend,
		"new_customers_ma7":          u.NewCustomersMA7,
		"new_customers_ma30":         u.NewCustomersMA30,
		"new_customers_ma90":         u.NewCustomersMA90,
		"new_customers_trend":        u.NewCustomersTrend,
	}

	tag, err := s.pool.Exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("trend: update trends: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSnapshotMissing
	}
	return nil
}
