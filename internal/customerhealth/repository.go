package customerhealth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides PostgreSQL access for customer health scoring.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a customer health store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Customers returns up to limit active customers, most recently served first
// so the cap favours customers with fresh activity.
func (s *Store) Customers(ctx context.Context, companyID int64, limit int) ([]CustomerRow, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("customerhealth: store not initialised")
	}
	const query = `
		SELECT id, COALESCE(lifetime_value_cents, 0), COALESCE(total_jobs, 0),
		       last_service_at,
		       EXISTS (
		           SELECT 1 FROM contracts ct
		           WHERE ct.customer_id = c.id AND ct.status = 'active' AND ct.deleted_at IS NULL
		       )
		FROM customers c
		WHERE c.company_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.last_service_at DESC NULLS LAST, c.id
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("customerhealth: query customers: %w", err)
	}
	defer rows.Close()

	out := make([]CustomerRow, 0)
	for rows.Next() {
		var c CustomerRow
		if err := rows.Scan(&c.ID, &c.LifetimeValueCents, &c.TotalJobs, &c.LastServiceAt, &c.HasActiveContract); err != nil {
			return nil, fmt.Errorf("customerhealth: scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentJobs returns the customer's newest jobs completed on or after since.
func (s *Store) RecentJobs(ctx context.Context, companyID, customerID int64, since time.Time, limit int) ([]JobRow, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("customerhealth: store not initialised")
	}
	const query = `
		SELECT status, COALESCE(revenue_cents, 0), completed_at
		FROM jobs
		WHERE company_id = $1 AND customer_id = $2 AND deleted_at IS NULL
		  AND completed_at >= $3
		ORDER BY completed_at DESC
		LIMIT $4`
	rows, err := s.pool.Query(ctx, query, companyID, customerID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("customerhealth: query jobs: %w", err)
	}
	defer rows.Close()

	out := make([]JobRow, 0)
	for rows.Next() {
		var j JobRow
		if err := rows.Scan(&j.Status, &j.RevenueCents, &j.CompletedAt); err != nil {
			return nil, fmt.Errorf("customerhealth: scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// RecentCommunications returns interactions logged on or after since.
func (s *Store) RecentCommunications(ctx context.Context, companyID, customerID int64, since time.Time) ([]CommunicationRow, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("customerhealth: store not initialised")
	}
	const query = `
		SELECT occurred_at
		FROM communications
		WHERE company_id = $1 AND customer_id = $2 AND deleted_at IS NULL
		  AND occurred_at >= $3`
	rows, err := s.pool.Query(ctx, query, companyID, customerID, since)
	if err != nil {
		return nil, fmt.Errorf("customerhealth: query communications: %w", err)
	}
	defer rows.Close()

	out := make([]CommunicationRow, 0)
	for rows.Next() {
		var c CommunicationRow
		if err := rows.Scan(&c.OccurredAt); err != nil {
			return nil, fmt.Errorf("customerhealth: scan communication: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// OpenInvoices returns the customer's unpaid, non-void invoices.
func (s *Store) OpenInvoices(ctx context.Context, companyID, customerID int64) ([]InvoiceRow, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("customerhealth: store not initialised")
	}
	const query = `
		SELECT COALESCE(balance_cents, 0), due_date
		FROM invoices
		WHERE company_id = $1 AND customer_id = $2 AND deleted_at IS NULL
		  AND status NOT IN ('paid', 'void') AND COALESCE(balance_cents, 0) > 0`
	rows, err := s.pool.Query(ctx, query, companyID, customerID)
	if err != nil {
		return nil, fmt.Errorf("customerhealth: query invoices: %w", err)
	}
	defer rows.Close()

	out := make([]InvoiceRow, 0)
	for rows.Next() {
		var inv InvoiceRow
		if err := rows.Scan(&inv.BalanceCents, &inv.DueDate); err != nil {
			return nil, fmt.Errorf("customerhealth: scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Upsert writes the health record keyed by (company_id, customer_id, analysis_date).
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("customerhealth: store not initialised")
	}
	const query = `
		INSERT INTO customer_health (
			company_id, customer_id, analysis_date,
			health_score, health_status, churn_probability, churn_risk_level,
			days_since_last_service, interactions_30d, interactions_90d,
			outstanding_balance_cents, has_overdue_invoices,
			total_jobs_12m, revenue_12m_cents, avg_job_value_cents, lifetime_value_cents,
			customer_segment, value_segment,
			upsell_score, recommended_action,
			updated_at
		) VALUES (
			@company_id, @customer_id, @analysis_date,
			@health_score, @health_status, @churn_probability, @churn_risk_level,
			@days_since_last_service, @interactions_30d, @interactions_90d,
			@outstanding_balance_cents, @has_overdue_invoices,
			@total_jobs_12m, @revenue_12m_cents, @avg_job_value_cents, @lifetime_value_cents,
			@customer_segment, @value_segment,
			@upsell_score, @recommended_action,
			NOW()
		)
		ON CONFLICT (company_id, customer_id, analysis_date) DO UPDATE SET
			health_score = EXCLUDED.health_score,
			health_status = EXCLUDED.health_status,
			churn_probability = EXCLUDED.churn_probability,
			churn_risk_level = EXCLUDED.churn_risk_level,
			days_since_last_service = EXCLUDED.days_since_last_service,
			interactions_30d = EXCLUDED.interactions_30d,
			interactions_90d = EXCLUDED.interactions_90d,
			outstanding_balance_cents = EXCLUDED.outstanding_balance_cents,
			has_overdue_invoices = EXCLUDED.has_overdue_invoices,
			total_jobs_12m = EXCLUDED.total_jobs_12m,
			revenue_12m_cents = EXCLUDED.revenue_12m_cents,
			avg_job_value_cents = EXCLUDED.avg_job_value_cents,
			lifetime_value_cents = EXCLUDED.lifetime_value_cents,
			customer_segment = EXCLUDED.customer_segment,
			value_segment = EXCLUDED.value_segment,
			upsell_score = EXCLUDED.upsell_score,
			recommended_action = EXCLUDED.recommended_action,
			updated_at = NOW()`

	args := pgx.NamedArgs{
		"company_id":                rec.CompanyID,
		"customer_id":               rec.CustomerID,
		"analysis_date":             rec.AnalysisDate,
		"health_score":              rec.HealthScore,
		"health_status":             rec.HealthStatus,
		"churn_probability":         rec.ChurnProbability,
		"churn_risk_level":          rec.ChurnRiskLevel,
		"days_since_last_service":   rec.DaysSinceLastService,
		"interactions_30d":          rec.Interactions30d,
		"interactions_90d":          rec.Interactions90d,
		"outstanding_balance_cents": rec.OutstandingBalanceCents,
		"has_overdue_invoices":      rec.HasOverdueInvoices,
		"total_jobs_12m":            rec.TotalJobs12m,
		"revenue_12m_cents":         rec.Revenue12mCents,
		"avg_job_value_cents":       rec.AvgJobValueCents,
		"lifetime_value_cents":      rec.LifetimeValueCents,
		"customer_segment":          rec.CustomerSegment,
		"value_segment":             rec.ValueSegment,
		"upsell_score":              rec.UpsellScore,
		"recommended_action":        rec.RecommendedAction,
	}

	if _, err := s.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("customerhealth: upsert record: %w", err)
	}
	return nil
}
