package customerhealth

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Repository exposes the reads and the upsert the scorer relies on.
type Repository interface {
	Customers(ctx context.Context, companyID int64, limit int) ([]CustomerRow, error)
	RecentJobs(ctx context.Context, companyID, customerID int64, since time.Time, limit int) ([]JobRow, error)
	RecentCommunications(ctx context.Context, companyID, customerID int64, since time.Time) ([]CommunicationRow, error)
	OpenInvoices(ctx context.Context, companyID, customerID int64) ([]InvoiceRow, error)
	Upsert(ctx context.Context, rec *Record) error
}

// Scorer computes health records for a tenant's customers.
type Scorer struct {
	repo   Repository
	logger *slog.Logger
}

// NewScorer constructs a customer health scorer.
func NewScorer(repo Repository, logger *slog.Logger) *Scorer {
	return &Scorer{repo: repo, logger: logger}
}

// customerCap bounds one run so a very large tenant cannot stall the batch.
const customerCap = 500

const (
	jobLookbackMonths = 12
	jobFetchLimit     = 50
	commLookbackDays  = 90
)

// ScoreCustomers scores up to 500 customers for the company and upserts one
// record each. A failure on one customer is logged and counted as skipped
// rather than aborting the run. Returns (processed, skipped).
func (s *Scorer) ScoreCustomers(ctx context.Context, companyID int64, analysisDate time.Time) (int, int, error) {
	if s == nil || s.repo == nil {
		return 0, 0, fmt.Errorf("customerhealth: scorer not configured")
	}
	day := analysisDate.UTC().Truncate(24 * time.Hour)

	customers, err := s.repo.Customers(ctx, companyID, customerCap)
	if err != nil {
		return 0, 0, fmt.Errorf("customerhealth: load customers: %w", err)
	}

	processed, skipped := 0, 0
	for _, cust := range customers {
		if err := s.scoreOne(ctx, companyID, cust, day); err != nil {
			skipped++
			if s.logger != nil {
				s.logger.Warn("customer health scoring skipped",
					slog.Int64("company_id", companyID),
					slog.Int64("customer_id", cust.ID),
					slog.Any("error", err))
			}
			continue
		}
		processed++
	}

	if s.logger != nil {
		s.logger.Info("customer health written",
			slog.Int64("company_id", companyID),
			slog.String("analysis_date", day.Format("2006-01-02")),
			slog.Int("processed", processed),
			slog.Int("skipped", skipped))
	}
	return processed, skipped, nil
}

func (s *Scorer) scoreOne(ctx context.Context, companyID int64, cust CustomerRow, day time.Time) error {
	jobsSince := day.AddDate(0, -jobLookbackMonths, 0)
	commsSince := day.AddDate(0, 0, -commLookbackDays)

	jobs, err := s.repo.RecentJobs(ctx, companyID, cust.ID, jobsSince, jobFetchLimit)
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	comms, err := s.repo.RecentCommunications(ctx, companyID, cust.ID, commsSince)
	if err != nil {
		return fmt.Errorf("load communications: %w", err)
	}
	invoices, err := s.repo.OpenInvoices(ctx, companyID, cust.ID)
	if err != nil {
		return fmt.Errorf("load invoices: %w", err)
	}

	rec := Compute(companyID, cust, day, jobs, comms, invoices)
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Compute derives the health record for one customer from the loaded rows.
func Compute(companyID int64, cust CustomerRow, day time.Time, jobs []JobRow, comms []CommunicationRow, invoices []InvoiceRow) *Record {
	rec := &Record{
		CompanyID:          companyID,
		CustomerID:         cust.ID,
		AnalysisDate:       day,
		LifetimeValueCents: cust.LifetimeValueCents,
	}

	// Recency. A customer with no recorded service defaults to a year stale,
	// landing in the weakest positive band rather than the dormant bucket.
	daysSince := 365
	if cust.LastServiceAt != nil {
		daysSince = int(day.Sub(cust.LastServiceAt.UTC()).Hours() / 24)
		if daysSince < 0 {
			daysSince = 0
		}
	}
	rec.DaysSinceLastService = daysSince

	// Engagement.
	cutoff30 := day.AddDate(0, 0, -30)
	for _, c := range comms {
		rec.Interactions90d++
		if !c.OccurredAt.Before(cutoff30) {
			rec.Interactions30d++
		}
	}

	// Trailing-year job activity.
	for _, j := range jobs {
		if j.Status != "completed" {
			continue
		}
		rec.TotalJobs12m++
		rec.Revenue12mCents += j.RevenueCents
	}
	if rec.TotalJobs12m > 0 {
		rec.AvgJobValueCents = rec.Revenue12mCents / int64(rec.TotalJobs12m)
	}

	// Open balances.
	for _, inv := range invoices {
		rec.OutstandingBalanceCents += inv.BalanceCents
		if inv.DueDate != nil && inv.DueDate.Before(day) && inv.BalanceCents > 0 {
			rec.HasOverdueInvoices = true
		}
	}

	rec.HealthScore = healthScore(rec, cust)
	rec.HealthStatus = healthStatus(rec.HealthScore)

	rec.ChurnProbability = round2(float64(100-rec.HealthScore) / 100)
	rec.ChurnRiskLevel = churnRiskLevel(rec.ChurnProbability)

	rec.CustomerSegment = customerSegment(cust, daysSince)
	rec.ValueSegment = valueSegment(cust.LifetimeValueCents)

	rec.UpsellScore = upsellScore(rec, cust)
	rec.RecommendedAction = recommendedAction(rec, daysSince)

	return rec
}

// healthScore starts from a neutral 50 and adds banded adjustments for
// recency, engagement, activity, contract, payments and ticket size,
// clamped to [0, 100].
func healthScore(rec *Record, cust CustomerRow) int {
	score := 50

	switch {
	case rec.DaysSinceLastService <= 90:
		score += 25
	case rec.DaysSinceLastService <= 180:
		score += 15
	case rec.DaysSinceLastService <= 365:
		score += 5
	default:
		score -= 10
	}

	switch {
	case rec.Interactions90d >= 5:
		score += 15
	case rec.Interactions90d >= 2:
		score += 10
	case rec.Interactions90d >= 1:
		score += 5
	}

	switch {
	case rec.TotalJobs12m >= 3:
		score += 20
	case rec.TotalJobs12m >= 2:
		score += 15
	case rec.TotalJobs12m >= 1:
		score += 10
	}

	if cust.HasActiveContract {
		score += 15
	}

	if rec.HasOverdueInvoices {
		score -= 10
	} else if rec.OutstandingBalanceCents == 0 {
		score += 10
	}

	switch {
	case rec.AvgJobValueCents >= 50000:
		score += 15
	case rec.AvgJobValueCents >= 20000:
		score += 10
	case rec.AvgJobValueCents >= 10000:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func healthStatus(score int) string {
	switch {
	case score >= 70:
		return StatusHealthy
	case score >= 40:
		return StatusStable
	case score >= 20:
		return StatusAtRisk
	default:
		return StatusCritical
	}
}

func churnRiskLevel(probability float64) string {
	switch {
	case probability >= 0.7:
		return RiskCritical
	case probability >= 0.5:
		return RiskHigh
	case probability >= 0.3:
		return RiskMedium
	default:
		return RiskLow
	}
}

func customerSegment(cust CustomerRow, daysSince int) string {
	if daysSince > 365 {
		return SegmentDormant
	}
	switch {
	case cust.LifetimeValueCents >= 1000000 && cust.TotalJobs >= 5:
		return SegmentVIP
	case cust.TotalJobs >= 3:
		return SegmentLoyal
	case cust.TotalJobs <= 1:
		return SegmentOccasional
	default:
		return SegmentRegular
	}
}

func valueSegment(lifetimeCents int64) string {
	switch {
	case lifetimeCents >= 500000:
		return ValueHigh
	case lifetimeCents >= 50000:
		return ValueMedium
	default:
		return ValueLow
	}
}

// upsellScore estimates appetite for a service agreement pitch: healthy
// customers without a contract and with modest ticket sizes have the most
// room to grow.
func upsellScore(rec *Record, cust CustomerRow) int {
	score := 50
	if rec.HealthScore >= 70 {
		score += 20
	}
	if !cust.HasActiveContract {
		score += 15
	}
	if rec.AvgJobValueCents < 20000 {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

func recommendedAction(rec *Record, daysSince int) string {
	switch {
	case rec.ChurnProbability >= 0.7:
		return ActionUrgentOutreach
	case rec.ChurnProbability >= 0.5:
		return ActionScheduleCheckIn
	case rec.UpsellScore >= 80:
		return ActionPresentAgreement
	case daysSince > 180:
		return ActionSendReminder
	default:
		return ActionMaintain
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
