// Package batch fans the analytics pipeline out across tenants.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/fieldline/fieldline/internal/jobs"
	"github.com/fieldline/fieldline/internal/tenant"
)

// Job names as they appear in summaries and metrics.
const (
	JobSnapshots = "daily_snapshots"
	JobScores    = "operational_scores"
)

// TenantLister yields the companies a batch run iterates over.
type TenantLister interface {
	ListActive(ctx context.Context) ([]tenant.Company, error)
}

// SnapshotRunner aggregates one company's daily snapshot.
type SnapshotRunner interface {
	RunDaily(ctx context.Context, companyID int64, date time.Time) error
}

// DispatchScorer scores one company's dispatch efficiency for a day.
type DispatchScorer interface {
	ScoreDay(ctx context.Context, companyID int64, date time.Time) (bool, error)
}

// PricebookScorer scores one company's pricebook performance window.
type PricebookScorer interface {
	ScoreWindow(ctx context.Context, companyID int64, end time.Time) (int, error)
}

// HealthScorer scores one company's customers.
type HealthScorer interface {
	ScoreCustomers(ctx context.Context, companyID int64, analysisDate time.Time) (int, int, error)
}

// VersionBumper invalidates cached report reads after a batch run lands.
type VersionBumper interface {
	Bump(ctx context.Context) error
}

// TenantResult captures one company's outcome within a run.
type TenantResult struct {
	CompanyID int64  `json:"companyId"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`

	DispatchProcessed  bool `json:"dispatchProcessed"`
	PricebookItems     int  `json:"pricebookItems,omitempty"`
	CustomersProcessed int  `json:"customersProcessed,omitempty"`
	CustomersSkipped   int  `json:"customersSkipped,omitempty"`
}

// Summary is the aggregate result of one batch run. Success reports that the
// run itself completed; per-tenant failures are reflected in FailCount.
type Summary struct {
	RunID              string         `json:"runId"`
	Job                string         `json:"job"`
	Success            bool           `json:"success"`
	TargetDate         string         `json:"targetDate"`
	CompaniesProcessed int            `json:"companiesProcessed"`
	SuccessCount       int            `json:"successCount"`
	FailCount          int            `json:"failCount"`
	Results            []TenantResult `json:"results"`
}

// Runner drives the per-tenant analytics jobs with a bounded worker pool.
// A failure in one tenant never aborts the others.
type Runner struct {
	Tenants   TenantLister
	Snapshots SnapshotRunner
	Dispatch  DispatchScorer
	Pricebook PricebookScorer
	Health    HealthScorer
	Cache     VersionBumper

	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics

	// Workers bounds tenant concurrency; values below 1 run serially.
	Workers int
}

// RunSnapshots aggregates the daily snapshot (and trend pass) for every
// active company, optionally restricted to one company.
func (r *Runner) RunSnapshots(ctx context.Context, date time.Time, companyID *int64) (*Summary, error) {
	return r.run(ctx, JobSnapshots, date, companyID, func(ctx context.Context, id int64, res *TenantResult) error {
		return r.Snapshots.RunDaily(ctx, id, date)
	})
}

// RunScores runs the dispatch, pricebook and customer health scorers for
// every active company, optionally restricted to one company.
func (r *Runner) RunScores(ctx context.Context, date time.Time, companyID *int64) (*Summary, error) {
	return r.run(ctx, JobScores, date, companyID, func(ctx context.Context, id int64, res *TenantResult) error {
		processed, err := r.Dispatch.ScoreDay(ctx, id, date)
		if err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
		res.DispatchProcessed = processed

		items, err := r.Pricebook.ScoreWindow(ctx, id, date)
		if err != nil {
			return fmt.Errorf("pricebook: %w", err)
		}
		res.PricebookItems = items

		scored, skipped, err := r.Health.ScoreCustomers(ctx, id, date)
		if err != nil {
			return fmt.Errorf("customer health: %w", err)
		}
		res.CustomersProcessed = scored
		res.CustomersSkipped = skipped
		if r.Metrics != nil {
			r.Metrics.AddSkippedCustomers(id, skipped)
		}
		return nil
	})
}

func (r *Runner) run(ctx context.Context, job string, date time.Time, companyID *int64, fn func(context.Context, int64, *TenantResult) error) (*Summary, error) {
	if r == nil || r.Tenants == nil {
		return nil, fmt.Errorf("batch: runner not configured")
	}

	tracker := r.Metrics.Track(job)
	summary := &Summary{
		RunID:      uuid.NewString(),
		Job:        job,
		TargetDate: date.UTC().Format("2006-01-02"),
	}

	companies, err := r.Tenants.ListActive(ctx)
	if err != nil {
		return nil, tracker.End(fmt.Errorf("batch: list companies: %w", err))
	}
	if companyID != nil {
		filtered := companies[:0]
		for _, c := range companies {
			if c.ID == *companyID {
				filtered = append(filtered, c)
			}
		}
		companies = filtered
	}

	var (
		mu      sync.Mutex
		results = make([]TenantResult, 0, len(companies))
	)

	group, groupCtx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	group.SetLimit(workers)

	for _, company := range companies {
		company := company
		group.Go(func() error {
			res := TenantResult{CompanyID: company.ID}
			err := r.runTenant(groupCtx, company.ID, &res, fn)
			res.Success = err == nil
			if err != nil {
				res.Error = err.Error()
				if r.Logger != nil {
					r.Logger.Error("batch tenant failed",
						slog.String("run_id", summary.RunID),
						slog.String("job", job),
						slog.Int64("company_id", company.ID),
						slog.Any("error", err))
				}
			}
			if r.Metrics != nil {
				r.Metrics.AddTenantOutcome(job, company.ID, err == nil)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].CompanyID < results[j].CompanyID })
	summary.Success = true
	summary.Results = results
	summary.CompaniesProcessed = len(results)
	for _, res := range results {
		if res.Success {
			summary.SuccessCount++
		} else {
			summary.FailCount++
		}
	}

	if r.Cache != nil {
		if err := r.Cache.Bump(ctx); err != nil && r.Logger != nil {
			r.Logger.Warn("batch cache bump failed", slog.Any("error", err))
		}
	}

	if r.Logger != nil {
		r.Logger.Info("batch run finished",
			slog.String("run_id", summary.RunID),
			slog.String("job", job),
			slog.String("target_date", summary.TargetDate),
			slog.Int("companies", summary.CompaniesProcessed),
			slog.Int("succeeded", summary.SuccessCount),
			slog.Int("failed", summary.FailCount))
	}

	var runErr error
	if summary.FailCount > 0 {
		runErr = fmt.Errorf("batch: %d of %d tenants failed", summary.FailCount, summary.CompaniesProcessed)
	}
	_ = tracker.End(runErr)
	return summary, nil
}

// runTenant isolates one tenant's work, converting panics into errors so a
// single bad tenant cannot take down the run.
func (r *Runner) runTenant(ctx context.Context, companyID int64, res *TenantResult, fn func(context.Context, int64, *TenantResult) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("batch: tenant %d panicked: %v", companyID, rec)
		}
	}()
	return fn(ctx, companyID, res)
}
