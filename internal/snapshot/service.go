package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// Repository exposes the reads and the upsert the aggregator relies on.
type Repository interface {
	Jobs(ctx context.Context, companyID int64, from, to time.Time) ([]JobRow, error)
	Appointments(ctx context.Context, companyID int64, from, to time.Time) ([]AppointmentRow, error)
	Invoices(ctx context.Context, companyID int64, from, to time.Time) ([]InvoiceRow, error)
	Payments(ctx context.Context, companyID int64, from, to time.Time) ([]PaymentRow, error)
	Estimates(ctx context.Context, companyID int64, from, to time.Time) ([]EstimateRow, error)
	Communications(ctx context.Context, companyID int64, from, to time.Time) ([]CommunicationRow, error)
	TimeEntries(ctx context.Context, companyID int64, from, to time.Time) ([]TimeEntryRow, error)
	NewCustomerCount(ctx context.Context, companyID int64, from, to time.Time) (int, error)
	ActiveCustomerCount(ctx context.Context, companyID int64) (int, error)
	ActiveContractStats(ctx context.Context, companyID int64) (ContractStats, error)
	OutstandingBalance(ctx context.Context, companyID int64) (int64, error)
	OverdueInvoiceCount(ctx context.Context, companyID int64, asOf time.Time) (int, error)
	ActiveTechnicianCount(ctx context.Context, companyID int64) (int, error)
	Upsert(ctx context.Context, snap *DailySnapshot) error
}

// TrendRecalculator runs the rolling-statistics pass for a tenant/date after
// the snapshot row has been written.
type TrendRecalculator interface {
	Recalculate(ctx context.Context, companyID int64, date time.Time) error
}

// Aggregator computes one day's operational snapshot for one tenant.
type Aggregator struct {
	repo   Repository
	trends TrendRecalculator
	logger *slog.Logger
}

// NewAggregator wires the aggregator with its repository and the trend pass.
func NewAggregator(repo Repository, trends TrendRecalculator, logger *slog.Logger) *Aggregator {
	return &Aggregator{repo: repo, trends: trends, logger: logger}
}

// Arrival grace window: an appointment started within this span after its
// scheduled start still counts as on time.
const arrivalGrace = 15 * time.Minute

// RunDaily aggregates the calendar day starting at date (UTC midnight) for
// one tenant, upserts the daily_snapshots row and then recalculates trends.
// Re-invocation for the same day replaces the row.
func (a *Aggregator) RunDaily(ctx context.Context, companyID int64, date time.Time) error {
	if a == nil || a.repo == nil {
		return fmt.Errorf("snapshot: aggregator not configured")
	}
	from := date.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	var (
		jobs         []JobRow
		appts        []AppointmentRow
		invoices     []InvoiceRow
		payments     []PaymentRow
		estimates    []EstimateRow
		comms        []CommunicationRow
		timeEntries  []TimeEntryRow
		newCustomers int
		activeCust   int
		contracts    ContractStats
		outstanding  int64
		overdue      int
		technicians  int
	)

	// Independent reads fan out concurrently; computation starts only after
	// every result set is in memory.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { jobs, err = a.repo.Jobs(gctx, companyID, from, to); return })
	g.Go(func() (err error) { appts, err = a.repo.Appointments(gctx, companyID, from, to); return })
	g.Go(func() (err error) { invoices, err = a.repo.Invoices(gctx, companyID, from, to); return })
	g.Go(func() (err error) { payments, err = a.repo.Payments(gctx, companyID, from, to); return })
	g.Go(func() (err error) { estimates, err = a.repo.Estimates(gctx, companyID, from, to); return })
	g.Go(func() (err error) { comms, err = a.repo.Communications(gctx, companyID, from, to); return })
	g.Go(func() (err error) { timeEntries, err = a.repo.TimeEntries(gctx, companyID, from, to); return })
	g.Go(func() (err error) { newCustomers, err = a.repo.NewCustomerCount(gctx, companyID, from, to); return })
	g.Go(func() (err error) { activeCust, err = a.repo.ActiveCustomerCount(gctx, companyID); return })
	g.Go(func() (err error) { contracts, err = a.repo.ActiveContractStats(gctx, companyID); return })
	g.Go(func() (err error) { outstanding, err = a.repo.OutstandingBalance(gctx, companyID); return })
	g.Go(func() (err error) { overdue, err = a.repo.OverdueInvoiceCount(gctx, companyID, to); return })
	g.Go(func() (err error) { technicians, err = a.repo.ActiveTechnicianCount(gctx, companyID); return })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("snapshot: load day data: %w", err)
	}

	snap := a.compute(companyID, from, to, dayData{
		jobs:         jobs,
		appointments: appts,
		invoices:     invoices,
		payments:     payments,
		estimates:    estimates,
		comms:        comms,
		timeEntries:  timeEntries,
		newCustomers: newCustomers,
		activeCust:   activeCust,
		contracts:    contracts,
		outstanding:  outstanding,
		overdue:      overdue,
		technicians:  technicians,
	})

	if err := a.repo.Upsert(ctx, snap); err != nil {
		return err
	}

	if a.logger != nil {
		a.logger.Info("daily snapshot written",
			slog.Int64("company_id", companyID),
			slog.String("date", from.Format("2006-01-02")),
			slog.Int("jobs_completed", snap.JobsCompleted),
			slog.Int64("revenue_cents", snap.TotalRevenueCents),
		)
	}

	if a.trends != nil {
		if err := a.trends.Recalculate(ctx, companyID, from); err != nil {
			return fmt.Errorf("snapshot: trend pass: %w", err)
		}
	}
	return nil
}

type dayData struct {
	jobs         []JobRow
	appointments []AppointmentRow
	invoices     []InvoiceRow
	payments     []PaymentRow
	estimates    []EstimateRow
	comms        []CommunicationRow
	timeEntries  []TimeEntryRow
	newCustomers int
	activeCust   int
	contracts    ContractStats
	outstanding  int64
	overdue      int
	technicians  int
}

// compute derives every snapshot metric from the in-memory result sets.
// No queries happen past this point.
func (a *Aggregator) compute(companyID int64, from, to time.Time, data dayData) *DailySnapshot {
	snap := &DailySnapshot{CompanyID: companyID, SnapshotDate: from}

	inDay := func(t *time.Time) bool {
		return t != nil && !t.Before(from) && t.Before(to)
	}

	// Jobs.
	jobTypes := make(map[string]int)
	var completedRevenues []int64
	var durations []float64
	firstTimeFixes := 0
	for _, j := range data.jobs {
		jobTypes[j.JobType]++
		if !j.CreatedAt.Before(from) && j.CreatedAt.Before(to) {
			snap.JobsCreated++
			if j.Emergency {
				snap.EmergencyJobs++
			}
			if j.Callback {
				snap.CallbackJobs++
			}
		}
		switch j.Status {
		case JobStatusCompleted:
			if inDay(j.ActualEnd) {
				snap.JobsCompleted++
				completedRevenues = append(completedRevenues, j.RevenueCents)
				snap.TotalRevenueCents += j.RevenueCents
				if j.ActualStart != nil && j.ActualEnd != nil {
					durations = append(durations, j.ActualEnd.Sub(*j.ActualStart).Minutes())
				}
				if !j.Callback {
					firstTimeFixes++
				}
			}
		case JobStatusCancelled:
			snap.JobsCancelled++
		}
	}
	snap.CompletionRate = rate(snap.JobsCompleted, snap.JobsCompleted+snap.JobsCancelled)
	snap.FirstTimeFixRate = rate(firstTimeFixes, snap.JobsCompleted)
	snap.AvgJobDurationMin = round2(meanFloat(durations))
	snap.AvgJobRevenueCents = meanCents(completedRevenues)
	snap.JobRevenueP25Cents = percentileCents(completedRevenues, 0.25)
	snap.JobRevenueP50Cents = percentileCents(completedRevenues, 0.50)
	snap.JobRevenueP75Cents = percentileCents(completedRevenues, 0.75)
	snap.JobRevenueP90Cents = percentileCents(completedRevenues, 0.90)
	snap.TopJobType = topKey(jobTypes)

	// Invoices.
	var createdInvoiceTotals []int64
	for _, inv := range data.invoices {
		if !inv.CreatedAt.Before(from) && inv.CreatedAt.Before(to) {
			snap.InvoicesCreated++
			snap.InvoicedAmountCents += inv.TotalCents
			createdInvoiceTotals = append(createdInvoiceTotals, inv.TotalCents)
		}
		if inDay(inv.PaidAt) {
			snap.InvoicesPaid++
		}
	}
	snap.AvgInvoiceValueCents = meanCents(createdInvoiceTotals)
	snap.InvoicesOverdue = data.overdue
	snap.OutstandingBalanceCents = data.outstanding

	// Payments.
	methods := make(map[string]int)
	for _, p := range data.payments {
		if p.Status != "succeeded" {
			continue
		}
		snap.PaymentsReceived++
		snap.CollectedAmountCents += p.AmountCents
		methods[p.Method]++
	}
	snap.TopPaymentMethod = topKey(methods)

	// Estimates.
	for _, e := range data.estimates {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			snap.EstimatesCreated++
			snap.EstimateValueCents += e.AmountCents
		}
		if inDay(e.ConvertedAt) {
			snap.EstimatesWon++
		}
	}
	snap.EstimateWinRate = rate(snap.EstimatesWon, snap.EstimatesCreated)

	// Appointments.
	onTime, timed := 0, 0
	var driveTimes []float64
	for _, ap := range data.appointments {
		snap.AppointmentsScheduled++
		switch ap.Status {
		case "completed":
			snap.AppointmentsCompleted++
		case "cancelled":
			snap.AppointmentsCancelled++
		}
		if ap.ScheduledStart != nil && ap.ActualStart != nil {
			timed++
			if !ap.ActualStart.After(ap.ScheduledStart.Add(arrivalGrace)) {
				onTime++
			}
		}
		if ap.DriveTimeMin > 0 {
			driveTimes = append(driveTimes, ap.DriveTimeMin)
		}
	}
	snap.OnTimeArrivalRate = rate(onTime, timed)
	snap.AvgDriveTimeMin = round2(meanFloat(driveTimes))

	// Communications.
	var responseTimes []float64
	for _, c := range data.comms {
		snap.CommunicationsTotal++
		switch c.Type {
		case "email":
			snap.EmailCount++
		case "sms":
			snap.SMSCount++
		case "call":
			snap.CallCount++
		}
		switch c.Direction {
		case "inbound":
			snap.InboundCount++
		case "outbound":
			snap.OutboundCount++
		}
		if c.ResponseTimeMin != nil {
			responseTimes = append(responseTimes, *c.ResponseTimeMin)
		}
	}
	snap.AvgResponseTimeMin = round2(meanFloat(responseTimes))

	// Customers, contracts, capacity.
	snap.NewCustomers = data.newCustomers
	snap.ActiveCustomers = data.activeCust
	snap.ActiveContracts = data.contracts.ActiveCount
	snap.ContractValueCents = data.contracts.TotalValueCents

	var totalMin, billableMin float64
	for _, t := range data.timeEntries {
		totalMin += t.DurationMin
		if t.Billable {
			billableMin += t.DurationMin
		}
	}
	snap.TotalHours = round2(totalMin / 60)
	snap.BillableHours = round2(billableMin / 60)
	snap.UtilizationRate = round2(safeDiv(billableMin, totalMin) * 100)
	snap.ActiveTechnicians = data.technicians
	if data.technicians > 0 {
		snap.RevenuePerTechCents = int64(math.Round(float64(snap.TotalRevenueCents) / float64(data.technicians)))
	}

	return snap
}
