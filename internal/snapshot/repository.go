package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides PostgreSQL backed reads over the operational tables and the
// upsert into daily_snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a snapshot store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) guard() error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("snapshot: store not initialised")
	}
	return nil
}

// Jobs returns jobs touched during [from, to): created, completed or cancelled.
func (s *Store) Jobs(ctx context.Context, companyID int64, from, to time.Time) ([]JobRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT status, COALESCE(job_type, ''), COALESCE(revenue_cents, 0),
		       is_emergency, is_callback, created_at,
		       scheduled_start, scheduled_end, actual_start, actual_end
		FROM jobs
		WHERE company_id = $1 AND deleted_at IS NULL
		  AND (
			(created_at >= $2 AND created_at < $3)
			OR (actual_end >= $2 AND actual_end < $3)
			OR (updated_at >= $2 AND updated_at < $3 AND status = 'cancelled')
		  )`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query jobs: %w", err)
	}
	defer rows.Close()

	out := make([]JobRow, 0)
	for rows.Next() {
		var j JobRow
		if err := rows.Scan(&j.Status, &j.JobType, &j.RevenueCents, &j.Emergency, &j.Callback,
			&j.CreatedAt, &j.ScheduledStart, &j.ScheduledEnd, &j.ActualStart, &j.ActualEnd); err != nil {
			return nil, fmt.Errorf("snapshot: scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Appointments returns appointments scheduled to start during [from, to).
func (s *Store) Appointments(ctx context.Context, companyID int64, from, to time.Time) ([]AppointmentRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT status, scheduled_start, scheduled_end, actual_start, actual_end,
		       COALESCE(drive_time_minutes, 0), COALESCE(drive_miles, 0)
		FROM appointments
		WHERE company_id = $1 AND deleted_at IS NULL
		  AND scheduled_start >= $2 AND scheduled_start < $3`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query appointments: %w", err)
	}
	defer rows.Close()

	out := make([]AppointmentRow, 0)
	for rows.Next() {
		var a AppointmentRow
		if err := rows.Scan(&a.Status, &a.ScheduledStart, &a.ScheduledEnd, &a.ActualStart, &a.ActualEnd,
			&a.DriveTimeMin, &a.DriveMiles); err != nil {
			return nil, fmt.Errorf("snapshot: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Invoices returns invoices created or paid during [from, to).
func (s *Store) Invoices(ctx context.Context, companyID int64, from, to time.Time) ([]InvoiceRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT status, COALESCE(total_cents, 0), created_at, due_date, paid_at
		FROM invoices
		WHERE company_id = $1 AND deleted_at IS NULL
		  AND ((created_at >= $2 AND created_at < $3) OR (paid_at >= $2 AND paid_at < $3))`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query invoices: %w", err)
	}
	defer rows.Close()

	out := make([]InvoiceRow, 0)
	for rows.Next() {
		var i InvoiceRow
		if err := rows.Scan(&i.Status, &i.TotalCents, &i.CreatedAt, &i.DueDate, &i.PaidAt); err != nil {
			return nil, fmt.Errorf("snapshot: scan invoice: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Payments returns settled payments received during [from, to).
func (s *Store) Payments(ctx context.Context, companyID int64, from, to time.Time) ([]PaymentRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT COALESCE(amount_cents, 0), COALESCE(method, ''), status
		FROM payments
		WHERE company_id = $1 AND received_at >= $2 AND received_at < $3`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query payments: %w", err)
	}
	defer rows.Close()

	out := make([]PaymentRow, 0)
	for rows.Next() {
		var p PaymentRow
		if err := rows.Scan(&p.AmountCents, &p.Method, &p.Status); err != nil {
			return nil, fmt.Errorf("snapshot: scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Estimates returns estimates created or converted during [from, to).
func (s *Store) Estimates(ctx context.Context, companyID int64, from, to time.Time) ([]EstimateRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT COALESCE(amount_cents, 0), status, created_at, converted_at
		FROM estimates
		WHERE company_id = $1 AND deleted_at IS NULL
		  AND ((created_at >= $2 AND created_at < $3) OR (converted_at >= $2 AND converted_at < $3))`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query estimates: %w", err)
	}
	defer rows.Close()

	out := make([]EstimateRow, 0)
	for rows.Next() {
		var e EstimateRow
		if err := rows.Scan(&e.AmountCents, &e.Status, &e.CreatedAt, &e.ConvertedAt); err != nil {
			return nil, fmt.Errorf("snapshot: scan estimate: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Communications returns communications logged during [from, to).
func (s *Store) Communications(ctx context.Context, companyID int64, from, to time.Time) ([]CommunicationRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT COALESCE(type, ''), COALESCE(direction, ''), response_time_minutes
		FROM communications
		WHERE company_id = $1 AND occurred_at >= $2 AND occurred_at < $3`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query communications: %w", err)
	}
	defer rows.Close()

	out := make([]CommunicationRow, 0)
	for rows.Next() {
		var c CommunicationRow
		if err := rows.Scan(&c.Type, &c.Direction, &c.ResponseTimeMin); err != nil {
			return nil, fmt.Errorf("snapshot: scan communication: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TimeEntries returns time entries recorded during [from, to).
func (s *Store) TimeEntries(ctx context.Context, companyID int64, from, to time.Time) ([]TimeEntryRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT COALESCE(duration_minutes, 0), is_billable
		FROM time_entries
		WHERE company_id = $1 AND started_at >= $2 AND started_at < $3`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query time entries: %w", err)
	}
	defer rows.Close()

	out := make([]TimeEntryRow, 0)
	for rows.Next() {
		var t TimeEntryRow
		if err := rows.Scan(&t.DurationMin, &t.Billable); err != nil {
			return nil, fmt.Errorf("snapshot: scan time entry: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// NewCustomerCount counts customers created during [from, to).
func (s *Store) NewCustomerCount(ctx context.Context, companyID int64, from, to time.Time) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	const query = `
		SELECT COUNT(*) FROM customers
		WHERE company_id = $1 AND deleted_at IS NULL AND created_at >= $2 AND created_at < $3`
	var n int
	if err := s.pool.QueryRow(ctx, query, companyID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot: count new customers: %w", err)
	}
	return n, nil
}

// ActiveCustomerCount is a point-in-time count of non-deleted customers.
func (s *Store) ActiveCustomerCount(ctx context.Context, companyID int64) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	const query = `SELECT COUNT(*) FROM customers WHERE company_id = $1 AND deleted_at IS NULL`
	var n int
	if err := s.pool.QueryRow(ctx, query, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot: count active customers: %w", err)
	}
	return n, nil
}

// ActiveContractStats is a point-in-time read of active contracts.
func (s *Store) ActiveContractStats(ctx context.Context, companyID int64) (ContractStats, error) {
	if err := s.guard(); err != nil {
		return ContractStats{}, err
	}
	const query = `
		SELECT COUNT(*), COALESCE(SUM(total_value_cents), 0)
		FROM contracts
		WHERE company_id = $1 AND status = 'active' AND deleted_at IS NULL`
	var stats ContractStats
	if err := s.pool.QueryRow(ctx, query, companyID).Scan(&stats.ActiveCount, &stats.TotalValueCents); err != nil {
		return ContractStats{}, fmt.Errorf("snapshot: contract stats: %w", err)
	}
	return stats, nil
}

// OutstandingBalance is a point-in-time sum of unpaid invoice balances.
func (s *Store) OutstandingBalance(ctx context.Context, companyID int64) (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	const query = `
		SELECT COALESCE(SUM(balance_cents), 0)
		FROM invoices
		WHERE company_id = $1 AND deleted_at IS NULL AND status NOT IN ('paid', 'void')`
	var cents int64
	if err := s.pool.QueryRow(ctx, query, companyID).Scan(&cents); err != nil {
		return 0, fmt.Errorf("snapshot: outstanding balance: %w", err)
	}
	return cents, nil
}

// OverdueInvoiceCount is a point-in-time count of unpaid invoices past due.
func (s *Store) OverdueInvoiceCount(ctx context.Context, companyID int64, asOf time.Time) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	const query = `
		SELECT COUNT(*) FROM invoices
		WHERE company_id = $1 AND deleted_at IS NULL
		  AND status NOT IN ('paid', 'void') AND due_date < $2`
	var n int
	if err := s.pool.QueryRow(ctx, query, companyID, asOf).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot: count overdue invoices: %w", err)
	}
	return n, nil
}

// ActiveTechnicianCount counts active field technicians on the roster.
func (s *Store) ActiveTechnicianCount(ctx context.Context, companyID int64) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	const query = `
		SELECT COUNT(*) FROM team_members
		WHERE company_id = $1 AND role = 'technician' AND is_active AND deleted_at IS NULL`
	var n int
	if err := s.pool.QueryRow(ctx, query, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot: count technicians: %w", err)
	}
	return n, nil
}

// Upsert writes the aggregation columns of a snapshot row, keyed by
// (company_id, snapshot_date). Trend columns are left untouched so a re-run
// of the aggregator does not clear previously computed rolling statistics.
func (s *Store) Upsert(ctx context.Context, snap *DailySnapshot) error {
	if err := s.guard(); err != nil {
		return err
	}
	const query = `
		INSERT INTO daily_snapshots (
			company_id, snapshot_date,
			jobs_created, jobs_completed, jobs_cancelled, emergency_jobs, callback_jobs,
			completion_rate, first_time_fix_rate, avg_job_duration_min, avg_job_revenue_cents,
			job_revenue_p25_cents, job_revenue_p50_cents, job_revenue_p75_cents, job_revenue_p90_cents,
			top_job_type,
			total_revenue_cents, invoices_created, invoices_paid, invoices_overdue,
			invoiced_amount_cents, collected_amount_cents, avg_invoice_value_cents,
			outstanding_balance_cents, payments_received, top_payment_method,
			estimates_created, estimates_won, estimate_win_rate, estimate_value_cents,
			appointments_scheduled, appointments_completed, appointments_cancelled,
			on_time_arrival_rate, avg_drive_time_min,
			communications_total, email_count, sms_count, call_count, inbound_count, outbound_count,
			avg_response_time_min,
			new_customers, active_customers, active_contracts, contract_value_cents,
			total_hours, billable_hours, utilization_rate, active_technicians, revenue_per_tech_cents,
			updated_at
		) VALUES (
			@company_id, @snapshot_date,
			@jobs_created, @jobs_completed, @jobs_cancelled, @emergency_jobs, @callback_jobs,
			@completion_rate, @first_time_fix_rate, @avg_job_duration_min, @avg_job_revenue_cents,
			@job_revenue_p25_cents, @job_revenue_p50_cents, @job_revenue_p75_cents, @job_revenue_p90_cents,
			@top_job_type,
			@total_revenue_cents, @invoices_created, @invoices_paid, @invoices_overdue,
			@invoiced_amount_cents, @collected_amount_cents, @avg_invoice_value_cents,
			@outstanding_balance_cents, @payments_received, @top_payment_method,
			@estimates_created, @estimates_won, @estimate_win_rate, @estimate_value_cents,
			@appointments_scheduled, @appointments_completed, @appointments_cancelled,
			@on_time_arrival_rate, @avg_drive_time_min,
			@communications_total, @email_count, @sms_count, @call_count, @inbound_count, @outbound_count,
			@avg_response_time_min,
			@new_customers, @active_customers, @active_contracts, @contract_value_cents,
			@total_hours, @billable_hours, @utilization_rate, @active_technicians, @revenue_per_tech_cents,
			NOW()
		)
		ON CONFLICT (company_id, snapshot_date) DO UPDATE SET
			jobs_created = EXCLUDED.jobs_created,
			jobs_completed = EXCLUDED.jobs_completed,
			jobs_cancelled = EXCLUDED.jobs_cancelled,
			emergency_jobs = EXCLUDED.emergency_jobs,
			callback_jobs = EXCLUDED.callback_jobs,
			completion_rate = EXCLUDED.completion_rate,
			first_time_fix_rate = EXCLUDED.first_time_fix_rate,
			avg_job_duration_min = EXCLUDED.avg_job_duration_min,
			avg_job_revenue_cents = EXCLUDED.avg_job_revenue_cents,
			job_revenue_p25_cents = EXCLUDED.job_revenue_p25_cents,
			job_revenue_p50_cents = EXCLUDED.job_revenue_p50_cents,
			job_revenue_p75_cents = EXCLUDED.job_revenue_p75_cents,
			job_revenue_p90_cents = EXCLUDED.job_revenue_p90_cents,
			top_job_type = EXCLUDED.top_job_type,
			total_revenue_cents = EXCLUDED.total_revenue_cents,
			invoices_created = EXCLUDED.invoices_created,
			invoices_paid = EXCLUDED.invoices_paid,
			invoices_overdue = EXCLUDED.invoices_overdue,
			invoiced_amount_cents = EXCLUDED.invoiced_amount_cents,
			collected_amount_cents = EXCLUDED.collected_amount_cents,
			avg_invoice_value_cents = EXCLUDED.avg_invoice_value_cents,
			outstanding_balance_cents = EXCLUDED.outstanding_balance_cents,
			payments_received = EXCLUDED.payments_received,
			top_payment_method = EXCLUDED.top_payment_method,
			estimates_created = EXCLUDED.estimates_created,
			estimates_won = EXCLUDED.estimates_won,
			estimate_win_rate = EXCLUDED.estimate_win_rate,
			estimate_value_cents = EXCLUDED.estimate_value_cents,
			appointments_scheduled = EXCLUDED.appointments_scheduled,
			appointments_completed = EXCLUDED.appointments_completed,
			appointments_cancelled = EXCLUDED.appointments_cancelled,
			on_time_arrival_rate = EXCLUDED.on_time_arrival_rate,
			avg_drive_time_min = EXCLUDED.avg_drive_time_min,
			communications_total = EXCLUDED.communications_total,
			email_count = EXCLUDED.email_count,
			sms_count = EXCLUDED.sms_count,
			call_count = EXCLUDED.call_count,
			inbound_count = EXCLUDED.inbound_count,
			outbound_count = EXCLUDED.outbound_count,
			avg_response_time_min = EXCLUDED.avg_response_time_min,
			new_customers = EXCLUDED.new_customers,
			active_customers = EXCLUDED.active_customers,
			active_contracts = EXCLUDED.active_contracts,
			contract_value_cents = EXCLUDED.contract_value_cents,
			total_hours = EXCLUDED.total_hours,
			billable_hours = EXCLUDED.billable_hours,
			utilization_rate = EXCLUDED.utilization_rate,
			active_technicians = EXCLUDED.active_technicians,
			revenue_per_tech_cents = EXCLUDED.revenue_per_tech_cents,
			updated_at = NOW()`

	args := pgx.NamedArgs{
		"company_id":    snap.CompanyID,
		"snapshot_date": snap.SnapshotDate,

		"jobs_created":          snap.JobsCreated,
		"jobs_completed":        snap.JobsCompleted,
		"jobs_cancelled":        snap.JobsCancelled,
		"emergency_jobs":        snap.EmergencyJobs,
		"callback_jobs":         snap.CallbackJobs,
		"completion_rate":       snap.CompletionRate,
		"first_time_fix_rate":   snap.FirstTimeFixRate,
		"avg_job_duration_min":  snap.AvgJobDurationMin,
		"avg_job_revenue_cents": snap.AvgJobRevenueCents,
		"job_revenue_p25_cents": snap.JobRevenueP25Cents,
		"job_revenue_p50_cents": snap.JobRevenueP50Cents,
		"job_revenue_p75_cents": snap.JobRevenueP75Cents,
		"job_revenue_p90_cents": snap.JobRevenueP90Cents,
		"top_job_type":          snap.TopJobType,

		"total_revenue_cents":       snap.TotalRevenueCents,
		"invoices_created":          snap.InvoicesCreated,
		"invoices_paid":             snap.InvoicesPaid,
		"invoices_overdue":          snap.InvoicesOverdue,
		"invoiced_amount_cents":     snap.InvoicedAmountCents,
		"collected_amount_cents":    snap.CollectedAmountCents,
		"avg_invoice_value_cents":   snap.AvgInvoiceValueCents,
		"outstanding_balance_cents": snap.OutstandingBalanceCents,
		"payments_received":         snap.PaymentsReceived,
		"top_payment_method":        snap.TopPaymentMethod,

		"estimates_created":    snap.EstimatesCreated,
		"estimates_won":        snap.EstimatesWon,
		"estimate_win_rate":    snap.EstimateWinRate,
		"estimate_value_cents": snap.EstimateValueCents,

		"appointments_scheduled": snap.AppointmentsScheduled,
		"appointments_completed": snap.AppointmentsCompleted,
		"appointments_cancelled": snap.AppointmentsCancelled,
		"on_time_arrival_rate":   snap.OnTimeArrivalRate,
		"avg_drive_time_min":     snap.AvgDriveTimeMin,

		"communications_total":  snap.CommunicationsTotal,
		"email_count":           snap.EmailCount,
		"sms_count":             snap.SMSCount,
		"call_count":            snap.CallCount,
		"inbound_count":         snap.InboundCount,
		"outbound_count":        snap.OutboundCount,
		"avg_response_time_min": snap.AvgResponseTimeMin,

		"new_customers":        snap.NewCustomers,
		"active_customers":     snap.ActiveCustomers,
		"active_contracts":     snap.ActiveContracts,
		"contract_value_cents": snap.ContractValueCents,

		"total_hours":            snap.TotalHours,
		"billable_hours":         snap.BillableHours,
		"utilization_rate":       snap.UtilizationRate,
		"active_technicians":     snap.ActiveTechnicians,
		"revenue_per_tech_cents": snap.RevenuePerTechCents,
	}

	if _, err := s.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("snapshot: upsert daily snapshot: %w", err)
	}
	return nil
}

// ListRange returns a tenant's snapshot rows for [from, to], oldest first.
func (s *Store) ListRange(ctx context.Context, companyID int64, from, to time.Time) ([]DailySnapshot, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	const query = `
		SELECT company_id, snapshot_date,
		       jobs_created, jobs_completed, jobs_cancelled, emergency_jobs, callback_jobs,
		       completion_rate, first_time_fix_rate, avg_job_duration_min, avg_job_revenue_cents,
		       job_revenue_p25_cents, job_revenue_p50_cents, job_revenue_p75_cents, job_revenue_p90_cents,
		       top_job_type,
		       total_revenue_cents, invoices_created, invoices_paid, invoices_overdue,
		       invoiced_amount_cents, collected_amount_cents, avg_invoice_value_cents,
		       outstanding_balance_cents, payments_received, top_payment_method,
		       estimates_created, estimates_won, estimate_win_rate, estimate_value_cents,
		       appointments_scheduled, appointments_completed, appointments_cancelled,
		       on_time_arrival_rate, avg_drive_time_min,
		       communications_total, email_count, sms_count, call_count, inbound_count, outbound_count,
		       avg_response_time_min,
		       new_customers, active_customers, active_contracts, contract_value_cents,
		       total_hours, billable_hours, utilization_rate, active_technicians, revenue_per_tech_cents,
		       revenue_ma7_cents, revenue_ma30_cents, revenue_ma90_cents, revenue_trend,
		       revenue_change_dod, revenue_change_wow, revenue_forecast_7d_cents, revenue_forecast_30d_cents,
		       jobs_completed_ma7, jobs_completed_ma30, jobs_completed_ma90, jobs_completed_trend,
		       new_customers_ma7, new_customers_ma30, new_customers_ma90, new_customers_trend
		FROM daily_snapshots
		WHERE company_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		ORDER BY snapshot_date`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list range: %w", err)
	}
	defer rows.Close()

	out := make([]DailySnapshot, 0)
	for rows.Next() {
		var d DailySnapshot
		if err := rows.Scan(
			&d.CompanyID, &d.SnapshotDate,
			&d.JobsCreated, &d.JobsCompleted, &d.JobsCancelled, &d.EmergencyJobs, &d.CallbackJobs,
			&d.CompletionRate, &d.FirstTimeFixRate, &d.AvgJobDurationMin, &d.AvgJobRevenueCents,
			&d.JobRevenueP25Cents, &d.JobRevenueP50Cents, &d.JobRevenueP75Cents, &d.JobRevenueP90Cents,
			&d.TopJobType,
			&d.TotalRevenueCents, &d.InvoicesCreated, &d.InvoicesPaid, &d.InvoicesOverdue,
			&d.InvoicedAmountCents, &d.CollectedAmountCents, &d.AvgInvoiceValueCents,
			&d.OutstandingBalanceCents, &d.PaymentsReceived, &d.TopPaymentMethod,
			&d.EstimatesCreated, &d.EstimatesWon, &d.EstimateWinRate, &d.EstimateValueCents,
			&d.AppointmentsScheduled, &d.AppointmentsCompleted, &d.AppointmentsCancelled,
			&d.OnTimeArrivalRate, &d.AvgDriveTimeMin,
			&d.CommunicationsTotal, &d.EmailCount, &d.SMSCount, &d.CallCount, &d.InboundCount, &d.OutboundCount,
			&d.AvgResponseTimeMin,
			&d.NewCustomers, &d.ActiveCustomers, &d.ActiveContracts, &d.ContractValueCents,
			&d.TotalHours, &d.BillableHours, &d.UtilizationRate, &d.ActiveTechnicians, &d.RevenuePerTechCents,
			&d.RevenueMA7Cents, &d.RevenueMA30Cents, &d.RevenueMA90Cents, &d.RevenueTrend,
			&d.RevenueChangeDoD, &d.RevenueChangeWoW, &d.RevenueForecast7dCents, &d.RevenueForecast30dCents,
			&d.JobsCompletedMA7, &d.JobsCompletedMA30, &d.JobsCompletedMA90, &d.JobsCompletedTrend,
			&d.NewCustomersMA7, &d.NewCustomersMA30, &d.NewCustomersMA90, &d.NewCustomersTrend,
		); err != nil {
			return nil, fmt.Errorf("snapshot: scan daily snapshot: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
