package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides PostgreSQL access for dispatch scoring.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a dispatch store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// AppointmentsForDay returns appointments scheduled in [from, to) with the
// linked job's revenue embedded.
func (s *Store) AppointmentsForDay(ctx context.Context, companyID int64, from, to time.Time) ([]AppointmentRow, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("dispatch: store not initialised")
	}
	const query = `
		SELECT a.status, a.scheduled_start, a.scheduled_end, a.actual_start, a.actual_end,
		       COALESCE(a.drive_time_minutes, 0), COALESCE(a.drive_miles, 0),
		       COALESCE(j.revenue_cents, 0)
		FROM appointments a
		LEFT JOIN jobs j ON j.id = a.job_id
		WHERE a.company_id = $1 AND a.deleted_at IS NULL
		  AND a.scheduled_start >= $2 AND a.scheduled_start < $3`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("dispatch: query appointments: %w", err)
	}
	defer rows.Close()

	out := make([]AppointmentRow, 0)
	for rows.Next() {
		var a AppointmentRow
		if err := rows.Scan(&a.Status, &a.ScheduledStart, &a.ScheduledEnd, &a.ActualStart, &a.ActualEnd,
			&a.DriveTimeMin, &a.DriveMiles, &a.JobRevenueCents); err != nil {
			return nil, fmt.Errorf("dispatch: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TechnicianCount counts active technicians for the capacity denominator.
func (s *Store) TechnicianCount(ctx context.Context, companyID int64) (int, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("dispatch: store not initialised")
	}
	const query = `
		SELECT COUNT(*) FROM team_members
		WHERE company_id = $1 AND role = 'technician' AND is_active AND deleted_at IS NULL`
	var n int
	if err := s.pool.QueryRow(ctx, query, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("dispatch: count technicians: %w", err)
	}
	return n, nil
}

// Upsert writes the efficiency record keyed by (company_id, efficiency_date).
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("dispatch: store not initialised")
	}
	const query = `
		INSERT INTO dispatch_efficiency (
			company_id, efficiency_date,
			total_appointments, completed_appointments, cancelled_appointments, technician_count,
			scheduled_hours, billable_capacity_hours, schedule_fill_rate,
			total_drive_time_min, total_drive_miles,
			avg_drive_time_between_jobs_min, avg_drive_miles_between_jobs, drive_time_ratio,
			early_arrivals, on_time_arrivals, late_arrivals, on_time_arrival_rate,
			on_time_completions, late_completions,
			total_revenue_cents, revenue_per_billable_hour_cents,
			revenue_per_drive_mile_cents, revenue_per_technician_cents,
			updated_at
		) VALUES (
			@company_id, @efficiency_date,
			@total_appointments, @completed_appointments, @cancelled_appointments, @technician_count,
			@scheduled_hours, @billable_capacity_hours, @schedule_fill_rate,
			@total_drive_time_min, @total_drive_miles,
			@avg_drive_time_between_jobs_min, @avg_drive_miles_between_jobs, @drive_time_ratio,
			@early_arrivals, @on_time_arrivals, @late_arrivals, @on_time_arrival_rate,
			@on_time_completions, @late_completions,
			@total_revenue_cents, @revenue_per_billable_hour_cents,
			@revenue_per_drive_mile_cents, @revenue_per_technician_cents,
			NOW()
		)
		ON CONFLICT (company_id, efficiency_date) DO UPDATE SET
			total_appointments = EXCLUDED.total_appointments,
			completed_appointments = EXCLUDED.completed_appointments,
			cancelled_appointments = EXCLUDED.cancelled_appointments,
			technician_count = EXCLUDED.technician_count,
			scheduled_hours = EXCLUDED.scheduled_hours,
			billable_capacity_hours = EXCLUDED.billable_capacity_hours,
			schedule_fill_rate = EXCLUDED.schedule_fill_rate,
			total_drive_time_min = EXCLUDED.total_drive_time_min,
			total_drive_miles = EXCLUDED.total_drive_miles,
			avg_drive_time_between_jobs_min = EXCLUDED.avg_drive_time_between_jobs_min,
			avg_drive_miles_between_jobs = EXCLUDED.avg_drive_miles_between_jobs,
			drive_time_ratio = EXCLUDED.drive_time_ratio,
			early_arrivals = EXCLUDED.early_arrivals,
			on_time_arrivals = EXCLUDED.on_time_arrivals,
			late_arrivals = EXCLUDED.late_arrivals,
			on_time_arrival_rate = EXCLUDED.on_time_arrival_rate,
			on_time_completions = EXCLUDED.on_time_completions,
			late_completions = EXCLUDED.late_completions,
			total_revenue_cents = EXCLUDED.total_revenue_cents,
			revenue_per_billable_hour_cents = EXCLUDED.revenue_per_billable_hour_cents,
			revenue_per_drive_mile_cents = EXCLUDED.revenue_per_drive_mile_cents,
			revenue_per_technician_cents = EXCLUDED.revenue_per_technician_cents,
			updated_at = NOW()`

	args := pgx.NamedArgs{
		"company_id":                      rec.CompanyID,
		"efficiency_date":                 rec.EfficiencyDate,
		"total_appointments":              rec.TotalAppointments,
		"completed_appointments":          rec.CompletedAppointments,
		"cancelled_appointments":          rec.CancelledAppointments,
		"technician_count":                rec.TechnicianCount,
		"scheduled_hours":                 rec.ScheduledHours,
		"billable_capacity_hours":         rec.BillableCapacityHours,
		"schedule_fill_rate":              rec.ScheduleFillRate,
		"total_drive_time_min":            rec.TotalDriveTimeMin,
		"total_drive_miles":               rec.TotalDriveMiles,
		"avg_drive_time_between_jobs_min": rec.AvgDriveTimeBetweenJobsMin,
		"avg_drive_miles_between_jobs":    rec.AvgDriveMilesBetweenJobs,
		"drive_time_ratio":                rec.DriveTimeRatio,
		"early_arrivals":                  rec.EarlyArrivals,
		"on_time_arrivals":                rec.OnTimeArrivals,
		"late_arrivals":                   rec.LateArrivals,
		"on_time_arrival_rate":            rec.OnTimeArrivalRate,
		"on_time_completions":             rec.OnTimeCompletions,
		"late_completions":                rec.LateCompletions,
		"total_revenue_cents":             rec.TotalRevenueCents,
		"revenue_per_billable_hour_cents": rec.RevenuePerBillableHourCents,
		"revenue_per_drive_mile_cents":    rec.RevenuePerDriveMileCents,
		"revenue_per_technician_cents":    rec.RevenuePerTechnicianCents,
	}

	if _, err := s.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("dispatch: upsert record: %w", err)
	}
	return nil
}
