package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Repository exposes the reads and the upsert the scorer relies on.
type Repository interface {
	AppointmentsForDay(ctx context.Context, companyID int64, from, to time.Time) ([]AppointmentRow, error)
	TechnicianCount(ctx context.Context, companyID int64) (int, error)
	Upsert(ctx context.Context, rec *Record) error
}

// Scorer computes dispatch efficiency for one tenant and day.
type Scorer struct {
	repo   Repository
	logger *slog.Logger
}

// NewScorer constructs a dispatch scorer.
func NewScorer(repo Repository, logger *slog.Logger) *Scorer {
	return &Scorer{repo: repo, logger: logger}
}

const (
	// Each rostered technician is assumed available for eight billable hours.
	assumedShiftHours = 8.0
	arrivalGrace      = 15 * time.Minute
)

// ScoreDay computes and upserts the efficiency record for date. The boolean
// reports whether a record was produced; zero appointments is a silent skip.
func (s *Scorer) ScoreDay(ctx context.Context, companyID int64, date time.Time) (bool, error) {
	if s == nil || s.repo == nil {
		return false, fmt.Errorf("dispatch: scorer not configured")
	}
	from := date.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	appts, err := s.repo.AppointmentsForDay(ctx, companyID, from, to)
	if err != nil {
		return false, fmt.Errorf("dispatch: load appointments: %w", err)
	}
	if len(appts) == 0 {
		if s.logger != nil {
			s.logger.Debug("dispatch scoring skipped, no appointments",
				slog.Int64("company_id", companyID),
				slog.String("date", from.Format("2006-01-02")))
		}
		return false, nil
	}

	technicians, err := s.repo.TechnicianCount(ctx, companyID)
	if err != nil {
		return false, fmt.Errorf("dispatch: load roster: %w", err)
	}

	rec := Compute(companyID, from, appts, technicians)
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return false, err
	}
	if s.logger != nil {
		s.logger.Info("dispatch efficiency written",
			slog.Int64("company_id", companyID),
			slog.String("date", from.Format("2006-01-02")),
			slog.Int("appointments", rec.TotalAppointments),
			slog.Float64("fill_rate", rec.ScheduleFillRate))
	}
	return true, nil
}

// Compute derives the efficiency record from in-memory appointments and the
// technician headcount. Exported for direct use in backfill tooling.
func Compute(companyID int64, date time.Time, appts []AppointmentRow, technicians int) *Record {
	rec := &Record{
		CompanyID:       companyID,
		EfficiencyDate:  date,
		TechnicianCount: technicians,
	}

	var scheduledMin float64
	for _, ap := range appts {
		rec.TotalAppointments++
		switch ap.Status {
		case "completed":
			rec.CompletedAppointments++
		case "cancelled":
			rec.CancelledAppointments++
		}

		if ap.ScheduledStart != nil && ap.ScheduledEnd != nil {
			scheduledMin += ap.ScheduledEnd.Sub(*ap.ScheduledStart).Minutes()
		}
		rec.TotalDriveTimeMin += ap.DriveTimeMin
		rec.TotalDriveMiles += ap.DriveMiles

		if ap.ScheduledStart != nil && ap.ActualStart != nil {
			diff := ap.ActualStart.Sub(*ap.ScheduledStart)
			switch {
			case diff < 0:
				rec.EarlyArrivals++
			case diff <= arrivalGrace:
				rec.OnTimeArrivals++
			default:
				rec.LateArrivals++
			}
		}
		if ap.ScheduledEnd != nil && ap.ActualEnd != nil {
			if ap.ActualEnd.After(*ap.ScheduledEnd) {
				rec.LateCompletions++
			} else {
				rec.OnTimeCompletions++
			}
		}
		if ap.Status == "completed" {
			rec.TotalRevenueCents += ap.JobRevenueCents
		}
	}

	rec.ScheduledHours = round2(scheduledMin / 60)
	rec.BillableCapacityHours = float64(technicians) * assumedShiftHours
	rec.ScheduleFillRate = round2(safeDiv(rec.ScheduledHours, rec.BillableCapacityHours) * 100)

	// Between-stop averages divide by the gaps between appointments, not the
	// appointment count.
	gaps := float64(rec.TotalAppointments - 1)
	if gaps > 0 {
		rec.AvgDriveTimeBetweenJobsMin = round2(rec.TotalDriveTimeMin / gaps)
		rec.AvgDriveMilesBetweenJobs = round2(rec.TotalDriveMiles / gaps)
	}
	rec.DriveTimeRatio = round2(safeDiv(rec.TotalDriveTimeMin, scheduledMin) * 100)

	timedArrivals := rec.EarlyArrivals + rec.OnTimeArrivals + rec.LateArrivals
	rec.OnTimeArrivalRate = round2(safeDiv(float64(rec.EarlyArrivals+rec.OnTimeArrivals), float64(timedArrivals)) * 100)

	billableHours := rec.BillableCapacityHours
	rec.RevenuePerBillableHourCents = divCents(rec.TotalRevenueCents, billableHours)
	rec.RevenuePerDriveMileCents = divCents(rec.TotalRevenueCents, rec.TotalDriveMiles)
	rec.RevenuePerTechnicianCents = divCents(rec.TotalRevenueCents, float64(technicians))

	return rec
}

func divCents(cents int64, by float64) int64 {
	if by == 0 {
		return 0
	}
	return int64(math.Round(float64(cents) / by))
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
