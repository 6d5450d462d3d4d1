// Package dispatch scores a tenant's scheduling efficiency for one day.
package dispatch

import "time"

// AppointmentRow is one scheduled stop with its job's revenue attached.
type AppointmentRow struct {
	Status          string
	ScheduledStart  *time.Time
	ScheduledEnd    *time.Time
	ActualStart     *time.Time
	ActualEnd       *time.Time
	DriveTimeMin    float64
	DriveMiles      float64
	JobRevenueCents int64
}

// Record is the derived dispatch efficiency row for one (company, date).
// Only written when the day had at least one appointment.
type Record struct {
	CompanyID      int64
	EfficiencyDate time.Time

	TotalAppointments     int
	CompletedAppointments int
	CancelledAppointments int
	TechnicianCount       int

	ScheduledHours        float64
	BillableCapacityHours float64
	ScheduleFillRate      float64

	TotalDriveTimeMin          float64
	TotalDriveMiles            float64
	AvgDriveTimeBetweenJobsMin float64
	AvgDriveMilesBetweenJobs   float64
	DriveTimeRatio             float64

	EarlyArrivals     int
	OnTimeArrivals    int
	LateArrivals      int
	OnTimeArrivalRate float64

	OnTimeCompletions int
	LateCompletions   int

	TotalRevenueCents           int64
	RevenuePerBillableHourCents int64
	RevenuePerDriveMileCents    int64
	RevenuePerTechnicianCents   int64
}
