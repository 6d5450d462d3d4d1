package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	appointments []AppointmentRow
	technicians  int

	upserted []*Record

	// Error injection
	apptsError  error
	rosterError error
	upsertError error
}

func (m *mockRepository) AppointmentsForDay(ctx context.Context, companyID int64, from, to time.Time) ([]AppointmentRow, error) {
	if m.apptsError != nil {
		return nil, m.apptsError
	}
	return m.appointments, nil
}

func (m *mockRepository) TechnicianCount(ctx context.Context, companyID int64) (int, error) {
	if m.rosterError != nil {
		return 0, m.rosterError
	}
	return m.technicians, nil
}

func (m *mockRepository) Upsert(ctx context.Context, rec *Record) error {
	if m.upsertError != nil {
		return m.upsertError
	}
	m.upserted = append(m.upserted, rec)
	return nil
}

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func tp(t time.Time) *time.Time { return &t }

// ============================================================================
// TESTS
// ============================================================================

func TestScoreDaySkipsEmptyDay(t *testing.T) {
	repo := &mockRepository{technicians: 4}
	scorer := NewScorer(repo, nil)

	processed, err := scorer.ScoreDay(context.Background(), 7, testDay)
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Empty(t, repo.upserted)
}

func TestScoreDayWritesRecord(t *testing.T) {
	nine := testDay.Add(9 * time.Hour)
	repo := &mockRepository{
		technicians: 2,
		appointments: []AppointmentRow{
			{
				Status:          "completed",
				ScheduledStart:  tp(nine),
				ScheduledEnd:    tp(nine.Add(2 * time.Hour)),
				ActualStart:     tp(nine.Add(5 * time.Minute)),
				ActualEnd:       tp(nine.Add(2 * time.Hour)),
				DriveTimeMin:    20,
				DriveMiles:      8,
				JobRevenueCents: 40000,
			},
			{
				Status:          "completed",
				ScheduledStart:  tp(nine.Add(3 * time.Hour)),
				ScheduledEnd:    tp(nine.Add(5 * time.Hour)),
				ActualStart:     tp(nine.Add(3*time.Hour + 30*time.Minute)),
				ActualEnd:       tp(nine.Add(5*time.Hour + 15*time.Minute)),
				DriveTimeMin:    40,
				DriveMiles:      16,
				JobRevenueCents: 20000,
			},
		},
	}
	scorer := NewScorer(repo, nil)

	processed, err := scorer.ScoreDay(context.Background(), 7, testDay)
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, repo.upserted, 1)

	rec := repo.upserted[0]
	assert.Equal(t, int64(7), rec.CompanyID)
	assert.Equal(t, 2, rec.TotalAppointments)
	assert.Equal(t, 2, rec.CompletedAppointments)
	assert.InDelta(t, 4.0, rec.ScheduledHours, 0.001)
	assert.InDelta(t, 16.0, rec.BillableCapacityHours, 0.001)
	assert.InDelta(t, 25.0, rec.ScheduleFillRate, 0.001)

	// One gap between two appointments carries both drive legs.
	assert.InDelta(t, 60.0, rec.AvgDriveTimeBetweenJobsMin, 0.001)
	assert.InDelta(t, 24.0, rec.AvgDriveMilesBetweenJobs, 0.001)
	assert.InDelta(t, 25.0, rec.DriveTimeRatio, 0.001)

	// 5 minutes late is inside grace; 30 minutes is not.
	assert.Equal(t, 1, rec.OnTimeArrivals)
	assert.Equal(t, 1, rec.LateArrivals)
	assert.InDelta(t, 50.0, rec.OnTimeArrivalRate, 0.001)
	assert.Equal(t, 1, rec.OnTimeCompletions)
	assert.Equal(t, 1, rec.LateCompletions)

	assert.Equal(t, int64(60000), rec.TotalRevenueCents)
	assert.Equal(t, int64(3750), rec.RevenuePerBillableHourCents)
	assert.Equal(t, int64(2500), rec.RevenuePerDriveMileCents)
	assert.Equal(t, int64(30000), rec.RevenuePerTechnicianCents)
}

func TestComputeArrivalBuckets(t *testing.T) {
	nine := testDay.Add(9 * time.Hour)
	appts := []AppointmentRow{
		{Status: "completed", ScheduledStart: tp(nine), ActualStart: tp(nine.Add(-10 * time.Minute))},
		{Status: "completed", ScheduledStart: tp(nine), ActualStart: tp(nine.Add(15 * time.Minute))},
		{Status: "completed", ScheduledStart: tp(nine), ActualStart: tp(nine.Add(16 * time.Minute))},
		// No actual start: not counted in the punctuality base.
		{Status: "cancelled", ScheduledStart: tp(nine)},
	}

	rec := Compute(7, testDay, appts, 1)
	assert.Equal(t, 1, rec.EarlyArrivals)
	assert.Equal(t, 1, rec.OnTimeArrivals)
	assert.Equal(t, 1, rec.LateArrivals)
	// Early and on-time both count as punctual.
	assert.InDelta(t, 66.67, rec.OnTimeArrivalRate, 0.001)
}

func TestComputeSingleAppointmentHasNoGaps(t *testing.T) {
	appts := []AppointmentRow{{Status: "completed", DriveTimeMin: 25, DriveMiles: 10}}

	rec := Compute(7, testDay, appts, 0)
	assert.Zero(t, rec.AvgDriveTimeBetweenJobsMin)
	assert.Zero(t, rec.AvgDriveMilesBetweenJobs)
	// No roster means no capacity based rates.
	assert.Zero(t, rec.ScheduleFillRate)
	assert.Zero(t, rec.RevenuePerTechnicianCents)
}

func TestScoreDayReadFailure(t *testing.T) {
	repo := &mockRepository{apptsError: errors.New("timeout")}
	scorer := NewScorer(repo, nil)

	processed, err := scorer.ScoreDay(context.Background(), 7, testDay)
	require.Error(t, err)
	assert.False(t, processed)
}

func TestScoreDayRosterFailure(t *testing.T) {
	repo := &mockRepository{
		appointments: []AppointmentRow{{Status: "completed"}},
		rosterError:  errors.New("timeout"),
	}
	scorer := NewScorer(repo, nil)

	_, err := scorer.ScoreDay(context.Background(), 7, testDay)
	require.Error(t, err)
	assert.Empty(t, repo.upserted)
}
