package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fieldline/fieldline/internal/batch"
)

// DailySnapshotJob aggregates the previous day's activity into one snapshot
// row per tenant. Run accounting happens inside the runner, so the handler
// only parses the payload and reports the outcome.
type DailySnapshotJob struct {
	Runner *batch.Runner
	Logger *slog.Logger
	clock  func() time.Time
}

// NewDailySnapshotJob initialises the daily snapshot handler.
func NewDailySnapshotJob(runner *batch.Runner, logger *slog.Logger) *DailySnapshotJob {
	return &DailySnapshotJob{
		Runner: runner,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the snapshot run for the payload's date.
func (j *DailySnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("daily snapshot: handler not configured")
	}
	var payload DailySnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	date := j.now().AddDate(0, 0, -1)
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return asynq.SkipRetry
		}
		date = parsed
	}

	logger := j.logger().With(slog.String("target_date", date.Format("2006-01-02")))
	logger.Info("starting daily snapshot run")

	summary, err := j.Runner.RunSnapshots(ctx, date, payload.CompanyID)
	if err != nil {
		logger.Error("daily snapshot run failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed daily snapshot run",
		slog.String("run_id", summary.RunID),
		slog.Int("companies", summary.CompaniesProcessed),
		slog.Int("failed", summary.FailCount),
	)
	return nil
}

func (j *DailySnapshotJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsDailySnapshot))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsDailySnapshot))
}

func (j *DailySnapshotJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
