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

// OperationalScoresJob runs the dispatch efficiency, pricebook performance
// and customer health scorers per tenant.
type OperationalScoresJob struct {
	Runner *batch.Runner
	Logger *slog.Logger
	clock  func() time.Time
}

// NewOperationalScoresJob initialises the operational scores handler.
func NewOperationalScoresJob(runner *batch.Runner, logger *slog.Logger) *OperationalScoresJob {
	return &OperationalScoresJob{
		Runner: runner,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scores run for the payload's date.
func (j *OperationalScoresJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("operational scores: handler not configured")
	}
	var payload OperationalScoresPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	date := j.now()
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return asynq.SkipRetry
		}
		date = parsed
	}

	logger := j.logger().With(slog.String("target_date", date.Format("2006-01-02")))
	logger.Info("starting operational scores run")

	summary, err := j.Runner.RunScores(ctx, date, payload.CompanyID)
	if err != nil {
		logger.Error("operational scores run failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed operational scores run",
		slog.String("run_id", summary.RunID),
		slog.Int("companies", summary.CompaniesProcessed),
		slog.Int("failed", summary.FailCount),
	)
	return nil
}

func (j *OperationalScoresJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsOperationalScores))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsOperationalScores))
}

func (j *OperationalScoresJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
