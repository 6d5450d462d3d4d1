// Package jobs hosts the Asynq task definitions and worker plumbing for the
// analytics batch pipeline.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalyticsDailySnapshot aggregates yesterday's snapshot per tenant.
	TaskAnalyticsDailySnapshot = "analytics:daily_snapshot"
	// TaskAnalyticsOperationalScores runs the dispatch, pricebook and
	// customer health scorers per tenant.
	TaskAnalyticsOperationalScores = "analytics:operational_scores"
)

// DailySnapshotPayload parameterises a snapshot run. Date is YYYY-MM-DD;
// empty means yesterday. CompanyID restricts the run to one tenant.
type DailySnapshotPayload struct {
	Date      string `json:"date,omitempty"`
	CompanyID *int64 `json:"company_id,omitempty"`
}

// OperationalScoresPayload parameterises a scores run. Date is YYYY-MM-DD;
// empty means today. CompanyID restricts the run to one tenant.
type OperationalScoresPayload struct {
	Date      string `json:"date,omitempty"`
	CompanyID *int64 `json:"company_id,omitempty"`
}

// NewDailySnapshotTask constructs the daily snapshot task.
func NewDailySnapshotTask(payload DailySnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsDailySnapshot, data), nil
}

// NewOperationalScoresTask constructs the operational scores task.
func NewOperationalScoresTask(payload OperationalScoresPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsOperationalScores, data), nil
}
