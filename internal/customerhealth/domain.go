// Package customerhealth computes composite health and churn scores for a
// tenant's customers.
package customerhealth

import "time"

// CustomerRow is the scoring subject read from the customers table.
type CustomerRow struct {
	ID                 int64
	LifetimeValueCents int64
	TotalJobs          int
	LastServiceAt      *time.Time
	HasActiveContract  bool
}

// JobRow is a customer's recent job.
type JobRow struct {
	Status       string
	RevenueCents int64
	CompletedAt  *time.Time
}

// CommunicationRow is one logged interaction with the customer.
type CommunicationRow struct {
	OccurredAt time.Time
}

// InvoiceRow is an open (unpaid, non-void) invoice of the customer.
type InvoiceRow struct {
	BalanceCents int64
	DueDate      *time.Time
}

// Record is the derived health row for one (company, customer, date).
// The score is a deterministic function of the source rows at computation
// time; nothing is carried between runs.
type Record struct {
	CompanyID    int64
	CustomerID   int64
	AnalysisDate time.Time

	HealthScore      int
	HealthStatus     string
	ChurnProbability float64
	ChurnRiskLevel   string

	DaysSinceLastService int
	Interactions30d      int
	Interactions90d      int

	OutstandingBalanceCents int64
	HasOverdueInvoices      bool

	TotalJobs12m       int
	Revenue12mCents    int64
	AvgJobValueCents   int64
	LifetimeValueCents int64

	CustomerSegment string
	ValueSegment    string

	UpsellScore       int
	RecommendedAction string
}

// Health statuses by score band.
const (
	StatusHealthy  = "healthy"
	StatusStable   = "stable"
	StatusAtRisk   = "at_risk"
	StatusCritical = "critical"
)

// Churn risk levels by probability band.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Customer segments.
const (
	SegmentVIP        = "vip"
	SegmentLoyal      = "loyal"
	SegmentDormant    = "dormant"
	SegmentOccasional = "occasional"
	SegmentRegular    = "regular"
)

// Value segments by lifetime revenue.
const (
	ValueHigh   = "high"
	ValueMedium = "medium"
	ValueLow    = "low"
)

// Recommended actions in priority order.
const (
	ActionUrgentOutreach   = "urgent_outreach"
	ActionScheduleCheckIn  = "schedule_check_in"
	ActionPresentAgreement = "present_service_agreement"
	ActionSendReminder     = "send_service_reminder"
	ActionMaintain         = "maintain_relationship"
)
