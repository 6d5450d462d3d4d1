// Package snapshot computes one day's full operational metrics for a tenant
// and persists them as a single daily_snapshots row.
package snapshot

import "time"

// DailySnapshot is the derived daily aggregate for one (company, date).
// Grain: exactly one row per company per calendar day; rebuilding a day
// replaces the row. Money fields are integer minor currency units (cents);
// rates are percentages rounded to two decimals.
type DailySnapshot struct {
	CompanyID    int64     `json:"companyId"`
	SnapshotDate time.Time `json:"snapshotDate"`

	// Jobs
	JobsCreated        int     `json:"jobsCreated"`
	JobsCompleted      int     `json:"jobsCompleted"`
	JobsCancelled      int     `json:"jobsCancelled"`
	EmergencyJobs      int     `json:"emergencyJobs"`
	CallbackJobs       int     `json:"callbackJobs"`
	CompletionRate     float64 `json:"completionRate"`
	FirstTimeFixRate   float64 `json:"firstTimeFixRate"`
	AvgJobDurationMin  float64 `json:"avgJobDurationMin"`
	AvgJobRevenueCents int64   `json:"avgJobRevenueCents"`
	JobRevenueP25Cents int64   `json:"jobRevenueP25Cents"`
	JobRevenueP50Cents int64   `json:"jobRevenueP50Cents"`
	JobRevenueP75Cents int64   `json:"jobRevenueP75Cents"`
	JobRevenueP90Cents int64   `json:"jobRevenueP90Cents"`
	TopJobType         string  `json:"topJobType"`

	// Revenue and billing
	TotalRevenueCents       int64  `json:"totalRevenueCents"`
	InvoicesCreated         int    `json:"invoicesCreated"`
	InvoicesPaid            int    `json:"invoicesPaid"`
	InvoicesOverdue         int    `json:"invoicesOverdue"`
	InvoicedAmountCents     int64  `json:"invoicedAmountCents"`
	CollectedAmountCents    int64  `json:"collectedAmountCents"`
	AvgInvoiceValueCents    int64  `json:"avgInvoiceValueCents"`
	OutstandingBalanceCents int64  `json:"outstandingBalanceCents"`
	PaymentsReceived        int    `json:"paymentsReceived"`
	TopPaymentMethod        string `json:"topPaymentMethod"`

	// Estimates
	EstimatesCreated   int     `json:"estimatesCreated"`
	EstimatesWon       int     `json:"estimatesWon"`
	EstimateWinRate    float64 `json:"estimateWinRate"`
	EstimateValueCents int64   `json:"estimateValueCents"`

	// Appointments
	AppointmentsScheduled int     `json:"appointmentsScheduled"`
	AppointmentsCompleted int     `json:"appointmentsCompleted"`
	AppointmentsCancelled int     `json:"appointmentsCancelled"`
	OnTimeArrivalRate     float64 `json:"onTimeArrivalRate"`
	AvgDriveTimeMin       float64 `json:"avgDriveTimeMin"`

	// Communications
	CommunicationsTotal int     `json:"communicationsTotal"`
	EmailCount          int     `json:"emailCount"`
	SMSCount            int     `json:"smsCount"`
	CallCount           int     `json:"callCount"`
	InboundCount        int     `json:"inboundCount"`
	OutboundCount       int     `json:"outboundCount"`
	AvgResponseTimeMin  float64 `json:"avgResponseTimeMin"`

	// Customers and contracts
	NewCustomers       int   `json:"newCustomers"`
	ActiveCustomers    int   `json:"activeCustomers"`
	ActiveContracts    int   `json:"activeContracts"`
	ContractValueCents int64 `json:"contractValueCents"`

	// Labor and capacity
	TotalHours          float64 `json:"totalHours"`
	BillableHours       float64 `json:"billableHours"`
	UtilizationRate     float64 `json:"utilizationRate"`
	ActiveTechnicians   int     `json:"activeTechnicians"`
	RevenuePerTechCents int64   `json:"revenuePerTechCents"`

	// Rolling statistics, written by the trend calculator after the
	// aggregation pass. The snapshot upsert never touches these columns.
	RevenueMA7Cents         int64   `json:"revenueMa7Cents"`
	RevenueMA30Cents        int64   `json:"revenueMa30Cents"`
	RevenueMA90Cents        int64   `json:"revenueMa90Cents"`
	RevenueTrend            string  `json:"revenueTrend"`
	RevenueChangeDoD        float64 `json:"revenueChangeDod"`
	RevenueChangeWoW        float64 `json:"revenueChangeWow"`
	RevenueForecast7dCents  int64   `json:"revenueForecast7dCents"`
	RevenueForecast30dCents int64   `json:"revenueForecast30dCents"`
	JobsCompletedMA7        float64 `json:"jobsCompletedMa7"`
	JobsCompletedMA30       float64 `json:"jobsCompletedMa30"`
	JobsCompletedMA90       float64 `json:"jobsCompletedMa90"`
	JobsCompletedTrend      string  `json:"jobsCompletedTrend"`
	NewCustomersMA7         float64 `json:"newCustomersMa7"`
	NewCustomersMA30        float64 `json:"newCustomersMa30"`
	NewCustomersMA90        float64 `json:"newCustomersMa90"`
	NewCustomersTrend       string  `json:"newCustomersTrend"`
}

// Job statuses mirrored from the operational schema.
const (
	JobStatusCompleted = "completed"
	JobStatusCancelled = "cancelled"
)

// JobRow carries the job fields the aggregator reads.
type JobRow struct {
	Status         string
	JobType        string
	RevenueCents   int64
	Emergency      bool
	Callback       bool
	CreatedAt      time.Time
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	ActualStart    *time.Time
	ActualEnd      *time.Time
}

// AppointmentRow carries appointment timing and drive data.
type AppointmentRow struct {
	Status         string
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	ActualStart    *time.Time
	ActualEnd      *time.Time
	DriveTimeMin   float64
	DriveMiles     float64
}

// InvoiceRow carries billing funnel fields.
type InvoiceRow struct {
	Status     string
	TotalCents int64
	CreatedAt  time.Time
	DueDate    *time.Time
	PaidAt     *time.Time
}

// PaymentRow carries a settled payment.
type PaymentRow struct {
	AmountCents int64
	Method      string
	Status      string
}

// EstimateRow carries estimate funnel fields.
type EstimateRow struct {
	AmountCents int64
	Status      string
	CreatedAt   time.Time
	ConvertedAt *time.Time
}

// CommunicationRow carries engagement fields.
type CommunicationRow struct {
	Type            string
	Direction       string
	ResponseTimeMin *float64
}

// TimeEntryRow carries labor utilization fields.
type TimeEntryRow struct {
	DurationMin float64
	Billable    bool
}

// ContractStats is a point-in-time read of active recurring revenue.
type ContractStats struct {
	ActiveCount     int
	TotalValueCents int64
}
