// Package pricebook scores catalog item performance over a rolling window.
package pricebook

import "time"

// LineItemRow is one invoice line item joined to its invoice and, when the
// item came from the catalog, the price book entry.
type LineItemRow struct {
	PriceBookItemID *int64
	ItemType        string
	UnitPriceCents  int64
	UnitCostCents   int64
	Quantity        float64
	JobID           *int64
	ListPriceCents  *int64
	TargetMarginPct *float64
}

// Record is the derived performance row for one item (or custom bucket) over
// one rolling window. Money fields are decimal currency units, not cents,
// matching the rest of the reporting layer this table feeds.
type Record struct {
	CompanyID       int64
	PeriodStart     time.Time
	PeriodEnd       time.Time
	PriceBookItemID *int64
	ItemKey         string
	ItemType        string

	TimesSold     int
	TotalQuantity float64
	JobCount      int

	MinSoldPrice float64
	AvgSoldPrice float64
	MaxSoldPrice float64
	DiscountRate float64

	TotalRevenue float64
	TotalCost    float64
	TotalProfit  float64

	GrossMarginPct  float64
	MarkupPct       float64
	TargetMarginPct float64
	MarginVsTarget  float64
	MarginAlert     bool

	DemandScore         int
	PriceRecommendation string
}

// Price recommendations.
const (
	RecommendIncrease = "increase"
	RecommendMaintain = "maintain"
)

// DefaultTargetMarginPct applies when a catalog item has no configured target.
const DefaultTargetMarginPct = 30.0
