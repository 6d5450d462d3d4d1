package pricebook

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"
)

// Repository exposes the reads and the upsert the scorer relies on.
type Repository interface {
	LineItemsForWindow(ctx context.Context, companyID int64, from, to time.Time) ([]LineItemRow, error)
	Upsert(ctx context.Context, rec *Record) error
}

// Scorer computes per-item performance over the trailing 30 days.
type Scorer struct {
	repo   Repository
	logger *slog.Logger
}

// NewScorer constructs a pricebook scorer.
func NewScorer(repo Repository, logger *slog.Logger) *Scorer {
	return &Scorer{repo: repo, logger: logger}
}

const windowDays = 30

// marginAlertThreshold: actual margin more than this many points under the
// target flags the item and drives an "increase" recommendation.
const marginAlertThreshold = 10.0

// ScoreWindow groups the trailing 30 days of sold line items and upserts one
// record per distinct item (or custom bucket). Returns how many records were
// written.
func (s *Scorer) ScoreWindow(ctx context.Context, companyID int64, end time.Time) (int, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("pricebook: scorer not configured")
	}
	periodEnd := end.UTC().Truncate(24 * time.Hour)
	periodStart := periodEnd.AddDate(0, 0, -windowDays)

	items, err := s.repo.LineItemsForWindow(ctx, companyID, periodStart, periodEnd)
	if err != nil {
		return 0, fmt.Errorf("pricebook: load line items: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	records := Compute(companyID, periodStart, periodEnd, items)
	for _, rec := range records {
		if err := s.repo.Upsert(ctx, rec); err != nil {
			return 0, err
		}
	}
	if s.logger != nil {
		s.logger.Info("pricebook performance written",
			slog.Int64("company_id", companyID),
			slog.String("period_end", periodEnd.Format("2006-01-02")),
			slog.Int("items", len(records)))
	}
	return len(records), nil
}

// Compute groups line items and derives one record per group. Line items not
// linked to a catalog entry aggregate into a per-type custom bucket instead
// of being dropped.
func Compute(companyID int64, periodStart, periodEnd time.Time, items []LineItemRow) []*Record {
	groups := make(map[string][]LineItemRow)
	for _, item := range items {
		groups[groupKey(item)] = append(groups[groupKey(item)], item)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]*Record, 0, len(groups))
	for _, key := range keys {
		records = append(records, computeGroup(companyID, periodStart, periodEnd, key, groups[key]))
	}
	return records
}

func groupKey(item LineItemRow) string {
	if item.PriceBookItemID != nil {
		return strconv.FormatInt(*item.PriceBookItemID, 10)
	}
	itemType := item.ItemType
	if itemType == "" {
		itemType = "other"
	}
	return "custom_" + itemType
}

func computeGroup(companyID int64, periodStart, periodEnd time.Time, key string, items []LineItemRow) *Record {
	rec := &Record{
		CompanyID:       companyID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		ItemKey:         key,
		ItemType:        items[0].ItemType,
		PriceBookItemID: items[0].PriceBookItemID,
		TargetMarginPct: DefaultTargetMarginPct,
	}

	var (
		revenueCents  int64
		costCents     int64
		priceSumCents int64
		minPriceCents = items[0].UnitPriceCents
		maxPriceCents = items[0].UnitPriceCents
		discountSum   float64
		discountCount int
	)
	jobs := make(map[int64]struct{})

	for _, item := range items {
		rec.TimesSold++
		rec.TotalQuantity += item.Quantity
		if item.JobID != nil {
			jobs[*item.JobID] = struct{}{}
		}

		priceSumCents += item.UnitPriceCents
		if item.UnitPriceCents < minPriceCents {
			minPriceCents = item.UnitPriceCents
		}
		if item.UnitPriceCents > maxPriceCents {
			maxPriceCents = item.UnitPriceCents
		}

		revenueCents += int64(math.Round(float64(item.UnitPriceCents) * item.Quantity))
		costCents += int64(math.Round(float64(item.UnitCostCents) * item.Quantity))

		if item.ListPriceCents != nil && *item.ListPriceCents > 0 {
			discount := float64(*item.ListPriceCents-item.UnitPriceCents) / float64(*item.ListPriceCents) * 100
			if discount < 0 {
				discount = 0
			}
			discountSum += discount
			discountCount++
		}
		if item.TargetMarginPct != nil && *item.TargetMarginPct > 0 {
			rec.TargetMarginPct = *item.TargetMarginPct
		}
	}
	rec.JobCount = len(jobs)

	rec.MinSoldPrice = toCurrency(minPriceCents)
	rec.MaxSoldPrice = toCurrency(maxPriceCents)
	rec.AvgSoldPrice = round2(float64(priceSumCents) / float64(rec.TimesSold) / 100)
	if discountCount > 0 {
		rec.DiscountRate = round2(discountSum / float64(discountCount))
	}

	profitCents := revenueCents - costCents
	rec.TotalRevenue = toCurrency(revenueCents)
	rec.TotalCost = toCurrency(costCents)
	rec.TotalProfit = toCurrency(profitCents)

	if revenueCents != 0 {
		rec.GrossMarginPct = round2(float64(profitCents) / float64(revenueCents) * 100)
	}
	if costCents != 0 {
		rec.MarkupPct = round2(float64(profitCents) / float64(costCents) * 100)
	}

	rec.MarginVsTarget = round2(rec.GrossMarginPct - rec.TargetMarginPct)
	rec.MarginAlert = rec.MarginVsTarget < -marginAlertThreshold

	rec.DemandScore = int(math.Round(float64(rec.TimesSold) / float64(windowDays) * 100))
	if rec.DemandScore > 100 {
		rec.DemandScore = 100
	}

	rec.PriceRecommendation = RecommendMaintain
	if rec.MarginAlert {
		rec.PriceRecommendation = RecommendIncrease
	}

	return rec
}

func toCurrency(cents int64) float64 {
	return round2(float64(cents) / 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
