package pricebook

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
	items []LineItemRow

	upserted []*Record

	// Error injection
	itemsError  error
	upsertError error
}

func (m *mockRepository) LineItemsForWindow(ctx context.Context, companyID int64, from, to time.Time) ([]LineItemRow, error) {
	if m.itemsError != nil {
		return nil, m.itemsError
	}
	return m.items, nil
}

func (m *mockRepository) Upsert(ctx context.Context, rec *Record) error {
	if m.upsertError != nil {
		return m.upsertError
	}
	m.upserted = append(m.upserted, rec)
	return nil
}

var periodEnd = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func ip(v int64) *int64 { return &v }

func fp(v float64) *float64 { return &v }

// ============================================================================
// TESTS
// ============================================================================

func TestScoreWindowEmptyWindow(t *testing.T) {
	repo := &mockRepository{}
	scorer := NewScorer(repo, nil)

	written, err := scorer.ScoreWindow(context.Background(), 7, periodEnd)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Empty(t, repo.upserted)
}

func TestScoreWindowGroupsByCatalogItem(t *testing.T) {
	repo := &mockRepository{
		items: []LineItemRow{
			{PriceBookItemID: ip(11), ItemType: "service", UnitPriceCents: 10000, UnitCostCents: 6000, Quantity: 1, JobID: ip(1)},
			{PriceBookItemID: ip(11), ItemType: "service", UnitPriceCents: 12000, UnitCostCents: 6000, Quantity: 2, JobID: ip(2)},
			{PriceBookItemID: ip(22), ItemType: "material", UnitPriceCents: 5000, UnitCostCents: 2000, Quantity: 1, JobID: ip(1)},
		},
	}
	scorer := NewScorer(repo, nil)

	written, err := scorer.ScoreWindow(context.Background(), 7, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	require.Len(t, repo.upserted, 2)

	// Sorted group keys: "11" before "22".
	first := repo.upserted[0]
	assert.Equal(t, "11", first.ItemKey)
	assert.Equal(t, 2, first.TimesSold)
	assert.InDelta(t, 3.0, first.TotalQuantity, 0.001)
	assert.Equal(t, 2, first.JobCount)
	assert.InDelta(t, 100.0, first.MinSoldPrice, 0.001)
	assert.InDelta(t, 110.0, first.AvgSoldPrice, 0.001)
	assert.InDelta(t, 120.0, first.MaxSoldPrice, 0.001)
	// Revenue 100 + 240, cost 60 + 120.
	assert.InDelta(t, 340.0, first.TotalRevenue, 0.001)
	assert.InDelta(t, 180.0, first.TotalCost, 0.001)
	assert.InDelta(t, 160.0, first.TotalProfit, 0.001)
	assert.InDelta(t, 47.06, first.GrossMarginPct, 0.001)
}

func TestComputeMarginAlertDrivesIncrease(t *testing.T) {
	// Margin 15% against the default 30% target: 15 points under, alert.
	items := []LineItemRow{
		{PriceBookItemID: ip(11), ItemType: "service", UnitPriceCents: 10000, UnitCostCents: 8500, Quantity: 1},
	}

	records := Compute(7, periodEnd.AddDate(0, 0, -30), periodEnd, items)
	require.Len(t, records, 1)

	rec := records[0]
	assert.InDelta(t, 15.0, rec.GrossMarginPct, 0.001)
	assert.InDelta(t, -15.0, rec.MarginVsTarget, 0.001)
	assert.True(t, rec.MarginAlert)
	assert.Equal(t, RecommendIncrease, rec.PriceRecommendation)
}

func TestComputeHealthyMarginMaintains(t *testing.T) {
	items := []LineItemRow{
		{PriceBookItemID: ip(11), ItemType: "service", UnitPriceCents: 10000, UnitCostCents: 5000, Quantity: 1},
	}

	records := Compute(7, periodEnd.AddDate(0, 0, -30), periodEnd, items)
	rec := records[0]
	assert.InDelta(t, 50.0, rec.GrossMarginPct, 0.001)
	assert.False(t, rec.MarginAlert)
	assert.Equal(t, RecommendMaintain, rec.PriceRecommendation)
}

func TestComputeUsesCatalogTargetMargin(t *testing.T) {
	items := []LineItemRow{
		{PriceBookItemID: ip(11), ItemType: "service", UnitPriceCents: 10000, UnitCostCents: 5000, Quantity: 1, TargetMarginPct: fp(65)},
	}

	rec := Compute(7, periodEnd.AddDate(0, 0, -30), periodEnd, items)[0]
	assert.InDelta(t, 65.0, rec.TargetMarginPct, 0.001)
	// 50% margin against a 65% target is 15 points under.
	assert.True(t, rec.MarginAlert)
}

func TestComputeCustomItemsBucketByType(t *testing.T) {
	items := []LineItemRow{
		{ItemType: "material", UnitPriceCents: 2000, Quantity: 1},
		{ItemType: "material", UnitPriceCents: 3000, Quantity: 1},
		{ItemType: "", UnitPriceCents: 1000, Quantity: 1},
	}

	records := Compute(7, periodEnd.AddDate(0, 0, -30), periodEnd, items)
	require.Len(t, records, 2)
	assert.Equal(t, "custom_material", records[0].ItemKey)
	assert.Equal(t, 2, records[0].TimesSold)
	assert.Equal(t, "custom_other", records[1].ItemKey)
}

func TestComputeDiscountRate(t *testing.T) {
	items := []LineItemRow{
		// Sold 20% under list.
		{PriceBookItemID: ip(11), UnitPriceCents: 8000, Quantity: 1, ListPriceCents: ip(10000)},
		// Sold above list clamps to zero discount.
		{PriceBookItemID: ip(11), UnitPriceCents: 11000, Quantity: 1, ListPriceCents: ip(10000)},
	}

	rec := Compute(7, periodEnd.AddDate(0, 0, -30), periodEnd, items)[0]
	assert.InDelta(t, 10.0, rec.DiscountRate, 0.001)
}

func TestComputeDemandScoreCaps(t *testing.T) {
	items := make([]LineItemRow, 45)
	for i := range items {
		items[i] = LineItemRow{PriceBookItemID: ip(11), UnitPriceCents: 1000, Quantity: 1}
	}

	rec := Compute(7, periodEnd.AddDate(0, 0, -30), periodEnd, items)[0]
	assert.Equal(t, 100, rec.DemandScore)
}

func TestScoreWindowUpsertFailure(t *testing.T) {
	repo := &mockRepository{
		items:       []LineItemRow{{PriceBookItemID: ip(11), UnitPriceCents: 1000, Quantity: 1}},
		upsertError: errors.New("constraint violation"),
	}
	scorer := NewScorer(repo, nil)

	_, err := scorer.ScoreWindow(context.Background(), 7, periodEnd)
	require.Error(t, err)
}
