package pricebook

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides PostgreSQL access for pricebook scoring.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a pricebook store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// LineItemsForWindow returns line items of non-deleted invoices issued in
// [from, to], joined to the linked catalog entry when present.
func (s *Store) LineItemsForWindow(ctx context.Context, companyID int64, from, to time.Time) ([]LineItemRow, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("pricebook: store not initialised")
	}
	const query = `
		SELECT li.price_book_item_id, COALESCE(li.item_type, ''),
		       COALESCE(li.unit_price_cents, 0), COALESCE(li.unit_cost_cents, 0),
		       COALESCE(li.quantity, 0), i.job_id,
		       p.list_price_cents, p.target_margin_percent
		FROM invoice_items li
		JOIN invoices i ON i.id = li.invoice_id
		LEFT JOIN price_book_items p ON p.id = li.price_book_item_id
		WHERE i.company_id = $1 AND i.deleted_at IS NULL
		  AND i.created_at >= $2 AND i.created_at <= $3`
	rows, err := s.pool.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("pricebook: query line items: %w", err)
	}
	defer rows.Close()

	out := make([]LineItemRow, 0)
	for rows.Next() {
		var li LineItemRow
		if err := rows.Scan(&li.PriceBookItemID, &li.ItemType, &li.UnitPriceCents, &li.UnitCostCents,
			&li.Quantity, &li.JobID, &li.ListPriceCents, &li.TargetMarginPct); err != nil {
			return nil, fmt.Errorf("pricebook: scan line item: %w", err)
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// Upsert writes a performance record keyed by
// (company_id, period_start, period_end, item_key). item_key folds the
// nullable catalog id and the custom bucket into one conflict target.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("pricebook: store not initialised")
	}
	const query = `
		INSERT INTO pricebook_performance (
			company_id, period_start, period_end, price_book_item_id, item_key, item_type,
			times_sold, total_quantity, job_count,
			min_sold_price, avg_sold_price, max_sold_price, discount_rate,
			total_revenue, total_cost, total_profit,
			gross_margin_percent, markup_percent, target_margin_percent,
			margin_vs_target, margin_alert, demand_score, price_recommendation,
			updated_at
		) VALUES (
			@company_id, @period_start, @period_end, @price_book_item_id, @item_key, @item_type,
			@times_sold, @total_quantity, @job_count,
			@min_sold_price, @avg_sold_price, @max_sold_price, @discount_rate,
			@total_revenue, @total_cost, @total_profit,
			@gross_margin_percent, @markup_percent, @target_margin_percent,
			@margin_vs_target, @margin_alert, @demand_score, @price_recommendation,
			NOW()
		)
		ON CONFLICT (company_id, period_start, period_end, item_key) DO UPDATE SET
			price_book_item_id = EXCLUDED.price_book_item_id,
			item_type = EXCLUDED.item_type,
			times_sold = EXCLUDED.times_sold,
			total_quantity = EXCLUDED.total_quantity,
			job_count = EXCLUDED.job_count,
			min_sold_price = EXCLUDED.min_sold_price,
			avg_sold_price = EXCLUDED.avg_sold_price,
			max_sold_price = EXCLUDED.max_sold_price,
			discount_rate = EXCLUDED.discount_rate,
			total_revenue = EXCLUDED.total_revenue,
			total_cost = EXCLUDED.total_cost,
			total_profit = EXCLUDED.total_profit,
			gross_margin_percent = EXCLUDED.gross_margin_percent,
			markup_percent = EXCLUDED.markup_percent,
			target_margin_percent = EXCLUDED.target_margin_percent,
			margin_vs_target = EXCLUDED.margin_vs_target,
			margin_alert = EXCLUDED.margin_alert,
			demand_score = EXCLUDED.demand_score,
			price_recommendation = EXCLUDED.price_recommendation,
			updated_at = NOW()`

	args := pgx.NamedArgs{
		"company_id":            rec.CompanyID,
		"period_start":          rec.PeriodStart,
		"period_end":            rec.PeriodEnd,
		"price_book_item_id":    rec.PriceBookItemID,
		"item_key":              rec.ItemKey,
		"item_type":             rec.ItemType,
		"times_sold":            rec.TimesSold,
		"total_quantity":        rec.TotalQuantity,
		"job_count":             rec.JobCount,
		"min_sold_price":        rec.MinSoldPrice,
		"avg_sold_price":        rec.AvgSoldPrice,
		"max_sold_price":        rec.MaxSoldPrice,
		"discount_rate":         rec.DiscountRate,
		"total_revenue":         rec.TotalRevenue,
		"total_cost":            rec.TotalCost,
		"total_profit":          rec.TotalProfit,
		"gross_margin_percent":  rec.GrossMarginPct,
		"markup_percent":        rec.MarkupPct,
		"target_margin_percent": rec.TargetMarginPct,
		"margin_vs_target":      rec.MarginVsTarget,
		"margin_alert":          rec.MarginAlert,
		"demand_score":          rec.DemandScore,
		"price_recommendation":  rec.PriceRecommendation,
	}

	if _, err := s.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("pricebook: upsert record: %w", err)
	}
	return nil
}
