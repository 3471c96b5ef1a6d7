package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pharmazine/internal/dto"
	"pharmazine/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// AnalyticsService runs the offline ABC pass: rank products by revenue over a
// lookback window and cut the ranking at the Pareto thresholds. Advisory only
// — no write-back into the ledger, idempotent for unchanged input.
type AnalyticsService interface {
	Classify(ctx context.Context, days int) (*dto.ABCResponse, error)
	// Refresh recomputes the classification and replaces the cached copy.
	Refresh(ctx context.Context, days int) error
}

// ABCThresholds are cumulative revenue share cutoffs. Classic Pareto defaults
// are A at 0.80 and B at 0.95 (the last 5% is C).
type ABCThresholds struct {
	ClassA float64
	ClassB float64
}

type analyticsService struct {
	sales      repository.SaleRepository
	rdb        *redis.Client
	thresholds ABCThresholds
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewAnalyticsService(sales repository.SaleRepository, rdb *redis.Client, thresholds ABCThresholds) AnalyticsService {
	if thresholds.ClassA <= 0 || thresholds.ClassB <= thresholds.ClassA {
		thresholds = ABCThresholds{ClassA: 0.80, ClassB: 0.95}
	}
	return &analyticsService{
		sales:      sales,
		rdb:        rdb,
		thresholds: thresholds,
		cacheTTL:   10 * time.Minute,
		now:        time.Now,
	}
}

func abcCacheKey(days int) string { return fmt.Sprintf("abc:classification:%dd", days) }

// Classify serves from the Redis cache when possible and computes otherwise.
func (s *analyticsService) Classify(ctx context.Context, days int) (*dto.ABCResponse, error) {
	if days <= 0 {
		days = 30
	}
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, abcCacheKey(days)).Bytes(); err == nil {
			var cached dto.ABCResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}
	resp, err := s.compute(ctx, days)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, days, resp)
	return resp, nil
}

func (s *analyticsService) Refresh(ctx context.Context, days int) error {
	if days <= 0 {
		days = 30
	}
	resp, err := s.compute(ctx, days)
	if err != nil {
		return err
	}
	s.cache(ctx, days, resp)
	return nil
}

func (s *analyticsService) cache(ctx context.Context, days int, resp *dto.ABCResponse) {
	if s.rdb == nil {
		return
	}
	if raw, err := json.Marshal(resp); err == nil {
		_ = s.rdb.Set(ctx, abcCacheKey(days), raw, s.cacheTTL).Err()
	}
}

func (s *analyticsService) compute(ctx context.Context, days int) (*dto.ABCResponse, error) {
	since := s.now().AddDate(0, 0, -days)
	rows, err := s.sales.RevenueByProduct(ctx, since)
	if err != nil {
		return nil, err
	}

	// Descending revenue; ties broken by product ID so the ranking — and the
	// classification — is identical for identical input.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].TotalRevenue.Equal(rows[j].TotalRevenue) {
			return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
		}
		return rows[i].ProductID.String() < rows[j].ProductID.String()
	})

	totalRevenue := decimal.Zero
	for _, r := range rows {
		totalRevenue = totalRevenue.Add(r.TotalRevenue)
	}

	daysDec := decimal.NewFromInt(int64(days))
	cutoffA := decimal.NewFromFloat(s.thresholds.ClassA)
	cutoffB := decimal.NewFromFloat(s.thresholds.ClassB)

	entries := make([]dto.ABCEntry, 0, len(rows))
	cumulative := decimal.Zero
	for _, r := range rows {
		share := decimal.Zero
		if totalRevenue.IsPositive() {
			share = r.TotalRevenue.Div(totalRevenue)
		}

		// A product is classified by where its share begins in the cumulative
		// walk: starting inside the top 80% makes it A even when its own share
		// crosses the cutoff.
		var class string
		switch {
		case cumulative.LessThan(cutoffA):
			class = "A"
		case cumulative.LessThan(cutoffB):
			class = "B"
		default:
			class = "C"
		}
		cumulative = cumulative.Add(share)

		avgDaily := decimal.NewFromInt(int64(r.TotalSold)).Div(daysDec)
		var daysOfSupply *int
		if avgDaily.IsPositive() {
			d := int(decimal.NewFromInt(int64(r.CurrentStock)).Div(avgDaily).IntPart())
			daysOfSupply = &d
		}

		entries = append(entries, dto.ABCEntry{
			ProductID:       r.ProductID.String(),
			SKU:             r.SKU,
			ProductName:     r.Name,
			Class:           class,
			TotalSold:       r.TotalSold,
			TotalRevenue:    r.TotalRevenue,
			RevenueShare:    share.Round(4),
			CumulativeShare: cumulative.Round(4),
			AvgDailySales:   avgDaily.Round(2),
			CurrentStock:    r.CurrentStock,
			DaysOfSupply:    daysOfSupply,
		})
	}

	return &dto.ABCResponse{
		Days:         days,
		TotalRevenue: totalRevenue,
		Entries:      entries,
	}, nil
}
