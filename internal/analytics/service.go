package analytics

import (
	"context"
	"fmt"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

// All four aggregates come from one statement so they describe the same snapshot.
const adminStatsSQL = `SELECT
	(SELECT COUNT(*) FROM events) AS events_count,
	(SELECT COUNT(*) FROM orders WHERE status = ?) AS paid_orders,
	(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = ?) AS revenue,
	(SELECT COUNT(*) FROM orders WHERE status = ? AND created_at >= ?) AS paid_orders_this_month`

type Service struct {
	db     *bun.DB
	cache  *StatsCache
	logger *logger.Logger
	// Now defaults to time.Now and is replaced in tests.
	Now func() time.Time
}

func NewService(db *bun.DB, cache *StatsCache, log *logger.Logger) *Service {
	return &Service{db: db, cache: cache, logger: log, Now: time.Now}
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AdminStats returns the dashboard aggregates, served from the cache when one
// is configured and warm. Cache failures fall through to the database.
func (s *Service) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("ANALYTICS", fmt.Sprintf("stats cache read failed: %v", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.queryStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats); err != nil {
			s.logger.Warn("ANALYTICS", fmt.Sprintf("stats cache write failed: %v", err))
		}
	}
	return stats, nil
}

func (s *Service) queryStats(ctx context.Context) (*models.AdminStats, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	stats := new(models.AdminStats)
	paid := models.OrderStatusPaid
	err := s.db.NewRaw(adminStatsSQL, paid, paid, paid, MonthStart(now())).Scan(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to compute admin stats: %w", err)
	}
	return stats, nil
}

// HandleOrderEvent drops cached stats once an order changes the paid totals.
func (s *Service) HandleOrderEvent(ctx context.Context, event models.OrderEvent) error {
	if s.cache == nil || event.Status != models.OrderStatusPaid {
		return nil
	}
	s.logger.Debug("ANALYTICS", fmt.Sprintf("Invalidating stats cache after order %s", event.OrderID))
	return s.cache.Invalidate(ctx)
}
