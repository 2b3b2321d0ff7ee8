package reconcile

import (
	"context"
	"fmt"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const (
	lockName         = "reconcile_sweep"
	defaultBatchSize = 100
)

type OrderStore interface {
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Order, error)
	TransitionStatus(ctx context.Context, orderID, status string, from ...string) (bool, error)
}

type EventPublisher interface {
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

type Locker interface {
	Acquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

// Sweeper cancels pending orders that never got a payment session, which is
// what a crash between order creation and the provider call leaves behind.
type Sweeper struct {
	Orders     OrderStore
	Events     EventPublisher
	Lock       Locker // optional; nil runs without cross-replica locking
	StaleAfter time.Duration
	BatchSize  int
	Logger     *logger.Logger
	// Now defaults to time.Now and is replaced in tests.
	Now func() time.Time

	owner string
}

func NewSweeper(orders OrderStore, events EventPublisher, lock Locker, staleAfter time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		Orders:     orders,
		Events:     events,
		Lock:       lock,
		StaleAfter: staleAfter,
		BatchSize:  defaultBatchSize,
		Logger:     log,
		Now:        time.Now,
		owner:      uuid.NewString(),
	}
}

// Sweep runs one pass and returns how many orders it cancelled.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if s.Lock != nil {
		ok, err := s.Lock.Acquire(ctx, lockName, s.owner, s.lockTTL())
		if err != nil {
			return 0, err
		}
		if !ok {
			s.Logger.Debug("RECONCILE", "Another replica holds the sweep lock, skipping")
			return 0, nil
		}
		defer func() {
			if err := s.Lock.Release(context.WithoutCancel(ctx), lockName, s.owner); err != nil {
				s.Logger.Warn("RECONCILE", fmt.Sprintf("release sweep lock: %v", err))
			}
		}()
	}

	cutoff := s.now().Add(-s.StaleAfter)
	orders, err := s.Orders.ListStalePending(ctx, cutoff, s.batchSize())
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, order := range orders {
		moved, err := s.Orders.TransitionStatus(ctx, order.ID, models.OrderStatusCancelled, models.OrderStatusPending)
		if err != nil {
			s.Logger.Error("RECONCILE", fmt.Sprintf("cancel order %s: %v", order.ID, err))
			continue
		}
		if !moved {
			continue
		}
		cancelled++
		order.Status = models.OrderStatusCancelled
		s.Logger.LogOrder("CANCELLED", order.ID, "stale pending order without payment session")

		if err := s.Events.PublishOrderCancelled(ctx, order); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish order.cancelled for %s: %v", order.ID, err))
		}
	}

	if cancelled > 0 {
		s.Logger.Info("RECONCILE", fmt.Sprintf("Cancelled %d stale orders created before %s", cancelled, cutoff.Format(time.RFC3339)))
	}
	return cancelled, nil
}

// Schedule registers the sweep on scheduler every interval. Runs never overlap.
func (s *Sweeper) Schedule(ctx context.Context, scheduler gocron.Scheduler, interval time.Duration) (gocron.Job, error) {
	return scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := s.Sweep(ctx); err != nil {
				s.Logger.Error("RECONCILE", fmt.Sprintf("sweep failed: %v", err))
			}
		}),
		gocron.WithName("reconcile-stale-orders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}

func (s *Sweeper) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Sweeper) batchSize() int {
	if s.BatchSize <= 0 {
		return defaultBatchSize
	}
	return s.BatchSize
}

func (s *Sweeper) lockTTL() time.Duration {
	if s.StaleAfter > 0 && s.StaleAfter < 5*time.Minute {
		return s.StaleAfter
	}
	return 5 * time.Minute
}
