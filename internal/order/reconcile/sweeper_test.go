package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Order, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrders) TransitionStatus(ctx context.Context, orderID, status string, from ...string) (bool, error) {
	args := m.Called(ctx, orderID, status, from)
	return args.Bool(0), args.Error(1)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, name, owner, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, name, owner string) error {
	args := m.Called(ctx, name, owner)
	return args.Error(0)
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestSweeper(orders *MockOrders, events *MockEvents, lock Locker) *Sweeper {
	s := NewSweeper(orders, events, lock, 30*time.Minute, logger.NewWithWriter(io.Discard))
	s.Now = func() time.Time { return now }
	return s
}

func TestSweep_CancelsStaleOrders(t *testing.T) {
	orders := new(MockOrders)
	events := new(MockEvents)
	pending := []string{models.OrderStatusPending}

	stale := []*models.Order{
		{ID: "o-1", Status: models.OrderStatusPending},
		{ID: "o-2", Status: models.OrderStatusPending},
		{ID: "o-3", Status: models.OrderStatusPending},
	}
	orders.On("ListStalePending", mock.Anything, now.Add(-30*time.Minute), defaultBatchSize).Return(stale, nil)
	orders.On("TransitionStatus", mock.Anything, "o-1", models.OrderStatusCancelled, pending).Return(true, nil)
	// o-2 was paid by a webhook between the list and the update.
	orders.On("TransitionStatus", mock.Anything, "o-2", models.OrderStatusCancelled, pending).Return(false, nil)
	orders.On("TransitionStatus", mock.Anything, "o-3", models.OrderStatusCancelled, pending).Return(false, errors.New("db down"))
	events.On("PublishOrderCancelled", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		return o.ID == "o-1" && o.Status == models.OrderStatusCancelled
	})).Return(nil)

	n, err := newTestSweeper(orders, events, nil).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	orders.AssertExpectations(t)
	events.AssertNumberOfCalls(t, "PublishOrderCancelled", 1)
}

func TestSweep_PublishFailureDoesNotFail(t *testing.T) {
	orders := new(MockOrders)
	events := new(MockEvents)

	orders.On("ListStalePending", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Order{{ID: "o-1"}}, nil)
	orders.On("TransitionStatus", mock.Anything, "o-1", models.OrderStatusCancelled, mock.Anything).Return(true, nil)
	events.On("PublishOrderCancelled", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	n, err := newTestSweeper(orders, events, nil).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweep_ListError(t *testing.T) {
	orders := new(MockOrders)
	orders.On("ListStalePending", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := newTestSweeper(orders, new(MockEvents), nil).Sweep(context.Background())

	assert.Error(t, err)
}

func TestSweep_SkipsWhenLockHeld(t *testing.T) {
	orders := new(MockOrders)
	lock := new(MockLocker)
	lock.On("Acquire", mock.Anything, lockName, mock.Anything, 5*time.Minute).Return(false, nil)

	n, err := newTestSweeper(orders, new(MockEvents), lock).Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	orders.AssertNotCalled(t, "ListStalePending", mock.Anything, mock.Anything, mock.Anything)
	lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweep_ReleasesLock(t *testing.T) {
	orders := new(MockOrders)
	lock := new(MockLocker)
	s := newTestSweeper(orders, new(MockEvents), lock)

	lock.On("Acquire", mock.Anything, lockName, s.owner, 5*time.Minute).Return(true, nil)
	lock.On("Release", mock.Anything, lockName, s.owner).Return(nil)
	orders.On("ListStalePending", mock.Anything, mock.Anything, mock.Anything).Return([]*models.Order{}, nil)

	n, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	lock.AssertExpectations(t)
}

func TestSchedule_RunsSweep(t *testing.T) {
	orders := new(MockOrders)
	ran := make(chan struct{}, 1)
	orders.On("ListStalePending", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return([]*models.Order{}, nil)

	scheduler, err := gocron.NewScheduler()
	require.NoError(t, err)
	defer scheduler.Shutdown()

	s := newTestSweeper(orders, new(MockEvents), nil)
	_, err = s.Schedule(context.Background(), scheduler, 20*time.Millisecond)
	require.NoError(t, err)
	scheduler.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep was not scheduled")
	}
}
