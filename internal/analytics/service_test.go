package analytics_test

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"ms-storefront/internal/analytics"
	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/database"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	orderdb "ms-storefront/internal/order/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	bun    *bun.DB
	orders *orderdb.DB
}

func setupTestDB(t *testing.T) fixture {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, database.CreateSchema(context.Background(), bunDB))

	return fixture{bun: bunDB, orders: &orderdb.DB{Bun: bunDB}}
}

func (f fixture) addEvent(t *testing.T, title string) {
	_, err := catalogdb.New(f.bun).InsertEvent(context.Background(), catalogdb.SeedEvent{
		Title:   title,
		City:    "Kazan",
		Date:    now.Add(72 * time.Hour),
		Tickets: map[string]int64{"standard": 1000},
	})
	require.NoError(t, err)
}

func (f fixture) addOrder(t *testing.T, status string, total int64, createdAt time.Time) {
	err := f.orders.CreateOrder(context.Background(), &models.Order{
		ID:           uuid.NewString(),
		EventID:      "event-1",
		CustomerName: "Ivan",
		Email:        "ivan@example.com",
		TotalAmount:  total,
		Status:       status,
		CreatedAt:    createdAt,
	})
	require.NoError(t, err)
}

func newService(f fixture, cache *analytics.StatsCache) *analytics.Service {
	s := analytics.NewService(f.bun, cache, logger.NewWithWriter(io.Discard))
	s.Now = func() time.Time { return now }
	return s
}

func TestMonthStart(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), analytics.MonthStart(now))
	// 00:30 on April 1st in Moscow is still March in UTC.
	assert.Equal(t,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		analytics.MonthStart(time.Date(2026, 4, 1, 0, 30, 0, 0, moscow)))
}

func TestAdminStats_Empty(t *testing.T) {
	f := setupTestDB(t)

	stats, err := newService(f, nil).AdminStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.AdminStats{}, *stats)
}

func TestAdminStats_Aggregates(t *testing.T) {
	f := setupTestDB(t)
	f.addEvent(t, "Jazz Night")
	f.addEvent(t, "Rock Fest")
	f.addOrder(t, models.OrderStatusPaid, 1000, now.Add(-5*24*time.Hour))
	f.addOrder(t, models.OrderStatusPaid, 2000, time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC))
	f.addOrder(t, models.OrderStatusPaid, 700, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	f.addOrder(t, models.OrderStatusPending, 500, now.Add(-time.Hour))
	f.addOrder(t, models.OrderStatusFailed, 900, now.Add(-time.Hour))
	f.addOrder(t, models.OrderStatusCancelled, 300, now.Add(-time.Hour))

	stats, err := newService(f, nil).AdminStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.AdminStats{
		EventsCount:         2,
		PaidOrders:          3,
		Revenue:             3700,
		PaidOrdersThisMonth: 2,
	}, *stats)
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestAdminStats_ReadThroughCache(t *testing.T) {
	f := setupTestDB(t)
	client, _ := setupTestRedis(t)
	s := newService(f, analytics.NewStatsCache(client, time.Minute))
	ctx := context.Background()

	f.addOrder(t, models.OrderStatusPaid, 1000, now.Add(-time.Hour))
	first, err := s.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.PaidOrders)

	f.addOrder(t, models.OrderStatusPaid, 2000, now.Add(-time.Hour))
	cached, err := s.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.PaidOrders, "second read should come from cache")

	require.NoError(t, s.HandleOrderEvent(ctx, models.OrderEvent{OrderID: "o-2", Status: models.OrderStatusPaid}))

	fresh, err := s.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.PaidOrders)
	assert.Equal(t, int64(3000), fresh.Revenue)
}

func TestAdminStats_CacheExpires(t *testing.T) {
	f := setupTestDB(t)
	client, mr := setupTestRedis(t)
	s := newService(f, analytics.NewStatsCache(client, 30*time.Second))
	ctx := context.Background()

	_, err := s.AdminStats(ctx)
	require.NoError(t, err)
	f.addEvent(t, "Opera")

	mr.FastForward(31 * time.Second)

	stats, err := s.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.EventsCount)
}

func TestAdminStats_CacheUnavailable(t *testing.T) {
	f := setupTestDB(t)
	client, mr := setupTestRedis(t)
	s := newService(f, analytics.NewStatsCache(client, time.Minute))
	mr.Close()

	f.addEvent(t, "Ballet")
	stats, err := s.AdminStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.EventsCount)
}

func TestHandleOrderEvent_IgnoresNonPaid(t *testing.T) {
	f := setupTestDB(t)
	client, mr := setupTestRedis(t)
	s := newService(f, analytics.NewStatsCache(client, time.Minute))
	ctx := context.Background()

	_, err := s.AdminStats(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("storefront:admin_stats"))

	require.NoError(t, s.HandleOrderEvent(ctx, models.OrderEvent{OrderID: "o-1", Status: models.OrderStatusCancelled}))
	assert.True(t, mr.Exists("storefront:admin_stats"))
}
