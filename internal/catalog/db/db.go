package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

var ErrEventNotFound = errors.New("event not found")

type DB struct {
	Bun *bun.DB
	// Now defaults to time.Now and is replaced in tests.
	Now func() time.Time
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB, Now: time.Now}
}

func (d *DB) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

func ticketsByPrice(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("tt.price ASC", "tt.id ASC")
}

// GetEventWithTickets loads one event and its ticket types by id.
func (d *DB) GetEventWithTickets(ctx context.Context, eventID string) (*models.Event, error) {
	event := new(models.Event)
	err := d.Bun.NewSelect().
		Model(event).
		Relation("Tickets", ticketsByPrice).
		Where("e.id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	return event, nil
}

// GetActiveEventBySlug loads an active event with tickets and tags.
func (d *DB) GetActiveEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	event := new(models.Event)
	err := d.Bun.NewSelect().
		Model(event).
		Relation("Tickets", ticketsByPrice).
		Relation("Tags").
		Where("e.slug = ?", slug).
		Where("e.is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %q: %w", slug, err)
	}
	return event, nil
}

// ListEvents returns active, not yet started events matching f, soonest first.
func (d *DB) ListEvents(ctx context.Context, f models.EventFilter) ([]*models.Event, error) {
	events := make([]*models.Event, 0)
	q := d.Bun.NewSelect().
		Model(&events).
		Relation("Tickets", ticketsByPrice).
		Relation("Tags").
		Where("e.is_active = ?", true).
		Where("e.date >= ?", d.now())

	if f.City != "" {
		q = q.Where("e.city = ?", f.City)
	}
	if f.Day != nil {
		start := f.Day.UTC()
		q = q.Where("e.date >= ?", start).Where("e.date < ?", start.Add(24*time.Hour))
	}
	if len(f.Tags) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM event_tags AS ft WHERE ft.event_id = e.id AND ft.tag IN (?))", bun.In(f.Tags))
	}

	if err := q.Order("e.date ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
