package db

import (
	"context"
	"fmt"
	"time"

	"ms-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/uptrace/bun"
)

// SeedEvent describes a catalog entry to insert.
type SeedEvent struct {
	Title   string
	City    string
	Date    time.Time
	Tags    []string
	Tickets map[string]int64
}

// InsertEvent writes an event with its tags and ticket types in one transaction.
// The slug is derived from title and city.
func (d *DB) InsertEvent(ctx context.Context, in SeedEvent) (*models.Event, error) {
	event := &models.Event{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Slug:      slug.Make(in.Title + " " + in.City),
		City:      in.City,
		Date:      in.Date.UTC(),
		IsActive:  true,
		CreatedAt: d.now(),
	}

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		for _, tag := range in.Tags {
			t := &models.EventTag{EventID: event.ID, Tag: tag}
			if _, err := tx.NewInsert().Model(t).Exec(ctx); err != nil {
				return fmt.Errorf("insert tag %q: %w", tag, err)
			}
			event.Tags = append(event.Tags, t)
		}
		for name, price := range in.Tickets {
			tt := &models.TicketType{ID: uuid.NewString(), EventID: event.ID, Name: name, Price: price}
			if _, err := tx.NewInsert().Model(tt).Exec(ctx); err != nil {
				return fmt.Errorf("insert ticket type %q: %w", name, err)
			}
			event.Tickets = append(event.Tickets, tt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// InsertPromo stores a promo code.
func (d *DB) InsertPromo(ctx context.Context, code string, kind models.DiscountType, value int64) (*models.PromoCode, error) {
	promo := &models.PromoCode{
		ID:            uuid.NewString(),
		Code:          code,
		DiscountType:  kind,
		DiscountValue: value,
		IsActive:      true,
	}
	if _, err := d.Bun.NewInsert().Model(promo).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert promo %q: %w", code, err)
	}
	return promo, nil
}
