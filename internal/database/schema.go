package database

import (
	"context"
	"fmt"

	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

// Models lists every table in creation order.
var Models = []interface{}{
	(*models.Event)(nil),
	(*models.EventTag)(nil),
	(*models.TicketType)(nil),
	(*models.PromoCode)(nil),
	(*models.Order)(nil),
	(*models.OrderItem)(nil),
}

// CreateSchema creates all tables from the bun models. Production databases
// are migrated with the SQL files instead; this serves SQLite and local setups.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, m := range Models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}
