package discount

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

var ErrPromoInvalid = errors.New("promo code invalid")

// Store loads promo codes by their public code.
type Store interface {
	GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

// DB is the bun-backed Store.
type DB struct {
	Bun *bun.DB
}

func (d *DB) GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := d.Bun.NewSelect().
		Model(&promo).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load promo code: %w", err)
	}
	return &promo, nil
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the policy for code. An empty code yields NoDiscount and
// a nil promo. Unknown, inactive or out-of-range codes yield ErrPromoInvalid.
func (r *Resolver) Resolve(ctx context.Context, code string) (Policy, *models.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return NoDiscount, nil, nil
	}

	promo, err := r.store.GetPromoByCode(ctx, code)
	if err != nil {
		return NoDiscount, nil, err
	}
	if promo == nil || !promo.IsActive {
		return NoDiscount, nil, ErrPromoInvalid
	}

	policy, err := PolicyFor(promo)
	if err != nil {
		return NoDiscount, nil, err
	}
	return policy, promo, nil
}
