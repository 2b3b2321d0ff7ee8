package models

import "github.com/uptrace/bun"

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFlat    DiscountType = "flat"
)

type PromoCode struct {
	bun.BaseModel `bun:"table:promo_codes,alias:pc"`

	ID            string       `bun:"id,pk" json:"id"`
	Code          string       `bun:"code,unique,notnull" json:"code"`
	DiscountType  DiscountType `bun:"discount_type,notnull" json:"discountType"`
	DiscountValue int64        `bun:"discount_value,notnull" json:"discountValue"`
	IsActive      bool         `bun:"is_active,notnull,default:true" json:"isActive"`
}
