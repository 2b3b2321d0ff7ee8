package models

// AdminStats is the admin dashboard snapshot. Money is in minor units.
type AdminStats struct {
	EventsCount         int64 `bun:"events_count" json:"eventsCount"`
	PaidOrders          int64 `bun:"paid_orders" json:"paidOrders"`
	Revenue             int64 `bun:"revenue" json:"revenue"`
	PaidOrdersThisMonth int64 `bun:"paid_orders_this_month" json:"paidOrdersThisMonth"`
}
