package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID        string    `bun:"id,pk" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Slug      string    `bun:"slug,unique,notnull" json:"slug"`
	City      string    `bun:"city,notnull" json:"city"`
	Date      time.Time `bun:"date,notnull" json:"date"`
	IsActive  bool      `bun:"is_active,notnull,default:true" json:"isActive"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`

	Tickets []*TicketType `bun:"rel:has-many,join:id=event_id" json:"tickets,omitempty"`
	Tags    []*EventTag   `bun:"rel:has-many,join:id=event_id" json:"-"`
}

// TagNames flattens the tag relation for API responses.
func (e *Event) TagNames() []string {
	names := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// TicketPrice returns the price of ticketID and whether the event sells it.
func (e *Event) TicketPrice(ticketID string) (int64, bool) {
	for _, t := range e.Tickets {
		if t.ID == ticketID {
			return t.Price, true
		}
	}
	return 0, false
}

type EventTag struct {
	bun.BaseModel `bun:"table:event_tags,alias:et"`

	EventID string `bun:"event_id,pk" json:"eventId"`
	Tag     string `bun:"tag,pk" json:"tag"`
}

type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types,alias:tt"`

	ID      string `bun:"id,pk" json:"id"`
	EventID string `bun:"event_id,notnull" json:"eventId"`
	Name    string `bun:"name,notnull" json:"name"`
	Price   int64  `bun:"price,notnull" json:"price"`
}

// EventFilter narrows the storefront listing. Zero values disable a filter.
type EventFilter struct {
	City string
	// Day selects events in [Day, Day+24h).
	Day  *time.Time
	Tags []string
}

// EventView is the public JSON shape of a listed event.
type EventView struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Slug    string        `json:"slug"`
	City    string        `json:"city"`
	Date    time.Time     `json:"date"`
	Tags    []string      `json:"tags"`
	Tickets []*TicketType `json:"tickets"`
}

func NewEventView(e *Event) EventView {
	tickets := e.Tickets
	if tickets == nil {
		tickets = []*TicketType{}
	}
	return EventView{
		ID:      e.ID,
		Title:   e.Title,
		Slug:    e.Slug,
		City:    e.City,
		Date:    e.Date,
		Tags:    e.TagNames(),
		Tickets: tickets,
	}
}
