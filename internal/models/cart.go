package models

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	GemstoneID     uuid.UUID `json:"gemstone_id"`
	Quantity       int       `json:"quantity"`
	AddedAt        time.Time `json:"added_at"`
	Gemstone       *Gemstone `json:"gemstone,omitempty"`
	LineTotalCents int64     `json:"line_total_cents"`
}

func (c *CartItem) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.AddedAt.IsZero() {
		c.AddedAt = time.Now()
	}
}

type Cart struct {
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	ItemCount  int        `json:"item_count"`
}

// NewCart totals the lines using the current gemstone prices.
func NewCart(items []CartItem) Cart {
	cart := Cart{Items: items}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Gemstone != nil {
			item.LineTotalCents = item.Gemstone.PriceCents * int64(item.Quantity)
		}
		cart.TotalCents += item.LineTotalCents
		cart.ItemCount += item.Quantity
	}
	return cart
}
