package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is a piece shown on a member's showcase. It is not for sale
// through the platform.
type InventoryItem struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Material    string    `json:"material"`
	Gemstone    string    `json:"gemstone"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	Quantity    int       `json:"quantity"`
	ImageURL    string    `json:"image_url"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i *InventoryItem) Prepare() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
}
