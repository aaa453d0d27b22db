package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ListingActive  = "active"
	ListingSold    = "sold"
	ListingRemoved = "removed"
)

var ListingCategories = []string{
	"findings", "chains", "clasps", "settings", "beads", "tools", "packaging", "other",
}

var ListingConditions = []string{"new", "like_new", "used", "refurbished"}

// Listing is an item in the jewelry-parts marketplace.
type Listing struct {
	ID          uuid.UUID    `json:"id"`
	SellerID    uuid.UUID    `json:"seller_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Condition   string       `json:"condition"`
	PriceCents  int64        `json:"price_cents"`
	Quantity    int          `json:"quantity"`
	ImageURL    string       `json:"image_url"`
	Location    string       `json:"location"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Seller      *UserSummary `json:"seller,omitempty"`
}

func (l *Listing) Prepare() {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = ListingActive
	}
}

type ListingFilter struct {
	Query     string
	Category  string
	Condition string
	MinPrice  *int64
	MaxPrice  *int64
	SellerID  *uuid.UUID
	// AllStatuses includes sold and removed listings (the seller's own view).
	AllStatuses bool
	Page        Page
}
