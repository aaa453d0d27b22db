package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortCaratDesc = "carat_desc"
)

type Gemstone struct {
	ID            uuid.UUID `json:"id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Name          string    `json:"name"`
	GemType       string    `json:"gem_type"`
	Shape         string    `json:"shape"`
	Carat         float64   `json:"carat"`
	Color         string    `json:"color"`
	Clarity       string    `json:"clarity"`
	Origin        string    `json:"origin"`
	Certification string    `json:"certification"`
	Treatment     string    `json:"treatment"`
	Description   string    `json:"description"`
	PriceCents    int64     `json:"price_cents"`
	Stock         int       `json:"stock"`
	ImageURL      string    `json:"image_url"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (g *Gemstone) Prepare() {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
}

type GemstoneFilter struct {
	Query         string
	GemType       string
	Shape         string
	Color         string
	Clarity       string
	Certification string
	MinCarat      *float64
	MaxCarat      *float64
	MinPrice      *int64
	MaxPrice      *int64
	InStock       bool
	Sort          string
	Page          Page
}
