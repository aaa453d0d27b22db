package services

import (
	"context"
	"fmt"
	"strings"

	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
)

var gemstoneSorts = []string{models.SortNewest, models.SortPriceAsc, models.SortPriceDesc, models.SortCaratDesc}

type GemstoneInput struct {
	Name          *string
	GemType       *string
	Shape         *string
	Carat         *float64
	Color         *string
	Clarity       *string
	Origin        *string
	Certification *string
	Treatment     *string
	Description   *string
	PriceCents    *int64
	Stock         *int
	ImageURL      *string
}

type GemstoneService struct {
	tx   Transactor
	gems GemstoneStore
}

func NewGemstoneService(tx Transactor, gems GemstoneStore) *GemstoneService {
	return &GemstoneService{tx: tx, gems: gems}
}

func (s *GemstoneService) List(ctx context.Context, f models.GemstoneFilter) ([]models.Gemstone, models.PageMeta, error) {
	if f.Sort == "" {
		f.Sort = models.SortNewest
	}
	if !utils.Contains(gemstoneSorts, f.Sort) {
		return nil, models.PageMeta{}, invalid("sort must be one of " + strings.Join(gemstoneSorts, ", "))
	}
	if f.MinCarat != nil && f.MaxCarat != nil && *f.MinCarat > *f.MaxCarat {
		return nil, models.PageMeta{}, invalid("min_carat cannot exceed max_carat")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, models.PageMeta{}, invalid("min_price cannot exceed max_price")
	}
	f.Query = strings.TrimSpace(f.Query)

	gems, total, err := s.gems.List(ctx, f)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list gemstones: %w", err)
	}
	return gems, models.NewPageMeta(f.Page, total), nil
}

// Get returns an active gemstone. Sellers and admins also see inactive ones.
func (s *GemstoneService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Gemstone, error) {
	gem, err := s.gems.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gem == nil || (!gem.IsActive && !actor.CanManage(gem.SellerID)) {
		return nil, ErrGemstoneNotFound
	}
	return gem, nil
}

func (s *GemstoneService) Create(ctx context.Context, sellerID uuid.UUID, in GemstoneInput) (*models.Gemstone, error) {
	gem := &models.Gemstone{SellerID: sellerID, IsActive: true}
	if err := applyGemstoneInput(gem, in); err != nil {
		return nil, err
	}
	if gem.Name == "" || gem.GemType == "" {
		return nil, invalid("name and gem_type are required")
	}
	if gem.Carat <= 0 {
		return nil, invalid("carat must be greater than 0")
	}
	if gem.PriceCents <= 0 {
		return nil, invalid("price_cents must be greater than 0")
	}
	if err := s.gems.Create(ctx, gem); err != nil {
		return nil, fmt.Errorf("create gemstone: %w", err)
	}
	return gem, nil
}

// Update edits a gemstone under its row lock. Stock is only written when the
// input sets it, so concurrent checkouts are never undone.
func (s *GemstoneService) Update(ctx context.Context, actor Actor, id uuid.UUID, in GemstoneInput) (*models.Gemstone, error) {
	var gem *models.Gemstone
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		gem, err = s.managed(ctx, actor, id)
		if err != nil {
			return err
		}
		if err := applyGemstoneInput(gem, in); err != nil {
			return err
		}
		if gem.Name == "" || gem.GemType == "" {
			return invalid("name and gem_type cannot be empty")
		}
		if err := s.gems.Update(ctx, gem); err != nil {
			return fmt.Errorf("update gemstone: %w", err)
		}
		if in.Stock != nil {
			if err := s.gems.SetStock(ctx, id, *in.Stock); err != nil {
				return fmt.Errorf("set stock: %w", err)
			}
			gem.Stock = *in.Stock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gem, nil
}

// Delete deactivates the gemstone; order history keeps referencing it.
func (s *GemstoneService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		gem, err := s.managed(ctx, actor, id)
		if err != nil {
			return err
		}
		gem.IsActive = false
		return s.gems.Update(ctx, gem)
	})
}

// managed locks the gemstone and checks the actor may edit it. Call inside
// RunAtomic.
func (s *GemstoneService) managed(ctx context.Context, actor Actor, id uuid.UUID) (*models.Gemstone, error) {
	locked, err := s.gems.LockForUpdate(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	gem := locked[id]
	if gem == nil || (!gem.IsActive && !actor.IsAdmin() && gem.SellerID != actor.ID) {
		return nil, ErrGemstoneNotFound
	}
	if !actor.CanManage(gem.SellerID) {
		return nil, ErrNotOwner
	}
	return gem, nil
}

func applyGemstoneInput(g *models.Gemstone, in GemstoneInput) error {
	if in.Name != nil {
		g.Name = utils.CleanText(*in.Name)
	}
	if in.GemType != nil {
		g.GemType = utils.CleanText(*in.GemType)
	}
	setText(&g.Shape, in.Shape)
	setText(&g.Color, in.Color)
	setText(&g.Clarity, in.Clarity)
	setText(&g.Origin, in.Origin)
	setText(&g.Certification, in.Certification)
	setText(&g.Treatment, in.Treatment)
	setText(&g.Description, in.Description)
	setText(&g.ImageURL, in.ImageURL)
	if in.Carat != nil {
		if *in.Carat <= 0 {
			return invalid("carat must be greater than 0")
		}
		g.Carat = *in.Carat
	}
	if in.PriceCents != nil {
		if *in.PriceCents <= 0 {
			return invalid("price_cents must be greater than 0")
		}
		g.PriceCents = *in.PriceCents
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return invalid("stock cannot be negative")
		}
		g.Stock = *in.Stock
	}
	return nil
}
