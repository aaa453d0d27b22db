package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jewelconnect/internal/models"
	"jewelconnect/internal/repositories"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
)

type ListingInput struct {
	Title       *string
	Description *string
	Category    *string
	Condition   *string
	PriceCents  *int64
	Quantity    *int
	ImageURL    *string
	Location    *string
}

type ListingService struct {
	tx       Transactor
	listings ListingStore
}

func NewListingService(tx Transactor, listings ListingStore) *ListingService {
	return &ListingService{tx: tx, listings: listings}
}

// List shows active listings. A seller browsing their own listings also sees
// sold ones.
func (s *ListingService) List(ctx context.Context, viewerID uuid.UUID, f models.ListingFilter) ([]models.Listing, models.PageMeta, error) {
	if f.Category != "" && !utils.Contains(models.ListingCategories, f.Category) {
		return nil, models.PageMeta{}, invalid("unknown category")
	}
	if f.Condition != "" && !utils.Contains(models.ListingConditions, f.Condition) {
		return nil, models.PageMeta{}, invalid("unknown condition")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, models.PageMeta{}, invalid("min_price cannot exceed max_price")
	}
	f.Query = strings.TrimSpace(f.Query)
	f.AllStatuses = f.SellerID != nil && viewerID != uuid.Nil && *f.SellerID == viewerID

	listings, total, err := s.listings.List(ctx, f)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list listings: %w", err)
	}
	return listings, models.NewPageMeta(f.Page, total), nil
}

func (s *ListingService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Listing, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil || (l.Status == models.ListingRemoved && !actor.CanManage(l.SellerID)) {
		return nil, ErrListingNotFound
	}
	return l, nil
}

func (s *ListingService) Create(ctx context.Context, sellerID uuid.UUID, in ListingInput) (*models.Listing, error) {
	l := &models.Listing{SellerID: sellerID, Category: "other", Condition: "new", Quantity: 1}
	if err := applyListingInput(l, in); err != nil {
		return nil, err
	}
	if l.Title == "" {
		return nil, invalid("title is required")
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, actor Actor, id uuid.UUID, in ListingInput) (*models.Listing, error) {
	var l *models.Listing
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.managed(ctx, actor, id)
		if err != nil {
			return err
		}
		if l.Status != models.ListingActive {
			return ErrListingInactive
		}
		if err := applyListingInput(l, in); err != nil {
			return err
		}
		if l.Title == "" {
			return invalid("title cannot be empty")
		}
		return staleAsInactive(s.listings.Update(ctx, l), "update listing")
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) MarkSold(ctx context.Context, actor Actor, id uuid.UUID) (*models.Listing, error) {
	return s.setStatus(ctx, actor, id, models.ListingSold)
}

func (s *ListingService) Remove(ctx context.Context, actor Actor, id uuid.UUID) error {
	_, err := s.setStatus(ctx, actor, id, models.ListingRemoved)
	return err
}

func (s *ListingService) setStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*models.Listing, error) {
	from := []string{models.ListingActive}
	if status == models.ListingRemoved {
		from = append(from, models.ListingSold)
	}

	var l *models.Listing
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.managed(ctx, actor, id)
		if err != nil {
			return err
		}
		if !utils.Contains(from, l.Status) {
			return ErrListingInactive
		}
		if err := staleAsInactive(s.listings.SetStatus(ctx, id, from, status), "set listing status"); err != nil {
			return err
		}
		l.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// managed locks the listing and checks the actor may edit it. Call inside
// RunAtomic.
func (s *ListingService) managed(ctx context.Context, actor Actor, id uuid.UUID) (*models.Listing, error) {
	l, err := s.listings.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil || l.Status == models.ListingRemoved {
		return nil, ErrListingNotFound
	}
	if !actor.CanManage(l.SellerID) {
		return nil, ErrNotOwner
	}
	return l, nil
}

func staleAsInactive(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrStale):
		return ErrListingInactive
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func applyListingInput(l *models.Listing, in ListingInput) error {
	if in.Title != nil {
		l.Title = utils.CleanText(*in.Title)
	}
	setText(&l.Description, in.Description)
	setText(&l.ImageURL, in.ImageURL)
	setText(&l.Location, in.Location)
	if in.Category != nil {
		if !utils.Contains(models.ListingCategories, *in.Category) {
			return invalid("unknown category")
		}
		l.Category = *in.Category
	}
	if in.Condition != nil {
		if !utils.Contains(models.ListingConditions, *in.Condition) {
			return invalid("unknown condition")
		}
		l.Condition = *in.Condition
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return invalid("price_cents cannot be negative")
		}
		l.PriceCents = *in.PriceCents
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return invalid("quantity cannot be negative")
		}
		l.Quantity = *in.Quantity
	}
	return nil
}
