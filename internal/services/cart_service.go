package services

import (
	"context"
	"fmt"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
)

type CartService struct {
	cart CartStore
	gems GemstoneStore
}

func NewCartService(cart CartStore, gems GemstoneStore) *CartService {
	return &CartService{cart: cart, gems: gems}
}

// Get returns the cart priced at current gemstone prices.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (models.Cart, error) {
	items, err := s.cart.List(ctx, userID)
	if err != nil {
		return models.Cart{}, fmt.Errorf("load cart: %w", err)
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].GemstoneID
	}
	gems, err := s.gems.FindByIDs(ctx, ids)
	if err != nil {
		return models.Cart{}, fmt.Errorf("load gemstones: %w", err)
	}
	for i := range items {
		items[i].Gemstone = gems[items[i].GemstoneID]
	}
	return models.NewCart(items), nil
}

// Add puts quantity more of the gemstone in the cart.
func (s *CartService) Add(ctx context.Context, userID, gemstoneID uuid.UUID, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return models.Cart{}, invalid("quantity must be at least 1")
	}

	gem, err := s.gems.FindByID(ctx, gemstoneID)
	if err != nil {
		return models.Cart{}, err
	}
	if gem == nil || !gem.IsActive {
		return models.Cart{}, ErrGemstoneNotFound
	}
	if gem.SellerID == userID {
		return models.Cart{}, ErrOwnGemstone
	}

	item, err := s.cart.FindItem(ctx, userID, gemstoneID)
	if err != nil {
		return models.Cart{}, err
	}
	if item == nil {
		item = &models.CartItem{UserID: userID, GemstoneID: gemstoneID}
	}
	if item.Quantity+quantity > gem.Stock {
		return models.Cart{}, ErrInsufficientStock
	}
	item.Quantity += quantity

	if err := s.cart.Save(ctx, item); err != nil {
		return models.Cart{}, fmt.Errorf("save cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (models.Cart, error) {
	if quantity < 0 {
		return models.Cart{}, invalid("quantity cannot be negative")
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return models.Cart{}, err
	}

	if quantity == 0 {
		if err := s.cart.Delete(ctx, itemID); err != nil {
			return models.Cart{}, err
		}
		return s.Get(ctx, userID)
	}

	gem, err := s.gems.FindByID(ctx, item.GemstoneID)
	if err != nil {
		return models.Cart{}, err
	}
	if gem == nil || !gem.IsActive {
		return models.Cart{}, ErrGemstoneNotFound
	}
	if quantity > gem.Stock {
		return models.Cart{}, ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := s.cart.Save(ctx, item); err != nil {
		return models.Cart{}, fmt.Errorf("save cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) (models.Cart, error) {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return models.Cart{}, err
	}
	if err := s.cart.Delete(ctx, itemID); err != nil {
		return models.Cart{}, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cart.Clear(ctx, userID)
}

func (s *CartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.cart.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID != userID {
		return nil, ErrCartItemNotFound
	}
	return item, nil
}
