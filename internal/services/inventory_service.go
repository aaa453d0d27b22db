package services

import (
	"context"
	"fmt"

	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
)

type InventoryInput struct {
	Name        *string
	Description *string
	Category    *string
	Material    *string
	Gemstone    *string
	PriceCents  *int64
	ClearPrice  bool
	Quantity    *int
	ImageURL    *string
	IsPublic    *bool
}

type InventoryService struct {
	items InventoryStore
	users UserStore
}

func NewInventoryService(items InventoryStore, users UserStore) *InventoryService {
	return &InventoryService{items: items, users: users}
}

func (s *InventoryService) Mine(ctx context.Context, ownerID uuid.UUID) ([]models.InventoryItem, error) {
	return s.items.ListByOwner(ctx, ownerID, false)
}

// Showcase lists a member's items. Private items are shown only to the owner.
func (s *InventoryService) Showcase(ctx context.Context, viewerID, ownerID uuid.UUID) ([]models.InventoryItem, error) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil || owner.DeletedAt != nil {
		return nil, ErrUserNotFound
	}
	return s.items.ListByOwner(ctx, ownerID, viewerID != ownerID)
}

func (s *InventoryService) Create(ctx context.Context, ownerID uuid.UUID, in InventoryInput) (*models.InventoryItem, error) {
	item := &models.InventoryItem{OwnerID: ownerID, IsPublic: true}
	if err := applyInventoryInput(item, in); err != nil {
		return nil, err
	}
	if item.Name == "" {
		return nil, invalid("name is required")
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) Update(ctx context.Context, ownerID, id uuid.UUID, in InventoryInput) (*models.InventoryItem, error) {
	item, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := applyInventoryInput(item, in); err != nil {
		return nil, err
	}
	if item.Name == "" {
		return nil, invalid("name is required")
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.items.Delete(ctx, id)
}

func (s *InventoryService) owned(ctx context.Context, ownerID, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrInventoryNotFound
	}
	if item.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return item, nil
}

func applyInventoryInput(item *models.InventoryItem, in InventoryInput) error {
	if in.Name != nil {
		item.Name = utils.CleanText(*in.Name)
	}
	setText(&item.Description, in.Description)
	setText(&item.Category, in.Category)
	setText(&item.Material, in.Material)
	setText(&item.Gemstone, in.Gemstone)
	setText(&item.ImageURL, in.ImageURL)
	if in.ClearPrice {
		item.PriceCents = nil
	} else if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return invalid("price_cents cannot be negative")
		}
		p := *in.PriceCents
		item.PriceCents = &p
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return invalid("quantity cannot be negative")
		}
		item.Quantity = *in.Quantity
	}
	if in.IsPublic != nil {
		item.IsPublic = *in.IsPublic
	}
	return nil
}
