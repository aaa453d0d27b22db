package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"jewelconnect/internal/metrics"
	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	IdempotencyTTL        = 24 * time.Hour
	maxIdempotencyKeyLen  = 128
	maxShippingAddressLen = 1000
)

type CheckoutInput struct {
	ShippingAddress string
	Notes           string
	IdempotencyKey  string
}

type OrderService struct {
	tx          Transactor
	orders      OrderStore
	cart        CartStore
	gems        GemstoneStore
	idempotency IdempotencyStore
	log         *zap.Logger
	now         func() time.Time
}

func NewOrderService(tx Transactor, orders OrderStore, cart CartStore, gems GemstoneStore, idempotency IdempotencyStore, log *zap.Logger) *OrderService {
	return &OrderService{
		tx:          tx,
		orders:      orders,
		cart:        cart,
		gems:        gems,
		idempotency: idempotency,
		log:         log,
		now:         time.Now,
	}
}

// Checkout turns the caller's cart into a pending order. Stock is verified and
// decremented under row locks in the same transaction that writes the order.
// With an idempotency key, a retried request returns the first order.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*models.Order, bool, error) {
	address := utils.CleanText(in.ShippingAddress)
	if address == "" {
		return nil, false, invalid("shipping_address is required")
	}
	if len(address) > maxShippingAddressLen {
		return nil, false, invalid("shipping_address is too long")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, false, invalid("Idempotency-Key is too long")
	}
	if key != "" {
		scoped := userID.String() + ":" + key
		existing, claimed, err := s.idempotency.Claim(ctx, scoped, IdempotencyTTL)
		if err != nil {
			return nil, false, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed {
			return s.replay(ctx, userID, existing)
		}

		order, err := s.checkout(ctx, userID, address, utils.CleanText(in.Notes))
		if err != nil {
			if relErr := s.idempotency.Release(ctx, scoped); relErr != nil {
				s.log.Warn("failed to release idempotency key", zap.Error(relErr))
			}
			return nil, false, err
		}
		if err := s.idempotency.Complete(ctx, scoped, order.ID.String(), IdempotencyTTL); err != nil {
			s.log.Warn("failed to store idempotency key", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
		return order, false, nil
	}

	order, err := s.checkout(ctx, userID, address, utils.CleanText(in.Notes))
	return order, false, err
}

func (s *OrderService) replay(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, bool, error) {
	if orderID == "" {
		return nil, false, ErrIdempotencyConflict
	}
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt idempotency record: %w", err)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if order == nil || order.UserID != userID {
		return nil, false, ErrOrderNotFound
	}
	metrics.RecordCheckout(metrics.CheckoutReplayed)
	return order, true, nil
}

func (s *OrderService) checkout(ctx context.Context, userID uuid.UUID, address, notes string) (*models.Order, error) {
	var order *models.Order

	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		// 1. Load the cart
		items, err := s.cart.List(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// 2. Lock every gemstone in the cart
		ids := make([]uuid.UUID, len(items))
		for i := range items {
			ids[i] = items[i].GemstoneID
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		gems, err := s.gems.LockForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		// 3. Verify availability and snapshot prices
		order = &models.Order{
			OrderNumber:     utils.NewOrderNumber(s.now()),
			UserID:          userID,
			Status:          models.OrderPending,
			ShippingAddress: address,
			Notes:           notes,
		}
		for _, item := range items {
			gem := gems[item.GemstoneID]
			if gem == nil || !gem.IsActive {
				return newError(ErrConflict, "a gemstone in your cart is no longer available")
			}
			if gem.Stock < item.Quantity {
				return newError(ErrInsufficientStock, fmt.Sprintf("only %d of %s left in stock", gem.Stock, gem.Name))
			}
			order.Items = append(order.Items, models.OrderItem{
				GemstoneID:     gem.ID,
				Name:           gem.Name,
				UnitPriceCents: gem.PriceCents,
				Quantity:       item.Quantity,
			})
			order.TotalCents += gem.PriceCents * int64(item.Quantity)
		}

		// 4. Decrement stock
		for _, item := range items {
			if err := s.gems.AdjustStock(ctx, item.GemstoneID, -item.Quantity); err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
		}

		// 5. Write the order and empty the cart
		if err := s.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return s.cart.Clear(ctx, userID)
	})

	switch {
	case err == nil:
		metrics.RecordCheckout(metrics.CheckoutSuccess)
	case errors.Is(err, ErrEmptyCart):
		metrics.RecordCheckout(metrics.CheckoutEmpty)
		return nil, err
	case errors.Is(err, ErrConflict):
		metrics.RecordCheckout(metrics.CheckoutOutOfStock)
		return nil, err
	default:
		metrics.RecordCheckout(metrics.CheckoutError)
		return nil, err
	}

	s.log.Info("checkout completed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Int64("total_cents", order.TotalCents),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Order, models.PageMeta, error) {
	orders, total, err := s.orders.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, models.NewPageMeta(page, total), nil
}

func (s *OrderService) ListAll(ctx context.Context, status string, page models.Page) ([]models.Order, models.PageMeta, error) {
	if status != "" && !utils.Contains(models.OrderStatuses, status) {
		return nil, models.PageMeta{}, invalid("unknown order status")
	}
	orders, total, err := s.orders.List(ctx, status, page)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, models.NewPageMeta(page, total), nil
}

func (s *OrderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || !actor.CanManage(order.UserID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Cancel lets the buyer cancel a pending order.
func (s *OrderService) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderCancelled, func(o *models.Order) error {
		if o.UserID != userID {
			return ErrOrderNotFound
		}
		if o.Status != models.OrderPending {
			return newError(ErrConflict, "only pending orders can be cancelled")
		}
		return nil
	})
}

// UpdateStatus is the admin status transition. Cancelling restores stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	if !utils.Contains(models.OrderStatuses, status) {
		return nil, invalid("unknown order status")
	}
	return s.transition(ctx, id, status, nil)
}

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, to string, check func(*models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if check != nil {
			if err := check(order); err != nil {
				return err
			}
		}
		if !models.CanTransition(order.Status, to) {
			return ErrInvalidTransition
		}

		if to == models.OrderCancelled {
			for _, item := range order.Items {
				if err := s.gems.AdjustStock(ctx, item.GemstoneID, item.Quantity); err != nil {
					return fmt.Errorf("restore stock: %w", err)
				}
			}
		}

		now := s.now()
		if err := s.orders.UpdateStatus(ctx, id, to, now); err != nil {
			return err
		}
		order.Status = to
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed", zap.String("order_id", id.String()), zap.String("status", to))
	return order, nil
}
