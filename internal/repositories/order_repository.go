package repositories

import (
	"context"
	"fmt"
	"time"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, order_number, user_id, status, total_cents, shipping_address, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.TotalCents, &o.ShippingAddress,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the order and its items. Call it inside RunAtomic.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	o.Prepare()
	db := conn(ctx, r.pool)

	query := `
		INSERT INTO orders (id, order_number, user_id, status, total_cents, shipping_address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := db.QueryRow(ctx, query, o.ID, o.OrderNumber, o.UserID, o.Status, o.TotalCents, o.ShippingAddress, o.Notes).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return translate(err)
	}

	for _, item := range o.Items {
		_, err := db.Exec(ctx, `
			INSERT INTO order_items (id, order_id, gemstone_id, name, unit_price_cents, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, o.ID, item.GemstoneID, item.Name, item.UnitPriceCents, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.attachItems(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		o.Items = []models.OrderItem{}
		byID[o.ID] = o
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, order_id, gemstone_id, name, unit_price_cents, quantity
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY name`, uuidStrings(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.GemstoneID, &item.Name, &item.UnitPriceCents, &item.Quantity); err != nil {
			return err
		}
		if o := byID[item.OrderID]; o != nil {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (r *OrderRepository) list(ctx context.Context, w where, page models.Page) ([]models.Order, int64, error) {
	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM orders`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, w.sql(), len(w.args)+1, len(w.args)+2)
	rows, err := conn(ctx, r.pool).Query(ctx, query, append(w.args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}

	var ptrs []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		ptrs = append(ptrs, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachItems(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	out := make([]models.Order, len(ptrs))
	for i, o := range ptrs {
		out[i] = *o
	}
	return out, total, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Order, int64, error) {
	var w where
	w.add("user_id = ?", userID)
	return r.list(ctx, w, page)
}

func (r *OrderRepository) List(ctx context.Context, status string, page models.Page) ([]models.Order, int64, error) {
	var w where
	if status != "" {
		w.add("status = ?", status)
	}
	return r.list(ctx, w, page)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	return err
}
