package repositories

import (
	"context"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, user_id, gemstone_id, quantity, added_at FROM cart_items WHERE user_id = $1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.GemstoneID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *CartRepository) findOne(ctx context.Context, query string, args ...any) (*models.CartItem, error) {
	var item models.CartItem
	err := conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&item.ID, &item.UserID, &item.GemstoneID, &item.Quantity, &item.AddedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *CartRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	return r.findOne(ctx, `SELECT id, user_id, gemstone_id, quantity, added_at FROM cart_items WHERE id = $1`, id)
}

func (r *CartRepository) FindItem(ctx context.Context, userID, gemstoneID uuid.UUID) (*models.CartItem, error) {
	return r.findOne(ctx,
		`SELECT id, user_id, gemstone_id, quantity, added_at FROM cart_items WHERE user_id = $1 AND gemstone_id = $2`,
		userID, gemstoneID)
}

func (r *CartRepository) Save(ctx context.Context, item *models.CartItem) error {
	item.Prepare()

	query := `
		INSERT INTO cart_items (id, user_id, gemstone_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, gemstone_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id, added_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query, item.ID, item.UserID, item.GemstoneID, item.Quantity, item.AddedAt).
		Scan(&item.ID, &item.AddedAt)
}

func (r *CartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	return err
}

func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
