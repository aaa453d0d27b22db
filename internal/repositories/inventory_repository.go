package repositories

import (
	"context"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

const inventoryColumns = `id, owner_id, name, description, category, material, gemstone, price_cents,
	quantity, image_url, is_public, created_at, updated_at`

func scanInventory(row pgx.Row) (*models.InventoryItem, error) {
	var i models.InventoryItem
	err := row.Scan(&i.ID, &i.OwnerID, &i.Name, &i.Description, &i.Category, &i.Material, &i.Gemstone,
		&i.PriceCents, &i.Quantity, &i.ImageURL, &i.IsPublic, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	item.Prepare()

	query := `
		INSERT INTO inventory_items (id, owner_id, name, description, category, material, gemstone,
			price_cents, quantity, image_url, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		item.ID,
		item.OwnerID,
		item.Name,
		item.Description,
		item.Category,
		item.Material,
		item.Gemstone,
		item.PriceCents,
		item.Quantity,
		item.ImageURL,
		item.IsPublic,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (r *InventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := scanInventory(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *InventoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, publicOnly bool) ([]models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items
		WHERE owner_id = $1 AND (NOT $2 OR is_public)
		ORDER BY created_at DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ownerID, publicOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (r *InventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	query := `
		UPDATE inventory_items SET name = $2, description = $3, category = $4, material = $5,
			gemstone = $6, price_cents = $7, quantity = $8, image_url = $9, is_public = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Category,
		item.Material,
		item.Gemstone,
		item.PriceCents,
		item.Quantity,
		item.ImageURL,
		item.IsPublic,
	).Scan(&item.UpdatedAt)
}

func (r *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	return err
}
