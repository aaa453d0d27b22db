package repositories

import (
	"context"
	"fmt"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GemstoneRepository struct {
	pool *pgxpool.Pool
}

func NewGemstoneRepository(pool *pgxpool.Pool) *GemstoneRepository {
	return &GemstoneRepository{pool: pool}
}

const gemstoneColumns = `id, seller_id, name, gem_type, shape, carat::float8, color, clarity, origin,
	certification, treatment, description, price_cents, stock, image_url, is_active, created_at, updated_at`

var gemstoneOrder = map[string]string{
	models.SortNewest:    "created_at DESC",
	models.SortPriceAsc:  "price_cents ASC, created_at DESC",
	models.SortPriceDesc: "price_cents DESC, created_at DESC",
	models.SortCaratDesc: "carat DESC, created_at DESC",
}

func scanGemstone(row pgx.Row) (*models.Gemstone, error) {
	var g models.Gemstone
	err := row.Scan(
		&g.ID,
		&g.SellerID,
		&g.Name,
		&g.GemType,
		&g.Shape,
		&g.Carat,
		&g.Color,
		&g.Clarity,
		&g.Origin,
		&g.Certification,
		&g.Treatment,
		&g.Description,
		&g.PriceCents,
		&g.Stock,
		&g.ImageURL,
		&g.IsActive,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GemstoneRepository) Create(ctx context.Context, g *models.Gemstone) error {
	g.Prepare()

	query := `
		INSERT INTO gemstones (id, seller_id, name, gem_type, shape, carat, color, clarity, origin,
			certification, treatment, description, price_cents, stock, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		g.ID,
		g.SellerID,
		g.Name,
		g.GemType,
		g.Shape,
		g.Carat,
		g.Color,
		g.Clarity,
		g.Origin,
		g.Certification,
		g.Treatment,
		g.Description,
		g.PriceCents,
		g.Stock,
		g.ImageURL,
		g.IsActive,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *GemstoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gemstone, error) {
	g, err := scanGemstone(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+gemstoneColumns+` FROM gemstones WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

func (r *GemstoneRepository) byIDs(ctx context.Context, query string, ids []uuid.UUID) (map[uuid.UUID]*models.Gemstone, error) {
	out := make(map[uuid.UUID]*models.Gemstone, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanGemstone(rows)
		if err != nil {
			return nil, err
		}
		out[g.ID] = g
	}
	return out, rows.Err()
}

func (r *GemstoneRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Gemstone, error) {
	return r.byIDs(ctx, `SELECT `+gemstoneColumns+` FROM gemstones WHERE id = ANY($1::uuid[])`, ids)
}

// LockForUpdate orders by id so concurrent checkouts lock rows in the same
// sequence.
func (r *GemstoneRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Gemstone, error) {
	return r.byIDs(ctx, `SELECT `+gemstoneColumns+` FROM gemstones WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, ids)
}

func (r *GemstoneRepository) List(ctx context.Context, f models.GemstoneFilter) ([]models.Gemstone, int64, error) {
	var w where
	w.add("is_active")
	if f.Query != "" {
		p := w.next(likePattern(f.Query))
		w.add(fmt.Sprintf("(name ILIKE %[1]s OR gem_type ILIKE %[1]s OR description ILIKE %[1]s OR origin ILIKE %[1]s)", p))
	}
	if f.GemType != "" {
		w.add("LOWER(gem_type) = LOWER(?)", f.GemType)
	}
	if f.Shape != "" {
		w.add("LOWER(shape) = LOWER(?)", f.Shape)
	}
	if f.Color != "" {
		w.add("LOWER(color) = LOWER(?)", f.Color)
	}
	if f.Clarity != "" {
		w.add("LOWER(clarity) = LOWER(?)", f.Clarity)
	}
	if f.Certification != "" {
		w.add("LOWER(certification) = LOWER(?)", f.Certification)
	}
	if f.MinCarat != nil {
		w.add("carat >= ?", *f.MinCarat)
	}
	if f.MaxCarat != nil {
		w.add("carat <= ?", *f.MaxCarat)
	}
	if f.MinPrice != nil {
		w.add("price_cents >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price_cents <= ?", *f.MaxPrice)
	}
	if f.InStock {
		w.add("stock > 0")
	}

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM gemstones`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := gemstoneOrder[f.Sort]
	if !ok {
		order = gemstoneOrder[models.SortNewest]
	}
	page := f.Page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM gemstones%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		gemstoneColumns, w.sql(), order, len(w.args)+1, len(w.args)+2)

	rows, err := conn(ctx, r.pool).Query(ctx, query, append(w.args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Gemstone{}
	for rows.Next() {
		g, err := scanGemstone(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *g)
	}
	return out, total, rows.Err()
}

// Update writes the listing details. Stock is owned by SetStock and
// AdjustStock so an edit never overwrites a concurrent checkout.
func (r *GemstoneRepository) Update(ctx context.Context, g *models.Gemstone) error {
	query := `
		UPDATE gemstones SET name = $2, gem_type = $3, shape = $4, carat = $5, color = $6, clarity = $7,
			origin = $8, certification = $9, treatment = $10, description = $11, price_cents = $12,
			image_url = $13, is_active = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING stock, updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		g.ID,
		g.Name,
		g.GemType,
		g.Shape,
		g.Carat,
		g.Color,
		g.Clarity,
		g.Origin,
		g.Certification,
		g.Treatment,
		g.Description,
		g.PriceCents,
		g.ImageURL,
		g.IsActive,
	).Scan(&g.Stock, &g.UpdatedAt)
}

func (r *GemstoneRepository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE gemstones SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock)
	return err
}

func (r *GemstoneRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE gemstones SET stock = stock + $2, updated_at = NOW() WHERE id = $1 AND stock + $2 >= 0`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stock adjustment of %d rejected for gemstone %s", delta, id)
	}
	return nil
}
