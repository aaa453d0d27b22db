package repositories

import (
	"context"
	"fmt"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

const listingColumns = `l.id, l.seller_id, l.title, l.description, l.category, l.condition, l.price_cents,
	l.quantity, l.image_url, l.location, l.status, l.created_at, l.updated_at,
	u.username, u.full_name, u.business_name, u.user_type, u.location, u.avatar_url`

const listingFrom = ` FROM marketplace_listings l JOIN users u ON u.id = l.seller_id`

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var s models.UserSummary
	err := row.Scan(
		&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Category, &l.Condition, &l.PriceCents,
		&l.Quantity, &l.ImageURL, &l.Location, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&s.Username, &s.FullName, &s.BusinessName, &s.UserType, &s.Location, &s.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	s.ID = l.SellerID
	l.Seller = &s
	return &l, nil
}

func (r *ListingRepository) Create(ctx context.Context, l *models.Listing) error {
	l.Prepare()

	query := `
		INSERT INTO marketplace_listings (id, seller_id, title, description, category, condition,
			price_cents, quantity, image_url, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		l.ID, l.SellerID, l.Title, l.Description, l.Category, l.Condition,
		l.PriceCents, l.Quantity, l.ImageURL, l.Location, l.Status,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *ListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, err := scanListing(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+listingColumns+listingFrom+` WHERE l.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// LockByID reads the listing FOR UPDATE; it only holds inside RunAtomic.
func (r *ListingRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, err := scanListing(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+listingColumns+listingFrom+` WHERE l.id = $1 FOR UPDATE OF l`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (r *ListingRepository) List(ctx context.Context, f models.ListingFilter) ([]models.Listing, int64, error) {
	var w where
	if !f.AllStatuses {
		w.add("l.status = 'active'")
	} else {
		w.add("l.status <> 'removed'")
	}
	if f.SellerID != nil {
		w.add("l.seller_id = ?", *f.SellerID)
	}
	if f.Query != "" {
		p := w.next(likePattern(f.Query))
		w.add(fmt.Sprintf("(l.title ILIKE %[1]s OR l.description ILIKE %[1]s)", p))
	}
	if f.Category != "" {
		w.add("l.category = ?", f.Category)
	}
	if f.Condition != "" {
		w.add("l.condition = ?", f.Condition)
	}
	if f.MinPrice != nil {
		w.add("l.price_cents >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("l.price_cents <= ?", *f.MaxPrice)
	}

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM marketplace_listings l`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY l.created_at DESC LIMIT $%d OFFSET $%d`,
		listingColumns, listingFrom, w.sql(), len(w.args)+1, len(w.args)+2)
	rows, err := conn(ctx, r.pool).Query(ctx, query, append(w.args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

// Update writes the editable fields of an active listing. It returns ErrStale
// when the listing is no longer active.
func (r *ListingRepository) Update(ctx context.Context, l *models.Listing) error {
	query := `
		UPDATE marketplace_listings SET title = $2, description = $3, category = $4, condition = $5,
			price_cents = $6, quantity = $7, image_url = $8, location = $9, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING updated_at
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		l.ID, l.Title, l.Description, l.Category, l.Condition,
		l.PriceCents, l.Quantity, l.ImageURL, l.Location,
	).Scan(&l.UpdatedAt)
	if isNoRows(err) {
		return ErrStale
	}
	return err
}

// SetStatus moves a listing out of from into to. It returns ErrStale when the
// listing is not in one of the from states.
func (r *ListingRepository) SetStatus(ctx context.Context, id uuid.UUID, from []string, to string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE marketplace_listings SET status = $2, updated_at = NOW() WHERE id = $1 AND status = ANY($3)`,
		id, to, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}
