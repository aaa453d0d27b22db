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

type GroupPurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewGroupPurchaseRepository(pool *pgxpool.Pool) *GroupPurchaseRepository {
	return &GroupPurchaseRepository{pool: pool}
}

const groupColumns = `g.id, g.organizer_id, g.gemstone_id, g.title, g.description, g.target_quantity,
	g.unit_price_cents, g.deadline, g.status, g.created_at, g.updated_at,
	(SELECT COALESCE(SUM(p.quantity), 0) FROM group_purchase_participants p WHERE p.group_purchase_id = g.id),
	(SELECT COUNT(*) FROM group_purchase_participants p WHERE p.group_purchase_id = g.id)`

func scanGroup(row pgx.Row) (*models.GroupPurchase, error) {
	var g models.GroupPurchase
	err := row.Scan(
		&g.ID,
		&g.OrganizerID,
		&g.GemstoneID,
		&g.Title,
		&g.Description,
		&g.TargetQuantity,
		&g.UnitPriceCents,
		&g.Deadline,
		&g.Status,
		&g.CreatedAt,
		&g.UpdatedAt,
		&g.CommittedQuantity,
		&g.ParticipantCount,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupPurchaseRepository) Create(ctx context.Context, g *models.GroupPurchase) error {
	g.Prepare()

	query := `
		INSERT INTO group_purchases (id, organizer_id, gemstone_id, title, description, target_quantity,
			unit_price_cents, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		g.ID, g.OrganizerID, g.GemstoneID, g.Title, g.Description, g.TargetQuantity,
		g.UnitPriceCents, g.Deadline, g.Status,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *GroupPurchaseRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*models.GroupPurchase, error) {
	g, err := scanGroup(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

func (r *GroupPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.GroupPurchase, error) {
	return r.findOne(ctx, `SELECT `+groupColumns+` FROM group_purchases g WHERE g.id = $1`, id)
}

func (r *GroupPurchaseRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.GroupPurchase, error) {
	return r.findOne(ctx, `SELECT `+groupColumns+` FROM group_purchases g WHERE g.id = $1 FOR UPDATE OF g`, id)
}

func (r *GroupPurchaseRepository) list(ctx context.Context, query string, args ...any) ([]models.GroupPurchase, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.GroupPurchase{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *GroupPurchaseRepository) List(ctx context.Context, status string, page models.Page) ([]models.GroupPurchase, int64, error) {
	var w where
	if status != "" {
		w.add("g.status = ?", status)
	}

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM group_purchases g`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM group_purchases g%s ORDER BY g.deadline ASC LIMIT $%d OFFSET $%d`,
		groupColumns, w.sql(), len(w.args)+1, len(w.args)+2)
	out, err := r.list(ctx, query, append(w.args, page.Limit, page.Offset())...)
	return out, total, err
}

func (r *GroupPurchaseRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE group_purchases SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *GroupPurchaseRepository) Participants(ctx context.Context, id uuid.UUID) ([]models.Participant, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT user_id, quantity, joined_at FROM group_purchase_participants
		WHERE group_purchase_id = $1 ORDER BY joined_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Quantity, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *GroupPurchaseRepository) UpsertParticipant(ctx context.Context, id uuid.UUID, p models.Participant) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO group_purchase_participants (group_purchase_id, user_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_purchase_id, user_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		id, p.UserID, p.Quantity)
	return err
}

func (r *GroupPurchaseRepository) DeleteParticipant(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM group_purchase_participants WHERE group_purchase_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *GroupPurchaseRepository) ListDue(ctx context.Context, now time.Time) ([]models.GroupPurchase, error) {
	return r.list(ctx, `SELECT `+groupColumns+` FROM group_purchases g
		WHERE g.status = 'open' AND g.deadline <= $1
		ORDER BY g.deadline`, now)
}
