package repositories

import (
	"context"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConnectionRepository struct {
	pool *pgxpool.Pool
}

func NewConnectionRepository(pool *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{pool: pool}
}

const connectionColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

func scanConnection(row pgx.Row) (*models.Connection, error) {
	var c models.Connection
	if err := row.Scan(&c.ID, &c.RequesterID, &c.AddresseeID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConnectionRepository) Create(ctx context.Context, c *models.Connection) error {
	c.Prepare()

	query := `
		INSERT INTO connections (id, requester_id, addressee_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query, c.ID, c.RequesterID, c.AddresseeID, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

func (r *ConnectionRepository) findOne(ctx context.Context, query string, args ...any) (*models.Connection, error) {
	c, err := scanConnection(conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *ConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	return r.findOne(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id)
}

func (r *ConnectionRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1)`
	return r.findOne(ctx, query, a, b)
}

func (r *ConnectionRepository) Update(ctx context.Context, c *models.Connection) error {
	query := `
		UPDATE connections SET requester_id = $2, addressee_id = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query, c.ID, c.RequesterID, c.AddresseeID, c.Status).Scan(&c.UpdatedAt)
	return translate(err)
}

func (r *ConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM connections WHERE id = $1`, id)
	return err
}

func (r *ConnectionRepository) list(ctx context.Context, query string, args ...any) ([]models.Connection, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ConnectionRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE status = 'accepted' AND (requester_id = $1 OR addressee_id = $1)
		ORDER BY updated_at DESC`
	return r.list(ctx, query, userID)
}

func (r *ConnectionRepository) ListPending(ctx context.Context, userID uuid.UUID, outgoing bool) ([]models.Connection, error) {
	column := "addressee_id"
	if outgoing {
		column = "requester_id"
	}
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE status = 'pending' AND ` + column + ` = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}
