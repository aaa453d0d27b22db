package repositories

import (
	"context"
	"time"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type APIKeyRepository struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

const apiKeyColumns = `id, user_id, prefix, key_hash, description, created_at, expires_at, revoked, last_used_at`

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	var k models.APIKey
	err := row.Scan(&k.ID, &k.UserID, &k.Prefix, &k.KeyHash, &k.Description, &k.CreatedAt, &k.ExpiresAt, &k.Revoked, &k.LastUsedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *APIKeyRepository) Create(ctx context.Context, k *models.APIKey) error {
	k.Prepare()

	query := `
		INSERT INTO api_keys (id, user_id, prefix, key_hash, description, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query, k.ID, k.UserID, k.Prefix, k.KeyHash, k.Description, k.CreatedAt, k.ExpiresAt)
	return translate(err)
}

func (r *APIKeyRepository) findOne(ctx context.Context, cond string, arg any) (*models.APIKey, error) {
	k, err := scanAPIKey(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE `+cond, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return k, nil
}

func (r *APIKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	return r.findOne(ctx, "key_hash = $1", hash)
}

func (r *APIKeyRepository) list(ctx context.Context, query string, args ...any) ([]models.APIKey, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

func (r *APIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	return r.list(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *APIKeyRepository) ListAll(ctx context.Context) ([]models.APIKey, error) {
	return r.list(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC`)
}

func (r *APIKeyRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `UPDATE api_keys SET revoked = TRUE WHERE id = $1`, id)
	return err
}

func (r *APIKeyRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `UPDATE api_keys SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}
