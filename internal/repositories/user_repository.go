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

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, full_name, business_name, user_type, bio,
	location, specialties, website, phone, avatar_url, role, status, created_at, updated_at,
	last_login_at, deleted_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.FullName,
		&u.BusinessName,
		&u.UserType,
		&u.Bio,
		&u.Location,
		&u.Specialties,
		&u.Website,
		&u.Phone,
		&u.AvatarURL,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
		&u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Prepare()

	query := `
		INSERT INTO users (id, email, username, password_hash, full_name, business_name, user_type,
			bio, location, specialties, website, phone, avatar_url, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err := conn(ctx, r.pool).QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.BusinessName,
		user.UserType,
		user.Bio,
		user.Location,
		user.Specialties,
		user.Website,
		user.Phone,
		user.AvatarURL,
		user.Role,
		user.Status,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return translate(err)
}

func (r *UserRepository) findOne(ctx context.Context, cond string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond

	user, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// LockByID reads the row FOR UPDATE; it only holds inside RunAtomic.
func (r *UserRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "id = $1 FOR UPDATE", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(username) = LOWER($1)", username)
}

func (r *UserRepository) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	out := make(map[uuid.UUID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `
		SELECT id, username, full_name, business_name, user_type, location, avatar_url
		FROM users WHERE id = ANY($1::uuid[])
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.BusinessName, &s.UserType, &s.Location, &s.AvatarURL); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

func (r *UserRepository) Search(ctx context.Context, f models.DirectoryFilter) ([]models.User, int64, error) {
	var w where
	if !f.IncludeDeleted {
		w.add("deleted_at IS NULL")
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	if f.Query != "" {
		p := w.next(likePattern(f.Query))
		w.add(fmt.Sprintf("(full_name ILIKE %[1]s OR username ILIKE %[1]s OR business_name ILIKE %[1]s OR bio ILIKE %[1]s)", p))
	}
	if f.UserType != "" {
		w.add("user_type = ?", f.UserType)
	}
	if f.Location != "" {
		w.add("location ILIKE ?", likePattern(f.Location))
	}
	if f.Specialty != "" {
		w.add("? = ANY(specialties)", f.Specialty)
	}

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	args := append(w.args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY LOWER(full_name), username LIMIT $%d OFFSET $%d`,
		userColumns, w.sql(), len(w.args)+1, len(w.args)+2)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// UpdateProfile writes the self-editable columns only.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET full_name = $2, business_name = $3, user_type = $4, bio = $5, location = $6,
			specialties = $7, website = $8, phone = $9, avatar_url = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		user.ID,
		user.FullName,
		user.BusinessName,
		user.UserType,
		user.Bio,
		user.Location,
		user.Specialties,
		user.Website,
		user.Phone,
		user.AvatarURL,
	).Scan(&user.UpdatedAt)
	return translate(err)
}

// UpdateAccess writes role and status, leaving the profile alone.
func (r *UserRepository) UpdateAccess(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET role = $2, status = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query, user.ID, user.Role, user.Status).Scan(&user.UpdatedAt)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	return err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// LockRoles takes a transaction-scoped advisory lock shared by every decision
// that depends on how many admins exist.
func (r *UserRepository) LockRoles(ctx context.Context) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, roleLockKey)
	return err
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'admin' AND status = 'active' AND deleted_at IS NULL`).Scan(&n)
	return n, err
}
