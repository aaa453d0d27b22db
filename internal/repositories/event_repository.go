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

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `e.id, e.organizer_id, e.title, e.description, e.location, e.event_type, e.starts_at,
	e.ends_at, e.capacity, e.is_virtual, e.url, e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM event_rsvps r WHERE r.event_id = e.id AND r.status = 'going'),
	(SELECT COUNT(*) FROM event_rsvps r WHERE r.event_id = e.id AND r.status = 'interested')`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID,
		&e.OrganizerID,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.EventType,
		&e.StartsAt,
		&e.EndsAt,
		&e.Capacity,
		&e.IsVirtual,
		&e.URL,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.GoingCount,
		&e.InterestedCount,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	e.Prepare()

	query := `
		INSERT INTO events (id, organizer_id, title, description, location, event_type, starts_at,
			ends_at, capacity, is_virtual, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		e.ID,
		e.OrganizerID,
		e.Title,
		e.Description,
		e.Location,
		e.EventType,
		e.StartsAt,
		e.EndsAt,
		e.Capacity,
		e.IsVirtual,
		e.URL,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	return err
}

func (r *EventRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id)
}

func (r *EventRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE OF e`, id)
}

func (r *EventRepository) List(ctx context.Context, f models.EventFilter) ([]models.Event, int64, error) {
	var w where
	from := f.From
	if from.IsZero() {
		from = time.Now()
	}
	if f.Past {
		w.add("e.ends_at < ?", from)
	} else {
		w.add("e.ends_at >= ?", from)
	}
	if f.EventType != "" {
		w.add("e.event_type = ?", f.EventType)
	}
	if f.Query != "" {
		p := w.next(likePattern(f.Query))
		w.add(fmt.Sprintf("(e.title ILIKE %[1]s OR e.description ILIKE %[1]s OR e.location ILIKE %[1]s)", p))
	}

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM events e`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "e.starts_at ASC"
	if f.Past {
		order = "e.starts_at DESC"
	}
	page := f.Page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM events e%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		eventColumns, w.sql(), order, len(w.args)+1, len(w.args)+2)

	events, err := r.list(ctx, query, append(w.args, page.Limit, page.Offset())...)
	return events, total, err
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	query := `
		UPDATE events SET title = $2, description = $3, location = $4, event_type = $5, starts_at = $6,
			ends_at = $7, capacity = $8, is_virtual = $9, url = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.Location,
		e.EventType,
		e.StartsAt,
		e.EndsAt,
		e.Capacity,
		e.IsVirtual,
		e.URL,
	).Scan(&e.UpdatedAt)
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}

func (r *EventRepository) FindRSVP(ctx context.Context, eventID, userID uuid.UUID) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT event_id, user_id, status, created_at, updated_at FROM event_rsvps WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&rsvp.EventID, &rsvp.UserID, &rsvp.Status, &rsvp.CreatedAt, &rsvp.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rsvp, nil
}

func (r *EventRepository) UserRSVPs(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string)
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT event_id, status FROM event_rsvps WHERE user_id = $1 AND event_id = ANY($2::uuid[])`,
		userID, uuidStrings(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, rows.Err()
}

func (r *EventRepository) UpsertRSVP(ctx context.Context, rsvp *models.RSVP) error {
	query := `
		INSERT INTO event_rsvps (event_id, user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query, rsvp.EventID, rsvp.UserID, rsvp.Status).
		Scan(&rsvp.CreatedAt, &rsvp.UpdatedAt)
}

func (r *EventRepository) DeleteRSVP(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM event_rsvps WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *EventRepository) CountRSVPs(ctx context.Context, eventID uuid.UUID, status string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM event_rsvps WHERE event_id = $1 AND status = $2`, eventID, status).Scan(&n)
	return n, err
}

func (r *EventRepository) Attendees(ctx context.Context, eventID uuid.UUID) ([]models.RSVP, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT event_id, user_id, status, created_at, updated_at FROM event_rsvps
		WHERE event_id = $1 AND status IN ('going', 'interested')
		ORDER BY status, updated_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.RSVP{}
	for rows.Next() {
		var rsvp models.RSVP
		if err := rows.Scan(&rsvp.EventID, &rsvp.UserID, &rsvp.Status, &rsvp.CreatedAt, &rsvp.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rsvp)
	}
	return out, rows.Err()
}

func (r *EventRepository) UpcomingForUser(ctx context.Context, userID uuid.UUID, from time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + `, rs.status FROM events e
		JOIN event_rsvps rs ON rs.event_id = e.id
		WHERE rs.user_id = $1 AND e.ends_at >= $2
		ORDER BY e.starts_at`
	rows, err := conn(ctx, r.pool).Query(ctx, query, userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Event{}
	for rows.Next() {
		var e models.Event
		var status string
		err := rows.Scan(
			&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location, &e.EventType, &e.StartsAt,
			&e.EndsAt, &e.Capacity, &e.IsVirtual, &e.URL, &e.CreatedAt, &e.UpdatedAt,
			&e.GoingCount, &e.InterestedCount, &status,
		)
		if err != nil {
			return nil, err
		}
		e.MyRSVP = &status
		out = append(out, e)
	}
	return out, rows.Err()
}
