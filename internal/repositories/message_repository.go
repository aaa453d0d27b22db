package repositories

import (
	"context"
	"time"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	m.Prepare()

	query := `
		INSERT INTO messages (id, sender_id, recipient_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query, m.ID, m.SenderID, m.RecipientID, m.Body, m.CreatedAt)
	return err
}

func (r *MessageRepository) Thread(ctx context.Context, a, b uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	// Newest page first, then flipped to chronological order.
	query := `
		SELECT id, sender_id, recipient_id, body, read_at, created_at FROM (
			SELECT id, sender_id, recipient_id, body, read_at, created_at
			FROM messages
			WHERE ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))
			  AND ($3::timestamptz IS NULL OR created_at < $3)
			ORDER BY created_at DESC
			LIMIT $4
		) page
		ORDER BY created_at ASC
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, a, b, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepository) MarkRead(ctx context.Context, recipientID, senderID uuid.UUID, at time.Time) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE messages SET read_at = $3 WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`,
		recipientID, senderID, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepository) Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	query := `
		WITH mine AS (
			SELECT m.*, CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END AS partner_id
			FROM messages m
			WHERE m.sender_id = $1 OR m.recipient_id = $1
		),
		latest AS (
			SELECT DISTINCT ON (partner_id) *
			FROM mine
			ORDER BY partner_id, created_at DESC
		)
		SELECT l.partner_id, l.id, l.sender_id, l.recipient_id, l.body, l.read_at, l.created_at,
			(SELECT COUNT(*) FROM mine u
			 WHERE u.partner_id = l.partner_id AND u.recipient_id = $1 AND u.read_at IS NULL)
		FROM latest l
		ORDER BY l.created_at DESC
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		m := &c.LastMessage
		if err := rows.Scan(&c.Partner.ID, &m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.ReadAt, &m.CreatedAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *MessageRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	return n, err
}
