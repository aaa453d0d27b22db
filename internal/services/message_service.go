package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultThreadLimit = 50
	MaxThreadLimit     = 200
)

type MessageService struct {
	messages MessageStore
	users    UserStore
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewMessageService(messages MessageStore, users UserStore, notifier Notifier, log *zap.Logger) *MessageService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MessageService{messages: messages, users: users, notifier: notifier, log: log, now: time.Now}
}

func (s *MessageService) Send(ctx context.Context, senderID, recipientID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > models.MaxMessageLength {
		return nil, ErrMessageLength
	}
	if senderID == recipientID {
		return nil, ErrMessageSelf
	}

	recipient, err := s.users.FindByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil || !recipient.IsActive() {
		return nil, ErrUserNotFound
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	// Both sides refetch; the sender may have other tabs open.
	payload := map[string]any{"message_id": msg.ID, "sender_id": senderID, "recipient_id": recipientID}
	for _, uid := range []uuid.UUID{recipientID, senderID} {
		if err := s.notifier.Notify(ctx, uid, NotifyNewMessage, payload); err != nil {
			s.log.Warn("failed to publish message notification", zap.String("user_id", uid.String()), zap.Error(err))
		}
	}
	return msg, nil
}

// Thread returns the conversation with partnerID and marks the partner's
// messages to userID as read.
func (s *MessageService) Thread(ctx context.Context, userID, partnerID uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultThreadLimit
	}
	if limit > MaxThreadLimit {
		limit = MaxThreadLimit
	}

	partner, err := s.users.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, ErrUserNotFound
	}

	msgs, err := s.messages.Thread(ctx, userID, partnerID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	if before == nil {
		now := s.now()
		if _, err := s.messages.MarkRead(ctx, userID, partnerID, now); err != nil {
			return nil, fmt.Errorf("mark read: %w", err)
		}
		for i := range msgs {
			if msgs[i].RecipientID == userID && msgs[i].ReadAt == nil {
				msgs[i].ReadAt = &now
			}
		}
	}
	return msgs, nil
}

func (s *MessageService) Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	convs, err := s.messages.Conversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}

	ids := make([]uuid.UUID, len(convs))
	for i := range convs {
		ids[i] = convs[i].Partner.ID
	}
	cards, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		convs[i].Partner = cards[ids[i]]
	}
	return convs, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.messages.UnreadCount(ctx, userID)
}
