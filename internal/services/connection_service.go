package services

import (
	"context"
	"fmt"

	"jewelconnect/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	NotifyConnectionUpdate = "connection_update"
	NotifyNewMessage       = "new_message"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

type ConnectionService struct {
	tx          Transactor
	connections ConnectionStore
	users       UserStore
	notifier    Notifier
	log         *zap.Logger
}

func NewConnectionService(tx Transactor, connections ConnectionStore, users UserStore, notifier Notifier, log *zap.Logger) *ConnectionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ConnectionService{tx: tx, connections: connections, users: users, notifier: notifier, log: log}
}

// Request sends a connection request. A previously rejected pair is reset to
// pending with the caller as requester.
func (s *ConnectionService) Request(ctx context.Context, requesterID, targetID uuid.UUID) (*models.Connection, error) {
	if requesterID == targetID {
		return nil, ErrConnectionSelf
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.IsActive() {
		return nil, ErrUserNotFound
	}

	var conn *models.Connection
	err = s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		existing, err := s.connections.FindBetween(ctx, requesterID, targetID)
		if err != nil {
			return err
		}

		if existing == nil {
			conn = &models.Connection{RequesterID: requesterID, AddresseeID: targetID}
			return s.connections.Create(ctx, conn)
		}
		if existing.Status != models.ConnectionRejected {
			return ErrConnectionExists
		}

		existing.RequesterID = requesterID
		existing.AddresseeID = targetID
		existing.Status = models.ConnectionPending
		conn = existing
		return s.connections.Update(ctx, existing)
	})
	if err != nil {
		return nil, mapDuplicate(err, ErrConnectionExists)
	}

	s.notify(ctx, targetID, conn)
	return conn, nil
}

func (s *ConnectionService) Respond(ctx context.Context, userID, connectionID uuid.UUID, action string) (*models.Connection, error) {
	var status string
	switch action {
	case ActionAccept:
		status = models.ConnectionAccepted
	case ActionReject:
		status = models.ConnectionRejected
	default:
		return nil, invalid("action must be accept or reject")
	}

	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil || !conn.Involves(userID) {
		return nil, ErrConnectionNotFound
	}
	if conn.AddresseeID != userID {
		return nil, ErrConnectionNotActor
	}
	if conn.Status != models.ConnectionPending {
		return nil, ErrConnectionResolved
	}

	conn.Status = status
	if err := s.connections.Update(ctx, conn); err != nil {
		return nil, fmt.Errorf("update connection: %w", err)
	}

	if status == models.ConnectionAccepted {
		s.notify(ctx, conn.RequesterID, conn)
	}
	return conn, nil
}

// Remove lets either participant withdraw a request or end a connection.
func (s *ConnectionService) Remove(ctx context.Context, userID, connectionID uuid.UUID) error {
	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn == nil || !conn.Involves(userID) {
		return ErrConnectionNotFound
	}
	if err := s.connections.Delete(ctx, connectionID); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	s.notify(ctx, conn.Other(userID), conn)
	return nil
}

func (s *ConnectionService) List(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	conns, err := s.connections.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, userID, conns)
}

func (s *ConnectionService) Pending(ctx context.Context, userID uuid.UUID, outgoing bool) ([]models.Connection, error) {
	conns, err := s.connections.ListPending(ctx, userID, outgoing)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, userID, conns)
}

func (s *ConnectionService) withCounterparts(ctx context.Context, userID uuid.UUID, conns []models.Connection) ([]models.Connection, error) {
	ids := make([]uuid.UUID, len(conns))
	for i := range conns {
		ids[i] = conns[i].Other(userID)
	}
	cards, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	for i := range conns {
		card := cards[ids[i]]
		conns[i].User = &card
	}
	return conns, nil
}

func (s *ConnectionService) notify(ctx context.Context, userID uuid.UUID, conn *models.Connection) {
	payload := map[string]any{"connection_id": conn.ID, "status": conn.Status}
	if err := s.notifier.Notify(ctx, userID, NotifyConnectionUpdate, payload); err != nil {
		s.log.Warn("failed to publish connection update", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
