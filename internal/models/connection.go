package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

// Connection status as seen from one user's profile page.
const (
	RelationNone            = "none"
	RelationPendingSent     = "pending_sent"
	RelationPendingReceived = "pending_received"
	RelationConnected       = "connected"
	RelationSelf            = "self"
)

type Connection struct {
	ID          uuid.UUID    `json:"id"`
	RequesterID uuid.UUID    `json:"requester_id"`
	AddresseeID uuid.UUID    `json:"addressee_id"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	User        *UserSummary `json:"user,omitempty"`
}

func (c *Connection) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ConnectionPending
	}
}

func (c *Connection) Involves(userID uuid.UUID) bool {
	return c.RequesterID == userID || c.AddresseeID == userID
}

// Other returns the participant that is not userID.
func (c *Connection) Other(userID uuid.UUID) uuid.UUID {
	if c.RequesterID == userID {
		return c.AddresseeID
	}
	return c.RequesterID
}

// RelationFor describes the connection from viewer's side.
func (c *Connection) RelationFor(viewer uuid.UUID) string {
	switch c.Status {
	case ConnectionAccepted:
		return RelationConnected
	case ConnectionPending:
		if c.RequesterID == viewer {
			return RelationPendingSent
		}
		return RelationPendingReceived
	default:
		return RelationNone
	}
}
