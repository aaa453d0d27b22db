package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	GroupOpen      = "open"
	GroupFunded    = "funded"
	GroupExpired   = "expired"
	GroupCancelled = "cancelled"
)

var GroupStatuses = []string{GroupOpen, GroupFunded, GroupExpired, GroupCancelled}

type GroupPurchase struct {
	ID                uuid.UUID     `json:"id"`
	OrganizerID       uuid.UUID     `json:"organizer_id"`
	GemstoneID        uuid.UUID     `json:"gemstone_id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	TargetQuantity    int           `json:"target_quantity"`
	UnitPriceCents    int64         `json:"unit_price_cents"`
	Deadline          time.Time     `json:"deadline"`
	Status            string        `json:"status"`
	CommittedQuantity int           `json:"committed_quantity"`
	ParticipantCount  int           `json:"participant_count"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	Participants      []Participant `json:"participants,omitempty"`
}

func (g *GroupPurchase) Prepare() {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = GroupOpen
	}
}

// IsJoinable reports whether members may still commit quantity at now.
func (g *GroupPurchase) IsJoinable(now time.Time) bool {
	return g.Status == GroupOpen && now.Before(g.Deadline)
}

// ClosingStatus is the status an open purchase takes once its deadline passes.
func (g *GroupPurchase) ClosingStatus() string {
	if g.CommittedQuantity >= g.TargetQuantity {
		return GroupFunded
	}
	return GroupExpired
}

type Participant struct {
	UserID   uuid.UUID    `json:"user_id"`
	Quantity int          `json:"quantity"`
	JoinedAt time.Time    `json:"joined_at"`
	User     *UserSummary `json:"user,omitempty"`
}
