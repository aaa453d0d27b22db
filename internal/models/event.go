package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RSVPGoing      = "going"
	RSVPInterested = "interested"
	RSVPNotGoing   = "not_going"
)

var EventTypes = []string{
	"trade_show", "exhibition", "workshop", "networking", "webinar", "auction", "other",
}

var RSVPStatuses = []string{RSVPGoing, RSVPInterested, RSVPNotGoing}

type Event struct {
	ID              uuid.UUID `json:"id"`
	OrganizerID     uuid.UUID `json:"organizer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	EventType       string    `json:"event_type"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Capacity        *int      `json:"capacity,omitempty"`
	IsVirtual       bool      `json:"is_virtual"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	GoingCount      int       `json:"going_count"`
	InterestedCount int       `json:"interested_count"`
	MyRSVP          *string   `json:"my_rsvp,omitempty"`
}

func (e *Event) Prepare() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EventType == "" {
		e.EventType = "other"
	}
}

// IsFull reports whether another "going" RSVP would exceed capacity.
func (e *Event) IsFull(going int) bool {
	return e.Capacity != nil && going >= *e.Capacity
}

type EventFilter struct {
	Query     string
	EventType string
	Past      bool
	From      time.Time
	Page      Page
}

type RSVP struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Attendee struct {
	User        UserSummary `json:"user"`
	Status      string      `json:"status"`
	RespondedAt time.Time   `json:"responded_at"`
}
