package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
)

type EventInput struct {
	Title       *string
	Description *string
	Location    *string
	EventType   *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    *int
	// ClearCapacity removes the limit on update.
	ClearCapacity bool
	IsVirtual     *bool
	URL           *string
}

type EventService struct {
	tx     Transactor
	events EventStore
	users  UserStore
	now    func() time.Time
}

func NewEventService(tx Transactor, events EventStore, users UserStore) *EventService {
	return &EventService{tx: tx, events: events, users: users, now: time.Now}
}

func (s *EventService) List(ctx context.Context, viewerID uuid.UUID, f models.EventFilter) ([]models.Event, models.PageMeta, error) {
	if f.EventType != "" && !utils.Contains(models.EventTypes, f.EventType) {
		return nil, models.PageMeta{}, invalid("unknown event_type")
	}
	f.Query = strings.TrimSpace(f.Query)
	f.From = s.now()

	events, total, err := s.events.List(ctx, f)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list events: %w", err)
	}
	if err := s.attachRSVPs(ctx, viewerID, events); err != nil {
		return nil, models.PageMeta{}, err
	}
	return events, models.NewPageMeta(f.Page, total), nil
}

func (s *EventService) attachRSVPs(ctx context.Context, viewerID uuid.UUID, events []models.Event) error {
	if viewerID == uuid.Nil || len(events) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	mine, err := s.events.UserRSVPs(ctx, viewerID, ids)
	if err != nil {
		return fmt.Errorf("load rsvps: %w", err)
	}
	for i := range events {
		if status, ok := mine[events[i].ID]; ok {
			events[i].MyRSVP = &status
		}
	}
	return nil
}

func (s *EventService) Get(ctx context.Context, viewerID, id uuid.UUID) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	events := []models.Event{*event}
	if err := s.attachRSVPs(ctx, viewerID, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

func (s *EventService) Create(ctx context.Context, organizerID uuid.UUID, in EventInput) (*models.Event, error) {
	event := &models.Event{OrganizerID: organizerID}
	if err := applyEventInput(event, in); err != nil {
		return nil, err
	}
	if event.Title == "" {
		return nil, invalid("title is required")
	}
	if event.StartsAt.IsZero() || event.EndsAt.IsZero() {
		return nil, invalid("starts_at and ends_at are required")
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *EventService) Update(ctx context.Context, actor Actor, id uuid.UUID, in EventInput) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !actor.CanManage(event.OrganizerID) {
		return nil, ErrNotOwner
	}
	if err := applyEventInput(event, in); err != nil {
		return nil, err
	}
	if event.Title == "" {
		return nil, invalid("title is required")
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func applyEventInput(e *models.Event, in EventInput) error {
	if in.Title != nil {
		e.Title = utils.CleanText(*in.Title)
	}
	setText(&e.Description, in.Description)
	setText(&e.Location, in.Location)
	setText(&e.URL, in.URL)
	if in.EventType != nil {
		if !utils.Contains(models.EventTypes, *in.EventType) {
			return invalid("unknown event_type")
		}
		e.EventType = *in.EventType
	}
	if in.StartsAt != nil {
		e.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		e.EndsAt = *in.EndsAt
	}
	if in.IsVirtual != nil {
		e.IsVirtual = *in.IsVirtual
	}
	if in.ClearCapacity {
		e.Capacity = nil
	} else if in.Capacity != nil {
		if *in.Capacity < 1 {
			return invalid("capacity must be at least 1")
		}
		c := *in.Capacity
		e.Capacity = &c
	}
	if !e.StartsAt.IsZero() && !e.EndsAt.After(e.StartsAt) {
		return invalid("ends_at must be after starts_at")
	}
	return nil
}

func (s *EventService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}
	if !actor.CanManage(event.OrganizerID) {
		return ErrNotOwner
	}
	return s.events.Delete(ctx, id)
}

// RSVP records the user's intent. Capacity is checked with the event row
// locked so concurrent "going" responses cannot overshoot it.
func (s *EventService) RSVP(ctx context.Context, userID, eventID uuid.UUID, status string) (*models.RSVP, error) {
	if !utils.Contains(models.RSVPStatuses, status) {
		return nil, invalid("status must be going, interested or not_going")
	}

	rsvp := &models.RSVP{EventID: eventID, UserID: userID, Status: status}
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		event, err := s.events.LockByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrEventNotFound
		}
		if !event.EndsAt.After(s.now()) {
			return ErrEventPast
		}

		if status == models.RSVPGoing && event.Capacity != nil {
			current, err := s.events.FindRSVP(ctx, eventID, userID)
			if err != nil {
				return err
			}
			alreadyGoing := current != nil && current.Status == models.RSVPGoing
			going, err := s.events.CountRSVPs(ctx, eventID, models.RSVPGoing)
			if err != nil {
				return err
			}
			if !alreadyGoing && event.IsFull(going) {
				return ErrEventFull
			}
		}
		return s.events.UpsertRSVP(ctx, rsvp)
	})
	if err != nil {
		return nil, err
	}
	return rsvp, nil
}

func (s *EventService) CancelRSVP(ctx context.Context, userID, eventID uuid.UUID) error {
	deleted, err := s.events.DeleteRSVP(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return newError(ErrNotFound, "rsvp not found")
	}
	return nil
}

func (s *EventService) Attendees(ctx context.Context, eventID uuid.UUID) ([]models.Attendee, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	rsvps, err := s.events.Attendees(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rsvps))
	for i := range rsvps {
		ids[i] = rsvps[i].UserID
	}
	cards, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.Attendee, len(rsvps))
	for i, r := range rsvps {
		out[i] = models.Attendee{User: cards[r.UserID], Status: r.Status, RespondedAt: r.UpdatedAt}
	}
	return out, nil
}

func (s *EventService) MyRSVPs(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	return s.events.UpcomingForUser(ctx, userID, s.now())
}
