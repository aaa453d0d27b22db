package services_test

import (
	"context"
	"testing"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventInput(title string, starts time.Time, capacity *int) services.EventInput {
	return services.EventInput{
		Title:     ptr(title),
		EventType: ptr("trade_show"),
		Location:  ptr("Tucson"),
		StartsAt:  ptr(starts),
		EndsAt:    ptr(starts.Add(4 * time.Hour)),
		Capacity:  capacity,
	}
}

func TestEventCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	organizer := f.user(t, "amara", models.RoleUser)
	start := future(24 * time.Hour)

	tests := []struct {
		name   string
		mutate func(*services.EventInput)
	}{
		{"missing title", func(in *services.EventInput) { in.Title = ptr(" ") }},
		{"unknown type", func(in *services.EventInput) { in.EventType = ptr("rave") }},
		{"ends before start", func(in *services.EventInput) { in.EndsAt = ptr(start.Add(-time.Hour)) }},
		{"zero capacity", func(in *services.EventInput) { in.Capacity = ptr(0) }},
		{"missing times", func(in *services.EventInput) { in.StartsAt, in.EndsAt = nil, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := eventInput("Gem Fair", start, nil)
			tt.mutate(&in)
			_, err := f.events.Create(ctx, organizer.ID, in)
			assert.ErrorIs(t, err, services.ErrInvalidInput)
		})
	}
}

func TestEventRSVP_Capacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	organizer := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)
	c := f.user(t, "carlos", models.RoleUser)

	event, err := f.events.Create(ctx, organizer.ID, eventInput("Bench Workshop", future(time.Hour), ptr(1)))
	require.NoError(t, err)

	_, err = f.events.RSVP(ctx, b.ID, event.ID, models.RSVPGoing)
	require.NoError(t, err)

	_, err = f.events.RSVP(ctx, c.ID, event.ID, models.RSVPGoing)
	assert.ErrorIs(t, err, services.ErrEventFull)

	_, err = f.events.RSVP(ctx, b.ID, event.ID, models.RSVPGoing)
	assert.NoError(t, err, "repeating an existing going response is allowed at capacity")

	_, err = f.events.RSVP(ctx, c.ID, event.ID, models.RSVPInterested)
	require.NoError(t, err)

	got, err := f.events.Get(ctx, c.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.GoingCount)
	assert.Equal(t, 1, got.InterestedCount)
	require.NotNil(t, got.MyRSVP)
	assert.Equal(t, models.RSVPInterested, *got.MyRSVP)

	attendees, err := f.events.Attendees(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 2)
	assert.Equal(t, "bilal", attendees[0].User.Username)

	_, err = f.events.Update(ctx, actor(organizer), event.ID, services.EventInput{ClearCapacity: true})
	require.NoError(t, err)
	_, err = f.events.RSVP(ctx, c.ID, event.ID, models.RSVPGoing)
	assert.NoError(t, err)
}

func TestEventRSVP_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	organizer := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)

	past, err := f.events.Create(ctx, organizer.ID, eventInput("Old Fair", time.Now().Add(-48*time.Hour), nil))
	require.NoError(t, err)

	_, err = f.events.RSVP(ctx, b.ID, past.ID, models.RSVPGoing)
	assert.ErrorIs(t, err, services.ErrEventPast)

	_, err = f.events.RSVP(ctx, b.ID, past.ID, "perhaps")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = f.events.RSVP(ctx, b.ID, uuid.New(), models.RSVPGoing)
	assert.ErrorIs(t, err, services.ErrEventNotFound)

	err = f.events.CancelRSVP(ctx, b.ID, past.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestEventList_UpcomingAndPast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	organizer := f.user(t, "amara", models.RoleUser)

	later, err := f.events.Create(ctx, organizer.ID, eventInput("Later", future(72*time.Hour), nil))
	require.NoError(t, err)
	sooner, err := f.events.Create(ctx, organizer.ID, eventInput("Sooner", future(24*time.Hour), nil))
	require.NoError(t, err)
	_, err = f.events.Create(ctx, organizer.ID, eventInput("Done", time.Now().Add(-72*time.Hour), nil))
	require.NoError(t, err)

	upcoming, meta, err := f.events.List(ctx, organizer.ID, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, int64(2), meta.Total)
	assert.Equal(t, sooner.ID, upcoming[0].ID)
	assert.Equal(t, later.ID, upcoming[1].ID)

	past, _, err := f.events.List(ctx, organizer.ID, models.EventFilter{Past: true})
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, "Done", past[0].Title)

	_, _, err = f.events.List(ctx, organizer.ID, models.EventFilter{EventType: "rave"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestEventOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	organizer := f.user(t, "amara", models.RoleUser)
	other := f.user(t, "bilal", models.RoleUser)
	admin := f.user(t, "root", models.RoleAdmin)

	event, err := f.events.Create(ctx, organizer.ID, eventInput("Gem Fair", future(time.Hour), nil))
	require.NoError(t, err)

	_, err = f.events.Update(ctx, actor(other), event.ID, services.EventInput{Title: ptr("Mine now")})
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, f.events.Delete(ctx, actor(other), event.ID), services.ErrNotOwner)

	updated, err := f.events.Update(ctx, actor(admin), event.ID, services.EventInput{Title: ptr("Gem Fair 2026")})
	require.NoError(t, err)
	assert.Equal(t, "Gem Fair 2026", updated.Title)

	require.NoError(t, f.events.Delete(ctx, actor(organizer), event.ID))
	_, err = f.events.Get(ctx, organizer.ID, event.ID)
	assert.ErrorIs(t, err, services.ErrEventNotFound)
}

func TestMyRSVPs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	organizer := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)

	event, err := f.events.Create(ctx, organizer.ID, eventInput("Gem Fair", future(time.Hour), nil))
	require.NoError(t, err)
	_, err = f.events.RSVP(ctx, b.ID, event.ID, models.RSVPInterested)
	require.NoError(t, err)

	mine, err := f.events.MyRSVPs(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.RSVPInterested, *mine[0].MyRSVP)

	require.NoError(t, f.events.CancelRSVP(ctx, b.ID, event.ID))
	mine, err = f.events.MyRSVPs(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestInventoryShowcase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "amara", models.RoleUser)
	visitor := f.user(t, "bilal", models.RoleUser)

	_, err := f.inventory.Create(ctx, owner.ID, services.InventoryInput{Name: ptr("Opal ring"), PriceCents: ptr(int64(42000))})
	require.NoError(t, err)
	private, err := f.inventory.Create(ctx, owner.ID, services.InventoryInput{Name: ptr("Prototype"), IsPublic: ptr(false)})
	require.NoError(t, err)

	items, err := f.inventory.Showcase(ctx, visitor.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Opal ring", items[0].Name)

	items, err = f.inventory.Showcase(ctx, owner.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = f.inventory.Update(ctx, visitor.ID, private.ID, services.InventoryInput{Name: ptr("Stolen")})
	assert.ErrorIs(t, err, services.ErrNotOwner)
	assert.ErrorIs(t, f.inventory.Delete(ctx, owner.ID, uuid.New()), services.ErrInventoryNotFound)

	_, err = f.inventory.Create(ctx, owner.ID, services.InventoryInput{Name: ptr(" ")})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = f.inventory.Showcase(ctx, visitor.ID, uuid.New())
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
