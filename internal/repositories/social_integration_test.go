package repositories_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/repositories"
	"jewelconnect/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func seedEvent(t *testing.T, events *repositories.EventRepository, organizer uuid.UUID, title string, starts time.Time, capacity *int) *models.Event {
	t.Helper()
	e := &models.Event{
		OrganizerID: organizer,
		Title:       title,
		Location:    "Tucson",
		StartsAt:    starts,
		EndsAt:      starts.Add(8 * time.Hour),
		Capacity:    capacity,
	}
	require.NoError(t, events.Create(context.Background(), e))
	return e
}

func TestConnectionRepository_PairIsUndirected(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	conns := repositories.NewConnectionRepository(p)
	amara := seedUser(t, users, "amara")
	bilal := seedUser(t, users, "bilal")

	c := &models.Connection{RequesterID: amara.ID, AddresseeID: bilal.ID}
	require.NoError(t, conns.Create(ctx, c))
	assert.Equal(t, models.ConnectionPending, c.Status)

	err := conns.Create(ctx, &models.Connection{RequesterID: bilal.ID, AddresseeID: amara.ID})
	assert.ErrorIs(t, err, repositories.ErrDuplicate, "the reverse direction hits the same pair index")

	found, err := conns.FindBetween(ctx, bilal.ID, amara.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.ID, found.ID)

	incoming, err := conns.ListPending(ctx, bilal.ID, false)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
	outgoing, err := conns.ListPending(ctx, bilal.ID, true)
	require.NoError(t, err)
	assert.Empty(t, outgoing)

	c.Status = models.ConnectionAccepted
	require.NoError(t, conns.Update(ctx, c))

	accepted, err := conns.ListAccepted(ctx, amara.ID)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
	accepted, err = conns.ListAccepted(ctx, bilal.ID)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)

	require.NoError(t, conns.Delete(ctx, c.ID))
	gone, err := conns.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMessageRepository_Conversations(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	messages := repositories.NewMessageRepository(p)
	amara := seedUser(t, users, "amara")
	bilal := seedUser(t, users, "bilal")
	chen := seedUser(t, users, "chen")

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)
	send := func(from, to *models.User, body string, at time.Duration) {
		t.Helper()
		require.NoError(t, messages.Create(ctx, &models.Message{
			SenderID: from.ID, RecipientID: to.ID, Body: body, CreatedAt: base.Add(at),
		}))
	}
	send(bilal, amara, "hello", 0)
	send(amara, bilal, "hi back", time.Minute)
	send(chen, amara, "quote for the emeralds?", 2*time.Minute)
	send(chen, amara, "still there?", 3*time.Minute)

	convos, err := messages.Conversations(ctx, amara.ID)
	require.NoError(t, err)
	require.Len(t, convos, 2)
	assert.Equal(t, chen.ID, convos[0].Partner.ID, "latest conversation first")
	assert.Equal(t, "still there?", convos[0].LastMessage.Body)
	assert.Equal(t, 2, convos[0].UnreadCount)
	assert.Equal(t, bilal.ID, convos[1].Partner.ID)
	assert.Equal(t, "hi back", convos[1].LastMessage.Body)
	assert.Equal(t, 1, convos[1].UnreadCount, "only messages received by the caller count")

	read, err := messages.MarkRead(ctx, amara.ID, chen.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), read)

	convos, err = messages.Conversations(ctx, amara.ID)
	require.NoError(t, err)
	assert.Zero(t, convos[0].UnreadCount)

	unread, err := messages.UnreadCount(ctx, amara.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	thread, err := messages.Thread(ctx, amara.ID, bilal.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "hello", thread[0].Body, "threads read oldest first")

	before := base.Add(time.Minute)
	older, err := messages.Thread(ctx, bilal.ID, amara.ID, &before, 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "hello", older[0].Body)

	newest, err := messages.Thread(ctx, amara.ID, bilal.ID, nil, 1)
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, "hi back", newest[0].Body)
}

func TestEventRepository_RSVPs(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	events := repositories.NewEventRepository(p)
	organizer := seedUser(t, users, "amara")
	guest := seedUser(t, users, "bilal")

	show := seedEvent(t, events, organizer.ID, "Tucson Gem Show", time.Now().Add(24*time.Hour), nil)
	seedEvent(t, events, organizer.ID, "Last year's fair", time.Now().Add(-72*time.Hour), nil)

	require.NoError(t, events.UpsertRSVP(ctx, &models.RSVP{EventID: show.ID, UserID: guest.ID, Status: models.RSVPInterested}))
	require.NoError(t, events.UpsertRSVP(ctx, &models.RSVP{EventID: show.ID, UserID: guest.ID, Status: models.RSVPGoing}))
	require.NoError(t, events.UpsertRSVP(ctx, &models.RSVP{EventID: show.ID, UserID: organizer.ID, Status: models.RSVPNotGoing}))

	got, err := events.FindByID(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.GoingCount)
	assert.Zero(t, got.InterestedCount)

	attendees, err := events.Attendees(ctx, show.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 1, "not_going is not an attendee")
	assert.Equal(t, guest.ID, attendees[0].UserID)

	mine, err := events.UserRSVPs(ctx, guest.ID, []uuid.UUID{show.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RSVPGoing, mine[show.ID])

	upcoming, err := events.UpcomingForUser(ctx, guest.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	require.NotNil(t, upcoming[0].MyRSVP)
	assert.Equal(t, models.RSVPGoing, *upcoming[0].MyRSVP)

	list, total, err := events.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, show.ID, list[0].ID)

	past, _, err := events.List(ctx, models.EventFilter{Past: true})
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, "Last year's fair", past[0].Title)

	removed, err := events.DeleteRSVP(ctx, show.ID, guest.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = events.DeleteRSVP(ctx, show.ID, guest.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEventCapacityHoldsUnderConcurrentRSVPs(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	events := repositories.NewEventRepository(p)
	svc := services.NewEventService(repositories.NewTxManager(p), events, users)

	organizer := seedUser(t, users, "amara")
	workshop := seedEvent(t, events, organizer.ID, "Stone setting workshop", time.Now().Add(48*time.Hour), ptr(2))

	const guests = 6
	ids := make([]uuid.UUID, guests)
	for i := range ids {
		ids[i] = seedUser(t, users, "guest"+string(rune('a'+i))).ID
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.RSVP(ctx, id, workshop.ID, models.RSVPGoing)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, services.ErrEventFull):
				full++
			default:
				t.Errorf("unexpected rsvp error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, guests-2, full)

	going, err := events.CountRSVPs(ctx, workshop.ID, models.RSVPGoing)
	require.NoError(t, err)
	assert.Equal(t, 2, going)
}
