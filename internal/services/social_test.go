package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDirectory_HidesInactiveMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "zoe", models.RoleUser)
	suspended := f.user(t, "yusuf", models.RoleUser)
	deleted := f.user(t, "xena", models.RoleUser)

	suspended.Status = models.StatusSuspended
	require.NoError(t, f.mem.Users.UpdateAccess(ctx, suspended))
	require.NoError(t, f.mem.Users.SoftDelete(ctx, deleted.ID, time.Now()))

	users, meta, err := f.users.Directory(ctx, models.DirectoryFilter{Status: models.StatusSuspended, IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "zoe", users[0].Username)
	assert.Equal(t, int64(1), meta.Total)

	_, _, err = f.users.Directory(ctx, models.DirectoryFilter{UserType: "wizard"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestDirectory_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)

	_, err := f.users.UpdateProfile(ctx, a.ID, services.ProfileUpdate{
		UserType:    ptr("gemologist"),
		Location:    ptr("Antwerp"),
		Specialties: []string{"diamonds", " diamonds ", "grading"},
	})
	require.NoError(t, err)
	_, err = f.users.UpdateProfile(ctx, b.ID, services.ProfileUpdate{Location: ptr("Jaipur")})
	require.NoError(t, err)

	users, _, err := f.users.Directory(ctx, models.DirectoryFilter{Location: "antw"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, []string{"diamonds", "grading"}, users[0].Specialties)

	users, _, err = f.users.Directory(ctx, models.DirectoryFilter{Specialty: "grading", UserType: "gemologist"})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	users, _, err = f.users.Directory(ctx, models.DirectoryFilter{Query: "BIL"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, b.ID, users[0].ID)
}

func TestUpdateProfile_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "amara", models.RoleUser)

	_, err := f.users.UpdateProfile(ctx, u.ID, services.ProfileUpdate{FullName: ptr("   ")})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = f.users.UpdateProfile(ctx, u.ID, services.ProfileUpdate{UserType: ptr("wizard")})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	updated, err := f.users.UpdateProfile(ctx, u.ID, services.ProfileUpdate{Bio: ptr("  Third-generation setter. ")})
	require.NoError(t, err)
	assert.Equal(t, "Third-generation setter.", updated.Bio)
	assert.Equal(t, "amara", updated.FullName)
}

func TestDeleteAccount_LastAdminIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "root", models.RoleAdmin)
	member := f.user(t, "amara", models.RoleUser)

	assert.ErrorIs(t, f.users.DeleteAccount(ctx, admin.ID), services.ErrLastAdmin)

	require.NoError(t, f.users.DeleteAccount(ctx, member.ID))
	_, err := f.users.Get(ctx, member.ID)
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	f.user(t, "second", models.RoleAdmin)
	assert.NoError(t, f.users.DeleteAccount(ctx, admin.ID))
}

func TestConnectionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)

	conn, err := f.connections.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionPending, conn.Status)
	f.notifier.AssertCalled(t, "Notify", mock.Anything, b.ID, services.NotifyConnectionUpdate, mock.Anything)

	_, err = f.connections.Request(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, services.ErrConnectionExists, "reverse direction is the same pair")

	profile, err := f.users.Profile(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationPendingReceived, profile.ConnectionStatus)
	assert.Equal(t, conn.ID, *profile.ConnectionID)

	incoming, err := f.connections.Pending(ctx, b.ID, false)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "amara", incoming[0].User.Username)

	_, err = f.connections.Respond(ctx, a.ID, conn.ID, services.ActionAccept)
	assert.ErrorIs(t, err, services.ErrConnectionNotActor)

	accepted, err := f.connections.Respond(ctx, b.ID, conn.ID, services.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionAccepted, accepted.Status)

	_, err = f.connections.Respond(ctx, b.ID, conn.ID, services.ActionReject)
	assert.ErrorIs(t, err, services.ErrConnectionResolved)

	list, err := f.connections.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].User.ID)

	require.NoError(t, f.connections.Remove(ctx, a.ID, conn.ID))
	list, err = f.connections.List(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConnection_RejectedPairCanRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)

	conn, err := f.connections.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.connections.Respond(ctx, b.ID, conn.ID, services.ActionReject)
	require.NoError(t, err)

	retry, err := f.connections.Request(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, retry.ID)
	assert.Equal(t, b.ID, retry.RequesterID)
	assert.Equal(t, models.ConnectionPending, retry.Status)
}

func TestConnection_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)
	c := f.user(t, "carlos", models.RoleUser)

	_, err := f.connections.Request(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, services.ErrConnectionSelf)

	conn, err := f.connections.Request(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = f.connections.Respond(ctx, b.ID, conn.ID, "maybe")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	assert.ErrorIs(t, f.connections.Remove(ctx, c.ID, conn.ID), services.ErrConnectionNotFound)
}

func TestMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)

	_, err := f.messages.Send(ctx, a.ID, b.ID, "   ")
	assert.ErrorIs(t, err, services.ErrMessageLength)
	_, err = f.messages.Send(ctx, a.ID, b.ID, strings.Repeat("x", models.MaxMessageLength+1))
	assert.ErrorIs(t, err, services.ErrMessageLength)
	_, err = f.messages.Send(ctx, a.ID, a.ID, "hi me")
	assert.ErrorIs(t, err, services.ErrMessageSelf)

	for _, body := range []string{"first", "second", "third"} {
		_, err := f.messages.Send(ctx, a.ID, b.ID, body)
		require.NoError(t, err)
	}
	f.notifier.AssertCalled(t, "Notify", mock.Anything, b.ID, services.NotifyNewMessage, mock.Anything)
	f.notifier.AssertCalled(t, "Notify", mock.Anything, a.ID, services.NotifyNewMessage, mock.Anything)

	unread, err := f.messages.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	convs, err := f.messages.Conversations(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "amara", convs[0].Partner.Username)
	assert.Equal(t, "third", convs[0].LastMessage.Body)
	assert.Equal(t, 3, convs[0].UnreadCount)

	page, err := f.messages.Thread(ctx, b.ID, a.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "second", page[0].Body)
	assert.Equal(t, "third", page[1].Body)
	assert.NotNil(t, page[1].ReadAt)

	older, err := f.messages.Thread(ctx, b.ID, a.ID, &page[0].CreatedAt, 2)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "first", older[0].Body)

	unread, err = f.messages.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestMessages_InactiveRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "amara", models.RoleUser)
	b := f.user(t, "bilal", models.RoleUser)
	require.NoError(t, f.mem.Users.SoftDelete(ctx, b.ID, time.Now()))

	_, err := f.messages.Send(ctx, a.ID, b.ID, "hello")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
