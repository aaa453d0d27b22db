package repositories_test

import (
	"context"
	"testing"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	keys := repositories.NewAPIKeyRepository(p)
	dev := seedUser(t, users, "devon", func(u *models.User) { u.Role = models.RoleDeveloper })
	other := seedUser(t, users, "bilal", func(u *models.User) { u.Role = models.RoleDeveloper })

	ci := &models.APIKey{UserID: dev.ID, Prefix: "jc_live_aaaa", KeyHash: "hash-ci", Description: "CI"}
	nightly := &models.APIKey{UserID: dev.ID, Prefix: "jc_live_bbbb", KeyHash: "hash-sync", ExpiresAt: ptr(time.Now().Add(time.Hour))}
	theirs := &models.APIKey{UserID: other.ID, Prefix: "jc_live_cccc", KeyHash: "hash-theirs"}
	for _, k := range []*models.APIKey{ci, nightly, theirs} {
		require.NoError(t, keys.Create(ctx, k))
	}
	err := keys.Create(ctx, &models.APIKey{UserID: other.ID, Prefix: "jc_live_dddd", KeyHash: "hash-ci"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	found, err := keys.FindByHash(ctx, "hash-sync")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, nightly.ID, found.ID)
	require.NotNil(t, found.ExpiresAt)

	missing, err := keys.FindByHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, keys.TouchLastUsed(ctx, ci.ID, time.Now()))
	touched, err := keys.FindByID(ctx, ci.ID)
	require.NoError(t, err)
	assert.NotNil(t, touched.LastUsedAt)

	require.NoError(t, keys.Revoke(ctx, ci.ID))
	revoked, err := keys.RevokeAllForUser(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), revoked, "already revoked keys are not counted")
	revoked, err = keys.RevokeAllForUser(ctx, dev.ID)
	require.NoError(t, err)
	assert.Zero(t, revoked)

	mine, err := keys.ListByUser(ctx, dev.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, k := range mine {
		assert.True(t, k.Revoked)
	}

	all, err := keys.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	untouched, err := keys.FindByID(ctx, theirs.ID)
	require.NoError(t, err)
	assert.False(t, untouched.Revoked)
}

func TestAuditRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	audit := repositories.NewAuditRepository(p)
	admin := seedUser(t, users, "amara", func(u *models.User) { u.Role = models.RoleAdmin })
	target := seedUser(t, users, "bilal")

	base := time.Now().Add(-time.Minute)
	require.NoError(t, audit.Append(ctx, &models.AuditEntry{
		ActorID: admin.ID, Action: "user.updated", TargetType: "user", TargetID: &target.ID,
		Details:   map[string]any{"status": map[string]any{"from": "active", "to": "suspended"}},
		CreatedAt: base,
	}))
	require.NoError(t, audit.Append(ctx, &models.AuditEntry{
		ActorID: admin.ID, Action: "developer.granted", TargetType: "user", TargetID: &target.ID,
		CreatedAt: base.Add(time.Second),
	}))

	recent, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "developer.granted", recent[0].Action, "newest first")
	assert.Empty(t, recent[0].Details)
	assert.Equal(t, map[string]any{"from": "active", "to": "suspended"}, recent[1].Details["status"])
	require.NotNil(t, recent[1].TargetID)
	assert.Equal(t, target.ID, *recent[1].TargetID)

	limited, err := audit.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStatsRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	orders := repositories.NewOrderRepository(p)
	listings := repositories.NewListingRepository(p)
	events := repositories.NewEventRepository(p)
	groups := repositories.NewGroupPurchaseRepository(p)
	stats := repositories.NewStatsRepository(p)

	admin := seedUser(t, users, "amara", func(u *models.User) { u.Role = models.RoleAdmin })
	buyer := seedUser(t, users, "bilal")
	gone := seedUser(t, users, "chen")
	require.NoError(t, users.SoftDelete(ctx, gone.ID, time.Now()))

	// Totals past the int32 range exercise the bigint cast on SUM.
	tiara := seedGemstone(t, gems, admin.ID, "Imperial tiara", 1_500_000_000, 5)
	hidden := seedGemstone(t, gems, admin.ID, "Withdrawn opal", 1000, 1)
	hidden.IsActive = false
	require.NoError(t, gems.Update(ctx, hidden))

	seedOrder(t, orders, buyer.ID, "JC-20260101-0000A1", tiara, 2)
	cancelled := seedOrder(t, orders, buyer.ID, "JC-20260101-0000A2", tiara, 1)
	require.NoError(t, orders.UpdateStatus(ctx, cancelled.ID, models.OrderCancelled, time.Now()))

	seedListing(t, listings, buyer.ID, "Ring mandrel")
	sold := seedListing(t, listings, buyer.ID, "Loupe")
	require.NoError(t, listings.SetStatus(ctx, sold.ID, []string{models.ListingActive}, models.ListingSold))

	seedEvent(t, events, admin.ID, "Tucson Gem Show", time.Now().Add(24*time.Hour), nil)
	require.NoError(t, groups.Create(ctx, &models.GroupPurchase{
		OrganizerID: admin.ID, GemstoneID: tiara.ID, Title: "Tiara syndicate",
		TargetQuantity: 2, UnitPriceCents: 1_400_000_000, Deadline: time.Now().Add(time.Hour),
	}))

	got, err := stats.Stats(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalUsers, "deleted users are excluded")
	assert.Equal(t, int64(1), got.UsersByRole[models.RoleAdmin])
	assert.Equal(t, int64(3_000_000_000), got.RevenueCents)
	assert.Equal(t, int64(1), got.OrdersByStatus[models.OrderPending])
	assert.Equal(t, int64(1), got.OrdersByStatus[models.OrderCancelled])
	assert.Equal(t, int64(1), got.ActiveListings)
	assert.Equal(t, int64(1), got.ActiveGemstones)
	assert.Equal(t, int64(1), got.UpcomingEvents)
	assert.Equal(t, int64(1), got.OpenGroupPurchases)
}
