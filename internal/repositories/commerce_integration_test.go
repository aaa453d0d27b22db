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
	"go.uber.org/zap"
)

func seedOrder(t *testing.T, orders *repositories.OrderRepository, buyer uuid.UUID, number string, gem *models.Gemstone, qty int) *models.Order {
	t.Helper()
	o := &models.Order{
		OrderNumber:     number,
		UserID:          buyer,
		TotalCents:      gem.PriceCents * int64(qty),
		ShippingAddress: "1 Gem Row",
		Items: []models.OrderItem{
			{GemstoneID: gem.ID, Name: gem.Name, UnitPriceCents: gem.PriceCents, Quantity: qty},
		},
	}
	require.NoError(t, orders.Create(context.Background(), o))
	return o
}

func seedListing(t *testing.T, listings *repositories.ListingRepository, seller uuid.UUID, title string) *models.Listing {
	t.Helper()
	l := &models.Listing{SellerID: seller, Title: title, Category: "tools", Condition: "new", PriceCents: 2500, Quantity: 1}
	require.NoError(t, listings.Create(context.Background(), l))
	return l
}

func TestInventoryRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	inventory := repositories.NewInventoryRepository(p)
	owner := seedUser(t, users, "amara")

	public := &models.InventoryItem{OwnerID: owner.ID, Name: "Halo ring", Quantity: 2, IsPublic: true, PriceCents: ptr(int64(450000))}
	private := &models.InventoryItem{OwnerID: owner.ID, Name: "Estate brooch", Quantity: 1}
	require.NoError(t, inventory.Create(ctx, public))
	require.NoError(t, inventory.Create(ctx, private))

	shown, err := inventory.ListByOwner(ctx, owner.ID, true)
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, "Halo ring", shown[0].Name)
	require.NotNil(t, shown[0].PriceCents)
	assert.Equal(t, int64(450000), *shown[0].PriceCents)

	all, err := inventory.ListByOwner(ctx, owner.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	private.IsPublic = true
	private.PriceCents = nil
	require.NoError(t, inventory.Update(ctx, private))
	got, err := inventory.FindByID(ctx, private.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublic)
	assert.Nil(t, got.PriceCents, "price is optional")

	require.NoError(t, inventory.Delete(ctx, public.ID))
	gone, err := inventory.FindByID(ctx, public.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestListingRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	listings := repositories.NewListingRepository(p)
	tx := repositories.NewTxManager(p)
	seller := seedUser(t, users, "amara", func(u *models.User) { u.BusinessName = "Okafor Findings" })

	mandrel := seedListing(t, listings, seller.ID, "Ring mandrel")
	loupe := seedListing(t, listings, seller.ID, "Loupe 10x")

	require.NoError(t, tx.RunAtomic(ctx, func(ctx context.Context) error {
		locked, err := listings.LockByID(ctx, mandrel.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		require.NotNil(t, locked.Seller)
		assert.Equal(t, "Okafor Findings", locked.Seller.BusinessName)
		locked.PriceCents = 1999
		return listings.Update(ctx, locked)
	}))

	require.NoError(t, listings.SetStatus(ctx, loupe.ID, []string{models.ListingActive}, models.ListingSold))
	err := listings.SetStatus(ctx, loupe.ID, []string{models.ListingActive}, models.ListingSold)
	assert.ErrorIs(t, err, repositories.ErrStale)

	loupe.Title = "Loupe 10x, barely used"
	assert.ErrorIs(t, listings.Update(ctx, loupe), repositories.ErrStale, "sold listings are not editable")

	active, total, err := listings.List(ctx, models.ListingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1999), active[0].PriceCents)

	own, _, err := listings.List(ctx, models.ListingFilter{SellerID: &seller.ID, AllStatuses: true})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	require.NoError(t, listings.SetStatus(ctx, loupe.ID,
		[]string{models.ListingActive, models.ListingSold}, models.ListingRemoved))
	own, _, err = listings.List(ctx, models.ListingFilter{SellerID: &seller.ID, AllStatuses: true})
	require.NoError(t, err)
	assert.Len(t, own, 1, "removed listings never come back")

	sold, err := listings.FindByID(ctx, loupe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loupe 10x", sold.Title)
}

func TestOrderRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	orders := repositories.NewOrderRepository(p)
	tx := repositories.NewTxManager(p)

	seller := seedUser(t, users, "amara")
	buyer := seedUser(t, users, "bilal")
	other := seedUser(t, users, "chen")
	ruby := seedGemstone(t, gems, seller.ID, "Burmese Ruby", 90000, 5)

	first := seedOrder(t, orders, buyer.ID, "JC-20260101-00000A", ruby, 1)
	second := seedOrder(t, orders, buyer.ID, "JC-20260101-00000B", ruby, 2)
	seedOrder(t, orders, other.ID, "JC-20260101-00000C", ruby, 1)

	err := orders.Create(ctx, &models.Order{OrderNumber: first.OrderNumber, UserID: buyer.ID, ShippingAddress: "x"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	mine, total, err := orders.ListByUser(ctx, buyer.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, mine, 2)
	for _, o := range mine {
		require.Len(t, o.Items, 1, "items are attached to listed orders")
	}

	require.NoError(t, tx.RunAtomic(ctx, func(ctx context.Context) error {
		locked, err := orders.LockByID(ctx, second.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		assert.Equal(t, 2, locked.Items[0].Quantity)
		return orders.UpdateStatus(ctx, second.ID, models.OrderPaid, time.Now())
	}))

	paid, total, err := orders.List(ctx, models.OrderPaid, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, paid, 1)
	assert.Equal(t, second.ID, paid[0].ID)

	everything, total, err := orders.List(ctx, "", models.Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, everything, 2)

	missing, err := orders.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGroupPurchaseRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	groups := repositories.NewGroupPurchaseRepository(p)

	organizer := seedUser(t, users, "amara")
	bilal := seedUser(t, users, "bilal")
	chen := seedUser(t, users, "chen")
	pearls := seedGemstone(t, gems, organizer.ID, "Akoya strand", 40000, 50)

	g := &models.GroupPurchase{
		OrganizerID:    organizer.ID,
		GemstoneID:     pearls.ID,
		Title:          "Akoya bulk buy",
		TargetQuantity: 10,
		UnitPriceCents: 32000,
		Deadline:       time.Now().Add(time.Hour),
	}
	require.NoError(t, groups.Create(ctx, g))
	due := &models.GroupPurchase{
		OrganizerID:    organizer.ID,
		GemstoneID:     pearls.ID,
		Title:          "Expired run",
		TargetQuantity: 5,
		UnitPriceCents: 30000,
		Deadline:       time.Now().Add(-time.Minute),
	}
	require.NoError(t, groups.Create(ctx, due))

	require.NoError(t, groups.UpsertParticipant(ctx, g.ID, models.Participant{UserID: bilal.ID, Quantity: 3}))
	require.NoError(t, groups.UpsertParticipant(ctx, g.ID, models.Participant{UserID: chen.ID, Quantity: 2}))
	require.NoError(t, groups.UpsertParticipant(ctx, g.ID, models.Participant{UserID: bilal.ID, Quantity: 4}))

	got, err := groups.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.CommittedQuantity, "re-joining replaces the quantity")
	assert.Equal(t, 2, got.ParticipantCount)

	participants, err := groups.Participants(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	left, err := groups.DeleteParticipant(ctx, g.ID, chen.ID)
	require.NoError(t, err)
	assert.True(t, left)

	dueList, err := groups.ListDue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, dueList, 1)
	assert.Equal(t, due.ID, dueList[0].ID)
	assert.Zero(t, dueList[0].CommittedQuantity)

	require.NoError(t, groups.SetStatus(ctx, due.ID, models.GroupExpired))
	open, total, err := groups.List(ctx, models.GroupOpen, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, open, 1)
	assert.Equal(t, 4, open[0].CommittedQuantity)
}

func TestGroupPurchaseJoinsStopAtFunding(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	groups := repositories.NewGroupPurchaseRepository(p)
	svc := services.NewGroupPurchaseService(repositories.NewTxManager(p), groups, gems, users, zap.NewNop())

	organizer := seedUser(t, users, "amara")
	pearls := seedGemstone(t, gems, organizer.ID, "Akoya strand", 40000, 50)
	g := &models.GroupPurchase{
		OrganizerID:    organizer.ID,
		GemstoneID:     pearls.ID,
		Title:          "Akoya bulk buy",
		TargetQuantity: 3,
		UnitPriceCents: 32000,
		Deadline:       time.Now().Add(time.Hour),
	}
	require.NoError(t, groups.Create(ctx, g))

	const buyers = 6
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		closed int
	)
	for i := 0; i < buyers; i++ {
		id := seedUser(t, users, "buyer"+string(rune('a'+i))).ID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Join(ctx, id, g.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, services.ErrGroupClosed):
				closed++
			default:
				t.Errorf("unexpected join error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, joined)
	assert.Equal(t, buyers-3, closed)

	got, err := groups.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GroupFunded, got.Status)
	assert.Equal(t, 3, got.CommittedQuantity)
}
