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
	"jewelconnect/internal/testutil"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedUser(t *testing.T, users *repositories.UserRepository, username string, mutate ...func(*models.User)) *models.User {
	t.Helper()
	u := &models.User{
		Email:    username + "@example.com",
		Username: username,
		FullName: username,
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func seedGemstone(t *testing.T, gems *repositories.GemstoneRepository, seller uuid.UUID, name string, price int64, stock int) *models.Gemstone {
	t.Helper()
	g := &models.Gemstone{
		SellerID:   seller,
		Name:       name,
		GemType:    "ruby",
		Carat:      1.25,
		PriceCents: price,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, gems.Create(context.Background(), g))
	return g
}

func TestUserRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)

	amara := seedUser(t, users, "amara", func(u *models.User) {
		u.FullName = "Amara Okafor"
		u.Location = "Antwerp"
		u.Specialties = []string{"diamonds", "appraisal"}
		u.Role = models.RoleAdmin
	})
	seedUser(t, users, "bilal", func(u *models.User) {
		u.FullName = "Bilal Haddad"
		u.Location = "Dubai"
		u.Specialties = []string{"pearls"}
	})

	err := users.Create(ctx, &models.User{Email: "AMARA@example.com", Username: "amara2"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate, "emails are stored lowercased")

	got, err := users.FindByUsername(ctx, "amara")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, amara.ID, got.ID)
	assert.ElementsMatch(t, []string{"diamonds", "appraisal"}, got.Specialties)

	missing, err := users.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	found, total, err := users.Search(ctx, models.DirectoryFilter{Specialty: "pearls"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "bilal", found[0].Username)

	all, total, err := users.Search(ctx, models.DirectoryFilter{Page: models.Page{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, all, 1)
	assert.Equal(t, "amara", all[0].Username, "ordered by full name")

	admins, err := users.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	require.NoError(t, users.SoftDelete(ctx, amara.ID, time.Now()))
	admins, err = users.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, admins)

	_, total, err = users.Search(ctx, models.DirectoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestTxManager(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	tx := repositories.NewTxManager(p)
	users := repositories.NewUserRepository(p)

	boom := errors.New("boom")
	var rolledBack uuid.UUID
	err := tx.RunAtomic(ctx, func(ctx context.Context) error {
		u := &models.User{Email: "ghost@example.com", Username: "ghost"}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		rolledBack = u.ID
		// Nested calls join the outer transaction.
		return tx.RunAtomic(ctx, func(ctx context.Context) error {
			inside, err := users.FindByID(ctx, rolledBack)
			require.NoError(t, err)
			require.NotNil(t, inside)
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	gone, err := users.FindByID(ctx, rolledBack)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var committed uuid.UUID
	require.NoError(t, tx.RunAtomic(ctx, func(ctx context.Context) error {
		u := &models.User{Email: "real@example.com", Username: "real"}
		err := users.Create(ctx, u)
		committed = u.ID
		return err
	}))
	kept, err := users.FindByID(ctx, committed)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestGemstoneRepository(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	seller := seedUser(t, users, "amara")

	ruby := seedGemstone(t, gems, seller.ID, "Burmese Ruby", 90000, 2)
	seedGemstone(t, gems, seller.ID, "Thai Ruby", 30000, 5)

	require.Error(t, gems.AdjustStock(ctx, ruby.ID, -3), "stock never goes negative")
	require.NoError(t, gems.AdjustStock(ctx, ruby.ID, -2))

	got, err := gems.FindByID(ctx, ruby.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
	assert.InDelta(t, 1.25, got.Carat, 0.0001)

	maxPrice := int64(50000)
	list, total, err := gems.List(ctx, models.GemstoneFilter{Query: "ruby", MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Thai Ruby", list[0].Name)
}

func TestCheckoutNeverOversells(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	cart := repositories.NewCartRepository(p)
	orders := services.NewOrderService(
		repositories.NewTxManager(p),
		repositories.NewOrderRepository(p),
		cart,
		gems,
		testutil.NewMemory().Idempotency,
		zap.NewNop(),
	)

	seller := seedUser(t, users, "amara")
	gem := seedGemstone(t, gems, seller.ID, "Padparadscha", 120000, 3)

	const buyers = 6
	ids := make([]uuid.UUID, buyers)
	for i := range ids {
		u := seedUser(t, users, "buyer"+string(rune('a'+i)))
		ids[i] = u.ID
		require.NoError(t, cart.Save(ctx, &models.CartItem{UserID: u.ID, GemstoneID: gem.ID, Quantity: 1}))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		placed  int
		refused int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := orders.Checkout(ctx, id, services.CheckoutInput{ShippingAddress: "1 Gem Row"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, services.ErrInsufficientStock):
				refused++
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, placed)
	assert.Equal(t, buyers-3, refused)

	got, err := gems.FindByID(ctx, gem.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
}

func TestStaleWritesKeepOtherColumns(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	listings := repositories.NewListingRepository(p)

	seller := seedUser(t, users, "amara", func(u *models.User) { u.PasswordHash = "hash-1" })
	gem := seedGemstone(t, gems, seller.ID, "Kashmir Sapphire", 250000, 3)

	stale, err := gems.FindByID(ctx, gem.ID)
	require.NoError(t, err)
	require.NoError(t, gems.AdjustStock(ctx, gem.ID, -1))
	stale.Description = "Cornflower blue"
	require.NoError(t, gems.Update(ctx, stale))
	assert.Equal(t, 2, stale.Stock, "edits report the stored stock")
	got, err := gems.FindByID(ctx, gem.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, "Cornflower blue", got.Description)

	require.NoError(t, gems.SetStock(ctx, gem.ID, 9))
	got, err = gems.FindByID(ctx, gem.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock)

	profile, err := users.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	suspended := *profile
	suspended.Status = models.StatusSuspended
	require.NoError(t, users.UpdateAccess(ctx, &suspended))
	profile.Bio = "Sapphire specialist"
	profile.PasswordHash = "ignored"
	require.NoError(t, users.UpdateProfile(ctx, profile))
	stored, err := users.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sapphire specialist", stored.Bio)
	assert.Equal(t, models.StatusSuspended, stored.Status)
	assert.Equal(t, "hash-1", stored.PasswordHash)

	listing := seedListing(t, listings, seller.ID, "Tweezers")
	staleListing, err := listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.NoError(t, listings.SetStatus(ctx, listing.ID, []string{models.ListingActive}, models.ListingSold))
	staleListing.PriceCents = 100
	assert.ErrorIs(t, listings.Update(ctx, staleListing), repositories.ErrStale)
	soldListing, err := listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingSold, soldListing.Status)
}

func TestGemstoneEditsDuringCheckouts(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	tx := repositories.NewTxManager(p)
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	cart := repositories.NewCartRepository(p)
	orders := services.NewOrderService(tx, repositories.NewOrderRepository(p), cart, gems,
		testutil.NewMemory().Idempotency, zap.NewNop())
	catalog := services.NewGemstoneService(tx, gems)

	seller := seedUser(t, users, "amara")
	gem := seedGemstone(t, gems, seller.ID, "Paraiba tourmaline", 60000, 5)
	const buyers = 3
	ids := make([]uuid.UUID, buyers)
	for i := range ids {
		ids[i] = seedUser(t, users, "buyer"+string(rune('a'+i))).ID
		require.NoError(t, cart.Save(ctx, &models.CartItem{UserID: ids[i], GemstoneID: gem.ID, Quantity: 1}))
	}

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(2)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := orders.Checkout(ctx, id, services.CheckoutInput{ShippingAddress: "1 Gem Row"})
			assert.NoError(t, err)
		}(ids[i])
		go func(n int) {
			defer wg.Done()
			_, err := catalog.Update(ctx, services.Actor{ID: seller.ID, Role: models.RoleUser}, gem.ID,
				services.GemstoneInput{Description: ptr("Neon blue, lot " + string(rune('0'+n)))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := gems.FindByID(ctx, gem.ID)
	require.NoError(t, err)
	assert.Equal(t, 5-buyers, got.Stock, "no checkout decrement is lost to a concurrent edit")
}

func TestConcurrentFirstRegistrationsYieldOneAdmin(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	auth := services.NewAuthService(repositories.NewTxManager(p), users,
		utils.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests"),
		testutil.NewMemory().Blacklist, zap.NewNop())

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "founder" + string(rune('a'+i))
			_, err := auth.Register(ctx, services.RegisterInput{
				Email: name + "@example.com", Username: name, Password: "correct horse battery",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	admins, err := users.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
	total, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), total)
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	p := requirePostgres(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(p)
	gems := repositories.NewGemstoneRepository(p)
	events := repositories.NewEventRepository(p)
	listings := repositories.NewListingRepository(p)

	seller := seedUser(t, users, "amara", func(u *models.User) { u.FullName = "100% Natural Gems" })
	seedUser(t, users, "bilal", func(u *models.User) { u.FullName = "Bilal Haddad" })
	seedGemstone(t, gems, seller.ID, "lot_7 emerald", 5000, 1)
	seedGemstone(t, gems, seller.ID, "lotX7 emerald", 5000, 1)
	seedEvent(t, events, seller.ID, "50% off pearls", time.Now().Add(time.Hour), nil)
	seedEvent(t, events, seller.ID, "Pearl fair", time.Now().Add(time.Hour), nil)
	seedListing(t, listings, seller.ID, `Tools\misc`)
	seedListing(t, listings, seller.ID, "Tools misc")

	found, total, err := users.Search(ctx, models.DirectoryFilter{Query: "%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "amara", found[0].Username)

	_, total, err = gems.List(ctx, models.GemstoneFilter{Query: "lot_7"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "underscore is not a single-character wildcard")

	evs, total, err := events.List(ctx, models.EventFilter{Query: "%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, evs, 1)
	assert.Equal(t, "50% off pearls", evs[0].Title)

	ls, total, err := listings.List(ctx, models.ListingFilter{Query: `s\m`})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, ls, 1)
	assert.Equal(t, `Tools\misc`, ls[0].Title)
}
