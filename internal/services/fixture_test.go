package services_test

import (
	"context"
	"testing"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/services"
	"jewelconnect/internal/testutil"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) Notify(ctx context.Context, userID uuid.UUID, kind string, payload any) error {
	return m.Called(ctx, userID, kind, payload).Error(0)
}

type fixture struct {
	mem      *testutil.Memory
	notifier *notifierMock

	auth        *services.AuthService
	users       *services.UserService
	connections *services.ConnectionService
	messages    *services.MessageService
	events      *services.EventService
	inventory   *services.InventoryService
	gemstones   *services.GemstoneService
	cart        *services.CartService
	orders      *services.OrderService
	listings    *services.ListingService
	groups      *services.GroupPurchaseService
	apiKeys     *services.APIKeyService
	admin       *services.AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := testutil.NewMemory()
	log := zap.NewNop()
	n := &notifierMock{}
	n.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	tokens := utils.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests")
	orders := services.NewOrderService(mem.Tx, mem.Orders, mem.Cart, mem.Gemstones, mem.Idempotency, log)
	apiKeys := services.NewAPIKeyService(mem.APIKeys, mem.Users, log)

	return &fixture{
		mem:         mem,
		notifier:    n,
		auth:        services.NewAuthService(mem.Tx, mem.Users, tokens, mem.Blacklist, log),
		users:       services.NewUserService(mem.Tx, mem.Users, mem.Connections),
		connections: services.NewConnectionService(mem.Tx, mem.Connections, mem.Users, n, log),
		messages:    services.NewMessageService(mem.Messages, mem.Users, n, log),
		events:      services.NewEventService(mem.Tx, mem.Events, mem.Users),
		inventory:   services.NewInventoryService(mem.Inventory, mem.Users),
		gemstones:   services.NewGemstoneService(mem.Tx, mem.Gemstones),
		cart:        services.NewCartService(mem.Cart, mem.Gemstones),
		orders:      orders,
		listings:    services.NewListingService(mem.Tx, mem.Listings),
		groups:      services.NewGroupPurchaseService(mem.Tx, mem.GroupPurchases, mem.Gemstones, mem.Users, log),
		apiKeys:     apiKeys,
		admin:       services.NewAdminService(mem.Tx, mem.Users, mem.APIKeys, mem.Audit, mem.Stats, apiKeys, orders, log),
	}
}

// user stores an active member with the given role directly.
func (f *fixture) user(t *testing.T, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		Email:    username + "@example.com",
		Username: username,
		FullName: username,
		Role:     role,
	}
	require.NoError(t, f.mem.Users.Create(context.Background(), u))
	return u
}

func actor(u *models.User) services.Actor {
	return services.Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) gemstone(t *testing.T, seller *models.User, name string, priceCents int64, stock int) *models.Gemstone {
	t.Helper()
	g := &models.Gemstone{
		SellerID:   seller.ID,
		Name:       name,
		GemType:    "sapphire",
		Carat:      1.5,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, f.mem.Gemstones.Create(context.Background(), g))
	return g
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	g, err := f.mem.Gemstones.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, g)
	return g.Stock
}

func ptr[T any](v T) *T {
	return &v
}

func future(d time.Duration) time.Time {
	return time.Now().Add(d)
}
