package server

import (
	"jewelconnect/internal/config"
	"jewelconnect/internal/handlers"
	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/realtime"
	"jewelconnect/internal/routes"
	"jewelconnect/internal/services"
	"jewelconnect/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stores is every persistence dependency the services need.
type Stores struct {
	Tx             services.Transactor
	Users          services.UserStore
	Connections    services.ConnectionStore
	Messages       services.MessageStore
	Events         services.EventStore
	Inventory      services.InventoryStore
	Gemstones      services.GemstoneStore
	Cart           services.CartStore
	Orders         services.OrderStore
	Listings       services.ListingStore
	GroupPurchases services.GroupPurchaseStore
	APIKeys        services.APIKeyStore
	Audit          services.AuditStore
	Stats          services.StatsStore
	Blacklist      services.TokenBlacklist
	Idempotency    services.IdempotencyStore
}

// Services is the business layer built over Stores.
type Services struct {
	Auth          *services.AuthService
	Google        *services.GoogleAuthService
	User          *services.UserService
	Connection    *services.ConnectionService
	Message       *services.MessageService
	Event         *services.EventService
	Inventory     *services.InventoryService
	Gemstone      *services.GemstoneService
	Cart          *services.CartService
	Order         *services.OrderService
	Listing       *services.ListingService
	GroupPurchase *services.GroupPurchaseService
	APIKey        *services.APIKeyService
	Admin         *services.AdminService
}

func NewServices(cfg *config.Config, st Stores, notifier services.Notifier, log *zap.Logger) *Services {
	tokens := utils.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	auth := services.NewAuthService(st.Tx, st.Users, tokens, st.Blacklist, log)
	orders := services.NewOrderService(st.Tx, st.Orders, st.Cart, st.Gemstones, st.Idempotency, log)
	apiKeys := services.NewAPIKeyService(st.APIKeys, st.Users, log)

	return &Services{
		Auth:          auth,
		Google:        services.NewGoogleAuthService(auth, config.OAuthConfig(cfg.Google)),
		User:          services.NewUserService(st.Tx, st.Users, st.Connections),
		Connection:    services.NewConnectionService(st.Tx, st.Connections, st.Users, notifier, log),
		Message:       services.NewMessageService(st.Messages, st.Users, notifier, log),
		Event:         services.NewEventService(st.Tx, st.Events, st.Users),
		Inventory:     services.NewInventoryService(st.Inventory, st.Users),
		Gemstone:      services.NewGemstoneService(st.Tx, st.Gemstones),
		Cart:          services.NewCartService(st.Cart, st.Gemstones),
		Order:         orders,
		Listing:       services.NewListingService(st.Tx, st.Listings),
		GroupPurchase: services.NewGroupPurchaseService(st.Tx, st.GroupPurchases, st.Gemstones, st.Users, log),
		APIKey:        apiKeys,
		Admin:         services.NewAdminService(st.Tx, st.Users, st.APIKeys, st.Audit, st.Stats, apiKeys, orders, log),
	}
}

// NewRouter builds the gin engine with the full middleware chain and routes.
func NewRouter(cfg *config.Config, svc *Services, hub *realtime.Hub, health map[string]handlers.Pinger, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middlewares.Recovery(log),
		middlewares.RequestID(),
		middlewares.RequestLogger(log),
		middlewares.Metrics(),
		middlewares.CORS(cfg.AllowedOrigins),
		middlewares.SecurityHeaders(),
	)

	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(svc.Auth),
		Google:        handlers.NewGoogleAuthHandler(svc.Google),
		User:          handlers.NewUserHandler(svc.User),
		Connection:    handlers.NewConnectionHandler(svc.Connection),
		Message:       handlers.NewMessageHandler(svc.Message),
		Event:         handlers.NewEventHandler(svc.Event),
		Inventory:     handlers.NewInventoryHandler(svc.Inventory),
		Gemstone:      handlers.NewGemstoneHandler(svc.Gemstone),
		Cart:          handlers.NewCartHandler(svc.Cart),
		Order:         handlers.NewOrderHandler(svc.Order, svc.Admin),
		Listing:       handlers.NewListingHandler(svc.Listing),
		GroupPurchase: handlers.NewGroupPurchaseHandler(svc.GroupPurchase),
		Admin:         handlers.NewAdminHandler(svc.Admin),
		Developer:     handlers.NewDeveloperHandler(svc.APIKey),
		Public:        handlers.NewPublicHandler(svc.Gemstone, svc.Listing),
		WS:            handlers.NewWSHandler(svc.Auth, hub, log),
		Health:        handlers.NewHealthHandler(health),
	}
	g := routes.Guards{
		Authenticate: middlewares.Authenticate(svc.Auth),
		APIKey:       middlewares.RequireAPIKey(svc.APIKey),
	}
	if cfg.RateLimitPerMinute > 0 {
		g.RateLimit = middlewares.NewRateLimiter(cfg.RateLimitPerMinute).Middleware()
	}

	routes.RegisterRoutes(router, h, g)
	return router
}
