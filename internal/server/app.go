package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"jewelconnect/internal/config"
	"jewelconnect/internal/database"
	"jewelconnect/internal/handlers"
	"jewelconnect/internal/jobs"
	"jewelconnect/internal/realtime"
	"jewelconnect/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App owns the process-lifetime resources of the API server.
type App struct {
	cfg       *config.Config
	log       *zap.Logger
	pool      *pgxpool.Pool
	rdb       *redis.Client
	hub       *realtime.Hub
	hubCancel context.CancelFunc
	hubDone   chan struct{}
	scheduler *jobs.Scheduler
	http      *http.Server
}

// NewApp connects to PostgreSQL and Redis, applies migrations and wires the router.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.EnsureDatabaseExists(ctx, cfg.Database, log); err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	rdb, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("connected to redis")

	redisRepo := repositories.NewRedisRepository(rdb)
	stores := Stores{
		Tx:             repositories.NewTxManager(pool),
		Users:          repositories.NewUserRepository(pool),
		Connections:    repositories.NewConnectionRepository(pool),
		Messages:       repositories.NewMessageRepository(pool),
		Events:         repositories.NewEventRepository(pool),
		Inventory:      repositories.NewInventoryRepository(pool),
		Gemstones:      repositories.NewGemstoneRepository(pool),
		Cart:           repositories.NewCartRepository(pool),
		Orders:         repositories.NewOrderRepository(pool),
		Listings:       repositories.NewListingRepository(pool),
		GroupPurchases: repositories.NewGroupPurchaseRepository(pool),
		APIKeys:        repositories.NewAPIKeyRepository(pool),
		Audit:          repositories.NewAuditRepository(pool),
		Stats:          repositories.NewStatsRepository(pool),
		Blacklist:      redisRepo,
		Idempotency:    redisRepo,
	}

	hub := realtime.NewHub(realtime.NewRedisBroker(rdb, log), cfg.AllowedOrigins, log)
	svc := NewServices(cfg, stores, hub, log)
	health := map[string]handlers.Pinger{"postgres": pool, "redis": redisRepo}
	router := NewRouter(cfg, svc, hub, health, log)

	app := &App{
		cfg:  cfg,
		log:  log,
		pool: pool,
		rdb:  rdb,
		hub:  hub,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			IdleTimeout:       time.Minute,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
	if cfg.JobsEnabled {
		app.scheduler = jobs.NewScheduler(svc.GroupPurchase, log)
	}
	return app, nil
}

// Start launches the realtime hub and the job scheduler.
func (a *App) Start() error {
	hubCtx, cancel := context.WithCancel(context.Background())
	a.hubCancel = cancel
	a.hubDone = make(chan struct{})
	go func() {
		defer close(a.hubDone)
		if err := a.hub.Run(hubCtx); err != nil {
			a.log.Error("realtime hub stopped", zap.Error(err))
		}
	}()

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}
	return nil
}

// Serve blocks serving HTTP until Shutdown.
func (a *App) Serve() error {
	a.log.Info("server listening", zap.String("addr", a.http.Addr))
	if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and releases every resource.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.http.Shutdown(ctx)

	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	if a.hubCancel != nil {
		a.hubCancel()
		select {
		case <-a.hubDone:
		case <-ctx.Done():
		}
	}
	a.hub.Close()

	if cerr := a.rdb.Close(); cerr != nil {
		a.log.Warn("closing redis", zap.Error(cerr))
	}
	a.pool.Close()
	return err
}
