package repositories_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"jewelconnect/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// Shared across the package; nil when -short is set or Docker is unavailable.
var (
	pool *pgxpool.Pool
	rdb  *redis.Client
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var containers []testcontainers.Container

	pg, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres container unavailable: %v\n", err)
	} else {
		containers = append(containers, pg)
	}

	rc, err := startRedis(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis container unavailable: %v\n", err)
	} else {
		containers = append(containers, rc)
	}

	code := m.Run()

	if pool != nil {
		pool.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	for _, c := range containers {
		_ = c.Terminate(ctx)
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, error) {
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("jewelconnect"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return ctr, err
	}
	log := zap.NewNop()
	p, err := database.ConnectDSN(ctx, dsn, log)
	if err != nil {
		return ctr, err
	}
	if err := database.RunMigrations(ctx, p, log); err != nil {
		p.Close()
		return ctr, err
	}
	pool = p
	return ctr, nil
}

func startRedis(ctx context.Context) (testcontainers.Container, error) {
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		return ctr, err
	}
	client, err := database.ConnectRedis(ctx, "redis://"+endpoint)
	if err != nil {
		return ctr, err
	}
	rdb = client
	return ctr, nil
}

// requirePostgres skips the test without a database and empties every table.
func requirePostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if pool == nil {
		t.Skip("postgres not available")
	}
	_, err := pool.Exec(context.Background(), `TRUNCATE users CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func requireRedis(t *testing.T) *redis.Client {
	t.Helper()
	if rdb == nil {
		t.Skip("redis not available")
	}
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return rdb
}
