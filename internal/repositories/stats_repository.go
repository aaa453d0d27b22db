package repositories

import (
	"context"
	"time"

	"jewelconnect/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Stats runs the dashboard counters concurrently on separate pool connections.
func (r *StatsRepository) Stats(ctx context.Context, now time.Time) (*models.AdminStats, error) {
	stats := &models.AdminStats{
		UsersByRole:    map[string]int64{},
		OrdersByStatus: map[string]int64{},
	}
	var usersByRole, ordersByStatus map[string]int64

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		usersByRole, err = r.grouped(ctx, `SELECT role, COUNT(*) FROM users WHERE deleted_at IS NULL GROUP BY role`)
		return err
	})
	g.Go(func() error {
		var err error
		ordersByStatus, err = r.grouped(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
		return err
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM marketplace_listings WHERE status = 'active'`).Scan(&stats.ActiveListings)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gemstones WHERE is_active`).Scan(&stats.ActiveGemstones)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_cents), 0)::bigint FROM orders WHERE status <> 'cancelled'`).Scan(&stats.RevenueCents)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE ends_at >= $1`, now).Scan(&stats.UpcomingEvents)
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM group_purchases WHERE status = 'open'`).Scan(&stats.OpenGroupPurchases)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for role, n := range usersByRole {
		stats.UsersByRole[role] = n
		stats.TotalUsers += n
	}
	for status, n := range ordersByStatus {
		stats.OrdersByStatus[status] = n
	}
	return stats, nil
}

func (r *StatsRepository) grouped(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
