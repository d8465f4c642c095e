package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
)

// UpdateDBConnectionStats copies database/sql pool statistics to the gauges.
func UpdateDBConnectionStats(stats sql.DBStats) {
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	DBConnectionsInUse.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
	DBConnectionWaitCount.Set(float64(stats.WaitCount))
}

// UpdateRedisPoolStats copies go-redis pool statistics to the gauges.
func UpdateRedisPoolStats(stats *redis.PoolStats) {
	if stats == nil {
		return
	}
	RedisPoolTotalConns.Set(float64(stats.TotalConns))
	RedisPoolIdleConns.Set(float64(stats.IdleConns))
	RedisPoolTimeouts.Set(float64(stats.Timeouts))
	RedisPoolHits.Set(float64(stats.Hits))
}

// CollectPoolStats refreshes the pool gauges every interval until ctx is
// done. db and rdb may be nil.
func CollectPoolStats(ctx context.Context, interval time.Duration, db *sql.DB, rdb *redis.Client) {
	collect := func() {
		if db != nil {
			UpdateDBConnectionStats(db.Stats())
		}
		if rdb != nil {
			UpdateRedisPoolStats(rdb.PoolStats())
		}
	}

	collect()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collect()
		}
	}
}
