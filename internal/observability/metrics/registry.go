package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database pool metrics
var (
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of established database connections",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	DBConnectionWaitCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connection_wait_count",
			Help: "Total number of connections waited for, as reported by database/sql",
		},
	)
)

// Redis pool metrics
var (
	RedisPoolTotalConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_pool_total_connections",
			Help: "Number of connections in the Redis pool",
		},
	)

	RedisPoolIdleConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_pool_idle_connections",
			Help: "Number of idle connections in the Redis pool",
		},
	)

	RedisPoolTimeouts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_pool_timeouts",
			Help: "Number of times a wait for a Redis connection timed out",
		},
	)

	RedisPoolHits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_pool_hits",
			Help: "Number of times a free Redis connection was found in the pool",
		},
	)
)
