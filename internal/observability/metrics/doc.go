// Package metrics exports connection pool statistics of the worker's
// Postgres and Redis clients as Prometheus gauges.
//
// Pipeline metrics (stream, delivery, push provider, alerts) are defined in
// the packages that record them; this package only covers shared
// infrastructure.
//
// Example usage:
//
//	go metrics.CollectPoolStats(ctx, 15*time.Second, db, redisClient)
package metrics
