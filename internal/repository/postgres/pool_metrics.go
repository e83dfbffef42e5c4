package postgres

import "github.com/prometheus/client_golang/prometheus"

var (
	descAcquired = prometheus.NewDesc("credgate_pg_pool_acquired_conns", "Connections currently checked out of the pool.", nil, nil)
	descIdle     = prometheus.NewDesc("credgate_pg_pool_idle_conns", "Idle connections held by the pool.", nil, nil)
	descTotal    = prometheus.NewDesc("credgate_pg_pool_total_conns", "All connections held by the pool.", nil, nil)
	descMax      = prometheus.NewDesc("credgate_pg_pool_max_conns", "Configured pool size.", nil, nil)
	descWaits    = prometheus.NewDesc("credgate_pg_pool_empty_acquire_total", "Acquires that had to wait for a free connection.", nil, nil)
)

type poolCollector struct{ db *DB }

// Collector exposes pool statistics. Register it once per DB.
func (db *DB) Collector() prometheus.Collector { return poolCollector{db: db} }

func (c poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descAcquired
	ch <- descIdle
	ch <- descTotal
	ch <- descMax
	ch <- descWaits
}

func (c poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.db.pool.Stat()
	ch <- prometheus.MustNewConstMetric(descAcquired, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(descIdle, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(descTotal, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(descMax, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(descWaits, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
}
