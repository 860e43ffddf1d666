package pg

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the part of pgxpool.Stat the collector reports.
type PoolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
	AcquireCount() int64
	EmptyAcquireCount() int64
	CanceledAcquireCount() int64
}

var _ PoolStats = (*pgxpool.Stat)(nil)

// PoolCollector exports archive pool statistics to Prometheus on scrape.
type PoolCollector struct {
	stats func() PoolStats

	acquired *prometheus.Desc
	idle     *prometheus.Desc
	pending  *prometheus.Desc
	maxConns *prometheus.Desc
	acquires *prometheus.Desc
	empty    *prometheus.Desc
	canceled *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector reports the pool owned by m. Nothing is emitted until
// Connect succeeds.
func NewPoolCollector(m *Manager) *PoolCollector {
	return newPoolCollector(func() PoolStats {
		if m.pool == nil {
			return nil
		}

		return m.pool.Stat()
	})
}

func newPoolCollector(stats func() PoolStats) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("gatewayshield", "archive_pool", name), help, nil, nil)
	}

	return &PoolCollector{
		stats:    stats,
		acquired: desc("acquired_conns", "Connections currently in use."),
		idle:     desc("idle_conns", "Idle connections."),
		pending:  desc("pending_conns", "Connections being opened or closed."),
		maxConns: desc("max_conns", "Configured maximum pool size."),
		acquires: desc("acquires_total", "Successful connection acquisitions."),
		empty:    desc("empty_acquires_total", "Acquisitions that had to wait for a connection."),
		canceled: desc("canceled_acquires_total", "Acquisitions canceled by their context."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.acquired, c.idle, c.pending, c.maxConns, c.acquires, c.empty, c.canceled} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	if s == nil {
		return
	}

	pending := s.TotalConns() - s.IdleConns() - s.AcquiredConns()

	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(pending))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.empty, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.canceled, prometheus.CounterValue, float64(s.CanceledAcquireCount()))
}
