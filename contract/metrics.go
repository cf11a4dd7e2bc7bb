package contract

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"okinoko_ledger/contract/dao"
)

// metrics are shared by the factory and every ledger it hands out. A nil
// *metrics records nothing.
type metrics struct {
	ops         *prometheus.CounterVec
	opSeconds   *prometheus.HistogramVec
	registryLag prometheus.Counter
	instances   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &metrics{
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "okinoko_ledger_operations_total",
			Help: "ledger and registry operations by outcome",
		}, []string{"op", "result"}),
		opSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "okinoko_ledger_operation_seconds",
			Help:    "time spent inside one ledger or registry operation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
		registryLag: factory.NewCounter(prometheus.CounterOpts{
			Name: "okinoko_ledger_registry_sync_failures_total",
			Help: "ownership transfers the registry could not follow",
		}),
		instances: factory.NewGauge(prometheus.GaugeOpts{
			Name: "okinoko_ledger_instances",
			Help: "ledger instances known to the registry",
		}),
	}
}

func (m *metrics) observe(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, resultLabel(err)).Inc()
	m.opSeconds.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *metrics) registrySyncFailed() {
	if m == nil {
		return
	}
	m.registryLag.Inc()
}

func (m *metrics) setInstances(n uint64) {
	if m == nil {
		return
	}
	m.instances.Set(float64(n))
}

// resultLabel keeps label cardinality small: ok, the caller's fault, or ours.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, dao.ErrReentrantCall):
		return "reentrant"
	case errors.Is(err, dao.ErrArithmetic), errors.Is(err, dao.ErrCorruptRecord):
		return "fault"
	default:
		return "rejected"
	}
}
