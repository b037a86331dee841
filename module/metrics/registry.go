package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gaugeflow/passthrough/module"
)

type RegistryCollector struct {
	passthroughsCreated prometheus.Counter
	registrySize        *prometheus.GaugeVec
	operations          *prometheus.CounterVec
	rejections          *prometheus.CounterVec
	commitDuration      prometheus.Histogram
}

var _ module.RegistryMetrics = (*RegistryCollector)(nil)

func NewRegistryCollector(registerer prometheus.Registerer) *RegistryCollector {
	rc := &RegistryCollector{
		passthroughsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRegistry,
			Subsystem: subsystemFactory,
			Name:      "passthroughs_created_total",
			Help:      "the number of passthroughs created across all factories",
		}),
		registrySize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespaceRegistry,
			Subsystem: subsystemFactory,
			Name:      "registry_size",
			Help:      "the number of passthroughs registered by a factory",
		}, []string{LabelFactory}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRegistry,
			Name:      "operations_total",
			Help:      "the number of committed operations by operation name",
		}, []string{LabelOperation}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRegistry,
			Name:      "operations_rejected_total",
			Help:      "the number of rejected operations by operation name and error category",
		}, []string{LabelOperation, LabelCategory}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceRegistry,
			Subsystem: subsystemJournal,
			Name:      "commit_seconds",
			Help:      "the duration of appending one operation to the commit log",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}

	registerer.MustRegister(
		rc.passthroughsCreated,
		rc.registrySize,
		rc.operations,
		rc.rejections,
		rc.commitDuration,
	)

	return rc
}

func (rc *RegistryCollector) PassthroughCreated(factory common.Address, count uint64) {
	rc.passthroughsCreated.Inc()
	rc.registrySize.WithLabelValues(factory.Hex()).Set(float64(count))
}

func (rc *RegistryCollector) OperationCommitted(operation string) {
	rc.operations.WithLabelValues(operation).Inc()
}

func (rc *RegistryCollector) OperationRejected(operation string, category string) {
	rc.rejections.WithLabelValues(operation, category).Inc()
}

func (rc *RegistryCollector) JournalCommitDuration(duration time.Duration) {
	rc.commitDuration.Observe(duration.Seconds())
}
