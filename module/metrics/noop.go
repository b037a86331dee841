package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gaugeflow/passthrough/module"
)

type NoopCollector struct{}

var _ module.RegistryMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) PassthroughCreated(common.Address, uint64) {}
func (nc *NoopCollector) OperationCommitted(string)                 {}
func (nc *NoopCollector) OperationRejected(string, string)          {}
func (nc *NoopCollector) JournalCommitDuration(time.Duration)       {}
