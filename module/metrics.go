package module

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RegistryMetrics records the activity of factories and passthroughs.
type RegistryMetrics interface {
	// PassthroughCreated is called after a passthrough was committed;
	// count is the factory's registry size afterwards.
	PassthroughCreated(factory common.Address, count uint64)

	// OperationCommitted is called once per committed mutation.
	OperationCommitted(operation string)

	// OperationRejected is called when a mutation failed with a user error,
	// labelled by the error category.
	OperationRejected(operation string, category string)

	// JournalCommitDuration records how long the commit log append took.
	JournalCommitDuration(duration time.Duration)
}
