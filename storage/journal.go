package storage

import (
	"github.com/ethereum/go-ethereum/common"
)

// Entry is one committed operation in the ordered commit log.
type Entry struct {
	Sequence uint64
	Emitter  common.Address
	Type     string
	Payload  []byte
}

// Write is a state blob persisted atomically with an entry. Value is encoded
// by the backend.
type Write struct {
	Key   []byte
	Value interface{}
}

// Journal is the ordered commit log of the registry. Every successful
// mutation appends exactly one entry together with the state it produced;
// either all of it is persisted or none of it is.
//
// Implementations must be safe for concurrent use. Sequence numbers are
// dense and start at zero.
type Journal interface {
	// Append assigns entry the next sequence number and persists it together
	// with writes. The assigned sequence is returned and set on entry.
	Append(entry *Entry, writes ...Write) (uint64, error)

	// Entry returns the entry with the given sequence number.
	// Expected errors: ErrNotFound if sequence >= Count().
	Entry(sequence uint64) (*Entry, error)

	// Entries calls fn for every entry starting at from, in order. Iteration
	// stops at the first error returned by fn.
	Entries(from uint64, fn func(*Entry) error) error

	// Count returns the number of entries committed so far.
	Count() (uint64, error)

	// Retrieve decodes the latest state blob stored under key into target.
	// Expected errors: ErrNotFound if nothing was written under key.
	Retrieve(key []byte, target interface{}) error

	Close() error
}
