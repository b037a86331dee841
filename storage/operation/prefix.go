package operation

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

const (
	codeJournalCount = 1
	codeJournalEntry = 2
	codeState        = 10
	codeEnvironment  = 11
)

func makePrefix(code byte, keys ...[]byte) []byte {
	prefix := []byte{code}
	for _, key := range keys {
		prefix = append(prefix, key...)
	}
	return prefix
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// DecodeUint64 reads a value written by the count key.
func DecodeUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// CountKey holds the number of committed journal entries.
func CountKey() []byte {
	return makePrefix(codeJournalCount)
}

// EncodeCount encodes a journal entry count.
func EncodeCount(count uint64) []byte {
	return encodeUint64(count)
}

// EntryKey is the key of the journal entry with the given sequence number.
// Big endian keeps entries ordered on disk.
func EntryKey(sequence uint64) []byte {
	return makePrefix(codeJournalEntry, encodeUint64(sequence))
}

// StateKey is the key of the latest state of the contract at address.
func StateKey(address common.Address) []byte {
	return makePrefix(codeState, address.Bytes())
}

// EnvironmentKey is the key of the execution environment state.
func EnvironmentKey() []byte {
	return makePrefix(codeEnvironment)
}
