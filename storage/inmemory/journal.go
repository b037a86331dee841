package inmemory

import (
	"fmt"
	"sync"

	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/operation"
)

// Journal keeps the commit log in memory. Values are stored encoded so that
// callers never share memory with the journal.
type Journal struct {
	mu      sync.RWMutex
	entries []storage.Entry
	states  map[string][]byte
}

var _ storage.Journal = (*Journal)(nil)

func NewJournal() *Journal {
	return &Journal{
		states: make(map[string][]byte),
	}
}

func (j *Journal) Append(entry *storage.Entry, writes ...storage.Write) (uint64, error) {
	encoded := make(map[string][]byte, len(writes))
	for _, w := range writes {
		val, err := operation.RawCodec.Encode(w.Value)
		if err != nil {
			return 0, fmt.Errorf("could not encode state %x: %w", w.Key, err)
		}
		encoded[string(w.Key)] = val
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry.Sequence = uint64(len(j.entries))
	stored := *entry
	stored.Payload = append([]byte(nil), entry.Payload...)
	j.entries = append(j.entries, stored)
	for k, v := range encoded {
		j.states[k] = v
	}
	return entry.Sequence, nil
}

func (j *Journal) Entry(sequence uint64) (*storage.Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if sequence >= uint64(len(j.entries)) {
		return nil, storage.ErrNotFound
	}
	entry := j.entries[sequence]
	entry.Payload = append([]byte(nil), entry.Payload...)
	return &entry, nil
}

func (j *Journal) Entries(from uint64, fn func(*storage.Entry) error) error {
	count, err := j.Count()
	if err != nil {
		return err
	}
	for seq := from; seq < count; seq++ {
		entry, err := j.Entry(seq)
		if err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Count() (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return uint64(len(j.entries)), nil
}

func (j *Journal) Retrieve(key []byte, target interface{}) error {
	j.mu.RLock()
	val, ok := j.states[string(key)]
	j.mu.RUnlock()

	if !ok {
		return storage.ErrNotFound
	}
	return operation.RawCodec.Decode(val, target)
}

func (j *Journal) Close() error {
	return nil
}
