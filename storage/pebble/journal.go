package pebble

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/operation"
)

// Journal stores the commit log in pebble. Each append is a single synced
// batch holding the entry, the state writes and the new entry count.
type Journal struct {
	mu     sync.Mutex
	db     *pebble.DB
	count  uint64
	ownsDB bool
}

var _ storage.Journal = (*Journal)(nil)

// NewJournal wraps an open database. The caller keeps ownership of db.
func NewJournal(db *pebble.DB) (*Journal, error) {
	var count uint64
	val, closer, err := db.Get(operation.CountKey())
	switch {
	case errors.Is(err, pebble.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("could not read journal count: %w", err)
	default:
		count = operation.DecodeUint64(val)
		if cerr := closer.Close(); cerr != nil {
			return nil, fmt.Errorf("could not release journal count: %w", cerr)
		}
	}

	return &Journal{
		db:    db,
		count: count,
	}, nil
}

func (j *Journal) Append(entry *storage.Entry, writes ...storage.Write) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry.Sequence = j.count

	batch := j.db.NewBatch()
	defer batch.Close()

	err := insert(batch, operation.EntryKey(entry.Sequence), entry)
	if err != nil {
		return 0, err
	}
	for _, w := range writes {
		err = insert(batch, w.Key, w.Value)
		if err != nil {
			return 0, err
		}
	}
	err = batch.Set(operation.CountKey(), operation.EncodeCount(j.count+1), nil)
	if err != nil {
		return 0, fmt.Errorf("could not add journal count to batch: %w", err)
	}

	err = batch.Commit(pebble.Sync)
	if err != nil {
		return 0, fmt.Errorf("could not commit journal entry %d: %w", entry.Sequence, err)
	}

	j.count++
	return entry.Sequence, nil
}

func (j *Journal) Entry(sequence uint64) (*storage.Entry, error) {
	var entry storage.Entry
	err := retrieve(j.db, operation.EntryKey(sequence), &entry)
	if err != nil {
		return nil, err
	}
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
			return fmt.Errorf("could not read journal entry %d: %w", seq, err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Count() (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count, nil
}

func (j *Journal) Retrieve(key []byte, target interface{}) error {
	return retrieve(j.db, key, target)
}

func (j *Journal) Close() error {
	if !j.ownsDB {
		return nil
	}
	return j.db.Close()
}

func insert(w pebble.Writer, key []byte, val interface{}) error {
	value, err := operation.RawCodec.Encode(val)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	err = w.Set(key, value, nil)
	if err != nil {
		return fmt.Errorf("failed to store data: %w", err)
	}
	return nil
}

func retrieve(r pebble.Reader, key []byte, target interface{}) error {
	val, closer, err := r.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("could not load data: %w", err)
	}
	defer closer.Close()

	err = operation.RawCodec.Decode(val, target)
	if err != nil {
		return fmt.Errorf("could not decode data: %w", err)
	}
	return nil
}
