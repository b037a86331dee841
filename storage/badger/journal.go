package badger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"

	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/operation"
)

// Journal stores the commit log in badger. Values are msgpack encoded and
// snappy compressed; each append runs in one badger transaction.
type Journal struct {
	mu     sync.Mutex
	db     *badger.DB
	count  uint64
	ownsDB bool
}

var _ storage.Journal = (*Journal)(nil)

// OpenJournal opens (or creates) a badger database at dir and returns a
// journal that owns it.
func OpenJournal(dir string) (*Journal, error) {
	opts := badger.
		DefaultOptions(dir).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger db: %w", err)
	}

	journal, err := NewJournal(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	journal.ownsDB = true
	return journal, nil
}

// NewJournal wraps an open database. The caller keeps ownership of db.
func NewJournal(db *badger.DB) (*Journal, error) {
	var count uint64
	err := db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(operation.CountKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			count = operation.DecodeUint64(val)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("could not read journal count: %w", err)
	}

	return &Journal{
		db:    db,
		count: count,
	}, nil
}

func (j *Journal) Append(entry *storage.Entry, writes ...storage.Write) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	sequence := j.count
	err := j.db.Update(func(tx *badger.Txn) error {
		stored := *entry
		stored.Sequence = sequence
		err := insert(operation.EntryKey(sequence), &stored)(tx)
		if err != nil {
			return err
		}
		for _, w := range writes {
			err = upsert(w.Key, w.Value)(tx)
			if err != nil {
				return err
			}
		}
		return tx.Set(operation.CountKey(), operation.EncodeCount(sequence+1))
	})
	if err != nil {
		return 0, fmt.Errorf("could not commit journal entry %d: %w", sequence, err)
	}

	entry.Sequence = sequence
	j.count++
	return sequence, nil
}

func (j *Journal) Entry(sequence uint64) (*storage.Entry, error) {
	var entry storage.Entry
	err := j.db.View(retrieve(operation.EntryKey(sequence), &entry))
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
	return j.db.View(retrieve(key, target))
}

func (j *Journal) Close() error {
	if !j.ownsDB {
		return nil
	}
	return j.db.Close()
}

// insert will encode the given entity and insert it under the provided key.
// It will error if the key already exists.
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not check key: %w", err)
		}
		return upsert(key, entity)(tx)
	}
}

// upsert will encode the given entity and store it under the provided key,
// replacing any previous value.
func upsert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		val, err := operation.CompressedCodec.Encode(entity)
		if err != nil {
			return err
		}

		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}
		return nil
	}
}

// retrieve will retrieve the binary data under the given key and decode it
// into the given entity.
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("could not load data: %w", err)
		}

		err = item.Value(func(val []byte) error {
			return operation.CompressedCodec.Decode(val, entity)
		})
		if err != nil {
			return fmt.Errorf("could not decode entity: %w", err)
		}
		return nil
	}
}
