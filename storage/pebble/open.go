package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/hashicorp/go-multierror"
)

// OpenJournal opens (or creates) a pebble database at dir and returns a
// journal that owns it. Closing the journal closes the database.
func OpenJournal(dir string) (*Journal, error) {
	db, err := OpenDB(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pebble db: %w", err)
	}

	journal, err := NewJournal(db)
	if err != nil {
		dbErr := db.Close()
		if dbErr != nil {
			err = multierror.Append(err, fmt.Errorf("failed to close db: %w", dbErr))
		}
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}
	journal.ownsDB = true
	return journal, nil
}

// OpenDB opens the database
func OpenDB(dir string) (*pebble.DB, error) {
	cache := pebble.NewCache(1 << 20)
	defer cache.Unref()

	opts := &pebble.Options{
		Cache: cache,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	return db, nil
}
