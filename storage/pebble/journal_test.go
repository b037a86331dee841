package pebble

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/require"

	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/journaltest"
	"github.com/gaugeflow/passthrough/utils/unittest"
)

func TestJournal(t *testing.T) {
	journaltest.Run(t, func(t *testing.T, f func(storage.Journal)) {
		unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
			j, err := NewJournal(db)
			require.NoError(t, err)
			f(j)
		})
	})
}

func TestJournalReopen(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		j, err := OpenJournal(dir)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err = j.Append(&storage.Entry{Type: "NameSet", Payload: []byte{byte(i)}})
			require.NoError(t, err)
		}
		require.NoError(t, j.Close())

		j, err = OpenJournal(dir)
		require.NoError(t, err)
		defer j.Close()

		count, err := j.Count()
		require.NoError(t, err)
		require.Equal(t, uint64(3), count)

		seq, err := j.Append(&storage.Entry{Type: "NameSet"})
		require.NoError(t, err)
		require.Equal(t, uint64(3), seq)

		entry, err := j.Entry(1)
		require.NoError(t, err)
		require.Equal(t, []byte{1}, entry.Payload)
	})
}
