// Package journaltest holds the behaviour every storage.Journal backend must
// share.
package journaltest

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/operation"
	"github.com/gaugeflow/passthrough/utils/unittest"
)

// Run exercises a journal returned by factory. factory is called once per
// subtest and must return an empty journal.
func Run(t *testing.T, factory func(t *testing.T, f func(storage.Journal))) {
	t.Run("empty journal", func(t *testing.T) {
		factory(t, func(j storage.Journal) {
			count, err := j.Count()
			require.NoError(t, err)
			assert.Equal(t, uint64(0), count)

			_, err = j.Entry(0)
			require.ErrorIs(t, err, storage.ErrNotFound)

			var snap passthrough.FactorySnapshot
			err = j.Retrieve(operation.StateKey(unittest.AddressFixture()), &snap)
			require.ErrorIs(t, err, storage.ErrNotFound)
		})
	})

	t.Run("sequences are dense and ordered", func(t *testing.T) {
		factory(t, func(j storage.Journal) {
			emitter := unittest.AddressFixture()
			for i := 0; i < 5; i++ {
				entry := &storage.Entry{Emitter: emitter, Type: "NameSet", Payload: []byte{byte(i)}}
				seq, err := j.Append(entry)
				require.NoError(t, err)
				require.Equal(t, uint64(i), seq)
				require.Equal(t, uint64(i), entry.Sequence)
			}

			var seen []uint64
			err := j.Entries(2, func(e *storage.Entry) error {
				seen = append(seen, e.Sequence)
				assert.Equal(t, []byte{byte(e.Sequence)}, e.Payload)
				assert.Equal(t, emitter, e.Emitter)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []uint64{2, 3, 4}, seen)
		})
	})

	t.Run("iteration stops on callback error", func(t *testing.T) {
		factory(t, func(j storage.Journal) {
			for i := 0; i < 3; i++ {
				_, err := j.Append(&storage.Entry{Type: "NameSet"})
				require.NoError(t, err)
			}

			stop := errors.New("stop")
			calls := 0
			err := j.Entries(0, func(*storage.Entry) error {
				calls++
				return stop
			})
			require.ErrorIs(t, err, stop)
			assert.Equal(t, 1, calls)
		})
	})

	t.Run("state writes are committed with the entry", func(t *testing.T) {
		factory(t, func(j storage.Journal) {
			address := unittest.AddressFixture()
			first := passthrough.FactorySnapshot{
				Address:      address,
				Generation:   passthrough.GenerationLinked,
				Owner:        unittest.AddressFixture(),
				Passthroughs: unittest.AddressListFixture(2),
			}
			_, err := j.Append(&storage.Entry{Emitter: address, Type: "FactoryDeployed"},
				storage.Write{Key: operation.StateKey(address), Value: first})
			require.NoError(t, err)

			var got passthrough.FactorySnapshot
			require.NoError(t, j.Retrieve(operation.StateKey(address), &got))
			assert.Equal(t, first, got)

			second := first
			second.Passthroughs = append(append([]common.Address(nil), first.Passthroughs...), unittest.AddressFixture())
			_, err = j.Append(&storage.Entry{Emitter: address, Type: "PassthroughCreated"},
				storage.Write{Key: operation.StateKey(address), Value: second},
				storage.Write{Key: operation.EnvironmentKey(), Value: passthrough.EnvironmentSnapshot{Generator: []byte{1}}})
			require.NoError(t, err)

			require.NoError(t, j.Retrieve(operation.StateKey(address), &got))
			assert.Equal(t, second, got)

			var env passthrough.EnvironmentSnapshot
			require.NoError(t, j.Retrieve(operation.EnvironmentKey(), &env))
			assert.Equal(t, []byte{1}, env.Generator)
		})
	})

	t.Run("concurrent appends get distinct sequences", func(t *testing.T) {
		factory(t, func(j storage.Journal) {
			const n = 32
			var wg sync.WaitGroup
			seqs := make(chan uint64, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					seq, err := j.Append(&storage.Entry{Type: "NameSet"})
					assert.NoError(t, err)
					seqs <- seq
				}()
			}
			wg.Wait()
			close(seqs)

			seen := make(map[uint64]struct{}, n)
			for seq := range seqs {
				seen[seq] = struct{}{}
			}
			assert.Len(t, seen, n)

			count, err := j.Count()
			require.NoError(t, err)
			assert.Equal(t, uint64(n), count)
		})
	})
}
