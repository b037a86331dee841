package registry

import (
	stdErrors "errors"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/module/metrics"
	"github.com/gaugeflow/passthrough/registry/errors"
	"github.com/gaugeflow/passthrough/storage"
	badgerstorage "github.com/gaugeflow/passthrough/storage/badger"
	"github.com/gaugeflow/passthrough/storage/inmemory"
	pebblestorage "github.com/gaugeflow/passthrough/storage/pebble"
	"github.com/gaugeflow/passthrough/utils/unittest"
)

var errDiskFull = stdErrors.New("disk full")

// failingJournal rejects appends while failing is set.
type failingJournal struct {
	storage.Journal
	failing atomic.Bool
}

func (j *failingJournal) Append(entry *storage.Entry, writes ...storage.Write) (uint64, error) {
	if j.failing.Load() {
		return 0, errDiskFull
	}
	return j.Journal.Append(entry, writes...)
}

func TestCommitFailureLeavesNoTrace(t *testing.T) {
	journal := &failingJournal{Journal: inmemory.NewJournal()}
	fx := newFixture(t, WithJournal(journal))
	admin, guard := unittest.AddressFixture(), unittest.AddressFixture()
	f := fx.linked(t, admin, admin, common.Address{})

	address, err := f.CreatePassthrough(admin, nil, []common.Address{guard}, nil)
	require.NoError(t, err)
	p, err := f.Passthrough(address)
	require.NoError(t, err)
	require.NoError(t, p.SetName(guard, "kept"))

	countBefore, err := journal.Count()
	require.NoError(t, err)
	eventsBefore := len(fx.events.Events())

	journal.failing.Store(true)

	requireJournalFailure := func(err error) {
		t.Helper()
		require.Error(t, err)
		assert.True(t, errors.HasFailureCode(err, errors.FailureCodeJournalFailure))
		assert.True(t, errors.IsFailure(err))
		assert.ErrorIs(t, err, errDiskFull)
	}

	_, err = f.CreatePassthrough(admin, nil, nil, nil)
	requireJournalFailure(err)
	assert.Equal(t, []common.Address{address}, f.GetAllPassthroughs())

	requireJournalFailure(p.SetName(guard, "lost"))
	assert.Equal(t, "kept", p.Name())

	requireJournalFailure(p.SetGuards(guard, nil))
	assert.True(t, p.IsGuard(guard))

	next := unittest.AddressFixture()
	requireJournalFailure(f.SetOwnershipAdmin(admin, next))
	assert.Equal(t, admin, f.OwnershipAdmin())

	requireJournalFailure(f.TransferOwnership(fx.deployer, next))
	assert.Equal(t, fx.deployer, f.Owner())

	requireJournalFailure(f.SetBlueprint(fx.deployer, common.Address{}))
	assert.Equal(t, fx.blueprint, f.Blueprint())

	_, err = fx.env.DeployBlueprint(fx.deployer, unittest.LogicFixture())
	requireJournalFailure(err)
	assert.Len(t, fx.env.Blueprints(), 1)

	_, err = fx.env.DeployEmbeddedFactory(fx.deployer, fx.blueprint)
	requireJournalFailure(err)
	assert.Len(t, fx.env.Factories(), 1)

	countAfter, err := journal.Count()
	require.NoError(t, err)
	assert.Equal(t, countBefore, countAfter)
	assert.Len(t, fx.events.Events(), eventsBefore)

	// allocations made by the failed operations were released
	journal.failing.Store(false)
	second, err := f.CreatePassthrough(admin, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(f.Address(), 2), second)
}

func TestCommitLog(t *testing.T) {
	journal := inmemory.NewJournal()
	fx := newFixture(t, WithJournal(journal))
	admin := unittest.AddressFixture()
	f := fx.embedded(t)

	address, err := f.CreatePassthrough(admin, admin, admin, nil, nil, nil)
	require.NoError(t, err)
	p, err := f.Passthrough(address)
	require.NoError(t, err)
	require.NoError(t, p.SetName(admin, "gauge"))

	var entries []*storage.Entry
	require.NoError(t, journal.Entries(0, func(e *storage.Entry) error {
		entries = append(entries, e)
		return nil
	}))

	recorded := fx.events.Events()
	require.Len(t, entries, len(recorded))
	for i, entry := range entries {
		assert.Equal(t, uint64(i), entry.Sequence)
		assert.Equal(t, recorded[i].Emitter, entry.Emitter)

		decoded, err := passthrough.DecodeEvent(passthrough.EventType(entry.Type), entry.Emitter, entry.Payload)
		require.NoError(t, err)
		assert.Equal(t, recorded[i].Type(), decoded.Type())
	}

	last, err := passthrough.DecodeEvent(passthrough.EventType(entries[3].Type), entries[3].Emitter, entries[3].Payload)
	require.NoError(t, err)
	assert.Equal(t, &passthrough.NameSet{Name: "gauge"}, last.Payload)
}

func TestLoad(t *testing.T) {
	populate := func(t *testing.T, env *Environment) (*LinkedFactory, common.Address, common.Address) {
		deployer, own, param, guard := unittest.AddressFixture(), unittest.AddressFixture(), unittest.AddressFixture(), unittest.AddressFixture()

		bp, err := env.DeployBlueprint(deployer, unittest.LogicFixture())
		require.NoError(t, err)

		embedded, err := env.DeployEmbeddedFactory(deployer, bp)
		require.NoError(t, err)
		embeddedAddr, err := embedded.CreatePassthrough(deployer, own, param, nil, []common.Address{guard}, nil)
		require.NoError(t, err)
		p, err := embedded.Passthrough(embeddedAddr)
		require.NoError(t, err)
		require.NoError(t, p.SetSingleRewardToken(guard, guard, "CRV"))

		linked, err := env.DeployLinkedFactory(deployer, bp, own, param, common.Address{})
		require.NoError(t, err)
		linkedAddr, err := linked.CreatePassthrough(deployer, []passthrough.RewardReceiver{{Gauge: guard}}, nil, []common.Address{guard})
		require.NoError(t, err)
		return linked, embeddedAddr, linkedAddr
	}

	verify := func(t *testing.T, original, loaded *Environment, linked *LinkedFactory, embeddedAddr, linkedAddr common.Address) {
		assert.Equal(t, original.Blueprints(), loaded.Blueprints())
		assert.Equal(t, original.Factories(), loaded.Factories())

		for _, address := range original.Factories() {
			want, err := original.Factory(address)
			require.NoError(t, err)
			got, err := loaded.Factory(address)
			require.NoError(t, err)
			assert.Equal(t, want.snapshot(), got.snapshot())
		}

		for _, address := range []common.Address{embeddedAddr, linkedAddr} {
			want, err := original.Passthrough(address)
			require.NoError(t, err)
			got, err := loaded.Passthrough(address)
			require.NoError(t, err)
			assert.Equal(t, want.snapshot(), got.snapshot())
			assert.Equal(t, want.GetAllGuards(), got.GetAllGuards())
		}

		// linked passthroughs follow the loaded factory
		loadedLinked, err := loaded.LinkedFactory(linked.Address())
		require.NoError(t, err)
		next := unittest.AddressFixture()
		require.NoError(t, loadedLinked.SetOwnershipAdmin(linked.OwnershipAdmin(), next))
		p, err := loaded.Passthrough(linkedAddr)
		require.NoError(t, err)
		assert.Equal(t, next, p.OwnershipAdmin())

		// the next creation continues the counter
		created, err := loadedLinked.CreatePassthrough(next, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, crypto.CreateAddress(linked.Address(), 2), created)
	}

	t.Run("empty journal", func(t *testing.T) {
		env, err := Load(inmemory.NewJournal())
		require.NoError(t, err)
		assert.Empty(t, env.Factories())
		assert.Empty(t, env.Blueprints())
	})

	t.Run("inmemory", func(t *testing.T) {
		journal := inmemory.NewJournal()
		original := NewEnvironment(WithJournal(journal))
		linked, e, l := populate(t, original)

		loaded, err := Load(journal, WithLogger(unittest.Logger()))
		require.NoError(t, err)
		verify(t, original, loaded, linked, e, l)
	})

	t.Run("pebble", func(t *testing.T) {
		unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
			journal, err := pebblestorage.NewJournal(db)
			require.NoError(t, err)
			original := NewEnvironment(WithJournal(journal))
			linked, e, l := populate(t, original)

			reopened, err := pebblestorage.NewJournal(db)
			require.NoError(t, err)
			loaded, err := Load(reopened)
			require.NoError(t, err)
			verify(t, original, loaded, linked, e, l)
		})
	})

	t.Run("badger", func(t *testing.T) {
		unittest.RunWithBadgerDB(t, func(db *badger.DB) {
			journal, err := badgerstorage.NewJournal(db)
			require.NoError(t, err)
			original := NewEnvironment(WithJournal(journal))
			linked, e, l := populate(t, original)

			reopened, err := badgerstorage.NewJournal(db)
			require.NoError(t, err)
			loaded, err := Load(reopened)
			require.NoError(t, err)
			verify(t, original, loaded, linked, e, l)
		})
	})
}

func TestRegistryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewRegistryCollector(reg)
	fx := newFixture(t, WithMetrics(collector))
	f := fx.embedded(t)
	admin := unittest.AddressFixture()

	for i := 0; i < 2; i++ {
		_, err := f.CreatePassthrough(admin, admin, admin, nil, nil, nil)
		require.NoError(t, err)
	}
	require.Error(t, f.SetBlueprint(admin, common.Address{}))

	count, err := testutil.GatherAndCount(reg, "passthrough_factory_passthroughs_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[family.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[family.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), values["passthrough_factory_passthroughs_created_total"])
	assert.Equal(t, float64(2), values["passthrough_factory_registry_size"])
	assert.Equal(t, float64(1), values["passthrough_operations_rejected_total"])
}
