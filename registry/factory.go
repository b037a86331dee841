package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/registry/access"
	"github.com/gaugeflow/passthrough/registry/errors"
	"github.com/gaugeflow/passthrough/storage"
)

// Factory is the state shared by both factory generations: the owner, the
// blueprint new passthroughs are cloned from and the append-only registry of
// everything created so far.
//
// The registry only grows. Entry i never changes once written and every
// entry is the address of a passthrough created by this factory.
type Factory struct {
	mu  sync.RWMutex
	env *Environment
	log zerolog.Logger

	address    common.Address
	generation passthrough.Generation
	owner      common.Address
	blueprint  common.Address

	// only used by GenerationLinked
	ownershipAdmin common.Address
	parameterAdmin common.Address
	emergencyAdmin common.Address

	registry  []common.Address
	instances map[common.Address]*Passthrough
}

func newFactory(env *Environment, address common.Address, generation passthrough.Generation, owner, blueprintRef common.Address) *Factory {
	return &Factory{
		env: env,
		log: env.log.With().
			Hex("factory", address.Bytes()).
			Str("generation", generation.String()).
			Logger(),
		address:    address,
		generation: generation,
		owner:      owner,
		blueprint:  blueprintRef,
		instances:  make(map[common.Address]*Passthrough),
	}
}

func (f *Factory) Address() common.Address {
	return f.address
}

func (f *Factory) Generation() passthrough.Generation {
	return f.generation
}

func (f *Factory) Owner() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.owner
}

// Blueprint returns the blueprint reference, zero if unset.
func (f *Factory) Blueprint() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.blueprint
}

// GetPassthrough returns the i-th created passthrough.
// Expected errors: IndexOutOfBoundsError if i >= GetPassthroughCount().
func (f *Factory) GetPassthrough(i uint64) (common.Address, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if i >= uint64(len(f.registry)) {
		return common.Address{}, errors.NewIndexOutOfBoundsError()
	}
	return f.registry[i], nil
}

// GetAllPassthroughs returns a copy of the registry in creation order.
func (f *Factory) GetAllPassthroughs() []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]common.Address(nil), f.registry...)
}

func (f *Factory) GetPassthroughCount() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint64(len(f.registry))
}

// Passthrough returns the live passthrough at address if this factory
// created it.
func (f *Factory) Passthrough(address common.Address) (*Passthrough, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.instances[address]
	if !ok {
		return nil, fmt.Errorf("passthrough %s not created by factory %s: %w", address.Hex(), f.address.Hex(), storage.ErrNotFound)
	}
	return p, nil
}

// SetBlueprint replaces the blueprint used by future creations. Existing
// passthroughs are unaffected. Any reference is accepted, including zero.
func (f *Factory) SetBlueprint(caller common.Address, ref common.Address) error {
	err := f.mutate(OpSetBlueprint, func() (passthrough.EventPayload, func(), error) {
		if caller != f.owner {
			return nil, nil, f.env.reject(OpSetBlueprint, errors.NewAuthorizationError(ReasonOnlyOwnerSetBlueprint))
		}
		previous := f.blueprint
		f.blueprint = ref
		return &passthrough.BlueprintSet{Blueprint: ref}, func() { f.blueprint = previous }, nil
	})
	if err != nil {
		return err
	}

	f.log.Info().Hex("blueprint", ref.Bytes()).Msg("blueprint set")
	return nil
}

// TransferOwnership hands the factory over to newOwner.
func (f *Factory) TransferOwnership(caller common.Address, newOwner common.Address) error {
	var previous common.Address
	err := f.mutate(OpTransferOwnership, func() (passthrough.EventPayload, func(), error) {
		if caller != f.owner {
			return nil, nil, f.env.reject(OpTransferOwnership, errors.NewAuthorizationError(ReasonOnlyOwnerTransferOwnership))
		}
		if newOwner == (common.Address{}) {
			return nil, nil, f.env.reject(OpTransferOwnership, errors.NewInvalidArgumentErrorf(ReasonNewOwnerZero))
		}
		previous = f.owner
		f.owner = newOwner
		payload := &passthrough.OwnershipTransferred{PreviousOwner: previous, NewOwner: newOwner}
		return payload, func() { f.owner = previous }, nil
	})
	if err != nil {
		return err
	}

	f.log.Info().
		Hex("previous_owner", previous.Bytes()).
		Hex("new_owner", newOwner.Bytes()).
		Msg("ownership transferred")
	return nil
}

// create clones the blueprint into a new passthrough governed by admins and
// appends it to the registry. The caller does not need any role.
func (f *Factory) create(
	caller common.Address,
	admins access.AdminSource,
	rewardReceivers []passthrough.RewardReceiver,
	guards []common.Address,
	distributors []common.Address,
) (common.Address, error) {
	p, size, c, err := f.appendPassthrough(caller, admins, rewardReceivers, guards, distributors)
	if err != nil {
		return common.Address{}, err
	}
	f.env.publish(OpCreatePassthrough, c)

	f.log.Info().
		Hex("deployer", caller.Bytes()).
		Hex("passthrough", p.address.Bytes()).
		Uint64("registry_size", size).
		Msg("passthrough created")
	return p.address, nil
}

func (f *Factory) appendPassthrough(
	caller common.Address,
	admins access.AdminSource,
	rewardReceivers []passthrough.RewardReceiver,
	guards []common.Address,
	distributors []common.Address,
) (*Passthrough, uint64, committed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	address, undo, err := f.env.instantiate(f.address, f.blueprint)
	if err != nil {
		return nil, 0, committed{}, f.env.reject(OpCreatePassthrough, err)
	}

	p := newPassthrough(f.env, address, f.address, admins, rewardReceivers, guards, distributors)
	f.registry = append(f.registry, address)
	f.instances[address] = p

	ownershipAdmin, parameterAdmin := f.creationAdminsLocked(admins)
	event := passthrough.Event{
		Emitter: f.address,
		Payload: &passthrough.PassthroughCreated{
			Deployer:       caller,
			Passthrough:    address,
			OwnershipAdmin: ownershipAdmin,
			ParameterAdmin: parameterAdmin,
		},
	}
	c, err := f.env.commit(event, stateWrite(f.address, f.snapshot()), stateWrite(address, p.snapshot()))
	if err != nil {
		f.registry = f.registry[:len(f.registry)-1]
		delete(f.instances, address)
		undo()
		return nil, 0, committed{}, err
	}
	f.env.registerPassthrough(p)
	f.env.metrics.PassthroughCreated(f.address, uint64(len(f.registry)))
	return p, uint64(len(f.registry)), c, nil
}

// creationAdminsLocked resolves the admins reported in PassthroughCreated.
// Linked admins are read from the fields directly since f.mu is held.
func (f *Factory) creationAdminsLocked(admins access.AdminSource) (common.Address, common.Address) {
	if admins.Mode() == passthrough.GenerationLinked {
		return f.ownershipAdmin, f.parameterAdmin
	}
	return admins.OwnershipAdmin(), admins.ParameterAdmin()
}

// mutate runs apply under the write lock and journals the event it returns
// with the new factory snapshot. apply reports rejections as errors and
// otherwise returns a function undoing its change, used if the commit fails.
// Consumers are notified after the lock is released.
func (f *Factory) mutate(op string, apply func() (passthrough.EventPayload, func(), error)) error {
	c, err := func() (committed, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		payload, undo, err := apply()
		if err != nil {
			return committed{}, err
		}
		c, err := f.env.commit(passthrough.Event{Emitter: f.address, Payload: payload}, stateWrite(f.address, f.snapshot()))
		if err != nil {
			undo()
			return committed{}, err
		}
		return c, nil
	}()
	if err != nil {
		return err
	}
	f.env.publish(op, c)
	return nil
}

// snapshot captures the factory state. Callers hold f.mu.
func (f *Factory) snapshot() *passthrough.FactorySnapshot {
	return &passthrough.FactorySnapshot{
		Address:        f.address,
		Generation:     f.generation,
		Owner:          f.owner,
		Blueprint:      f.blueprint,
		OwnershipAdmin: f.ownershipAdmin,
		ParameterAdmin: f.parameterAdmin,
		EmergencyAdmin: f.emergencyAdmin,
		Passthroughs:   append([]common.Address(nil), f.registry...),
	}
}
