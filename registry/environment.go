package registry

import (
	stdErrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/module"
	"github.com/gaugeflow/passthrough/module/metrics"
	"github.com/gaugeflow/passthrough/registry/blueprint"
	"github.com/gaugeflow/passthrough/registry/errors"
	"github.com/gaugeflow/passthrough/registry/state"
	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/inmemory"
	"github.com/gaugeflow/passthrough/storage/operation"
)

// Environment is the execution substrate factories and passthroughs live in.
// It owns address allocation, the deployed blueprints and the commit log.
//
// Lock order is passthrough, then factory, then environment. Nothing that
// holds the environment lock calls into a factory or a passthrough. Events
// are dispatched once every registry lock is released.
type Environment struct {
	mu sync.RWMutex

	log       zerolog.Logger
	journal   storage.Journal
	metrics   module.RegistryMetrics
	consumers []EventConsumer
	events    *dispatcher

	// commitMu orders tickets with the commit log
	commitMu sync.Mutex
	tickets  uint64

	generator    *state.AddressGenerator
	blueprints   map[common.Address]*deployedBlueprint
	blueprintIDs []common.Address
	factories    map[common.Address]*Factory
	factoryIDs   []common.Address
	instances    map[common.Address]*Passthrough
}

type deployedBlueprint struct {
	deployer common.Address
	template *blueprint.Template
}

type Option func(*Environment)

// WithJournal sets the commit log. Defaults to an in-memory journal.
func WithJournal(journal storage.Journal) Option {
	return func(env *Environment) {
		env.journal = journal
	}
}

func WithMetrics(collector module.RegistryMetrics) Option {
	return func(env *Environment) {
		env.metrics = collector
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(env *Environment) {
		env.log = log
	}
}

// WithConsumers registers consumers that receive every committed event in
// commit order.
func WithConsumers(consumers ...EventConsumer) Option {
	return func(env *Environment) {
		env.consumers = append(env.consumers, consumers...)
	}
}

func NewEnvironment(opts ...Option) *Environment {
	env := &Environment{
		log:        zerolog.Nop(),
		journal:    inmemory.NewJournal(),
		metrics:    metrics.NewNoopCollector(),
		generator:  state.NewAddressGenerator(),
		blueprints: make(map[common.Address]*deployedBlueprint),
		factories:  make(map[common.Address]*Factory),
		instances:  make(map[common.Address]*Passthrough),
	}
	for _, apply := range opts {
		apply(env)
	}
	env.events = newDispatcher(env.consumers)
	env.log = env.log.With().Str("component", "registry").Logger()
	return env
}

// Journal returns the commit log backing the environment.
func (env *Environment) Journal() storage.Journal {
	return env.journal
}

// DeployBlueprint stores logic as an ERC-5202 blueprint owned by deployer and
// returns its address. Blueprints cannot be called, only instantiated.
func (env *Environment) DeployBlueprint(deployer common.Address, logic []byte) (common.Address, error) {
	if deployer == (common.Address{}) {
		return common.Address{}, env.reject(OpDeployBlueprint, errors.NewInvalidArgumentErrorf(ReasonDeployerZero))
	}
	template, err := blueprint.New(logic)
	if err != nil {
		return common.Address{}, env.reject(OpDeployBlueprint, err)
	}

	address, c, err := env.storeBlueprint(deployer, template)
	if err != nil {
		return common.Address{}, err
	}
	env.publish(OpDeployBlueprint, c)

	env.log.Info().
		Hex("deployer", deployer.Bytes()).
		Hex("blueprint", address.Bytes()).
		Hex("code_hash", template.Hash().Bytes()).
		Msg("blueprint deployed")
	return address, nil
}

func (env *Environment) storeBlueprint(deployer common.Address, template *blueprint.Template) (common.Address, committed, error) {
	env.mu.Lock()
	defer env.mu.Unlock()

	prevNonce := env.generator.Nonce(deployer)
	address := env.generator.NextAddress(deployer)
	env.blueprints[address] = &deployedBlueprint{deployer: deployer, template: template}
	env.blueprintIDs = append(env.blueprintIDs, address)

	event := passthrough.Event{
		Emitter: address,
		Payload: &passthrough.BlueprintDeployed{
			Deployer:  deployer,
			Blueprint: address,
			CodeHash:  template.Hash(),
		},
	}
	c, err := env.commit(event, env.snapshotWrite())
	if err != nil {
		delete(env.blueprints, address)
		env.blueprintIDs = env.blueprintIDs[:len(env.blueprintIDs)-1]
		env.generator.SetNonce(deployer, prevNonce)
		return common.Address{}, committed{}, err
	}
	return address, c, nil
}

// Blueprint returns the template deployed at address.
func (env *Environment) Blueprint(address common.Address) (*blueprint.Template, error) {
	env.mu.RLock()
	defer env.mu.RUnlock()

	deployed, ok := env.blueprints[address]
	if !ok {
		return nil, errors.NewBlueprintNotFoundError(address)
	}
	return deployed.template, nil
}

// Blueprints lists the deployed blueprints in deployment order.
func (env *Environment) Blueprints() []common.Address {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return append([]common.Address(nil), env.blueprintIDs...)
}

// DeployEmbeddedFactory deploys a first generation factory. Passthroughs it
// creates carry their own copy of the admins. blueprintRef may be zero and
// set later.
func (env *Environment) DeployEmbeddedFactory(deployer common.Address, blueprintRef common.Address) (*EmbeddedFactory, error) {
	f, err := env.deployFactory(deployer, blueprintRef, passthrough.GenerationEmbedded, common.Address{}, common.Address{}, common.Address{})
	if err != nil {
		return nil, err
	}
	return &EmbeddedFactory{Factory: f}, nil
}

// DeployLinkedFactory deploys a second generation factory holding the admins
// every passthrough it creates defers to.
func (env *Environment) DeployLinkedFactory(
	deployer common.Address,
	blueprintRef common.Address,
	ownershipAdmin common.Address,
	parameterAdmin common.Address,
	emergencyAdmin common.Address,
) (*LinkedFactory, error) {
	if ownershipAdmin == (common.Address{}) {
		return nil, env.reject(OpDeployFactory, errors.NewInvalidArgumentErrorf(ReasonOwnershipAdminZero))
	}
	if parameterAdmin == (common.Address{}) {
		return nil, env.reject(OpDeployFactory, errors.NewInvalidArgumentErrorf(ReasonParameterAdminZero))
	}
	f, err := env.deployFactory(deployer, blueprintRef, passthrough.GenerationLinked, ownershipAdmin, parameterAdmin, emergencyAdmin)
	if err != nil {
		return nil, err
	}
	return &LinkedFactory{Factory: f}, nil
}

func (env *Environment) deployFactory(
	deployer common.Address,
	blueprintRef common.Address,
	generation passthrough.Generation,
	ownershipAdmin, parameterAdmin, emergencyAdmin common.Address,
) (*Factory, error) {
	if deployer == (common.Address{}) {
		return nil, env.reject(OpDeployFactory, errors.NewInvalidArgumentErrorf(ReasonOwnerZero))
	}

	f, c, err := env.storeFactory(deployer, blueprintRef, generation, ownershipAdmin, parameterAdmin, emergencyAdmin)
	if err != nil {
		return nil, err
	}
	env.publish(OpDeployFactory, c)

	env.log.Info().
		Hex("factory", f.address.Bytes()).
		Hex("owner", deployer.Bytes()).
		Str("generation", generation.String()).
		Msg("factory deployed")
	return f, nil
}

func (env *Environment) storeFactory(
	deployer common.Address,
	blueprintRef common.Address,
	generation passthrough.Generation,
	ownershipAdmin, parameterAdmin, emergencyAdmin common.Address,
) (*Factory, committed, error) {
	env.mu.Lock()
	defer env.mu.Unlock()

	prevNonce := env.generator.Nonce(deployer)
	address := env.generator.NextAddress(deployer)
	env.generator.InitContract(address)

	f := newFactory(env, address, generation, deployer, blueprintRef)
	f.ownershipAdmin = ownershipAdmin
	f.parameterAdmin = parameterAdmin
	f.emergencyAdmin = emergencyAdmin
	env.factories[address] = f
	env.factoryIDs = append(env.factoryIDs, address)

	event := passthrough.Event{
		Emitter: address,
		Payload: &passthrough.FactoryDeployed{
			Factory:    address,
			Owner:      deployer,
			Blueprint:  blueprintRef,
			Generation: uint8(generation),
		},
	}
	c, err := env.commit(event, env.snapshotWrite(), stateWrite(address, f.snapshot()))
	if err != nil {
		delete(env.factories, address)
		env.factoryIDs = env.factoryIDs[:len(env.factoryIDs)-1]
		env.generator.SetNonce(address, 0)
		env.generator.SetNonce(deployer, prevNonce)
		return nil, committed{}, err
	}
	return f, c, nil
}

// Factory returns the factory deployed at address, whatever its generation.
func (env *Environment) Factory(address common.Address) (*Factory, error) {
	env.mu.RLock()
	defer env.mu.RUnlock()

	f, ok := env.factories[address]
	if !ok {
		return nil, fmt.Errorf("no factory at %s: %w", address.Hex(), storage.ErrNotFound)
	}
	return f, nil
}

// EmbeddedFactory returns the first generation factory at address.
func (env *Environment) EmbeddedFactory(address common.Address) (*EmbeddedFactory, error) {
	f, err := env.Factory(address)
	if err != nil {
		return nil, err
	}
	if f.generation != passthrough.GenerationEmbedded {
		return nil, fmt.Errorf("factory %s is %s, not embedded", address.Hex(), f.generation)
	}
	return &EmbeddedFactory{Factory: f}, nil
}

// LinkedFactory returns the second generation factory at address.
func (env *Environment) LinkedFactory(address common.Address) (*LinkedFactory, error) {
	f, err := env.Factory(address)
	if err != nil {
		return nil, err
	}
	if f.generation != passthrough.GenerationLinked {
		return nil, fmt.Errorf("factory %s is %s, not linked", address.Hex(), f.generation)
	}
	return &LinkedFactory{Factory: f}, nil
}

// Factories lists the deployed factories in deployment order.
func (env *Environment) Factories() []common.Address {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return append([]common.Address(nil), env.factoryIDs...)
}

// Passthrough returns the passthrough at address regardless of the factory
// that created it.
func (env *Environment) Passthrough(address common.Address) (*Passthrough, error) {
	env.mu.RLock()
	defer env.mu.RUnlock()

	p, ok := env.instances[address]
	if !ok {
		return nil, fmt.Errorf("no passthrough at %s: %w", address.Hex(), storage.ErrNotFound)
	}
	return p, nil
}

// instantiate allocates the address of a new instance of the blueprint at
// ref, created by creator. The returned undo releases the allocation and must
// be called if the surrounding operation does not commit.
func (env *Environment) instantiate(creator common.Address, ref common.Address) (common.Address, func(), error) {
	if ref == (common.Address{}) {
		return common.Address{}, nil, errors.NewCreationFailuref(ReasonBlueprintNotSet)
	}

	env.mu.Lock()
	defer env.mu.Unlock()

	if _, ok := env.blueprints[ref]; !ok {
		return common.Address{}, nil, errors.NewBlueprintNotFoundError(ref)
	}

	prevNonce := env.generator.Nonce(creator)
	address := env.generator.NextAddress(creator)
	env.generator.InitContract(address)

	undo := func() {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.generator.SetNonce(address, 0)
		env.generator.SetNonce(creator, prevNonce)
	}
	return address, undo, nil
}

func (env *Environment) registerPassthrough(p *Passthrough) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.instances[p.address] = p
}

// snapshotWrite captures the environment state. Callers hold env.mu.
func (env *Environment) snapshotWrite() storage.Write {
	snapshot := passthrough.EnvironmentSnapshot{
		Generator:  env.generator.Bytes(),
		Blueprints: make([]passthrough.BlueprintRecord, 0, len(env.blueprintIDs)),
		Factories:  append([]common.Address(nil), env.factoryIDs...),
	}
	for _, address := range env.blueprintIDs {
		deployed := env.blueprints[address]
		snapshot.Blueprints = append(snapshot.Blueprints, passthrough.BlueprintRecord{
			Address:  address,
			Deployer: deployed.deployer,
			Code:     deployed.template.Code(),
		})
	}
	return storage.Write{Key: operation.EnvironmentKey(), Value: &snapshot}
}

func stateWrite(address common.Address, snapshot interface{}) storage.Write {
	return storage.Write{Key: operation.StateKey(address), Value: snapshot}
}

// commit appends event to the commit log together with writes. On error
// nothing was persisted and the caller must undo its in-memory change. On
// success the caller must publish the result once it released its locks.
func (env *Environment) commit(event passthrough.Event, writes ...storage.Write) (committed, error) {
	payload, err := event.EncodePayload()
	if err != nil {
		return committed{}, errors.NewEncodingFailuref("could not encode event payload: %w", err)
	}

	env.commitMu.Lock()
	defer env.commitMu.Unlock()

	start := time.Now()
	seq, err := env.journal.Append(&storage.Entry{
		Emitter: event.Emitter,
		Type:    string(event.Type()),
		Payload: payload,
	}, writes...)
	env.metrics.JournalCommitDuration(time.Since(start))
	if err != nil {
		env.log.Error().Err(err).
			Str("event", event.String()).
			Msg("could not commit operation")
		return committed{}, errors.NewJournalFailure(err)
	}

	c := committed{ticket: env.tickets, sequence: seq, event: event}
	env.tickets++
	return c, nil
}

// publish hands a committed operation to the consumers. Callers must not hold
// any registry lock.
func (env *Environment) publish(op string, c committed) {
	env.metrics.OperationCommitted(op)
	env.events.dispatch(c)
}

// reject records a user error and returns it unchanged.
func (env *Environment) reject(op string, err error) error {
	cat := category(err)
	env.metrics.OperationRejected(op, cat)
	if cat == "authorization" {
		env.log.Warn().Str("operation", op).Err(err).Msg("unauthorized caller")
		return err
	}
	env.log.Debug().Str("operation", op).Err(err).Msg("operation rejected")
	return err
}

func category(err error) string {
	var coded *errors.CodedError
	if stdErrors.As(err, &coded) {
		switch coded.Code() {
		case errors.ErrCodeAuthorizationError:
			return "authorization"
		case errors.ErrCodeInvalidArgumentError:
			return "invalid_argument"
		case errors.ErrCodeIndexOutOfBoundsError:
			return "index_out_of_bounds"
		case errors.ErrCodeCreationFailure:
			return "creation_failure"
		}
	}
	return "failure"
}
