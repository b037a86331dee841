package registry

import (
	stdErrors "errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/registry/access"
	"github.com/gaugeflow/passthrough/registry/blueprint"
	"github.com/gaugeflow/passthrough/registry/state"
	"github.com/gaugeflow/passthrough/storage"
	"github.com/gaugeflow/passthrough/storage/operation"
)

// Load rebuilds an environment from the state committed to journal. An empty
// journal yields an empty environment. Further operations on the returned
// environment are appended to the same journal.
func Load(journal storage.Journal, opts ...Option) (*Environment, error) {
	env := NewEnvironment(append(opts, WithJournal(journal))...)

	var snapshot passthrough.EnvironmentSnapshot
	err := journal.Retrieve(operation.EnvironmentKey(), &snapshot)
	if stdErrors.Is(err, storage.ErrNotFound) {
		return env, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve environment: %w", err)
	}

	generator, err := state.AddressGeneratorFromBytes(snapshot.Generator)
	if err != nil {
		return nil, err
	}
	env.generator = generator

	for _, record := range snapshot.Blueprints {
		template, err := blueprint.Parse(record.Code)
		if err != nil {
			return nil, fmt.Errorf("could not parse blueprint %s: %w", record.Address.Hex(), err)
		}
		env.blueprints[record.Address] = &deployedBlueprint{deployer: record.Deployer, template: template}
		env.blueprintIDs = append(env.blueprintIDs, record.Address)
	}

	for _, address := range snapshot.Factories {
		if err := env.loadFactory(journal, address); err != nil {
			return nil, err
		}
	}

	env.log.Info().
		Int("blueprints", len(env.blueprintIDs)).
		Int("factories", len(env.factoryIDs)).
		Int("passthroughs", len(env.instances)).
		Msg("registry loaded")
	return env, nil
}

func (env *Environment) loadFactory(journal storage.Journal, address common.Address) error {
	var fs passthrough.FactorySnapshot
	if err := journal.Retrieve(operation.StateKey(address), &fs); err != nil {
		return fmt.Errorf("could not retrieve factory %s: %w", address.Hex(), err)
	}

	f := newFactory(env, address, fs.Generation, fs.Owner, fs.Blueprint)
	f.ownershipAdmin = fs.OwnershipAdmin
	f.parameterAdmin = fs.ParameterAdmin
	f.emergencyAdmin = fs.EmergencyAdmin

	for _, instance := range fs.Passthroughs {
		var ps passthrough.PassthroughSnapshot
		if err := journal.Retrieve(operation.StateKey(instance), &ps); err != nil {
			return fmt.Errorf("could not retrieve passthrough %s: %w", instance.Hex(), err)
		}

		var admins access.AdminSource
		switch ps.Generation {
		case passthrough.GenerationEmbedded:
			admins = access.NewEmbedded(ps.OwnershipAdmin, ps.ParameterAdmin, ps.EmergencyAdmin)
		case passthrough.GenerationLinked:
			admins = access.NewFactoryLinked(&LinkedFactory{Factory: f})
		default:
			return fmt.Errorf("passthrough %s has unknown admin mode %d", instance.Hex(), ps.Generation)
		}

		p := newPassthrough(env, instance, address, admins, ps.RewardReceivers, ps.Guards, ps.Distributors)
		p.name = ps.Name
		p.singleRewardReceiver = ps.SingleRewardReceiver
		p.singleRewardToken = ps.SingleRewardToken
		p.singleRewardTokenName = ps.SingleRewardTokenName

		f.registry = append(f.registry, instance)
		f.instances[instance] = p
		env.instances[instance] = p
	}

	// Creates do not persist the environment, so the factory counter is
	// derived from its registry.
	env.generator.SetNonce(address, state.ContractStartNonce+uint64(len(f.registry)))

	env.factories[address] = f
	env.factoryIDs = append(env.factoryIDs, address)
	return nil
}
