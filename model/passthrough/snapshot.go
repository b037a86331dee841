package passthrough

import (
	"github.com/ethereum/go-ethereum/common"
)

// FactorySnapshot is the persisted form of a factory.
// Admin fields are only meaningful for GenerationLinked.
type FactorySnapshot struct {
	Address        common.Address
	Generation     Generation
	Owner          common.Address
	Blueprint      common.Address
	OwnershipAdmin common.Address
	ParameterAdmin common.Address
	EmergencyAdmin common.Address
	Passthroughs   []common.Address
}

// PassthroughSnapshot is the persisted form of a passthrough. The admin
// fields are stored for GenerationEmbedded only; linked passthroughs read
// them from Factory.
type PassthroughSnapshot struct {
	Address               common.Address
	Factory               common.Address
	Generation            Generation
	OwnershipAdmin        common.Address
	ParameterAdmin        common.Address
	EmergencyAdmin        common.Address
	Name                  string
	Guards                []common.Address
	Distributors          []common.Address
	RewardReceivers       []RewardReceiver
	SingleRewardReceiver  common.Address
	SingleRewardToken     common.Address
	SingleRewardTokenName string
}

// BlueprintRecord is a deployed blueprint as stored in the environment.
type BlueprintRecord struct {
	Address  common.Address
	Deployer common.Address
	Code     []byte
}

// EnvironmentSnapshot is the persisted form of the execution environment:
// account counters, blueprint code and the factories deployed so far.
type EnvironmentSnapshot struct {
	Generator  []byte
	Blueprints []BlueprintRecord
	Factories  []common.Address
}
