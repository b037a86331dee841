package registry

// Reason strings of rejected operations. They are part of the observable
// contract: tooling matches on them verbatim.
const (
	ReasonOnlyOwnerSetBlueprint         = "only owner can set blueprint"
	ReasonOnlyOwnerTransferOwnership    = "only owner can transfer ownership"
	ReasonNewOwnerZero                  = "new owner cannot be zero address"
	ReasonOnlyOwnershipAdminSetOwnAdmin = "only ownership admin can set new ownership admin"
	ReasonOnlyOwnershipAdminSetParAdmin = "only ownership admin can set new parameter admin"
	ReasonOnlyOwnershipAdminSetEmAdmin  = "only ownership admin can set new emergency admin"
	ReasonNewOwnershipAdminZero         = "new ownership admin cannot be zero address"
	ReasonNewParameterAdminZero         = "new parameter admin cannot be zero address"
	ReasonNewEmergencyAdminZero         = "new emergency admin cannot be zero address"
	ReasonOwnershipAdminZero            = "ownership admin cannot be zero address"
	ReasonParameterAdminZero            = "parameter admin cannot be zero address"
	ReasonOwnerZero                     = "owner cannot be zero address"
	ReasonDeployerZero                  = "deployer cannot be zero address"
	ReasonBlueprintNotSet               = "blueprint not set"

	ReasonOnlyGuardsSetName                 = "only guards can set name"
	ReasonOnlyGuardsSetSingleRewardReceiver = "only guards can set single reward receiver"
	ReasonOnlyGuardsSetSingleRewardToken    = "only guards can set single reward token"
	ReasonOnlyGuardsSetGuards               = "only guards can set guards"
	ReasonOnlyGuardsSetDistributors         = "only guards can set distributors"
	ReasonOnlyGuardsSetRewardReceivers      = "only guards can set reward receivers"
)

// Operation names used for logging and metrics.
const (
	OpDeployBlueprint         = "deploy_blueprint"
	OpDeployFactory           = "deploy_factory"
	OpCreatePassthrough       = "create_passthrough"
	OpSetBlueprint            = "set_blueprint"
	OpTransferOwnership       = "transfer_ownership"
	OpSetOwnershipAdmin       = "set_ownership_admin"
	OpSetParameterAdmin       = "set_parameter_admin"
	OpSetEmergencyAdmin       = "set_emergency_admin"
	OpSetName                 = "set_name"
	OpSetSingleRewardReceiver = "set_single_reward_receiver"
	OpSetSingleRewardToken    = "set_single_reward_token"
	OpSetGuards               = "set_guards"
	OpSetDistributors         = "set_distributors"
	OpSetRewardReceivers      = "set_reward_receivers"
)
