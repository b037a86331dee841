package orchestration

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/registry"
)

// Audit log operation names.
const (
	AuditDeployBlueprint   = "deploy_blueprint"
	AuditDeployFactory     = "deploy_factory"
	AuditDeployPassthrough = "deploy_via_factory"
	AuditDeployMany        = "deploy_factory_many"
	AuditFactoryAdmin      = "factory_admin"
)

const verifyConcurrency = 4

// DryRunAddress stands in for the passthrough address in records written
// by PlanMany.
const DryRunAddress = "no passthrough address, as this is a dry run"

// NewGaugeManager is the manager newly added gauges are handed over to.
var NewGaugeManager = common.HexToAddress("0xf7Bd34Dd44B92fB2f9C3D2e31aAAd06570a853A6")

// Deployer runs the operator workflows against an environment on behalf of
// account and writes an audit record after every successful step.
type Deployer struct {
	log     zerolog.Logger
	env     *registry.Environment
	network NetworkParams
	audit   *AuditLog
	account common.Address
}

func NewDeployer(log zerolog.Logger, env *registry.Environment, network NetworkParams, audit *AuditLog, account common.Address) *Deployer {
	return &Deployer{
		log: log.With().
			Str("component", "deployer").
			Str("chain", network.Name).
			Logger(),
		env:     env,
		network: network,
		audit:   audit,
		account: account,
	}
}

// Deployment is one passthrough created by DeployMany.
type Deployment struct {
	Passthrough common.Address
	Gauge       Gauge
}

// FactoryInfo summarizes a factory and its registry.
type FactoryInfo struct {
	Address        common.Address
	Generation     passthrough.Generation
	Blueprint      common.Address
	Owner          common.Address
	OwnershipAdmin common.Address
	ParameterAdmin common.Address
	EmergencyAdmin common.Address
	Passthroughs   []common.Address
}

func (d *Deployer) DeployBlueprint(logic []byte) (common.Address, error) {
	d.log.Info().Msg("deploying passthrough blueprint")

	address, err := d.env.DeployBlueprint(d.account, logic)
	if err != nil {
		return common.Address{}, fmt.Errorf("could not deploy blueprint: %w", err)
	}

	d.log.Info().
		Hex("blueprint", address.Bytes()).
		Str("explorer", d.network.AddressLink(address.Hex())).
		Msg("blueprint deployed")

	return address, d.audit.Record(AuditDeployBlueprint,
		Field{"Passthrough Blueprint", address.Hex()},
		Field{"Link", d.network.AddressLink(address.Hex())},
	)
}

// DeployFactory deploys a factory of the given generation. Linked factories
// take their admins from cfg.
func (d *Deployer) DeployFactory(generation passthrough.Generation, blueprint common.Address, cfg Config) (common.Address, error) {
	d.log.Info().
		Str("generation", generation.String()).
		Hex("blueprint", blueprint.Bytes()).
		Msg("deploying passthrough factory")

	var (
		address common.Address
		fields  []Field
	)
	switch generation {
	case passthrough.GenerationEmbedded:
		f, err := d.env.DeployEmbeddedFactory(d.account, blueprint)
		if err != nil {
			return common.Address{}, fmt.Errorf("could not deploy factory: %w", err)
		}
		address = f.Address()
	case passthrough.GenerationLinked:
		f, err := d.env.DeployLinkedFactory(d.account, blueprint, cfg.OwnershipAdmin, cfg.ParameterAdmin, cfg.EmergencyAdmin)
		if err != nil {
			return common.Address{}, fmt.Errorf("could not deploy factory: %w", err)
		}
		address = f.Address()
		fields = append(fields,
			Field{"Ownership Admin", cfg.OwnershipAdmin.Hex()},
			Field{"Parameter Admin", cfg.ParameterAdmin.Hex()},
			Field{"Emergency Admin", cfg.EmergencyAdmin.Hex()},
		)
	default:
		return common.Address{}, fmt.Errorf("unknown factory generation %d", generation)
	}

	d.log.Info().
		Hex("factory", address.Bytes()).
		Str("explorer", d.network.AddressLink(address.Hex())).
		Msg("factory deployed")

	fields = append([]Field{
		{"PassthroughFactory", address.Hex()},
		{"Generation", generation.String()},
		{"Blueprint", blueprint.Hex()},
		{"Owner", d.account.Hex()},
	}, fields...)
	fields = append(fields, d.feeFields()...)
	fields = append(fields, Field{"Link", d.network.AddressLink(address.Hex())})
	return address, d.audit.Record(AuditDeployFactory, fields...)
}

// DeployPassthrough creates one passthrough with the guards of cfg. For
// embedded factories the admins of cfg are copied into it.
func (d *Deployer) DeployPassthrough(factory common.Address, cfg Config, receivers []passthrough.RewardReceiver) (common.Address, error) {
	address, err := d.create(factory, cfg, receivers)
	if err != nil {
		return common.Address{}, err
	}

	p, err := d.env.Passthrough(address)
	if err != nil {
		return common.Address{}, err
	}
	args, err := ConstructorArgs(receiverGauges(receivers), cfg.Guards, nil)
	if err != nil {
		return common.Address{}, err
	}
	d.log.Debug().Str("constructor_args", hexutil.Encode(args)).Msg("encoded constructor arguments")

	return address, d.audit.Record(AuditDeployPassthrough,
		Field{"Passthrough", address.Hex()},
		Field{"Factory", factory.Hex()},
		Field{"Ownership Admin", p.OwnershipAdmin().Hex()},
		Field{"Parameter Admin", p.ParameterAdmin().Hex()},
		Field{"Constructor Arguments", hexutil.Encode(args)},
		Field{"Link", d.network.AddressLink(address.Hex())},
	)
}

// DeployMany creates and configures one passthrough per gauge of cfg:
// name, single reward receiver (skipped for gauges that are not live yet)
// and single reward token. It stops at the first failure and returns the
// deployments completed so far.
func (d *Deployer) DeployMany(ctx context.Context, factory common.Address, cfg Config) ([]Deployment, error) {
	args, err := ConstructorArgs(nil, cfg.Guards, nil)
	if err != nil {
		return nil, err
	}

	var deployments []Deployment
	for _, gauge := range cfg.Gauges {
		if err := ctx.Err(); err != nil {
			return deployments, err
		}

		log := d.log.With().Str("gauge_name", gauge.Name).Hex("gauge", gauge.Address.Bytes()).Logger()
		log.Info().Msg("deploying passthrough")

		address, err := d.create(factory, cfg, nil)
		if err != nil {
			return deployments, err
		}
		p, err := d.env.Passthrough(address)
		if err != nil {
			return deployments, err
		}

		if err := p.SetName(d.account, gauge.Name); err != nil {
			return deployments, fmt.Errorf("could not set name of %s: %w", address.Hex(), err)
		}
		if gauge.Address != (common.Address{}) {
			if err := p.SetSingleRewardReceiver(d.account, gauge.Address); err != nil {
				return deployments, fmt.Errorf("could not set reward receiver of %s: %w", address.Hex(), err)
			}
		} else {
			log.Warn().Msg("gauge not live yet, reward receiver left unset")
		}
		if err := p.SetSingleRewardToken(d.account, cfg.RewardToken, cfg.RewardTokenName); err != nil {
			return deployments, fmt.Errorf("could not set reward token of %s: %w", address.Hex(), err)
		}

		deployments = append(deployments, Deployment{Passthrough: address, Gauge: gauge})
		log.Info().Hex("passthrough", address.Bytes()).Msg("passthrough configured")

		if err := d.recordMany(address.Hex(), gauge, cfg, args); err != nil {
			return deployments, err
		}
	}
	return deployments, nil
}

// PlanMany logs and audits what DeployMany would do with cfg without creating
// anything. Records carry DryRunAddress in place of the passthrough.
func (d *Deployer) PlanMany(ctx context.Context, cfg Config) error {
	args, err := ConstructorArgs(nil, cfg.Guards, nil)
	if err != nil {
		return err
	}
	d.log.Info().Int("gauges", len(cfg.Gauges)).Msg("dry run, no deployments will be made")

	for _, gauge := range cfg.Gauges {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.log.Info().
			Str("gauge_name", gauge.Name).
			Hex("gauge", gauge.Address.Bytes()).
			Str("constructor_args", hexutil.Encode(args)).
			Msg("would deploy passthrough")

		if err := d.recordMany(DryRunAddress, gauge, cfg, args); err != nil {
			return err
		}
	}
	return nil
}

// recordMany writes the batch record of one gauge, followed by the calls an
// operator still has to make on the passthrough and on the gauge.
func (d *Deployer) recordMany(address string, gauge Gauge, cfg Config, args []byte) error {
	receiver := gauge.Address.Hex()
	token := cfg.RewardToken.Hex()

	fields := []Field{
		{"Passthrough Contract", address},
		{"Name", gauge.Name},
		{"Reward Receiver/Gauge", receiver},
		{"Reward Token", token},
		{"Reward Token Name", cfg.RewardTokenName},
		{"Gauge Manager", cfg.GaugeManager.Hex()},
		{"Constructor Arguments", hexutil.Encode(args)},
		{"Passthrough Link", d.network.AddressLink(address)},
		Rule(),
		Text(fmt.Sprintf("Done with %s Passthrough", gauge.Name)),
		Rule(),
		{"Set name", fmt.Sprintf("set_name('%s')", gauge.Name)},
		{"Set reward receiver", fmt.Sprintf("set_single_reward_receiver('%s')", receiver)},
		{"Set single reward token", ""},
		Text(fmt.Sprintf("set_single_reward_token('%s', '%s')", token, cfg.RewardTokenName)),
		Text(""),
		Rule(),
		Text("Change this on gauge"),
		Rule(),
		{"if coin added the first time", ""},
		{"add_reward()", d.network.AddressLink(receiver) + "#writeContract#F20"},
		Text(fmt.Sprintf("add_reward('%s', '%s')", token, address)),
		Text(""),
		{"if coin already added", ""},
		{"set_reward_distributor()", d.network.AddressLink(receiver) + "#writeContract#F24"},
		Text(fmt.Sprintf("set_reward_distributor('%s', '%s')", token, address)),
	}
	if cfg.GaugeManager != NewGaugeManager {
		fields = append(fields, Text(fmt.Sprintf("Set manager: set_manager('%s') <-- this is standard for new gauges", NewGaugeManager.Hex())))
	}
	return d.audit.Record(AuditDeployMany, fields...)
}

// Verify reads every deployment back and checks it carries the configuration
// DeployMany applied.
func (d *Deployer) Verify(ctx context.Context, deployments []Deployment, cfg Config) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)

	for _, deployment := range deployments {
		deployment := deployment
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := d.env.Passthrough(deployment.Passthrough)
			if err != nil {
				return err
			}
			if name := p.Name(); name != deployment.Gauge.Name {
				return fmt.Errorf("passthrough %s: name is %q, expected %q", deployment.Passthrough.Hex(), name, deployment.Gauge.Name)
			}
			if receiver := p.SingleRewardReceiver(); receiver != deployment.Gauge.Address {
				return fmt.Errorf("passthrough %s: reward receiver is %s, expected %s", deployment.Passthrough.Hex(), receiver.Hex(), deployment.Gauge.Address.Hex())
			}
			if token := p.SingleRewardToken(); token != cfg.RewardToken {
				return fmt.Errorf("passthrough %s: reward token is %s, expected %s", deployment.Passthrough.Hex(), token.Hex(), cfg.RewardToken.Hex())
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Deployer) FactoryInfo(factory common.Address) (FactoryInfo, error) {
	f, err := d.env.Factory(factory)
	if err != nil {
		return FactoryInfo{}, err
	}

	info := FactoryInfo{
		Address:      f.Address(),
		Generation:   f.Generation(),
		Blueprint:    f.Blueprint(),
		Owner:        f.Owner(),
		Passthroughs: f.GetAllPassthroughs(),
	}
	if f.Generation() == passthrough.GenerationLinked {
		linked, err := d.env.LinkedFactory(factory)
		if err != nil {
			return FactoryInfo{}, err
		}
		info.OwnershipAdmin = linked.OwnershipAdmin()
		info.ParameterAdmin = linked.ParameterAdmin()
		info.EmergencyAdmin = linked.EmergencyAdmin()
	}
	return info, nil
}

func (d *Deployer) SetBlueprint(factory common.Address, blueprint common.Address) error {
	f, err := d.env.Factory(factory)
	if err != nil {
		return err
	}
	if err := f.SetBlueprint(d.account, blueprint); err != nil {
		return err
	}
	return d.audit.Record(AuditFactoryAdmin,
		Field{"Factory", factory.Hex()},
		Field{"Set Blueprint", blueprint.Hex()},
	)
}

func (d *Deployer) TransferOwnership(factory common.Address, newOwner common.Address) error {
	f, err := d.env.Factory(factory)
	if err != nil {
		return err
	}
	if err := f.TransferOwnership(d.account, newOwner); err != nil {
		return err
	}
	return d.audit.Record(AuditFactoryAdmin,
		Field{"Factory", factory.Hex()},
		Field{"Transfer Ownership", newOwner.Hex()},
	)
}

// SetAdmin rotates one admin role of a linked factory. role is one of
// ownership, parameter or emergency.
func (d *Deployer) SetAdmin(factory common.Address, role string, admin common.Address) error {
	f, err := d.env.LinkedFactory(factory)
	if err != nil {
		return err
	}

	switch role {
	case "ownership":
		err = f.SetOwnershipAdmin(d.account, admin)
	case "parameter":
		err = f.SetParameterAdmin(d.account, admin)
	case "emergency":
		err = f.SetEmergencyAdmin(d.account, admin)
	default:
		return fmt.Errorf("unknown admin role %q", role)
	}
	if err != nil {
		return err
	}
	return d.audit.Record(AuditFactoryAdmin,
		Field{"Factory", factory.Hex()},
		Field{"Set " + role + " admin", admin.Hex()},
	)
}

func (d *Deployer) create(factory common.Address, cfg Config, receivers []passthrough.RewardReceiver) (common.Address, error) {
	f, err := d.env.Factory(factory)
	if err != nil {
		return common.Address{}, err
	}

	var address common.Address
	switch f.Generation() {
	case passthrough.GenerationEmbedded:
		embedded, err := d.env.EmbeddedFactory(factory)
		if err != nil {
			return common.Address{}, err
		}
		address, err = embedded.CreatePassthrough(d.account, cfg.OwnershipAdmin, cfg.ParameterAdmin, receivers, cfg.Guards, nil)
		if err != nil {
			return common.Address{}, fmt.Errorf("could not create passthrough: %w", err)
		}
	case passthrough.GenerationLinked:
		linked, err := d.env.LinkedFactory(factory)
		if err != nil {
			return common.Address{}, err
		}
		address, err = linked.CreatePassthrough(d.account, receivers, cfg.Guards, nil)
		if err != nil {
			return common.Address{}, fmt.Errorf("could not create passthrough: %w", err)
		}
	}

	d.log.Info().
		Hex("factory", factory.Bytes()).
		Hex("passthrough", address.Bytes()).
		Str("explorer", d.network.AddressLink(address.Hex())).
		Msg("passthrough created")
	return address, nil
}

func (d *Deployer) feeFields() []Field {
	fields := []Field{
		{"Max Fee", d.network.MaxFee},
		{"Max Priority Fee", d.network.MaxPriorityFee},
	}
	if wei, err := d.network.MaxFeeWei(); err == nil {
		fields = append(fields, Field{"Max Fee (wei)", wei.String()})
	}
	return fields
}
