package registry

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/registry/access"
	"github.com/gaugeflow/passthrough/registry/errors"
)

// Passthrough is one instance created by a factory. Guard gated writes are
// open to the explicit guards and to the ownership and parameter admins
// resolved through admins.
type Passthrough struct {
	mu  sync.RWMutex
	env *Environment
	log zerolog.Logger

	address common.Address
	factory common.Address
	admins  access.AdminSource

	name                  string
	guards                *access.RoleSet
	distributors          *access.RoleSet
	rewardReceivers       []passthrough.RewardReceiver
	singleRewardReceiver  common.Address
	singleRewardToken     common.Address
	singleRewardTokenName string
}

func newPassthrough(
	env *Environment,
	address common.Address,
	factory common.Address,
	admins access.AdminSource,
	rewardReceivers []passthrough.RewardReceiver,
	guards []common.Address,
	distributors []common.Address,
) *Passthrough {
	return &Passthrough{
		env: env,
		log: env.log.With().
			Hex("passthrough", address.Bytes()).
			Str("admin_mode", admins.Mode().String()).
			Logger(),
		address:         address,
		factory:         factory,
		admins:          admins,
		guards:          access.NewRoleSet(guards),
		distributors:    access.NewRoleSet(distributors),
		rewardReceivers: append([]passthrough.RewardReceiver(nil), rewardReceivers...),
	}
}

func (p *Passthrough) Address() common.Address {
	return p.address
}

// Factory returns the address of the factory that created p.
func (p *Passthrough) Factory() common.Address {
	return p.factory
}

// AdminMode reports whether admins are embedded or read from the factory.
func (p *Passthrough) AdminMode() passthrough.Generation {
	return p.admins.Mode()
}

func (p *Passthrough) OwnershipAdmin() common.Address {
	return p.admins.OwnershipAdmin()
}

func (p *Passthrough) ParameterAdmin() common.Address {
	return p.admins.ParameterAdmin()
}

func (p *Passthrough) EmergencyAdmin() common.Address {
	return p.admins.EmergencyAdmin()
}

func (p *Passthrough) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// GetAllGuards lists the explicit guards followed by the admins that are not
// explicit guards themselves.
func (p *Passthrough) GetAllGuards() []common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.effectiveGuards().All()
}

func (p *Passthrough) IsGuard(principal common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.effectiveGuards().IsGuard(principal)
}

func (p *Passthrough) GetAllDistributors() []common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.distributors.Members()
}

func (p *Passthrough) IsDistributor(principal common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.distributors.Contains(principal)
}

func (p *Passthrough) SingleRewardReceiver() common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.singleRewardReceiver
}

func (p *Passthrough) SingleRewardToken() common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.singleRewardToken
}

func (p *Passthrough) SingleRewardTokenName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.singleRewardTokenName
}

func (p *Passthrough) RewardReceivers() []passthrough.RewardReceiver {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]passthrough.RewardReceiver(nil), p.rewardReceivers...)
}

func (p *Passthrough) SetName(caller common.Address, name string) error {
	return p.guarded(caller, OpSetName, ReasonOnlyGuardsSetName, func() (passthrough.EventPayload, func()) {
		previous := p.name
		p.name = name
		return &passthrough.NameSet{Name: name}, func() { p.name = previous }
	})
}

// SetSingleRewardReceiver sets the gauge rewards are forwarded to when the
// passthrough serves a single gauge. Zero clears it.
func (p *Passthrough) SetSingleRewardReceiver(caller common.Address, receiver common.Address) error {
	return p.guarded(caller, OpSetSingleRewardReceiver, ReasonOnlyGuardsSetSingleRewardReceiver, func() (passthrough.EventPayload, func()) {
		previous := p.singleRewardReceiver
		p.singleRewardReceiver = receiver
		return &passthrough.SingleRewardReceiverSet{Receiver: receiver}, func() { p.singleRewardReceiver = previous }
	})
}

func (p *Passthrough) SetSingleRewardToken(caller common.Address, token common.Address, name string) error {
	return p.guarded(caller, OpSetSingleRewardToken, ReasonOnlyGuardsSetSingleRewardToken, func() (passthrough.EventPayload, func()) {
		previousToken, previousName := p.singleRewardToken, p.singleRewardTokenName
		p.singleRewardToken = token
		p.singleRewardTokenName = name
		return &passthrough.SingleRewardTokenSet{Token: token, Name: name}, func() {
			p.singleRewardToken = previousToken
			p.singleRewardTokenName = previousName
		}
	})
}

// SetGuards replaces the explicit guards. The admins stay guards regardless.
func (p *Passthrough) SetGuards(caller common.Address, guards []common.Address) error {
	return p.guarded(caller, OpSetGuards, ReasonOnlyGuardsSetGuards, func() (passthrough.EventPayload, func()) {
		previous := p.guards
		p.guards = access.NewRoleSet(guards)
		return &passthrough.GuardsSet{Guards: p.guards.Members()}, func() { p.guards = previous }
	})
}

func (p *Passthrough) SetDistributors(caller common.Address, distributors []common.Address) error {
	return p.guarded(caller, OpSetDistributors, ReasonOnlyGuardsSetDistributors, func() (passthrough.EventPayload, func()) {
		previous := p.distributors
		p.distributors = access.NewRoleSet(distributors)
		return &passthrough.DistributorsSet{Distributors: p.distributors.Members()}, func() { p.distributors = previous }
	})
}

func (p *Passthrough) SetRewardReceivers(caller common.Address, receivers []passthrough.RewardReceiver) error {
	return p.guarded(caller, OpSetRewardReceivers, ReasonOnlyGuardsSetRewardReceivers, func() (passthrough.EventPayload, func()) {
		previous := p.rewardReceivers
		p.rewardReceivers = append([]passthrough.RewardReceiver(nil), receivers...)
		payload := &passthrough.RewardReceiversSet{
			RewardReceivers: append([]passthrough.RewardReceiver(nil), p.rewardReceivers...),
		}
		return payload, func() { p.rewardReceivers = previous }
	})
}

// guarded runs apply under the write lock if caller is an effective guard,
// then commits the resulting event. apply returns the event payload and a
// function restoring the previous state. Consumers are notified after the
// lock is released.
func (p *Passthrough) guarded(caller common.Address, op string, reason string, apply func() (passthrough.EventPayload, func())) error {
	c, err := func() (committed, error) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if !p.effectiveGuards().IsGuard(caller) {
			return committed{}, p.env.reject(op, errors.NewAuthorizationError(reason))
		}

		payload, undo := apply()
		c, err := p.env.commit(passthrough.Event{Emitter: p.address, Payload: payload}, stateWrite(p.address, p.snapshot()))
		if err != nil {
			undo()
			return committed{}, err
		}
		return c, nil
	}()
	if err != nil {
		return err
	}
	p.env.publish(op, c)

	p.log.Debug().
		Str("operation", op).
		Hex("caller", caller.Bytes()).
		Msg("passthrough updated")
	return nil
}

func (p *Passthrough) effectiveGuards() access.Guards {
	return access.NewGuards(p.guards, p.admins)
}

// snapshot captures the passthrough state. Callers hold p.mu or own p
// exclusively. Linked admins are not stored since they live on the factory.
func (p *Passthrough) snapshot() *passthrough.PassthroughSnapshot {
	s := &passthrough.PassthroughSnapshot{
		Address:               p.address,
		Factory:               p.factory,
		Generation:            p.admins.Mode(),
		Name:                  p.name,
		Guards:                p.guards.Members(),
		Distributors:          p.distributors.Members(),
		RewardReceivers:       append([]passthrough.RewardReceiver(nil), p.rewardReceivers...),
		SingleRewardReceiver:  p.singleRewardReceiver,
		SingleRewardToken:     p.singleRewardToken,
		SingleRewardTokenName: p.singleRewardTokenName,
	}
	if s.Generation == passthrough.GenerationEmbedded {
		s.OwnershipAdmin = p.admins.OwnershipAdmin()
		s.ParameterAdmin = p.admins.ParameterAdmin()
		s.EmergencyAdmin = p.admins.EmergencyAdmin()
	}
	return s
}
