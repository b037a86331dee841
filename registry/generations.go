package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/registry/access"
	"github.com/gaugeflow/passthrough/registry/errors"
)

// EmbeddedFactory is a first generation factory. Every passthrough it creates
// holds an immutable copy of the admins given at creation.
type EmbeddedFactory struct {
	*Factory
}

// CreatePassthrough creates a passthrough administered by ownershipAdmin and
// parameterAdmin. Both admins act as guards of the new passthrough.
func (f *EmbeddedFactory) CreatePassthrough(
	caller common.Address,
	ownershipAdmin common.Address,
	parameterAdmin common.Address,
	rewardReceivers []passthrough.RewardReceiver,
	guards []common.Address,
	distributors []common.Address,
) (common.Address, error) {
	if ownershipAdmin == (common.Address{}) {
		return common.Address{}, f.env.reject(OpCreatePassthrough, errors.NewInvalidArgumentErrorf(ReasonOwnershipAdminZero))
	}
	if parameterAdmin == (common.Address{}) {
		return common.Address{}, f.env.reject(OpCreatePassthrough, errors.NewInvalidArgumentErrorf(ReasonParameterAdminZero))
	}
	admins := access.NewEmbedded(ownershipAdmin, parameterAdmin, common.Address{})
	return f.create(caller, admins, rewardReceivers, guards, distributors)
}

// LinkedFactory is a second generation factory. It holds the admins and every
// passthrough it creates reads them from here, so rotating an admin takes
// effect on all of them at once.
type LinkedFactory struct {
	*Factory
}

var _ access.AdminReader = (*LinkedFactory)(nil)

// CreatePassthrough creates a passthrough that defers to the factory admins.
func (f *LinkedFactory) CreatePassthrough(
	caller common.Address,
	rewardReceivers []passthrough.RewardReceiver,
	guards []common.Address,
	distributors []common.Address,
) (common.Address, error) {
	return f.create(caller, access.NewFactoryLinked(f), rewardReceivers, guards, distributors)
}

func (f *LinkedFactory) OwnershipAdmin() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ownershipAdmin
}

func (f *LinkedFactory) ParameterAdmin() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.parameterAdmin
}

func (f *LinkedFactory) EmergencyAdmin() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.emergencyAdmin
}

func (f *LinkedFactory) SetOwnershipAdmin(caller common.Address, admin common.Address) error {
	return f.setAdmin(caller, admin, OpSetOwnershipAdmin, ReasonOnlyOwnershipAdminSetOwnAdmin, ReasonNewOwnershipAdminZero,
		&f.ownershipAdmin, &passthrough.OwnershipAdminSet{OwnershipAdmin: admin})
}

func (f *LinkedFactory) SetParameterAdmin(caller common.Address, admin common.Address) error {
	return f.setAdmin(caller, admin, OpSetParameterAdmin, ReasonOnlyOwnershipAdminSetParAdmin, ReasonNewParameterAdminZero,
		&f.parameterAdmin, &passthrough.ParameterAdminSet{ParameterAdmin: admin})
}

// SetEmergencyAdmin rotates the emergency admin. Unlike the other admins it
// is never a guard.
func (f *LinkedFactory) SetEmergencyAdmin(caller common.Address, admin common.Address) error {
	return f.setAdmin(caller, admin, OpSetEmergencyAdmin, ReasonOnlyOwnershipAdminSetEmAdmin, ReasonNewEmergencyAdminZero,
		&f.emergencyAdmin, &passthrough.EmergencyAdminSet{EmergencyAdmin: admin})
}

func (f *LinkedFactory) setAdmin(
	caller common.Address,
	admin common.Address,
	op string,
	unauthorized string,
	zero string,
	field *common.Address,
	payload passthrough.EventPayload,
) error {
	var previous common.Address
	err := f.mutate(op, func() (passthrough.EventPayload, func(), error) {
		if caller != f.ownershipAdmin {
			return nil, nil, f.env.reject(op, errors.NewAuthorizationError(unauthorized))
		}
		if admin == (common.Address{}) {
			return nil, nil, f.env.reject(op, errors.NewInvalidArgumentErrorf("%s", zero))
		}
		previous = *field
		*field = admin
		return payload, func() { *field = previous }, nil
	})
	if err != nil {
		return err
	}

	f.log.Info().
		Str("operation", op).
		Hex("previous", previous.Bytes()).
		Hex("admin", admin.Bytes()).
		Msg("admin rotated")
	return nil
}
