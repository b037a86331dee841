package access

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/gaugeflow/passthrough/model/passthrough"
)

// AdminReader exposes the administrative roles held by a factory.
type AdminReader interface {
	Address() common.Address
	OwnershipAdmin() common.Address
	ParameterAdmin() common.Address
	EmergencyAdmin() common.Address
}

// AdminSource resolves the administrators of a passthrough. The variant is
// chosen once, when the passthrough is created, and never changes.
type AdminSource interface {
	AdminReader
	Mode() passthrough.Generation
}

// Embedded is an immutable copy of the admins taken at creation time.
type Embedded struct {
	ownershipAdmin common.Address
	parameterAdmin common.Address
	emergencyAdmin common.Address
}

var _ AdminSource = (*Embedded)(nil)

func NewEmbedded(ownershipAdmin, parameterAdmin, emergencyAdmin common.Address) *Embedded {
	return &Embedded{
		ownershipAdmin: ownershipAdmin,
		parameterAdmin: parameterAdmin,
		emergencyAdmin: emergencyAdmin,
	}
}

// Address is the zero address: embedded admins have no backing contract.
func (e *Embedded) Address() common.Address        { return common.Address{} }
func (e *Embedded) OwnershipAdmin() common.Address { return e.ownershipAdmin }
func (e *Embedded) ParameterAdmin() common.Address { return e.parameterAdmin }
func (e *Embedded) EmergencyAdmin() common.Address { return e.emergencyAdmin }
func (e *Embedded) Mode() passthrough.Generation   { return passthrough.GenerationEmbedded }

// FactoryLinked reads the admins from the factory on every call, so a
// rotation on the factory is observed by every linked passthrough at once.
type FactoryLinked struct {
	factory AdminReader
}

var _ AdminSource = (*FactoryLinked)(nil)

func NewFactoryLinked(factory AdminReader) *FactoryLinked {
	return &FactoryLinked{factory: factory}
}

// Address returns the address of the factory the passthrough is linked to.
func (l *FactoryLinked) Address() common.Address        { return l.factory.Address() }
func (l *FactoryLinked) OwnershipAdmin() common.Address { return l.factory.OwnershipAdmin() }
func (l *FactoryLinked) ParameterAdmin() common.Address { return l.factory.ParameterAdmin() }
func (l *FactoryLinked) EmergencyAdmin() common.Address { return l.factory.EmergencyAdmin() }
func (l *FactoryLinked) Mode() passthrough.Generation   { return passthrough.GenerationLinked }

// Guards is the effective guard set: explicit members plus the ownership and
// parameter admins of source. Admins are unioned at check time and are not
// stored in explicit.
type Guards struct {
	explicit *RoleSet
	admins   AdminSource
}

func NewGuards(explicit *RoleSet, admins AdminSource) Guards {
	return Guards{explicit: explicit, admins: admins}
}

// IsGuard reports whether principal may call guard gated operations.
func (g Guards) IsGuard(principal common.Address) bool {
	if principal == (common.Address{}) {
		return false
	}
	if g.explicit.Contains(principal) {
		return true
	}
	return principal == g.admins.OwnershipAdmin() || principal == g.admins.ParameterAdmin()
}

// All lists the explicit guards in order followed by any admin not already
// listed.
func (g Guards) All() []common.Address {
	all := g.explicit.Members()
	for _, admin := range []common.Address{g.admins.OwnershipAdmin(), g.admins.ParameterAdmin()} {
		if admin == (common.Address{}) || g.explicit.Contains(admin) {
			continue
		}
		duplicate := false
		for _, a := range all {
			if a == admin {
				duplicate = true
				break
			}
		}
		if !duplicate {
			all = append(all, admin)
		}
	}
	return all
}
