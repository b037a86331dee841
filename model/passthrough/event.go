package passthrough

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

type EventType string

const (
	EventTypePassthroughCreated   EventType = "PassthroughCreated"
	EventTypeBlueprintSet         EventType = "BlueprintSet"
	EventTypeOwnershipAdminSet    EventType = "OwnershipAdminSet"
	EventTypeParameterAdminSet    EventType = "ParameterAdminSet"
	EventTypeEmergencyAdminSet    EventType = "EmergencyAdminSet"
	EventTypeOwnershipTransferred EventType = "OwnershipTransferred"
	EventTypeBlueprintDeployed    EventType = "BlueprintDeployed"
	EventTypeFactoryDeployed      EventType = "FactoryDeployed"

	EventTypeNameSet                 EventType = "NameSet"
	EventTypeSingleRewardReceiverSet EventType = "SingleRewardReceiverSet"
	EventTypeSingleRewardTokenSet    EventType = "SingleRewardTokenSet"
	EventTypeGuardsSet               EventType = "GuardsSet"
	EventTypeDistributorsSet         EventType = "DistributorsSet"
	EventTypeRewardReceiversSet      EventType = "RewardReceiversSet"
)

type EventPayload interface {
	Type() EventType
}

// Event is emitted once per successful operation by the contract at Emitter.
type Event struct {
	Emitter common.Address
	Payload EventPayload
}

func (e Event) Type() EventType {
	return e.Payload.Type()
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%s", e.Type(), e.Emitter.Hex())
}

// EncodePayload RLP-encodes the event payload.
func (e Event) EncodePayload() ([]byte, error) {
	return rlp.EncodeToBytes(e.Payload)
}

// DecodeEvent rebuilds an event from its type and RLP-encoded payload.
func DecodeEvent(eventType EventType, emitter common.Address, data []byte) (Event, error) {
	var payload EventPayload
	switch eventType {
	case EventTypePassthroughCreated:
		payload = &PassthroughCreated{}
	case EventTypeBlueprintSet:
		payload = &BlueprintSet{}
	case EventTypeOwnershipAdminSet:
		payload = &OwnershipAdminSet{}
	case EventTypeParameterAdminSet:
		payload = &ParameterAdminSet{}
	case EventTypeEmergencyAdminSet:
		payload = &EmergencyAdminSet{}
	case EventTypeOwnershipTransferred:
		payload = &OwnershipTransferred{}
	case EventTypeBlueprintDeployed:
		payload = &BlueprintDeployed{}
	case EventTypeFactoryDeployed:
		payload = &FactoryDeployed{}
	case EventTypeNameSet:
		payload = &NameSet{}
	case EventTypeSingleRewardReceiverSet:
		payload = &SingleRewardReceiverSet{}
	case EventTypeSingleRewardTokenSet:
		payload = &SingleRewardTokenSet{}
	case EventTypeGuardsSet:
		payload = &GuardsSet{}
	case EventTypeDistributorsSet:
		payload = &DistributorsSet{}
	case EventTypeRewardReceiversSet:
		payload = &RewardReceiversSet{}
	default:
		return Event{}, fmt.Errorf("unknown event type %q", eventType)
	}

	if err := rlp.DecodeBytes(data, payload); err != nil {
		return Event{}, fmt.Errorf("could not decode %s payload: %w", eventType, err)
	}
	return Event{Emitter: emitter, Payload: payload}, nil
}

// PassthroughCreated is emitted by a factory for every new passthrough. The
// admins are the ones in effect at creation time.
type PassthroughCreated struct {
	Deployer       common.Address
	Passthrough    common.Address
	OwnershipAdmin common.Address
	ParameterAdmin common.Address
}

func (*PassthroughCreated) Type() EventType { return EventTypePassthroughCreated }

type BlueprintSet struct {
	Blueprint common.Address
}

func (*BlueprintSet) Type() EventType { return EventTypeBlueprintSet }

type OwnershipAdminSet struct {
	OwnershipAdmin common.Address
}

func (*OwnershipAdminSet) Type() EventType { return EventTypeOwnershipAdminSet }

type ParameterAdminSet struct {
	ParameterAdmin common.Address
}

func (*ParameterAdminSet) Type() EventType { return EventTypeParameterAdminSet }

type EmergencyAdminSet struct {
	EmergencyAdmin common.Address
}

func (*EmergencyAdminSet) Type() EventType { return EventTypeEmergencyAdminSet }

type OwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (*OwnershipTransferred) Type() EventType { return EventTypeOwnershipTransferred }

type BlueprintDeployed struct {
	Deployer  common.Address
	Blueprint common.Address
	CodeHash  common.Hash
}

func (*BlueprintDeployed) Type() EventType { return EventTypeBlueprintDeployed }

type FactoryDeployed struct {
	Factory    common.Address
	Owner      common.Address
	Blueprint  common.Address
	Generation uint8
}

func (*FactoryDeployed) Type() EventType { return EventTypeFactoryDeployed }

type NameSet struct {
	Name string
}

func (*NameSet) Type() EventType { return EventTypeNameSet }

type SingleRewardReceiverSet struct {
	Receiver common.Address
}

func (*SingleRewardReceiverSet) Type() EventType { return EventTypeSingleRewardReceiverSet }

type SingleRewardTokenSet struct {
	Token common.Address
	Name  string
}

func (*SingleRewardTokenSet) Type() EventType { return EventTypeSingleRewardTokenSet }

type GuardsSet struct {
	Guards []common.Address
}

func (*GuardsSet) Type() EventType { return EventTypeGuardsSet }

type DistributorsSet struct {
	Distributors []common.Address
}

func (*DistributorsSet) Type() EventType { return EventTypeDistributorsSet }

type RewardReceiversSet struct {
	RewardReceivers []RewardReceiver
}

func (*RewardReceiversSet) Type() EventType { return EventTypeRewardReceiversSet }
