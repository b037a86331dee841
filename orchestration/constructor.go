package orchestration

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/gaugeflow/passthrough/model/passthrough"
)

var constructorArguments = func() abi.Arguments {
	addressList, err := abi.NewType("address[]", "", nil)
	if err != nil {
		panic(fmt.Sprintf("could not build constructor type: %v", err))
	}
	return abi.Arguments{
		{Name: "reward_receivers", Type: addressList},
		{Name: "guards", Type: addressList},
		{Name: "distributors", Type: addressList},
	}
}()

// ConstructorArgs ABI encodes the constructor inputs of a passthrough, the
// form block explorers ask for when verifying the deployed source.
func ConstructorArgs(receivers, guards, distributors []common.Address) ([]byte, error) {
	packed, err := constructorArguments.Pack(nonNil(receivers), nonNil(guards), nonNil(distributors))
	if err != nil {
		return nil, fmt.Errorf("could not encode constructor arguments: %w", err)
	}
	return packed, nil
}

// UnpackConstructorArgs decodes data produced by ConstructorArgs.
func UnpackConstructorArgs(data []byte) (receivers, guards, distributors []common.Address, err error) {
	values, err := constructorArguments.Unpack(data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not decode constructor arguments: %w", err)
	}
	lists := make([][]common.Address, len(values))
	for i, value := range values {
		list, ok := value.([]common.Address)
		if !ok {
			return nil, nil, nil, fmt.Errorf("constructor argument %d has type %T", i, value)
		}
		lists[i] = list
	}
	return lists[0], lists[1], lists[2], nil
}

func receiverGauges(receivers []passthrough.RewardReceiver) []common.Address {
	gauges := make([]common.Address, 0, len(receivers))
	for _, r := range receivers {
		gauges = append(gauges, r.Gauge)
	}
	return gauges
}

func nonNil(addresses []common.Address) []common.Address {
	if addresses == nil {
		return []common.Address{}
	}
	return addresses
}
