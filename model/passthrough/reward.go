package passthrough

import (
	"github.com/ethereum/go-ethereum/common"
)

// RewardReceiver routes rewards of Token to Gauge. A zero Token accepts any
// reward token the passthrough is asked to forward.
type RewardReceiver struct {
	Gauge common.Address
	Token common.Address
}
