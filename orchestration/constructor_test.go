package orchestration

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugeflow/passthrough/model/passthrough"
)

func word(hex string) string {
	return strings.Repeat("0", 64-len(hex)) + hex
}

func TestConstructorArgs(t *testing.T) {
	t.Run("empty lists", func(t *testing.T) {
		args, err := ConstructorArgs(nil, nil, nil)
		require.NoError(t, err)

		// three offsets into the tail, then three zero lengths
		expected := "0x" + word("60") + word("80") + word("a0") + word("0") + word("0") + word("0")
		assert.Equal(t, expected, hexutil.Encode(args))
	})

	t.Run("default distributors", func(t *testing.T) {
		distributors := []common.Address{
			common.HexToAddress("0x9f499A0B7c14393502207877B17E3748beaCd70B"),
			common.HexToAddress("0x84bC1fC6204b959470BF8A00d871ff8988a3914A"),
		}
		args, err := ConstructorArgs(nil, nil, distributors)
		require.NoError(t, err)

		expected := "0x" + word("60") + word("80") + word("a0") + word("0") + word("0") +
			word("2") +
			word("9f499a0b7c14393502207877b17e3748beacd70b") +
			word("84bc1fc6204b959470bf8a00d871ff8988a3914a")
		assert.Equal(t, expected, hexutil.Encode(args))
	})

	t.Run("decodes back", func(t *testing.T) {
		gauge := common.HexToAddress(gaugeHex)
		guard := common.HexToAddress(guardHex)
		receivers := receiverGauges([]passthrough.RewardReceiver{{Gauge: gauge, Token: guard}})

		args, err := ConstructorArgs(receivers, []common.Address{guard, gauge}, nil)
		require.NoError(t, err)

		gotReceivers, gotGuards, gotDistributors, err := UnpackConstructorArgs(args)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{gauge}, gotReceivers)
		assert.Equal(t, []common.Address{guard, gauge}, gotGuards)
		assert.Empty(t, gotDistributors)
	})

	t.Run("truncated data", func(t *testing.T) {
		args, err := ConstructorArgs(nil, nil, nil)
		require.NoError(t, err)
		_, _, _, err = UnpackConstructorArgs(args[:64])
		require.Error(t, err)
	})
}
