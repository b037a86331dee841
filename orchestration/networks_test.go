package orchestration

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		ecosystem, network string
		maxFee, explorer   string
	}{
		{"arbitrum", "mainnet", "0.1 gwei", "https://arbiscan.io"},
		{"arbitrum", "sepolia", "0.1 gwei", "https://sepolia.arbiscan.io"},
		{"optimism", "mainnet", "0.0001 gwei", "https://optimistic.etherscan.io"},
		{"taiko", "mainnet", "0.01 gwei", "https://taikoscan.io"},
		{"taiko", "sepolia", "0.01 gwei", "https://testnet.sonicscan.org"},
		{"sonic", "mainnet", "66 gwei", "https://sonicscan.org/"},
		{"base", "mainnet", "0.1 gwei", "https://sepolia.arbiscan.io"},
		{"Arbitrum", "Sepolia", "0.1 gwei", "https://sepolia.arbiscan.io"},
	}
	for _, c := range cases {
		t.Run(c.ecosystem+"/"+c.network, func(t *testing.T) {
			p := Lookup(c.ecosystem, c.network)
			assert.Equal(t, c.maxFee, p.MaxFee)
			assert.Equal(t, c.explorer, p.Explorer)
			assert.Equal(t, DefaultMaxPriorityFee, p.MaxPriorityFee)
		})
	}
}

func TestAddressLink(t *testing.T) {
	assert.Equal(t, "https://sonicscan.org/address/0xabc", Lookup("sonic", "").AddressLink("0xabc"))
	assert.Equal(t, "https://arbiscan.io/address/0xabc", Lookup("arbitrum", "").AddressLink("0xabc"))
}

func TestParseFee(t *testing.T) {
	cases := map[string]*big.Int{
		"10 wei":      big.NewInt(10),
		"0.1 gwei":    big.NewInt(100_000_000),
		"0.0001 gwei": big.NewInt(100_000),
		"66 gwei":     big.NewInt(66_000_000_000),
		"1 ether":     new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
	}
	for fee, expected := range cases {
		got, err := ParseFee(fee)
		require.NoError(t, err, fee)
		assert.Equal(t, 0, expected.Cmp(got), fee)
	}

	for _, invalid := range []string{"", "10", "1 satoshi", "-1 gwei", "0.5 wei", "x gwei"} {
		_, err := ParseFee(invalid)
		assert.Error(t, err, invalid)
	}

	wei, err := Lookup("optimism", "").MaxFeeWei()
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), wei.Int64())
}
