package orchestration

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminHex = "0x71F718D3e4d1449D1502A6A7595eb84eBcCB1683"
	guardHex = "0x84bC1fC6204b959470BF8A00d871ff8988a3914A"
	gaugeHex = "0xf7Bd34Dd44B92fB2f9C3D2e31aAAd06570a853A6"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		t.Setenv("OWNERSHIP_ADMIN", adminHex)
		t.Setenv("PARAMETER_ADMIN", adminHex)
		t.Setenv("EMERGENCY_ADMIN", "")
		t.Setenv("GUARDS", guardHex+","+gaugeHex)
		t.Setenv("REWARD_TOKEN", gaugeHex)
		t.Setenv("REWARD_TOKEN_NAME", "CRV")
		t.Setenv("GAUGE_MANAGER", " "+adminHex)
		t.Setenv("GAUGE_LIST", gaugeHex+",0x0000000000000000000000000000000000000000")
		t.Setenv("GAUGE_LIST_NAME", "crvUSD/USDT, scrvUSD/crvUSD")

		cfg, err := LoadConfigFromEnv()
		require.NoError(t, err)

		assert.Equal(t, common.HexToAddress(adminHex), cfg.OwnershipAdmin)
		assert.Equal(t, common.HexToAddress(adminHex), cfg.ParameterAdmin)
		assert.Equal(t, common.Address{}, cfg.EmergencyAdmin)
		assert.Equal(t, []common.Address{common.HexToAddress(guardHex), common.HexToAddress(gaugeHex)}, cfg.Guards)
		assert.Equal(t, "CRV", cfg.RewardTokenName)
		assert.Equal(t, common.HexToAddress(adminHex), cfg.GaugeManager)
		assert.Equal(t, []Gauge{
			{Address: common.HexToAddress(gaugeHex), Name: "crvUSD/USDT"},
			{Address: common.Address{}, Name: "scrvUSD/crvUSD"},
		}, cfg.Gauges)
	})

	t.Run("mismatched gauge names", func(t *testing.T) {
		t.Setenv("GAUGE_LIST", gaugeHex)
		t.Setenv("GAUGE_LIST_NAME", "a,b")

		_, err := LoadConfigFromEnv()
		require.ErrorContains(t, err, "GAUGE_LIST has 1 entries but GAUGE_LIST_NAME has 2")
	})

	t.Run("invalid address", func(t *testing.T) {
		t.Setenv("GUARDS", guardHex+",nope")

		_, err := LoadConfigFromEnv()
		require.ErrorContains(t, err, `GUARDS[1]: invalid address "nope"`)
	})

	t.Run("blank guards are skipped", func(t *testing.T) {
		t.Setenv("GUARDS", guardHex+",,")

		cfg, err := LoadConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []common.Address{common.HexToAddress(guardHex)}, cfg.Guards)
	})

	t.Run("every invalid field is reported", func(t *testing.T) {
		t.Setenv("OWNERSHIP_ADMIN", "0x1234")
		t.Setenv("REWARD_TOKEN", gaugeHex[2:])
		t.Setenv("GAUGE_LIST", gaugeHex+",")
		t.Setenv("GAUGE_LIST_NAME", "a,b")

		_, err := LoadConfigFromEnv()
		require.ErrorContains(t, err, `OWNERSHIP_ADMIN: invalid address "0x1234"`)
		require.ErrorContains(t, err, `REWARD_TOKEN: invalid address`)
		require.ErrorContains(t, err, `GAUGE_LIST[1]: invalid address ""`)
	})
}

func TestParseAddress(t *testing.T) {
	address, err := ParseAddress("factory", " "+adminHex+" ")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(adminHex), address)

	for _, value := range []string{"", "nope", adminHex[2:], adminHex + "00"} {
		_, err := ParseAddress("factory", value)
		require.ErrorContains(t, err, "factory: invalid address", value)
	}
}
