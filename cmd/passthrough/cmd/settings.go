package cmd

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/gaugeflow/passthrough/orchestration"
)

// settings are the persistent flags after viper merged them with the
// environment.
type settings struct {
	DataDir     string         `mapstructure:"data-dir"`
	Backend     string         `mapstructure:"backend"`
	Ecosystem   string         `mapstructure:"ecosystem"`
	Network     string         `mapstructure:"network"`
	Account     common.Address `mapstructure:"account"`
	AuditDir    string         `mapstructure:"audit-dir"`
	LogLevel    string         `mapstructure:"log-level"`
	MetricsFile string         `mapstructure:"metrics-file"`
}

func loadSettings(v *viper.Viper) (settings, error) {
	var s settings
	err := v.Unmarshal(&s, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToAddressHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return settings{}, fmt.Errorf("could not read settings: %w", err)
	}
	return s, nil
}

// stringToAddressHook decodes 0x prefixed hex strings into addresses. An
// empty string is the zero address.
func stringToAddressHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(common.Address{}) {
		return data, nil
	}
	value := data.(string)
	if value == "" {
		return common.Address{}, nil
	}
	return orchestration.ParseAddress("address", value)
}
