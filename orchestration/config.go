package orchestration

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// deployEnv holds the raw deployment environment. Blank entries of GUARDS
// are skipped, GAUGE_LIST entries pair up with GAUGE_LIST_NAME by position
// and must all be set.
type deployEnv struct {
	OwnershipAdmin  string   `env:"OWNERSHIP_ADMIN"   validate:"omitempty,eth_addr"`
	ParameterAdmin  string   `env:"PARAMETER_ADMIN"   validate:"omitempty,eth_addr"`
	EmergencyAdmin  string   `env:"EMERGENCY_ADMIN"   validate:"omitempty,eth_addr"`
	Guards          []string `env:"GUARDS"            envSeparator:"," validate:"dive,omitempty,eth_addr"`
	RewardToken     string   `env:"REWARD_TOKEN"      validate:"omitempty,eth_addr"`
	RewardTokenName string   `env:"REWARD_TOKEN_NAME"`
	GaugeManager    string   `env:"GAUGE_MANAGER"     validate:"omitempty,eth_addr"`
	Gauges          []string `env:"GAUGE_LIST"        envSeparator:"," validate:"dive,eth_addr"`
	GaugeNames      []string `env:"GAUGE_LIST_NAME"   envSeparator:","`
}

// Config is the validated deployment input shared by the CLI commands.
type Config struct {
	OwnershipAdmin  common.Address
	ParameterAdmin  common.Address
	EmergencyAdmin  common.Address
	Guards          []common.Address
	RewardToken     common.Address
	RewardTokenName string
	// GaugeManager is the current manager of the batch's gauges. Records
	// ask for a handover when it is not NewGaugeManager.
	GaugeManager common.Address
	Gauges       []Gauge
}

// Gauge is one entry of the batch deployment list. A zero Address marks a
// gauge that is not live yet; its passthrough is created without a receiver.
type Gauge struct {
	Address common.Address
	Name    string
}

// validate reports failures under the environment variable names.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}
		return field.Name
	})
	return v
}()

// LoadConfigFromEnv reads the deployment configuration from the environment.
func LoadConfigFromEnv() (Config, error) {
	var raw deployEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return raw.config()
}

func (raw deployEnv) config() (Config, error) {
	raw = raw.trimmed()

	if len(raw.Gauges) != len(raw.GaugeNames) {
		return Config{}, fmt.Errorf("GAUGE_LIST has %d entries but GAUGE_LIST_NAME has %d", len(raw.Gauges), len(raw.GaugeNames))
	}
	if err := validate.Struct(raw); err != nil {
		return Config{}, validationError(err)
	}

	cfg := Config{
		OwnershipAdmin:  hexToAddress(raw.OwnershipAdmin),
		ParameterAdmin:  hexToAddress(raw.ParameterAdmin),
		EmergencyAdmin:  hexToAddress(raw.EmergencyAdmin),
		RewardToken:     hexToAddress(raw.RewardToken),
		RewardTokenName: raw.RewardTokenName,
		GaugeManager:    hexToAddress(raw.GaugeManager),
	}
	for _, guard := range raw.Guards {
		if guard != "" {
			cfg.Guards = append(cfg.Guards, common.HexToAddress(guard))
		}
	}
	for i, gauge := range raw.Gauges {
		cfg.Gauges = append(cfg.Gauges, Gauge{Address: common.HexToAddress(gauge), Name: raw.GaugeNames[i]})
	}
	return cfg, nil
}

func (raw deployEnv) trimmed() deployEnv {
	trim := func(values []string) []string {
		out := make([]string, len(values))
		for i, value := range values {
			out[i] = strings.TrimSpace(value)
		}
		return out
	}
	raw.OwnershipAdmin = strings.TrimSpace(raw.OwnershipAdmin)
	raw.ParameterAdmin = strings.TrimSpace(raw.ParameterAdmin)
	raw.EmergencyAdmin = strings.TrimSpace(raw.EmergencyAdmin)
	raw.RewardToken = strings.TrimSpace(raw.RewardToken)
	raw.GaugeManager = strings.TrimSpace(raw.GaugeManager)
	raw.Guards = trim(raw.Guards)
	raw.Gauges = trim(raw.Gauges)
	raw.GaugeNames = trim(raw.GaugeNames)
	return raw
}

// ParseAddress parses a 0x prefixed hex address.
func ParseAddress(name, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if err := validate.Var(value, "required,eth_addr"); err != nil {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func hexToAddress(value string) common.Address {
	if value == "" {
		return common.Address{}
	}
	return common.HexToAddress(value)
}

func validationError(err error) error {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}
	var result *multierror.Error
	for _, failure := range failures {
		result = multierror.Append(result, fmt.Errorf("%s: invalid address %q", failure.Field(), failure.Value()))
	}
	return result.ErrorOrNil()
}
