package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagDataDir     = "data-dir"
	flagBackend     = "backend"
	flagEcosystem   = "ecosystem"
	flagNetwork     = "network"
	flagAccount     = "account"
	flagAuditDir    = "audit-dir"
	flagLogLevel    = "log-level"
	flagMetricsFile = "metrics-file"
)

var rootCmd = &cobra.Command{
	Use:   "passthrough",
	Short: "Deploy and administer passthrough factories",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(viper.GetString(flagLogLevel))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		zerolog.SetGlobalLevel(level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(flagDataDir, "data", "directory holding the registry commit log")
	flags.String(flagBackend, "pebble", "commit log backend, pebble or badger")
	flags.String(flagEcosystem, "arbitrum", "ecosystem of the target chain, selects fees and explorer")
	flags.String(flagNetwork, "mainnet", "network of the target chain")
	flags.String(flagAccount, "", "address operations are sent from")
	flags.String(flagAuditDir, "deployments", "directory deployment records are appended to")
	flags.String(flagLogLevel, "info", "log level")
	flags.String(flagMetricsFile, "", "if set, registry metrics are written here in the prometheus text format")
	bindFlags(flags)

	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cobra.OnInitialize(initConfig)
}

// bindFlags makes every flag settable through the environment, e.g.
// --data-dir as DATA_DIR.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})
}

func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
