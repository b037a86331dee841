package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gaugeflow/passthrough/model/passthrough"
)

var (
	flagLogic      string
	flagLogicFile  string
	flagBlueprint  string
	flagGeneration string
	flagFactory    string
	flagVerify     bool
	flagDryRun     bool
)

var deployBlueprintCmd = &cobra.Command{
	Use:   "deploy-blueprint",
	Short: "Deploy a passthrough blueprint holding the given logic",
	Run:   runDeployBlueprint,
}

var deployFactoryCmd = &cobra.Command{
	Use:   "deploy-factory",
	Short: "Deploy a passthrough factory",
	Long: `Deploy a passthrough factory bound to --blueprint.

Linked factories read OWNERSHIP_ADMIN, PARAMETER_ADMIN and EMERGENCY_ADMIN
from the environment.`,
	Run: runDeployFactory,
}

var deployPassthroughCmd = &cobra.Command{
	Use:   "deploy-passthrough",
	Short: "Create one passthrough through --factory",
	Run:   runDeployPassthrough,
}

var deployManyCmd = &cobra.Command{
	Use:   "deploy-many",
	Short: "Create and configure one passthrough per gauge in GAUGE_LIST",
	Run:   runDeployMany,
}

func init() {
	rootCmd.AddCommand(deployBlueprintCmd)
	deployBlueprintCmd.Flags().StringVar(&flagLogic, "logic", "", "hex encoded logic the blueprint clones")
	deployBlueprintCmd.Flags().StringVar(&flagLogicFile, "logic-file", "", "file holding the hex encoded logic")
	deployBlueprintCmd.MarkFlagsMutuallyExclusive("logic", "logic-file")

	rootCmd.AddCommand(deployFactoryCmd)
	deployFactoryCmd.Flags().StringVar(&flagBlueprint, "blueprint", "", "blueprint the factory instantiates")
	deployFactoryCmd.Flags().StringVar(&flagGeneration, "generation", "linked", "factory generation, embedded (gen1) or linked (gen2)")
	_ = deployFactoryCmd.MarkFlagRequired("blueprint")

	for _, c := range []*cobra.Command{deployPassthroughCmd, deployManyCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVar(&flagFactory, "factory", "", "factory to create passthroughs with")
		_ = c.MarkFlagRequired("factory")
	}
	deployManyCmd.Flags().BoolVar(&flagVerify, "verify", true, "read every passthrough back after deployment")
	deployManyCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "log and audit the plan without creating anything")
}

func readLogic() ([]byte, error) {
	value := flagLogic
	if flagLogicFile != "" {
		content, err := os.ReadFile(flagLogicFile)
		if err != nil {
			return nil, fmt.Errorf("could not read logic file: %w", err)
		}
		value = strings.TrimSpace(string(content))
	}
	if value == "" {
		return nil, fmt.Errorf("one of --logic or --logic-file is required")
	}
	if !strings.HasPrefix(value, "0x") {
		value = "0x" + value
	}
	return hexutil.Decode(value)
}

func runDeployBlueprint(*cobra.Command, []string) {
	logic, err := readLogic()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid logic")
	}

	withSession("deploy blueprint", func(s *session) error {
		_, err := s.deployer.DeployBlueprint(logic)
		return err
	})
}

func runDeployFactory(*cobra.Command, []string) {
	generation, err := passthrough.ParseGeneration(flagGeneration)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid --generation")
	}
	blueprint := mustParseAddress("blueprint", flagBlueprint)
	cfg := mustLoadConfig()

	withSession("deploy factory", func(s *session) error {
		_, err := s.deployer.DeployFactory(generation, blueprint, cfg)
		return err
	})
}

func runDeployPassthrough(*cobra.Command, []string) {
	factory := mustParseAddress("factory", flagFactory)
	cfg := mustLoadConfig()

	withSession("deploy passthrough", func(s *session) error {
		_, err := s.deployer.DeployPassthrough(factory, cfg, nil)
		return err
	})
}

func runDeployMany(cmd *cobra.Command, _ []string) {
	factory := mustParseAddress("factory", flagFactory)
	cfg := mustLoadConfig()
	if len(cfg.Gauges) == 0 {
		log.Fatal().Msg("GAUGE_LIST is empty")
	}

	withSession("deploy many", func(s *session) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if flagDryRun {
			return s.deployer.PlanMany(ctx, cfg)
		}

		deployments, err := s.deployer.DeployMany(ctx, factory, cfg)
		log.Info().Int("deployed", len(deployments)).Int("requested", len(cfg.Gauges)).Msg("batch deployment finished")
		if err != nil {
			return err
		}
		if !flagVerify {
			return nil
		}
		if err := s.deployer.Verify(ctx, deployments, cfg); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		log.Info().Msg("all passthroughs verified")
		return nil
	})
}
