package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gaugeflow/passthrough/model/passthrough"
	"github.com/gaugeflow/passthrough/storage"
)

var flagFrom uint64

var factoryInfoCmd = &cobra.Command{
	Use:   "factory-info",
	Short: "Print a factory, its admins and its registry",
	Run: func(*cobra.Command, []string) {
		factory := mustParseAddress("factory", flagFactory)
		withSession("factory info", func(s *session) error {
			info, err := s.deployer.FactoryInfo(factory)
			if err != nil {
				return err
			}

			fmt.Printf("factory:         %s\n", info.Address.Hex())
			fmt.Printf("generation:      %s\n", info.Generation)
			fmt.Printf("blueprint:       %s\n", info.Blueprint.Hex())
			fmt.Printf("owner:           %s\n", info.Owner.Hex())
			if info.Generation == passthrough.GenerationLinked {
				fmt.Printf("ownership admin: %s\n", info.OwnershipAdmin.Hex())
				fmt.Printf("parameter admin: %s\n", info.ParameterAdmin.Hex())
				fmt.Printf("emergency admin: %s\n", info.EmergencyAdmin.Hex())
			}
			fmt.Printf("passthroughs:    %d\n", len(info.Passthroughs))
			for i, address := range info.Passthroughs {
				fmt.Printf("  [%d] %s\n", i, address.Hex())
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the committed operations in order",
	Run: func(*cobra.Command, []string) {
		withSession("history", func(s *session) error {
			return s.journal.Entries(flagFrom, func(entry *storage.Entry) error {
				event, err := passthrough.DecodeEvent(passthrough.EventType(entry.Type), entry.Emitter, entry.Payload)
				if err != nil {
					log.Warn().Err(err).Uint64("sequence", entry.Sequence).Msg("could not decode entry")
					return nil
				}
				fmt.Printf("%6d %s %+v\n", entry.Sequence, event, event.Payload)
				return nil
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(factoryInfoCmd)
	factoryInfoCmd.Flags().StringVar(&flagFactory, "factory", "", "factory to inspect")
	_ = factoryInfoCmd.MarkFlagRequired("factory")

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Uint64Var(&flagFrom, "from", 0, "first sequence number to print")
}
