package cmd

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	flagNewOwner string
	flagRole     string
	flagAdmin    string
)

var setBlueprintCmd = &cobra.Command{
	Use:   "set-blueprint",
	Short: "Point a factory at another blueprint, an empty --blueprint disables creation",
	Run: func(*cobra.Command, []string) {
		factory := mustParseAddress("factory", flagFactory)
		var blueprint common.Address
		if flagBlueprint != "" {
			blueprint = mustParseAddress("blueprint", flagBlueprint)
		}
		withSession("set blueprint", func(s *session) error {
			return s.deployer.SetBlueprint(factory, blueprint)
		})
	},
}

var transferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership",
	Short: "Hand factory ownership to --new-owner",
	Run: func(*cobra.Command, []string) {
		factory := mustParseAddress("factory", flagFactory)
		newOwner := mustParseAddress("new-owner", flagNewOwner)
		withSession("transfer ownership", func(s *session) error {
			return s.deployer.TransferOwnership(factory, newOwner)
		})
	},
}

var setAdminCmd = &cobra.Command{
	Use:   "set-admin",
	Short: "Rotate an admin role of a linked factory",
	Run: func(*cobra.Command, []string) {
		factory := mustParseAddress("factory", flagFactory)
		var admin common.Address
		if flagAdmin != "" {
			admin = mustParseAddress("admin", flagAdmin)
		}
		withSession("set admin", func(s *session) error {
			return s.deployer.SetAdmin(factory, flagRole, admin)
		})
	},
}

func init() {
	rootCmd.AddCommand(setBlueprintCmd)
	setBlueprintCmd.Flags().StringVar(&flagFactory, "factory", "", "factory to update")
	setBlueprintCmd.Flags().StringVar(&flagBlueprint, "blueprint", "", "new blueprint")
	_ = setBlueprintCmd.MarkFlagRequired("factory")

	rootCmd.AddCommand(transferOwnershipCmd)
	transferOwnershipCmd.Flags().StringVar(&flagFactory, "factory", "", "factory to update")
	transferOwnershipCmd.Flags().StringVar(&flagNewOwner, "new-owner", "", "new factory owner")
	_ = transferOwnershipCmd.MarkFlagRequired("factory")
	_ = transferOwnershipCmd.MarkFlagRequired("new-owner")

	rootCmd.AddCommand(setAdminCmd)
	setAdminCmd.Flags().StringVar(&flagFactory, "factory", "", "linked factory to update")
	setAdminCmd.Flags().StringVar(&flagRole, "role", "", "ownership, parameter or emergency")
	setAdminCmd.Flags().StringVar(&flagAdmin, "admin", "", "new admin")
	_ = setAdminCmd.MarkFlagRequired("factory")
	_ = setAdminCmd.MarkFlagRequired("role")
}
