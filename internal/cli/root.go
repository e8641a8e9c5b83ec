// Package cli holds the mcprogress command tree.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/vbonduro/mcprogress/internal/config"
)

func NewRootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:   "mcprogress",
		Short: "Plan Minecraft progression scenes and share them as packages",
		Long: `mcprogress keeps a library of items and the scenes drawn from them.

Scenes can be exported as self-contained zip packages and imported into
another library, where items are matched by name and category.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFiles...)
		},
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment from these files (default .env)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}
