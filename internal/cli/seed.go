package cli

import (
	"github.com/spf13/cobra"
	"github.com/vbonduro/mcprogress/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed an empty library",
		Long: `Fills an empty library with scenes, categories and items from a TOML
seed file. Parts of the library that already hold data are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			if file == "" {
				file = a.cfg.SeedFile
			}
			lib, err := seed.Load(file)
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), a.uow, lib, a.logger)
			if err != nil {
				return err
			}
			cmd.Printf("seeded %d scenes, %d categories, %d items\n", res.Scenes, res.Categories, res.Items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed file (default SEED_FILE or the built-in library)")

	return cmd
}
