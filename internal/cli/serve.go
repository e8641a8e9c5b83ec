package cli

import (
	"github.com/spf13/cobra"
	"github.com/vbonduro/mcprogress/internal/seed"
	"github.com/vbonduro/mcprogress/internal/web"
)

func newServeCmd() *cobra.Command {
	var noSeed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the mcprogress HTTP API on LISTEN_ADDR.

An empty database is seeded first, from SEED_FILE when set and from the
built-in starter library otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			if !noSeed {
				lib, err := seed.Load(a.cfg.SeedFile)
				if err != nil {
					return err
				}
				if _, err := seed.Apply(cmd.Context(), a.uow, lib, a.logger); err != nil {
					return err
				}
			}

			server := web.NewServer(a.library, a.packages, a.icons, a.logger)
			return server.ListenAndServe(cmd.Context(), a.cfg.ListenAddr)
		},
	}

	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "Do not seed an empty database")

	return cmd
}
