package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"idcheck/internal/platform/postgres"
	"idcheck/internal/registry/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the roll file into Postgres",
		Long: `Read the electoral roll from roll.path and bulk-copy it into the
postgres.table relation at postgres.url, creating the table if needed.

Examples:
  idcheck import --roll padron.csv --database-url postgres://localhost/idcheck
  idcheck import --replace -c idcheck.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Roll.Path == "" {
				return errors.New("import needs a roll file (--roll or roll.path)")
			}
			if cfg.Postgres.URL == "" {
				return errors.New("import needs a database (--database-url or postgres.url)")
			}
			log := ctx.logger(cmd, cfg)

			opts, err := cfg.Roll.CSVOptions()
			if err != nil {
				return err
			}
			table, err := store.NewCSVLoader(opts, log, nil).Load(cmd.Context())
			if err != nil {
				return err
			}

			pool, err := postgres.New(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			importer, err := store.NewPostgresImporter(pool, cfg.Postgres.Table)
			if err != nil {
				return err
			}
			if err := importer.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			n, err := importer.Import(cmd.Context(), table, replace)
			if err != nil {
				return err
			}

			stats := table.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s (%d duplicate ids, %d rejected rows)\n",
				n, cfg.Postgres.Table, stats.Duplicates, stats.Rejected)
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Truncate the table before copying")
	return cmd
}
