package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/agristat/internal/config"
	"github.com/stwalsh4118/agristat/internal/database"
	"github.com/stwalsh4118/agristat/internal/provider"
	"github.com/stwalsh4118/agristat/internal/repository"
	"github.com/stwalsh4118/agristat/internal/tabular"
)

type loadOptions struct {
	dir    string
	format string
}

func newLoadCmd() *cobra.Command {
	opts := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Copy a table directory into Postgres",
		Long: `Reads the four tables from --dir and upserts them into the farmers, crops,
livestock and aquaculture tables, creating them if needed.

Connection settings come from the same DB_HOST, DB_PORT, DB_NAME, DB_USER,
DB_PASSWORD and DB_SSLMODE variables the server reads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dir, "dir", "data", "Directory holding the tables")
	flags.StringVar(&opts.format, "format", tabular.FormatCSV, "Table format: csv or xlsx")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *loadOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database configuration: %w", err)
	}

	ctx := cmd.Context()

	ds, err := provider.NewFile(opts.dir, opts.format).Load(ctx)
	if err != nil {
		return err
	}

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		return err
	}
	if err := repository.InsertDataset(ctx, db, ds); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s tables from %s into %s@%s/%s\n",
		opts.format, opts.dir, cfg.Database.User, cfg.Database.Host, cfg.Database.Name)
	printCounts(cmd, ds)
	return nil
}
