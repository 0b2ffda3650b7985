package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/firebaseapp"
	"github.com/dukerupert/chorely/internal/migrate"
	"github.com/dukerupert/chorely/internal/store"
)

// NewMigrateCommand creates the migrate command and its sources.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy data from the document store into the relational database",
		Long: `Copy users, households, categories, chores and registry entries into
the SQLite database, keeping their identifiers and timestamps.

Every write is an upsert, so a migration can be re-run after a partial failure.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "firestore",
		Short: "Migrate from Firestore using the FIREBASE_* service account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := firebaseapp.New(ctx, config.FirebaseFromEnv(os.Getenv))
			if err != nil {
				return err
			}
			client, err := app.Firestore(ctx)
			if err != nil {
				return fmt.Errorf("firestore client: %w", err)
			}
			defer client.Close()
			return runMigrate(ctx, rootOpts, migrate.NewFirestoreSource(client), cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "file <snapshot>",
		Short: "Migrate from a YAML or JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := migrate.LoadFile(args[0])
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), rootOpts, src, cmd.OutOrStdout())
		},
	})

	return cmd
}

func runMigrate(ctx context.Context, opts *RootOptions, src migrate.Source, out io.Writer) error {
	db, err := database.Open(opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	sum, err := migrate.New(src, store.NewImporter(db), opts.logger).Run(ctx)
	opts.logger.Info("migration finished", "summary", sum)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	fmt.Fprintf(out, "users:            %d\n", sum.Users)
	fmt.Fprintf(out, "households:       %d\n", sum.Households)
	fmt.Fprintf(out, "categories:       %d\n", sum.Categories)
	fmt.Fprintf(out, "chores:           %d\n", sum.Chores)
	fmt.Fprintf(out, "registry entries: %d\n", sum.RegistryEntries)
	fmt.Fprintf(out, "skipped entries:  %d\n", sum.SkippedRegistry)
	fmt.Fprintf(out, "id conflicts:     %d\n", sum.Conflicts)
	return nil
}
