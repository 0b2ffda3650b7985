package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath   string
	Format   string // "json" | "text"
	LogLevel string

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the chorectl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chorectl",
		Short: "Chorely administration",
		Long:  "Administrative tasks for a Chorely deployment: data migration and development tokens.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if err := config.LoadEnvFile(); err != nil {
				return err
			}
			if opts.DBPath == "" {
				opts.DBPath = envOr("CHORELY_DB_PATH", "chorely.db")
			}
			opts.logger = logging.New(cmd.ErrOrStderr(), opts.LogLevel, "text")
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (default $CHORELY_DB_PATH or chorely.db)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
