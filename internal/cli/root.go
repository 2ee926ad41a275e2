// Package cli implements the whereis command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"whereis/internal/app"
	"whereis/internal/core/config"
	"whereis/internal/core/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// ConfigDir is where the .env file is looked up.
	ConfigDir string
	Verbose   bool
}

// NewRootCommand creates the root command of the whereis CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "whereis",
		Short: "Normalized FedEx and SF Express shipment tracking",
		Long: `whereis pulls carrier tracking data, normalizes it into canonical
status codes and keeps a deduplicated timeline per shipment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", ".", "directory holding the .env file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))

	return cmd
}

// openApp loads configuration, initializes logging and wires the services.
func (o *RootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(o.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if o.Verbose {
		level = "debug"
	}
	if err := logger.Init(cfg.Environment, level); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return app.New(ctx, cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
