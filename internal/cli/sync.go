package cli

import (
	"whereis/internal/core/logger"

	"github.com/spf13/cobra"
)

// syncResult is the output of the sync command.
type syncResult struct {
	Pending   int    `json:"pending"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
	Appended  int    `json:"appended"`
	Duration  string `json:"duration"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle over every pending shipment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync()

			report, err := a.Sync.RunCycle(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), syncResult{
				Pending:   report.Pending,
				Updated:   report.Updated,
				Unchanged: report.Unchanged,
				Failed:    report.Failed,
				Appended:  report.Appended,
				Duration:  report.Duration.String(),
			})
		},
	}
}
