package cli

import (
	"whereis/internal/core/logger"
	"whereis/internal/features/tracking/service"

	"github.com/spf13/cobra"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	Phone   string
	Refresh bool
	Full    bool
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <tracking-id>",
		Short: "Print the timeline of a shipment",
		Long: `Print the stored timeline of a shipment. Unknown shipments, or any
shipment when --refresh is set, are pulled from the carrier and persisted.`,
		Example: `  whereis lookup fdx-123456789012 --full
  whereis lookup sfex-SF1234567890123 --phone 1234 --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync()

			params := map[string]string{}
			if opts.Phone != "" {
				params["phone"] = opts.Phone
			}

			e, err := a.Tracking.Lookup(cmd.Context(), service.LookupRequest{
				ID:      args[0],
				Params:  params,
				Refresh: opts.Refresh,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), e.View(opts.Full))
		},
	}

	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number tied to the shipment (required by sfex)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "pull the carrier even when data is stored")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "include raw carrier data per event")

	return cmd
}
