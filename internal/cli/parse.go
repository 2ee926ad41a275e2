package cli

import (
	"whereis/internal/features/tracking/domain"

	"github.com/spf13/cobra"
)

// parseResult is the output of the parse command.
type parseResult struct {
	ID      string         `json:"id"`
	Carrier domain.Carrier `json:"carrier"`
	Number  string         `json:"number"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <tracking-id>",
		Short: "Validate a carrier-number tracking identifier",
		Example: `  whereis parse fdx-123456789012
  whereis parse sfex-SF1234567890123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseTrackingID(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), parseResult{ID: id.String(), Carrier: id.Carrier, Number: id.Number})
		},
	}
}
