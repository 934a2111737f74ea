package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The endpoint returns plain text "OK"
			body, err := client.GetText("/health")
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(HealthResult{Status: body})
			return nil
		},
	}
}
