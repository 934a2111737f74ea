package cli

import (
	"github.com/spf13/cobra"
)

func newDailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Fetch today's daily answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			if err := client.GetJSON("/api/v1/daily-answer", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
