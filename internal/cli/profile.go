package cli

import (
	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile commands",
	}

	cmd.AddCommand(newProfileShowCmd())

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in user's game statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Get("/api/v1/profile", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
