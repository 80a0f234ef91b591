// File: cmd/prompt.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/freddy/internal/agent"
)

func newPromptCmd() *cobra.Command {
	var (
		players   []string
		x, y, z   float64
		worldTime int64
		simple    bool
	)
	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Prints the decision prompt for a synthetic observation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			builder := agent.NewPromptBuilder(cfg.Agent().Name)
			obs := agent.NewObservation(players, x, y, z, worldTime)

			prompt := builder.BuildPrompt(obs)
			if simple {
				prompt = builder.BuildSimplePrompt(obs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return nil
		},
	}
	promptCmd.Flags().StringSliceVar(&players, "players", nil, "Nearby player names")
	promptCmd.Flags().Float64Var(&x, "x", 0, "X coordinate")
	promptCmd.Flags().Float64Var(&y, "y", 64, "Y coordinate")
	promptCmd.Flags().Float64Var(&z, "z", 0, "Z coordinate")
	promptCmd.Flags().Int64Var(&worldTime, "time", 1000, "World time in ticks")
	promptCmd.Flags().BoolVar(&simple, "simple", false, "Print the short fallback prompt")
	return promptCmd
}
