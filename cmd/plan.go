// File: cmd/plan.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/freddy/api/schemas"
	"github.com/xkilldash9x/freddy/internal/config"
	"github.com/xkilldash9x/freddy/internal/goals"
	"github.com/xkilldash9x/freddy/internal/llmclient"
	"github.com/xkilldash9x/freddy/internal/observability"
)

// newLLMClient is swapped out in tests.
var newLLMClient = func(ctx context.Context, cfg config.LLMRouterConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	return llmclient.NewClient(ctx, cfg, logger)
}

type planOutput struct {
	Goal   goals.Type    `json:"goal"`
	Source goals.Source  `json:"source"`
	Steps  []*goals.Step `json:"steps"`
}

func newPlanCmd() *cobra.Command {
	var offline bool
	planCmd := &cobra.Command{
		Use:   "plan <GOAL>",
		Short: "Prints the step plan for a goal as JSON",
		Long: `Asks the configured powerful model to break a goal into steps and prints
the result. Without a usable model the built-in plan for the goal is printed.
Goal names are case-insensitive and may use spaces, e.g. "gather wood".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			name := strings.Join(args, " ")
			goalType, ok := goals.ParseType(name)
			if !ok {
				return fmt.Errorf("unknown goal %q", name)
			}

			var client schemas.LLMClient
			if !offline {
				cfg, err := configFrom(ctx)
				if err != nil {
					return err
				}
				client, err = newLLMClient(ctx, cfg.LLM(), logger)
				if err != nil {
					logger.Warn("LLM unavailable, using the built-in plan", zap.Error(err))
					client = nil
				} else {
					defer client.Close()
				}
			}

			plan := goals.NewPlanner(logger, client, nil).Plan(ctx, goalType)
			out, err := json.MarshalIndent(planOutput{Goal: goalType, Source: plan.Source, Steps: plan.Steps}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode plan: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	planCmd.Flags().BoolVar(&offline, "offline", false, "Skip the LLM and print the built-in plan")
	return planCmd
}
