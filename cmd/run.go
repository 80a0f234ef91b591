// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/freddy/internal/commands"
	"github.com/xkilldash9x/freddy/internal/observability"
)

func newRunCmd() *cobra.Command {
	var (
		ticks            int
		goalName         string
		offline          bool
		name             string
		decisionInterval int
		noTelemetry      bool
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the decision loop against the simulated world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				cfg.SetAgentName(name)
			}
			if flags.Changed("decision-interval") {
				cfg.SetDecisionInterval(decisionInterval)
			}
			if noTelemetry {
				cfg.SetTelemetryEnabled(false)
			}

			rt, err := newRuntime(ctx, cfg, logger, runtimeOptions{offline: offline})
			if err != nil {
				return fmt.Errorf("failed to initialize runtime: %w", err)
			}
			defer rt.close()

			if goalName != "" {
				goalCmd, err := commands.Parse("GOAL:" + goalName)
				if err != nil {
					return fmt.Errorf("invalid --goal: %w", err)
				}
				rt.behavior.Dispatch(goalCmd)
			}

			logger.Info("Starting runtime",
				zap.String("agent", cfg.Agent().Name),
				zap.Int("tick_rate", cfg.Agent().TickRate),
				zap.Int("ticks", ticks),
				zap.Int("services", len(rt.services)))
			return rt.run(ctx, ticks)
		},
	}
	runCmd.Flags().IntVar(&ticks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	runCmd.Flags().StringVar(&goalName, "goal", "", "Goal to start with, e.g. GATHER_WOOD")
	runCmd.Flags().BoolVar(&offline, "offline", false, "Run without the LLM")
	runCmd.Flags().StringVar(&name, "name", "", "Character name, overriding agent.name")
	runCmd.Flags().IntVar(&decisionInterval, "decision-interval", 0, "Ticks between decisions, overriding agent.decision_interval")
	runCmd.Flags().BoolVar(&noTelemetry, "no-telemetry", false, "Disable the telemetry stream")
	return runCmd
}
