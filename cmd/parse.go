// File: cmd/parse.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/freddy/internal/agent"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Prints the action a model reply parses to",
		Example: `  freddy parse "I'll follow Steve"
  freddy parse "walk to 10 64 -20"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), agent.Parse(strings.Join(args, " ")).String())
			return nil
		},
	}
}
