package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <node>",
		Short: "Print the direct dependencies of a node, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.app.Deps(cmd.Context(), args[0], c.file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, dep := range deps {
				_, _ = fmt.Fprintln(out, dep)
			}
			return nil
		},
	}
}
