// Package commands implements the CLI commands for the dependo build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/dependo/internal/app"
	"go.trai.ch/dependo/internal/build"
	"go.trai.ch/dependo/internal/core/domain"
)

// CLI represents the command line interface for dependo.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	file    string
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Watch(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Deps(ctx context.Context, node string, file string) ([]domain.Node, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "dependo",
		Short:         "A Make-like build tool driven by dependency rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().StringVarP(&c.file, "file", "f", "", "Rules file (default: discovered from the working directory)")

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newDepsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// addRunFlags registers the flags shared by build and watch.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of build steps running at once (0: unlimited)")
	cmd.Flags().StringP("output", "o", "auto", "Output mode: auto, pretty, plain or json")
	cmd.Flags().Bool("ci", false, "Use plain output (shorthand for --output=plain)")
	cmd.Flags().Bool("json", false, "Emit structured JSON logs (shorthand for --output=json)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file after every build")
}

func (c *CLI) runOptions(cmd *cobra.Command) app.RunOptions {
	jobs, _ := cmd.Flags().GetInt("jobs")
	outputMode, _ := cmd.Flags().GetString("output")
	ci, _ := cmd.Flags().GetBool("ci")
	jsonMode, _ := cmd.Flags().GetBool("json")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	switch {
	case jsonMode:
		outputMode = "json"
	case ci:
		outputMode = "plain"
	}

	return app.RunOptions{
		File:        c.file,
		Jobs:        jobs,
		OutputMode:  outputMode,
		MetricsFile: metricsFile,
	}
}
