package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vk/blockgraph/internal/app"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel  string
	logFormat string
}

// config builds the validated app configuration from the global flags and
// any command-specific settings in extra.
func (o *globalOptions) config(extra app.Config) (*app.Config, error) {
	extra.LogLevel = o.logLevel
	extra.LogFormat = o.logFormat
	cfg, err := app.NewConfig(extra)
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// NewRootCommand builds the blockgraph command tree. Results are written to
// outW, logs and diagnostics to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "blockgraph",
		Short: "Compile, validate and run declarative block graphs",
		Long: `blockgraph compiles YAML or HCL graph documents into executable state graphs.

A document declares references (shared resources such as embedders and vector
stores), nodes (units of work) and edges (control flow between them).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "", "Logging level: debug, info, warn or error (env "+app.EnvLogLevel+", default info).")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log output format: text or json (env "+app.EnvLogFormat+", default text).")

	root.AddCommand(
		newValidateCommand(opts),
		newRunCommand(opts),
		newInspectCommand(opts),
	)
	return root
}

// Execute runs the command line args and maps every failure to an
// *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return exitError(root.ExecuteContext(ctx))
}

// argsBetween accepts between lo and hi positional args. hi < 0 means
// no upper bound.
func argsBetween(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || (hi >= 0 && len(args) > hi) {
			return &ExitError{
				Code:    ExitUsage,
				Message: fmt.Sprintf("%s: unexpected number of arguments %d\nUsage: %s", cmd.CommandPath(), len(args), cmd.UseLine()),
			}
		}
		return nil
	}
}
