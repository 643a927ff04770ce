package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vk/blockgraph/internal/app"
)

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate PATH...",
		Short: "Statically validate graph documents",
		Long: `Validate checks the structure of every document found under the given files
or directories. Nothing is built, so no external references are contacted.`,
		Args: argsBetween(1, -1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(app.Config{})
			if err != nil {
				return err
			}
			a := app.NewApp(cmd.ErrOrStderr(), cfg)

			if !watch {
				if err := a.Validate(cmd.Context(), args...); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}

			out := cmd.OutOrStdout()
			return a.Watch(cmd.Context(), args, func(err error) {
				if err != nil {
					fmt.Fprintf(out, "invalid:\n%v\n", err)
					return
				}
				fmt.Fprintln(out, "ok")
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-validate whenever a document changes.")
	return cmd
}

func newRunCommand(opts *globalOptions) *cobra.Command {
	var (
		input     string
		inputFile string
		output    string
		settings  app.Config
	)

	cmd := &cobra.Command{
		Use:   "run PATH",
		Short: "Compile a document and run it once",
		Long: `Run compiles the document at PATH, invokes it with the initial state and prints
the final state. The initial state is a JSON or YAML mapping read from
--input-file and then --input, the latter taking precedence.`,
		Args: argsBetween(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			initial, err := readInput(inputFile, input)
			if err != nil {
				return err
			}
			cfg, err := opts.config(settings)
			if err != nil {
				return err
			}

			a := app.NewApp(cmd.ErrOrStderr(), cfg)
			final, err := a.Run(cmd.Context(), args[0], initial)
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), format, final)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "Initial state as a JSON or YAML mapping.")
	flags.StringVar(&inputFile, "input-file", "", "File holding the initial state as JSON or YAML.")
	flags.StringVarP(&output, "output", "o", formatJSON, "Output format for the final state: json or yaml.")
	flags.IntVar(&settings.StepLimit, "step-limit", 0, "Maximum supersteps per invocation (0 keeps the default).")
	flags.IntVar(&settings.MaxDepth, "max-depth", 0, "Maximum sub-graph nesting depth (0 keeps the default).")
	flags.IntVar(&settings.HealthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server during the run. 0 is disabled.")
	return cmd
}

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var (
		output   string
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Compile a document and describe its references, nodes and edges",
		Args:  argsBetween(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			cfg, err := opts.config(app.Config{MaxDepth: maxDepth})
			if err != nil {
				return err
			}

			a := app.NewApp(cmd.ErrOrStderr(), cfg)
			summary, err := a.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), format, summary)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatYAML, "Output format: json or yaml.")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum sub-graph nesting depth (0 keeps the default).")
	return cmd
}

// readInput merges the initial state from file and then from inline.
func readInput(file, inline string) (map[string]any, error) {
	initial := map[string]any{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, usageError(fmt.Errorf("cannot read input file: %w", err))
		}
		if err := decodeInput(data, initial); err != nil {
			return nil, usageError(fmt.Errorf("invalid input file %s: %w", file, err))
		}
	}
	if inline != "" {
		if err := decodeInput([]byte(inline), initial); err != nil {
			return nil, usageError(fmt.Errorf("invalid --input: %w", err))
		}
	}
	return initial, nil
}
