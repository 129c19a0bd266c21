package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/openfroyo/docnav/pkg/policy"
	"github.com/openfroyo/docnav/pkg/telemetry"
)

// lintOptions are shared by lint and watch.
type lintOptions struct {
	policyPaths []string
	disable     string
}

func (o *lintOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.policyPaths, "policies", nil, "additional .rego files, JSON bundles or directories")
	cmd.Flags().StringVar(&o.disable, "disable", "", "comma separated policy names to disable")
}

// newEngine builds a policy engine with user policies loaded and the
// requested policies disabled.
func (o *lintOptions) newEngine(s *session) (*policy.Engine, error) {
	var opts []policy.EngineOption
	if s.metrics != nil {
		opts = append(opts, policy.WithRecorder(s.metrics))
	}

	engine, err := policy.NewEngine(s.logger, opts...)
	if err != nil {
		return nil, err
	}

	if len(o.policyPaths) > 0 {
		if err := engine.LoadPolicies(s.ctx, o.policyPaths); err != nil {
			return nil, err
		}
	}

	if err := engine.DisableList(o.disable); err != nil {
		return nil, err
	}

	return engine, nil
}

func newLintCommand() *cobra.Command {
	var (
		opts   lintOptions
		format string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the site configuration against authoring policies",
		Long: `Resolve the site configuration and evaluate authoring policies over it.

Policies are written in Rego. Built-in policies cover https links, empty
sidebar groups, the site description and the favicon; --policies adds
your own. Lint never changes what resolve produces. Error violations make
the command fail, warnings and info notes do not.`,
		Example: `  # Lint with the built-in policies
  docnav lint

  # Add house rules and skip the favicon check
  docnav lint --policies ./policies --disable favicon

  # Machine readable output
  docnav lint --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "lint", configPath)
			defer func() { op.End(err) }()

			s := newSession(op)

			_, cfg, err := s.resolveAll()
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			engine, err := opts.newEngine(s)
			if err != nil {
				return err
			}

			result, err := engine.Evaluate(s.ctx, cfg, &policy.Context{ConfigFile: configPath})
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			case "table":
				renderLintResult(cmd.OutOrStdout(), result)
			default:
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}

			if !result.Allowed {
				return fmt.Errorf("%s has %d policy errors", configPath, result.Summary()[policy.SeverityError])
			}
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, json)")

	return cmd
}

// renderLintResult prints violations as a table followed by a summary line.
func renderLintResult(w io.Writer, result *policy.Result) {
	for _, f := range result.Failures {
		fmt.Fprintf(w, "! %s\n", f)
	}

	if len(result.Violations) == 0 {
		fmt.Fprintf(w, "✓ %d policies passed\n", len(result.EvaluatedPolicies))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Policy", "Path", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 72},
	})

	for _, v := range result.Violations {
		t.AppendRow(table.Row{severityText(v.Severity), v.Policy, v.Path, v.Message})
	}
	t.Render()

	summary := result.Summary()
	fmt.Fprintf(w, "%d errors, %d warnings, %d info\n",
		summary[policy.SeverityError], summary[policy.SeverityWarning], summary[policy.SeverityInfo])
}

func severityText(sev policy.Severity) string {
	switch sev {
	case policy.SeverityError:
		return text.FgRed.Sprint(string(sev))
	case policy.SeverityWarning:
		return text.FgYellow.Sprint(string(sev))
	default:
		return text.FgCyan.Sprint(string(sev))
	}
}
