package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openfroyo/docnav/pkg/telemetry"
)

func newResolveCommand() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved site configuration as JSON",
		Long: `Resolve the site configuration and print the result as JSON.

Internal links carry their rendered href (prefixed with the site base), and
nav entries are marked external where applicable.`,
		Example: `  # Resolve and pretty print
  docnav resolve

  # Resolve against an existing index
  docnav resolve --index .docnav/index.db --compact`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "resolve", configPath)
			defer func() { op.End(err) }()

			_, cfg, err := newSession(op).resolveAll()
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(cfg)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")

	return cmd
}
