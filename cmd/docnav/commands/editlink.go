package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/docnav/pkg/telemetry"
)

func newEditLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit-link <document>...",
		Short: "Print the edit link for documents",
		Long: `Print the "edit this page" URL for each document path by substituting
it into theme.editLinkPattern.`,
		Example: `  docnav edit-link guide/intro.md`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "edit-link", configPath)
			defer func() { op.End(err) }()

			_, cfg, err := newSession(op).resolveAll()
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			if cfg.Theme.EditLinkPattern == "" {
				return fmt.Errorf("%s does not set theme.editLinkPattern", configPath)
			}

			for _, doc := range args {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.EditLinkFor(doc))
			}
			return nil
		},
	}

	return cmd
}
