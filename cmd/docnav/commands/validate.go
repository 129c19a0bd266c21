package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/docnav/pkg/config"
	"github.com/openfroyo/docnav/pkg/telemetry"
)

func newValidateCommand() *cobra.Command {
	var schema bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the site configuration",
		Long: `Validate the site configuration against the content tree.

This command checks:
  - Configuration syntax (CUE, YAML, JSON or Starlark)
  - Field shapes, link forms and search provider settings
  - Sidebar links against the documents under --content
  - Duplicate top-level nav labels

With --schema the raw configuration is also unified with the built-in
#SiteConfig CUE schema, which reports every schema error at once.`,
		Example: `  # Validate site.cue against ./docs
  docnav validate

  # Validate a YAML configuration with the CUE schema check
  docnav validate --config site.yaml --schema`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "validate", configPath)
			defer func() { op.End(err) }()

			s := newSession(op)
			out := cmd.OutOrStdout()

			if schema {
				src, err := s.loadSource()
				if err != nil {
					printError(cmd.ErrOrStderr(), err)
					return err
				}

				registry := config.NewSchemaRegistry()
				verrs, err := registry.Check(s.ctx, config.SiteSchema, src.Raw)
				if err != nil {
					return fmt.Errorf("schema check failed: %w", err)
				}
				if len(verrs) > 0 {
					for _, ve := range verrs {
						ve.File = configPath
						fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s\n", ve.String())
					}
					return fmt.Errorf("%s does not match %s (%d errors)", configPath, config.SiteSchema, len(verrs))
				}
				fmt.Fprintf(out, "✓ %s matches %s\n", configPath, config.SiteSchema)
			}

			_, cfg, err := s.resolveAll()
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}

			groups := len(cfg.Theme.Sidebar)
			items := 0
			for _, g := range cfg.Theme.Sidebar {
				items += len(g.Items)
			}

			fmt.Fprintf(out, "✓ %s is valid\n", configPath)
			fmt.Fprintf(out, "  nav entries:    %d\n", len(cfg.Theme.Nav))
			fmt.Fprintf(out, "  sidebar groups: %d (%d links)\n", groups, items)
			fmt.Fprintf(out, "  social links:   %d\n", len(cfg.Theme.SocialLinks))
			if cfg.Theme.SearchProvider != nil {
				fmt.Fprintf(out, "  search:         %s\n", cfg.Theme.SearchProvider.Provider())
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&schema, "schema", false, "also check the raw configuration against the CUE schema")

	return cmd
}
