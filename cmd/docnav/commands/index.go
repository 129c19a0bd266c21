package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/openfroyo/docnav/pkg/content"
	"github.com/openfroyo/docnav/pkg/telemetry"
)

const defaultIndexPath = ".docnav/index.db"

func newIndexCommand() *cobra.Command {
	var (
		drafts bool
		keep   int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the content tree into SQLite",
		Long: `Walk the content root and store every markdown document in the SQLite
index. Later commands given the same --index check sidebar links against
the stored documents instead of walking the tree again.

Each run replaces the stored documents atomically and is recorded in the
run history; only the newest --keep runs are retained.`,
		Example: `  # Index ./docs into the default location
  docnav index

  # Include drafts and keep a longer history
  docnav index --index build/index.db --drafts --keep 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "index", configPath)
			defer func() { op.End(err) }()

			s := newSession(op)
			path := indexPathOrDefault()
			if err := ensureParentDir(path); err != nil {
				return err
			}

			started := time.Now()
			idx, err := content.Discover(s.ctx, contentRoot, content.Options{
				IncludeDrafts: drafts,
				Logger:        s.logger,
			})
			if err != nil {
				if s.metrics != nil {
					s.metrics.RecordIndexRun("error", 0)
				}
				return fmt.Errorf("failed to discover content: %w", err)
			}

			store, err := openStore(s.ctx, path)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.ReplaceDocuments(s.ctx, contentRoot, started, idx.Documents(), drafts)
			if err != nil {
				if s.metrics != nil {
					s.metrics.RecordIndexRun("error", 0)
				}
				return fmt.Errorf("failed to store index: %w", err)
			}
			if s.metrics != nil {
				s.metrics.RecordIndexRun("ok", run.DocumentCount)
			}

			pruned, err := store.PruneRuns(s.ctx, keep)
			if err != nil {
				return err
			}

			s.logger.Info().
				Str("run_id", run.ID).
				Int("documents", run.DocumentCount).
				Int64("pruned_runs", pruned).
				Dur("duration", run.CompletedAt.Sub(run.StartedAt)).
				Msg("Content indexed")

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %d documents from %s into %s\n", run.DocumentCount, contentRoot, path)
			fmt.Fprintf(cmd.OutOrStdout(), "  run: %s\n", run.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&drafts, "drafts", false, "include documents marked draft")
	cmd.Flags().IntVar(&keep, "keep", 20, "number of index runs to retain")

	cmd.AddCommand(newIndexListCommand())
	cmd.AddCommand(newIndexRunsCommand())

	return cmd
}

func newIndexListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the indexed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "index.list", configPath)
			defer func() { op.End(err) }()

			store, err := openStore(op.Ctx, indexPathOrDefault())
			if err != nil {
				return err
			}
			defer store.Close()

			docs, err := store.ListDocuments(op.Ctx)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Path", "Title", "Source", "Draft"})
			for _, d := range docs {
				draft := ""
				if d.Draft {
					draft = "yes"
				}
				t.AppendRow(table.Row{d.Path, d.Title, d.SourcePath, draft})
			}
			t.AppendFooter(table.Row{"", "", "Total", len(docs)})
			t.Render()
			return nil
		},
	}
}

func newIndexRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the index run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "index.runs", configPath)
			defer func() { op.End(err) }()

			store, err := openStore(op.Ctx, indexPathOrDefault())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(op.Ctx, limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "Completed", "Root", "Documents", "Drafts"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.ID,
					r.CompletedAt.Local().Format(time.RFC3339),
					r.ContentRoot,
					r.DocumentCount,
					r.DraftsIncluded,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show (0 for all)")

	return cmd
}

func indexPathOrDefault() string {
	if indexPath == "" {
		return defaultIndexPath
	}
	return indexPath
}
