package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/openfroyo/docnav/pkg/config"
	"github.com/openfroyo/docnav/pkg/content"
	"github.com/openfroyo/docnav/pkg/policy"
	"github.com/openfroyo/docnav/pkg/site"
	"github.com/openfroyo/docnav/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	var (
		opts  lintOptions
		lint  bool
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate the site configuration on every change",
		Long: `Watch the configuration file and the content root, resolving the
configuration again after each batch of changes.

Content changes re-walk the content root (and refresh --index when set).
With --lint the authoring policies run after every successful resolve, and
changes to --policies files reload them. With --metrics-addr a Prometheus
endpoint reports load results, reloads and violations.`,
		Example: `  # Watch with the defaults
  docnav watch

  # Lint on every change and expose metrics
  docnav watch --lint --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			op := telemetry.StartOperation(cmd.Context(), "watch", configPath)
			defer func() { op.End(err) }()

			s := newSession(op)
			w := &watchLoop{
				session: s,
				lint:    lint,
				out:     cmd,
			}

			if lint {
				engine, err := opts.newEngine(s)
				if err != nil {
					return err
				}
				w.engine = engine
			}

			docs, err := w.discover()
			if err != nil {
				return err
			}
			w.docs = docs
			w.check()

			g, ctx := errgroup.WithContext(s.ctx)

			if s.metrics != nil && metricsAddr != "" {
				g.Go(func() error {
					return s.metrics.Serve(ctx, s.logger)
				})
			}

			if lint && len(opts.policyPaths) > 0 {
				loader := policy.NewLoader(s.logger)
				err := loader.Watch(ctx, opts.policyPaths, delay, func(policies []policy.Policy) error {
					if err := w.engine.ReloadPolicies(ctx, policies); err != nil {
						return err
					}
					if err := w.engine.DisableList(opts.disable); err != nil {
						return err
					}
					if s.metrics != nil {
						s.metrics.RecordReload("policy")
					}
					w.check()
					return nil
				})
				if err != nil {
					return err
				}
			}

			watcher := config.NewWatcher(configPath, contentRoot, delay, s.logger)
			g.Go(func() error {
				return watcher.Run(ctx, w.onChange)
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s and %s (Ctrl+C to stop)\n", configPath, contentRoot)
			return g.Wait()
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&lint, "lint", false, "run authoring policies after every resolve")
	cmd.Flags().DurationVar(&delay, "debounce", 300*time.Millisecond, "quiet period before reacting to changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// watchLoop re-runs resolution when files change. Checks never overlap.
type watchLoop struct {
	*session

	mu     sync.Mutex
	docs   site.DocumentSet
	engine *policy.Engine
	lint   bool
	out    *cobra.Command
}

func (w *watchLoop) onChange(ctx context.Context, changes config.ChangeSet) {
	for _, trigger := range changes.Triggers {
		if w.metrics != nil {
			w.metrics.RecordReload(string(trigger))
		}
	}

	w.logger.Info().
		Strs("paths", changes.Paths).
		Msg("Change detected")

	if changes.Has(config.TriggerContent) {
		docs, err := w.discover()
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to refresh documents")
			return
		}
		w.mu.Lock()
		w.docs = docs
		w.mu.Unlock()
	}

	w.check()
}

// discover walks the content root and, when --index is set, stores the
// result so other commands see the same documents.
func (w *watchLoop) discover() (site.DocumentSet, error) {
	started := time.Now()
	idx, err := content.Discover(w.ctx, contentRoot, content.Options{Logger: w.logger})
	if err != nil {
		return nil, fmt.Errorf("failed to discover content: %w", err)
	}

	if indexPath != "" {
		if err := w.store(idx, started); err != nil {
			w.logger.Warn().Err(err).Str("index", indexPath).Msg("Failed to update index")
		}
	}

	return idx, nil
}

func (w *watchLoop) store(idx *content.Index, started time.Time) error {
	if err := ensureParentDir(indexPath); err != nil {
		return err
	}
	store, err := openStore(w.ctx, indexPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.ReplaceDocuments(w.ctx, contentRoot, started, idx.Documents(), false)
	if err != nil {
		if w.metrics != nil {
			w.metrics.RecordIndexRun("error", 0)
		}
		return err
	}
	if w.metrics != nil {
		w.metrics.RecordIndexRun("ok", run.DocumentCount)
	}
	return nil
}

// check resolves the configuration against the current documents and lints
// the result.
func (w *watchLoop) check() {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, cfg, err := w.resolve(w.docs)
	if err != nil {
		printError(w.out.ErrOrStderr(), err)
		return
	}
	fmt.Fprintf(w.out.OutOrStdout(), "✓ %s is valid (%s)\n", configPath, time.Now().Format("15:04:05"))

	if !w.lint || w.engine == nil {
		return
	}

	result, err := w.engine.Evaluate(w.ctx, cfg, &policy.Context{ConfigFile: configPath})
	if err != nil {
		w.logger.Error().Err(err).Msg("Policy evaluation failed")
		return
	}
	renderLintResult(w.out.OutOrStdout(), result)
}
