package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/docnav/pkg/config"
	"github.com/openfroyo/docnav/pkg/content"
	"github.com/openfroyo/docnav/pkg/site"
	"github.com/openfroyo/docnav/pkg/stores"
	"github.com/openfroyo/docnav/pkg/telemetry"
)

const starlarkTimeout = 5 * time.Second

// session carries what every command needs to resolve a configuration.
type session struct {
	ctx     context.Context
	tel     *telemetry.Telemetry
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

func newSession(op *telemetry.Operation) *session {
	s := &session{
		ctx:    op.Ctx,
		logger: op.Logger.Zerolog(),
	}
	if tel := telemetry.FromTelemetryContext(op.Ctx); tel != nil {
		s.tel = tel
		s.metrics = tel.Metrics
	}
	return s
}

// openStore opens and migrates the SQLite index at path.
func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// documents returns the document set sidebar links are checked against. A
// populated --index wins; otherwise the content root is walked.
func (s *session) documents() (site.DocumentSet, error) {
	if indexPath != "" {
		if _, err := os.Stat(indexPath); err == nil {
			docs, err := s.indexedDocuments()
			if err == nil {
				return docs, nil
			}
			if !errors.Is(err, stores.ErrNoIndex) {
				return nil, err
			}
			s.logger.Warn().Str("index", indexPath).Msg("Index is empty, walking content root instead")
		}
	}

	idx, err := content.Discover(s.ctx, contentRoot, content.Options{Logger: s.logger})
	if err != nil {
		return nil, fmt.Errorf("failed to discover content: %w", err)
	}
	s.logger.Debug().Str("root", contentRoot).Int("documents", idx.Len()).Msg("Content discovered")
	return idx, nil
}

func (s *session) indexedDocuments() (site.DocumentSet, error) {
	store, err := openStore(s.ctx, indexPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	run, err := store.LatestRun(s.ctx)
	if err != nil {
		return nil, err
	}

	docs, err := store.Snapshot(s.ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("index", indexPath).
		Str("run_id", run.ID).
		Int("documents", len(docs)).
		Msg("Using document index")
	return docs, nil
}

// loadSource reads the configuration file into a raw literal. Starlark
// configs see the --define values and content_root in vars.
func (s *session) loadSource() (*config.Source, error) {
	vars, err := config.ParseDefines(defines)
	if err != nil {
		return nil, err
	}
	if _, ok := vars["content_root"]; !ok {
		vars["content_root"] = contentRoot
	}

	loader := config.NewLoader(s.logger, starlarkTimeout)
	loader.SetVariables(vars)
	return loader.LoadFile(s.ctx, configPath)
}

// resolve loads the configuration file and resolves it against docs.
func (s *session) resolve(docs site.DocumentSet) (*config.Source, *site.SiteConfig, error) {
	src, err := s.loadSource()
	if err != nil {
		return nil, nil, err
	}

	opts := []site.Option{site.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, site.WithRecorder(s.metrics))
	}

	cfg, err := site.NewResolver(docs, opts...).Load(s.ctx, src.Raw)
	if err != nil {
		return src, nil, err
	}
	return src, cfg, nil
}

// resolveAll discovers documents and resolves the configuration.
func (s *session) resolveAll() (*config.Source, *site.SiteConfig, error) {
	docs, err := s.documents()
	if err != nil {
		return nil, nil, err
	}
	return s.resolve(docs)
}

// printError writes a load or resolve error in a form suited to the terminal.
func printError(w io.Writer, err error) {
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		for _, ve := range loadErr.Errors {
			fmt.Fprintf(w, "✗ %s\n", ve.String())
		}
		return
	}

	if ce, ok := site.AsConfigError(err); ok {
		fmt.Fprintf(w, "✗ %s\n", configPath)
		fmt.Fprintf(w, "  kind: %s\n", ce.Kind)
		if ce.Path != "" {
			fmt.Fprintf(w, "  path: %s\n", ce.Path)
		}
		switch ce.Kind {
		case site.KindBrokenLink:
			fmt.Fprintf(w, "  link %q does not resolve to a document under %s\n", ce.Subject, contentRoot)
		case site.KindDuplicateNavLabel:
			fmt.Fprintf(w, "  nav label %q is used more than once\n", ce.Subject)
		default:
			fmt.Fprintf(w, "  %s\n", ce.Message)
		}
		return
	}

	fmt.Fprintf(w, "✗ %v\n", err)
}

// ensureParentDir creates the directory holding path.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
