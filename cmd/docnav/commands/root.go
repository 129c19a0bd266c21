package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openfroyo/docnav/pkg/telemetry"
)

var (
	// Global flags
	configPath    string
	contentRoot   string
	indexPath     string
	logLevel      string
	logFormat     string
	traceExporter string
	otlpEndpoint  string
	defines       []string

	// Set by commands that serve metrics
	metricsAddr string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docnav",
		Short: "docnav - documentation site configuration resolver",
		Long: `docnav validates and resolves the configuration of a documentation site.

It reads a site configuration (CUE, YAML, JSON or Starlark), checks it
against the markdown documents under the content root and produces the
resolved navigation model a renderer consumes.

Features:
  - Typed configuration via CUE schemas
  - Starlark configuration scripts
  - Sidebar link checking against the content tree
  - SQLite document index
  - Authoring lint via OPA/Rego policies
  - Watch mode with Prometheus metrics`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupTelemetry(cmd, version)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if tel := telemetry.FromTelemetryContext(cmd.Context()); tel != nil {
				return tel.Shutdown(context.Background())
			}
			return nil
		},
	}

	defaultLevel := os.Getenv("LOG_LEVEL")
	if defaultLevel == "" {
		defaultLevel = "info"
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "site.cue", "site configuration file (.cue, .yaml, .json, .star)")
	rootCmd.PersistentFlags().StringVar(&contentRoot, "content", "docs", "content root holding the markdown documents")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "SQLite document index; when set and populated it replaces walking --content")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLevel, "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", "none", "trace exporter (none, stdout, otlp)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector endpoint")
	rootCmd.PersistentFlags().StringArrayVarP(&defines, "define", "D", nil, "key=value made available to Starlark configs as vars[key] (repeatable)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newEditLinkCommand())
	rootCmd.AddCommand(newIndexCommand())
	rootCmd.AddCommand(newLintCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// setupTelemetry builds the telemetry stack from the global flags and stores
// it in the command context.
func setupTelemetry(cmd *cobra.Command, version string) error {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Logging.Level = logLevel
	cfg.Logging.Format = logFormat
	cfg.Metrics.ListenAddress = metricsAddr

	if traceExporter != "" && traceExporter != "none" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = traceExporter
		cfg.Tracing.Endpoint = otlpEndpoint
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}

	zerolog.SetGlobalLevel(telemetry.ParseLevel(logLevel))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(tel.WithContext(ctx))
	return nil
}
