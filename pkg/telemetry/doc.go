// Package telemetry provides logging, tracing and metrics for docnav.
//
// Logging uses zerolog through a thin Logger wrapper. Packages that accept a
// zerolog.Logger get one from Logger.Zerolog or NewComponentLogger.
//
// Tracing uses OpenTelemetry. NewTracer installs the global provider, so
// spans opened by other packages through otel.Tracer (for example the
// site.Load span) are exported with the same pipeline. Supported exporters
// are stdout, otlp (gRPC) and none.
//
// Metrics are Prometheus collectors on a private registry:
//
//	docnav_config_loads_total{result}
//	docnav_config_load_duration_seconds{result}
//	docnav_config_errors_total{kind}
//	docnav_documents_indexed
//	docnav_index_runs_total{status}
//	docnav_policy_violations_total{policy,severity}
//	docnav_watch_reloads_total{trigger}
//
// Metrics implements site.Recorder and can be passed to site.WithRecorder.
//
// Typical setup:
//
//	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//	ctx = tel.WithContext(ctx)
//
//	op := telemetry.StartOperation(ctx, "validate", "site.cue")
//	err = run(op.Ctx)
//	op.End(err)
package telemetry
