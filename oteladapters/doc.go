// Package oteladapters provides OpenTelemetry implementations of the
// observability interfaces in the shell package. These adapters enable
// plug-and-play observability for users who want OpenTelemetry integration
// without implementing the interfaces themselves.
//
// Two logger implementations are available:
//   - SlogBridgeLogger (recommended): bridges Go's log/slog to OpenTelemetry
//     with automatic trace correlation, and satisfies both shell.Logger and
//     shell.ContextualLogger.
//   - OTelLogger: emits records through the OpenTelemetry log API directly
//     for full control over record creation.
//
// MetricsCollector maps shell.MetricsCollector onto OpenTelemetry
// instruments, creating histograms, counters, and gauges on-demand.
package oteladapters
