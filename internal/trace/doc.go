// Package trace is rgr's logging and tracing subsystem.
//
// It records the pipeline stages (rewrite, search, review, write), the files
// that flow through them and, at debug level, every rg record. Tracing is off
// by default and costs nothing when disabled.
//
// # Usage
//
// Enable it from .rgr.toml:
//
//	[trace]
//	output = "-"        # stderr, or a file path (*.ndjson selects NDJSON)
//	level  = "file"     # off|error|stage|file|debug
//	mode   = "stream"   # stream|ring|both
//
// or from the environment: RGR_TRACE=- RGR_TRACE_LEVEL=debug rgr ...
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: writes each event as it happens
//   - RingTracer: keeps the last N events, dumped when a run fails
//   - MultiTracer: fans out to several tracers
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "search", 0)
//	defer span.End("")
package trace
