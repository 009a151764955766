// Package trace records what the string heap and the CLI are doing.
//
// # Usage
//
//	strbuf cat --trace=- --trace-level=heap "Hello " "World"
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr), text or NDJSON
//   - RingTracer: last N events in memory
//   - MultiTracer: stream + ring
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: failed operations only
//   - LevelOp: commands and string operations
//   - LevelHeap: additionally every malloc, realloc and free of storage
//
// Tracers travel with the command context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeCommand, "trim", 0)
//	defer span.End("")
package trace
