// Package trace is the logging layer of the resolver and its drivers.
//
// Events are spans (begin/end pairs) and points, each tagged with a Scope:
//
//   - ScopeDriver: one CLI command or HTTP request
//   - ScopeSession: resolution of one world file
//   - ScopeRequest: one request set at a call site
//   - ScopeCandidate: one candidate resolution, divergence and cycle points
//
// The Level decides which scopes are emitted:
//
//   - LevelOff: nothing (the Nop tracer)
//   - LevelError: nothing in the stream, the ring keeps crash context
//   - LevelPhase: driver and session spans
//   - LevelDetail: plus request spans
//   - LevelDebug: everything
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeSession, "session:app.toml", 0)
//	defer span.End("")
package trace
