// Package ingress is the HTTP adapter at the pipeline's two external
// boundaries: trace producers submit raw payloads on the write side,
// and the read-side routes expose stored batches and the health
// counter snapshot.
//
// The adapter owns the wire mapping only. Admission decisions belong
// to the engine; this package translates them into status codes (429
// for backpressure, 503 during shutdown) so producers can react
// without understanding engine internals.
package ingress
