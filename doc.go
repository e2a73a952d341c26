// Package lazyproxy provides lazily constructed stand-ins for Go values.
//
// A stand-in is handed out at wiring time and builds the real instance on its
// first use:
//
//   - lazy: the runtime. Proxy[T] is the construct-once slot; Forwarder is the
//     dynamic form for method sets only known at runtime.
//   - lazy/lazyprom: Prometheus metrics for proxy lifecycles.
//   - cmd/lazygen: generates typed wrappers for Go interfaces, so laziness is
//     invisible to callers and checked by the compiler.
//   - examples/*: runnable wiring demos for the generated and dynamic forms.
//
// Construction stays explicit: factories are plain functions passed at the
// composition root, and nothing is registered globally.
package lazyproxy
