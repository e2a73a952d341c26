// Command lazygen generates lazily constructed wrappers for Go interfaces.
//
// A wrapper is a struct that implements the interface by forwarding every
// method to a real implementation built on first use through lazy.Proxy. The
// method set is fixed at generation time, so the compiler checks the wrapper
// against the interface (var _ Iface = (*LazyIface)(nil)).
//
// When to use it
//
// Use lazygen when:
//
//   - constructing a dependency is expensive or has side effects, and it must
//     not happen during package init or wiring
//   - a dependency can only be built after some readiness signal, but callers
//     need a handle to it earlier
//   - you want the laziness invisible to callers: they see the interface
//
// For instances whose shape is only known at runtime, use lazy.Build instead.
//
// Inputs
//
// Interface mode reads the interface declaration from Go source:
//
//	//go:generate go run github.com/sghaida/lazyproxy/cmd/lazygen --iface Counter
//
// Interfaces embedded from the same package are flattened, and an embedded
// error adds Error() string. Interfaces embedded from another package, such as
// io.Closer, are rejected because their methods are not in the parsed source;
// describe such an interface in a spec file instead. Imports needed by method
// types are taken from the file declaring each method, and two packages used
// under the same name are an error.
//
// Spec mode reads a spec file (.json, .yaml, .yml or .toml):
//
//	package: counter
//	interface: Counter
//	wrapperName: LazyCounter
//	emitter: false
//	methods:
//	  - name: Inc
//	  - name: Add
//	    params: [{name: n, type: int}]
//	    returns: [{type: int}]
//	  - name: Close
//	    returns: [{type: error}]
//
//	//go:generate go run ../../cmd/lazygen --spec ./counter.lazy.yaml
//
// Several --spec flags generate concurrently.
//
// Generated API (summary)
//
//   - New<Wrapper>(factory func() (Iface, error), opts ...lazy.Option) *<Wrapper>
//   - (*<Wrapper>).Proxy() *lazy.Proxy[Iface]
//   - one forwarding method per interface method
//
// Construction failures
//
// The factory runs on the first method call. If it fails, a method whose last
// result is error returns zero values and the construction error; any other
// method panics with it. The next call retries construction.
package main
