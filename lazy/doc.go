// Package lazy provides construct-on-first-use proxies for Go values.
//
// A proxy is cheap to create and has no side effects: the factory that builds
// the real instance runs only when the first forwarded call needs it. Every
// later call, through any forwarded method, reuses that single instance.
//
// The package offers two shapes:
//
//   - Proxy[T]: a typed, guarded slot. Call Get to obtain the instance. This is
//     what lazygen-generated wrappers are built on, so the method set is checked
//     at compile time.
//
//   - Forwarder: a dynamically shaped proxy built from a list of method names
//     (Build) or from a type's method set (BuildFor). Calls are resolved by name
//     through reflection, which makes it usable for instances whose shape is only
//     known at runtime, such as map[string]any.
//
// Construction policy
//
//   - At most one instance exists per proxy.
//   - Concurrent first calls run the factory once; all callers see the result.
//   - A failed factory call (error, or a nil instance) leaves the slot empty and
//     is retried by the next call. Errors are returned unchanged.
//
// Event emitters
//
// WithEventEmitter attaches an EventEmitter on first construction, before any
// forwarded method runs. Instances implementing EmitterBinder receive it.
//
// Quick start
//
//	counter := lazy.New(func() *Counter { return &Counter{} })
//	c, err := counter.Get() // Counter is built here
//
//	fwd := lazy.Build(func() any { return &Counter{} }, []string{"Inc", "Get"})
//	_, err = fwd.Call("Inc")
//	v, err := fwd.Invoke("Get")
//
// Import
//
//	"github.com/sghaida/lazyproxy/lazy"
package lazy
