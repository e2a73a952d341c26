package lazy

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// Factory builds the real instance behind a proxy.
type Factory[T any] func() (T, error)

// Proxy holds a single lazily constructed instance of T.
//
// The slot starts empty. The first successful Get runs the factory and stores
// the result; every later Get returns that same value. A failed construction
// leaves the slot empty, so the next Get tries again.
//
// Concurrent first calls are serialized: the factory runs at most once per
// successful construction and all callers observe the same instance. The
// factory runs with the slot locked; calling Get on the same proxy from inside
// the factory deadlocks.
type Proxy[T any] struct {
	mu      sync.Mutex
	done    atomic.Bool
	val     T
	emitter *EventEmitter

	factory Factory[T]
	opts    options
}

// New returns a proxy around an infallible factory. Nothing is constructed
// until the first Get.
func New[T any](factory func() T, opts ...Option) *Proxy[T] {
	var f Factory[T]
	if factory != nil {
		f = func() (T, error) { return factory(), nil }
	}
	return NewWithError(f, opts...)
}

// NewWithError returns a proxy around a factory that can fail.
func NewWithError[T any](factory Factory[T], opts ...Option) *Proxy[T] {
	return &Proxy[T]{factory: factory, opts: newOptions(opts)}
}

// Get returns the instance, constructing it on first use.
//
// Factory errors are returned unchanged.
func (p *Proxy[T]) Get() (T, error) {
	if p.done.Load() {
		return p.val, nil
	}
	return p.construct()
}

// MustGet returns the instance or panics with the construction error.
func (p *Proxy[T]) MustGet() T {
	v, err := p.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Constructed reports whether the instance exists. It never constructs.
func (p *Proxy[T]) Constructed() bool { return p.done.Load() }

// Emitter returns the emitter attached at construction, or nil if the proxy
// is not constructed yet or was built without WithEventEmitter.
func (p *Proxy[T]) Emitter() *EventEmitter {
	if !p.done.Load() {
		return nil
	}
	return p.emitter
}

// On constructs the instance if needed and subscribes fn on its emitter.
func (p *Proxy[T]) On(event string, fn Listener) (unsubscribe func(), err error) {
	em, err := p.boundEmitter()
	if err != nil {
		return nil, err
	}
	return em.On(event, fn), nil
}

// Once is like On, for a single emission.
func (p *Proxy[T]) Once(event string, fn Listener) (unsubscribe func(), err error) {
	em, err := p.boundEmitter()
	if err != nil {
		return nil, err
	}
	return em.Once(event, fn), nil
}

// Emit constructs the instance if needed and emits event on its emitter.
func (p *Proxy[T]) Emit(event string, args ...any) (bool, error) {
	em, err := p.boundEmitter()
	if err != nil {
		return false, err
	}
	return em.Emit(event, args...), nil
}

func (p *Proxy[T]) boundEmitter() (*EventEmitter, error) {
	if _, err := p.Get(); err != nil {
		return nil, err
	}
	if p.emitter == nil {
		return nil, ErrNoEmitter
	}
	return p.emitter, nil
}

func (p *Proxy[T]) construct() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done.Load() {
		return p.val, nil
	}

	var zero T
	if p.factory == nil {
		return zero, ErrNilFactory
	}

	start := time.Now()
	v, err := p.factory()
	if err == nil && isNilInstance(v) {
		err = ErrNilInstance
	}
	if err != nil {
		name := p.label(nil)
		p.opts.logger.Warn("lazy: construction failed", "proxy", name, "err", err)
		p.opts.observer.ConstructFailed(name, err)
		return zero, err
	}

	if p.opts.eventEmitter {
		em := newBoundEmitter(p.opts)
		if binder, ok := any(v).(EmitterBinder); ok {
			binder.BindEmitter(em)
		}
		p.emitter = em
	}

	p.val = v
	p.done.Store(true)

	took := time.Since(start)
	name := p.label(v)
	p.opts.logger.Debug("lazy: constructed", "proxy", name, "took", took, "emitter", p.emitter != nil)
	p.opts.observer.Constructed(name, took)
	return v, nil
}

func (p *Proxy[T]) name() string {
	if p.done.Load() {
		return p.label(p.val)
	}
	return p.label(nil)
}

// label names the proxy for logs and metrics: the WithName value, else the
// dynamic instance type, else T.
func (p *Proxy[T]) label(v any) string {
	if p.opts.name != "" {
		return p.opts.name
	}
	if v != nil {
		return reflect.TypeOf(v).String()
	}
	return reflect.TypeFor[T]().String()
}

func isNilInstance(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
