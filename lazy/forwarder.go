package lazy

import (
	"reflect"
	"strconv"
)

// Method is the forwarding callable a Forwarder exposes for one name.
type Method func(args ...any) ([]any, error)

// Forwarder is a dynamically shaped lazy proxy: a fixed set of method names,
// each forwarding to one shared instance built on the first call.
//
// It is meant for instances whose shape is only known at runtime. When the
// method set is a Go interface, prefer a lazygen wrapper around Proxy.
type Forwarder struct {
	proxy   *Proxy[any]
	methods map[string]struct{}
	names   []string
}

// Build returns a Forwarder for methods. The factory is not called until the
// first forwarding call. An empty methods list is valid and yields a Forwarder
// that never constructs.
func Build(factory func() any, methods []string, opts ...Option) *Forwarder {
	var f Factory[any]
	if factory != nil {
		f = func() (any, error) { return factory(), nil }
	}
	return BuildWithError(f, methods, opts...)
}

// BuildWithError is Build for a factory that can fail.
func BuildWithError(factory Factory[any], methods []string, opts ...Option) *Forwarder {
	set, names := descriptorSet(methods)
	return &Forwarder{
		proxy:   NewWithError(factory, opts...),
		methods: set,
		names:   names,
	}
}

// BuildFor returns a Forwarder whose descriptor is the method set of I.
func BuildFor[I any](factory func() I, opts ...Option) *Forwarder {
	var f Factory[any]
	if factory != nil {
		f = func() (any, error) { return factory(), nil }
	}
	return BuildWithError(f, MethodsOf[I](), opts...)
}

// Methods returns the forwarded names, sorted.
func (f *Forwarder) Methods() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether name is forwarded.
func (f *Forwarder) Has(name string) bool {
	_, ok := f.methods[name]
	return ok
}

// Func returns the forwarding callable for name.
func (f *Forwarder) Func(name string) (Method, bool) {
	if !f.Has(name) {
		return nil, false
	}
	return func(args ...any) ([]any, error) { return f.Call(name, args...) }, true
}

// Call forwards name with args to the instance, constructing it first if
// needed, and returns every result of the method unchanged.
//
// It fails with UnknownMethodError for names outside the descriptor,
// NotCallableError when the instance stores plain data under name,
// MethodNotFoundError when name resolves to nothing, and ArgumentError when
// args do not fit the method signature. Factory errors are returned as is.
func (f *Forwarder) Call(name string, args ...any) ([]any, error) {
	out, _, err := f.call(name, args)
	if err != nil {
		return nil, err
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

var errorType = reflect.TypeFor[error]()

// Invoke is Call for methods shaped like func(...) (T, error), func(...) T,
// func(...) error or func(...). A trailing error result is returned as err.
func (f *Forwarder) Invoke(name string, args ...any) (any, error) {
	out, ft, err := f.call(name, args)
	if err != nil {
		return nil, err
	}

	n := ft.NumOut()
	if n > 0 && ft.Out(n-1) == errorType {
		var callErr error
		if e := out[n-1]; !e.IsNil() {
			callErr = e.Interface().(error)
		}
		if n > 1 {
			return out[0].Interface(), callErr
		}
		return nil, callErr
	}
	if n > 0 {
		return out[0].Interface(), nil
	}
	return nil, nil
}

// Instance returns the underlying instance, constructing it if needed.
func (f *Forwarder) Instance() (any, error) { return f.proxy.Get() }

// Constructed reports whether the instance exists.
func (f *Forwarder) Constructed() bool { return f.proxy.Constructed() }

// Emitter returns the emitter attached at construction, if any.
func (f *Forwarder) Emitter() *EventEmitter { return f.proxy.Emitter() }

// On constructs the instance if needed and subscribes fn on its emitter.
func (f *Forwarder) On(event string, fn Listener) (func(), error) { return f.proxy.On(event, fn) }

// Emit constructs the instance if needed and emits event on its emitter.
func (f *Forwarder) Emit(event string, args ...any) (bool, error) {
	return f.proxy.Emit(event, args...)
}

func (f *Forwarder) call(name string, args []any) ([]reflect.Value, reflect.Type, error) {
	if !f.Has(name) {
		return nil, nil, UnknownMethodError{Method: name}
	}

	inst, err := f.proxy.Get()
	if err != nil {
		return nil, nil, err
	}

	fn, err := resolveMethod(inst, name)
	if err != nil {
		return nil, nil, err
	}

	ft := fn.Type()
	in, err := bindArgs(name, ft, args)
	if err != nil {
		return nil, nil, err
	}

	f.proxy.opts.observer.Forwarded(f.proxy.name(), name)
	return fn.Call(in), ft, nil
}

// resolveMethod finds name on inst. A data member stored directly on the
// instance shadows any method of the same name, as a struct field shadows a
// method promoted from an embedded type.
func resolveMethod(inst any, name string) (reflect.Value, error) {
	rv := reflect.ValueOf(inst)

	if member, callable, found := ownMember(rv, name); found {
		if !callable {
			return reflect.Value{}, NotCallableError{Method: name}
		}
		return member, nil
	}

	if m := rv.MethodByName(name); m.IsValid() {
		return m, nil
	}
	return reflect.Value{}, MethodNotFoundError{Method: name, Type: rv.Type().String()}
}

// ownMember looks name up among the top-level fields of a struct instance or
// the keys of a string-keyed map instance. Only non-nil funcs are callable.
func ownMember(rv reflect.Value, name string) (member reflect.Value, callable, found bool) {
	v := rv
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false, false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		sf, ok := v.Type().FieldByName(name)
		if !ok || len(sf.Index) != 1 {
			return reflect.Value{}, false, false
		}
		if !sf.IsExported() {
			return reflect.Value{}, false, true
		}
		fv := unwrapInterface(v.Field(sf.Index[0]))
		return fv, isCallable(fv), true

	case reflect.Map:
		kt := v.Type().Key()
		if kt.Kind() != reflect.String {
			return reflect.Value{}, false, false
		}
		mv := v.MapIndex(reflect.ValueOf(name).Convert(kt))
		if !mv.IsValid() {
			return reflect.Value{}, false, false
		}
		mv = unwrapInterface(mv)
		return mv, isCallable(mv), true
	}

	return reflect.Value{}, false, false
}

// unwrapInterface returns the dynamic value held by v, so a func stored in an
// any-typed field or map value is seen as a func.
func unwrapInterface(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func isCallable(v reflect.Value) bool {
	return v.Kind() == reflect.Func && !v.IsNil()
}

func bindArgs(method string, ft reflect.Type, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	switch {
	case ft.IsVariadic() && len(args) < n-1:
		return nil, ArgumentError{Method: method, Index: -1, Want: "at least " + strconv.Itoa(n-1), Got: strconv.Itoa(len(args))}
	case !ft.IsVariadic() && len(args) != n:
		return nil, ArgumentError{Method: method, Index: -1, Want: strconv.Itoa(n), Got: strconv.Itoa(len(args))}
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := paramType(ft, i)
		v, ok := argValue(arg, want)
		if !ok {
			return nil, ArgumentError{Method: method, Index: i, Want: want.String(), Got: typeName(arg)}
		}
		in[i] = v
	}
	return in, nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

func argValue(arg any, want reflect.Type) (reflect.Value, bool) {
	if arg == nil {
		switch want.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.Slice, reflect.UnsafePointer:
			return reflect.Zero(want), true
		default:
			return reflect.Value{}, false
		}
	}
	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(want) {
		return reflect.Value{}, false
	}
	return v, true
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
