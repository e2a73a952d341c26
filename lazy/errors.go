package lazy

import (
	"errors"
	"strconv"
)

var (
	// ErrNilFactory is returned when a proxy was built without a factory.
	ErrNilFactory = errors.New("lazy: nil factory")

	// ErrNilInstance is returned when the factory returned a nil instance.
	// The slot stays empty and the next call retries construction.
	ErrNilInstance = errors.New("lazy: factory returned nil instance")

	// ErrNoEmitter is returned by event helpers on a proxy built without
	// WithEventEmitter.
	ErrNoEmitter = errors.New("lazy: proxy has no event emitter")
)

// NotCallableError is returned when a forwarded name resolves to a data member
// stored directly on the instance instead of a method.
type NotCallableError struct{ Method string }

// Error implements the error interface.
func (e NotCallableError) Error() string {
	// Example: lazy: "Size" is not a function on the instance method set
	return "lazy: " + strconv.Quote(e.Method) + " is not a function on the instance method set"
}

// MethodNotFoundError is returned when the instance has no member under the
// forwarded name at all.
type MethodNotFoundError struct {
	Method string

	// Type is the dynamic type of the instance, as reported by reflect.
	Type string
}

// Error implements the error interface.
func (e MethodNotFoundError) Error() string {
	return "lazy: method " + strconv.Quote(e.Method) + " not found on " + e.Type
}

// UnknownMethodError is returned when a Forwarder is asked to call a name that
// is not part of its descriptor.
type UnknownMethodError struct{ Method string }

// Error implements the error interface.
func (e UnknownMethodError) Error() string {
	return "lazy: method " + strconv.Quote(e.Method) + " is not forwarded"
}

// ArgumentError reports a mismatch between the arguments of a dynamic call and
// the signature of the resolved method.
//
// Index is -1 for arity mismatches; Want and Got then hold argument counts.
type ArgumentError struct {
	Method string
	Index  int
	Want   string
	Got    string
}

// Error implements the error interface.
func (e ArgumentError) Error() string {
	if e.Index < 0 {
		return "lazy: " + strconv.Quote(e.Method) + " wants " + e.Want + " arguments, got " + e.Got
	}
	return "lazy: " + strconv.Quote(e.Method) + " argument " + strconv.Itoa(e.Index) +
		" wants " + e.Want + ", got " + e.Got
}
