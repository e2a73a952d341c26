package lazy_test

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sghaida/lazyproxy/lazy"
)

// Counter is the shared fixture: a little stateful service with a mix of
// method shapes.
type Counter struct {
	value int
}

func (c *Counter) Inc() { c.value++ }

func (c *Counter) Get() int { return c.value }

func (c *Counter) Add(n int) int {
	c.value += n
	return c.value
}

func (c *Counter) Sum(base int, xs ...int) int {
	for _, x := range xs {
		base += x
	}
	return base
}

func (c *Counter) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, errDivByZero
	}
	return a / b, nil
}

func (c *Counter) Describe(label string, tags []string, extra any) (string, []string, any) {
	return label, tags, extra
}

var errDivByZero = errors.New("division by zero")

// Incrementer is the interface view of Counter used by BuildFor.
type Incrementer interface {
	Inc()
	Get() int
}

type sizer struct{}

func (sizer) Size() int { return 1 }

// Shadowed stores a plain field under the name of a promoted method.
type Shadowed struct {
	sizer
	Size int
}

// Hooked stores a callable field.
type Hooked struct {
	Ping func(string) string
	Nil  func()
}

// Loose stores members behind any-typed fields.
type Loose struct {
	Ping  any
	Label any
	Unset any
}

// Tally is a counter safe for concurrent use.
type Tally struct {
	n atomic.Int64
}

func (t *Tally) Inc() { t.n.Add(1) }

func (t *Tally) Get() int64 { return t.n.Load() }

// Notifier gets the proxy's emitter bound at construction.
type Notifier struct {
	events *lazy.EventEmitter
	sent   int
}

func (n *Notifier) BindEmitter(e *lazy.EventEmitter) { n.events = e }

func (n *Notifier) Send(msg string) bool {
	n.sent++
	return n.events.Emit("sent", msg)
}

// observerMock records Observer calls.
type observerMock struct{ mock.Mock }

func (m *observerMock) Constructed(proxy string, took time.Duration) { m.Called(proxy, took) }
func (m *observerMock) ConstructFailed(proxy string, err error)      { m.Called(proxy, err) }
func (m *observerMock) Forwarded(proxy, method string)               { m.Called(proxy, method) }

var anyDuration = mock.AnythingOfType("time.Duration")

// countingFactory returns a Counter factory and a pointer to its call count.
func countingFactory() (func() *Counter, *int) {
	calls := 0
	return func() *Counter {
		calls++
		return &Counter{}
	}, &calls
}
