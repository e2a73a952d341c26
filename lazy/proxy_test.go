package lazy_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sghaida/lazyproxy/lazy"
)

//
// -----------------------------------------------------------------------------
// New / Get
// -----------------------------------------------------------------------------

// TestNew_DoesNotConstruct verifies building a proxy has no side effects.
func TestNew_DoesNotConstruct(t *testing.T) {
	t.Parallel()

	factory, calls := countingFactory()
	p := lazy.New(factory)

	require.NotNil(t, p)
	assert.Equal(t, 0, *calls)
	assert.False(t, p.Constructed())
	assert.Nil(t, p.Emitter())
}

// TestGet_ConstructsOnceAndShares verifies the first Get builds the instance
// and every later Get returns the same one.
func TestGet_ConstructsOnceAndShares(t *testing.T) {
	t.Parallel()

	factory, calls := countingFactory()
	p := lazy.New(factory)

	first, err := p.Get()
	require.NoError(t, err)
	first.Inc()

	second, err := p.Get()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, second.Get())
	assert.Equal(t, 1, *calls)
	assert.True(t, p.Constructed())
}

// TestGet_ConcurrentFirstCalls verifies the factory runs once under a
// concurrent stampede and every caller sees the same instance.
func TestGet_ConcurrentFirstCalls(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls int
	)
	p := lazy.New(func() *Counter {
		mu.Lock()
		calls++
		mu.Unlock()
		return &Counter{}
	})

	const workers = 64
	got := make([]*Counter, workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			c, err := p.Get()
			got[i] = c
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, calls)
	for _, c := range got {
		assert.Same(t, got[0], c)
	}
}

//
// -----------------------------------------------------------------------------
// Construction failures
// -----------------------------------------------------------------------------

// TestGet_FactoryErrorRetries verifies a factory error is returned unchanged
// and the next Get tries again.
func TestGet_FactoryErrorRetries(t *testing.T) {
	t.Parallel()

	boom := errors.New("not ready")
	attempts := 0
	p := lazy.NewWithError(func() (*Counter, error) {
		attempts++
		if attempts == 1 {
			return nil, boom
		}
		return &Counter{}, nil
	})

	_, err := p.Get()
	require.ErrorIs(t, err, boom)
	assert.Same(t, boom, err)
	assert.False(t, p.Constructed())

	c, err := p.Get()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2, attempts)
	assert.True(t, p.Constructed())
}

// TestGet_NilAndEmptyFactories covers the guard errors.
func TestGet_NilAndEmptyFactories(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		proxy   interface{ Get() (*Counter, error) }
		wantErr error
	}{
		{
			name:    "nil factory",
			proxy:   lazy.New[*Counter](nil),
			wantErr: lazy.ErrNilFactory,
		},
		{
			name:    "nil fallible factory",
			proxy:   lazy.NewWithError[*Counter](nil),
			wantErr: lazy.ErrNilFactory,
		},
		{
			name:    "nil instance",
			proxy:   lazy.New(func() *Counter { return nil }),
			wantErr: lazy.ErrNilInstance,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.proxy.Get()
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, got)
		})
	}
}

// TestGet_NilInterfaceInstance verifies a nil interface value is rejected.
func TestGet_NilInterfaceInstance(t *testing.T) {
	t.Parallel()

	p := lazy.New(func() Incrementer { return nil })
	_, err := p.Get()
	require.ErrorIs(t, err, lazy.ErrNilInstance)
}

// TestGet_FactoryPanicLeavesSlotEmpty verifies a panicking factory unlocks the
// slot so later calls can retry.
func TestGet_FactoryPanicLeavesSlotEmpty(t *testing.T) {
	t.Parallel()

	attempts := 0
	p := lazy.New(func() *Counter {
		attempts++
		if attempts == 1 {
			panic("first boot fails")
		}
		return &Counter{}
	})

	require.PanicsWithValue(t, "first boot fails", func() { _, _ = p.Get() })
	assert.False(t, p.Constructed())

	c, err := p.Get()
	require.NoError(t, err)
	assert.NotNil(t, c)
}

// TestMustGet verifies MustGet returns the instance or panics with the error.
func TestMustGet(t *testing.T) {
	t.Parallel()

	ok := lazy.New(func() *Counter { return &Counter{value: 7} })
	assert.Equal(t, 7, ok.MustGet().Get())

	bad := lazy.New(func() *Counter { return nil })
	require.PanicsWithError(t, lazy.ErrNilInstance.Error(), func() { bad.MustGet() })
}

//
// -----------------------------------------------------------------------------
// Event emitter
// -----------------------------------------------------------------------------

// TestWithEventEmitter_BindsBeforeUse verifies the emitter is bound on first
// construction, before the instance's own methods run.
func TestWithEventEmitter_BindsBeforeUse(t *testing.T) {
	t.Parallel()

	p := lazy.New(func() *Notifier { return &Notifier{} }, lazy.WithEventEmitter())
	assert.Nil(t, p.Emitter())

	n, err := p.Get()
	require.NoError(t, err)
	require.NotNil(t, p.Emitter())
	assert.Same(t, p.Emitter(), n.events)

	var got []any
	unsubscribe := p.Emitter().On("sent", func(args ...any) { got = append(got, args...) })

	assert.True(t, n.Send("hello"))
	unsubscribe()
	assert.False(t, n.Send("ignored"))

	assert.Equal(t, []any{"hello"}, got)
}

// TestProxyOn_ConstructsInstance verifies subscribing through the proxy
// triggers construction, like any other forwarded call.
func TestProxyOn_ConstructsInstance(t *testing.T) {
	t.Parallel()

	factory, calls := countingFactory()
	p := lazy.New(factory, lazy.WithEventEmitter())

	received := 0
	_, err := p.On("tick", func(...any) { received++ })
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	_, err = p.Once("tick", func(...any) { received += 10 })
	require.NoError(t, err)

	delivered, err := p.Emit("tick")
	require.NoError(t, err)
	assert.True(t, delivered)

	delivered, err = p.Emit("tick")
	require.NoError(t, err)
	assert.True(t, delivered)

	assert.Equal(t, 12, received)
	assert.Equal(t, 1, *calls)
}

// TestProxyEvents_Errors covers event helpers without an emitter or instance.
func TestProxyEvents_Errors(t *testing.T) {
	t.Parallel()

	plain := lazy.New(func() *Counter { return &Counter{} })
	_, err := plain.On("x", func(...any) {})
	require.ErrorIs(t, err, lazy.ErrNoEmitter)
	_, err = plain.Once("x", func(...any) {})
	require.ErrorIs(t, err, lazy.ErrNoEmitter)

	broken := lazy.New(func() *Counter { return nil }, lazy.WithEventEmitter())
	ok, err := broken.Emit("x")
	require.ErrorIs(t, err, lazy.ErrNilInstance)
	assert.False(t, ok)
}

//
// -----------------------------------------------------------------------------
// Logging / observer
// -----------------------------------------------------------------------------

// TestWithLogger_LogsConstructionAndFailure verifies the proxy logs through
// the configured charmbracelet logger.
func TestWithLogger_LogsConstructionAndFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	attempts := 0
	p := lazy.NewWithError(func() (*Counter, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("db down")
		}
		return &Counter{}, nil
	}, lazy.WithLogger(logger), lazy.WithName("counter"))

	_, err := p.Get()
	require.Error(t, err)
	_, err = p.Get()
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "lazy: construction failed")
	assert.Contains(t, out, "db down")
	assert.Contains(t, out, "lazy: constructed")
	assert.Contains(t, out, "proxy=counter")
}

// TestWithObserver_ReportsLifecycle verifies observer callbacks and the
// default proxy label.
func TestWithObserver_ReportsLifecycle(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	obs := &observerMock{}
	obs.On("ConstructFailed", "*lazy_test.Counter", boom).Once()
	obs.On("Constructed", "*lazy_test.Counter", anyDuration).Once()

	attempts := 0
	p := lazy.NewWithError(func() (*Counter, error) {
		attempts++
		if attempts == 1 {
			return nil, boom
		}
		return &Counter{}, nil
	}, lazy.WithObserver(obs))

	_, _ = p.Get()
	_, _ = p.Get()
	_, _ = p.Get()

	obs.AssertExpectations(t)
}

// TestOptions_NilOptionIgnored verifies nil options are skipped.
func TestOptions_NilOptionIgnored(t *testing.T) {
	t.Parallel()

	p := lazy.New(func() *Counter { return &Counter{} }, nil, lazy.WithLogger(nil), lazy.WithObserver(nil))
	_, err := p.Get()
	require.NoError(t, err)
}
