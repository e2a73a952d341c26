package lazy

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultMaxListeners is the per-event listener count above which an emitter
// attached by a proxy logs a possible leak.
const DefaultMaxListeners = 10

// Listener handles an emitted event.
type Listener func(args ...any)

// EventEmitter is a minimal synchronous publish/subscribe hub.
//
// The zero value is ready to use and never warns about listener counts.
// Listeners run on the emitting goroutine, in subscription order, without any
// emitter lock held, so they may subscribe or unsubscribe freely.
type EventEmitter struct {
	mu           sync.Mutex
	listeners    map[string][]*listener
	nextID       uint64
	maxListeners int
	warned       map[string]struct{}
	logger       *log.Logger
}

type listener struct {
	id   uint64
	fn   Listener
	once bool
}

// NewEventEmitter returns an emitter with DefaultMaxListeners.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{maxListeners: DefaultMaxListeners}
}

func newBoundEmitter(o options) *EventEmitter {
	return &EventEmitter{maxListeners: o.maxListeners, logger: o.logger}
}

// EmitterBinder is implemented by instances that want a handle on the emitter
// a proxy attaches to them. BindEmitter runs once, right after construction.
type EmitterBinder interface {
	BindEmitter(*EventEmitter)
}

// On subscribes fn to event and returns a function that removes it.
// A nil fn is ignored.
func (e *EventEmitter) On(event string, fn Listener) (unsubscribe func()) {
	return e.add(event, fn, false)
}

// Once subscribes fn for the next emission of event only.
func (e *EventEmitter) Once(event string, fn Listener) (unsubscribe func()) {
	return e.add(event, fn, true)
}

func (e *EventEmitter) add(event string, fn Listener, once bool) func() {
	if fn == nil {
		return func() {}
	}

	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = make(map[string][]*listener)
	}
	e.nextID++
	id := e.nextID
	e.listeners[event] = append(e.listeners[event], &listener{id: id, fn: fn, once: once})
	count := len(e.listeners[event])
	warn := e.shouldWarnLocked(event, count)
	limit := e.maxListeners
	e.mu.Unlock()

	if warn {
		e.logger.Warn("lazy: possible event listener leak", "event", event, "listeners", count, "max", limit)
	}

	return func() { e.remove(event, id) }
}

func (e *EventEmitter) shouldWarnLocked(event string, count int) bool {
	if e.logger == nil || e.maxListeners <= 0 || count <= e.maxListeners {
		return false
	}
	if e.warned == nil {
		e.warned = make(map[string]struct{})
	}
	if _, done := e.warned[event]; done {
		return false
	}
	e.warned[event] = struct{}{}
	return true
}

func (e *EventEmitter) remove(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[event]
	for i, l := range ls {
		if l.id == id {
			e.setLocked(event, append(ls[:i:i], ls[i+1:]...))
			return
		}
	}
}

func (e *EventEmitter) setLocked(event string, ls []*listener) {
	if len(ls) == 0 {
		delete(e.listeners, event)
		return
	}
	e.listeners[event] = ls
}

// Off removes every listener of event.
func (e *EventEmitter) Off(event string) {
	e.mu.Lock()
	delete(e.listeners, event)
	e.mu.Unlock()
}

// Emit calls every listener of event with args and reports whether there was
// at least one. Once-listeners are removed before any listener runs.
func (e *EventEmitter) Emit(event string, args ...any) bool {
	e.mu.Lock()
	ls := e.listeners[event]
	if len(ls) == 0 {
		e.mu.Unlock()
		return false
	}
	snapshot := make([]*listener, len(ls))
	copy(snapshot, ls)

	kept := ls[:0:0]
	for _, l := range ls {
		if !l.once {
			kept = append(kept, l)
		}
	}
	e.setLocked(event, kept)
	e.mu.Unlock()

	for _, l := range snapshot {
		l.fn(args...)
	}
	return true
}

// ListenerCount returns the number of listeners subscribed to event.
func (e *EventEmitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// EventNames returns the events that currently have listeners, sorted.
func (e *EventEmitter) EventNames() []string {
	e.mu.Lock()
	names := make([]string, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	e.mu.Unlock()

	sort.Strings(names)
	return names
}

// SetMaxListeners changes the leak warning threshold. Zero disables it.
func (e *EventEmitter) SetMaxListeners(n int) {
	e.mu.Lock()
	e.maxListeners = n
	e.warned = nil
	e.mu.Unlock()
}
