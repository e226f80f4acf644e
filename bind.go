// Package bind keeps viewmodel state and UI-facing objects synchronized
// through expression-chain observation, two-way property binding with value
// conversion, and affinity-scored command binding.
//
// A Binder holds the converter and command-binder registries explicitly; it
// is populated at startup through functional options and read-only
// afterwards. There is no ambient global registry: components receive the
// Binder they should use.
package bind

import (
	"reflect"
	"sync"

	"github.com/ygrebnov/bind/constants"
)

// Disposable severs a binding's or observer's side effects. Disposal is
// synchronous and idempotent.
type Disposable interface {
	Dispose()
}

type disposable struct {
	once sync.Once
	fn   func()
}

func (d *disposable) Dispose() { d.once.Do(d.fn) }

func newDisposable(fn func()) Disposable {
	return &disposable{fn: fn}
}

// Disposables aggregates disposal handles, typically for a view's activation
// scope. Adding to an already-disposed aggregate disposes the item
// immediately.
type Disposables struct {
	mu       sync.Mutex
	disposed bool
	items    []Disposable
}

// Add appends items to the aggregate.
func (d *Disposables) Add(items ...Disposable) {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		for _, it := range items {
			it.Dispose()
		}
		return
	}
	d.items = append(d.items, items...)
	d.mu.Unlock()
}

// Dispose disposes every held item in reverse insertion order. Safe to call
// more than once.
func (d *Disposables) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	items := d.items
	d.items = nil
	d.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Dispose()
	}
}

// Binder holds the converter and command-binder registries and creates
// observations and bindings against them.
type Binder struct {
	converters    map[convKey]Converter
	fallbacks     []FallbackConverter
	binders       []CommandBinder
	defaultEvents []string
	onError       func(error)
}

// Option configures a Binder at construction time.
type Option func(*Binder)

// WithConverter registers a typed converter. A later registration for the
// same (from, to) pair replaces the earlier one.
func WithConverter(c Converter) Option {
	return func(b *Binder) {
		b.converters[convKey{from: c.FromType(), to: c.ToType()}] = c
	}
}

// WithFallbackConverter appends a fallback converter, probed in registration
// order after typed converters.
func WithFallbackConverter(f FallbackConverter) Option {
	return func(b *Binder) { b.fallbacks = append(b.fallbacks, f) }
}

// WithCommandBinder appends a command binder strategy. The built-in property
// and event binders are registered first; on equal affinity the earlier
// registration wins.
func WithCommandBinder(cb CommandBinder) Option {
	return func(b *Binder) { b.binders = append(b.binders, cb) }
}

// WithDefaultEvent appends event names to the default-event priority list
// probed by the event command binder.
func WithDefaultEvent(names ...string) Option {
	return func(b *Binder) { b.defaultEvents = append(b.defaultEvents, names...) }
}

// WithErrorHandler sets the binder-wide sink for streaming errors that have
// no per-binding handler. Without any handler such errors panic: unhandled
// reactive errors fail loud.
func WithErrorHandler(fn func(error)) Option {
	return func(b *Binder) { b.onError = fn }
}

// New constructs a Binder with the builtin converters and the property- and
// event-based command binders registered, then applies options.
func New(opts ...Option) *Binder {
	b := &Binder{
		converters:    builtinConverters(),
		defaultEvents: append([]string(nil), constants.DefaultEvents...),
	}
	b.binders = []CommandBinder{
		propertyCommandBinder{},
		&eventCommandBinder{binder: b},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// raise routes a streaming error: per-instance handler first, then the
// binder-wide handler, otherwise panic.
func (b *Binder) raise(local func(error), err error) {
	switch {
	case local != nil:
		local(err)
	case b.onError != nil:
		b.onError(err)
	default:
		panic(err)
	}
}

// isNil reports whether v is nil or a typed nil reference.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
