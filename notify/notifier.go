// Package notify provides the change-notification capability consumed by the
// chain observer, plus small push-stream primitives used for command state
// and parameter tracking.
//
// Objects opt in to observation by implementing Observable, typically by
// embedding Emitter and raising Changed from their setters. Objects without
// the capability are still readable; the observer simply cannot react to
// their in-place mutation.
package notify

import "sync"

// Observable is implemented by objects that can report member changes by
// name. The cancel function removes the registration and is safe to call
// more than once.
type Observable interface {
	OnPropertyChanged(name string, fn func(name string)) (cancel func())
}

type handler struct {
	id int
	fn func(string)
}

// Emitter is an embeddable change notifier: a registry of named handler
// lists with token-based removal. Delivery is synchronous on the calling
// goroutine, in registration order per name.
type Emitter struct {
	mu       sync.Mutex
	seq      int
	handlers map[string][]handler
}

// OnPropertyChanged registers fn for changes of the named member. An empty
// name subscribes to every member.
func (e *Emitter) OnPropertyChanged(name string, fn func(name string)) (cancel func()) {
	e.mu.Lock()
	if e.handlers == nil {
		e.handlers = make(map[string][]handler)
	}
	e.seq++
	id := e.seq
	e.handlers[name] = append(e.handlers[name], handler{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		list := e.handlers[name]
		for i, h := range list {
			if h.id == id {
				e.handlers[name] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		e.mu.Unlock()
	}
}

// Changed notifies the handlers registered for each named member, then the
// wildcard handlers. Handlers run outside the emitter lock so they may
// re-register or cancel.
func (e *Emitter) Changed(names ...string) {
	for _, name := range names {
		for _, h := range e.snapshot(name) {
			h.fn(name)
		}
		if name != "" {
			for _, h := range e.snapshot("") {
				h.fn(name)
			}
		}
	}
}

func (e *Emitter) snapshot(name string) []handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.handlers[name]
	if len(list) == 0 {
		return nil
	}
	out := make([]handler, len(list))
	copy(out, list)
	return out
}
