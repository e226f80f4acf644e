package bind

import (
	"reflect"
	"sync"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/accessor"
	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/expr"
	"github.com/ygrebnov/bind/notify"
)

// Change is one tick of a chain observation: the leaf step's owner, the step
// itself, and the value read from it. HasValue is false when an intermediate
// link of the chain is currently nil.
type Change struct {
	Sender   any
	Step     expr.Step
	Path     string
	Value    any
	HasValue bool
}

// Observation is a reusable handle for observing one chain on one root. Each
// Subscribe call builds its own link chain.
type Observation struct {
	binder *Binder
	root   any
	chain  expr.Chain
}

// Observe prepares an observation of chain on root.
func (b *Binder) Observe(root any, chain expr.Chain) (*Observation, error) {
	if root == nil {
		return nil, errors.ErrNilObject
	}
	if len(chain) == 0 {
		return nil, errors.ErrEmptyChain
	}
	return &Observation{binder: b, root: root, chain: chain}, nil
}

// ObservePath parses path and prepares an observation of it on root.
func (b *Binder) ObservePath(root any, path string) (*Observation, error) {
	chain, err := expr.Parse(path)
	if err != nil {
		return nil, err
	}
	return b.Observe(root, chain)
}

// ObserveOption configures one subscription.
type ObserveOption func(*subscription)

// OnObserveError sets the handler for errors that terminate the
// subscription at runtime (a chain member missing on the runtime type
// actually encountered). Without a handler the binder-wide handler is used;
// without either, the error panics.
func OnObserveError(fn func(error)) ObserveOption {
	return func(s *subscription) { s.onError = fn }
}

// Subscribe builds the observed link chain and starts delivering changes.
// The current leaf value is delivered synchronously before Subscribe
// returns. Setup failures (a chain member missing on the root's current
// object graph) are returned synchronously and leave nothing subscribed.
func (o *Observation) Subscribe(fn func(Change), opts ...ObserveOption) (Disposable, error) {
	s := &subscription{
		binder: o.binder,
		root:   o.root,
		chain:  o.chain,
		emit:   fn,
		links:  make([]link, len(o.chain)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	err := s.evaluate(0, s.root)
	if err != nil {
		s.teardown(0)
		s.mu.Unlock()
		return nil, err
	}
	change := s.currentLocked()
	s.mu.Unlock()

	s.emit(change)
	return newDisposable(s.dispose), nil
}

// link is the runtime state of one chain step during an active
// subscription: the owner object the step reads from, the change
// subscription on that owner (nil when the owner is not observable), and
// the currently-read value. At most one subscription is active per link.
type link struct {
	owner    any
	cancel   func()
	value    any
	hasValue bool
}

type subscription struct {
	binder  *Binder
	root    any
	chain   expr.Chain
	emit    func(Change)
	onError func(error)

	mu       sync.Mutex
	links    []link
	disposed bool
}

// evaluate fills links[from:] given the owner produced by the previous step.
// Links at and beyond the first nil owner are left empty, which makes the
// leaf report no value. Caller holds s.mu, and links[from:] are expected to
// be clear.
func (s *subscription) evaluate(from int, owner any) error {
	for i := from; i < len(s.links); i++ {
		if isNil(owner) {
			return nil
		}
		step := s.chain[i]
		ln := &s.links[i]
		ln.owner = owner

		if obs, ok := owner.(notify.Observable); ok {
			idx := i
			ln.cancel = obs.OnPropertyChanged(step.Name, func(string) { s.refresh(idx) })
		}

		getter, err := accessor.ResolveGetter(reflect.TypeOf(owner), step)
		if err != nil {
			return errorc.With(err, errorc.String(errors.ErrorFieldPath, s.chain.String()))
		}
		v, ok, err := getter(owner, step.Args)
		if err != nil {
			return errorc.With(err, errorc.String(errors.ErrorFieldPath, s.chain.String()))
		}
		ln.value, ln.hasValue = v, ok
		if !ok {
			owner = nil
			continue
		}
		owner = v
	}
	return nil
}

// refresh handles a change notification for step i: re-read the step's
// value, rebuild every downstream link, and deliver the leaf value exactly
// once.
func (s *subscription) refresh(i int) {
	s.mu.Lock()
	if s.disposed || s.links[i].owner == nil {
		s.mu.Unlock()
		return
	}

	// Downstream links are invalidated by the owner change at i. Tear them
	// down before rebuilding so old subscriptions never outlive their link.
	s.teardown(i + 1)

	step := s.chain[i]
	ln := &s.links[i]
	var err error
	getter, gerr := accessor.ResolveGetter(reflect.TypeOf(ln.owner), step)
	if gerr != nil {
		err = gerr
	} else {
		var v any
		var ok bool
		v, ok, err = getter(ln.owner, step.Args)
		if err == nil {
			ln.value, ln.hasValue = v, ok
			if i+1 < len(s.links) {
				next := any(nil)
				if ok {
					next = v
				}
				err = s.evaluate(i+1, next)
			}
		}
	}
	if err != nil {
		s.mu.Unlock()
		s.fail(errorc.With(err, errorc.String(errors.ErrorFieldPath, s.chain.String())))
		return
	}

	change := s.currentLocked()
	s.mu.Unlock()
	s.emit(change)
}

// currentLocked renders the leaf state as a Change. Caller holds s.mu.
func (s *subscription) currentLocked() Change {
	leaf := s.links[len(s.links)-1]
	return Change{
		Sender:   leaf.owner,
		Step:     s.chain[len(s.chain)-1],
		Path:     s.chain.String(),
		Value:    leaf.value,
		HasValue: leaf.hasValue,
	}
}

// teardown disposes links[from:] leaf to root. Caller holds s.mu.
func (s *subscription) teardown(from int) {
	for i := len(s.links) - 1; i >= from; i-- {
		if s.links[i].cancel != nil {
			s.links[i].cancel()
		}
		s.links[i] = link{}
	}
}

func (s *subscription) dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.teardown(0)
	s.mu.Unlock()
}

// fail terminates the subscription and reports the error.
func (s *subscription) fail(err error) {
	s.dispose()
	s.binder.raise(s.onError, err)
}
