package bind

import (
	"reflect"
	"sync"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/accessor"
	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/expr"
)

// Binding keeps a source chain and a target chain synchronized. Dispose
// severs both directions; streaming errors accumulate on Errors.
type Binding struct {
	binder  *Binder
	errs    *BindingError
	onError func(error)

	mu               sync.Mutex
	applyingToTarget bool
	applyingToSource bool

	subs Disposables
}

// BindOption configures a Binding.
type BindOption func(*Binding)

// OnBindingError sets the per-binding sink for streaming errors (conversion
// failures after the binding is live). Errors accumulate on the binding's
// error channel regardless.
func OnBindingError(fn func(error)) BindOption {
	return func(bd *Binding) { bd.onError = fn }
}

// Errors exposes the binding's error channel.
func (bd *Binding) Errors() *BindingError { return bd.errs }

// Dispose severs both directions. Idempotent.
func (bd *Binding) Dispose() { bd.subs.Dispose() }

// Bind keeps src's chain and dst's chain synchronized in both directions.
// The source value is applied to the target first; afterwards a change on
// either side propagates to the other, with echo suppression so a
// propagated write never bounces back.
func (b *Binder) Bind(src any, srcChain expr.Chain, dst any, dstChain expr.Chain, opts ...BindOption) (*Binding, error) {
	return b.bind(src, srcChain, dst, dstChain, true, opts)
}

// BindOneWay propagates src's chain value to dst's chain, never the
// reverse.
func (b *Binder) BindOneWay(src any, srcChain expr.Chain, dst any, dstChain expr.Chain, opts ...BindOption) (*Binding, error) {
	return b.bind(src, srcChain, dst, dstChain, false, opts)
}

// BindPath is Bind over parsed path strings.
func (b *Binder) BindPath(src any, srcPath string, dst any, dstPath string, opts ...BindOption) (*Binding, error) {
	srcChain, err := expr.Parse(srcPath)
	if err != nil {
		return nil, err
	}
	dstChain, err := expr.Parse(dstPath)
	if err != nil {
		return nil, err
	}
	return b.Bind(src, srcChain, dst, dstChain, opts...)
}

func (b *Binder) bind(src any, srcChain expr.Chain, dst any, dstChain expr.Chain, twoWay bool, opts []BindOption) (*Binding, error) {
	bd := &Binding{binder: b, errs: &BindingError{}}
	for _, opt := range opts {
		opt(bd)
	}

	srcObs, err := b.Observe(src, srcChain)
	if err != nil {
		return nil, err
	}
	dstObs, err := b.Observe(dst, dstChain)
	if err != nil {
		return nil, err
	}

	// Forward direction. The subscription's synchronous initial emission
	// performs the initial apply; a conversion failure there is a hard
	// error.
	var initErr error
	initial := true
	forward, err := srcObs.Subscribe(func(ch Change) {
		if !ch.HasValue {
			return
		}
		bd.mu.Lock()
		if bd.applyingToSource {
			bd.mu.Unlock()
			return
		}
		bd.applyingToTarget = true
		bd.mu.Unlock()

		werr := b.write(dst, dstChain, ch.Value)

		bd.mu.Lock()
		bd.applyingToTarget = false
		bd.mu.Unlock()

		if werr != nil {
			if initial {
				initErr = werr
				return
			}
			bd.report("source to target", srcChain.String(), werr)
		}
	}, OnObserveError(func(err error) {
		bd.report("source observation", srcChain.String(), err)
	}))
	if err != nil {
		return nil, err
	}
	bd.subs.Add(forward)
	if initErr != nil {
		bd.Dispose()
		return nil, initErr
	}
	initial = false

	if twoWay {
		// The reverse subscription's initial emission is the target's
		// pre-binding value; only subsequent target changes propagate back.
		reverseLive := false
		reverse, err := dstObs.Subscribe(func(ch Change) {
			if !reverseLive || !ch.HasValue {
				return
			}
			bd.mu.Lock()
			if bd.applyingToTarget {
				bd.mu.Unlock()
				return
			}
			bd.applyingToSource = true
			bd.mu.Unlock()

			werr := b.write(src, srcChain, ch.Value)

			bd.mu.Lock()
			bd.applyingToSource = false
			bd.mu.Unlock()

			if werr != nil {
				bd.report("target to source", dstChain.String(), werr)
			}
		}, OnObserveError(func(err error) {
			bd.report("target observation", dstChain.String(), err)
		}))
		if err != nil {
			bd.Dispose()
			return nil, err
		}
		reverseLive = true
		bd.subs.Add(reverse)
	}

	return bd, nil
}

// write converts value to the leaf member's static type and sets it through
// the chain. A chain whose intermediate links are currently nil absorbs the
// write silently; there is nowhere to put the value yet.
func (b *Binder) write(root any, chain expr.Chain, value any) error {
	owner, ok, err := evalOwner(root, chain)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	leaf := chain[len(chain)-1]
	ownerType := reflect.TypeOf(owner)

	memberType, err := accessor.MemberType(ownerType, leaf)
	if err != nil {
		return errorc.With(err, errorc.String(errors.ErrorFieldPath, chain.String()))
	}
	converted, err := b.convert(value, memberType)
	if err != nil {
		return errorc.With(err, errorc.String(errors.ErrorFieldPath, chain.String()))
	}
	setter, err := accessor.ResolveSetter(ownerType, leaf)
	if err != nil {
		return errorc.With(err, errorc.String(errors.ErrorFieldPath, chain.String()))
	}
	return setter(owner, converted, leaf.Args)
}

// evalOwner evaluates all but the last chain step and returns the leaf
// step's owner. ok is false when an intermediate link is nil.
func evalOwner(root any, chain expr.Chain) (any, bool, error) {
	owner := root
	for _, step := range chain[:len(chain)-1] {
		if isNil(owner) {
			return nil, false, nil
		}
		getter, err := accessor.ResolveGetter(reflect.TypeOf(owner), step)
		if err != nil {
			return nil, false, err
		}
		v, ok, err := getter(owner, step.Args)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		owner = v
	}
	if isNil(owner) {
		return nil, false, nil
	}
	return owner, true, nil
}

func (bd *Binding) report(stage, path string, err error) {
	bd.errs.Add(BindingIssue{Path: path, Stage: stage, Err: err})
	if bd.onError != nil {
		bd.onError(err)
		return
	}
	if bd.binder.onError != nil {
		bd.binder.onError(err)
	}
}
