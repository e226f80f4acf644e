package bind

import (
	"reflect"
	"strings"
	"sync"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/accessor"
	"github.com/ygrebnov/bind/command"
	"github.com/ygrebnov/bind/constants"
	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/expr"
	"github.com/ygrebnov/bind/notify"
)

// EventSource is implemented by targets whose commands are invoked from a
// named event rather than a Command property.
type EventSource interface {
	// HasEvent reports whether the named event exists on this target.
	HasEvent(name string) bool
	// Connect registers fn to run when the named event fires. The cancel
	// function removes the handler.
	Connect(name string, fn func()) (cancel func(), err error)
}

var (
	commandStep   = expr.Step{Kind: expr.StepMember, Name: constants.CommandMember}
	parameterStep = expr.Step{Kind: expr.StepMember, Name: constants.CommandParameterMember}

	eventSourceType = reflect.TypeOf((*EventSource)(nil)).Elem()
)

// propertyCommandBinder wires commands to targets exposing settable Command
// and CommandParameter members.
type propertyCommandBinder struct{}

func (propertyCommandBinder) Affinity(target reflect.Type, hasEventName bool) int {
	if hasEventName {
		return 0
	}
	if _, err := accessor.ResolveSetter(target, commandStep); err != nil {
		return 0
	}
	if _, err := accessor.ResolveSetter(target, parameterStep); err != nil {
		return 0
	}
	return 5
}

func (propertyCommandBinder) Bind(cmd command.Command, target any, params *notify.Cell[any], _ string) (Disposable, error) {
	targetType := reflect.TypeOf(target)

	getCommand, err := accessor.ResolveGetter(targetType, commandStep)
	if err != nil {
		return nil, err
	}
	setCommand, err := accessor.ResolveSetter(targetType, commandStep)
	if err != nil {
		return nil, err
	}
	getParameter, err := accessor.ResolveGetter(targetType, parameterStep)
	if err != nil {
		return nil, err
	}
	setParameter, err := accessor.ResolveSetter(targetType, parameterStep)
	if err != nil {
		return nil, err
	}

	// Snapshot the pre-binding values so disposal restores them exactly.
	originalCommand, _, err := getCommand(target, nil)
	if err != nil {
		return nil, err
	}
	originalParameter, _, err := getParameter(target, nil)
	if err != nil {
		return nil, err
	}

	var cancelParams func()
	if params != nil {
		cancelParams = params.Subscribe(func(v any) {
			_ = setParameter(target, v, nil)
		})
	}
	if err := setCommand(target, cmd, nil); err != nil {
		if cancelParams != nil {
			cancelParams()
			_ = setParameter(target, originalParameter, nil)
		}
		return nil, err
	}

	// Restore order matters: stop parameter updates first so no stale
	// parameter is ever read against a restored command.
	return newDisposable(func() {
		if cancelParams != nil {
			cancelParams()
		}
		_ = setParameter(target, originalParameter, nil)
		_ = setCommand(target, originalCommand, nil)
	}), nil
}

// eventCommandBinder wires commands to EventSource targets: the command
// executes when the named (or first available default) event fires.
type eventCommandBinder struct {
	binder *Binder
}

func (e *eventCommandBinder) Affinity(target reflect.Type, hasEventName bool) int {
	if hasEventName {
		return 5
	}
	if target.Implements(eventSourceType) {
		return 3
	}
	return 0
}

func (e *eventCommandBinder) Bind(cmd command.Command, target any, params *notify.Cell[any], eventName string) (Disposable, error) {
	src, ok := target.(EventSource)
	if !ok {
		return nil, errorc.With(
			errors.ErrMissingEvent,
			errorc.String(errors.ErrorFieldTargetType, reflect.TypeOf(target).String()),
			errorc.String(errors.ErrorFieldEventName, eventName),
		)
	}

	name := eventName
	if name == "" {
		for _, candidate := range e.binder.defaultEvents {
			if src.HasEvent(candidate) {
				name = candidate
				break
			}
		}
		if name == "" {
			return nil, errorc.With(
				errors.ErrMissingEvent,
				errorc.String(errors.ErrorFieldTargetType, reflect.TypeOf(target).String()),
				errorc.String(errors.ErrorFieldEventName, strings.Join(e.binder.defaultEvents, ", ")),
			)
		}
	} else if !src.HasEvent(name) {
		return nil, errorc.With(
			errors.ErrMissingEvent,
			errorc.String(errors.ErrorFieldTargetType, reflect.TypeOf(target).String()),
			errorc.String(errors.ErrorFieldEventName, name),
		)
	}

	// Latest parameter value, last write wins. The value observed before
	// the event handler runs is the one passed to the command.
	var mu sync.Mutex
	var latest any
	var cancelParams func()
	if params != nil {
		cancelParams = params.Subscribe(func(v any) {
			mu.Lock()
			latest = v
			mu.Unlock()
		})
	}

	cancelEvent, err := src.Connect(name, func() {
		mu.Lock()
		p := latest
		mu.Unlock()
		if cmd.CanExecute(p) {
			// Execution errors surface on the command's own error stream.
			_ = cmd.Execute(p)
		}
	})
	if err != nil {
		if cancelParams != nil {
			cancelParams()
		}
		return nil, err
	}

	return newDisposable(func() {
		cancelEvent()
		if cancelParams != nil {
			cancelParams()
		}
	}), nil
}

// commandBind carries BindCommand configuration.
type commandBind struct {
	eventName  string
	paramChain expr.Chain
	param      any
	hasParam   bool
	onError    func(error)
}

// CommandBindOption configures a BindCommand call.
type CommandBindOption func(*commandBind)

// WithEventName selects an explicit target event for the binding.
func WithEventName(name string) CommandBindOption {
	return func(c *commandBind) { c.eventName = name }
}

// WithParameterChain observes a chain on the source root and feeds its value
// to the bound command as the parameter.
func WithParameterChain(chain expr.Chain) CommandBindOption {
	return func(c *commandBind) { c.paramChain = chain }
}

// WithParameter supplies a fixed command parameter.
func WithParameter(v any) CommandBindOption {
	return func(c *commandBind) {
		c.param = v
		c.hasParam = true
	}
}

// OnCommandBindError sets the sink for rebind failures after the initial
// binding succeeded (the command chain produced a new value that could not
// be bound).
func OnCommandBindError(fn func(error)) CommandBindOption {
	return func(c *commandBind) { c.onError = fn }
}

// BindCommand observes cmdChain on root and keeps whatever command it
// produces bound to target, rebinding when the chain's value changes. A nil
// or absent command unbinds the previous one and leaves the target unbound.
func (b *Binder) BindCommand(root any, cmdChain expr.Chain, target any, opts ...CommandBindOption) (Disposable, error) {
	cfg := &commandBind{}
	for _, opt := range opts {
		opt(cfg)
	}
	if target == nil {
		return nil, errors.ErrNilObject
	}

	scope := &Disposables{}

	var params *notify.Cell[any]
	if cfg.paramChain != nil {
		params = notify.NewCell[any](cfg.param)
		paramObs, err := b.Observe(root, cfg.paramChain)
		if err != nil {
			return nil, err
		}
		paramSub, err := paramObs.Subscribe(func(ch Change) {
			if ch.HasValue {
				params.Set(ch.Value)
			} else {
				params.Set(nil)
			}
		}, OnObserveError(func(err error) {
			b.raise(cfg.onError, err)
		}))
		if err != nil {
			return nil, err
		}
		scope.Add(paramSub)
	} else if cfg.hasParam {
		params = notify.NewCell[any](cfg.param)
	}

	cmdObs, err := b.Observe(root, cmdChain)
	if err != nil {
		scope.Dispose()
		return nil, err
	}

	var mu sync.Mutex
	var bound Disposable
	var initErr error
	initial := true
	cmdSub, err := cmdObs.Subscribe(func(ch Change) {
		mu.Lock()
		if bound != nil {
			bound.Dispose()
			bound = nil
		}
		mu.Unlock()

		var cmd command.Command
		if ch.HasValue && !isNil(ch.Value) {
			c, ok := ch.Value.(command.Command)
			if !ok {
				nerr := errorc.With(
					errors.ErrNotCommand,
					errorc.String(errors.ErrorFieldPath, cmdChain.String()),
				)
				if initial {
					initErr = nerr
					return
				}
				b.raise(cfg.onError, nerr)
				return
			}
			cmd = c
		}

		next, berr := b.BindCommandToObject(cmd, target, params, cfg.eventName)
		if berr != nil {
			if initial {
				initErr = berr
				return
			}
			b.raise(cfg.onError, berr)
			return
		}
		mu.Lock()
		bound = next
		mu.Unlock()
	}, OnObserveError(func(err error) {
		b.raise(cfg.onError, err)
	}))
	if err != nil {
		scope.Dispose()
		return nil, err
	}
	scope.Add(cmdSub)
	if initErr != nil {
		scope.Dispose()
		return nil, initErr
	}
	initial = false

	scope.Add(newDisposable(func() {
		mu.Lock()
		if bound != nil {
			bound.Dispose()
			bound = nil
		}
		mu.Unlock()
	}))
	return scope, nil
}
