package bind

import (
	"reflect"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/command"
	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/notify"
)

// CommandBinder is a strategy for wiring a command to one family of target
// types. Binders self-report applicability through Affinity; a non-positive
// score means "not applicable".
type CommandBinder interface {
	// Affinity scores this binder for a target type. hasEventName reports
	// whether the caller supplied an explicit event name.
	Affinity(target reflect.Type, hasEventName bool) int
	// Bind wires cmd to target. params, when non-nil, supplies the command
	// parameter as a latest-value stream. Disposing the result fully and
	// idempotently reverses the wiring.
	Bind(cmd command.Command, target any, params *notify.Cell[any], eventName string) (Disposable, error)
}

// binderFor selects the registered binder with the highest positive
// affinity. On equal scores the earlier registration wins.
func (b *Binder) binderFor(target reflect.Type, hasEventName bool) (CommandBinder, error) {
	best := 0
	var chosen CommandBinder
	for _, cb := range b.binders {
		if score := cb.Affinity(target, hasEventName); score > best {
			best = score
			chosen = cb
		}
	}
	if chosen == nil {
		return nil, errorc.With(
			errors.ErrNoBinderFound,
			errorc.String(errors.ErrorFieldTargetType, target.String()),
		)
	}
	return chosen, nil
}

// BindCommandToObject wires cmd to target using the best-scoring registered
// binder. A nil command is a successful no-op binding, so optional commands
// can be bound unconditionally.
func (b *Binder) BindCommandToObject(cmd command.Command, target any, params *notify.Cell[any], eventName string) (Disposable, error) {
	if target == nil {
		return nil, errors.ErrNilObject
	}
	if cmd == nil {
		return newDisposable(func() {}), nil
	}
	cb, err := b.binderFor(reflect.TypeOf(target), eventName != "")
	if err != nil {
		return nil, err
	}
	return cb.Bind(cmd, target, params, eventName)
}
