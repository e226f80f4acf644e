package command

import (
	stderrors "errors"
	"testing"

	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/notify"
)

func TestNew(t *testing.T) {
	t.Run("nil run panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on nil run")
			}
		}()
		New(nil)
	})

	t.Run("execute runs and emits the result", func(t *testing.T) {
		cmd := New(func(param any) (any, error) {
			return param.(int) * 2, nil
		})
		var results []any
		cmd.Results().Subscribe(func(v any) { results = append(results, v) })
		if err := cmd.Execute(21); err != nil {
			t.Fatalf("Execute unexpected error: %v", err)
		}
		if len(results) != 1 || results[0] != 42 {
			t.Errorf("results = %v; want [42]", results)
		}
	})

	t.Run("execute failure is returned and emitted", func(t *testing.T) {
		boom := stderrors.New("boom")
		cmd := New(func(any) (any, error) { return nil, boom })
		var errs []error
		cmd.Errors().Subscribe(func(err error) { errs = append(errs, err) })
		if err := cmd.Execute(nil); !stderrors.Is(err, boom) {
			t.Fatalf("Execute = %v; want boom", err)
		}
		if len(errs) != 1 || !stderrors.Is(errs[0], boom) {
			t.Errorf("errs = %v; want [boom]", errs)
		}
	})
}

func TestCanExecute(t *testing.T) {
	t.Run("predicate gates execution", func(t *testing.T) {
		ran := false
		cmd := New(
			func(any) (any, error) { ran = true; return nil, nil },
			WithPredicate(func(param any) bool { return param != nil }),
		)
		if cmd.CanExecute(nil) {
			t.Error("CanExecute(nil) = true; want false")
		}
		if err := cmd.Execute(nil); !stderrors.Is(err, errors.ErrCannotExecute) {
			t.Fatalf("Execute = %v; want ErrCannotExecute", err)
		}
		if ran {
			t.Error("run executed despite failing predicate")
		}
		if err := cmd.Execute("ok"); err != nil || !ran {
			t.Errorf("Execute = %v, ran = %v; want nil, true", err, ran)
		}
	})

	t.Run("canExecute cell gates execution", func(t *testing.T) {
		gate := notify.NewCell(false)
		cmd := New(func(any) (any, error) { return nil, nil }, WithCanExecute(gate))
		if cmd.CanExecute(nil) {
			t.Error("CanExecute = true while cell is false")
		}
		if err := cmd.Execute(nil); !stderrors.Is(err, errors.ErrCannotExecute) {
			t.Fatalf("Execute = %v; want ErrCannotExecute", err)
		}
		gate.Set(true)
		if err := cmd.Execute(nil); err != nil {
			t.Errorf("Execute after opening gate = %v; want nil", err)
		}
	})

	t.Run("reentrant execution is refused", func(t *testing.T) {
		var cmd *ReactiveCommand
		var inner error
		cmd = New(func(any) (any, error) {
			inner = cmd.Execute(nil)
			return nil, nil
		})
		if err := cmd.Execute(nil); err != nil {
			t.Fatalf("outer Execute unexpected error: %v", err)
		}
		if !stderrors.Is(inner, errors.ErrCannotExecute) {
			t.Errorf("inner Execute = %v; want ErrCannotExecute", inner)
		}
	})
}

func TestIsExecuting(t *testing.T) {
	cmd := New(func(any) (any, error) { return nil, nil })
	var states []bool
	cmd.IsExecuting().Subscribe(func(v bool) { states = append(states, v) })
	_ = cmd.Execute(nil)
	// Initial false, true on entry, false on exit.
	want := []bool{false, true, false}
	if len(states) != len(want) {
		t.Fatalf("states = %v; want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v; want %v", states, want)
		}
	}
}
