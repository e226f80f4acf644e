package bind

import (
	stderrors "errors"
	"testing"

	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/expr"
)

func mustChain(t *testing.T, path string) expr.Chain {
	t.Helper()
	chain, err := expr.Parse(path)
	if err != nil {
		t.Fatalf("Parse(%q): %v", path, err)
	}
	return chain
}

func TestObserve(t *testing.T) {
	b := New()

	t.Run("nil root", func(t *testing.T) {
		if _, err := b.ObservePath(nil, "Name"); !stderrors.Is(err, errors.ErrNilObject) {
			t.Fatalf("want ErrNilObject, got %v", err)
		}
	})

	t.Run("empty chain", func(t *testing.T) {
		if _, err := b.Observe(&testPerson{}, nil); !stderrors.Is(err, errors.ErrEmptyChain) {
			t.Fatalf("want ErrEmptyChain, got %v", err)
		}
	})
}

func TestSubscribeInitialEmission(t *testing.T) {
	b := New()
	p := &testPerson{name: "ada"}
	obs, err := b.ObservePath(p, "Name")
	if err != nil {
		t.Fatalf("ObservePath: %v", err)
	}

	var got []Change
	sub, err := obs.Subscribe(func(ch Change) { got = append(got, ch) })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Dispose()

	if len(got) != 1 {
		t.Fatalf("emissions = %d; want 1 synchronous initial emission", len(got))
	}
	ch := got[0]
	if !ch.HasValue || ch.Value != "ada" {
		t.Errorf("initial change = %+v; want value ada", ch)
	}
	if ch.Sender != p {
		t.Errorf("Sender = %v; want the leaf owner", ch.Sender)
	}
	if ch.Path != "Name" {
		t.Errorf("Path = %q; want Name", ch.Path)
	}
}

func TestSubscribeChainReacts(t *testing.T) {
	t.Run("leaf change emits exactly once", func(t *testing.T) {
		b := New()
		vm := &testViewModel{person: &testPerson{name: "ada"}}
		obs, err := b.ObservePath(vm, "Person.Name")
		if err != nil {
			t.Fatalf("ObservePath: %v", err)
		}

		var values []any
		sub, err := obs.Subscribe(func(ch Change) { values = append(values, ch.Value) })
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		defer sub.Dispose()

		vm.Person().SetName("grace")
		if len(values) != 2 || values[1] != "grace" {
			t.Fatalf("values = %v; want [ada grace]", values)
		}
	})

	t.Run("intermediate swap emits exactly once and detaches the old object", func(t *testing.T) {
		b := New()
		old := &testPerson{name: "ada"}
		vm := &testViewModel{person: old}
		obs, _ := b.ObservePath(vm, "Person.Name")

		var values []any
		sub, err := obs.Subscribe(func(ch Change) { values = append(values, ch.Value) })
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		defer sub.Dispose()

		vm.SetPerson(&testPerson{name: "grace"})
		if len(values) != 2 || values[1] != "grace" {
			t.Fatalf("values = %v; want [ada grace]", values)
		}

		// The replaced object is no longer watched.
		old.SetName("ignored")
		if len(values) != 2 {
			t.Errorf("change on replaced object emitted; values = %v", values)
		}

		// The replacement is.
		vm.Person().SetName("hopper")
		if len(values) != 3 || values[2] != "hopper" {
			t.Errorf("values = %v; want hopper appended", values)
		}
	})

	t.Run("three level chain", func(t *testing.T) {
		b := New()
		vm := &testViewModel{person: &testPerson{address: &testAddress{city: "London"}}}
		obs, _ := b.ObservePath(vm, "Person.Address.City")

		var values []any
		sub, err := obs.Subscribe(func(ch Change) { values = append(values, ch.Value) })
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		defer sub.Dispose()

		vm.Person().SetAddress(&testAddress{city: "Paris"})
		vm.Person().Address().SetCity("Oslo")
		want := []any{"London", "Paris", "Oslo"}
		if len(values) != len(want) {
			t.Fatalf("values = %v; want %v", values, want)
		}
		for i := range want {
			if values[i] != want[i] {
				t.Fatalf("values = %v; want %v", values, want)
			}
		}
	})
}

func TestSubscribeNilIntermediate(t *testing.T) {
	b := New()
	vm := &testViewModel{person: &testPerson{name: "ada"}}
	obs, _ := b.ObservePath(vm, "Person.Name")

	var got []Change
	sub, err := obs.Subscribe(func(ch Change) { got = append(got, ch) })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Dispose()

	vm.SetPerson(nil)
	if len(got) != 2 {
		t.Fatalf("emissions = %d; want a no-value tick on nil intermediate", len(got))
	}
	if got[1].HasValue {
		t.Errorf("change after nil intermediate = %+v; want HasValue false", got[1])
	}

	// Chain resumes once the hole is filled.
	vm.SetPerson(&testPerson{name: "grace"})
	if len(got) != 3 || !got[2].HasValue || got[2].Value != "grace" {
		t.Fatalf("got = %+v; want value grace after refill", got)
	}
}

func TestSubscribeDispose(t *testing.T) {
	b := New()
	p := &testPerson{name: "ada"}
	obs, _ := b.ObservePath(p, "Name")

	emissions := 0
	sub, err := obs.Subscribe(func(Change) { emissions++ })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	sub.Dispose()
	p.SetName("grace")
	if emissions != 1 {
		t.Errorf("emissions = %d; want only the initial one after Dispose", emissions)
	}

	// Idempotent.
	sub.Dispose()
}

func TestSubscribeMissingMember(t *testing.T) {
	t.Run("missing at subscribe time is a hard error", func(t *testing.T) {
		b := New()
		obs, err := b.ObservePath(&testPerson{}, "Bogus")
		if err != nil {
			t.Fatalf("ObservePath: %v", err)
		}
		sub, err := obs.Subscribe(func(Change) {})
		if !stderrors.Is(err, errors.ErrMissingAccessor) {
			t.Fatalf("want ErrMissingAccessor, got %v", err)
		}
		if sub != nil {
			t.Error("failed Subscribe returned a non-nil handle")
		}
	})

	t.Run("missing on a runtime type terminates the subscription", func(t *testing.T) {
		b := New()
		vm := &testViewModel{item: &testPerson{name: "ada"}}
		obs, _ := b.ObservePath(vm, "Item.Name")

		var observeErr error
		emissions := 0
		_, err := obs.Subscribe(
			func(Change) { emissions++ },
			OnObserveError(func(err error) { observeErr = err }),
		)
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}

		// The replacement object has no Name member; the subscription fails
		// loud through the local handler and goes dead.
		vm.SetItem(&plainBox{})
		if !stderrors.Is(observeErr, errors.ErrMissingAccessor) {
			t.Fatalf("observe error = %v; want ErrMissingAccessor", observeErr)
		}
		vm.SetItem(&testPerson{name: "grace"})
		if emissions != 1 {
			t.Errorf("emissions = %d; want no emissions after termination", emissions)
		}
	})
}

func TestSubscribeNonObservableRoot(t *testing.T) {
	b := New()
	box := &plainBox{Label: "static"}
	obs, err := b.ObservePath(box, "Label")
	if err != nil {
		t.Fatalf("ObservePath: %v", err)
	}

	var got []Change
	sub, err := obs.Subscribe(func(ch Change) { got = append(got, ch) })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Dispose()

	if len(got) != 1 || got[0].Value != "static" {
		t.Fatalf("got = %+v; want one read of the current value", got)
	}

	// Without change notification the observation cannot react.
	box.Label = "mutated"
	if len(got) != 1 {
		t.Errorf("emissions = %d; want no reaction to silent mutation", len(got))
	}
}

func TestSubscribeIndexerChain(t *testing.T) {
	type roster struct {
		Names []string
	}
	b := New()
	r := &roster{Names: []string{"ada", "grace", "hopper"}}
	obs, err := b.ObservePath(r, "Names[2]")
	if err != nil {
		t.Fatalf("ObservePath: %v", err)
	}
	var got []Change
	sub, err := obs.Subscribe(func(ch Change) { got = append(got, ch) })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Dispose()

	if len(got) != 1 || got[0].Value != "hopper" {
		t.Fatalf("got = %+v; want hopper", got)
	}
}
