package accessor

import (
	"reflect"
	"sync"

	"github.com/ygrebnov/bind/expr"
)

// memberKey uniquely identifies a resolved member. It uses the concrete
// declaring type together with the step's name, kind, and argument count to
// avoid collisions between plain members and indexer overloads of the same
// name.
type memberKey struct {
	typ   reflect.Type
	name  string
	kind  expr.StepKind
	nargs int
}

// entry records a resolution outcome definitively: either a usable member or
// the resolution error. Entries are immutable once stored; member shape of a
// type does not change at runtime, so no invalidation exists.
type entry struct {
	m   *member
	err error
}

var members sync.Map // map[memberKey]*entry

// resolveCached memoizes resolve per (type, step) pair. A race to populate
// the same key costs duplicate resolution work only; both racers produce
// equivalent entries.
func resolveCached(typ reflect.Type, step expr.Step) (*member, error) {
	key := memberKey{typ: typ, name: step.Name, kind: step.Kind, nargs: len(step.Args)}
	if v, ok := members.Load(key); ok {
		e := v.(*entry)
		return e.m, e.err
	}
	m, err := resolve(typ, step)
	members.Store(key, &entry{m: m, err: err})
	return m, err
}
