// Package accessor resolves chain steps into read/write functions over
// reflect, memoized per concrete declaring type.
//
// A member resolves, in order, to an exported struct field, a getter/setter
// method pair (Name()/SetName(v), with GetName() accepted as an alternative
// getter spelling), or the synthetic Length member over slices, arrays,
// strings, and maps. Indexer steps resolve to an indexer method taking the
// step's arguments, or to an indexable collection member (slice, array, or
// map) that the constant argument is applied to.
package accessor

import (
	"reflect"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/constants"
	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/expr"
)

// Getter reads a member value from owner. ok reports whether the member
// currently has a value; nil pointers along the way and out-of-range indexes
// yield no value rather than an error.
type Getter func(owner any, args []any) (value any, ok bool, err error)

// Setter writes a member value on owner.
type Setter func(owner any, value any, args []any) error

// member holds the resolved shape of a (type, step) pair. Immutable once
// created.
type member struct {
	typ  reflect.Type
	step expr.Step

	fieldIndex []int
	getterIdx  int // method index on typ, -1 if none
	setterIdx  int
	length     bool

	memberType reflect.Type
}

// ResolveGetter returns the read function for step on the given concrete
// owner type.
func ResolveGetter(typ reflect.Type, step expr.Step) (Getter, error) {
	m, err := resolveCached(typ, step)
	if err != nil {
		return nil, err
	}
	return m.get, nil
}

// ResolveSetter returns the write function for step on the given concrete
// owner type.
func ResolveSetter(typ reflect.Type, step expr.Step) (Setter, error) {
	m, err := resolveCached(typ, step)
	if err != nil {
		return nil, err
	}
	if !m.settable() {
		return nil, errorc.With(
			errors.ErrMissingAccessor,
			errorc.String(errors.ErrorFieldMemberName, step.Name),
			errorc.String(errors.ErrorFieldOwnerType, typ.String()),
			errorc.String(errors.ErrorFieldPhase, "setter"),
		)
	}
	return m.set, nil
}

// MemberType returns the static type of the value produced by step on the
// given owner type.
func MemberType(typ reflect.Type, step expr.Step) (reflect.Type, error) {
	m, err := resolveCached(typ, step)
	if err != nil {
		return nil, err
	}
	return m.memberType, nil
}

// Has reports whether step resolves on the given owner type.
func Has(typ reflect.Type, step expr.Step) bool {
	_, err := resolveCached(typ, step)
	return err == nil
}

func missing(typ reflect.Type, step expr.Step) error {
	return errorc.With(
		errors.ErrMissingAccessor,
		errorc.String(errors.ErrorFieldMemberName, step.Name),
		errorc.String(errors.ErrorFieldOwnerType, typ.String()),
	)
}

// resolve computes the member shape for a (type, step) pair. Called once per
// cache key.
func resolve(typ reflect.Type, step expr.Step) (*member, error) {
	m := &member{typ: typ, step: step, getterIdx: -1, setterIdx: -1}

	base := typ
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	if step.Kind == expr.StepIndexer {
		return resolveIndexer(m, typ, base, step)
	}

	if base.Kind() == reflect.Struct {
		if f, ok := base.FieldByName(step.Name); ok && f.PkgPath == "" {
			m.fieldIndex = f.Index
			m.memberType = f.Type
		}
	}
	if m.fieldIndex == nil {
		if g, ok := methodByNames(typ, step.Name, "Get"+step.Name); ok &&
			g.Type.NumIn() == 1 && g.Type.NumOut() >= 1 {
			m.getterIdx = g.Index
			m.memberType = g.Type.Out(0)
		}
	}
	if s, ok := typ.MethodByName("Set" + step.Name); ok && s.Type.NumIn() == 2 {
		m.setterIdx = s.Index
	}

	if m.fieldIndex == nil && m.getterIdx < 0 {
		if step.Name == constants.LengthMember && hasLen(base) {
			m.length = true
			m.memberType = reflect.TypeOf(int(0))
			return m, nil
		}
		return nil, missing(typ, step)
	}
	return m, nil
}

func resolveIndexer(m *member, typ, base reflect.Type, step expr.Step) (*member, error) {
	// Indexer method taking exactly the step's arguments.
	if g, ok := methodByNames(typ, step.Name, "Get"+step.Name); ok &&
		g.Type.NumIn() == 1+len(step.Args) && g.Type.NumOut() >= 1 {
		m.getterIdx = g.Index
		m.memberType = g.Type.Out(0)
		if s, ok := typ.MethodByName("Set" + step.Name); ok && s.Type.NumIn() == 2+len(step.Args) {
			m.setterIdx = s.Index
		}
		return m, nil
	}

	// Collection member the constant index is applied to.
	if len(step.Args) != 1 {
		return nil, missing(typ, step)
	}
	var collType reflect.Type
	if base.Kind() == reflect.Struct {
		if f, ok := base.FieldByName(step.Name); ok && f.PkgPath == "" {
			m.fieldIndex = f.Index
			collType = f.Type
		}
	}
	if m.fieldIndex == nil {
		if g, ok := methodByNames(typ, step.Name, "Get"+step.Name); ok &&
			g.Type.NumIn() == 1 && g.Type.NumOut() >= 1 {
			m.getterIdx = g.Index
			collType = g.Type.Out(0)
		}
	}
	if collType == nil {
		return nil, missing(typ, step)
	}
	for collType.Kind() == reflect.Pointer {
		collType = collType.Elem()
	}
	switch collType.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		m.memberType = collType.Elem()
		return m, nil
	default:
		return nil, errorc.With(
			errors.ErrMissingAccessor,
			errorc.String(errors.ErrorFieldMemberName, step.Name),
			errorc.String(errors.ErrorFieldOwnerType, typ.String()),
			errorc.String(errors.ErrorFieldPhase, "indexer"),
		)
	}
}

func methodByNames(typ reflect.Type, names ...string) (reflect.Method, bool) {
	for _, name := range names {
		if m, ok := typ.MethodByName(name); ok {
			return m, true
		}
	}
	return reflect.Method{}, false
}

func hasLen(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.String, reflect.Map, reflect.Chan:
		return true
	default:
		return false
	}
}

func (m *member) settable() bool {
	if m.length {
		return false
	}
	return m.setterIdx >= 0 || m.fieldIndex != nil
}

// get implements Getter for the resolved member.
func (m *member) get(owner any, args []any) (any, bool, error) {
	ov := reflect.ValueOf(owner)

	if m.length {
		lv, ok := deref(ov)
		if !ok {
			return nil, false, nil
		}
		return lv.Len(), true, nil
	}

	if m.step.Kind == expr.StepIndexer {
		return m.getIndexed(ov, args)
	}

	if m.fieldIndex != nil {
		fv, ok := fieldByIndex(ov, m.fieldIndex)
		if !ok {
			return nil, false, nil
		}
		return fv.Interface(), true, nil
	}

	out := ov.Method(m.getterIdx).Call(nil)
	return out[0].Interface(), true, nil
}

func (m *member) getIndexed(ov reflect.Value, args []any) (any, bool, error) {
	// Direct indexer method.
	if m.getterIdx >= 0 && m.fieldIndex == nil {
		mv := ov.Method(m.getterIdx)
		mt := mv.Type()
		if mt.NumIn() == len(args) {
			in := make([]reflect.Value, len(args))
			for i, a := range args {
				av, err := assign(a, mt.In(i))
				if err != nil {
					return nil, false, err
				}
				in[i] = av
			}
			out := mv.Call(in)
			return out[0].Interface(), true, nil
		}
		// Zero-arg collection getter; fall through to element access.
		out := mv.Call(nil)
		return indexInto(out[0], args[0])
	}

	fv, ok := fieldByIndex(ov, m.fieldIndex)
	if !ok {
		return nil, false, nil
	}
	return indexInto(fv, args[0])
}

// indexInto applies one constant index argument to a collection value.
// Out-of-range and absent keys yield no value.
func indexInto(cv reflect.Value, arg any) (any, bool, error) {
	for cv.Kind() == reflect.Pointer {
		if cv.IsNil() {
			return nil, false, nil
		}
		cv = cv.Elem()
	}
	switch cv.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := intArg(arg)
		if err != nil {
			return nil, false, err
		}
		if i < 0 || i >= cv.Len() {
			return nil, false, nil
		}
		return cv.Index(i).Interface(), true, nil
	case reflect.Map:
		if cv.IsNil() {
			return nil, false, nil
		}
		kv, err := assign(arg, cv.Type().Key())
		if err != nil {
			return nil, false, err
		}
		mv := cv.MapIndex(kv)
		if !mv.IsValid() {
			return nil, false, nil
		}
		return mv.Interface(), true, nil
	default:
		return nil, false, errorc.With(
			errors.ErrMissingAccessor,
			errorc.String(errors.ErrorFieldOwnerType, cv.Type().String()),
			errorc.String(errors.ErrorFieldPhase, "indexer"),
		)
	}
}

// set implements Setter for the resolved member.
func (m *member) set(owner any, value any, args []any) error {
	ov := reflect.ValueOf(owner)

	if m.step.Kind == expr.StepIndexer {
		return m.setIndexed(ov, value, args)
	}

	if m.setterIdx >= 0 {
		mv := ov.Method(m.setterIdx)
		av, err := assign(value, mv.Type().In(0))
		if err != nil {
			return err
		}
		mv.Call([]reflect.Value{av})
		return nil
	}

	fv, ok := fieldByIndex(ov, m.fieldIndex)
	if !ok || !fv.CanSet() {
		return errorc.With(
			errors.ErrUnaddressable,
			errorc.String(errors.ErrorFieldMemberName, m.step.Name),
			errorc.String(errors.ErrorFieldOwnerType, m.typ.String()),
		)
	}
	av, err := assign(value, fv.Type())
	if err != nil {
		return err
	}
	fv.Set(av)
	return nil
}

func (m *member) setIndexed(ov reflect.Value, value any, args []any) error {
	if m.setterIdx >= 0 {
		mv := ov.Method(m.setterIdx)
		mt := mv.Type()
		in := make([]reflect.Value, len(args)+1)
		for i, a := range args {
			av, err := assign(a, mt.In(i))
			if err != nil {
				return err
			}
			in[i] = av
		}
		av, err := assign(value, mt.In(len(args)))
		if err != nil {
			return err
		}
		in[len(args)] = av
		mv.Call(in)
		return nil
	}

	// Element write through the collection member.
	var cv reflect.Value
	if m.fieldIndex != nil {
		fv, ok := fieldByIndex(ov, m.fieldIndex)
		if !ok {
			return errorc.With(
				errors.ErrUnaddressable,
				errorc.String(errors.ErrorFieldMemberName, m.step.Name),
				errorc.String(errors.ErrorFieldOwnerType, m.typ.String()),
			)
		}
		cv = fv
	} else {
		cv = ov.Method(m.getterIdx).Call(nil)[0]
	}
	for cv.Kind() == reflect.Pointer {
		if cv.IsNil() {
			return errors.ErrNilObject
		}
		cv = cv.Elem()
	}
	switch cv.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := intArg(args[0])
		if err != nil {
			return err
		}
		if i < 0 || i >= cv.Len() {
			return errorc.With(
				errors.ErrUnaddressable,
				errorc.String(errors.ErrorFieldMemberName, m.step.Name),
				errorc.String(errors.ErrorFieldPhase, "index out of range"),
			)
		}
		ev := cv.Index(i)
		if !ev.CanSet() {
			return errorc.With(
				errors.ErrUnaddressable,
				errorc.String(errors.ErrorFieldMemberName, m.step.Name),
				errorc.String(errors.ErrorFieldOwnerType, m.typ.String()),
			)
		}
		av, err := assign(value, ev.Type())
		if err != nil {
			return err
		}
		ev.Set(av)
		return nil
	case reflect.Map:
		kv, err := assign(args[0], cv.Type().Key())
		if err != nil {
			return err
		}
		av, err := assign(value, cv.Type().Elem())
		if err != nil {
			return err
		}
		cv.SetMapIndex(kv, av)
		return nil
	default:
		return errorc.With(
			errors.ErrMissingAccessor,
			errorc.String(errors.ErrorFieldMemberName, m.step.Name),
			errorc.String(errors.ErrorFieldOwnerType, m.typ.String()),
			errorc.String(errors.ErrorFieldPhase, "indexer"),
		)
	}
}

// deref unwraps pointers; ok is false when a nil pointer is encountered.
func deref(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

// fieldByIndex walks a field index path, unwrapping pointers and refusing to
// cross nil embedded pointers.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	var ok bool
	if v, ok = deref(v); !ok {
		return reflect.Value{}, false
	}
	for i, x := range index {
		if i > 0 {
			if v, ok = deref(v); !ok {
				return reflect.Value{}, false
			}
		}
		v = v.Field(x)
	}
	return v, true
}

// assign prepares value for assignment to type to. Numeric kinds may be
// converted; other mismatches fail with ErrConversion. reflect's
// string/numeric convertibility is deliberately not used here (it produces
// rune-string results).
func assign(value any, to reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch to.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
			reflect.Chan, reflect.Func:
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, errorc.With(
			errors.ErrConversion,
			errorc.String(errors.ErrorFieldFromType, "nil"),
			errorc.String(errors.ErrorFieldToType, to.String()),
		)
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(to) {
		return rv, nil
	}
	if isNumeric(rv.Type()) && isNumeric(to) {
		return rv.Convert(to), nil
	}
	return reflect.Value{}, errorc.With(
		errors.ErrConversion,
		errorc.String(errors.ErrorFieldFromType, rv.Type().String()),
		errorc.String(errors.ErrorFieldToType, to.String()),
	)
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func intArg(arg any) (int, error) {
	av, err := assign(arg, reflect.TypeOf(int(0)))
	if err != nil {
		return 0, err
	}
	return int(av.Int()), nil
}
