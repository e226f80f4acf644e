package bind

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/bind/errors"
)

// Converter transforms values of one static type into another for a binding
// direction.
type Converter interface {
	FromType() reflect.Type
	ToType() reflect.Type
	Convert(value any) (any, error)
}

// FallbackConverter is probed when no typed converter matches. A conversion
// counts as successful only when ok is true and the result is non-nil.
type FallbackConverter interface {
	ConvertTo(value any, to reflect.Type) (result any, ok bool)
}

// typedConverter holds a type-erased conversion function along with the
// types it applies to.
type typedConverter struct {
	from reflect.Type
	to   reflect.Type
	fn   func(value any) (any, error)
}

func (c *typedConverter) FromType() reflect.Type     { return c.from }
func (c *typedConverter) ToType() reflect.Type       { return c.to }
func (c *typedConverter) Convert(v any) (any, error) { return c.fn(v) }

// NewConverter wraps a typed conversion function into a Converter. The
// erased function fails with ErrConversion if handed a value that is not
// assignable to F.
func NewConverter[F any, T any](fn func(F) (T, error)) Converter {
	from := reflect.TypeOf((*F)(nil)).Elem()
	to := reflect.TypeOf((*T)(nil)).Elem()
	return &typedConverter{
		from: from,
		to:   to,
		fn: func(value any) (any, error) {
			fv, ok := value.(F)
			if !ok {
				return nil, errorc.With(
					errors.ErrConversion,
					errorc.String(errors.ErrorFieldFromType, fmt.Sprintf("%T", value)),
					errorc.String(errors.ErrorFieldToType, to.String()),
				)
			}
			return fn(fv)
		},
	}
}

// convKey identifies a typed converter registration.
type convKey struct {
	from reflect.Type
	to   reflect.Type
}

// convert dispatches a value toward the target type. Probe order: direct
// assignability, exact (from, to) converter, the pointer allowance (a
// converter for (T, to) also services non-nil *T values), plain numeric
// widening, then fallback converters in registration order.
func (b *Binder) convert(value any, to reflect.Type) (any, error) {
	if to == nil || (to.Kind() == reflect.Interface && to.NumMethod() == 0) {
		return value, nil
	}
	if value == nil {
		switch to.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
			reflect.Chan, reflect.Func:
			return nil, nil
		}
		return nil, errorc.With(
			errors.ErrConversion,
			errorc.String(errors.ErrorFieldFromType, "nil"),
			errorc.String(errors.ErrorFieldToType, to.String()),
		)
	}

	vt := reflect.TypeOf(value)
	if vt.AssignableTo(to) {
		return value, nil
	}

	if c, ok := b.converters[convKey{from: vt, to: to}]; ok {
		return c.Convert(value)
	}

	if vt.Kind() == reflect.Pointer {
		if c, ok := b.converters[convKey{from: vt.Elem(), to: to}]; ok {
			rv := reflect.ValueOf(value)
			if rv.IsNil() {
				return nil, errorc.With(
					errors.ErrConversion,
					errorc.String(errors.ErrorFieldFromType, vt.String()+" (nil)"),
					errorc.String(errors.ErrorFieldToType, to.String()),
				)
			}
			return c.Convert(rv.Elem().Interface())
		}
	}

	if isNumeric(vt) && isNumeric(to) {
		return reflect.ValueOf(value).Convert(to).Interface(), nil
	}

	for _, f := range b.fallbacks {
		if result, ok := f.ConvertTo(value, to); ok && result != nil {
			return result, nil
		}
	}

	return nil, errorc.With(
		errors.ErrConversion,
		errorc.String(errors.ErrorFieldFromType, vt.String()),
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

// builtinConverters returns the default scalar crossings every Binder
// starts with.
func builtinConverters() map[convKey]Converter {
	table := make(map[convKey]Converter)
	register := func(c Converter) {
		table[convKey{from: c.FromType(), to: c.ToType()}] = c
	}

	register(NewConverter(func(n int) (string, error) {
		return strconv.Itoa(n), nil
	}))
	register(NewConverter(func(n int64) (string, error) {
		return strconv.FormatInt(n, 10), nil
	}))
	register(NewConverter(func(f float64) (string, error) {
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}))
	register(NewConverter(func(v bool) (string, error) {
		return strconv.FormatBool(v), nil
	}))
	register(NewConverter(func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errorc.With(
				errors.ErrConversion,
				errorc.String(errors.ErrorFieldFromType, "string"),
				errorc.String(errors.ErrorFieldToType, "int"),
			)
		}
		return n, nil
	}))
	register(NewConverter(func(s string) (int64, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errorc.With(
				errors.ErrConversion,
				errorc.String(errors.ErrorFieldFromType, "string"),
				errorc.String(errors.ErrorFieldToType, "int64"),
			)
		}
		return n, nil
	}))
	register(NewConverter(func(s string) (float64, error) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errorc.With(
				errors.ErrConversion,
				errorc.String(errors.ErrorFieldFromType, "string"),
				errorc.String(errors.ErrorFieldToType, "float64"),
			)
		}
		return f, nil
	}))
	register(NewConverter(func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, errorc.With(
				errors.ErrConversion,
				errorc.String(errors.ErrorFieldFromType, "string"),
				errorc.String(errors.ErrorFieldToType, "bool"),
			)
		}
		return v, nil
	}))

	return table
}
