package bind

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ygrebnov/bind/errors"
)

var (
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(int(0))
	anyType    = reflect.TypeOf((*any)(nil)).Elem()
)

func TestConvert(t *testing.T) {
	b := New()

	t.Run("empty interface target passes through", func(t *testing.T) {
		v, err := b.convert(42, anyType)
		if err != nil || v != 42 {
			t.Fatalf("convert = (%v, %v); want passthrough", v, err)
		}
	})

	t.Run("assignable value passes through", func(t *testing.T) {
		v, err := b.convert("hello", stringType)
		if err != nil || v != "hello" {
			t.Fatalf("convert = (%v, %v); want passthrough", v, err)
		}
	})

	t.Run("nil to pointer target", func(t *testing.T) {
		v, err := b.convert(nil, reflect.TypeOf(&testPerson{}))
		if err != nil || v != nil {
			t.Fatalf("convert = (%v, %v); want nil", v, err)
		}
	})

	t.Run("nil to value target fails", func(t *testing.T) {
		if _, err := b.convert(nil, intType); !stderrors.Is(err, errors.ErrConversion) {
			t.Fatalf("want ErrConversion, got %v", err)
		}
	})

	t.Run("builtin conversions", func(t *testing.T) {
		tests := []struct {
			name  string
			value any
			to    reflect.Type
			want  any
		}{
			{"int to string", 7, stringType, "7"},
			{"int64 to string", int64(8), stringType, "8"},
			{"float64 to string", 1.5, stringType, "1.5"},
			{"bool to string", true, stringType, "true"},
			{"string to int", "12", intType, 12},
			{"string to int64", "13", reflect.TypeOf(int64(0)), int64(13)},
			{"string to float64", "2.25", reflect.TypeOf(float64(0)), 2.25},
			{"string to bool", "false", reflect.TypeOf(false), false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v, err := b.convert(tt.value, tt.to)
				if err != nil {
					t.Fatalf("convert unexpected error: %v", err)
				}
				if v != tt.want {
					t.Errorf("convert = %v; want %v", v, tt.want)
				}
			})
		}
	})

	t.Run("malformed string to int fails", func(t *testing.T) {
		if _, err := b.convert("twelve", intType); !stderrors.Is(err, errors.ErrConversion) {
			t.Fatalf("want ErrConversion, got %v", err)
		}
	})

	t.Run("numeric widening", func(t *testing.T) {
		v, err := b.convert(int32(9), reflect.TypeOf(int64(0)))
		if err != nil || v != int64(9) {
			t.Fatalf("convert = (%v, %v); want int64 9", v, err)
		}
	})

	t.Run("no crossing registered", func(t *testing.T) {
		if _, err := b.convert(struct{}{}, intType); !stderrors.Is(err, errors.ErrConversion) {
			t.Fatalf("want ErrConversion, got %v", err)
		}
	})
}

func TestConvertPointerAllowance(t *testing.T) {
	b := New()

	t.Run("non-nil pointer uses the element converter", func(t *testing.T) {
		n := 7
		v, err := b.convert(&n, stringType)
		if err != nil || v != "7" {
			t.Fatalf("convert = (%v, %v); want 7", v, err)
		}
	})

	t.Run("nil pointer fails", func(t *testing.T) {
		var n *int
		if _, err := b.convert(n, stringType); !stderrors.Is(err, errors.ErrConversion) {
			t.Fatalf("want ErrConversion, got %v", err)
		}
	})
}

func TestWithConverter(t *testing.T) {
	t.Run("registration replaces the builtin for the same pair", func(t *testing.T) {
		b := New(WithConverter(NewConverter(func(n int) (string, error) {
			return fmt.Sprintf("n=%d", n), nil
		})))
		v, err := b.convert(5, stringType)
		if err != nil || v != "n=5" {
			t.Fatalf("convert = (%v, %v); want n=5", v, err)
		}
	})

	t.Run("converter receiving a foreign value fails", func(t *testing.T) {
		c := NewConverter(func(n int) (string, error) { return "", nil })
		if _, err := c.Convert("not an int"); !stderrors.Is(err, errors.ErrConversion) {
			t.Fatalf("want ErrConversion, got %v", err)
		}
	})
}

type sprintFallback struct{}

func (sprintFallback) ConvertTo(value any, to reflect.Type) (any, bool) {
	if to != stringType {
		return nil, false
	}
	return fmt.Sprint(value), true
}

func TestWithFallbackConverter(t *testing.T) {
	b := New(WithFallbackConverter(sprintFallback{}))

	t.Run("handles types no typed converter covers", func(t *testing.T) {
		v, err := b.convert(struct{ X int }{X: 3}, stringType)
		if err != nil || v != "{3}" {
			t.Fatalf("convert = (%v, %v); want {3}", v, err)
		}
	})

	t.Run("typed converters stay ahead of fallbacks", func(t *testing.T) {
		v, err := b.convert(7, stringType)
		if err != nil || v != "7" {
			t.Fatalf("convert = (%v, %v); want the builtin result", v, err)
		}
	})
}
