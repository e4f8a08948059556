package suite

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/nomis52/goexample/example"
)

var (
	// ErrUnsupportedSignature is returned when a method cannot back an example.
	ErrUnsupportedSignature = errors.New("unsupported method signature")
	// ErrArgumentType is returned when a producer value cannot be passed to a
	// method parameter.
	ErrArgumentType = errors.New("argument type mismatch")
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// FromStruct builds a definition whose examples are exported methods of v.
// Each entry's Method (or Name, when Method is empty) selects the method.
//
// A method may take a leading context.Context followed by exactly one
// parameter per producer in Given. It may return nothing, a value, an
// error, or a value and an error.
func FromStruct(name string, v any, examples ...example.Metadata) (*Definition, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("suite %q: %w: nil receiver", name, ErrUnsupportedSignature)
	}

	b := NewBuilder(name)
	for _, meta := range examples {
		method := meta.Method
		if method == "" {
			method = meta.Name
		}

		m := rv.MethodByName(method)
		if !m.IsValid() {
			b.errs = append(b.errs, fmt.Errorf("example %q: method %q not found on %s", meta.Name, method, rv.Type()))
			continue
		}

		fn, err := bindMethod(m, len(meta.Given))
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("example %q: method %s.%s: %w", meta.Name, rv.Type(), method, err))
			continue
		}

		b.Example(meta.Name, fn,
			Given(meta.Given...),
			Method(method),
			Description(meta.Description),
			Tags(meta.Tags...))
	}
	return b.Build()
}

// bindMethod adapts a bound method value to example.Func.
func bindMethod(m reflect.Value, producers int) (example.Func, error) {
	t := m.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic methods are not supported", ErrUnsupportedSignature)
	}

	offset := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		offset = 1
	}
	if params := t.NumIn() - offset; params != producers {
		return nil, fmt.Errorf("%w: takes %d producer values, %d declared", ErrUnsupportedSignature, params, producers)
	}

	returnsValue, returnsErr, err := classifyResults(t)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, args ...any) (any, error) {
		if len(args) != producers {
			return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrArgumentType, producers, len(args))
		}

		in := make([]reflect.Value, 0, t.NumIn())
		if offset == 1 {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, arg := range args {
			av, err := convertArg(arg, t.In(i+offset))
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			in = append(in, av)
		}

		out := m.Call(in)

		var value any
		if returnsValue {
			value = out[0].Interface()
		}
		if returnsErr {
			if errV := out[len(out)-1]; !errV.IsNil() {
				return nil, errV.Interface().(error)
			}
		}
		return value, nil
	}, nil
}

func classifyResults(t reflect.Type) (returnsValue, returnsErr bool, err error) {
	switch t.NumOut() {
	case 0:
		return false, false, nil
	case 1:
		if t.Out(0) == errorType {
			return false, true, nil
		}
		return true, false, nil
	case 2:
		if t.Out(1) != errorType {
			return false, false, fmt.Errorf("%w: second result must be error", ErrUnsupportedSignature)
		}
		return true, true, nil
	default:
		return false, false, fmt.Errorf("%w: at most two results are supported", ErrUnsupportedSignature)
	}
}

// convertArg turns a producer value into a parameter of type want. Nil
// becomes the zero value; numeric values convert between numeric kinds.
func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}

	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(want) {
		return av, nil
	}
	if isNumeric(av.Kind()) && isNumeric(want.Kind()) {
		return av.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrArgumentType, av.Type(), want)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
