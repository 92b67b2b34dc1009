package dispatch

import (
	"errors"
	"fmt"
	"os"
)

// Builtins returns the stock handler set: mult, div, and file.
func Builtins() []*Handler {
	return []*Handler{Mult(), Div(), File()}
}

// Mult multiplies two numbers. Two integer inputs produce an integer
// product; anything involving a float produces a float.
func Mult() *Handler {
	return &Handler{
		Name:   "mult",
		Params: []string{"a", "b"},
		Fn: func(args []any) (any, error) {
			if ia, ok := asInt(args[0]); ok {
				if ib, ok := asInt(args[1]); ok {
					return ia * ib, nil
				}
			}
			fa, err := asFloat(args[0], "mult", "a")
			if err != nil {
				return nil, err
			}
			fb, err := asFloat(args[1], "mult", "b")
			if err != nil {
				return nil, err
			}
			return fa * fb, nil
		},
	}
}

// Div divides a by b. Division is always floating point; b == 0 is a
// handler error, reported to the caller in the error envelope.
func Div() *Handler {
	return &Handler{
		Name:   "div",
		Params: []string{"a", "b"},
		Fn: func(args []any) (any, error) {
			fa, err := asFloat(args[0], "div", "a")
			if err != nil {
				return nil, err
			}
			fb, err := asFloat(args[1], "div", "b")
			if err != nil {
				return nil, err
			}
			if fb == 0 {
				return nil, errors.New("division by zero")
			}
			return fa / fb, nil
		},
	}
}

// File reads a local file and returns its raw contents. The path is not
// sandboxed; restrict the handler table if that matters for the deployment.
func File() *Handler {
	return &Handler{
		Name:   "file",
		Params: []string{"fname"},
		Fn: func(args []any) (any, error) {
			fname, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("file() fname must be a string, got %T", args[0])
			}
			return os.ReadFile(fname)
		},
	}
}

// asInt reports v as an int64 for every integer type the codecs produce.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// asFloat coerces v to float64, or reports which parameter had the wrong
// type.
func asFloat(v any, fn, param string) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		if i, ok := asInt(v); ok {
			return float64(i), nil
		}
		return 0, fmt.Errorf("%s() %s must be a number, got %T", fn, param, v)
	}
}
