// Package dispatch resolves request names to handlers.
//
// The table is built once at startup and immutable afterwards. Each handler
// is a descriptor declaring its parameter names in call order, so keyword
// requests are bound by name and positional requests checked for arity
// before the function ever runs.
package dispatch

import (
	"fmt"

	"objrpc/message"
)

// Handler describes one callable entry in the table. Fn receives the
// arguments already ordered to match Params.
type Handler struct {
	Name   string
	Params []string
	Fn     func(args []any) (any, error)
}

// Table is the immutable name → handler registry.
type Table struct {
	handlers map[string]*Handler
}

// NewTable builds the registry. A duplicate name is a programming error and
// rejected up front, not at call time.
func NewTable(handlers ...*Handler) (*Table, error) {
	m := make(map[string]*Handler, len(handlers))
	for _, h := range handlers {
		if _, dup := m[h.Name]; dup {
			return nil, fmt.Errorf("dispatch: duplicate handler %q", h.Name)
		}
		m[h.Name] = h
	}
	return &Table{handlers: m}, nil
}

// Lookup resolves a call name. A missing name is a request-level error, not
// a process fault.
func (t *Table) Lookup(name string) (*Handler, error) {
	h, ok := t.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown method %q", name)
	}
	return h, nil
}

// bind orders the request arguments to match Params, validating arity for
// positional calls and exact key coverage for keyword calls.
func (h *Handler) bind(args message.Args) ([]any, error) {
	if args.Kind == message.ArgsKeyword {
		if len(args.Keyword) != len(h.Params) {
			return nil, fmt.Errorf("%s() takes %d arguments, got %d", h.Name, len(h.Params), len(args.Keyword))
		}
		ordered := make([]any, len(h.Params))
		for i, name := range h.Params {
			v, ok := args.Keyword[name]
			if !ok {
				return nil, fmt.Errorf("%s() missing argument %q", h.Name, name)
			}
			ordered[i] = v
		}
		return ordered, nil
	}
	if len(args.Positional) != len(h.Params) {
		return nil, fmt.Errorf("%s() takes %d arguments, got %d", h.Name, len(h.Params), len(args.Positional))
	}
	return args.Positional, nil
}

// Invoke binds the arguments and runs the handler. A panicking handler is
// recovered here so the connection loop never sees it.
func (h *Handler) Invoke(args message.Args) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%s() panicked: %v", h.Name, r)
		}
	}()
	ordered, err := h.bind(args)
	if err != nil {
		return nil, err
	}
	return h.Fn(ordered)
}
