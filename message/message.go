// Package message defines the decoded envelopes carried inside protocol
// frames.
//
// On the wire a request is the pair (method, arguments) and a response is the
// pair (status, payload), both two-element arrays. In memory they are the
// structs below; the argument container is a tagged variant so the dispatch
// layer can apply it positionally or by keyword without runtime type
// inspection downstream.
package message

import (
	"errors"
	"fmt"
)

const (
	StatusOK    = "OK"
	StatusError = "error"
)

// Malformed-request diagnostics. The wording is part of the wire contract;
// existing clients match on it.
const (
	errWrongCount = "Wrong number of RPC objects, should be 2: name and arguments"
	errWrongArgs  = "Wrong type of arguments in RPC, should be list, tuple or dictionary"
)

// ArgsKind tags which container shape a request carried.
type ArgsKind int

const (
	ArgsPositional ArgsKind = iota
	ArgsKeyword
)

// Args is the argument container of a request: an ordered sequence applied
// positionally, or a string-keyed mapping applied by keyword.
type Args struct {
	Kind       ArgsKind
	Positional []any
	Keyword    map[string]any
}

func PositionalArgs(values ...any) Args {
	return Args{Kind: ArgsPositional, Positional: values}
}

func KeywordArgs(values map[string]any) Args {
	return Args{Kind: ArgsKeyword, Keyword: values}
}

// Request is a decoded call envelope.
type Request struct {
	Method string
	Args   Args
}

// Envelope returns the two-element wire pair for encoding.
func (r *Request) Envelope() []any {
	if r.Args.Kind == ArgsKeyword {
		return []any{r.Method, r.Args.Keyword}
	}
	args := r.Args.Positional
	if args == nil {
		args = []any{}
	}
	return []any{r.Method, args}
}

// Response is a decoded reply envelope. When Status is StatusError, Payload
// is a plain diagnostic string, never a structured value.
type Response struct {
	Status  string
	Payload any
}

func OK(payload any) *Response {
	return &Response{Status: StatusOK, Payload: payload}
}

func Error(msg string) *Response {
	return &Response{Status: StatusError, Payload: msg}
}

func Errorf(format string, args ...any) *Response {
	return Error(fmt.Sprintf(format, args...))
}

// Envelope returns the two-element wire pair for encoding.
func (r *Response) Envelope() []any {
	return []any{r.Status, r.Payload}
}

// ParseRequest validates the shape of a decoded request envelope. It accepts
// only a two-element pair whose first element is the method name and whose
// second is a sequence or a string-keyed mapping; everything else is a
// request-level error with a fixed diagnostic.
func ParseRequest(decoded any) (*Request, error) {
	pair, ok := decoded.([]any)
	if !ok || len(pair) != 2 {
		return nil, errors.New(errWrongCount)
	}
	method, ok := pair[0].(string)
	if !ok {
		return nil, fmt.Errorf("method name must be a string, got %T", pair[0])
	}
	switch args := pair[1].(type) {
	case []any:
		return &Request{Method: method, Args: PositionalArgs(args...)}, nil
	case map[string]any:
		return &Request{Method: method, Args: KeywordArgs(args)}, nil
	default:
		return nil, errors.New(errWrongArgs)
	}
}

// ParseResponse validates the shape of a decoded response envelope on the
// client side.
func ParseResponse(decoded any) (*Response, error) {
	pair, ok := decoded.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("malformed response envelope: %v", decoded)
	}
	status, ok := pair[0].(string)
	if !ok || (status != StatusOK && status != StatusError) {
		return nil, fmt.Errorf("malformed response status: %v", pair[0])
	}
	return &Response{Status: status, Payload: pair[1]}, nil
}
