// Package middleware provides the request-processing chain wrapped around
// the dispatch step.
package middleware

import (
	"context"

	"objrpc/message"
)

// HandlerFunc processes one decoded request into a response envelope. The
// dispatch step at the end of the chain has this signature, and every
// middleware wraps one.
type HandlerFunc func(ctx context.Context, req *message.Request) *message.Response

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares into one, onion style: Chain(A, B, C)(h) runs
// A.before → B.before → C.before → h → C.after → B.after → A.after.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
