package middleware

import (
	"context"
	"time"

	"objrpc/message"
)

// TimeoutMiddleware bounds how long a handler may run. The handler itself is
// not interrupted — it runs to completion in its goroutine — but the caller
// gets the timeout envelope as soon as the deadline passes.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *message.Response, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return message.Error("request timed out")
			}
		}
	}
}
