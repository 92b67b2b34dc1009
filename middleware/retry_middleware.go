package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"objrpc/message"
)

// RetryMiddleware re-runs the handler on transient failures with exponential
// backoff. Only errors that look retryable (timeouts, temporary resource
// errors) are retried; everything else returns immediately.
func RetryMiddleware(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			resp := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if resp.Status != message.StatusError {
					return resp
				}
				msg, _ := resp.Payload.(string)
				if !retryable(msg) {
					return resp
				}
				log.Printf("retry %d for %s after error: %s", i+1, req.Method, msg)
				time.Sleep(baseDelay * time.Duration(1<<i))
				resp = next(ctx, req)
			}
			return resp
		}
	}
}

func retryable(msg string) bool {
	return strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "temporarily unavailable") ||
		strings.Contains(msg, "resource busy")
}
