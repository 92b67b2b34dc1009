package middleware

import (
	"context"
	"log"
	"time"

	"objrpc/message"
)

func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			log.Printf("method: %s, duration: %s", req.Method, time.Since(start))
			if resp.Status == message.StatusError {
				log.Printf("error: %v", resp.Payload)
			}
			return resp
		}
	}
}
