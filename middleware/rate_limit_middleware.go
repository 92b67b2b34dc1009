package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"objrpc/message"
)

// RateLimitMiddleware rejects requests beyond a token-bucket allowance of r
// tokens per second with the given burst. Rejected requests get a normal
// error envelope; the connection stays usable.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			if !limiter.Allow() {
				return message.Error("rate limit exceeded")
			}
			return next(ctx, req)
		}
	}
}
