package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitTransport 客户端限流，超出速率时等待而不是失败
// r: 每秒允许的请求数 (QPS)，<= 0 表示不限
// b: 桶的大小 (Burst)
func RateLimitTransport(r rate.Limit, b int) Middleware {
	if r <= 0 {
		return nil
	}
	if b < 1 {
		b = 1
	}
	limiter := rate.NewLimiter(r, b)

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}
