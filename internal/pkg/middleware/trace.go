package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderTraceID   = "X-Trace-ID"
	HeaderRequestID = "X-Request-ID"
)

// TraceTransport 添加请求追踪ID
func TraceTransport() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			req = req.Clone(req.Context())
			// 沿用调用方传入的 TraceID，没有则生成新的
			if req.Header.Get(HeaderTraceID) == "" {
				req.Header.Set(HeaderTraceID, uuid.New().String())
			}
			req.Header.Set(HeaderRequestID, uuid.New().String())
			return next.RoundTrip(req)
		})
	}
}
