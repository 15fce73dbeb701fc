package middleware

import (
	"net/http"
	"time"

	"mochi_forums/pkg/logger"

	"go.uber.org/zap"
)

// LoggerTransport 记录每个 API 请求
func LoggerTransport() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			cost := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("query", req.URL.RawQuery),
				zap.String("endpoint", EndpointFrom(req)),
				zap.String("request_id", req.Header.Get(HeaderRequestID)),
				zap.String("trace_id", req.Header.Get(HeaderTraceID)),
				zap.Duration("cost", cost),
			}
			if err != nil {
				logger.Log.Warn("api request failed", append(fields, zap.Error(err))...)
				return resp, err
			}

			fields = append(fields, zap.Int("status", resp.StatusCode))
			if resp.StatusCode >= http.StatusBadRequest {
				logger.Log.Warn("api request", fields...)
			} else {
				logger.Log.Debug("api request", fields...)
			}
			return resp, nil
		})
	}
}
