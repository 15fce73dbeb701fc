package middleware

import (
	"net/http"
	"time"

	"mochi_forums/pkg/metrics"
)

// MetricsTransport 记录请求次数、耗时与响应大小
func MetricsTransport(collector *metrics.MetricsCollector) Middleware {
	if collector == nil {
		return nil
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			status := 0
			size := int64(-1)
			if err == nil {
				status = resp.StatusCode
				size = resp.ContentLength
			}
			collector.RecordAPIRequest(req.Method, EndpointFrom(req), status, time.Since(start), size)
			return resp, err
		})
	}
}
