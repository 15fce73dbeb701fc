package middleware

import (
	"context"
	"net/http"
)

// Middleware 包装 http.RoundTripper 的客户端中间件
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc 函数适配器
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain 组合中间件，第一个中间件最先执行
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			base = mws[i](base)
		}
	}
	return base
}

type endpointKey struct{}

// WithEndpoint 在上下文中标记端点名称，用于日志与指标标签
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey{}, endpoint)
}

// EndpointFrom 读取端点名称，未标记时返回请求路径
func EndpointFrom(req *http.Request) string {
	if v, ok := req.Context().Value(endpointKey{}).(string); ok && v != "" {
		return v
	}
	return req.URL.Path
}
