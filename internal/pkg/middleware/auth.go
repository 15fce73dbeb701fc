package middleware

import (
	"net/http"

	"mochi_forums/pkg/utils"
)

// AuthTransport 为每个请求附加 Bearer 令牌
func AuthTransport(token string) Middleware {
	header := utils.BearerToken(token)
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			// 未配置令牌或调用方已显式设置时不覆盖
			if header == "" || req.Header.Get("Authorization") != "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", header)
			return next.RoundTrip(req)
		})
	}
}
