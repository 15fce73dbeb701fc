package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 客户端错误 400xx
	ErrInvalidParam    = 40001
	ErrUnauthorized    = 40101
	ErrNoPermission    = 40301
	ErrNotFound        = 40401
	ErrConflict        = 40901
	ErrTooManyRequests = 42901

	// 服务端错误 500xx
	ErrServerInternal = 50001
	ErrUnavailable    = 50301

	// 网络/解析错误 600xx
	ErrNetwork = 60001
	ErrDecode  = 60002
)

// CodeForStatus 根据 HTTP 状态码映射业务码
func CodeForStatus(status int) int {
	switch {
	case status == 400 || status == 422:
		return ErrInvalidParam
	case status == 401:
		return ErrUnauthorized
	case status == 403:
		return ErrNoPermission
	case status == 404:
		return ErrNotFound
	case status == 409:
		return ErrConflict
	case status == 429:
		return ErrTooManyRequests
	case status == 503:
		return ErrUnavailable
	case status >= 500:
		return ErrServerInternal
	case status >= 400:
		return CodeError
	}
	return CodeSuccess
}
