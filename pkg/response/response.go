package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Envelope 统一响应结构 {data: ...}
type Envelope[T any] struct {
	Data T `json:"data"`
}

// APIError 接口错误
type APIError struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// ErrUnexpectedShape 响应缺少 data 字段
var ErrUnexpectedShape = errors.New("response shape unexpected")

// Decode 解析响应体；缺少 data 字段时按原样解析并返回 ErrUnexpectedShape 作为提示
func Decode[T any](body []byte, dest *T) (wrapped bool, err error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return true, nil
	}

	if body[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			return false, fmt.Errorf("response decode error: %w", err)
		}
		if raw, ok := probe["data"]; ok {
			if err := json.Unmarshal(raw, dest); err != nil {
				return true, fmt.Errorf("response decode error: %w", err)
			}
			return true, nil
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("response decode error: %w", err)
	}
	return false, nil
}

// ParseError 从错误响应体构造 APIError
func ParseError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Code: CodeForStatus(status)}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
		if payload.Code != 0 {
			apiErr.Code = payload.Code
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		apiErr.Message = text
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// Status 提取错误中的 HTTP 状态码
func Status(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message 将错误转换为可读提示；错误不带信息时使用 fallback
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
