package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mochi_forums/internal/pkg/config"
	"mochi_forums/internal/pkg/middleware"
	"mochi_forums/internal/pkg/routes"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"
	"mochi_forums/pkg/response"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodySize 响应体读取上限
const maxBodySize = 32 << 20

// Encoder 可编码为请求体的负载（JSON、表单、multipart）
type Encoder interface {
	Encode() (io.Reader, string, error)
}

// Client 论坛 API 请求客户端
type Client struct {
	baseURL *url.URL
	http    *http.Client
	routes  *routes.Router
}

// New 创建客户端
func New(baseURL string, httpClient *http.Client, router *routes.Router) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if router == nil {
		router = routes.New(false)
	}
	return &Client{baseURL: u, http: httpClient, routes: router}, nil
}

// NewFromConfig 按配置组装传输链：trace -> auth -> 限流 -> 日志 -> 指标
func NewFromConfig(cfg config.APIConfig, collector *metrics.MetricsCollector) (*Client, error) {
	transport := middleware.Chain(http.DefaultTransport,
		middleware.TraceTransport(),
		middleware.AuthTransport(cfg.Token),
		middleware.RateLimitTransport(rate.Limit(cfg.RateLimit), cfg.Burst),
		middleware.LoggerTransport(),
		middleware.MetricsTransport(collector),
	)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return New(cfg.BaseURL, &http.Client{Transport: transport, Timeout: timeout}, routes.New(cfg.EntityMode))
}

// Routes 路径构造器
func (c *Client) Routes() *routes.Router {
	return c.routes
}

// Call 单次请求描述
type Call struct {
	Endpoint string // 日志与指标使用的端点名
	Method   string
	Path     string
	Query    url.Values
	Body     Encoder
}

// Do 发送请求并返回成功响应体；非 2xx 转换为 *response.APIError
func (c *Client) Do(ctx context.Context, call Call) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + call.Path
	if len(call.Query) > 0 {
		u.RawQuery = call.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	if call.Body != nil {
		var err error
		body, contentType, err = call.Body.Encode()
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", call.Endpoint, err)
		}
	}

	ctx = middleware.WithEndpoint(ctx, call.Endpoint)
	req, err := http.NewRequestWithContext(ctx, call.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", call.Endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &response.APIError{Code: response.ErrNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &response.APIError{Status: resp.StatusCode, Code: response.ErrNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, response.ParseError(resp.StatusCode, data)
	}
	return data, nil
}

// decode 解析 {data: ...}；未包裹时仍按原样解析并记录警告
func decode[T any](endpoint string, data []byte) (T, error) {
	var out T
	wrapped, err := response.Decode(data, &out)
	if err != nil {
		return out, &response.APIError{Code: response.ErrDecode, Message: fmt.Sprintf("%s: %v", endpoint, err)}
	}
	if !wrapped {
		logger.Log.Warn("response shape unexpected", zap.String("endpoint", endpoint))
	}
	return out, nil
}

// Get 发送 GET 请求
func Get[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values) (T, error) {
	data, err := c.Do(ctx, Call{Endpoint: endpoint, Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](endpoint, data)
}

// Post 发送 POST 请求，body 可为 nil
func Post[T any](ctx context.Context, c *Client, endpoint, path string, body Encoder) (T, error) {
	data, err := c.Do(ctx, Call{Endpoint: endpoint, Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](endpoint, data)
}

// JSON JSON 请求体
func JSON(v interface{}) Encoder {
	return jsonBody{v: v}
}

type jsonBody struct{ v interface{} }

func (j jsonBody) Encode() (io.Reader, string, error) {
	data, err := json.Marshal(j.v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// Form application/x-www-form-urlencoded 请求体
func Form(values url.Values) Encoder {
	return formBody{values: values}
}

type formBody struct{ values url.Values }

func (f formBody) Encode() (io.Reader, string, error) {
	return strings.NewReader(f.values.Encode()), "application/x-www-form-urlencoded", nil
}

// Empty 空响应
type Empty struct{}

// UnmarshalJSON 忽略任意内容
func (*Empty) UnmarshalJSON([]byte) error { return nil }
