package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Request 服务端收到的请求记录
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Form   url.Values          // 表单或 multipart 字段
	JSON   map[string]any      // JSON 请求体
	Files  map[string][]string // multipart 文件字段 -> 文件名
	Body   []byte
}

// Reply 预设响应
type Reply struct {
	Status int
	Body   any // 非 nil 时序列化为 JSON
}

// Data 包裹为 {data: ...} 的成功响应
func Data(v any) Reply {
	return Reply{Status: http.StatusOK, Body: gin.H{"data": v}}
}

// Raw 原样返回（不包裹 data）
func Raw(v any) Reply {
	return Reply{Status: http.StatusOK, Body: v}
}

// Fail 错误响应 {error: ...}
func Fail(status int, message string) Reply {
	return Reply{Status: status, Body: gin.H{"error": message}}
}

// Server 基于 gin 的论坛后端替身，记录所有请求
type Server struct {
	Engine *gin.Engine

	srv      *httptest.Server
	mu       sync.Mutex
	requests []Request
	queues   map[string][]Reply
}

// NewServer 启动替身服务
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		Engine: gin.New(),
		queues: make(map[string][]Reply),
	}
	s.Engine.Use(s.record)
	s.Engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found: " + c.Request.URL.Path})
	})
	s.srv = httptest.NewServer(s.Engine)
	return s
}

// URL 服务地址
func (s *Server) URL() string {
	return s.srv.URL
}

// Close 关闭服务
func (s *Server) Close() {
	s.srv.Close()
}

// Handle 注册自定义处理器
func (s *Server) Handle(method, path string, h gin.HandlerFunc) {
	s.Engine.Handle(method, path, h)
}

// On 为路径注册依次返回的响应，最后一个响应会被重复使用
func (s *Server) On(method, path string, replies ...Reply) {
	key := method + " " + path
	s.mu.Lock()
	_, registered := s.queues[key]
	s.queues[key] = append(s.queues[key], replies...)
	s.mu.Unlock()

	if registered {
		return
	}
	s.Engine.Handle(method, path, func(c *gin.Context) {
		r := s.next(key)
		if r.Body == nil {
			c.Status(r.Status)
			return
		}
		c.JSON(r.Status, r.Body)
	})
}

func (s *Server) next(key string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[key]
	if len(q) == 0 {
		return Reply{Status: http.StatusNoContent}
	}
	r := q[0]
	if len(q) > 1 {
		s.queues[key] = q[1:]
	}
	return r
}

// Requests 全部请求记录
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo 指定路径的请求记录
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Count 指定路径的请求次数
func (s *Server) Count(path string) int {
	return len(s.RequestsTo(path))
}

// Last 最后一个请求
func (s *Server) Last() (Request, bool) {
	reqs := s.Requests()
	if len(reqs) == 0 {
		return Request{}, false
	}
	return reqs[len(reqs)-1], true
}

func (s *Server) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	rec := Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	}

	mediaType, _, _ := mime.ParseMediaType(c.Request.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json":
		_ = json.Unmarshal(body, &rec.JSON)
	case mediaType == "application/x-www-form-urlencoded":
		rec.Form, _ = url.ParseQuery(string(body))
	case strings.HasPrefix(mediaType, "multipart/"):
		if err := c.Request.ParseMultipartForm(32 << 20); err == nil {
			rec.Form = url.Values(c.Request.MultipartForm.Value)
			rec.Files = make(map[string][]string)
			for field, headers := range c.Request.MultipartForm.File {
				for _, fh := range headers {
					rec.Files[field] = append(rec.Files[field], fh.Filename)
				}
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()

	c.Next()
}
