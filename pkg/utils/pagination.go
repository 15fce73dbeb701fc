package utils

import (
	"context"
	"strconv"
	"sync"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Pagination 游标分页请求参数
type Pagination struct {
	Limit  int    `json:"limit" form:"limit"`
	Before *int64 `json:"before,omitempty" form:"before"`
}

// Normalize 规范化分页参数
func (p *Pagination) Normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

// Params 转换为查询参数
func (p Pagination) Params() map[string]string {
	p.Normalize()
	params := map[string]string{"limit": strconv.Itoa(p.Limit)}
	if p.Before != nil {
		params["before"] = strconv.FormatInt(*p.Before, 10)
	}
	return params
}

// CursorPage 游标分页响应结果
type CursorPage[T any] struct {
	Items      []T
	HasMore    bool
	NextCursor *int64
}

// PageFetcher 按游标获取一页数据，before 为 nil 表示第一页
type PageFetcher[T any] func(ctx context.Context, before *int64) (CursorPage[T], error)

// Cursor "加载更多"游标消费者
//
// 页面按到达顺序拼接，不排序也不去重。
type Cursor[T any] struct {
	mu       sync.Mutex
	fetch    PageFetcher[T]
	items    []T
	next     *int64
	hasMore  bool
	started  bool
	requests int
}

// NewCursor 创建游标消费者
func NewCursor[T any](fetch PageFetcher[T]) *Cursor[T] {
	return &Cursor[T]{fetch: fetch, hasMore: true}
}

// LoadMore 加载下一页，没有更多数据时不发请求
func (c *Cursor[T]) LoadMore(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started && !c.hasMore {
		return 0, nil
	}

	var before *int64
	if c.next != nil {
		v := *c.next
		before = &v
	}

	c.requests++
	page, err := c.fetch(ctx, before)
	if err != nil {
		return 0, err
	}

	c.started = true
	c.items = append(c.items, page.Items...)
	c.hasMore = page.HasMore && page.NextCursor != nil
	c.next = page.NextCursor
	return len(page.Items), nil
}

// LoadAll 持续加载直到没有更多数据
func (c *Cursor[T]) LoadAll(ctx context.Context) error {
	for c.HasMore() {
		if _, err := c.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Items 已加载的全部数据
func (c *Cursor[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// HasMore 是否还有下一页（尚未加载时为 true）
func (c *Cursor[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.started || c.hasMore
}

// Requests 已发出的请求数
func (c *Cursor[T]) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// Reset 清空已加载数据，下一次 LoadMore 从第一页开始
func (c *Cursor[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.next = nil
	c.hasMore = true
	c.started = false
	c.requests = 0
}
