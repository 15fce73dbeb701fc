package state

import (
	"sort"
	"sync"
)

// Field 可订阅的状态字段
type Field string

const (
	FieldSelectedForum Field = "selected_forum"
	FieldSearchTerm    Field = "search_term"
	FieldViewMode      Field = "view_mode"
	FieldRemoteForums  Field = "remote_forums"
	FieldSubscription  Field = "subscription"
	FieldPost          Field = "post"
)

// ViewMode 论坛列表视图
type ViewMode string

const (
	ViewAll   ViewMode = "all"
	ViewOwned ViewMode = "owned"
)

// RemoteForum 搜索得到、尚未订阅的远程论坛
type RemoteForum struct {
	ID          string
	Name        string
	Fingerprint string
	Server      string
}

// Subscription 当前论坛的订阅状态
type Subscription struct {
	IsRemote       bool
	IsSubscribed   bool
	CanUnsubscribe bool
}

// Store 显式传递的界面上下文，订阅者只在所订阅字段变化时收到通知
type Store struct {
	mu sync.RWMutex

	selectedForum string
	searchTerm    string
	viewMode      ViewMode
	remote        map[string]RemoteForum
	subscription  *Subscription
	post          string
	postTitle     string

	nextID int
	subs   map[Field]map[int]func()
}

// NewStore 创建状态容器
func NewStore() *Store {
	return &Store{
		viewMode: ViewAll,
		remote:   make(map[string]RemoteForum),
		subs:     make(map[Field]map[int]func()),
	}
}

// Subscribe 订阅字段变化，返回取消函数
func (s *Store) Subscribe(field Field, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.subs[field] == nil {
		s.subs[field] = make(map[int]func())
	}
	s.subs[field][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[field], id)
	}
}

// notify 在锁外调用订阅者，按订阅顺序执行
func (s *Store) notify(fields ...Field) {
	var fns []func()
	s.mu.RLock()
	for _, f := range fields {
		ids := make([]int, 0, len(s.subs[f]))
		for id := range s.subs[f] {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			fns = append(fns, s.subs[f][id])
		}
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// SelectedForum 当前论坛，空字符串表示全部论坛
func (s *Store) SelectedForum() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedForum
}

// SetSelectedForum 设置当前论坛
func (s *Store) SetSelectedForum(id string) {
	s.mu.Lock()
	changed := s.selectedForum != id
	s.selectedForum = id
	s.mu.Unlock()
	if changed {
		s.notify(FieldSelectedForum)
	}
}

// SearchTerm 搜索词
func (s *Store) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchTerm
}

// SetSearchTerm 设置搜索词
func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	changed := s.searchTerm != term
	s.searchTerm = term
	s.mu.Unlock()
	if changed {
		s.notify(FieldSearchTerm)
	}
}

// ClearSearch 清空搜索词
func (s *Store) ClearSearch() {
	s.SetSearchTerm("")
}

// ViewMode 视图模式
func (s *Store) ViewMode() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewMode
}

// SetViewMode 设置视图模式
func (s *Store) SetViewMode(mode ViewMode) {
	s.mu.Lock()
	changed := s.viewMode != mode
	s.viewMode = mode
	s.mu.Unlock()
	if changed {
		s.notify(FieldViewMode)
	}
}

// CacheRemoteForum 缓存远程论坛
func (s *Store) CacheRemoteForum(f RemoteForum) {
	s.mu.Lock()
	old, exists := s.remote[f.ID]
	s.remote[f.ID] = f
	s.mu.Unlock()
	if !exists || old != f {
		s.notify(FieldRemoteForums)
	}
}

// RemoteForum 读取缓存的远程论坛
func (s *Store) RemoteForum(id string) (RemoteForum, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.remote[id]
	return f, ok
}

// ClearRemoteForums 清空远程论坛缓存
func (s *Store) ClearRemoteForums() {
	s.mu.Lock()
	changed := len(s.remote) > 0
	s.remote = make(map[string]RemoteForum)
	s.mu.Unlock()
	if changed {
		s.notify(FieldRemoteForums)
	}
}

// Subscription 当前订阅状态，nil 表示未知
func (s *Store) Subscription() *Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.subscription == nil {
		return nil
	}
	cp := *s.subscription
	return &cp
}

// SetSubscription 设置订阅状态
func (s *Store) SetSubscription(sub *Subscription) {
	s.mu.Lock()
	changed := !equalSubscription(s.subscription, sub)
	if sub != nil {
		cp := *sub
		s.subscription = &cp
	} else {
		s.subscription = nil
	}
	s.mu.Unlock()
	if changed {
		s.notify(FieldSubscription)
	}
}

func equalSubscription(a, b *Subscription) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Post 当前帖子
func (s *Store) Post() (id, title string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.post, s.postTitle
}

// SetPost 设置当前帖子
func (s *Store) SetPost(id, title string) {
	s.mu.Lock()
	changed := s.post != id || s.postTitle != title
	s.post, s.postTitle = id, title
	s.mu.Unlock()
	if changed {
		s.notify(FieldPost)
	}
}

// Reset 恢复初始状态，通知发生变化的字段
func (s *Store) Reset() {
	s.mu.Lock()
	var changed []Field
	if s.selectedForum != "" {
		changed = append(changed, FieldSelectedForum)
	}
	if s.searchTerm != "" {
		changed = append(changed, FieldSearchTerm)
	}
	if s.viewMode != ViewAll {
		changed = append(changed, FieldViewMode)
	}
	if len(s.remote) > 0 {
		changed = append(changed, FieldRemoteForums)
	}
	if s.subscription != nil {
		changed = append(changed, FieldSubscription)
	}
	if s.post != "" || s.postTitle != "" {
		changed = append(changed, FieldPost)
	}
	s.selectedForum, s.searchTerm, s.viewMode = "", "", ViewAll
	s.remote = make(map[string]RemoteForum)
	s.subscription = nil
	s.post, s.postTitle = "", ""
	s.mu.Unlock()

	s.notify(changed...)
}
