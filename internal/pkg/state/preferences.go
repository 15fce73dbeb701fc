package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// AllForums 上次访问为“全部论坛”视图
const AllForums = "all"

type preferencesFile struct {
	LastForum string `yaml:"last_forum,omitempty"`
}

// Preferences 持久化的本地偏好（上次访问的论坛）
type Preferences struct {
	mu      sync.Mutex
	path    string
	data    preferencesFile
	started bool // 本次会话是否已判断过跳转
	saveErr error
}

// LoadPreferences 读取偏好文件，文件不存在时返回空偏好
func LoadPreferences(path string) (*Preferences, error) {
	p := &Preferences{path: path}
	if path == "" {
		return p, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p.data); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	return p, nil
}

// LastForum 上次访问的论坛，空字符串表示全部论坛
func (p *Preferences) LastForum() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.LastForum == AllForums {
		return ""
	}
	return p.data.LastForum
}

// SetLastForum 记录上次访问的论坛，空字符串记为全部论坛
func (p *Preferences) SetLastForum(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == "" {
		id = AllForums
	}
	p.data.LastForum = id
	return p.save()
}

// ClearLastForum 清除记录
func (p *Preferences) ClearLastForum() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.LastForum = ""
	return p.save()
}

// Follow 当前论坛变化时记录为上次访问的论坛，返回取消函数。
// store 尚未选择论坛时先用已保存的记录初始化。
func (p *Preferences) Follow(s *Store) func() {
	if s.SelectedForum() == "" {
		s.SetSelectedForum(p.LastForum())
	}
	return s.Subscribe(FieldSelectedForum, func() {
		err := p.SetLastForum(s.SelectedForum())
		p.mu.Lock()
		p.saveErr = err
		p.mu.Unlock()
	})
}

// TakeSaveError 返回并清除 Follow 最近一次保存的错误
func (p *Preferences) TakeSaveError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.saveErr
	p.saveErr = nil
	return err
}

// ShouldRedirectToLastForum 每个会话只在第一次调用时返回 true
func (p *Preferences) ShouldRedirectToLastForum() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return false
	}
	p.started = true
	return true
}

func (p *Preferences) save() error {
	if p.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	raw, err := yaml.Marshal(&p.data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, raw, 0o600); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
