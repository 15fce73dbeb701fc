package registry

import (
	"errors"
	"io"
	"sort"
	"sync"

	"mochi_forums/internal/pkg/config"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/state"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/metrics"

	"github.com/spf13/cobra"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	Config  *config.Config
	Client  *request.Client
	Cache   *cache.QueryCache
	Notify  notify.Notifier
	State   *state.Store
	Prefs   *state.Preferences
	Metrics *metrics.MetricsCollector
	Out     io.Writer

	// CurrentUser 当前用户 ID（来自令牌声明或配置），用于编辑权限判断
	CurrentUser string

	// Root 根命令，模块在其下注册子命令
	Root *cobra.Command

	bind sync.Once
}

// ErrNoForum 未指定论坛
var ErrNoForum = errors.New("no forum specified: pass a forum id or set api.forum")

// ResolveForum 命令行未指定论坛时依次使用配置、当前选择的论坛和上次访问的论坛
func (c *ModuleContext) ResolveForum(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if c.Config != nil && c.Config.API.Forum != "" {
		return c.Config.API.Forum, nil
	}
	if c.State != nil && c.State.SelectedForum() != "" {
		return c.State.SelectedForum(), nil
	}
	if c.Prefs != nil && c.Prefs.LastForum() != "" {
		return c.Prefs.LastForum(), nil
	}
	return "", ErrNoForum
}

// Visit 记录当前浏览的论坛，空字符串表示全部论坛
func (c *ModuleContext) Visit(forum string) error {
	switch {
	case c.State != nil:
		c.bindPreferences()
		c.State.SetSelectedForum(forum)
		if c.Prefs != nil {
			return c.Prefs.TakeSaveError()
		}
	case c.Prefs != nil:
		return c.Prefs.SetLastForum(forum)
	}
	return nil
}

// bindPreferences 让偏好文件跟随状态中的当前论坛
func (c *ModuleContext) bindPreferences() {
	c.bind.Do(func() {
		if c.State != nil && c.Prefs != nil {
			c.Prefs.Follow(c.State)
		}
	})
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、命令注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

var (
	mu             sync.RWMutex
	moduleRegistry = make(map[string]Module)
)

// Register 注册模块
func Register(module Module) {
	mu.Lock()
	defer mu.Unlock()
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]Module, len(moduleRegistry))
	for k, v := range moduleRegistry {
		out[k] = v
	}
	return out
}

// Ordered 按优先级排序，优先级相同时按名称
func Ordered() []Module {
	mods := GetModules()
	modules := make([]Module, 0, len(mods))
	for _, m := range mods {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})
	return modules
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	ctx.bindPreferences()
	for _, module := range Ordered() {
		if err := module.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}
