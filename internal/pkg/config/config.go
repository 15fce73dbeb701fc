package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	API   APIConfig   `mapstructure:"api" yaml:"api"`
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`
	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`
	App   AppConfig   `mapstructure:"app" yaml:"app"`
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
}

type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Token      string        `mapstructure:"token" yaml:"token"`
	EntityMode bool          `mapstructure:"entity_mode" yaml:"entity_mode"` // 域名即论坛，路径省略论坛 ID
	Forum      string        `mapstructure:"forum" yaml:"forum"`             // entity_mode 下的论坛 ID
	Server     string        `mapstructure:"server" yaml:"server"`           // 远程论坛所在服务器
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // 每秒请求数，0 表示不限
	Burst      int           `mapstructure:"burst" yaml:"burst"`
}

type CacheConfig struct {
	Driver string        `mapstructure:"driver" yaml:"driver"` // memory | redis
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

type AppConfig struct {
	Env            string        `mapstructure:"env" yaml:"env"`
	Debug          bool          `mapstructure:"debug" yaml:"debug"`
	StateFile      string        `mapstructure:"state_file" yaml:"state_file"`
	SearchDebounce time.Duration `mapstructure:"search_debounce" yaml:"search_debounce"`
	PageLimit      int           `mapstructure:"page_limit" yaml:"page_limit"`
	UserID         string        `mapstructure:"user_id" yaml:"user_id"` // 未提供 token 声明时用于编辑权限判断
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // console | json
}

var GlobalConfig Config

// Validate 验证配置
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}

	if c.API.EntityMode && c.API.Forum == "" {
		return errors.New("api.forum is required in entity mode")
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis address is required when cache.driver is redis")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}

	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit must not be negative")
	}
	if c.App.PageLimit <= 0 || c.App.PageLimit > 100 {
		return errors.New("app.page_limit must be between 1 and 100")
	}

	return nil
}

// LoadConfig 加载配置，path 为空时按环境在默认目录中查找
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// 获取环境变量，默认为dev
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "dev"
		}

		// 根据环境选择配置文件
		configName := "config"
		if env != "dev" {
			configName = "config." + env
		}

		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mochi-forums"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// 绑定环境变量，FORUMS_API_BASE_URL -> api.base_url
	v.SetEnvPrefix("FORUMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 手动覆盖常用变量
	if token := os.Getenv("FORUMS_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	GlobalConfig = *cfg
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.token", "")
	v.SetDefault("api.entity_mode", false)
	v.SetDefault("api.forum", "")
	v.SetDefault("api.server", "")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.burst", 20)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.state_file", defaultStateFile())
	v.SetDefault("app.search_debounce", 500*time.Millisecond)
	v.SetDefault("app.page_limit", 20)
	v.SetDefault("app.user_id", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".mochi-forums-state.yaml"
	}
	return filepath.Join(dir, "mochi-forums", "state.yaml")
}
