package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "mochi_forums/internal/domain/comment"
	_ "mochi_forums/internal/domain/common"
	_ "mochi_forums/internal/domain/forum"
	_ "mochi_forums/internal/domain/moderation"
	_ "mochi_forums/internal/domain/post"
	"mochi_forums/internal/pkg/config"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/registry"
	"mochi_forums/internal/pkg/render"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/state"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/database"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"
	"mochi_forums/pkg/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	// 1. 加载配置（模块初始化需要配置，先于命令解析读取 --config）
	cfg, err := config.LoadConfig(flagValue(args, "config"))
	if err != nil {
		return err
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Debug: cfg.App.Debug}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// 3. 初始化指标与请求客户端
	collector := metrics.NewMetricsCollector()
	client, err := request.NewFromConfig(cfg.API, collector)
	if err != nil {
		return err
	}

	// 4. 查询缓存
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	qc := cache.NewQueryCache(store, cache.WithTTL(cfg.Cache.TTL), cache.WithMetrics(collector))

	prefs, err := state.LoadPreferences(cfg.App.StateFile)
	if err != nil {
		// 偏好文件损坏不影响使用
		logger.Log.Warn("preferences ignored", zap.Error(err))
		prefs, _ = state.LoadPreferences("")
	}

	root := newRootCommand(collector)

	// 5. 初始化所有模块
	app := &registry.ModuleContext{
		Config:      cfg,
		Client:      client,
		Cache:       qc,
		Notify:      notify.NewWriter(os.Stderr),
		State:       state.NewStore(),
		Prefs:       prefs,
		Metrics:     collector,
		Out:         os.Stdout,
		CurrentUser: currentUser(cfg),
		Root:        root,
	}
	if err := registry.InitModules(app); err != nil {
		return fmt.Errorf("init modules: %w", err)
	}

	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(collector *metrics.MetricsCollector) *cobra.Command {
	root := &cobra.Command{
		Use:           "forums",
		Short:         "Mochi forums from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("metrics-addr")
			if addr != "" {
				serveMetrics(addr, collector)
			}
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "config file (default configs/config.yaml, or config.$APP_ENV.yaml)")
	root.PersistentFlags().Bool(render.JSONFlag, false, "print JSON instead of tables")
	root.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
	return root
}

// newStore 按配置选择缓存存储，Redis 不可用时退回内存
func newStore(ctx context.Context, cfg *config.Config) (cache.CacheService, func(), error) {
	if cfg.Cache.Driver != "redis" {
		return cache.NewMemoryCache(), func() {}, nil
	}
	rdb, err := database.InitRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Log.Warn("redis unavailable, using memory cache", zap.Error(err))
		return cache.NewMemoryCache(), func() {}, nil
	}
	return cache.NewRedisCache(rdb, "forums"), func() { _ = rdb.Close() }, nil
}

// currentUser 从令牌声明中取当前用户，解析失败时使用配置
func currentUser(cfg *config.Config) string {
	if cfg.API.Token != "" {
		claims, err := utils.ParseClaims(cfg.API.Token)
		if err == nil && claims.CurrentUser() != "" {
			return claims.CurrentUser()
		}
		if err != nil {
			logger.Log.Debug("token claims unavailable", zap.Error(err))
		}
	}
	return cfg.App.UserID
}

func serveMetrics(addr string, collector *metrics.MetricsCollector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Log.Info("metrics server started", zap.String("addr", addr))
}

// flagValue 在命令解析前读取 --name value 或 --name=value
func flagValue(args []string, name string) string {
	long := "--" + name
	for i, a := range args {
		if a == "--" {
			break
		}
		if a == long && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, long+"="); ok {
			return v
		}
	}
	return ""
}
