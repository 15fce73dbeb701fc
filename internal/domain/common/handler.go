package common

import (
	"errors"
	"fmt"
	"io"

	"mochi_forums/internal/pkg/keys"
	"mochi_forums/internal/pkg/registry"
	"mochi_forums/internal/pkg/render"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Handler 通用命令
type Handler struct {
	app *registry.ModuleContext
}

// Last 上次访问的论坛
func (h *Handler) Last(cmd *cobra.Command, _ []string) error {
	var last string
	if h.app.Prefs != nil {
		last = h.app.Prefs.LastForum()
	}
	return render.Output(cmd, map[string]string{"forum": last}, func(w io.Writer) error {
		if last == "" {
			_, err := fmt.Fprintln(w, "All forums")
			return err
		}
		_, err := fmt.Fprintln(w, last)
		return err
	})
}

// ClearLast 清除上次访问记录
func (h *Handler) ClearLast(cmd *cobra.Command, _ []string) error {
	if h.app.Prefs == nil {
		return nil
	}
	if err := h.app.Prefs.ClearLastForum(); err != nil {
		return err
	}
	h.app.Notify.Info("Last forum cleared")
	return nil
}

// ShowConfig 输出生效配置，token 打码
func (h *Handler) ShowConfig(cmd *cobra.Command, _ []string) error {
	if h.app.Config == nil {
		return errors.New("no configuration loaded")
	}
	cfg := *h.app.Config
	if cfg.API.Token != "" {
		cfg.API.Token = "********"
	}
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = "********"
	}
	return render.Output(cmd, cfg, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	})
}

// ClearCache 清空论坛查询缓存（Redis 存储时跨进程生效）
func (h *Handler) ClearCache(cmd *cobra.Command, _ []string) error {
	if err := h.app.Cache.Invalidate(cmd.Context(), keys.All()); err != nil {
		return err
	}
	h.app.Notify.Info("Cache cleared")
	return nil
}
