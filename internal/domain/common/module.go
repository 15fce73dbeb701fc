package common

import (
	"mochi_forums/internal/pkg/registry"

	"github.com/spf13/cobra"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	setupCommands(ctx.Root, &Handler{app: ctx})
	return nil
}

func setupCommands(root *cobra.Command, h *Handler) {
	last := &cobra.Command{Use: "last", Short: "Show the last visited forum", Args: cobra.NoArgs, RunE: h.Last}
	last.AddCommand(&cobra.Command{Use: "clear", Short: "Forget the last visited forum", Args: cobra.NoArgs, RunE: h.ClearLast})

	cfg := &cobra.Command{Use: "config", Short: "Configuration"}
	cfg.AddCommand(&cobra.Command{Use: "show", Short: "Print the effective configuration", Args: cobra.NoArgs, RunE: h.ShowConfig})

	cache := &cobra.Command{Use: "cache", Short: "Query cache"}
	cache.AddCommand(&cobra.Command{Use: "clear", Short: "Drop all cached forum queries", Args: cobra.NoArgs, RunE: h.ClearCache})

	root.AddCommand(last, cfg, cache)
}
