package forum

import (
	"mochi_forums/internal/domain/forum/handler"
	"mochi_forums/internal/domain/forum/repository"
	"mochi_forums/internal/domain/forum/service"
	"mochi_forums/internal/pkg/registry"

	"github.com/spf13/cobra"
)

// ForumModule 论坛模块
type ForumModule struct{}

func init() {
	registry.Register(&ForumModule{})
}

func (m *ForumModule) Name() string {
	return "forum"
}

func (m *ForumModule) Priority() int {
	return 10
}

func (m *ForumModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	fRepo := repository.NewForumRepository(ctx.Client)
	fService := service.NewForumService(fRepo, ctx.Cache, ctx.Notify, ctx.State)
	fHandler := handler.NewForumHandler(fService, ctx)

	// 2. 命令注册
	setupCommands(ctx.Root, fHandler)

	return nil
}

func setupCommands(root *cobra.Command, h *handler.ForumHandler) {
	list := &cobra.Command{Use: "list", Short: "List subscribed forums", Args: cobra.NoArgs, RunE: h.List}
	list.Flags().Bool("owned", false, "only forums you manage")

	create := &cobra.Command{Use: "create <name>", Short: "Create a forum", Args: cobra.MinimumNArgs(1), RunE: h.Create}
	create.Flags().Bool("private", false, "hide the forum from directory search")

	search := &cobra.Command{Use: "search [term]", Short: "Search the forum directory or probe a forum URL", RunE: h.Search}
	search.Flags().BoolP("interactive", "i", false, "read queries line by line with debounce")

	subscribe := &cobra.Command{Use: "subscribe <forum>", Short: "Subscribe to a forum", Args: cobra.ExactArgs(1), RunE: h.Subscribe}
	subscribe.Flags().String("name", "", "forum name shown in the confirmation")

	access := &cobra.Command{Use: "access [forum]", Short: "Show forum access rules", Args: cobra.MaximumNArgs(1), RunE: h.Access}
	access.AddCommand(
		&cobra.Command{Use: "set <forum> <user> <level>", Short: "Grant an access level", Args: cobra.ExactArgs(3), RunE: h.SetAccess},
		&cobra.Command{Use: "revoke <forum> <user>", Short: "Revoke access", Args: cobra.ExactArgs(2), RunE: h.RevokeAccess},
	)

	root.AddCommand(
		list,
		create,
		search,
		subscribe,
		access,
		&cobra.Command{Use: "info [forum]", Short: "Show forum info and permissions", Args: cobra.MaximumNArgs(1), RunE: h.Info},
		&cobra.Command{Use: "find", Short: "Browse the forum directory", Args: cobra.NoArgs, RunE: h.Find},
		&cobra.Command{Use: "recommendations", Short: "Recommended forums", Args: cobra.NoArgs, RunE: h.Recommendations},
		&cobra.Command{Use: "unsubscribe <forum>", Short: "Unsubscribe from a forum", Args: cobra.ExactArgs(1), RunE: h.Unsubscribe},
		&cobra.Command{Use: "members [forum]", Short: "List forum members", Args: cobra.MaximumNArgs(1), RunE: h.Members},
		&cobra.Command{Use: "roles <forum> <member=role>...", Short: "Change member roles, one request per member", Args: cobra.MinimumNArgs(2), RunE: h.SaveRoles},
	)
}
