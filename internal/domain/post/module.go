package post

import (
	"mochi_forums/internal/domain/post/handler"
	"mochi_forums/internal/domain/post/repository"
	"mochi_forums/internal/domain/post/service"
	"mochi_forums/internal/pkg/registry"

	"github.com/spf13/cobra"
)

// PostModule 帖子模块
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	return 20
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	pRepo := repository.NewPostRepository(ctx.Client)
	pService := service.NewPostService(pRepo, ctx.Cache, ctx.Notify, ctx.Metrics)
	pHandler := handler.NewPostHandler(pService, ctx)

	setupCommands(ctx.Root, pHandler)

	return nil
}

func setupCommands(root *cobra.Command, h *handler.PostHandler) {
	feed := &cobra.Command{Use: "feed [forum]", Short: "Show posts of a forum, or the latest posts of all forums", Args: cobra.MaximumNArgs(1), RunE: h.Feed}
	feed.Flags().String("sort", "", "sort order (new, top, hot)")
	feed.Flags().Int("pages", 1, "pages to load, 0 loads all")
	root.AddCommand(feed)

	g := &cobra.Command{Use: "post", Short: "Posts"}

	view := &cobra.Command{Use: "view <forum> <post>", Short: "Show a post and its comments", Args: cobra.ExactArgs(2), RunE: h.View}
	view.Flags().StringSlice("collapse", nil, "comment ids to collapse")
	view.Flags().Bool("colour", true, "colour nesting levels")

	create := &cobra.Command{Use: "create [forum]", Short: "Publish a post", Args: cobra.MaximumNArgs(1), RunE: h.Create}
	create.Flags().String("title", "", "post title")
	create.Flags().String("body", "", "post body")
	create.Flags().StringSlice("attach", nil, "files to attach")

	edit := &cobra.Command{Use: "edit <forum> <post>", Short: "Edit a post", Args: cobra.ExactArgs(2), RunE: h.Edit}
	edit.Flags().String("title", "", "new title")
	edit.Flags().String("body", "", "new body")
	edit.Flags().StringSlice("order", nil, "attachment order: existing ids and +path for new files")
	edit.Flags().StringSlice("attach", nil, "files to append")

	g.AddCommand(
		view,
		create,
		edit,
		&cobra.Command{Use: "delete <forum> <post>", Short: "Delete a post", Args: cobra.ExactArgs(2), RunE: h.Delete},
		&cobra.Command{Use: "vote <forum> <post> <up|down|none>", Short: "Vote on a post", Args: cobra.ExactArgs(3), RunE: h.Vote},
	)
	root.AddCommand(g)
}
