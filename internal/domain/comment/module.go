package comment

import (
	"mochi_forums/internal/domain/comment/handler"
	"mochi_forums/internal/domain/comment/repository"
	"mochi_forums/internal/domain/comment/service"
	"mochi_forums/internal/pkg/registry"

	"github.com/spf13/cobra"
)

// CommentModule 评论模块
type CommentModule struct{}

func init() {
	registry.Register(&CommentModule{})
}

func (m *CommentModule) Name() string {
	return "comment"
}

func (m *CommentModule) Priority() int {
	return 30
}

func (m *CommentModule) Init(ctx *registry.ModuleContext) error {
	cRepo := repository.NewCommentRepository(ctx.Client)
	cService := service.NewCommentService(cRepo, ctx.Cache, ctx.Notify, ctx.Metrics)
	cHandler := handler.NewCommentHandler(cService, ctx)

	setupCommands(ctx.Root, cHandler)

	return nil
}

func setupCommands(root *cobra.Command, h *handler.CommentHandler) {
	g := &cobra.Command{Use: "comment", Short: "Comments on a post"}

	add := &cobra.Command{Use: "add <forum> <post> <text>", Short: "Post a comment", Args: cobra.MinimumNArgs(3), RunE: h.Add}
	add.Flags().String("parent", "", "comment to reply to")

	thread := &cobra.Command{Use: "thread <forum> <post>", Short: "Browse a comment thread interactively", Args: cobra.ExactArgs(2), RunE: h.Thread}
	thread.Flags().Bool("colour", true, "colour nesting levels")

	g.AddCommand(
		add,
		thread,
		&cobra.Command{Use: "edit <forum> <post> <comment> <text>", Short: "Edit a comment", Args: cobra.MinimumNArgs(4), RunE: h.Edit},
		&cobra.Command{Use: "delete <forum> <post> <comment>", Short: "Delete a comment", Args: cobra.ExactArgs(3), RunE: h.Delete},
		&cobra.Command{Use: "vote <forum> <post> <comment> <up|down|none>", Short: "Vote on a comment", Args: cobra.ExactArgs(4), RunE: h.Vote},
	)
	root.AddCommand(g)
}
