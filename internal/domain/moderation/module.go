package moderation

import (
	"strings"

	"mochi_forums/internal/domain/moderation/handler"
	"mochi_forums/internal/domain/moderation/model"
	"mochi_forums/internal/domain/moderation/repository"
	"mochi_forums/internal/domain/moderation/service"
	"mochi_forums/internal/pkg/registry"

	"github.com/spf13/cobra"
)

// ModerationModule 审核模块
type ModerationModule struct{}

func init() {
	registry.Register(&ModerationModule{})
}

func (m *ModerationModule) Name() string {
	return "moderation"
}

func (m *ModerationModule) Priority() int {
	return 40
}

func (m *ModerationModule) Init(ctx *registry.ModuleContext) error {
	mRepo := repository.NewModerationRepository(ctx.Client)
	mService := service.NewModerationService(mRepo, ctx.Cache, ctx.Notify, ctx.Metrics)
	mHandler := handler.NewModerationHandler(mService, ctx)

	setupCommands(ctx.Root, mHandler)

	return nil
}

func batchCommand(use, short string, run func(*cobra.Command, []string) error) *cobra.Command {
	c := &cobra.Command{Use: use + " [forum]", Short: short, Args: cobra.MaximumNArgs(1), RunE: run}
	c.Flags().StringSlice("posts", nil, "post ids from the queue")
	c.Flags().StringSlice("comments", nil, "comment ids from the queue")
	c.Flags().Bool("all", false, "select the whole queue")
	return c
}

func setupCommands(root *cobra.Command, h *handler.ModerationHandler) {
	g := &cobra.Command{Use: "mod", Short: "Moderation tools"}

	reject := batchCommand("reject", "Reject selected queue items one by one", h.Batch(service.OpReject))
	reject.Flags().String("reason", "", "reason shown to the author")

	settings := &cobra.Command{Use: "settings [forum]", Short: "Show moderation settings", Args: cobra.MaximumNArgs(1), RunE: h.Settings}
	save := &cobra.Command{Use: "set [forum]", Short: "Change moderation settings", Args: cobra.MaximumNArgs(1), RunE: h.SaveSettings}
	save.Flags().Bool("posts", false, "hold new posts for approval")
	save.Flags().Bool("comments", false, "hold new comments for approval")
	save.Flags().Bool("new", false, "hold content from new users")
	save.Flags().Int("new-user-days", 0, "days a user counts as new")
	save.Flags().Int("post-limit", 0, "posts allowed per window")
	save.Flags().Int("comment-limit", 0, "comments allowed per window")
	save.Flags().Int("limit-window", 0, "rate limit window in seconds")
	settings.AddCommand(save)

	log := &cobra.Command{Use: "log [forum]", Short: "Show the moderation log", Args: cobra.MaximumNArgs(1), RunE: h.Log}
	log.Flags().Int("pages", 1, "pages to load, 0 loads all")

	reports := &cobra.Command{Use: "reports [forum]", Short: "List reports", Args: cobra.MaximumNArgs(1), RunE: h.Reports}
	reports.Flags().String("status", string(model.ReportPending), "pending, resolved or all")

	restrict := &cobra.Command{Use: "restrict <forum> <user> <muted|banned|shadowban>", Short: "Restrict a user", Args: cobra.ExactArgs(3), RunE: h.Restrict}
	restrict.Flags().String("reason", "", "reason")
	restrict.Flags().Duration("for", 0, "restriction length, permanent when unset")

	postAction := &cobra.Command{Use: "post <forum> <post> <remove|restore|approve|lock|unlock|pin|unpin>", Short: "Moderate a post", Args: cobra.ExactArgs(3), RunE: h.PostAction}
	postAction.Flags().String("reason", "", "removal reason")

	commentAction := &cobra.Command{Use: "comment <forum> <post> <comment> <remove|restore|approve>", Short: "Moderate a comment", Args: cobra.ExactArgs(4), RunE: h.CommentAction}
	commentAction.Flags().String("reason", "", "removal reason")

	g.AddCommand(
		&cobra.Command{Use: "queue [forum]", Short: "Show items awaiting moderation", Args: cobra.MaximumNArgs(1), RunE: h.Queue},
		batchCommand("approve", "Approve selected queue items one by one", h.Batch(service.OpApprove)),
		reject,
		batchCommand("mute", "Mute the authors of selected queue items", h.Batch(service.OpMute)),
		batchCommand("ban", "Ban the authors of selected queue items", h.Batch(service.OpBan)),
		settings,
		log,
		reports,
		&cobra.Command{Use: "resolve <forum> <report> <action>", Short: "Resolve a report", Args: cobra.ExactArgs(3), RunE: h.Resolve},
		&cobra.Command{Use: "restrictions [forum]", Short: "List restricted users", Args: cobra.MaximumNArgs(1), RunE: h.Restrictions},
		restrict,
		&cobra.Command{Use: "unrestrict <forum> <user>", Short: "Lift a restriction", Args: cobra.ExactArgs(2), RunE: h.Unrestrict},
		postAction,
		commentAction,
	)

	report := &cobra.Command{
		Use:   "report <forum> <post> [comment] <reason>",
		Short: "Report a post or comment (" + strings.Join(model.ReportReasons, ", ") + ")",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  h.Report,
	}
	report.Flags().String("details", "", "additional details")

	root.AddCommand(g, report)
}
