package handler

import (
	"fmt"
	"io"
	"strings"
	"time"

	"mochi_forums/internal/domain/moderation/model"
	"mochi_forums/internal/domain/moderation/repository"
	"mochi_forums/internal/domain/moderation/service"
	"mochi_forums/internal/pkg/registry"
	"mochi_forums/internal/pkg/render"
	"mochi_forums/internal/pkg/worker"

	"github.com/spf13/cobra"
)

type ModerationHandler struct {
	service service.ModerationService
	app     *registry.ModuleContext
	now     func() time.Time
}

func NewModerationHandler(s service.ModerationService, app *registry.ModuleContext) *ModerationHandler {
	return &ModerationHandler{service: s, app: app, now: time.Now}
}

func (h *ModerationHandler) forumArg(args []string) (string, error) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	return h.app.ResolveForum(arg)
}

// Queue 待审核队列
func (h *ModerationHandler) Queue(cmd *cobra.Command, args []string) error {
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	queue, err := h.service.Queue(cmd.Context(), forum)
	if err != nil {
		return err
	}
	return render.Output(cmd, queue, func(w io.Writer) error {
		if queue.Len() == 0 {
			render.Empty(w, "items awaiting moderation")
			return nil
		}
		rows := make([][]string, 0, queue.Len())
		for _, p := range queue.Posts {
			rows = append(rows, []string{"post", p.ID, p.Name, render.Truncate(p.Title, 30), render.Truncate(p.Body, 40), p.Created.String()})
		}
		for _, c := range queue.Comments {
			rows = append(rows, []string{"comment", c.ID, c.Name, c.Post, render.Truncate(c.Body, 40), c.Created.String()})
		}
		return render.Table(w, []string{"TYPE", "ID", "AUTHOR", "TITLE/POST", "BODY", "CREATED"}, rows)
	})
}

// selection 从 --posts/--comments 读取选择，--all 选中整个队列
func selection(cmd *cobra.Command, queue *model.QueueResponse) service.Selection {
	if all, _ := cmd.Flags().GetBool("all"); all {
		var sel service.Selection
		for _, p := range queue.Posts {
			sel.Posts = append(sel.Posts, p.ID)
		}
		for _, c := range queue.Comments {
			sel.Comments = append(sel.Comments, c.ID)
		}
		return sel
	}
	posts, _ := cmd.Flags().GetStringSlice("posts")
	comments, _ := cmd.Flags().GetStringSlice("comments")
	return service.Selection{Posts: posts, Comments: comments}
}

// Batch 对队列执行批量操作
func (h *ModerationHandler) Batch(op service.Operation) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		forum, err := h.forumArg(args)
		if err != nil {
			return err
		}
		queue, err := h.service.Queue(ctx, forum)
		if err != nil {
			return err
		}
		sel := selection(cmd, queue)

		var res worker.Result
		switch op {
		case service.OpApprove:
			res = h.service.Approve(ctx, forum, queue, sel)
		case service.OpReject:
			reason, _ := cmd.Flags().GetString("reason")
			res = h.service.Reject(ctx, forum, queue, sel, reason)
		case service.OpMute:
			res = h.service.MuteAuthors(ctx, forum, queue, sel)
		case service.OpBan:
			res = h.service.BanAuthors(ctx, forum, queue, sel)
		default:
			return fmt.Errorf("unknown batch operation %q", op)
		}

		if err := render.Output(cmd, res, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "processed %d of %d, aborted %d\n", res.Processed, res.Total, res.Aborted)
			return err
		}); err != nil {
			return err
		}
		return res.Err
	}
}

// Settings 审核设置
func (h *ModerationHandler) Settings(cmd *cobra.Command, args []string) error {
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	resp, err := h.service.Settings(cmd.Context(), forum)
	if err != nil {
		return err
	}
	return printSettings(cmd, resp.Settings)
}

func printSettings(cmd *cobra.Command, s model.Settings) error {
	return render.Output(cmd, s, func(w io.Writer) error {
		rows := [][]string{
			{"Moderate posts", fmt.Sprint(s.Posts)},
			{"Moderate comments", fmt.Sprint(s.Comments)},
			{"Moderate new users", fmt.Sprint(s.New)},
			{"New user days", fmt.Sprint(s.NewUserDays)},
			{"Post limit", fmt.Sprint(s.PostLimit)},
			{"Comment limit", fmt.Sprint(s.CommentLimit)},
			{"Limit window", fmt.Sprint(s.LimitWindow)},
		}
		return render.Table(w, []string{"SETTING", "VALUE"}, rows)
	})
}

// SaveSettings 修改审核设置，未指定的标志保留当前值
func (h *ModerationHandler) SaveSettings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	current, err := h.service.Settings(ctx, forum)
	if err != nil {
		return err
	}

	s := current.Settings
	f := cmd.Flags()
	if f.Changed("posts") {
		s.Posts, _ = f.GetBool("posts")
	}
	if f.Changed("comments") {
		s.Comments, _ = f.GetBool("comments")
	}
	if f.Changed("new") {
		s.New, _ = f.GetBool("new")
	}
	if f.Changed("new-user-days") {
		s.NewUserDays, _ = f.GetInt("new-user-days")
	}
	if f.Changed("post-limit") {
		s.PostLimit, _ = f.GetInt("post-limit")
	}
	if f.Changed("comment-limit") {
		s.CommentLimit, _ = f.GetInt("comment-limit")
	}
	if f.Changed("limit-window") {
		s.LimitWindow, _ = f.GetInt("limit-window")
	}

	if err := h.service.SaveSettings(ctx, forum, s); err != nil {
		return err
	}
	return printSettings(cmd, s)
}

// Log 审核日志
func (h *ModerationHandler) Log(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")
	limit := 0
	if h.app.Config != nil {
		limit = h.app.Config.App.PageLimit
	}

	log := h.service.Log(forum, limit)
	for i := 0; (pages <= 0 || i < pages) && log.HasMore(); i++ {
		if _, err := log.LoadMore(ctx); err != nil {
			return err
		}
	}

	entries := log.Items()
	return render.Output(cmd, entries, func(w io.Writer) error {
		if len(entries) == 0 {
			render.Empty(w, "moderation actions")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Created.String(), nameOr(e.ModeratorName, e.Moderator), e.Action, e.Type, e.Target, render.Truncate(e.Reason, 40)})
		}
		return render.Table(w, []string{"TIME", "MODERATOR", "ACTION", "TYPE", "TARGET", "REASON"}, rows)
	})
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// Reports 举报列表
func (h *ModerationHandler) Reports(cmd *cobra.Command, args []string) error {
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	status, _ := cmd.Flags().GetString("status")
	resp, err := h.service.Reports(cmd.Context(), forum, model.ReportStatus(status))
	if err != nil {
		return err
	}
	return render.Output(cmd, resp.Reports, func(w io.Writer) error {
		if len(resp.Reports) == 0 {
			render.Empty(w, "reports")
			return nil
		}
		rows := make([][]string, 0, len(resp.Reports))
		for _, r := range resp.Reports {
			preview := r.ContentTitle
			if preview == "" {
				preview = r.ContentPreview
			}
			rows = append(rows, []string{r.ID, r.Type, r.Target, nameOr(r.AuthorName, r.Author), r.Reason, string(r.Status), render.Truncate(preview, 40)})
		}
		return render.Table(w, []string{"ID", "TYPE", "TARGET", "AUTHOR", "REASON", "STATUS", "CONTENT"}, rows)
	})
}

// Resolve 处理举报
func (h *ModerationHandler) Resolve(cmd *cobra.Command, args []string) error {
	return h.service.Resolve(cmd.Context(), args[0], args[1], args[2])
}

// Restrictions 用户限制列表
func (h *ModerationHandler) Restrictions(cmd *cobra.Command, args []string) error {
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	resp, err := h.service.Restrictions(cmd.Context(), forum)
	if err != nil {
		return err
	}
	return render.Output(cmd, resp.Restrictions, func(w io.Writer) error {
		if len(resp.Restrictions) == 0 {
			render.Empty(w, "restrictions")
			return nil
		}
		rows := make([][]string, 0, len(resp.Restrictions))
		for _, r := range resp.Restrictions {
			expires := "never"
			if !r.Permanent() {
				expires = r.Expires.String()
			}
			rows = append(rows, []string{nameOr(r.Name, r.User), string(r.Type), render.Truncate(r.Reason, 40), nameOr(r.ModeratorName, r.Moderator), expires})
		}
		return render.Table(w, []string{"USER", "TYPE", "REASON", "MODERATOR", "EXPIRES"}, rows)
	})
}

// Restrict 限制用户，--for 指定时长
func (h *ModerationHandler) Restrict(cmd *cobra.Command, args []string) error {
	kind, err := model.ParseRestrictionType(args[2])
	if err != nil {
		return err
	}
	r := repository.Restrict{User: args[1], Type: kind}
	r.Reason, _ = cmd.Flags().GetString("reason")
	if d, _ := cmd.Flags().GetDuration("for"); d > 0 {
		r.Expires = h.now().Add(d).Unix()
	}
	return h.service.Restrict(cmd.Context(), args[0], r)
}

// Unrestrict 解除限制
func (h *ModerationHandler) Unrestrict(cmd *cobra.Command, args []string) error {
	return h.service.Unrestrict(cmd.Context(), args[0], args[1])
}

// PostAction 帖子审核动作
func (h *ModerationHandler) PostAction(cmd *cobra.Command, args []string) error {
	reason, _ := cmd.Flags().GetString("reason")
	return h.service.PostAction(cmd.Context(), args[0], args[1], strings.ToLower(args[2]), reason)
}

// CommentAction 评论审核动作
func (h *ModerationHandler) CommentAction(cmd *cobra.Command, args []string) error {
	reason, _ := cmd.Flags().GetString("reason")
	return h.service.CommentAction(cmd.Context(), args[0], args[1], args[2], strings.ToLower(args[3]), reason)
}

// Report 举报帖子或评论：<forum> <post> [comment] <reason>
func (h *ModerationHandler) Report(cmd *cobra.Command, args []string) error {
	details, _ := cmd.Flags().GetString("details")
	in := repository.ReportInput{Reason: strings.ToLower(args[len(args)-1]), Details: details}

	var (
		id  string
		err error
	)
	if len(args) == 4 {
		id, err = h.service.ReportComment(cmd.Context(), args[0], args[1], args[2], in)
	} else {
		id, err = h.service.ReportPost(cmd.Context(), args[0], args[1], in)
	}
	if err != nil {
		return err
	}
	return render.Output(cmd, map[string]string{"report": id}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, id)
		return err
	})
}
