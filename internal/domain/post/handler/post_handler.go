package handler

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	comments "mochi_forums/internal/domain/comment/service"
	"mochi_forums/internal/domain/post/model"
	"mochi_forums/internal/domain/post/repository"
	"mochi_forums/internal/domain/post/service"
	vote "mochi_forums/internal/domain/vote/model"
	votes "mochi_forums/internal/domain/vote/service"
	"mochi_forums/internal/pkg/registry"
	"mochi_forums/internal/pkg/render"
	"mochi_forums/internal/pkg/uploader"
	"mochi_forums/pkg/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type PostHandler struct {
	service service.PostService
	app     *registry.ModuleContext
}

func NewPostHandler(s service.PostService, app *registry.ModuleContext) *PostHandler {
	return &PostHandler{service: s, app: app}
}

// feedForum 未指定论坛时，会话首次打开跳转到上次访问的论坛
func (h *PostHandler) feedForum(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if h.app.Config != nil && h.app.Config.API.Forum != "" {
		return h.app.Config.API.Forum
	}
	if h.app.Prefs != nil && h.app.Prefs.ShouldRedirectToLastForum() {
		return h.app.Prefs.LastForum()
	}
	return ""
}

func (h *PostHandler) visit(forum string) {
	if err := h.app.Visit(forum); err != nil {
		logger.Log.Warn("save last forum failed", zap.String("forum", forum), zap.Error(err))
	}
}

func printPosts(w io.Writer, posts []model.Post, withForum bool) error {
	if len(posts) == 0 {
		render.Empty(w, "posts")
		return nil
	}
	header := []string{"ID", "TITLE", "AUTHOR", "SCORE", "COMMENTS", "CREATED"}
	if withForum {
		header = append([]string{"FORUM"}, header...)
	}
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		title := render.Truncate(p.Title, 50)
		if p.Pinned {
			title = "📌 " + title
		}
		row := []string{p.ID, title, p.Name, strconv.Itoa(p.Counts().Score()), strconv.Itoa(int(p.Comments)), p.Created.String()}
		if withForum {
			name := p.ForumName
			if name == "" {
				name = p.Forum
			}
			row = append([]string{render.Truncate(name, 20)}, row...)
		}
		rows = append(rows, row)
	}
	return render.Table(w, header, rows)
}

// Feed 论坛帖子列表；未指定论坛时显示全部论坛的最新帖子
func (h *PostHandler) Feed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	forum := h.feedForum(args)
	h.visit(forum)

	if forum == "" {
		overview, err := h.service.Overview(ctx)
		if err != nil {
			return err
		}
		return render.Output(cmd, overview, func(w io.Writer) error {
			return printPosts(w, overview.Posts, true)
		})
	}

	sort, _ := cmd.Flags().GetString("sort")
	pages, _ := cmd.Flags().GetInt("pages")
	limit := 0
	if h.app.Config != nil {
		limit = h.app.Config.App.PageLimit
	}
	q := service.FeedQuery{Sort: sort, Limit: limit}
	if remote, ok := h.app.State.RemoteForum(forum); ok {
		q.Server = remote.Server
	}

	feed := h.service.Feed(forum, q)
	for i := 0; (pages <= 0 || i < pages) && feed.HasMore(); i++ {
		if _, err := feed.LoadMore(ctx); err != nil {
			return err
		}
	}

	posts := feed.Items()
	meta := feed.Meta()
	out := struct {
		*service.FeedMeta
		Posts   []model.Post `json:"posts"`
		HasMore bool         `json:"hasMore"`
	}{meta, posts, feed.HasMore()}

	return render.Output(cmd, out, func(w io.Writer) error {
		if meta != nil {
			fmt.Fprintf(w, "%s (%s)\n\n", meta.Forum.Name, meta.Forum.ID)
		}
		if err := printPosts(w, posts, false); err != nil {
			return err
		}
		if feed.HasMore() {
			fmt.Fprintln(w, "\nMore posts available, use --pages to load more.")
		}
		return nil
	})
}

// View 帖子详情与评论树
func (h *PostHandler) View(cmd *cobra.Command, args []string) error {
	forum, id := args[0], args[1]
	view, err := h.service.Get(cmd.Context(), forum, id)
	if err != nil {
		return err
	}
	h.app.State.SetPost(view.Post.ID, view.Post.Title)

	collapse, _ := cmd.Flags().GetStringSlice("collapse")
	colour, _ := cmd.Flags().GetBool("colour")

	return render.Output(cmd, view, func(w io.Writer) error {
		p := view.Post
		fmt.Fprintf(w, "%s\n%s · %s · ▲%d ▼%d", p.Title, p.Name, p.Created.Ago(), p.Up, p.Down)
		if p.Vote != vote.None {
			fmt.Fprintf(w, " (%s)", p.Vote)
		}
		fmt.Fprintln(w)
		if p.Locked {
			fmt.Fprintln(w, "[locked]")
		}
		fmt.Fprintf(w, "\n%s\n", p.Body)
		for _, a := range p.Attachments {
			fmt.Fprintf(w, "  📎 %s (%s, %s)\n", a.Name, a.ID, humanize.Bytes(uint64(a.Size)))
		}
		fmt.Fprintf(w, "\n%s\n", commentsHeader(len(view.Comments), int(p.Comments)))

		policy := comments.DefaultEditPolicy(h.app.CurrentUser, view.RoleCommenter, view.Forum.CanModerate)
		tv := comments.NewTreeView(p.ID, view.Comments, policy)
		for _, c := range collapse {
			if err := tv.Collapse(c); err != nil {
				return err
			}
		}
		return tv.Render(w, colour)
	})
}

func commentsHeader(roots, total int) string {
	if total < roots {
		total = roots
	}
	if total == 1 {
		return "1 comment"
	}
	return strconv.Itoa(total) + " comments"
}

// Create 发帖
func (h *PostHandler) Create(cmd *cobra.Command, args []string) error {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	forum, err := h.app.ResolveForum(arg)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	body, _ := cmd.Flags().GetString("body")
	paths, _ := cmd.Flags().GetStringSlice("attach")
	files, err := uploader.FromPaths(paths)
	if err != nil {
		return err
	}

	resp, err := h.service.Create(cmd.Context(), repository.CreateInput{Forum: forum, Title: title, Body: body, Files: files})
	if err != nil {
		return err
	}
	return render.Output(cmd, resp, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, resp.Post)
		return err
	})
}

// ParseOrder 解析附件顺序：已有附件写 ID，新文件写 +路径
func ParseOrder(entries []string) ([]uploader.Slot, error) {
	slots := make([]uploader.Slot, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch {
		case e == "":
			continue
		case strings.HasPrefix(e, "+"):
			f, err := uploader.FromPath(strings.TrimPrefix(e, "+"))
			if err != nil {
				return nil, err
			}
			slots = append(slots, uploader.Add(f))
		default:
			slots = append(slots, uploader.Keep(e))
		}
	}
	return slots, nil
}

// Edit 编辑帖子；未指定 --order 时保留现有附件并追加 --attach
func (h *PostHandler) Edit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	forum, id := args[0], args[1]

	current, err := h.service.Get(ctx, forum, id)
	if err != nil {
		return err
	}

	in := repository.EditInput{Forum: forum, Post: id, Title: current.Post.Title, Body: current.Post.Body}
	if cmd.Flags().Changed("title") {
		in.Title, _ = cmd.Flags().GetString("title")
	}
	if cmd.Flags().Changed("body") {
		in.Body, _ = cmd.Flags().GetString("body")
	}

	if cmd.Flags().Changed("order") {
		order, _ := cmd.Flags().GetStringSlice("order")
		if in.Slots, err = ParseOrder(order); err != nil {
			return err
		}
	} else {
		for _, a := range current.Post.AttachmentIDs() {
			in.Slots = append(in.Slots, uploader.Keep(a))
		}
	}

	paths, _ := cmd.Flags().GetStringSlice("attach")
	files, err := uploader.FromPaths(paths)
	if err != nil {
		return err
	}
	for _, f := range files {
		in.Slots = append(in.Slots, uploader.Add(f))
	}

	return h.service.Edit(ctx, in)
}

// Delete 删除帖子
func (h *PostHandler) Delete(cmd *cobra.Command, args []string) error {
	return h.service.Delete(cmd.Context(), args[0], args[1])
}

// Vote 对帖子投票；再次投相同的票会清除
func (h *PostHandler) Vote(cmd *cobra.Command, args []string) error {
	forum, id := args[0], args[1]
	v, err := vote.Parse(args[2])
	if err != nil {
		return err
	}

	view, err := h.service.Get(cmd.Context(), forum, id)
	if err != nil {
		return err
	}
	if !view.RoleVoter {
		return fmt.Errorf("you cannot vote on this post")
	}

	p := view.Post
	if p.Forum == "" {
		p.Forum = forum
	}
	r := h.service.Voter(p)
	optimistic := r.Apply(cmd.Context(), v)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s ▲%d ▼%d (%s)\n", p.ID, optimistic.Counts.Up, optimistic.Counts.Down, optimistic.Vote)

	r.Wait()
	// 以服务端计数为准
	if fresh, err := h.service.Refresh(cmd.Context(), forum, id); err == nil {
		r.Sync(votes.Snapshot{ID: p.ID, Counts: fresh.Post.Counts(), Vote: fresh.Post.Vote})
	} else {
		logger.Log.Warn("refresh after vote failed", zap.String("post", id), zap.Error(err))
	}
	if final := r.State(); final != optimistic {
		fmt.Fprintf(out, "%s ▲%d ▼%d (%s)\n", p.ID, final.Counts.Up, final.Counts.Down, final.Vote)
	}
	return nil
}
