package handler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"mochi_forums/internal/domain/comment/model"
	"mochi_forums/internal/domain/comment/service"
	vote "mochi_forums/internal/domain/vote/model"
	votes "mochi_forums/internal/domain/vote/service"
	"mochi_forums/internal/pkg/registry"
	"mochi_forums/internal/pkg/render"
	"mochi_forums/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type CommentHandler struct {
	service service.CommentService
	app     *registry.ModuleContext
}

func NewCommentHandler(s service.CommentService, app *registry.ModuleContext) *CommentHandler {
	return &CommentHandler{service: s, app: app}
}

// Add 发表评论
func (h *CommentHandler) Add(cmd *cobra.Command, args []string) error {
	parent, _ := cmd.Flags().GetString("parent")
	resp, err := h.service.Create(cmd.Context(), args[0], args[1], parent, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	return render.Output(cmd, resp, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, resp.Comment)
		return err
	})
}

// Edit 编辑评论
func (h *CommentHandler) Edit(cmd *cobra.Command, args []string) error {
	return h.service.Edit(cmd.Context(), args[0], args[1], args[2], strings.Join(args[3:], " "))
}

// Delete 删除评论
func (h *CommentHandler) Delete(cmd *cobra.Command, args []string) error {
	return h.service.Delete(cmd.Context(), args[0], args[1], args[2])
}

// Vote 对评论投票；再次投相同的票会清除
func (h *CommentHandler) Vote(cmd *cobra.Command, args []string) error {
	forum, post, id := args[0], args[1], args[2]
	v, err := vote.Parse(args[3])
	if err != nil {
		return err
	}

	thread, err := h.service.Thread(cmd.Context(), forum, post)
	if err != nil {
		return err
	}
	c, ok := model.Find(thread.Comments, id)
	if !ok {
		return service.ErrUnknownComment
	}
	if !c.CanVote() && !thread.RoleVoter {
		return fmt.Errorf("you cannot vote on this comment")
	}

	return h.applyVote(cmd, forum, *c, v)
}

func (h *CommentHandler) applyVote(cmd *cobra.Command, forum string, c model.Comment, v vote.Vote) error {
	r := h.service.Voter(forum, c)
	optimistic := r.Apply(cmd.Context(), v)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s ▲%d ▼%d (%s)\n", c.ID, optimistic.Counts.Up, optimistic.Counts.Down, optimistic.Vote)

	r.Wait()
	// 以服务端计数为准
	if thread, err := h.service.RefreshThread(cmd.Context(), forum, c.Post); err != nil {
		logger.Log.Warn("refresh after vote failed", zap.String("comment", c.ID), zap.Error(err))
	} else if fresh, ok := model.Find(thread.Comments, c.ID); ok {
		r.Sync(votes.Snapshot{ID: fresh.ID, Counts: fresh.Counts(), Vote: fresh.Vote})
	}
	if final := r.State(); final != optimistic {
		fmt.Fprintf(out, "%s ▲%d ▼%d (%s)\n", c.ID, final.Counts.Up, final.Counts.Down, final.Vote)
	}
	return nil
}

func (h *CommentHandler) treeView(thread *model.ThreadResponse, postID string) *service.TreeView {
	policy := service.DefaultEditPolicy(h.app.CurrentUser, thread.RoleCommenter, thread.Forum.CanModerate)
	return service.NewTreeView(postID, thread.Comments, policy)
}

const threadHelp = `commands:
  show                   print the thread
  toggle <id>            collapse or expand a comment
  reply <id>             start a reply (one draft shared across the thread)
  draft <text>           set the reply text
  send                   post the reply
  edit <id>              edit a comment in place
  text <text>            set the edited text
  save                   save the edit
  cancel                 cancel reply and edit
  vote <id> up|down|none vote on a comment
  quit`

// Thread 交互式浏览评论树：折叠、回复、原地编辑、投票
func (h *CommentHandler) Thread(cmd *cobra.Command, args []string) error {
	forum, post := args[0], args[1]
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	colour, _ := cmd.Flags().GetBool("colour")

	thread, err := h.service.Thread(ctx, forum, post)
	if err != nil {
		return err
	}
	tv := h.treeView(thread, post)
	if err := tv.Validate(); err != nil {
		return err
	}

	refresh := func() error {
		next, err := h.service.Thread(ctx, forum, post)
		if err != nil {
			return err
		}
		tv.Replace(next.Comments)
		return nil
	}

	if err := tv.Render(out, colour); err != nil {
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verb, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		var err error
		switch verb {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, threadHelp)
		case "show":
			err = tv.Render(out, colour)
		case "toggle":
			var collapsed bool
			if collapsed, err = tv.Toggle(rest); err == nil {
				fmt.Fprintf(out, "%s collapsed: %t\n", rest, collapsed)
			}
		case "reply":
			err = tv.BeginReply(rest)
		case "draft":
			err = tv.SetDraft(rest)
		case "send":
			var parent, body string
			if parent, body, err = tv.TakeReply(); err == nil {
				if _, err = h.service.Create(ctx, forum, post, parent, body); err == nil {
					err = refresh()
				}
			}
		case "edit":
			err = tv.BeginEdit(rest)
		case "text":
			err = tv.SetEditDraft(rest)
		case "save":
			var id, body string
			if id, body, err = tv.EndEdit(); err == nil {
				if err = h.service.Edit(ctx, forum, post, id, body); err == nil {
					err = refresh()
				}
			}
		case "cancel":
			tv.CancelReply()
			tv.CancelEdit()
		case "vote":
			id, value, _ := strings.Cut(rest, " ")
			var v vote.Vote
			if v, err = vote.Parse(value); err == nil {
				c, ok := model.Find(tv.Comments(), id)
				if !ok {
					err = service.ErrUnknownComment
				} else if err = h.applyVote(cmd, forum, *c, v); err == nil {
					err = refresh()
				}
			}
		default:
			err = fmt.Errorf("unknown command %q, try help", verb)
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
