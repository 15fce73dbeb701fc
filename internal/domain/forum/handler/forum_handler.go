package handler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mochi_forums/internal/domain/forum/model"
	"mochi_forums/internal/domain/forum/service"
	"mochi_forums/internal/pkg/registry"
	"mochi_forums/internal/pkg/render"
	"mochi_forums/internal/pkg/state"

	"github.com/spf13/cobra"
)

type ForumHandler struct {
	service service.ForumService
	app     *registry.ModuleContext
}

func NewForumHandler(s service.ForumService, app *registry.ModuleContext) *ForumHandler {
	return &ForumHandler{service: s, app: app}
}

func (h *ForumHandler) forumArg(args []string) (string, error) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	return h.app.ResolveForum(arg)
}

// List 已订阅论坛
func (h *ForumHandler) List(cmd *cobra.Command, args []string) error {
	mode := state.ViewAll
	if owned, _ := cmd.Flags().GetBool("owned"); owned {
		mode = state.ViewOwned
	}
	h.app.State.SetViewMode(mode)

	forums, err := h.service.List(cmd.Context(), mode)
	if err != nil {
		return err
	}
	return render.Output(cmd, forums, func(w io.Writer) error {
		if len(forums) == 0 {
			render.Empty(w, "forums")
			return nil
		}
		rows := make([][]string, 0, len(forums))
		for _, f := range forums {
			rows = append(rows, []string{f.ID, render.Truncate(f.Name, 40), f.Role.String(), strconv.Itoa(int(f.Members)), f.Updated.String()})
		}
		return render.Table(w, []string{"ID", "NAME", "ROLE", "MEMBERS", "UPDATED"}, rows)
	})
}

// Info 论坛信息与权限
func (h *ForumHandler) Info(cmd *cobra.Command, args []string) error {
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	info, err := h.service.Info(cmd.Context(), forum)
	if err != nil {
		return err
	}
	return render.Output(cmd, info, func(w io.Writer) error {
		if !info.Entity || info.Forum == nil {
			return printForums(w, info.Forums)
		}
		fmt.Fprintf(w, "%s (%s)\n", info.Forum.Name, info.Forum.ID)
		if info.Fingerprint != "" {
			fmt.Fprintf(w, "Fingerprint: %s\n", info.Fingerprint)
		}
		if p := info.Permissions; p != nil {
			fmt.Fprintf(w, "View: %t  Post: %t  Manage: %t  Moderate: %t\n", p.View, p.Post, p.Manage, p.Moderate)
		}
		return nil
	})
}

func printForums(w io.Writer, forums []model.Forum) error {
	rows := make([][]string, 0, len(forums))
	for _, f := range forums {
		rows = append(rows, []string{f.ID, f.Name})
	}
	return render.Table(w, []string{"ID", "NAME"}, rows)
}

// Create 创建论坛
func (h *ForumHandler) Create(cmd *cobra.Command, args []string) error {
	privacy := service.PrivacyPublic
	if private, _ := cmd.Flags().GetBool("private"); private {
		privacy = service.PrivacyPrivate
	}
	resp, err := h.service.Create(cmd.Context(), strings.Join(args, " "), privacy)
	if err != nil {
		return err
	}
	return render.Output(cmd, resp, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, resp.ID)
		return err
	})
}

// Find 浏览目录
func (h *ForumHandler) Find(cmd *cobra.Command, args []string) error {
	entries, err := h.service.Find(cmd.Context())
	if err != nil {
		return err
	}
	return render.Output(cmd, entries, func(w io.Writer) error {
		return printDirectory(w, entries, nil)
	})
}

func printDirectory(w io.Writer, entries []model.DirectoryEntry, subscribed func(i int) bool) error {
	if len(entries) == 0 {
		render.Empty(w, "forums found")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		mark := ""
		if subscribed != nil && subscribed(i) {
			mark = "subscribed"
		}
		rows = append(rows, []string{e.ID, render.Truncate(e.Name, 40), e.Fingerprint, e.Location, mark})
	}
	return render.Table(w, []string{"ID", "NAME", "FINGERPRINT", "LOCATION", ""}, rows)
}

func printSearch(w io.Writer, results []service.SearchEntry) error {
	entries := make([]model.DirectoryEntry, len(results))
	for i, r := range results {
		entries[i] = r.DirectoryEntry
	}
	return printDirectory(w, entries, func(i int) bool { return results[i].Subscribed })
}

// Search 搜索论坛；--interactive 时逐行读取输入并防抖
func (h *ForumHandler) Search(cmd *cobra.Command, args []string) error {
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return h.searchInteractive(cmd)
	}

	term := strings.Join(args, " ")
	h.app.State.SetSearchTerm(term)
	results, err := h.service.Search(cmd.Context(), term)
	if err != nil {
		return err
	}
	return render.Output(cmd, results, func(w io.Writer) error {
		return printSearch(w, results)
	})
}

func (h *ForumHandler) searchInteractive(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	deliver := func(res service.Results) {
		if res.Term == "" {
			return
		}
		fmt.Fprintf(out, "Results for %q:\n", res.Term)
		_ = printSearch(out, res.Entries)
	}

	opts := []service.DebouncerOption{service.WithSearchMetrics(h.app.Metrics)}
	if h.app.Config != nil {
		opts = append(opts, service.WithDelay(h.app.Config.App.SearchDebounce))
	}
	d := service.NewDebouncer(h.service.Search, deliver, opts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		term := scanner.Text()
		h.app.State.SetSearchTerm(strings.TrimSpace(term))
		d.Type(ctx, term)
	}
	d.Wait()
	return scanner.Err()
}

// Recommendations 推荐论坛
func (h *ForumHandler) Recommendations(cmd *cobra.Command, args []string) error {
	recs, err := h.service.Recommendations(cmd.Context())
	if err != nil {
		return err
	}
	return render.Output(cmd, recs, func(w io.Writer) error {
		if len(recs) == 0 {
			render.Empty(w, "recommendations")
			return nil
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{r.ID, r.Name, render.Truncate(r.Blurb, 60)})
		}
		return render.Table(w, []string{"ID", "NAME", "ABOUT"}, rows)
	})
}

// Subscribe 订阅
func (h *ForumHandler) Subscribe(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	return h.service.Subscribe(cmd.Context(), args[0], name)
}

// Unsubscribe 取消订阅
func (h *ForumHandler) Unsubscribe(cmd *cobra.Command, args []string) error {
	return h.service.Unsubscribe(cmd.Context(), args[0])
}

// Members 成员列表
func (h *ForumHandler) Members(cmd *cobra.Command, args []string) error {
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	resp, err := h.service.Members(cmd.Context(), forum)
	if err != nil {
		return err
	}
	return render.Output(cmd, resp, func(w io.Writer) error {
		if len(resp.Members) == 0 {
			render.Empty(w, "members")
			return nil
		}
		rows := make([][]string, 0, len(resp.Members))
		for _, m := range resp.Members {
			rows = append(rows, []string{m.ID, m.Name, m.Role.String(), m.Subscribed.String()})
		}
		return render.Table(w, []string{"ID", "NAME", "ROLE", "SUBSCRIBED"}, rows)
	})
}

// ParseRoleChanges 解析 member=role 参数
func ParseRoleChanges(pairs []string) (map[string]model.Role, error) {
	roles := make(map[string]model.Role, len(pairs))
	for _, pair := range pairs {
		member, value, ok := strings.Cut(pair, "=")
		if !ok || member == "" {
			return nil, fmt.Errorf("invalid role change %q, expected member=role", pair)
		}
		role, err := model.ParseRole(value)
		if err != nil {
			return nil, err
		}
		roles[member] = role
	}
	return roles, nil
}

// SaveRoles 保存成员角色
func (h *ForumHandler) SaveRoles(cmd *cobra.Command, args []string) error {
	roles, err := ParseRoleChanges(args[1:])
	if err != nil {
		return err
	}
	res := h.service.SaveRoles(cmd.Context(), args[0], roles)
	return res.Err
}

// Access 访问控制列表
func (h *ForumHandler) Access(cmd *cobra.Command, args []string) error {
	forum, err := h.forumArg(args)
	if err != nil {
		return err
	}
	resp, err := h.service.Access(cmd.Context(), forum)
	if err != nil {
		return err
	}
	return render.Output(cmd, resp, func(w io.Writer) error {
		rows := make([][]string, 0, len(resp.Access))
		for _, a := range resp.Access {
			level := "owner"
			if !a.Owner() {
				level = string(*a.Level)
			}
			rows = append(rows, []string{a.ID, a.Name, level})
		}
		return render.Table(w, []string{"ID", "NAME", "LEVEL"}, rows)
	})
}

// SetAccess 设置访问级别
func (h *ForumHandler) SetAccess(cmd *cobra.Command, args []string) error {
	level, err := model.ParseAccessLevel(args[2])
	if err != nil {
		return err
	}
	return h.service.SetAccess(cmd.Context(), args[0], args[1], level)
}

// RevokeAccess 撤销访问
func (h *ForumHandler) RevokeAccess(cmd *cobra.Command, args []string) error {
	return h.service.RevokeAccess(cmd.Context(), args[0], args[1])
}
