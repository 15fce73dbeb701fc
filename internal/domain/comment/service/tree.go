package service

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"mochi_forums/internal/domain/comment/model"
	"mochi_forums/internal/pkg/render"
)

var (
	ErrUnknownComment = errors.New("comment not found in this thread")
	ErrCannotEdit     = errors.New("you cannot edit this comment")
	ErrCannotReply    = errors.New("you cannot reply to this comment")
	ErrNotReplying    = errors.New("no reply in progress")
	ErrNotEditing     = errors.New("no edit in progress")
	ErrEmptyDraft     = errors.New("comment cannot be empty")
)

// Palette 按深度循环使用的颜色（ANSI）
var Palette = []string{"\033[34m", "\033[32m", "\033[33m", "\033[35m", "\033[31m", "\033[36m"}

const colourReset = "\033[0m"

// EditPolicy 判断当前用户能否编辑某作者的评论
type EditPolicy func(authorID string) bool

// DefaultEditPolicy 作者本人且仍有评论权限，或拥有审核权限
func DefaultEditPolicy(currentUser string, canComment, canModerate bool) EditPolicy {
	return func(authorID string) bool {
		if canModerate {
			return true
		}
		return currentUser != "" && authorID == currentUser && canComment
	}
}

// Line 展开后的一行
type Line struct {
	Comment   *model.Comment
	Depth     int
	Colour    int // Palette 下标：depth mod len(Palette)
	Collapsed bool
	Hidden    int // 折叠时隐藏的子孙数量
	Replying  bool
	Editing   bool
	CanEdit   bool
}

// TreeView 评论树的本地界面状态
//
// 每个节点独立折叠。回复只有一个目标和一份共享草稿：
// 在另一条评论上开始回复会丢弃未发送的草稿。
type TreeView struct {
	mu       sync.Mutex
	postID   string
	comments []model.Comment
	canEdit  EditPolicy

	collapsed  map[string]bool
	replyingTo string
	draft      string
	editing    string
	editDraft  string
}

// NewTreeView 创建评论树视图，canEdit 为空时不允许编辑
func NewTreeView(postID string, comments []model.Comment, canEdit EditPolicy) *TreeView {
	return &TreeView{
		postID:    postID,
		comments:  comments,
		canEdit:   canEdit,
		collapsed: make(map[string]bool),
	}
}

// Comments 当前评论树
func (t *TreeView) Comments() []model.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.comments
}

// Replace 重新获取后替换评论树，保留仍存在的节点的折叠状态
func (t *TreeView) Replace(comments []model.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.comments = comments
	for id := range t.collapsed {
		if _, ok := model.Find(comments, id); !ok {
			delete(t.collapsed, id)
		}
	}
	if _, ok := model.Find(comments, t.replyingTo); t.replyingTo != "" && !ok {
		t.replyingTo, t.draft = "", ""
	}
	if _, ok := model.Find(comments, t.editing); t.editing != "" && !ok {
		t.editing, t.editDraft = "", ""
	}
}

// Validate 检查每条评论的 parent 都指向树中的父节点
func (t *TreeView) Validate() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return validate(t.postID, "", t.comments)
}

func validate(postID, parent string, comments []model.Comment) error {
	for _, c := range comments {
		if postID != "" && c.Post != "" && c.Post != postID {
			return fmt.Errorf("comment %s belongs to post %s, not %s", c.ID, c.Post, postID)
		}
		if parent == "" {
			if c.Parent != "" && c.Parent != postID {
				return fmt.Errorf("top-level comment %s has parent %s", c.ID, c.Parent)
			}
		} else if c.Parent != parent {
			return fmt.Errorf("comment %s has parent %s but is nested under %s", c.ID, c.Parent, parent)
		}
		if err := validate(postID, c.ID, c.Children); err != nil {
			return err
		}
	}
	return nil
}

func (t *TreeView) find(id string) (*model.Comment, error) {
	c, ok := model.Find(t.comments, id)
	if !ok {
		return nil, ErrUnknownComment
	}
	return c, nil
}

// Toggle 切换折叠状态，返回切换后的状态
func (t *TreeView) Toggle(id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.find(id); err != nil {
		return false, err
	}
	t.collapsed[id] = !t.collapsed[id]
	return t.collapsed[id], nil
}

// Collapse 折叠
func (t *TreeView) Collapse(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.find(id); err != nil {
		return err
	}
	t.collapsed[id] = true
	return nil
}

// Expand 展开
func (t *TreeView) Expand(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.find(id); err != nil {
		return err
	}
	delete(t.collapsed, id)
	return nil
}

// IsCollapsed 是否折叠
func (t *TreeView) IsCollapsed(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collapsed[id]
}

// CanEdit 当前用户能否编辑该评论
func (t *TreeView) CanEdit(c model.Comment) bool {
	return t.canEdit != nil && t.canEdit(c.Member)
}

// Lines 按渲染顺序展开，折叠节点的子树不输出
func (t *TreeView) Lines() []Line {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lines []Line
	model.Walk(t.comments, 0, func(c *model.Comment, depth int) bool {
		line := Line{
			Comment:   c,
			Depth:     depth,
			Colour:    depth % len(Palette),
			Collapsed: t.collapsed[c.ID],
			Replying:  t.replyingTo == c.ID,
			Editing:   t.editing == c.ID,
			CanEdit:   t.canEdit != nil && t.canEdit(c.Member),
		}
		if line.Collapsed {
			line.Hidden = c.Descendants()
		}
		lines = append(lines, line)
		return !line.Collapsed
	})
	return lines
}

// BeginReply 开始回复 id；目标变化时丢弃已有草稿
func (t *TreeView) BeginReply(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.find(id)
	if err != nil {
		return err
	}
	if !c.CanComment() {
		return ErrCannotReply
	}
	if t.replyingTo != id {
		t.draft = ""
	}
	t.replyingTo = id
	return nil
}

// ReplyingTo 当前回复目标
func (t *TreeView) ReplyingTo() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.replyingTo
}

// SetDraft 更新共享草稿
func (t *TreeView) SetDraft(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.replyingTo == "" {
		return ErrNotReplying
	}
	t.draft = text
	return nil
}

// Draft 当前草稿
func (t *TreeView) Draft() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

// TakeReply 取出待发送的回复；草稿为空时保持回复状态
func (t *TreeView) TakeReply() (parent, body string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.replyingTo == "" {
		return "", "", ErrNotReplying
	}
	body = strings.TrimSpace(t.draft)
	if body == "" {
		return "", "", ErrEmptyDraft
	}
	parent = t.replyingTo
	t.replyingTo, t.draft = "", ""
	return parent, body, nil
}

// CancelReply 取消回复并丢弃草稿
func (t *TreeView) CancelReply() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replyingTo, t.draft = "", ""
}

// BeginEdit 进入原地编辑，草稿初始化为原文
func (t *TreeView) BeginEdit(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.find(id)
	if err != nil {
		return err
	}
	if t.canEdit == nil || !t.canEdit(c.Member) {
		return ErrCannotEdit
	}
	t.editing, t.editDraft = id, c.Body
	return nil
}

// Editing 正在编辑的评论
func (t *TreeView) Editing() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editing
}

// SetEditDraft 更新编辑内容
func (t *TreeView) SetEditDraft(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.editing == "" {
		return ErrNotEditing
	}
	t.editDraft = text
	return nil
}

// EndEdit 结束编辑并返回新内容
func (t *TreeView) EndEdit() (id, body string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.editing == "" {
		return "", "", ErrNotEditing
	}
	body = strings.TrimSpace(t.editDraft)
	if body == "" {
		return "", "", ErrEmptyDraft
	}
	id = t.editing
	t.editing, t.editDraft = "", ""
	return id, body, nil
}

// CancelEdit 放弃编辑
func (t *TreeView) CancelEdit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.editing, t.editDraft = "", ""
}

// Render 输出到终端，colour 为 false 时不输出颜色
func (t *TreeView) Render(w io.Writer, colour bool) error {
	lines := t.Lines()
	if len(lines) == 0 {
		render.Empty(w, "comments")
		return nil
	}

	for _, l := range lines {
		indent := strings.Repeat("  ", l.Depth)
		bar := "│"
		if colour {
			bar = Palette[l.Colour] + bar + colourReset
		}
		c := l.Comment

		marker := "-"
		if l.Collapsed {
			marker = "+"
		}
		header := fmt.Sprintf("%s%s %s [%s] %s  ▲%d ▼%d", indent, bar, marker, c.ID, c.Name, c.Up, c.Down)
		if !c.Status.Visible() {
			header += "  (" + string(c.Status) + ")"
		}
		if l.CanEdit {
			header += "  (editable)"
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}

		if l.Collapsed {
			fmt.Fprintf(w, "%s%s   %s hidden\n", indent, bar, replies(l.Hidden))
			continue
		}
		for _, text := range strings.Split(c.Body, "\n") {
			fmt.Fprintf(w, "%s%s   %s\n", indent, bar, text)
		}
		if l.Editing {
			fmt.Fprintf(w, "%s%s   [editing] %s\n", indent, bar, t.editDraftSnapshot())
		}
		if l.Replying {
			fmt.Fprintf(w, "%s%s   [reply] %s\n", indent, bar, t.Draft())
		}
	}
	return nil
}

func (t *TreeView) editDraftSnapshot() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editDraft
}

func replies(n int) string {
	if n == 1 {
		return "1 reply"
	}
	return fmt.Sprintf("%d replies", n)
}
