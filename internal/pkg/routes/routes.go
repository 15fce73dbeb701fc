package routes

import (
	"net/url"
	"strings"
)

// 静态端点，两种路由模式下相同
const (
	List            = "/forums/list"
	Create          = "/forums/create"
	Find            = "/forums/find"
	Search          = "/forums/search"
	PostCreate      = "/forums/post/create"
	Probe           = "/forums/probe"
	Recommendations = "/forums/recommendations"
	Info            = "/forums/info"
)

// EntityPrefix 域名实体模式下的路径前缀（论坛 ID 由域名隐含）
const EntityPrefix = "/-"

// Router 论坛路径构造器
//
// class 模式：/forums/{forum}/...
// entity 模式：/-/...
type Router struct {
	entity bool
}

// New 创建路径构造器
func New(entityMode bool) *Router {
	return &Router{entity: entityMode}
}

// EntityMode 是否为域名实体模式
func (r *Router) EntityMode() bool {
	return r != nil && r.entity
}

// Forum 构造论坛范围内的路径，片段会做路径转义
func (r *Router) Forum(forum string, rest ...string) string {
	var b strings.Builder
	if r.EntityMode() {
		b.WriteString(EntityPrefix)
	} else {
		b.WriteString("/forums/")
		b.WriteString(url.PathEscape(forum))
	}
	for _, part := range rest {
		if part == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(part))
	}
	if r.EntityMode() && len(rest) == 0 {
		b.WriteByte('/')
	}
	return b.String()
}

func (r *Router) View(forum string) string             { return r.Forum(forum) }
func (r *Router) Subscribe(forum string) string        { return r.Forum(forum, "subscribe") }
func (r *Router) Unsubscribe(forum string) string      { return r.Forum(forum, "unsubscribe") }
func (r *Router) Members(forum string) string          { return r.Forum(forum, "members") }
func (r *Router) MembersSave(forum string) string      { return r.Forum(forum, "members", "save") }
func (r *Router) Access(forum string) string           { return r.Forum(forum, "access") }
func (r *Router) AccessSet(forum string) string        { return r.Forum(forum, "access", "set") }
func (r *Router) AccessRevoke(forum string) string     { return r.Forum(forum, "access", "revoke") }
func (r *Router) ForumInfo(forum string) string        { return r.Forum(forum, "info") }
func (r *Router) Post(forum, post string) string       { return r.Forum(forum, post) }
func (r *Router) PostEdit(forum, post string) string   { return r.Forum(forum, post, "edit") }
func (r *Router) PostDelete(forum, post string) string { return r.Forum(forum, post, "delete") }
func (r *Router) PostVote(forum, post string) string   { return r.Forum(forum, post, "vote") }

// PostAction 帖子审核动作：remove, restore, approve, lock, unlock, pin, unpin, report
func (r *Router) PostAction(forum, post, action string) string {
	return r.Forum(forum, post, action)
}

func (r *Router) CommentCreate(forum, post string) string { return r.Forum(forum, post, "create") }

func (r *Router) CommentEdit(forum, post, comment string) string {
	return r.Forum(forum, post, comment, "edit")
}

func (r *Router) CommentDelete(forum, post, comment string) string {
	return r.Forum(forum, post, comment, "delete")
}

func (r *Router) CommentVote(forum, post, comment string) string {
	return r.Forum(forum, post, comment, "vote")
}

// CommentAction 评论审核动作：remove, restore, approve, report
func (r *Router) CommentAction(forum, post, comment, action string) string {
	return r.Forum(forum, post, comment, action)
}

// Moderation 审核相关路径，例如 Moderation(f, "queue")
func (r *Router) Moderation(forum string, rest ...string) string {
	return r.Forum(forum, append([]string{"moderation"}, rest...)...)
}
