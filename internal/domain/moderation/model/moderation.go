package model

import (
	"fmt"
	"strings"

	comment "mochi_forums/internal/domain/comment/model"
	forum "mochi_forums/internal/domain/forum/model"
	post "mochi_forums/internal/domain/post/model"
	base "mochi_forums/pkg/model"
)

// RestrictionType 用户限制类型
type RestrictionType string

const (
	RestrictionMuted     RestrictionType = "muted"
	RestrictionBanned    RestrictionType = "banned"
	RestrictionShadowban RestrictionType = "shadowban"
)

// ParseRestrictionType 解析限制类型，接受 mute/ban 简写
func ParseRestrictionType(s string) (RestrictionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "muted", "mute":
		return RestrictionMuted, nil
	case "banned", "ban":
		return RestrictionBanned, nil
	case "shadowban":
		return RestrictionShadowban, nil
	}
	return "", fmt.Errorf("unknown restriction type %q", s)
}

// ReportReasons 举报原因
var ReportReasons = []string{"spam", "harassment", "hate", "violence", "misinformation", "offtopic", "other"}

// ReportStatus 举报状态，只会从 pending 变为 resolved 一次
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
	ReportAll      ReportStatus = "all"
)

// Settings 论坛审核设置
type Settings struct {
	Posts        bool `json:"moderation_posts"`
	Comments     bool `json:"moderation_comments"`
	New          bool `json:"moderation_new"`
	NewUserDays  int  `json:"new_user_days"`
	PostLimit    int  `json:"post_limit"`
	CommentLimit int  `json:"comment_limit"`
	LimitWindow  int  `json:"limit_window"`
}

// Restriction 用户限制
type Restriction struct {
	Forum         string          `json:"forum"`
	User          string          `json:"user"`
	Name          string          `json:"name,omitempty"`
	Type          RestrictionType `json:"type"`
	Reason        string          `json:"reason"`
	Moderator     string          `json:"moderator"`
	ModeratorName string          `json:"moderator_name,omitempty"`
	Expires       *base.Timestamp `json:"expires"`
	Created       base.Timestamp  `json:"created"`
}

// Permanent 无过期时间
func (r Restriction) Permanent() bool {
	return r.Expires == nil || r.Expires.IsZero()
}

// Report 举报
type Report struct {
	ID             string         `json:"id"`
	Forum          string         `json:"forum"`
	Reporter       string         `json:"reporter"`
	ReporterName   string         `json:"reporter_name,omitempty"`
	Type           string         `json:"type"` // post | comment
	Target         string         `json:"target"`
	Author         string         `json:"author"`
	AuthorName     string         `json:"author_name,omitempty"`
	Reason         string         `json:"reason"`
	Details        string         `json:"details"`
	Status         ReportStatus   `json:"status"`
	Resolver       string         `json:"resolver,omitempty"`
	ResolverName   string         `json:"resolver_name,omitempty"`
	Action         string         `json:"action,omitempty"`
	Created        base.Timestamp `json:"created"`
	Resolved       base.Timestamp `json:"resolved,omitempty"`
	ContentTitle   string         `json:"content_title,omitempty"`
	ContentPreview string         `json:"content_preview,omitempty"`
}

// GetID 实现 model.Identified
func (r Report) GetID() string { return r.ID }

// LogEntry 审核日志
type LogEntry struct {
	ID            string         `json:"id"`
	Forum         string         `json:"forum"`
	Moderator     string         `json:"moderator"`
	ModeratorName string         `json:"moderator_name,omitempty"`
	Action        string         `json:"action"`
	Type          string         `json:"type"` // post | comment | user
	Target        string         `json:"target"`
	Author        string         `json:"author,omitempty"`
	AuthorName    string         `json:"author_name,omitempty"`
	Reason        string         `json:"reason"`
	Created       base.Timestamp `json:"created"`
}

// SettingsResponse 审核设置
type SettingsResponse struct {
	Forum    forum.Forum `json:"forum"`
	Settings Settings    `json:"settings"`
}

// QueueResponse 待审核队列
type QueueResponse struct {
	Forum    forum.Forum       `json:"forum"`
	Posts    []post.Post       `json:"posts"`
	Comments []comment.Comment `json:"comments"`
}

// Len 队列条目数
func (q *QueueResponse) Len() int {
	return len(q.Posts) + len(q.Comments)
}

// LogResponse 审核日志分页
type LogResponse struct {
	Forum      forum.Forum `json:"forum"`
	Entries    []LogEntry  `json:"entries"`
	HasMore    bool        `json:"hasMore"`
	NextCursor *int64      `json:"nextCursor"`
}

// ReportsResponse 举报列表
type ReportsResponse struct {
	Forum   forum.Forum `json:"forum"`
	Reports []Report    `json:"reports"`
}

// RestrictionsResponse 限制列表
type RestrictionsResponse struct {
	Forum        forum.Forum   `json:"forum"`
	Restrictions []Restriction `json:"restrictions"`
}

// ReportResponse 提交或处理举报
type ReportResponse struct {
	Report string `json:"report"`
}
