package model

import (
	comment "mochi_forums/internal/domain/comment/model"
	forum "mochi_forums/internal/domain/forum/model"
	vote "mochi_forums/internal/domain/vote/model"
	base "mochi_forums/pkg/model"
)

// Attachment 帖子附件
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Post 帖子
type Post struct {
	ID           string         `json:"id"`
	Forum        string         `json:"forum"`
	Member       string         `json:"member"`
	Name         string         `json:"name"`
	Title        string         `json:"title"`
	Body         string         `json:"body"`
	Comments     base.Count     `json:"comments"`
	Up           int            `json:"up"`
	Down         int            `json:"down"`
	Vote         vote.Vote      `json:"vote,omitempty"`
	Created      base.Timestamp `json:"created"`
	Updated      base.Timestamp `json:"updated"`
	CreatedLocal string         `json:"created_local"`
	Attachments  []Attachment   `json:"attachments,omitempty"`
	Status       base.Status    `json:"status,omitempty"`
	Locked       bool           `json:"locked,omitempty"`
	Pinned       bool           `json:"pinned,omitempty"`

	// ForumName 客户端补充，用于跨论坛列表展示
	ForumName string `json:"forumName,omitempty"`
}

// GetID 实现 model.Identified
func (p Post) GetID() string { return p.ID }

// Counts 票数
func (p Post) Counts() vote.Counts {
	return vote.Counts{Up: p.Up, Down: p.Down}
}

// AttachmentIDs 附件 ID（按当前顺序）
func (p Post) AttachmentIDs() []string {
	return base.IDs(p.Attachments)
}

// GetID 实现 model.Identified
func (a Attachment) GetID() string { return a.ID }

// OverviewResponse 全部论坛的概览（论坛列表 + 最新帖子）
type OverviewResponse struct {
	Forums []forum.Forum `json:"forums"`
	Posts  []Post        `json:"posts"`
}

// PageResponse 论坛帖子分页
type PageResponse struct {
	Forum       forum.Forum   `json:"forum"`
	Posts       []Post        `json:"posts"`
	Member      *forum.Member `json:"member,omitempty"`
	CanManage   bool          `json:"can_manage"`
	CanModerate bool          `json:"can_moderate"`
	HasMore     bool          `json:"hasMore"`
	NextCursor  *int64        `json:"nextCursor"`
}

// ViewResponse 帖子详情
type ViewResponse struct {
	Forum         forum.Forum       `json:"forum"`
	Post          Post              `json:"post"`
	Comments      []comment.Comment `json:"comments"`
	Member        *forum.Member     `json:"member,omitempty"`
	RoleVoter     bool              `json:"role_voter"`
	RoleCommenter bool              `json:"role_commenter"`
}

// CreateResponse 发帖
type CreateResponse struct {
	Forum string `json:"forum"`
	Post  string `json:"post"`
}
