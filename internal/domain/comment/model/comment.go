package model

import (
	vote "mochi_forums/internal/domain/vote/model"
	base "mochi_forums/pkg/model"
)

// Comment 评论，Children 为服务端给出的有序子评论
type Comment struct {
	ID            string         `json:"id"`
	Forum         string         `json:"forum"`
	Post          string         `json:"post"`
	Parent        string         `json:"parent"` // 空表示顶层评论
	Member        string         `json:"member"`
	Name          string         `json:"name"`
	Body          string         `json:"body"`
	Up            int            `json:"up"`
	Down          int            `json:"down"`
	Vote          vote.Vote      `json:"vote,omitempty"`
	Created       base.Timestamp `json:"created"`
	CreatedLocal  string         `json:"created_local"`
	Children      []Comment      `json:"children"`
	RoleVoter     bool           `json:"role_voter"`
	RoleCommenter bool           `json:"role_commenter"`
	Status        base.Status    `json:"status,omitempty"`
}

// GetID 实现 model.Identified
func (c Comment) GetID() string { return c.ID }

// CanVote 当前用户可投票
func (c Comment) CanVote() bool { return c.RoleVoter }

// CanComment 当前用户可回复
func (c Comment) CanComment() bool { return c.RoleCommenter }

// Counts 票数
func (c Comment) Counts() vote.Counts {
	return vote.Counts{Up: c.Up, Down: c.Down}
}

// Descendants 子孙评论数量
func (c Comment) Descendants() int {
	n := 0
	for _, child := range c.Children {
		n += 1 + child.Descendants()
	}
	return n
}

// Walk 先序遍历，fn 返回 false 时不再进入该节点的子树
func Walk(comments []Comment, depth int, fn func(c *Comment, depth int) bool) {
	for i := range comments {
		c := &comments[i]
		if fn(c, depth) {
			Walk(c.Children, depth+1, fn)
		}
	}
}

// Find 在树中查找评论
func Find(comments []Comment, id string) (*Comment, bool) {
	var found *Comment
	Walk(comments, 0, func(c *Comment, _ int) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}

// Count 树中评论总数
func Count(comments []Comment) int {
	n := 0
	for _, c := range comments {
		n += 1 + c.Descendants()
	}
	return n
}

// ForumFlags 帖子详情中论坛的权限标记
type ForumFlags struct {
	CanModerate bool `json:"can_moderate,omitempty"`
}

// ThreadResponse 帖子详情中的评论部分
type ThreadResponse struct {
	Forum         ForumFlags `json:"forum"`
	Comments      []Comment  `json:"comments"`
	RoleVoter     bool       `json:"role_voter"`
	RoleCommenter bool       `json:"role_commenter"`
}

// CreateResponse 发表评论
type CreateResponse struct {
	Comment string `json:"comment"`
	Forum   string `json:"forum"`
	Post    string `json:"post"`
}
