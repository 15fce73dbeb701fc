package model

import (
	"encoding/json"
	"fmt"
	"strings"

	base "mochi_forums/pkg/model"
)

// Role 当前用户在论坛中的角色，按权限从低到高排序
type Role string

const (
	RoleNone          Role = ""
	RoleDisabled      Role = "disabled"
	RoleViewer        Role = "viewer"
	RoleVoter         Role = "voter"
	RoleCommenter     Role = "commenter"
	RolePoster        Role = "poster"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

// Roles 可分配给成员的角色（不含空角色）
var Roles = []Role{RoleDisabled, RoleViewer, RoleVoter, RoleCommenter, RolePoster, RoleModerator, RoleAdministrator}

var roleRank = map[Role]int{
	RoleNone:          -1,
	RoleDisabled:      0,
	RoleViewer:        1,
	RoleVoter:         2,
	RoleCommenter:     3,
	RolePoster:        4,
	RoleModerator:     5,
	RoleAdministrator: 6,
}

// ParseRole 解析角色，"none" 等同空角色
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" {
		return RoleNone, nil
	}
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Rank 排序值，未知角色视为空角色
func (r Role) Rank() int {
	if rank, ok := roleRank[r]; ok {
		return rank
	}
	return -1
}

// AtLeast 是否不低于 other
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// String 展示用
func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// UnmarshalJSON 兼容 "none" 与 null
func (r *Role) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "none" {
		*r = RoleNone
		return nil
	}
	*r = Role(*s)
	return nil
}

// AccessLevel 访问级别（高级别包含低级别）
type AccessLevel string

const (
	AccessView     AccessLevel = "view"
	AccessVote     AccessLevel = "vote"
	AccessComment  AccessLevel = "comment"
	AccessPost     AccessLevel = "post"
	AccessModerate AccessLevel = "moderate"
	AccessNone     AccessLevel = "none"
)

// AccessLevels 全部访问级别
var AccessLevels = []AccessLevel{AccessView, AccessVote, AccessComment, AccessPost, AccessModerate, AccessNone}

// ParseAccessLevel 解析访问级别
func ParseAccessLevel(s string) (AccessLevel, error) {
	l := AccessLevel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AccessLevels {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown access level %q", s)
}

// Forum 论坛
type Forum struct {
	ID          string         `json:"id"`
	Fingerprint string         `json:"fingerprint"`
	Name        string         `json:"name"`
	Role        Role           `json:"role,omitempty"`
	Members     base.Count     `json:"members"`
	Updated     base.Timestamp `json:"updated"`
	CanManage   bool           `json:"can_manage,omitempty"`
	CanPost     bool           `json:"can_post,omitempty"`
	CanModerate bool           `json:"can_moderate,omitempty"`
	Server      string         `json:"server,omitempty"` // 远程论坛所在服务器
}

// GetID 实现 model.Identified
func (f Forum) GetID() string { return f.ID }

// Owned 当前用户可管理
func (f Forum) Owned() bool {
	return f.CanManage || f.Role == RoleAdministrator
}

// Member 论坛成员
type Member struct {
	Forum      string         `json:"forum"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Role       Role           `json:"role,omitempty"`
	Subscribed base.Timestamp `json:"subscribed"`
}

// GetID 实现 model.Identified
func (m Member) GetID() string { return m.ID }

// MemberAccess 成员访问规则，Level 为空表示所有者
type MemberAccess struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Level   *AccessLevel `json:"level"`
	IsOwner bool         `json:"isOwner,omitempty"`
}

// Owner 是否为所有者
func (a MemberAccess) Owner() bool {
	return a.IsOwner || a.Level == nil
}

// DirectoryEntry 目录中的论坛
type DirectoryEntry struct {
	ID                 string         `json:"id"`
	Fingerprint        string         `json:"fingerprint"`
	FingerprintHyphens string         `json:"fingerprint_hyphens"`
	Name               string         `json:"name"`
	Class              string         `json:"class"`
	Data               string         `json:"data"`
	Location           string         `json:"location"`
	Created            base.Timestamp `json:"created"`
	Updated            base.Timestamp `json:"updated"`
}

// GetID 实现 model.Identified
func (d DirectoryEntry) GetID() string { return d.ID }

// Permissions info 接口返回的权限
type Permissions struct {
	View     bool `json:"view"`
	Post     bool `json:"post"`
	Manage   bool `json:"manage"`
	Moderate bool `json:"moderate"`
}

// Info info 接口响应：实体模式返回单个论坛及权限，类模式返回论坛列表
type Info struct {
	Entity      bool         `json:"entity"`
	Forum       *Forum       `json:"forum,omitempty"`
	Permissions *Permissions `json:"permissions,omitempty"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Forums      []Forum      `json:"forums,omitempty"`
}

// Probe 按 URL 探测到的远程论坛
type Probe struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Class       string `json:"class"`
	Server      string `json:"server"`
}

// Recommendation 推荐论坛
type Recommendation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Blurb       string `json:"blurb,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// GetID 实现 model.Identified
func (r Recommendation) GetID() string { return r.ID }

// Owner 所有者
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// --- 接口响应 ---

// ListResponse 已订阅论坛列表（帖子部分由 post 模块解析）
type ListResponse struct {
	Forums []Forum `json:"forums"`
}

// CreateResponse 创建论坛
type CreateResponse struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// SearchResponse 目录搜索
type SearchResponse struct {
	Results []DirectoryEntry `json:"results"`
}

// FindResponse 目录浏览
type FindResponse struct {
	Forums []DirectoryEntry `json:"forums"`
}

// SubscribeResponse 订阅
type SubscribeResponse struct {
	AlreadySubscribed bool `json:"already_subscribed"`
}

// MembersResponse 成员列表
type MembersResponse struct {
	Forum   Forum    `json:"forum"`
	Members []Member `json:"members"`
}

// AccessResponse 访问控制列表
type AccessResponse struct {
	Forum  Forum          `json:"forum"`
	Access []MemberAccess `json:"access"`
	Levels []AccessLevel  `json:"levels"`
	Owner  *Owner         `json:"owner,omitempty"`
}

// RecommendationsResponse 推荐论坛
type RecommendationsResponse struct {
	Forums []Recommendation `json:"forums"`
}
