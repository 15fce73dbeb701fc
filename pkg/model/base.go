package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Timestamp Unix 秒级时间戳
type Timestamp int64

// Time 转换为 time.Time
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// IsZero 是否为空
func (t Timestamp) IsZero() bool {
	return t == 0
}

// String 本地时间格式
func (t Timestamp) String() string {
	if t == 0 {
		return ""
	}
	return t.Time().Local().Format("2006-01-02 15:04")
}

// Ago 相对时间，例如 "3 hours ago"
func (t Timestamp) Ago() string {
	if t == 0 {
		return ""
	}
	return humanize.Time(t.Time())
}

// Count 兼容数字或数组的计数字段（接口可能返回成员数量或成员列表）
type Count int

// UnmarshalJSON 解析数字、数组或 null
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = 0
	case data[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*c = Count(len(items))
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid count %q", s)
		}
		*c = Count(n)
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*c = Count(n)
	}
	return nil
}

// Identified 具有 ID 的实体
type Identified interface {
	GetID() string
}

// IDs 提取实体 ID 列表
func IDs[T Identified](items []T) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.GetID())
	}
	return ids
}

// Status 帖子/评论的审核状态
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRemoved  Status = "removed"
)

// Visible 是否公开可见，空状态按已通过处理
func (s Status) Visible() bool {
	return s == "" || s == StatusApproved
}
