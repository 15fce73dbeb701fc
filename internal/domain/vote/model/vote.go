package model

import (
	"fmt"
	"strings"
)

// Vote 当前用户的投票状态
//
// 线上格式为 "up" | "down" | ""，空字符串表示清除投票，必须原样发送而不能省略。
type Vote string

const (
	Up   Vote = "up"
	Down Vote = "down"
	None Vote = ""
)

// Parse 解析命令行输入，none/clear 视为清除
func Parse(s string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "+":
		return Up, nil
	case "down", "-":
		return Down, nil
	case "", "none", "clear":
		return None, nil
	}
	return None, fmt.Errorf("invalid vote %q, expected up, down or none", s)
}

// Toggle 对当前状态点击 target：再次选择已生效的投票会清除它
func (v Vote) Toggle(target Vote) Vote {
	if v == target {
		return None
	}
	return target
}

// String 展示用
func (v Vote) String() string {
	if v == None {
		return "none"
	}
	return string(v)
}

// Counts 票数
type Counts struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// Score 净票数
func (c Counts) Score() int {
	return c.Up - c.Down
}

// Move 从 from 改投 to 后的票数：撤销旧票再计入新票
func (c Counts) Move(from, to Vote) Counts {
	switch from {
	case Up:
		c.Up--
	case Down:
		c.Down--
	}
	switch to {
	case Up:
		c.Up++
	case Down:
		c.Down++
	}
	return c
}
