package utils

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 访问令牌中客户端关心的字段
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// CurrentUser 当前用户标识，优先 user_id，其次 sub
func (c *Claims) CurrentUser() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// BearerToken 规范化 Authorization 头，已带 Bearer 前缀的不再重复添加
func BearerToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

// ParseClaims 解析令牌声明（不校验签名，签名由服务端负责）
func ParseClaims(token string) (*Claims, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
