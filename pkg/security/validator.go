package security

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DisallowedNameChars 名称/标题中不允许出现的字符（与服务端 "name" 校验一致）
const DisallowedNameChars = "<>\r\n\\;\"'`"

// ValidationError 校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validator 验证器接口
type Validator interface {
	Validate(value string) error
	Sanitize(value string) string
}

// StringValidator 字符串验证器
type StringValidator struct {
	Field      string
	Label      string
	MinLength  int
	MaxLength  int
	Required   bool
	Disallowed string
}

// NewStringValidator 创建字符串验证器
func NewStringValidator(field string, minLength, maxLength int, required bool) *StringValidator {
	return &StringValidator{
		Field:     field,
		Label:     strings.ToUpper(field[:1]) + field[1:],
		MinLength: minLength,
		MaxLength: maxLength,
		Required:  required,
	}
}

// Validate 验证字符串
func (sv *StringValidator) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		if sv.Required {
			return sv.fail("%s is required", sv.Label)
		}
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < sv.MinLength {
		return sv.fail("%s must be at least %d characters", sv.Label, sv.MinLength)
	}
	if sv.MaxLength > 0 && length > sv.MaxLength {
		return sv.fail("%s must be %d characters or less", sv.Label, sv.MaxLength)
	}

	if sv.Disallowed != "" && strings.ContainsAny(value, sv.Disallowed) {
		return sv.fail("%s cannot contain %s characters", sv.Label, describeChars(sv.Disallowed))
	}

	return nil
}

// Sanitize 清理字符串
func (sv *StringValidator) Sanitize(value string) string {
	return strings.TrimSpace(value)
}

func (sv *StringValidator) fail(format string, args ...interface{}) error {
	return &ValidationError{Field: sv.Field, Message: fmt.Sprintf(format, args...)}
}

func describeChars(chars string) string {
	parts := make([]string, 0, len(chars))
	for _, r := range chars {
		switch r {
		case '\r', '\n':
			continue
		}
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ") + " or line break"
}

// EnumValidator 枚举值验证器
type EnumValidator struct {
	Field   string
	Allowed []string
}

// Validate 验证枚举值
func (ev *EnumValidator) Validate(value string) error {
	for _, allowed := range ev.Allowed {
		if value == allowed {
			return nil
		}
	}
	return &ValidationError{
		Field:   ev.Field,
		Message: fmt.Sprintf("invalid %s %q, expected one of: %s", ev.Field, value, strings.Join(ev.Allowed, ", ")),
	}
}

// Sanitize 清理枚举值
func (ev *EnumValidator) Sanitize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// 预置验证器
var (
	ForumNameValidator = &StringValidator{Field: "name", Label: "Name", MinLength: 1, MaxLength: 1000, Required: true, Disallowed: DisallowedNameChars}
	TitleValidator     = &StringValidator{Field: "title", Label: "Title", MinLength: 1, MaxLength: 1000, Required: true, Disallowed: DisallowedNameChars}
	BodyValidator      = &StringValidator{Field: "body", Label: "Content", MinLength: 1, Required: true}
	CommentValidator   = &StringValidator{Field: "body", Label: "Comment", MinLength: 1, MaxLength: 100000, Required: true}
	ReasonValidator    = &StringValidator{Field: "reason", Label: "Reason", MaxLength: 1000}
	DetailsValidator   = &StringValidator{Field: "details", Label: "Details", MaxLength: 10000}
)

// ValidateAll 依次执行校验，返回第一个错误
func ValidateAll(checks ...func() error) error {
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}
