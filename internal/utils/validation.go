package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

// 校验错误
var (
	ErrEmptyID         = errors.New("ID cannot be empty")
	ErrInvalidIDFormat = errors.New("ID contains invalid characters")
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrTitleTooLong    = errors.New("title exceeds 255 characters")
	ErrDangerousChars  = errors.New("input contains dangerous characters")
	ErrInvalidEmail    = errors.New("invalid email address")
)

var (
	idPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// SanitizeString 清理字符串，移除或转义危险字符
func SanitizeString(input string) string {
	// 1. HTML 转义，防止 XSS
	sanitized := html.EscapeString(input)

	// 2. 移除控制字符（除了换行符和制表符）
	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ValidateID 验证资源 ID 格式
// 只允许字母、数字、连字符、下划线
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}

// ValidateFormTitle 验证表单标题
func ValidateFormTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	if len(trimmed) > 255 {
		return ErrTitleTooLong
	}
	if containsDangerousChars(trimmed) {
		return ErrDangerousChars
	}
	return nil
}

// ValidateEmail 验证邮箱地址格式
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// containsDangerousChars 检查是否包含危险字符
func containsDangerousChars(s string) bool {
	dangerous := []string{"<script", "</script", "javascript:", "onerror=", "onload=", "';", "\";", "--"}
	lower := strings.ToLower(s)
	for _, d := range dangerous {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}
