package utils

import "strings"

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// StringPtrOrNil 空字符串返回nil
func StringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// EmailLocalPart 取邮箱@之前的部分，非邮箱格式原样返回
func EmailLocalPart(email string) string {
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}
