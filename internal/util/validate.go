package util

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	scriptBlockRegex  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	jsSchemeRegex     = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRegex = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// IsValidUUID 校验标准 8-4-4-4-12 十六进制格式，大小写不敏感
func IsValidUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// SanitizeInput 黑名单式清洗：去掉 <script> 块、javascript: 协议、
// 内联 on* 事件属性，并裁剪首尾空白。
// 这是正则黑名单而非解析器级别的过滤，只能挡住最常见的注入写法。
func SanitizeInput(s string) string {
	s = scriptBlockRegex.ReplaceAllString(s, "")
	s = jsSchemeRegex.ReplaceAllString(s, "")
	s = eventHandlerRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// GenerateContentHash 计算提交内容的 SHA-256 指纹（小写十六进制）。
// 只用于审计留痕，不做去重。
func GenerateContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
