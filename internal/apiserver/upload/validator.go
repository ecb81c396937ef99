// Package upload 文件上传：安全验证管线与对象存储接入
//
// 所有进入对象存储的字节必须先通过验证管线，检查顺序固定：
// 文件名存在 → 内容非空 → 大小上限 → 魔数黑名单 → 文件名清洗 → Content-Type 规范化
package upload

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// MaxFileSize 单文件大小上限（500 MiB）
const MaxFileSize = 500 * 1024 * 1024

// blockedMagicBytes 可执行文件魔数黑名单
// Windows PE、ELF、Mach-O（含 universal binary）
var blockedMagicBytes = [][]byte{
	{0x4D, 0x5A},             // MZ
	{0x7F, 0x45, 0x4C, 0x46}, // \x7fELF
	{0xCA, 0xFE, 0xBA, 0xBE}, // Mach-O universal
	{0xFE, 0xED, 0xFA},       // Mach-O
}

// ValidationError 验证失败，携带返回给客户端的状态码
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(status int, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Validated 通过验证管线的上传内容
type Validated struct {
	Filename    string // 清洗后的文件名
	Ext         string // 小写扩展名（含点），可能为空
	ContentType string
	Data        []byte
}

// Validate 执行上传验证管线
// filename 为客户端声明的原始文件名，contentType 为客户端声明的 MIME 类型
func Validate(filename, contentType string, data []byte) (*Validated, error) {
	if filename == "" {
		return nil, invalid(http.StatusBadRequest, "filename is required")
	}
	if len(data) == 0 {
		return nil, invalid(http.StatusBadRequest, "empty file")
	}
	if len(data) > MaxFileSize {
		return nil, invalid(http.StatusRequestEntityTooLarge,
			"file exceeds maximum size of %d bytes", MaxFileSize)
	}
	for _, magic := range blockedMagicBytes {
		if bytes.HasPrefix(data, magic) {
			return nil, invalid(http.StatusBadRequest, "executable files are not allowed")
		}
	}

	clean := sanitizeFilename(filename)
	return &Validated{
		Filename:    clean,
		Ext:         extractExt(clean),
		ContentType: normalizeContentType(contentType),
		Data:        data,
	}, nil
}

// ============================================================================
// 文件名清洗
// ============================================================================

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._\- ]`)

// sanitizeFilename 清洗客户端文件名
// 去 NUL、路径分隔符替换为下划线、去前导点、白名单外字符替换为
// 下划线、截断到 200 字符；清洗后为空时回退为 "file"
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.TrimLeft(name, ".")
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(name) > 200 {
		name = name[:200]
	}
	if name == "" {
		return "file"
	}
	return name
}

var extChars = regexp.MustCompile(`^\.[a-z0-9]+$`)

// extractExt 提取小写扩展名（含点）
// 扩展名含白名单外字符时视为无扩展名
func extractExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	ext := strings.ToLower(filename[idx:])
	if !extChars.MatchString(ext) {
		return ""
	}
	return ext
}

// normalizeContentType 规范化 MIME 类型：去参数、小写、空值回退
func normalizeContentType(ct string) string {
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
