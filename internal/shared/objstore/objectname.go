package objstore

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

// Folder 存储目录（封闭枚举，进入验证管道前由调用方约束）
type Folder string

const (
	FolderThumbnails Folder = "thumbnails"
	FolderPDFs       Folder = "pdfs"
	FolderVideos     Folder = "videos"
	FolderMaterials  Folder = "materials"
)

// ParseFolder 解析目录参数，未知值返回 false
func ParseFolder(s string) (Folder, bool) {
	switch Folder(s) {
	case FolderThumbnails, FolderPDFs, FolderVideos, FolderMaterials:
		return Folder(s), true
	}
	return "", false
}

// objectNameRe 对象名生成模式：{folder}/{32位十六进制}{.扩展名}
// 删除/签名入口以此为第二道路径穿越防线（第一道是上传时的文件名净化）
var objectNameRe = regexp.MustCompile(`^(thumbnails|pdfs|videos|materials)/[a-f0-9]{32}\.[a-z0-9]+$`)

// ValidObjectName 校验对象名是否严格匹配生成模式
func ValidObjectName(name string) bool {
	if name == "" {
		return false
	}
	return objectNameRe.MatchString(name)
}

// newObjectName 生成对象名：随机 128 位十六进制，不含任何用户可控内容
// （ext 已在上传验证阶段净化为小写字母数字，可为空）
func newObjectName(folder Folder, ext string) string {
	u := uuid.New()
	return string(folder) + "/" + hex.EncodeToString(u[:]) + ext
}
