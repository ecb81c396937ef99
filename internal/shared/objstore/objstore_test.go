package objstore

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-seller/internal/config"
)

func TestParseFolder(t *testing.T) {
	tests := []struct {
		in   string
		want Folder
		ok   bool
	}{
		{"thumbnails", FolderThumbnails, true},
		{"pdfs", FolderPDFs, true},
		{"videos", FolderVideos, true},
		{"materials", FolderMaterials, true},
		{"Thumbnails", "", false},
		{"", "", false},
		{"secrets", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFolder(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseFolder(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseFolder(%q)", tt.in)
	}
}

func TestValidObjectName(t *testing.T) {
	valid := []string{
		"thumbnails/0123456789abcdef0123456789abcdef.png",
		"videos/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.mp4",
		"pdfs/0123456789abcdef0123456789abcdef.pdf",
	}
	for _, name := range valid {
		assert.True(t, ValidObjectName(name), name)
	}

	invalid := []string{
		"",
		"../../secret",
		"thumbnails/not-a-uuid.png",
		"thumbnails/0123456789abcdef0123456789abcdef",       // 缺少扩展名
		"secrets/0123456789abcdef0123456789abcdef.png",      // 非法目录
		"thumbnails/0123456789ABCDEF0123456789ABCDEF.png",   // 大写十六进制
		"thumbnails/0123456789abcdef0123456789abcdef.PNG",   // 大写扩展名
		"thumbnails/../0123456789abcdef0123456789abcdef.png",
	}
	for _, name := range invalid {
		assert.False(t, ValidObjectName(name), name)
	}
}

func TestNewObjectName(t *testing.T) {
	pattern := regexp.MustCompile(`^videos/[a-f0-9]{32}\.mp4$`)
	name := newObjectName(FolderVideos, ".mp4")
	assert.Regexp(t, pattern, name)
	assert.True(t, ValidObjectName(name))

	// 无扩展名的对象可以生成，但不可被删除接口接受
	bare := newObjectName(FolderThumbnails, "")
	assert.Regexp(t, regexp.MustCompile(`^thumbnails/[a-f0-9]{32}$`), bare)
	assert.False(t, ValidObjectName(bare))

	// 随机部分应当不重复
	assert.NotEqual(t, newObjectName(FolderPDFs, ".pdf"), newObjectName(FolderPDFs, ".pdf"))
}

func TestPublicURL(t *testing.T) {
	c := &Client{bucket: "course-seller", external: "cdn.example.com", secure: true}
	assert.Equal(t,
		"https://cdn.example.com/course-seller/videos/0123456789abcdef0123456789abcdef.mp4",
		c.PublicURL("videos/0123456789abcdef0123456789abcdef.mp4"))

	c2 := &Client{bucket: "media", external: "localhost:9000", secure: false}
	assert.Equal(t,
		"http://localhost:9000/media/pdfs/0123456789abcdef0123456789abcdef.pdf",
		c2.PublicURL("pdfs/0123456789abcdef0123456789abcdef.pdf"))
}

func TestClampTTLHours(t *testing.T) {
	assert.Equal(t, 1, clampTTLHours(0))
	assert.Equal(t, 1, clampTTLHours(-5))
	assert.Equal(t, 1, clampTTLHours(1))
	assert.Equal(t, 12, clampTTLHours(12))
	assert.Equal(t, 24, clampTTLHours(24))
	assert.Equal(t, 24, clampTTLHours(100))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(config.MinIOConfig{})
	require.Error(t, err)

	_, err = NewClient(config.MinIOConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)

	c, err := NewClient(config.MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	assert.Equal(t, "course-seller", c.bucket)
	assert.Equal(t, "localhost:9000", c.external)
}
