// Package objstore 封装 MinIO 对象存储网关
//
// 职责：bucket 初始化（匿名只读策略）、按随机对象名写入已验证的上传内容、
// 构建公开访问 URL、严格校验后删除对象、生成限时预签名 URL。
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"course-seller/internal/config"
)

// 启动时 bucket 初始化的重试参数
const (
	ensureRetries  = 5
	ensureInterval = 3 * time.Second
)

// ErrInvalidObjectName 对象名不符合生成模式
var ErrInvalidObjectName = fmt.Errorf("invalid object name")

// Client MinIO 客户端封装
// 只持有网络配置，无每请求状态，可跨请求并发复用
type Client struct {
	mc       *minio.Client
	bucket   string
	external string // 构建公开 URL 的外部端点
	secure   bool
}

var (
	sharedOnce   sync.Once
	sharedClient *Client
	sharedErr    error
)

// Shared 返回进程级单例客户端（首次调用时构建）
func Shared(cfg config.MinIOConfig) (*Client, error) {
	sharedOnce.Do(func() {
		sharedClient, sharedErr = NewClient(cfg)
	})
	return sharedClient, sharedErr
}

// NewClient 创建 MinIO 客户端
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "course-seller"
	}
	external := cfg.ExternalEndpoint
	if external == "" {
		external = cfg.Endpoint
	}

	return &Client{mc: mc, bucket: bucket, external: external, secure: cfg.UseSSL}, nil
}

// EnsureBucket 确保 bucket 存在并应用匿名只读策略（幂等）
// 上传的媒体文件刻意公开：只有写入/删除受保护
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("[objstore] Created bucket: %s", c.bucket)
	}

	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"AWS": "*"},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/*"]
		}]
	}`, c.bucket)
	if err := c.mc.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

// EnsureBucketWithRetry 启动期 bucket 初始化
// 存储后端未就绪时有限次重试；最终失败只告警不阻断服务启动
func (c *Client) EnsureBucketWithRetry(ctx context.Context) error {
	var err error
	for i := 0; i < ensureRetries; i++ {
		if err = c.EnsureBucket(ctx); err == nil {
			return nil
		}
		log.Printf("[objstore] EnsureBucket attempt %d/%d failed: %v", i+1, ensureRetries, err)
		select {
		case <-time.After(ensureInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("bucket provisioning failed after %d attempts: %w", ensureRetries, err)
}

// PutResult 上传结果
type PutResult struct {
	URL        string `json:"url"`
	ObjectName string `json:"object_name"`
}

// Put 以随机对象名写入已验证的字节内容
// 对象名不含原始文件名的任何信息，随机部分保证全局唯一
func (c *Client) Put(ctx context.Context, folder Folder, ext, contentType string, data []byte) (*PutResult, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := newObjectName(folder, ext)

	_, err := c.mc.PutObject(ctx, c.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectName, err)
	}

	return &PutResult{URL: c.PublicURL(objectName), ObjectName: objectName}, nil
}

// PublicURL 构建对象的公开访问 URL
func (c *Client) PublicURL(objectName string) string {
	proto := "http"
	if c.secure {
		proto = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", proto, c.external, c.bucket, objectName)
}

// Delete 删除对象
// 仅当对象名严格匹配生成模式时才访问存储后端
func (c *Client) Delete(ctx context.Context, objectName string) error {
	if !ValidObjectName(objectName) {
		return ErrInvalidObjectName
	}
	if err := c.mc.RemoveObject(ctx, c.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", objectName, err)
	}
	return nil
}

// Presign 生成限时预签名 URL，ttlHours 被钳制到 [1, 24]
func (c *Client) Presign(ctx context.Context, objectName string, ttlHours int) (string, error) {
	if !ValidObjectName(objectName) {
		return "", ErrInvalidObjectName
	}
	u, err := c.mc.PresignedGetObject(ctx, c.bucket, objectName,
		time.Duration(clampTTLHours(ttlHours))*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}

func clampTTLHours(h int) int {
	if h < 1 {
		return 1
	}
	if h > 24 {
		return 24
	}
	return h
}
