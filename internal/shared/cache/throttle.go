// Package cache Redis 登录限流
//
// 固定窗口计数，按“邮箱 + 客户端 IP”维度限制登录尝试。
// 未配置 Redis 时限流自动降级为放行，认证逻辑不受影响。
package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// 登录限流默认参数
const (
	DefaultLoginLimit  = 10
	DefaultLoginWindow = 5 * time.Minute
)

// LoginThrottle 登录尝试限流器
type LoginThrottle struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLoginThrottle 创建登录限流器
func NewLoginThrottle(addr, password string, db int) (*LoginThrottle, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Throttle] Connected to %s", addr)
	return NewLoginThrottleFromClient(client), nil
}

// NewLoginThrottleFromClient 从现有 Redis 客户端创建限流器
func NewLoginThrottleFromClient(client *redis.Client) *LoginThrottle {
	return &LoginThrottle{client: client, limit: DefaultLoginLimit, window: DefaultLoginWindow}
}

// Close 关闭 Redis 连接
func (t *LoginThrottle) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}

// Allow 记录一次登录尝试并返回是否放行
// nil 限流器（Redis 未配置）恒放行；Redis 故障时放行并告警，
// 登录可用性优先于限流精度
func (t *LoginThrottle) Allow(ctx context.Context, email, clientIP string) bool {
	if t == nil || t.client == nil {
		return true
	}

	key := fmt.Sprintf("login_attempts:%s:%s", email, clientIP)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[Redis/Throttle] Incr failed, allowing request: %v", err)
		return true
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			log.Printf("[Redis/Throttle] Expire failed: %v", err)
		}
	}
	return count <= int64(t.limit)
}

// Reset 登录成功后清除该维度的尝试计数
func (t *LoginThrottle) Reset(ctx context.Context, email, clientIP string) {
	if t == nil || t.client == nil {
		return
	}
	key := fmt.Sprintf("login_attempts:%s:%s", email, clientIP)
	if err := t.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[Redis/Throttle] Del failed: %v", err)
	}
}
