// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell 注入）
//  2. YAML 配置文件（{env}.yaml，如 dev.yaml、test.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件中（YAML 中不存储任何密码）。
//	.env 文件同时被 Docker Compose（--env-file）和 Go 应用（godotenv）
//	共用，确保单一数据源。
//
// 环境：
//   - 开发: APP_ENV=dev (默认) → configs/dev.yaml
//   - 测试: APP_ENV=test → configs/test.yaml
//   - 生产: APP_ENV=prod → configs/prod.yaml
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig 统一 YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`   // HTTP 服务
	Database DatabaseConfig `yaml:"database"` // 数据库
	Redis    RedisConfig    `yaml:"redis"`    // Redis（登录限流，可选）
	MinIO    MinIOConfig    `yaml:"minio"`    // MinIO 对象存储
	Auth     AuthConfig     `yaml:"auth"`     // 认证
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `yaml:"port"` // 监听端口
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "postgres" 或 "sqlite"
	Path     string `yaml:"path"`   // SQLite 文件路径
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // 只从 DB_PASSWORD 环境变量读取
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig Redis 配置
// Host 为空时表示未启用 Redis（登录限流退化为关闭）
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // 只从 REDIS_PASSWORD 环境变量读取
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint         string `yaml:"endpoint"`          // 内部访问地址，例如 minio:9000
	ExternalEndpoint string `yaml:"external_endpoint"` // 构建公开 URL 用的外部地址
	AccessKey        string `yaml:"-"`                 // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey        string `yaml:"-"`                 // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL           bool   `yaml:"use_ssl"`           // 是否使用 HTTPS
	Bucket           string `yaml:"bucket"`            // 默认 bucket 名称
}

// AuthConfig 认证配置
// 注意：JWTSecret/AdminEmail/AdminPassword 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret      string        `yaml:"-"`                // 只从 JWT_SECRET 环境变量读取
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"` // 例如 "24h"
	AdminEmail     string        `yaml:"-"`                // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword  string        `yaml:"-"`                // 只从 ADMIN_PASSWORD 环境变量读取
}
