// Package main API Server 入口
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/apiserver/server"
	"course-seller/internal/config"
	"course-seller/internal/shared/cache"
	"course-seller/internal/shared/objstore"
	"course-seller/internal/storage/dbutil"
	postgresdriver "course-seller/internal/storage/driver/postgres"
	sqlitedriver "course-seller/internal/storage/driver/sqlite"
	"course-seller/internal/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 YAML）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化数据库：生产用 PostgreSQL，开发与测试可用 SQLite
	var db *sql.DB
	var dialect dbutil.Dialect
	var err error
	if cfg.Database.Driver == "sqlite" {
		db, err = sqlitedriver.Open(cfg.Database.Path)
		dialect = sqlitedriver.NewDialect()
	} else {
		db, err = postgresdriver.Open(cfg.DatabaseURL())
		dialect = postgresdriver.NewDialect()
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store := repository.NewStore(db, dialect)
	defer store.Close()
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Connected to database [driver=%s]", dialect.DriverType())

	// 管理员引导
	if err := auth.EnsureAdminUser(store, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	// 初始化对象存储，bucket 就位失败只告警
	objects, err := objstore.Shared(cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := objects.EnsureBucketWithRetry(ctx); err != nil {
			log.Printf("[main] WARN: bucket provisioning failed, uploads may not work: %v", err)
		}
	}()

	// Redis 可选：未配置时登录不限流
	var throttle *cache.LoginThrottle
	if addr := cfg.RedisAddr(); addr != "" {
		throttle, err = cache.NewLoginThrottle(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("[main] WARN: Redis unavailable, login throttling disabled: %v", err)
			throttle = nil
		} else {
			defer throttle.Close()
		}
	}

	authCfg := auth.Config{JWTSecret: cfg.Auth.JWTSecret, AccessTokenTTL: cfg.Auth.AccessTokenTTL}
	s := server.New(store, objects, authCfg, throttle)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
