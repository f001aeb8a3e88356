package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	Port        string

	// 迷你播放器状态存储：memory / redis / db
	MiniplayerStore string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	WatchFlushInterval time.Duration
	WatchCacheTTL      time.Duration
	WatchCacheSize     int
	CleanupSpec        string
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "reelwatch")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		log.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	store := strings.ToLower(getEnv("MINIPLAYER_STORE", "db"))
	switch store {
	case "memory", "redis", "db":
	default:
		log.Printf("[Config] 未知的 MINIPLAYER_STORE=%q，改用 db", store)
		store = "db"
	}

	// lru 要求容量至少为 1
	cacheSize := getInt("WATCH_CACHE_SIZE", 10000)
	if cacheSize < 1 {
		log.Printf("[Config] WATCH_CACHE_SIZE=%d 无效，改用 1", cacheSize)
		cacheSize = 1
	}

	return &Config{
		Env:                getEnv("APP_ENV", "development"),
		AppSecret:          appSecret,
		DatabaseURL:        dbURL,
		Port:               getEnv("PORT", "5005"),
		MiniplayerStore:    store,
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getInt("REDIS_DB", 0),
		WatchFlushInterval: getDuration("WATCH_FLUSH_INTERVAL", 30*time.Second),
		WatchCacheTTL:      getDuration("WATCH_CACHE_TTL", time.Minute),
		WatchCacheSize:     cacheSize,
		CleanupSpec:        getEnv("CLEANUP_SPEC", "@every 10m"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := cast.ToIntE(getEnv(key, ""))
	if err != nil || os.Getenv(key) == "" {
		return defaultValue
	}
	return v
}

// getDuration 支持 "45s" 这类写法，纯数字按秒处理
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if secs, err := cast.ToIntE(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := cast.ToDurationE(raw)
	if err != nil || d <= 0 {
		log.Printf("[Config] %s=%q 无法解析，使用默认值 %v", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
