package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/user/reelwatch/internal/cache"
	"github.com/user/reelwatch/internal/config"
	"github.com/user/reelwatch/internal/handler"
	"github.com/user/reelwatch/internal/middleware"
	"github.com/user/reelwatch/internal/miniplayer"
	"github.com/user/reelwatch/internal/model"
	"github.com/user/reelwatch/internal/repository"
	"github.com/user/reelwatch/internal/router"
	"github.com/user/reelwatch/internal/service"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 观看进度读缓存
	progressCache, err := cache.NewTTL[model.WatchKey, service.WatchProgress](cfg.WatchCacheSize, cfg.WatchCacheTTL)
	if err != nil {
		log.Fatalf("创建缓存失败: %v", err)
	}
	watchSvc := service.NewWatchTimeService(repos.History, progressCache)

	// 迷你播放器状态存储
	store, closeStore := newMiniplayerStore(cfg, repos)
	defer closeStore()

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 中间件
	r.Use(middleware.Logger())

	// 初始化 Handler
	h := handler.NewHandler(cfg, watchSvc, store)

	// 启动定时清理任务
	cleanupSvc := service.NewCleanupService(watchSvc, cfg.CleanupSpec)
	if err := cleanupSvc.Start(); err != nil {
		log.Fatalf("清理任务启动失败: %v", err)
	}
	defer cleanupSvc.Stop()

	// 注册路由
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Printf("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("服务器强制关闭:", err)
		return
	}

	log.Println("服务器已退出")
}

// newMiniplayerStore 按配置选择迷你播放器状态存储
func newMiniplayerStore(cfg *config.Config, repos *repository.Repositories) (miniplayer.Store, func()) {
	switch cfg.MiniplayerStore {
	case "memory":
		log.Println("[Miniplayer] 使用内存存储")
		return miniplayer.NewMemoryStore(), func() {}
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			// 读写失败时引擎会回退到默认状态，这里只记录
			log.Printf("[Miniplayer] Redis 连接失败: %v", err)
		}
		log.Printf("[Miniplayer] 使用 Redis 存储 %s", cfg.RedisAddr)
		return miniplayer.NewRedisStore(client, "reelwatch:"), func() { _ = client.Close() }
	default:
		log.Println("[Miniplayer] 使用数据库存储")
		return repos.Preference, func() {}
	}
}
