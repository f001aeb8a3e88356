package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/reelwatch/internal/handler"
	"github.com/user/reelwatch/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== API（需要登录）====================
	api := r.Group("/api")
	api.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		// 观看时长
		api.POST("/saveWatchTime", h.SaveWatchTime)
		api.GET("/watchTime", h.GetWatchTime)
		api.GET("/watchTime/settings", h.WatchTimeSettings)
		api.GET("/history/continue", h.ContinueWatching)
		api.POST("/history/hide", h.HideHistory)

		// 迷你播放器
		api.GET("/miniplayer", h.GetMiniplayer)
		api.PUT("/miniplayer", h.UpdateMiniplayer)
		api.POST("/miniplayer/snap", h.SnapMiniplayer)
	}
}
