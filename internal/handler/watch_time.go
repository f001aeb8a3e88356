package handler

import (
	"log"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/reelwatch/internal/middleware"
	"github.com/user/reelwatch/internal/service"
	"github.com/user/reelwatch/internal/utils"
	"github.com/user/reelwatch/internal/watchtime"
)

var percentagePattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// WatchTimeReq 观看时长上报请求，用户身份只取自 Token
type WatchTimeReq struct {
	TimeSpent         *int   `json:"time_spent" binding:"required,gte=0"`
	PercentageWatched string `json:"percentage_watched" binding:"required"`
	MediaType         string `json:"media_type" binding:"required,oneof=movie tv"`
	MediaID           int    `json:"media_id" binding:"required,gt=0"`
	SeasonNumber      *int   `json:"season_number" binding:"omitempty,gt=0"`
	EpisodeNumber     *int   `json:"episode_number" binding:"omitempty,gt=0"`
}

// SaveWatchTime 累加保存观看时长
func (h *Handler) SaveWatchTime(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req WatchTimeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[SaveWatchTime] 参数校验失败: %v", err)
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}
	if !percentagePattern.MatchString(req.PercentageWatched) {
		utils.BadRequest(c, "percentage_watched must be a valid number string")
		return
	}

	_, err := h.WatchTime.Save(userID, service.WatchTimeInput{
		MediaType:         req.MediaType,
		MediaID:           req.MediaID,
		SeasonNumber:      req.SeasonNumber,
		EpisodeNumber:     req.EpisodeNumber,
		TimeSpent:         *req.TimeSpent,
		PercentageWatched: req.PercentageWatched,
	})
	if err != nil {
		log.Printf("[SaveWatchTime] 保存失败: %v", err)
		utils.InternalServerError(c, "Error saving watch time")
		return
	}

	utils.SuccessWithMessage(c, "Watch time saved successfully", gin.H{
		"action":     "upserted",
		"media_id":   req.MediaID,
		"media_type": req.MediaType,
	})
}

// WatchTimeQuery 观看进度查询参数
type WatchTimeQuery struct {
	MediaType     string `form:"media_type" binding:"required,oneof=movie tv"`
	MediaID       int    `form:"media_id" binding:"required,gt=0"`
	SeasonNumber  *int   `form:"season_number" binding:"omitempty,gt=0"`
	EpisodeNumber *int   `form:"episode_number" binding:"omitempty,gt=0"`
}

// GetWatchTime 查询某个媒体的累计观看进度
func (h *Handler) GetWatchTime(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var q WatchTimeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	progress, err := h.WatchTime.Progress(userID, q.MediaType, q.MediaID, q.SeasonNumber, q.EpisodeNumber)
	if err != nil {
		log.Printf("[GetWatchTime] 查询失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, progress)
}

// ContinueWatching "继续观看"列表
func (h *Handler) ContinueWatching(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var q struct {
		Limit int `form:"limit" binding:"omitempty,gte=0,lte=100"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	list, err := h.WatchTime.ContinueWatching(userID, q.Limit)
	if err != nil {
		log.Printf("[ContinueWatching] 查询失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, list)
}

// HideReq 从"继续观看"中隐藏
type HideReq struct {
	MediaType     string `json:"media_type" binding:"required,oneof=movie tv"`
	MediaID       int    `json:"media_id" binding:"required,gt=0"`
	SeasonNumber  *int   `json:"season_number" binding:"omitempty,gt=0"`
	EpisodeNumber *int   `json:"episode_number" binding:"omitempty,gt=0"`
	Days          int    `json:"days" binding:"omitempty,gte=1,lte=365"`
}

// HideHistory 隐藏一条观看记录，默认 30 天
func (h *Handler) HideHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req HideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}
	days := req.Days
	if days == 0 {
		days = 30
	}

	if err := h.WatchTime.Hide(userID, req.MediaType, req.MediaID, req.SeasonNumber, req.EpisodeNumber, time.Duration(days)*24*time.Hour); err != nil {
		log.Printf("[HideHistory] 隐藏失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, nil)
}

// WatchTimeSettings 客户端累计器参数
func (h *Handler) WatchTimeSettings(c *gin.Context) {
	utils.Success(c, gin.H{
		"flush_interval_seconds": int(watchtime.ClampInterval(h.Config.WatchFlushInterval).Seconds()),
		"threshold_seconds":      watchtime.DefaultThreshold,
	})
}
