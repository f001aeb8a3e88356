package handler

import (
	"time"

	"github.com/user/reelwatch/internal/config"
	"github.com/user/reelwatch/internal/miniplayer"
	"github.com/user/reelwatch/internal/model"
	"github.com/user/reelwatch/internal/service"
)

// WatchTimeService 观看时长业务接口
type WatchTimeService interface {
	Save(userID string, in service.WatchTimeInput) (*model.WatchHistory, error)
	Progress(userID, mediaType string, mediaID int, season, episode *int) (service.WatchProgress, error)
	ContinueWatching(userID string, limit int) ([]*model.WatchHistory, error)
	Hide(userID, mediaType string, mediaID int, season, episode *int, d time.Duration) error
}

// Handler HTTP 处理器
type Handler struct {
	Config     *config.Config
	WatchTime  WatchTimeService
	Miniplayer miniplayer.Store
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, watchTime WatchTimeService, store miniplayer.Store) *Handler {
	return &Handler{
		Config:     cfg,
		WatchTime:  watchTime,
		Miniplayer: store,
	}
}
