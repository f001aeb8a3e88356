package service

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/user/reelwatch/internal/cache"
	"github.com/user/reelwatch/internal/model"
	"golang.org/x/sync/singleflight"
)

// HistoryStore 观看记录存储
type HistoryStore interface {
	Accumulate(key model.WatchKey, timeSpent int, percentage float64) (*model.WatchHistory, error)
	Get(key model.WatchKey) (*model.WatchHistory, error)
	ContinueWatching(userID string, now time.Time, limit int) ([]*model.WatchHistory, error)
	Hide(key model.WatchKey, until time.Time) error
}

// DefaultContinueLimit "继续观看"默认条数
const DefaultContinueLimit = 20

// WatchTimeInput 一次观看时长上报
type WatchTimeInput struct {
	MediaType         string
	MediaID           int
	SeasonNumber      *int
	EpisodeNumber     *int
	TimeSpent         int
	PercentageWatched string
}

// WatchProgress 某个媒体的累计观看进度
type WatchProgress struct {
	MediaType         string  `json:"media_type"`
	MediaID           int     `json:"media_id"`
	SeasonNumber      *int    `json:"season_number"`
	EpisodeNumber     *int    `json:"episode_number"`
	TimeSpent         int     `json:"time_spent"`
	PercentageWatched float64 `json:"percentage_watched"`
}

// WatchTimeService 观看时长服务
type WatchTimeService struct {
	store HistoryStore
	cache *cache.TTL[model.WatchKey, WatchProgress]
	sf    singleflight.Group
	now   func() time.Time

	// saves 每次保存递增；读取期间发生过保存时不回填缓存
	mu    sync.Mutex
	saves uint64
}

// NewWatchTimeService 创建观看时长服务
func NewWatchTimeService(store HistoryStore, progressCache *cache.TTL[model.WatchKey, WatchProgress]) *WatchTimeService {
	return &WatchTimeService{
		store: store,
		cache: progressCache,
		now:   time.Now,
	}
}

func flightKey(key model.WatchKey) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d", key.UserID, key.MediaType, key.MediaID, key.SeasonNumber, key.EpisodeNumber)
}

func watchKey(userID, mediaType string, mediaID int, season, episode *int) model.WatchKey {
	return model.WatchKey{
		UserID:        userID,
		MediaType:     mediaType,
		MediaID:       mediaID,
		SeasonNumber:  model.NormalizeEpisode(season),
		EpisodeNumber: model.NormalizeEpisode(episode),
	}
}

// Save 累加保存观看时长，成功后使缓存失效
func (s *WatchTimeService) Save(userID string, in WatchTimeInput) (*model.WatchHistory, error) {
	pct, err := strconv.ParseFloat(in.PercentageWatched, 64)
	if err != nil {
		return nil, fmt.Errorf("percentage_watched 格式错误: %w", err)
	}

	key := watchKey(userID, in.MediaType, in.MediaID, in.SeasonNumber, in.EpisodeNumber)
	h, err := s.store.Accumulate(key, in.TimeSpent, pct)
	if err != nil {
		return nil, fmt.Errorf("保存观看记录失败: %w", err)
	}

	s.mu.Lock()
	s.saves++
	if s.cache != nil {
		s.cache.Delete(key)
	}
	s.mu.Unlock()
	s.sf.Forget(flightKey(key))
	log.Printf("[WatchTime] 已保存 user=%s %s/%d s=%d e=%d +%ds 累计 %ds %.2f%%",
		userID, key.MediaType, key.MediaID, key.SeasonNumber, key.EpisodeNumber, in.TimeSpent, h.TimeSpent, h.PercentageWatched)
	return h, nil
}

// Progress 读取观看进度，没有记录时返回零值
func (s *WatchTimeService) Progress(userID, mediaType string, mediaID int, season, episode *int) (WatchProgress, error) {
	key := watchKey(userID, mediaType, mediaID, season, episode)
	if s.cache != nil {
		if p, ok := s.cache.Get(key, s.now()); ok {
			return p, nil
		}
	}

	v, err, _ := s.sf.Do(flightKey(key), func() (interface{}, error) {
		s.mu.Lock()
		gen := s.saves
		s.mu.Unlock()
		h, err := s.store.Get(key)
		if err != nil {
			return nil, err
		}
		p := WatchProgress{
			MediaType:     mediaType,
			MediaID:       mediaID,
			SeasonNumber:  season,
			EpisodeNumber: episode,
		}
		if h != nil {
			p.TimeSpent = h.TimeSpent
			p.PercentageWatched = h.PercentageWatched
		}
		s.mu.Lock()
		if s.cache != nil && s.saves == gen {
			s.cache.Set(key, p, s.now())
		}
		s.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return WatchProgress{}, fmt.Errorf("读取观看记录失败: %w", err)
	}
	return v.(WatchProgress), nil
}

// ContinueWatching 用户的"继续观看"列表
func (s *WatchTimeService) ContinueWatching(userID string, limit int) ([]*model.WatchHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultContinueLimit
	}
	list, err := s.store.ContinueWatching(userID, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("获取继续观看列表失败: %w", err)
	}
	return list, nil
}

// Hide 在 d 时间内从"继续观看"中隐藏，下次上报观看时长会自动恢复
func (s *WatchTimeService) Hide(userID, mediaType string, mediaID int, season, episode *int, d time.Duration) error {
	key := watchKey(userID, mediaType, mediaID, season, episode)
	if err := s.store.Hide(key, s.now().Add(d)); err != nil {
		return fmt.Errorf("隐藏观看记录失败: %w", err)
	}
	return nil
}

// PurgeExpired 清理过期的缓存条目
func (s *WatchTimeService) PurgeExpired() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.DeleteExpired(s.now())
}
