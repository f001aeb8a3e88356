package model

import (
	"time"
)

// NoSeason 电影或未指定季/集时存储的占位值，保证唯一索引生效
const NoSeason = -1

// WatchHistory 观看记录，同一用户同一媒体（含季/集）只有一行
type WatchHistory struct {
	ID                int        `json:"id" db:"id"`
	UserID            string     `json:"user_id" db:"user_id" gorm:"type:varchar(64);uniqueIndex:idx_watch_history_media"`
	MediaType         string     `json:"media_type" db:"media_type" gorm:"type:varchar(16);uniqueIndex:idx_watch_history_media"`
	MediaID           int        `json:"media_id" db:"media_id" gorm:"uniqueIndex:idx_watch_history_media"`
	SeasonNumber      int        `json:"season_number" db:"season_number" gorm:"uniqueIndex:idx_watch_history_media"`
	EpisodeNumber     int        `json:"episode_number" db:"episode_number" gorm:"uniqueIndex:idx_watch_history_media"`
	TimeSpent         int        `json:"time_spent" db:"time_spent"`
	PercentageWatched float64    `json:"percentage_watched" db:"percentage_watched" gorm:"type:numeric(5,2)"`
	HiddenUntil       *time.Time `json:"hidden_until" db:"hidden_until"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at" gorm:"index"`
}

// WatchKey 观看记录的唯一键
type WatchKey struct {
	UserID        string
	MediaType     string
	MediaID       int
	SeasonNumber  int
	EpisodeNumber int
}

// Key 返回记录的唯一键
func (h *WatchHistory) Key() WatchKey {
	return WatchKey{
		UserID:        h.UserID,
		MediaType:     h.MediaType,
		MediaID:       h.MediaID,
		SeasonNumber:  h.SeasonNumber,
		EpisodeNumber: h.EpisodeNumber,
	}
}

// NormalizeEpisode 将空的季/集转换为占位值
func NormalizeEpisode(n *int) int {
	if n == nil || *n <= 0 {
		return NoSeason
	}
	return *n
}
