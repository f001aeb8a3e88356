package repository

import (
	"errors"
	"math"
	"time"

	"github.com/user/reelwatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Accumulate 累加观看时长和百分比后写回（百分比上限 100）
// 累加在 ON CONFLICT 分支内由数据库完成，并发的首次写入不会互相覆盖
func (r *HistoryRepository) Accumulate(key model.WatchKey, timeSpent int, percentage float64) (*model.WatchHistory, error) {
	var saved model.WatchHistory
	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := r.now()
		delta := model.WatchHistory{
			UserID:            key.UserID,
			MediaType:         key.MediaType,
			MediaID:           key.MediaID,
			SeasonNumber:      key.SeasonNumber,
			EpisodeNumber:     key.EpisodeNumber,
			TimeSpent:         timeSpent,
			PercentageWatched: roundPercentage(percentage),
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "media_type"}, {Name: "media_id"},
				{Name: "season_number"}, {Name: "episode_number"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"time_spent": gorm.Expr("watch_histories.time_spent + excluded.time_spent"),
				// LEAST 在 SQLite 中不可用
				"percentage_watched": gorm.Expr("CASE WHEN watch_histories.percentage_watched + excluded.percentage_watched > 100 " +
					"THEN 100 ELSE watch_histories.percentage_watched + excluded.percentage_watched END"),
				"hidden_until": nil, // 重新观看后恢复到"继续观看"列表
				"updated_at":   now,
			}),
		}).Create(&delta).Error
		if err != nil {
			return err
		}

		return tx.Where("user_id = ? AND media_type = ? AND media_id = ? AND season_number = ? AND episode_number = ?",
			key.UserID, key.MediaType, key.MediaID, key.SeasonNumber, key.EpisodeNumber).
			First(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	saved.PercentageWatched = roundPercentage(saved.PercentageWatched)
	return &saved, nil
}

// Get 获取单条观看记录，不存在时返回 nil
func (r *HistoryRepository) Get(key model.WatchKey) (*model.WatchHistory, error) {
	var h model.WatchHistory
	err := r.db.Where("user_id = ? AND media_type = ? AND media_id = ? AND season_number = ? AND episode_number = ?",
		key.UserID, key.MediaType, key.MediaID, key.SeasonNumber, key.EpisodeNumber).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByUser 获取用户观看记录
func (r *HistoryRepository) ListByUser(userID string, limit, offset int) ([]*model.WatchHistory, error) {
	var histories []*model.WatchHistory
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&histories).Error
	return histories, err
}

// ContinueWatching "继续观看"列表：排除仍处于隐藏期和已看完的记录
func (r *HistoryRepository) ContinueWatching(userID string, now time.Time, limit int) ([]*model.WatchHistory, error) {
	var histories []*model.WatchHistory
	err := r.db.Where("user_id = ?", userID).
		Where("hidden_until IS NULL OR hidden_until <= ?", now).
		Where("percentage_watched < ?", 100).
		Order("updated_at DESC").
		Limit(limit).
		Find(&histories).Error
	return histories, err
}

// Hide 在指定时间前从"继续观看"中隐藏
func (r *HistoryRepository) Hide(key model.WatchKey, until time.Time) error {
	return r.db.Model(&model.WatchHistory{}).
		Where("user_id = ? AND media_type = ? AND media_id = ? AND season_number = ? AND episode_number = ?",
			key.UserID, key.MediaType, key.MediaID, key.SeasonNumber, key.EpisodeNumber).
		UpdateColumn("hidden_until", until).Error
}

func roundPercentage(p float64) float64 {
	p = math.Min(math.Max(p, 0), 100)
	return math.Round(p*100) / 100
}
