package repository

import (
	"errors"
	"time"

	"github.com/user/reelwatch/internal/miniplayer"
	"github.com/user/reelwatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository 偏好键值存储，实现 miniplayer.Store
type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

var _ miniplayer.Store = (*PreferenceRepository)(nil)

// Load 读取键值，不存在时返回 miniplayer.ErrNotFound
func (r *PreferenceRepository) Load(key string) ([]byte, error) {
	var p model.Preference
	err := r.db.Where("pref_key = ?", key).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, miniplayer.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(p.Value), nil
}

// Save 写入键值，后写覆盖先写
func (r *PreferenceRepository) Save(key string, data []byte) error {
	p := &model.Preference{Key: key, Value: string(data), UpdatedAt: time.Now()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(p).Error
}
