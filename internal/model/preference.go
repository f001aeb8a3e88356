package model

import "time"

// Preference 用户偏好键值对（迷你播放器状态等）
type Preference struct {
	Key       string    `json:"key" db:"pref_key" gorm:"column:pref_key;primaryKey;type:varchar(191)"`
	Value     string    `json:"value" db:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
