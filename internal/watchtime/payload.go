package watchtime

import (
	"math"
	"strconv"
)

// Playback 一次播放上下文的身份；上下文变化时累计时长清零
type Playback struct {
	UserID        string
	MediaType     string
	MediaID       int
	SeasonNumber  *int
	EpisodeNumber *int
}

// Submission 提交到观看时长接口的请求体
type Submission struct {
	UserID            string `json:"user_id" validate:"required"`
	MediaType         string `json:"media_type" validate:"required,oneof=movie tv"`
	MediaID           int    `json:"media_id" validate:"gt=0"`
	SeasonNumber      *int   `json:"season_number" validate:"omitempty,gt=0"`
	EpisodeNumber     *int   `json:"episode_number" validate:"omitempty,gt=0"`
	TimeSpent         int    `json:"time_spent" validate:"gte=0"`
	PercentageWatched string `json:"percentage_watched" validate:"required,numeric"`
}

// Trigger 触发 flush 的原因，仅用于日志
type Trigger string

const (
	TriggerInterval Trigger = "interval"
	TriggerHidden   Trigger = "hidden"
	TriggerPageHide Trigger = "pagehide"
	TriggerUnmount  Trigger = "unmount"
	TriggerSwitch   Trigger = "switch"
)

// PercentageWatched 观看百分比，保留两位小数并限制在 [0, 100]
func PercentageWatched(seconds int, durationMinutes float64) string {
	total := durationMinutes * 60
	pct := float64(seconds) / total * 100
	pct = math.Max(0, math.Min(pct, 100))
	return strconv.FormatFloat(pct, 'f', 2, 64)
}

func newSubmission(p Playback, seconds int, durationMinutes float64) Submission {
	return Submission{
		UserID:            p.UserID,
		MediaType:         p.MediaType,
		MediaID:           p.MediaID,
		SeasonNumber:      p.SeasonNumber,
		EpisodeNumber:     p.EpisodeNumber,
		TimeSpent:         seconds,
		PercentageWatched: PercentageWatched(seconds, durationMinutes),
	}
}
