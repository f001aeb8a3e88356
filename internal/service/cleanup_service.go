package service

import (
	"log"

	"github.com/robfig/cron/v3"
)

// CleanupService 清理服务
type CleanupService struct {
	watchTime *WatchTimeService
	cron      *cron.Cron
	spec      string
}

// NewCleanupService 创建清理服务，spec 为 cron 表达式（如 "@every 10m"）
func NewCleanupService(watchTime *WatchTimeService, spec string) *CleanupService {
	return &CleanupService{
		watchTime: watchTime,
		cron:      cron.New(),
		spec:      spec,
	}
}

// Start 启动定时清理任务
func (s *CleanupService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunCleanup); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[CleanupService] 已启动，计划: %s", s.spec)
	return nil
}

// Stop 停止定时任务并等待正在执行的任务结束
func (s *CleanupService) Stop() {
	<-s.cron.Stop().Done()
}

// RunCleanup 执行一次清理
func (s *CleanupService) RunCleanup() {
	removed := s.watchTime.PurgeExpired()
	if removed > 0 {
		log.Printf("[CleanupService] 已清理 %d 条过期的观看进度缓存", removed)
	}
}
