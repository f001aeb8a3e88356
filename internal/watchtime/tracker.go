package watchtime

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	DefaultFlushInterval = 30 * time.Second
	MinFlushInterval     = 30 * time.Second
	MaxFlushInterval     = 120 * time.Second
)

// ClampInterval 将定时 flush 间隔限制在 [30s, 120s]
func ClampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultFlushInterval
	}
	if d < MinFlushInterval {
		return MinFlushInterval
	}
	if d > MaxFlushInterval {
		return MaxFlushInterval
	}
	return d
}

// Tracker 把页面生命周期事件转换为累计器的 flush
type Tracker struct {
	acc      *Accumulator
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pending sync.WaitGroup
}

// NewTracker 创建生命周期驱动器
func NewTracker(acc *Accumulator, interval time.Duration) *Tracker {
	return &Tracker{acc: acc, interval: ClampInterval(interval)}
}

// Accumulator 底层累计器
func (t *Tracker) Accumulator() *Accumulator {
	return t.acc
}

// Start 挂载：开始新的播放上下文并启动定时 flush
func (t *Tracker) Start(ctx context.Context, p Playback, durationMinutes float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	t.acc.Reset(p, durationMinutes)
	log.Printf("[WatchTime] 开始记录 %s/%d (duration=%vmin, interval=%v)", p.MediaType, p.MediaID, durationMinutes, t.interval)

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(loopCtx, t.done)
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (t *Tracker) tick(ctx context.Context) FlushResult {
	return t.acc.Flush(ctx, TriggerInterval)
}

// Hidden 页面切到后台：提交已观看部分，之后的定时 flush 不再计时
func (t *Tracker) Hidden(ctx context.Context) FlushResult {
	return t.acc.Flush(ctx, TriggerHidden)
}

// Visible 页面回到前台，恢复计时
func (t *Tracker) Visible() {
	t.acc.Resume()
}

// PageHide beforeunload/pagehide：发出即返回，不等待结果
func (t *Tracker) PageHide(ctx context.Context) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		t.acc.Flush(ctx, TriggerPageHide)
	}()
}

// Switch 播放上下文变化：先为旧上下文做最后一次 flush，再重置
func (t *Tracker) Switch(ctx context.Context, p Playback, durationMinutes float64) {
	t.acc.Flush(ctx, TriggerSwitch)
	t.acc.Reset(p, durationMinutes)
}

// Stop 卸载：停止定时器并做最后一次 flush
func (t *Tracker) Stop(ctx context.Context) FlushResult {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return t.acc.Flush(ctx, TriggerUnmount)
}

// Wait 等待已发出的 PageHide flush 结束，进程退出前使用
func (t *Tracker) Wait() {
	t.pending.Wait()
}
