package watchtime

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultThreshold 累计不足该秒数时不提交，只向后结转
const DefaultThreshold = 10

// DefaultSubmitTimeout 单次提交的超时时间
const DefaultSubmitTimeout = 10 * time.Second

// ErrInvalidDuration 媒体时长缺失或非正数
var ErrInvalidDuration = errors.New("watchtime: media duration must be positive")

// Submitter 观看时长提交接口
type Submitter interface {
	Submit(ctx context.Context, s Submission) error
}

// FlushResult flush 的结果
type FlushResult struct {
	SessionSeconds int
	Accumulated    int  // 本次检查时的累计秒数
	Submitted      bool // 是否发起了提交
	Delivered      bool // 提交是否成功
	Discarded      bool // 时长无效而丢弃
}

// Accumulator 客户端观看时长累计器
// 累计值的读取和清零在同一把锁内完成，并发 flush 不会重复计数
type Accumulator struct {
	mu        sync.Mutex
	submitter Submitter
	now       func() time.Time
	threshold int
	timeout   time.Duration

	playback        Playback
	durationMinutes float64
	startTime       time.Time
	accumulated     int
	paused          bool // 页面隐藏期间不计时

	retryQueue []Submission
	retrying   bool
}

// Option 累计器配置项
type Option func(*Accumulator)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(a *Accumulator) { a.now = now }
}

// WithThreshold 设置提交阈值（秒）
func WithThreshold(seconds int) Option {
	return func(a *Accumulator) { a.threshold = seconds }
}

// WithSubmitTimeout 设置单次提交超时
func WithSubmitTimeout(d time.Duration) Option {
	return func(a *Accumulator) { a.timeout = d }
}

// NewAccumulator 创建累计器
func NewAccumulator(submitter Submitter, opts ...Option) *Accumulator {
	a := &Accumulator{
		submitter: submitter,
		now:       time.Now,
		threshold: DefaultThreshold,
		timeout:   DefaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.startTime = a.now()
	return a
}

// Reset 切换到新的播放上下文，重试队列保留
func (a *Accumulator) Reset(p Playback, durationMinutes float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playback = p
	a.durationMinutes = durationMinutes
	a.accumulated = 0
	a.startTime = a.now()
	a.paused = false
}

// Resume 页面重新可见，从现在开始重新计时，隐藏期间的时间不计入
func (a *Accumulator) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startTime = a.now()
	a.paused = false
}

// Accumulated 尚未提交的累计秒数
func (a *Accumulator) Accumulated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accumulated
}

// Pending 重试队列快照，最早失败的在前
func (a *Accumulator) Pending() []Submission {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Submission, len(a.retryQueue))
	copy(out, a.retryQueue)
	return out
}

// Playback 当前播放上下文
func (a *Accumulator) Playback() Playback {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playback
}

// take 同步完成：累加本段时长、重置起点、达到阈值时构造提交并清零
// TriggerHidden 计入隐藏前的时长后暂停计时，直到 Resume
func (a *Accumulator) take(trigger Trigger) (*Submission, FlushResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	session := 0
	if !a.paused {
		session = int(now.Sub(a.startTime) / time.Second)
	}
	if session > 0 {
		a.accumulated += session
	}
	a.startTime = now
	if trigger == TriggerHidden {
		a.paused = true
	}

	res := FlushResult{SessionSeconds: session, Accumulated: a.accumulated}
	if a.accumulated < a.threshold {
		return nil, res
	}

	if a.durationMinutes <= 0 || a.durationMinutes != a.durationMinutes {
		log.Printf("[WatchTime] 媒体时长无效，丢弃本段 (trigger=%s, media=%s/%d, duration=%v, seconds=%d): %v",
			trigger, a.playback.MediaType, a.playback.MediaID, a.durationMinutes, a.accumulated, ErrInvalidDuration)
		a.accumulated = 0
		res.Discarded = true
		return nil, res
	}

	s := newSubmission(a.playback, a.accumulated, a.durationMinutes)
	// 无论提交成败都清零，失败的数据只保存在重试队列中
	a.accumulated = 0
	res.Submitted = true
	return &s, res
}

// Flush 计算已观看时长并尝试提交
func (a *Accumulator) Flush(ctx context.Context, trigger Trigger) FlushResult {
	s, res := a.take(trigger)
	if s != nil {
		if err := a.submit(ctx, *s); err != nil {
			if errors.Is(err, ErrInvalidPayload) {
				log.Printf("[WatchTime] 提交数据无效，已丢弃: %v", err)
			} else {
				log.Printf("[WatchTime] 提交观看时长失败，加入重试队列 (trigger=%s, seconds=%d): %v", trigger, s.TimeSpent, err)
				a.mu.Lock()
				a.retryQueue = append(a.retryQueue, *s)
				a.mu.Unlock()
			}
		} else {
			res.Delivered = true
		}
	}

	a.DrainRetries(ctx)
	return res
}

// DrainRetries 按 FIFO 顺序逐个重试，队首失败即停止，剩余留给下一次触发
// 返回本轮成功送达的数量
func (a *Accumulator) DrainRetries(ctx context.Context) int {
	a.mu.Lock()
	if a.retrying || len(a.retryQueue) == 0 {
		a.mu.Unlock()
		return 0
	}
	a.retrying = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.retrying = false
		a.mu.Unlock()
	}()

	delivered := 0
	for {
		a.mu.Lock()
		if len(a.retryQueue) == 0 {
			a.mu.Unlock()
			return delivered
		}
		head := a.retryQueue[0]
		a.mu.Unlock()

		err := a.submit(ctx, head)
		if err != nil && !errors.Is(err, ErrInvalidPayload) {
			log.Printf("[WatchTime] 重试失败，剩余 %d 条待下次重试: %v", len(a.Pending()), err)
			return delivered
		}

		// 只有持有 retrying 标记的协程会移除队首，新失败的数据追加在队尾
		a.mu.Lock()
		a.retryQueue = a.retryQueue[1:]
		a.mu.Unlock()
		if err == nil {
			delivered++
		}
	}
}

// submit 使用与调用方取消解耦的 context，页面关闭时请求仍有机会完成
func (a *Accumulator) submit(ctx context.Context, s Submission) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()
	return a.submitter.Submit(sctx, s)
}
