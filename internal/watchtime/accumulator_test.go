package watchtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 26, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []Submission
	errs  []error // 按调用顺序返回，用完后返回 nil
}

func (f *fakeSubmitter) Submit(_ context.Context, s Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.calls)
	f.calls = append(f.calls, s)
	if idx < len(f.errs) {
		return f.errs[idx]
	}
	return nil
}

func (f *fakeSubmitter) Calls() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Submission(nil), f.calls...)
}

func intPtr(v int) *int { return &v }

func moviePlayback() Playback {
	return Playback{UserID: "7b61d0ed-1111-4c3e-9d93-aaaaaaaaaaaa", MediaType: "movie", MediaID: 550}
}

func newTestAccumulator(sub Submitter) (*Accumulator, *fakeClock) {
	clock := newFakeClock()
	acc := NewAccumulator(sub, WithClock(clock.Now))
	return acc, clock
}

func TestFlushNoDoubleCounting(t *testing.T) {
	sub := &fakeSubmitter{}
	acc, clock := newTestAccumulator(sub)
	acc.Reset(moviePlayback(), 120)
	ctx := context.Background()

	clock.Advance(5 * time.Second)
	res := acc.Flush(ctx, TriggerInterval)
	require.False(t, res.Submitted)
	require.Equal(t, 5, acc.Accumulated())

	clock.Advance(4 * time.Second)
	res = acc.Flush(ctx, TriggerHidden)
	require.False(t, res.Submitted)
	require.Equal(t, 9, acc.Accumulated())
	require.Empty(t, sub.Calls())

	clock.Advance(3 * time.Second)
	res = acc.Flush(ctx, TriggerInterval)
	require.True(t, res.Submitted)
	require.True(t, res.Delivered)
	require.Equal(t, 0, acc.Accumulated())

	calls := sub.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, 12, calls[0].TimeSpent)

	// 起点每次都重置，紧接着的 flush 不会重复计算
	res = acc.Flush(ctx, TriggerInterval)
	require.Equal(t, 0, res.SessionSeconds)
	require.Len(t, sub.Calls(), 1)
}

func TestFlushPercentageClamp(t *testing.T) {
	sub := &fakeSubmitter{}
	acc, clock := newTestAccumulator(sub)
	acc.Reset(moviePlayback(), 100)

	clock.Advance(7200 * time.Second)
	acc.Flush(context.Background(), TriggerUnmount)

	calls := sub.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "100.00", calls[0].PercentageWatched)
	require.Equal(t, 7200, calls[0].TimeSpent)
}

func TestFlushPercentageFormatting(t *testing.T) {
	require.Equal(t, "25.00", PercentageWatched(1800, 120))
	require.Equal(t, "0.14", PercentageWatched(10, 120))
	require.Equal(t, "100.00", PercentageWatched(99999, 1))
}

func TestFlushZeroDurationRefusal(t *testing.T) {
	for _, duration := range []float64{0, -5} {
		sub := &fakeSubmitter{}
		acc, clock := newTestAccumulator(sub)
		acc.Reset(moviePlayback(), duration)

		clock.Advance(50 * time.Second)
		res := acc.Flush(context.Background(), TriggerInterval)
		require.False(t, res.Submitted)
		require.True(t, res.Discarded)
		require.Empty(t, sub.Calls())
		require.Equal(t, 0, acc.Accumulated())
		require.Empty(t, acc.Pending())
	}
}

func TestFlushFailureQueuesPayload(t *testing.T) {
	sub := &fakeSubmitter{errs: []error{errors.New("network down"), errors.New("still down")}}
	acc, clock := newTestAccumulator(sub)
	p := moviePlayback()
	p.MediaType = "tv"
	p.SeasonNumber = intPtr(2)
	p.EpisodeNumber = intPtr(5)
	acc.Reset(p, 45)

	clock.Advance(30 * time.Second)
	res := acc.Flush(context.Background(), TriggerInterval)
	require.True(t, res.Submitted)
	require.False(t, res.Delivered)
	// 失败的尝试同样清零本地累计
	require.Equal(t, 0, acc.Accumulated())

	// 首次提交失败后立即排空一次，队首再次失败即停止
	require.Len(t, sub.Calls(), 2)
	pending := acc.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, 30, pending[0].TimeSpent)
	require.Equal(t, 2, *pending[0].SeasonNumber)

	// 下一次触发时重试成功
	clock.Advance(2 * time.Second)
	acc.Flush(context.Background(), TriggerInterval)
	require.Empty(t, acc.Pending())
	require.Equal(t, 2, acc.Accumulated())
}

func TestDrainRetriesFIFOHaltsOnFailure(t *testing.T) {
	sub := &fakeSubmitter{errs: []error{errors.New("boom"), errors.New("boom")}}
	acc, _ := newTestAccumulator(sub)

	queued := []Submission{
		{UserID: "u", MediaType: "movie", MediaID: 1, TimeSpent: 10, PercentageWatched: "1.00"},
		{UserID: "u", MediaType: "movie", MediaID: 2, TimeSpent: 20, PercentageWatched: "2.00"},
		{UserID: "u", MediaType: "movie", MediaID: 3, TimeSpent: 30, PercentageWatched: "3.00"},
	}
	acc.retryQueue = append([]Submission(nil), queued...)

	require.Equal(t, 0, acc.DrainRetries(context.Background()))
	require.Equal(t, queued, acc.Pending())
	require.Len(t, sub.Calls(), 1)
	require.Equal(t, 1, sub.Calls()[0].MediaID)

	require.Equal(t, 0, acc.DrainRetries(context.Background()))
	require.Equal(t, queued, acc.Pending())

	// 第三次调用成功，之后按顺序全部送达
	require.Equal(t, 3, acc.DrainRetries(context.Background()))
	require.Empty(t, acc.Pending())

	calls := sub.Calls()
	require.Len(t, calls, 5)
	require.Equal(t, []int{1, 1, 1, 2, 3}, []int{calls[0].MediaID, calls[1].MediaID, calls[2].MediaID, calls[3].MediaID, calls[4].MediaID})
}

type blockingSubmitter struct {
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (b *blockingSubmitter) Submit(ctx context.Context, _ Submission) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func TestDrainRetriesGuardsConcurrentDrains(t *testing.T) {
	sub := &blockingSubmitter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	acc, _ := newTestAccumulator(sub)
	acc.retryQueue = []Submission{{UserID: "u", MediaType: "movie", MediaID: 1, PercentageWatched: "1.00"}}

	done := make(chan int)
	go func() { done <- acc.DrainRetries(context.Background()) }()
	<-sub.entered

	// 已有排空在进行中，第二次调用直接返回
	require.Equal(t, 0, acc.DrainRetries(context.Background()))

	close(sub.release)
	require.Equal(t, 1, <-done)
	require.Equal(t, 1, sub.calls)
}

func TestInvalidPayloadIsNotRetried(t *testing.T) {
	sub := &fakeSubmitter{errs: []error{ErrInvalidPayload}}
	acc, clock := newTestAccumulator(sub)
	acc.Reset(moviePlayback(), 90)

	clock.Advance(15 * time.Second)
	res := acc.Flush(context.Background(), TriggerInterval)
	require.True(t, res.Submitted)
	require.Empty(t, acc.Pending())
}

func TestResumeSkipsHiddenTime(t *testing.T) {
	sub := &fakeSubmitter{}
	acc, clock := newTestAccumulator(sub)
	acc.Reset(moviePlayback(), 90)

	clock.Advance(6 * time.Second)
	acc.Flush(context.Background(), TriggerHidden)

	// 后台停留一小时
	clock.Advance(time.Hour)
	acc.Resume()

	clock.Advance(3 * time.Second)
	acc.Flush(context.Background(), TriggerInterval)
	require.Equal(t, 9, acc.Accumulated())
	require.Empty(t, sub.Calls())
}

func TestResetStartsNewContext(t *testing.T) {
	sub := &fakeSubmitter{}
	acc, clock := newTestAccumulator(sub)
	acc.Reset(moviePlayback(), 90)

	clock.Advance(8 * time.Second)
	acc.Flush(context.Background(), TriggerInterval)
	require.Equal(t, 8, acc.Accumulated())

	next := moviePlayback()
	next.MediaID = 551
	acc.Reset(next, 100)
	require.Equal(t, 0, acc.Accumulated())
	require.Equal(t, 551, acc.Playback().MediaID)
}

func TestHiddenPausesCounting(t *testing.T) {
	sub := &fakeSubmitter{}
	acc, clock := newTestAccumulator(sub)
	acc.Reset(moviePlayback(), 90)
	ctx := context.Background()

	clock.Advance(6 * time.Second)
	acc.Flush(ctx, TriggerHidden)

	// 隐藏期间的定时 flush 和 pagehide 都不计时
	clock.Advance(45 * time.Second)
	res := acc.Flush(ctx, TriggerInterval)
	require.Equal(t, 0, res.SessionSeconds)
	clock.Advance(45 * time.Second)
	acc.Flush(ctx, TriggerPageHide)
	require.Equal(t, 6, acc.Accumulated())
	require.Empty(t, sub.Calls())

	acc.Resume()
	clock.Advance(5 * time.Second)
	res = acc.Flush(ctx, TriggerInterval)
	require.True(t, res.Submitted)
	require.Equal(t, 11, sub.Calls()[0].TimeSpent)
}
