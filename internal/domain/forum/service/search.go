package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultSearchDelay 输入停止后发起搜索的等待时间
const DefaultSearchDelay = 500 * time.Millisecond

// SearchFunc 执行一次搜索
type SearchFunc func(ctx context.Context, term string) ([]SearchEntry, error)

// Results 一次搜索的结果，Seq 为发起时的序号
type Results struct {
	Seq     uint64
	Term    string
	Entries []SearchEntry
	Err     error
}

// Debouncer 防抖搜索
//
// 每次输入重置计时器并递增序号；请求返回时若序号已不是最新则丢弃结果，
// 因此乱序到达的旧响应不会覆盖新结果。
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	seq     uint64
	latest  Results
	search  SearchFunc
	deliver func(Results)
	metrics *metrics.MetricsCollector
	wg      sync.WaitGroup

	deliverMu sync.Mutex // 串行投递，先于 mu 加锁
}

// DebouncerOption 选项
type DebouncerOption func(*Debouncer)

// WithDelay 设置防抖时间
func WithDelay(d time.Duration) DebouncerOption {
	return func(db *Debouncer) {
		if d > 0 {
			db.delay = d
		}
	}
}

// WithSearchMetrics 记录被丢弃的过期响应
func WithSearchMetrics(m *metrics.MetricsCollector) DebouncerOption {
	return func(db *Debouncer) { db.metrics = m }
}

// NewDebouncer 创建防抖搜索，deliver 在有效结果到达时调用
func NewDebouncer(search SearchFunc, deliver func(Results), opts ...DebouncerOption) *Debouncer {
	d := &Debouncer{
		delay:   DefaultSearchDelay,
		search:  search,
		deliver: deliver,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Type 输入变化；空输入立即清空结果且不发请求
func (d *Debouncer) Type(ctx context.Context, term string) {
	term = strings.TrimSpace(term)

	d.mu.Lock()
	d.seq++
	seq := d.seq
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil

	if term == "" {
		d.mu.Unlock()
		d.emit(Results{Seq: seq})
		return
	}

	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.run(ctx, seq, term)
	})
	d.mu.Unlock()
}

func (d *Debouncer) run(ctx context.Context, seq uint64, term string) {
	if !d.current(seq) {
		return
	}

	entries, err := d.search(ctx, term)
	if err != nil {
		logger.Log.Warn("forum search failed", zap.String("term", term), zap.Error(err))
		entries = nil
	}

	if !d.emit(Results{Seq: seq, Term: term, Entries: entries, Err: err}) {
		logger.Log.Debug("stale search response discarded", zap.String("term", term), zap.Uint64("seq", seq))
		if d.metrics != nil {
			d.metrics.RecordStaleResponse()
		}
	}
}

func (d *Debouncer) current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq == seq
}

// emit 投递结果；投递串行进行，且只投递序号仍为最新的结果
func (d *Debouncer) emit(res Results) bool {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if d.seq != res.Seq {
		d.mu.Unlock()
		return false
	}
	d.latest = res
	d.mu.Unlock()

	if d.deliver != nil {
		d.deliver(res)
	}
	return true
}

// Latest 最近一次有效结果
func (d *Debouncer) Latest() Results {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

// Stop 取消等待中的搜索，进行中的请求结果将被丢弃
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}

// Wait 等待计时器与进行中的请求结束
func (d *Debouncer) Wait() {
	d.wg.Wait()
}
