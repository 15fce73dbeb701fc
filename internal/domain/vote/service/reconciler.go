package service

import (
	"context"
	"sync"

	"mochi_forums/internal/domain/vote/model"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultFailureMessage 投票失败且服务端未给出原因时的提示
const DefaultFailureMessage = "Failed to vote"

// Snapshot 可投票实体（帖子或评论）的服务端状态
type Snapshot struct {
	ID     string
	Counts model.Counts
	Vote   model.Vote
}

// SubmitFunc 提交投票，v 为空表示清除
type SubmitFunc func(ctx context.Context, id string, v model.Vote) error

// Reconciler 乐观投票：本地立即生效，异步提交。
// 所有提交结束时，若存在未被后续成功覆盖的失败，回到最近一次服务端确认的状态。
type Reconciler struct {
	mu       sync.Mutex
	current  Snapshot
	seq      uint64 // 每次本地变更或身份切换递增
	inflight int

	confirmed    Snapshot // 最近一次服务端确认的状态
	confirmedSeq uint64
	failedSeq    uint64 // 最近一次尚未回滚的失败
	failedErr    error

	submit  SubmitFunc
	notify  notify.Notifier
	metrics *metrics.MetricsCollector
	failMsg string
	wg      sync.WaitGroup
}

// Option 选项
type Option func(*Reconciler)

// WithNotifier 失败提示
func WithNotifier(n notify.Notifier) Option {
	return func(r *Reconciler) { r.notify = n }
}

// WithMetrics 指标
func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithFailureMessage 失败提示的默认文案
func WithFailureMessage(msg string) Option {
	return func(r *Reconciler) { r.failMsg = msg }
}

// NewReconciler 以服务端状态初始化
func NewReconciler(initial Snapshot, submit SubmitFunc, opts ...Option) *Reconciler {
	r := &Reconciler{
		current:   initial,
		confirmed: initial,
		submit:    submit,
		notify:    notify.Discard{},
		failMsg:   DefaultFailureMessage,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State 当前本地状态
func (r *Reconciler) State() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Pending 是否有未完成的提交
func (r *Reconciler) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

// Apply 用户选择 requested：选择已生效的投票会清除它。
// 新状态立即返回，提交在后台进行。
func (r *Reconciler) Apply(ctx context.Context, requested model.Vote) Snapshot {
	r.mu.Lock()
	before := r.current
	next := before.Vote.Toggle(requested)
	r.current.Counts = before.Counts.Move(before.Vote, next)
	r.current.Vote = next
	r.seq++
	seq := r.seq
	r.inflight++
	after := r.current
	r.mu.Unlock()

	r.wg.Add(1)
	go r.send(ctx, seq, after)

	return after
}

func (r *Reconciler) send(ctx context.Context, seq uint64, after Snapshot) {
	defer r.wg.Done()

	err := r.submit(ctx, after.ID, after.Vote)
	outcome, rollbackErr := r.settle(seq, after, err)

	if r.metrics != nil {
		r.metrics.RecordVote(outcome)
	}
	if err != nil {
		logger.Log.Warn("vote submit failed",
			zap.String("id", after.ID),
			zap.String("vote", string(after.Vote)),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
	if rollbackErr != nil {
		notify.ServerError(r.notify, rollbackErr, r.failMsg)
	}
}

// settle 记录一次提交结果，最后一个进行中的提交结束时决定是否回滚
func (r *Reconciler) settle(seq uint64, after Snapshot, err error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inflight--
	outcome := "ok"
	switch {
	case err != nil && seq <= r.confirmedSeq:
		// 之后的提交已成功，或实体已切换
		outcome = "superseded"
	case err != nil:
		outcome = "failed"
		if seq > r.failedSeq {
			r.failedSeq, r.failedErr = seq, err
		}
	case seq > r.confirmedSeq:
		r.confirmed, r.confirmedSeq = after, seq
		if r.failedSeq < seq {
			r.failedSeq, r.failedErr = 0, nil
		}
	}

	if r.inflight > 0 || r.failedSeq <= r.confirmedSeq {
		return outcome, nil
	}
	rollbackErr := r.failedErr
	r.current = r.confirmed
	r.failedSeq, r.failedErr = 0, nil
	return "rolled_back", rollbackErr
}

// Sync 接收服务端最新状态。
// 实体身份变化时丢弃本地乐观状态；同一实体只在没有进行中的提交时采用服务端票数。
func (r *Reconciler) Sync(s Snapshot) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case s.ID != r.current.ID:
		r.seq++ // 旧实体的提交结果不再回滚
	case r.inflight > 0:
		return r.current
	}
	r.current, r.confirmed, r.confirmedSeq = s, s, r.seq
	r.failedSeq, r.failedErr = 0, nil
	return r.current
}

// Wait 等待所有后台提交结束
func (r *Reconciler) Wait() {
	r.wg.Wait()
}
