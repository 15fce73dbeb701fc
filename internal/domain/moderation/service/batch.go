package service

import (
	"context"
	"errors"
	"fmt"

	"mochi_forums/internal/domain/moderation/model"
	"mochi_forums/internal/domain/moderation/repository"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/worker"
	"mochi_forums/pkg/logger"

	"go.uber.org/zap"
)

// Operation 批量审核操作
type Operation string

const (
	OpApprove Operation = "approve"
	OpReject  Operation = "reject"
	OpMute    Operation = "mute"
	OpBan     Operation = "ban"
)

// Selection 队列中选中的帖子与评论
type Selection struct {
	Posts    []string
	Comments []string
}

// Empty 未选中任何条目
func (s Selection) Empty() bool {
	return len(s.Posts) == 0 && len(s.Comments) == 0
}

type item struct {
	kind   string // post | comment
	id     string
	post   string
	author string
}

// resolveItems 按队列顺序返回选中的条目，帖子在前
func resolveItems(queue *model.QueueResponse, sel Selection) []item {
	posts := toSet(sel.Posts)
	comments := toSet(sel.Comments)

	var items []item
	for _, p := range queue.Posts {
		if posts[p.ID] {
			items = append(items, item{kind: "post", id: p.ID, post: p.ID, author: p.Member})
		}
	}
	for _, c := range queue.Comments {
		if comments[c.ID] {
			items = append(items, item{kind: "comment", id: c.ID, post: c.Post, author: c.Member})
		}
	}
	return items
}

// resolveAuthors 选中条目的作者，跨帖子与评论去重
func resolveAuthors(queue *model.QueueResponse, sel Selection) []string {
	seen := make(map[string]bool)
	var authors []string
	for _, it := range resolveItems(queue, sel) {
		if it.author == "" || seen[it.author] {
			continue
		}
		seen[it.author] = true
		authors = append(authors, it.author)
	}
	return authors
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// batchText 每种操作的汇总提示
var batchText = map[Operation]struct {
	done, noun, failed string
}{
	OpApprove: {"Approved", "item", "Failed to approve items"},
	OpReject:  {"Rejected", "item", "Failed to reject items"},
	OpMute:    {"Muted", "user", "Failed to mute users"},
	OpBan:     {"Banned", "user", "Failed to ban users"},
}

// Approve 逐条通过选中的帖子与评论
func (s *moderationService) Approve(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection) worker.Result {
	items := resolveItems(queue, sel)
	tasks := make([]worker.Task, 0, len(items))
	for _, it := range items {
		tasks = append(tasks, s.itemTask(forum, it, repository.ActionApprove, ""))
	}
	return s.runBatch(ctx, forum, OpApprove, tasks)
}

// Reject 逐条移除选中的帖子与评论
func (s *moderationService) Reject(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection, reason string) worker.Result {
	if reason == "" {
		reason = "Rejected"
	}
	items := resolveItems(queue, sel)
	tasks := make([]worker.Task, 0, len(items))
	for _, it := range items {
		tasks = append(tasks, s.itemTask(forum, it, repository.ActionRemove, reason))
	}
	return s.runBatch(ctx, forum, OpReject, tasks)
}

// MuteAuthors 禁言选中条目的作者
func (s *moderationService) MuteAuthors(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection) worker.Result {
	return s.restrictAuthors(ctx, forum, queue, sel, OpMute, model.RestrictionMuted)
}

// BanAuthors 封禁选中条目的作者
func (s *moderationService) BanAuthors(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection) worker.Result {
	return s.restrictAuthors(ctx, forum, queue, sel, OpBan, model.RestrictionBanned)
}

func (s *moderationService) restrictAuthors(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection, op Operation, kind model.RestrictionType) worker.Result {
	authors := resolveAuthors(queue, sel)
	tasks := make([]worker.Task, 0, len(authors))
	for _, user := range authors {
		r := repository.Restrict{User: user, Type: kind}
		tasks = append(tasks, worker.Task{
			Name: fmt.Sprintf("%s %s", op, user),
			Run: func(ctx context.Context) error {
				return s.repo.Restrict(ctx, forum, r)
			},
		})
	}
	return s.runBatch(ctx, forum, op, tasks)
}

func (s *moderationService) itemTask(forum string, it item, action, reason string) worker.Task {
	return worker.Task{
		Name: fmt.Sprintf("%s %s %s", action, it.kind, it.id),
		Run: func(ctx context.Context) error {
			if it.kind == "post" {
				return s.repo.PostAction(ctx, forum, it.id, action, reason)
			}
			return s.repo.CommentAction(ctx, forum, it.post, it.id, action, reason)
		},
	}
}

// runBatch 顺序执行，整批只发一条通知，成功与失败都刷新队列
func (s *moderationService) runBatch(ctx context.Context, forum string, op Operation, tasks []worker.Task) worker.Result {
	text := batchText[op]
	if len(tasks) == 0 {
		s.notify.Info("No items selected")
		return worker.Result{}
	}

	res := worker.Sequence(ctx, tasks)
	s.recordBatch(op, res)
	s.invalidateQueue(ctx, forum)

	if !res.OK() {
		logger.Log.Warn("moderation batch failed",
			zap.String("forum", forum),
			zap.String("operation", string(op)),
			zap.Int("processed", res.Processed),
			zap.Int("aborted", res.Aborted),
			zap.Error(res.Err),
		)
		// 通知使用原始错误，不带任务名
		notify.ServerError(s.notify, errors.Unwrap(res.Err), text.failed)
		return res
	}
	s.notify.Success(fmt.Sprintf("%s %s", text.done, notify.Plural(res.Processed, text.noun)))
	return res
}

func (s *moderationService) recordBatch(op Operation, res worker.Result) {
	if s.metrics == nil {
		return
	}
	for i := 0; i < res.Processed; i++ {
		s.metrics.RecordBatchItem(string(op), "ok")
	}
	if res.Failed != "" {
		s.metrics.RecordBatchItem(string(op), "failed")
	}
	for i := 0; i < res.Aborted; i++ {
		s.metrics.RecordBatchItem(string(op), "aborted")
	}
}
