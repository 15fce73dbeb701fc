package worker

import (
	"context"
	"fmt"

	"mochi_forums/pkg/logger"

	"go.uber.org/zap"
)

// Task 有序队列中的一个任务
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result 顺序执行结果
//
// Processed 为成功完成的任务数，Failed 为出错的任务，Aborted 为未执行的剩余任务数。
type Result struct {
	Total     int
	Processed int
	Aborted   int
	Failed    string // 失败任务名
	Err       error
}

// OK 全部完成
func (r Result) OK() bool {
	return r.Err == nil
}

// Sequence 严格按顺序执行任务，前一个结束后才开始下一个，遇到第一个错误即停止。
// 已完成的任务不回滚。
func Sequence(ctx context.Context, tasks []Task) Result {
	res := Result{Total: len(tasks)}

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			res.Err = err
			res.Aborted = len(tasks) - i
			return res
		}

		if err := task.Run(ctx); err != nil {
			res.Err = fmt.Errorf("%s: %w", task.Name, err)
			res.Failed = task.Name
			res.Aborted = len(tasks) - i - 1
			logger.Log.Warn("sequence aborted",
				zap.String("task", task.Name),
				zap.Int("processed", res.Processed),
				zap.Int("aborted", res.Aborted),
				zap.Error(err),
			)
			return res
		}
		res.Processed++
	}

	return res
}
