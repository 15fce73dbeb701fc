package notify

import (
	"fmt"
	"io"
	"sync"

	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/response"

	"go.uber.org/zap"
)

// Level 通知级别
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notifier 面向用户的短暂提示
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// ServerError 将错误转换为错误提示，错误不带信息时使用 fallback
func ServerError(n Notifier, err error, fallback string) {
	n.Error(response.Message(err, fallback))
}

// Plural 计数文案，例如 Plural(2, "item") -> "2 items"
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Writer 将提示写到终端，同时记录日志
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter 创建终端提示
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Success(msg string) { w.write(LevelSuccess, msg) }
func (w *Writer) Info(msg string)    { w.write(LevelInfo, msg) }
func (w *Writer) Error(msg string)   { w.write(LevelError, msg) }

func (w *Writer) write(level Level, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := "✓"
	switch level {
	case LevelInfo:
		prefix = "i"
	case LevelError:
		prefix = "✗"
	}
	fmt.Fprintf(w.out, "%s %s\n", prefix, msg)
	logger.Log.Debug("notification", zap.String("level", string(level)), zap.String("message", msg))
}

// Notification 一条记录
type Notification struct {
	Level   Level
	Message string
}

// Recorder 记录所有提示，测试使用
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// NewRecorder 创建记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: msg})
}

// All 全部记录
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Count 指定级别的数量
func (r *Recorder) Count(level Level) int {
	n := 0
	for _, item := range r.All() {
		if item.Level == level {
			n++
		}
	}
	return n
}

// Last 最后一条
func (r *Recorder) Last() (Notification, bool) {
	all := r.All()
	if len(all) == 0 {
		return Notification{}, false
	}
	return all[len(all)-1], true
}

// Discard 丢弃所有提示
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Info(string)    {}
func (Discard) Error(string)   {}
