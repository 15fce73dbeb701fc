package service

import (
	"context"
	"errors"

	"mochi_forums/internal/domain/moderation/model"
	"mochi_forums/internal/domain/moderation/repository"
	"mochi_forums/internal/pkg/keys"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/worker"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"
	"mochi_forums/pkg/security"
	"mochi_forums/pkg/utils"

	"go.uber.org/zap"
)

// ErrUnknownAction 不支持的审核动作
var ErrUnknownAction = errors.New("unknown moderation action")

// ReasonEnum 举报原因
var ReasonEnum = &security.EnumValidator{Field: "reason", Allowed: model.ReportReasons}

type ModerationService interface {
	Settings(ctx context.Context, forum string) (*model.SettingsResponse, error)
	SaveSettings(ctx context.Context, forum string, s model.Settings) error
	Queue(ctx context.Context, forum string) (*model.QueueResponse, error)
	Log(forum string, limit int) *utils.Cursor[model.LogEntry]
	Reports(ctx context.Context, forum string, status model.ReportStatus) (*model.ReportsResponse, error)
	Resolve(ctx context.Context, forum, report, action string) error
	Restrictions(ctx context.Context, forum string) (*model.RestrictionsResponse, error)
	Restrict(ctx context.Context, forum string, r repository.Restrict) error
	Unrestrict(ctx context.Context, forum, user string) error

	PostAction(ctx context.Context, forum, post, action, reason string) error
	CommentAction(ctx context.Context, forum, post, comment, action, reason string) error
	ReportPost(ctx context.Context, forum, post string, in repository.ReportInput) (string, error)
	ReportComment(ctx context.Context, forum, post, comment string, in repository.ReportInput) (string, error)

	// 批量操作
	Approve(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection) worker.Result
	Reject(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection, reason string) worker.Result
	MuteAuthors(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection) worker.Result
	BanAuthors(ctx context.Context, forum string, queue *model.QueueResponse, sel Selection) worker.Result
}

type moderationService struct {
	repo    repository.ModerationRepository
	cache   *cache.QueryCache
	notify  notify.Notifier
	metrics *metrics.MetricsCollector
}

func NewModerationService(repo repository.ModerationRepository, qc *cache.QueryCache, n notify.Notifier, m *metrics.MetricsCollector) ModerationService {
	if n == nil {
		n = notify.Discard{}
	}
	return &moderationService{repo: repo, cache: qc, notify: n, metrics: m}
}

func (s *moderationService) Settings(ctx context.Context, forum string) (*model.SettingsResponse, error) {
	return cache.Query(ctx, s.cache, keys.Settings(forum), func(ctx context.Context) (*model.SettingsResponse, error) {
		return s.repo.Settings(ctx, forum)
	})
}

func (s *moderationService) SaveSettings(ctx context.Context, forum string, settings model.Settings) error {
	if err := s.repo.SaveSettings(ctx, forum, settings); err != nil {
		notify.ServerError(s.notify, err, "Failed to save settings")
		return err
	}
	s.invalidate(ctx, keys.Settings(forum))
	s.notify.Success("Settings saved")
	return nil
}

func (s *moderationService) Queue(ctx context.Context, forum string) (*model.QueueResponse, error) {
	return cache.Query(ctx, s.cache, keys.Queue(forum), func(ctx context.Context) (*model.QueueResponse, error) {
		return s.repo.Queue(ctx, forum)
	})
}

// Log 审核日志游标，不缓存
func (s *moderationService) Log(forum string, limit int) *utils.Cursor[model.LogEntry] {
	return utils.NewCursor(func(ctx context.Context, before *int64) (utils.CursorPage[model.LogEntry], error) {
		resp, err := s.repo.Log(ctx, forum, utils.Pagination{Limit: limit, Before: before})
		if err != nil {
			return utils.CursorPage[model.LogEntry]{}, err
		}
		return utils.CursorPage[model.LogEntry]{Items: resp.Entries, HasMore: resp.HasMore, NextCursor: resp.NextCursor}, nil
	})
}

func (s *moderationService) Reports(ctx context.Context, forum string, status model.ReportStatus) (*model.ReportsResponse, error) {
	if status == "" {
		status = model.ReportPending
	}
	return cache.Query(ctx, s.cache, keys.Reports(forum).With(string(status)), func(ctx context.Context) (*model.ReportsResponse, error) {
		return s.repo.Reports(ctx, forum, status)
	})
}

func (s *moderationService) Resolve(ctx context.Context, forum, report, action string) error {
	if err := s.repo.Resolve(ctx, forum, report, action); err != nil {
		notify.ServerError(s.notify, err, "Failed to resolve report")
		return err
	}
	s.invalidate(ctx, keys.Reports(forum))
	s.notify.Success("Report resolved")
	return nil
}

func (s *moderationService) Restrictions(ctx context.Context, forum string) (*model.RestrictionsResponse, error) {
	return cache.Query(ctx, s.cache, keys.Restrictions(forum), func(ctx context.Context) (*model.RestrictionsResponse, error) {
		return s.repo.Restrictions(ctx, forum)
	})
}

var restrictText = map[model.RestrictionType]string{
	model.RestrictionMuted:     "User muted",
	model.RestrictionBanned:    "User banned",
	model.RestrictionShadowban: "User shadowbanned",
}

func (s *moderationService) Restrict(ctx context.Context, forum string, r repository.Restrict) error {
	r.Reason = security.ReasonValidator.Sanitize(r.Reason)
	if err := security.ReasonValidator.Validate(r.Reason); err != nil {
		return err
	}
	if err := s.repo.Restrict(ctx, forum, r); err != nil {
		notify.ServerError(s.notify, err, "Failed to restrict user")
		return err
	}
	s.invalidate(ctx, keys.Restrictions(forum))
	s.notify.Success(restrictText[r.Type])
	return nil
}

func (s *moderationService) Unrestrict(ctx context.Context, forum, user string) error {
	if err := s.repo.Unrestrict(ctx, forum, user); err != nil {
		notify.ServerError(s.notify, err, "Failed to remove restriction")
		return err
	}
	s.invalidate(ctx, keys.Restrictions(forum))
	s.notify.Success("Restriction removed")
	return nil
}

var postActionText = map[string]string{
	repository.ActionRemove:  "Post removed",
	repository.ActionRestore: "Post restored",
	repository.ActionApprove: "Post approved",
	repository.ActionLock:    "Post locked",
	repository.ActionUnlock:  "Post unlocked",
	repository.ActionPin:     "Post pinned",
	repository.ActionUnpin:   "Post unpinned",
}

var commentActionText = map[string]string{
	repository.ActionRemove:  "Comment removed",
	repository.ActionRestore: "Comment restored",
	repository.ActionApprove: "Comment approved",
}

func (s *moderationService) PostAction(ctx context.Context, forum, post, action, reason string) error {
	msg, ok := postActionText[action]
	if !ok {
		return ErrUnknownAction
	}
	if err := s.repo.PostAction(ctx, forum, post, action, reason); err != nil {
		notify.ServerError(s.notify, err, "Failed to "+action+" post")
		return err
	}
	s.invalidateContent(ctx, forum, post)
	s.notify.Success(msg)
	return nil
}

func (s *moderationService) CommentAction(ctx context.Context, forum, post, comment, action, reason string) error {
	msg, ok := commentActionText[action]
	if !ok {
		return ErrUnknownAction
	}
	if err := s.repo.CommentAction(ctx, forum, post, comment, action, reason); err != nil {
		notify.ServerError(s.notify, err, "Failed to "+action+" comment")
		return err
	}
	s.invalidateContent(ctx, forum, post)
	s.notify.Success(msg)
	return nil
}

func validateReport(in repository.ReportInput) error {
	return security.ValidateAll(
		func() error { return ReasonEnum.Validate(in.Reason) },
		func() error { return security.DetailsValidator.Validate(in.Details) },
	)
}

func (s *moderationService) ReportPost(ctx context.Context, forum, post string, in repository.ReportInput) (string, error) {
	if err := validateReport(in); err != nil {
		return "", err
	}
	id, err := s.repo.ReportPost(ctx, forum, post, in)
	if err != nil {
		notify.ServerError(s.notify, err, "Failed to submit report")
		return "", err
	}
	s.invalidate(ctx, keys.Reports(forum))
	s.notify.Success("Report submitted")
	return id, nil
}

func (s *moderationService) ReportComment(ctx context.Context, forum, post, comment string, in repository.ReportInput) (string, error) {
	if err := validateReport(in); err != nil {
		return "", err
	}
	id, err := s.repo.ReportComment(ctx, forum, post, comment, in)
	if err != nil {
		notify.ServerError(s.notify, err, "Failed to submit report")
		return "", err
	}
	s.invalidate(ctx, keys.Reports(forum))
	s.notify.Success("Report submitted")
	return id, nil
}

// invalidateContent 审核动作影响帖子详情、论坛列表与队列
func (s *moderationService) invalidateContent(ctx context.Context, forum, post string) {
	s.invalidate(ctx, keys.Post(forum, post), keys.Detail(forum), keys.List(), keys.Queue(forum))
}

func (s *moderationService) invalidateQueue(ctx context.Context, forum string) {
	s.invalidate(ctx, keys.Queue(forum), keys.Detail(forum), keys.List())
}

func (s *moderationService) invalidate(ctx context.Context, ks ...cache.Key) {
	if err := s.cache.InvalidateAll(ctx, ks...); err != nil {
		logger.Log.Warn("cache invalidation failed", zap.Error(err))
	}
}
