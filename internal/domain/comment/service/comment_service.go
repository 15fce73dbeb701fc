package service

import (
	"context"

	"mochi_forums/internal/domain/comment/model"
	"mochi_forums/internal/domain/comment/repository"
	vote "mochi_forums/internal/domain/vote/model"
	votes "mochi_forums/internal/domain/vote/service"
	"mochi_forums/internal/pkg/keys"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"
	"mochi_forums/pkg/security"

	"go.uber.org/zap"
)

type CommentService interface {
	Thread(ctx context.Context, forum, post string) (*model.ThreadResponse, error)
	RefreshThread(ctx context.Context, forum, post string) (*model.ThreadResponse, error)
	Create(ctx context.Context, forum, post, parent, body string) (*model.CreateResponse, error)
	Edit(ctx context.Context, forum, post, comment, body string) error
	Delete(ctx context.Context, forum, post, comment string) error

	// Voter 为评论创建乐观投票
	Voter(forum string, c model.Comment) *votes.Reconciler
}

type commentService struct {
	repo    repository.CommentRepository
	cache   *cache.QueryCache
	notify  notify.Notifier
	metrics *metrics.MetricsCollector
}

func NewCommentService(repo repository.CommentRepository, qc *cache.QueryCache, n notify.Notifier, m *metrics.MetricsCollector) CommentService {
	if n == nil {
		n = notify.Discard{}
	}
	return &commentService{repo: repo, cache: qc, notify: n, metrics: m}
}

func threadKey(forum, post string) cache.Key {
	return keys.Post(forum, post).With("comments")
}

func (s *commentService) Thread(ctx context.Context, forum, post string) (*model.ThreadResponse, error) {
	return cache.Query(ctx, s.cache, threadKey(forum, post), func(ctx context.Context) (*model.ThreadResponse, error) {
		return s.repo.Thread(ctx, forum, post)
	})
}

func (s *commentService) RefreshThread(ctx context.Context, forum, post string) (*model.ThreadResponse, error) {
	return cache.Refetch(ctx, s.cache, threadKey(forum, post), func(ctx context.Context) (*model.ThreadResponse, error) {
		return s.repo.Thread(ctx, forum, post)
	})
}

func (s *commentService) Create(ctx context.Context, forum, post, parent, body string) (*model.CreateResponse, error) {
	body = security.CommentValidator.Sanitize(body)
	if err := security.CommentValidator.Validate(body); err != nil {
		return nil, err
	}

	resp, err := s.repo.Create(ctx, forum, post, parent, body)
	if err != nil {
		notify.ServerError(s.notify, err, "Failed to post comment")
		return nil, err
	}
	s.invalidate(ctx, forum, post)
	s.notify.Success("Comment posted")
	return resp, nil
}

func (s *commentService) Edit(ctx context.Context, forum, post, comment, body string) error {
	body = security.CommentValidator.Sanitize(body)
	if err := security.CommentValidator.Validate(body); err != nil {
		return err
	}

	if err := s.repo.Edit(ctx, forum, post, comment, body); err != nil {
		notify.ServerError(s.notify, err, "Failed to update comment")
		return err
	}
	s.invalidate(ctx, forum, post)
	s.notify.Success("Comment updated")
	return nil
}

func (s *commentService) Delete(ctx context.Context, forum, post, comment string) error {
	if err := s.repo.Delete(ctx, forum, post, comment); err != nil {
		notify.ServerError(s.notify, err, "Failed to delete comment")
		return err
	}
	s.invalidate(ctx, forum, post)
	s.notify.Success("Comment deleted")
	return nil
}

func (s *commentService) Voter(forum string, c model.Comment) *votes.Reconciler {
	post := c.Post
	submit := func(ctx context.Context, id string, v vote.Vote) error {
		err := s.repo.Vote(ctx, forum, post, id, v)
		// 无论成败都重新获取服务端状态
		s.invalidate(ctx, forum, post)
		return err
	}
	return votes.NewReconciler(
		votes.Snapshot{ID: c.ID, Counts: c.Counts(), Vote: c.Vote},
		submit,
		votes.WithNotifier(s.notify),
		votes.WithMetrics(s.metrics),
	)
}

func (s *commentService) invalidate(ctx context.Context, forum, post string) {
	if err := s.cache.InvalidateAll(ctx, keys.Post(forum, post), keys.Detail(forum)); err != nil {
		logger.Log.Warn("cache invalidation failed", zap.Error(err))
	}
}
