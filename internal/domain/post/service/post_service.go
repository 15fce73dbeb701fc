package service

import (
	"context"
	"fmt"

	"mochi_forums/internal/domain/post/model"
	"mochi_forums/internal/domain/post/repository"
	vote "mochi_forums/internal/domain/vote/model"
	votes "mochi_forums/internal/domain/vote/service"
	"mochi_forums/internal/pkg/keys"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/uploader"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"
	"mochi_forums/pkg/security"

	"go.uber.org/zap"
)

type PostService interface {
	Overview(ctx context.Context) (*model.OverviewResponse, error)
	Feed(forum string, q FeedQuery) *Feed
	Get(ctx context.Context, forum, post string) (*model.ViewResponse, error)
	// Refresh 跳过缓存，重新获取帖子
	Refresh(ctx context.Context, forum, post string) (*model.ViewResponse, error)
	Create(ctx context.Context, in repository.CreateInput) (*model.CreateResponse, error)
	Edit(ctx context.Context, in repository.EditInput) error
	Delete(ctx context.Context, forum, post string) error

	// Voter 为帖子创建乐观投票
	Voter(p model.Post) *votes.Reconciler
}

type postService struct {
	repo    repository.PostRepository
	cache   *cache.QueryCache
	notify  notify.Notifier
	metrics *metrics.MetricsCollector
}

func NewPostService(repo repository.PostRepository, qc *cache.QueryCache, n notify.Notifier, m *metrics.MetricsCollector) PostService {
	if n == nil {
		n = notify.Discard{}
	}
	return &postService{repo: repo, cache: qc, notify: n, metrics: m}
}

func overviewKey() cache.Key {
	return keys.List().With("posts")
}

// Overview 全部论坛的最新帖子，补充论坛名
func (s *postService) Overview(ctx context.Context) (*model.OverviewResponse, error) {
	return cache.Query(ctx, s.cache, overviewKey(), func(ctx context.Context) (*model.OverviewResponse, error) {
		resp, err := s.repo.Overview(ctx)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(resp.Forums))
		for _, f := range resp.Forums {
			names[f.ID] = f.Name
		}
		for i := range resp.Posts {
			if resp.Posts[i].ForumName == "" {
				resp.Posts[i].ForumName = names[resp.Posts[i].Forum]
			}
		}
		return resp, nil
	})
}

func (s *postService) Feed(forum string, q FeedQuery) *Feed {
	return newFeed(s.repo, s.cache, forum, q)
}

func (s *postService) Get(ctx context.Context, forum, post string) (*model.ViewResponse, error) {
	return cache.Query(ctx, s.cache, keys.Post(forum, post), func(ctx context.Context) (*model.ViewResponse, error) {
		return s.repo.View(ctx, forum, post)
	})
}

func (s *postService) Refresh(ctx context.Context, forum, post string) (*model.ViewResponse, error) {
	return cache.Refetch(ctx, s.cache, keys.Post(forum, post), func(ctx context.Context) (*model.ViewResponse, error) {
		return s.repo.View(ctx, forum, post)
	})
}

func validatePost(title, body string) error {
	return security.ValidateAll(
		func() error { return security.TitleValidator.Validate(title) },
		func() error { return security.BodyValidator.Validate(body) },
	)
}

func validateFiles(files []*uploader.File) error {
	for _, f := range files {
		if f.Size > uploader.MaxAttachmentSize {
			return fmt.Errorf("attachment %s exceeds %d MB", f.Name, uploader.MaxAttachmentSize>>20)
		}
	}
	return nil
}

func (s *postService) Create(ctx context.Context, in repository.CreateInput) (*model.CreateResponse, error) {
	in.Title = security.TitleValidator.Sanitize(in.Title)
	in.Body = security.BodyValidator.Sanitize(in.Body)
	if err := validatePost(in.Title, in.Body); err != nil {
		return nil, err
	}
	if err := validateFiles(in.Files); err != nil {
		return nil, err
	}

	resp, err := s.repo.Create(ctx, in)
	if err != nil {
		notify.ServerError(s.notify, err, "Failed to create post")
		return nil, err
	}
	s.invalidate(ctx, in.Forum, "")
	s.notify.Success("Post published.")
	return resp, nil
}

func (s *postService) Edit(ctx context.Context, in repository.EditInput) error {
	in.Title = security.TitleValidator.Sanitize(in.Title)
	in.Body = security.BodyValidator.Sanitize(in.Body)
	if err := validatePost(in.Title, in.Body); err != nil {
		return err
	}
	_, files := uploader.BuildOrder(in.Slots)
	if err := validateFiles(files); err != nil {
		return err
	}

	if err := s.repo.Edit(ctx, in); err != nil {
		notify.ServerError(s.notify, err, "Failed to update post")
		return err
	}
	s.invalidate(ctx, in.Forum, in.Post)
	s.notify.Success("Post updated")
	return nil
}

func (s *postService) Delete(ctx context.Context, forum, post string) error {
	if err := s.repo.Delete(ctx, forum, post); err != nil {
		notify.ServerError(s.notify, err, "Failed to delete post")
		return err
	}
	s.invalidate(ctx, forum, post)
	s.notify.Success("Post deleted")
	return nil
}

func (s *postService) Voter(p model.Post) *votes.Reconciler {
	forum := p.Forum
	submit := func(ctx context.Context, id string, v vote.Vote) error {
		err := s.repo.Vote(ctx, forum, id, v)
		s.invalidate(ctx, forum, id)
		return err
	}
	return votes.NewReconciler(
		votes.Snapshot{ID: p.ID, Counts: p.Counts(), Vote: p.Vote},
		submit,
		votes.WithNotifier(s.notify),
		votes.WithMetrics(s.metrics),
	)
}

// invalidate 帖子变更后失效列表、论坛详情与帖子详情
func (s *postService) invalidate(ctx context.Context, forum, post string) {
	ks := []cache.Key{keys.List(), keys.Detail(forum), keys.Posts(forum)}
	if post != "" {
		ks = append(ks, keys.Post(forum, post))
	}
	if err := s.cache.InvalidateAll(ctx, ks...); err != nil {
		logger.Log.Warn("cache invalidation failed", zap.String("forum", forum), zap.Error(err))
	}
}
