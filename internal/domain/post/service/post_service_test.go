package service

import (
	"context"
	"errors"
	"testing"

	forum "mochi_forums/internal/domain/forum/model"
	"mochi_forums/internal/domain/post/model"
	"mochi_forums/internal/domain/post/repository"
	vote "mochi_forums/internal/domain/vote/model"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/uploader"
	"mochi_forums/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of PostRepository
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Overview(ctx context.Context) (*model.OverviewResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OverviewResponse), args.Error(1)
}

func (m *MockPostRepository) Page(ctx context.Context, forum string, q repository.PageQuery) (*model.PageResponse, error) {
	args := m.Called(ctx, forum, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PageResponse), args.Error(1)
}

func (m *MockPostRepository) View(ctx context.Context, forum, post string) (*model.ViewResponse, error) {
	args := m.Called(ctx, forum, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ViewResponse), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, in repository.CreateInput) (*model.CreateResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreateResponse), args.Error(1)
}

func (m *MockPostRepository) Edit(ctx context.Context, in repository.EditInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, forum, post string) error {
	return m.Called(ctx, forum, post).Error(0)
}

func (m *MockPostRepository) Vote(ctx context.Context, forum, post string, v vote.Vote) error {
	return m.Called(ctx, forum, post, v).Error(0)
}

func cursor(v int64) *int64 { return &v }

func firstPage(q repository.PageQuery) bool  { return q.Before == nil }
func secondPage(q repository.PageQuery) bool { return q.Before != nil && *q.Before == 100 }

func TestFeedConcatenatesPages(t *testing.T) {
	repo := new(MockPostRepository)
	svc := NewPostService(repo, cache.NewQueryCache(nil), nil, nil)
	ctx := context.Background()

	repo.On("Page", mock.Anything, "f1", mock.MatchedBy(firstPage)).Return(&model.PageResponse{
		Forum:       forum.Forum{ID: "f1", Name: "Go"},
		Posts:       []model.Post{{ID: "p3"}, {ID: "p2"}},
		CanModerate: true,
		HasMore:     true,
		NextCursor:  cursor(100),
	}, nil).Once()
	repo.On("Page", mock.Anything, "f1", mock.MatchedBy(secondPage)).Return(&model.PageResponse{
		Forum:   forum.Forum{ID: "f1", Name: "ignored"},
		Posts:   []model.Post{{ID: "p2"}, {ID: "p1"}},
		HasMore: false,
	}, nil).Once()

	feed := svc.Feed("f1", FeedQuery{Sort: "new"})
	assert.Nil(t, feed.Meta())

	require.NoError(t, feed.LoadAll(ctx))
	assert.Equal(t, 2, feed.Requests())
	assert.False(t, feed.HasMore())

	// 到达顺序拼接，不去重
	var ids []string
	for _, p := range feed.Items() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p3", "p2", "p2", "p1"}, ids)

	meta := feed.Meta()
	require.NotNil(t, meta)
	assert.Equal(t, "Go", meta.Forum.Name)
	assert.True(t, meta.CanModerate)

	n, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNumberOfCalls(t, "Page", 2)
}

func TestFeedFirstPageIsCached(t *testing.T) {
	repo := new(MockPostRepository)
	svc := NewPostService(repo, cache.NewQueryCache(nil), nil, nil)
	ctx := context.Background()

	repo.On("Page", mock.Anything, "f1", mock.Anything).Return(&model.PageResponse{
		Posts: []model.Post{{ID: "p1"}},
	}, nil)

	_, err := svc.Feed("f1", FeedQuery{}).LoadMore(ctx)
	require.NoError(t, err)
	_, err = svc.Feed("f1", FeedQuery{}).LoadMore(ctx)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Page", 1)

	repo.On("Delete", mock.Anything, "f1", "p1").Return(nil)
	require.NoError(t, svc.Delete(ctx, "f1", "p1"))

	_, err = svc.Feed("f1", FeedQuery{}).LoadMore(ctx)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Page", 2)
}

func TestMergeByID(t *testing.T) {
	list := []model.Post{{ID: "p1", Title: "one"}, {ID: "p2", Title: "two (list)"}}
	detail := []model.Post{{ID: "p2", Title: "two (detail)"}, {ID: "p3", Title: "three"}}

	t.Run("last write wins", func(t *testing.T) {
		merged := MergeByID(list, detail)
		require.Len(t, merged, 3)
		assert.Equal(t, []string{"p1", "p2", "p3"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
		assert.Equal(t, "two (detail)", merged[1].Title)
	})

	t.Run("reverse order", func(t *testing.T) {
		merged := MergeByID(detail, list)
		require.Len(t, merged, 3)
		assert.Equal(t, "p2", merged[0].ID)
		assert.Equal(t, "two (list)", merged[0].Title)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, MergeByID[model.Post]())
	})
}

func TestOverviewFillsForumNames(t *testing.T) {
	repo := new(MockPostRepository)
	svc := NewPostService(repo, cache.NewQueryCache(nil), nil, nil)

	repo.On("Overview", mock.Anything).Return(&model.OverviewResponse{
		Forums: []forum.Forum{{ID: "f1", Name: "Go"}},
		Posts:  []model.Post{{ID: "p1", Forum: "f1"}, {ID: "p2", Forum: "gone"}},
	}, nil)

	resp, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Go", resp.Posts[0].ForumName)
	assert.Empty(t, resp.Posts[1].ForumName)
}

func TestCreateValidation(t *testing.T) {
	repo := new(MockPostRepository)
	notes := notify.NewRecorder()
	svc := NewPostService(repo, cache.NewQueryCache(nil), notes, nil)
	ctx := context.Background()

	t.Run("missing title", func(t *testing.T) {
		_, err := svc.Create(ctx, repository.CreateInput{Forum: "f1", Title: "  ", Body: "b"})
		require.Error(t, err)
	})

	t.Run("oversized attachment", func(t *testing.T) {
		big := uploader.FromBytes("big.bin", nil)
		big.Size = uploader.MaxAttachmentSize + 1
		_, err := svc.Create(ctx, repository.CreateInput{Forum: "f1", Title: "t", Body: "b", Files: []*uploader.File{big}})
		require.Error(t, err)
	})

	t.Run("published", func(t *testing.T) {
		repo.On("Create", mock.Anything, mock.Anything).Return(&model.CreateResponse{Forum: "f1", Post: "p1"}, nil).Once()
		resp, err := svc.Create(ctx, repository.CreateInput{Forum: "f1", Title: " Hello ", Body: "World"})
		require.NoError(t, err)
		assert.Equal(t, "p1", resp.Post)

		in := repo.Calls[len(repo.Calls)-1].Arguments.Get(1).(repository.CreateInput)
		assert.Equal(t, "Hello", in.Title)
		last, _ := notes.Last()
		assert.Equal(t, "Post published.", last.Message)
	})

	t.Run("server error", func(t *testing.T) {
		repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("")).Once()
		_, err := svc.Create(ctx, repository.CreateInput{Forum: "f1", Title: "t", Body: "b"})
		require.Error(t, err)
		last, _ := notes.Last()
		assert.Equal(t, notify.LevelError, last.Level)
		assert.Equal(t, "Failed to create post", last.Message)
	})
}

func TestPostVoter(t *testing.T) {
	repo := new(MockPostRepository)
	svc := NewPostService(repo, cache.NewQueryCache(nil), nil, nil)

	repo.On("Vote", mock.Anything, "f1", "p1", vote.Up).Return(nil)

	r := svc.Voter(model.Post{ID: "p1", Forum: "f1", Up: 4})
	assert.Equal(t, 5, r.Apply(context.Background(), vote.Up).Counts.Up)
	r.Wait()
	assert.Equal(t, vote.Up, r.State().Vote)
	repo.AssertExpectations(t)
}
