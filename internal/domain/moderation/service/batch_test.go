package service

import (
	"context"
	"errors"
	"testing"

	comment "mochi_forums/internal/domain/comment/model"
	"mochi_forums/internal/domain/moderation/model"
	"mochi_forums/internal/domain/moderation/repository"
	post "mochi_forums/internal/domain/post/model"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/metrics"
	"mochi_forums/pkg/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockModerationRepository is a mock of ModerationRepository
type MockModerationRepository struct {
	mock.Mock
}

func (m *MockModerationRepository) Settings(ctx context.Context, forum string) (*model.SettingsResponse, error) {
	args := m.Called(ctx, forum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SettingsResponse), args.Error(1)
}

func (m *MockModerationRepository) SaveSettings(ctx context.Context, forum string, s model.Settings) error {
	return m.Called(ctx, forum, s).Error(0)
}

func (m *MockModerationRepository) Queue(ctx context.Context, forum string) (*model.QueueResponse, error) {
	args := m.Called(ctx, forum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueResponse), args.Error(1)
}

func (m *MockModerationRepository) Log(ctx context.Context, forum string, p utils.Pagination) (*model.LogResponse, error) {
	args := m.Called(ctx, forum, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LogResponse), args.Error(1)
}

func (m *MockModerationRepository) Reports(ctx context.Context, forum string, status model.ReportStatus) (*model.ReportsResponse, error) {
	args := m.Called(ctx, forum, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReportsResponse), args.Error(1)
}

func (m *MockModerationRepository) Resolve(ctx context.Context, forum, report, action string) error {
	return m.Called(ctx, forum, report, action).Error(0)
}

func (m *MockModerationRepository) Restrictions(ctx context.Context, forum string) (*model.RestrictionsResponse, error) {
	args := m.Called(ctx, forum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RestrictionsResponse), args.Error(1)
}

func (m *MockModerationRepository) Restrict(ctx context.Context, forum string, r repository.Restrict) error {
	return m.Called(ctx, forum, r).Error(0)
}

func (m *MockModerationRepository) Unrestrict(ctx context.Context, forum, user string) error {
	return m.Called(ctx, forum, user).Error(0)
}

func (m *MockModerationRepository) PostAction(ctx context.Context, forum, post, action, reason string) error {
	return m.Called(ctx, forum, post, action, reason).Error(0)
}

func (m *MockModerationRepository) CommentAction(ctx context.Context, forum, post, comment, action, reason string) error {
	return m.Called(ctx, forum, post, comment, action, reason).Error(0)
}

func (m *MockModerationRepository) ReportPost(ctx context.Context, forum, post string, in repository.ReportInput) (string, error) {
	args := m.Called(ctx, forum, post, in)
	return args.String(0), args.Error(1)
}

func (m *MockModerationRepository) ReportComment(ctx context.Context, forum, post, comment string, in repository.ReportInput) (string, error) {
	args := m.Called(ctx, forum, post, comment, in)
	return args.String(0), args.Error(1)
}

func testQueue() *model.QueueResponse {
	return &model.QueueResponse{
		Posts: []post.Post{
			{ID: "p1", Member: "alice"},
			{ID: "p2", Member: "bob"},
			{ID: "p3", Member: "alice"},
		},
		Comments: []comment.Comment{
			{ID: "c1", Post: "p9", Member: "alice"},
			{ID: "c2", Post: "p9", Member: "carol"},
		},
	}
}

func TestBatchStopsAtFirstFailure(t *testing.T) {
	repo := new(MockModerationRepository)
	notes := notify.NewRecorder()
	m := metrics.NewMetricsCollector()
	svc := NewModerationService(repo, cache.NewQueryCache(nil), notes, m)
	ctx := context.Background()

	repo.On("Queue", mock.Anything, "f1").Return(testQueue(), nil)
	repo.On("PostAction", mock.Anything, "f1", "p1", repository.ActionApprove, "").Return(nil)
	repo.On("PostAction", mock.Anything, "f1", "p2", repository.ActionApprove, "").Return(errors.New("Post is locked"))

	queue, err := svc.Queue(ctx, "f1")
	require.NoError(t, err)

	res := svc.Approve(ctx, "f1", queue, Selection{Posts: []string{"p1", "p2", "p3"}})

	assert.False(t, res.OK())
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Aborted)
	repo.AssertNumberOfCalls(t, "PostAction", 2)
	repo.AssertNotCalled(t, "PostAction", mock.Anything, "f1", "p3", mock.Anything, mock.Anything)

	// 整批只有一条错误通知
	require.Len(t, notes.All(), 1)
	assert.Equal(t, 1, notes.Count(notify.LevelError))

	n, err := testutil.GatherAndCount(m.Registry(), "forums_moderation_batch_items_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n) // ok, failed, aborted

	// 失败后同样刷新队列
	_, err = svc.Queue(ctx, "f1")
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Queue", 2)
}

func TestBatchApproveMixedSelection(t *testing.T) {
	repo := new(MockModerationRepository)
	notes := notify.NewRecorder()
	svc := NewModerationService(repo, cache.NewQueryCache(nil), notes, nil)

	var order []string
	record := func(args mock.Arguments) {
		if len(args) == 5 {
			order = append(order, args.String(2))
			return
		}
		order = append(order, args.String(3))
	}
	repo.On("PostAction", mock.Anything, "f1", mock.Anything, repository.ActionApprove, "").Run(record).Return(nil)
	repo.On("CommentAction", mock.Anything, "f1", "p9", mock.Anything, repository.ActionApprove, "").Run(record).Return(nil)

	// 选择顺序不影响执行顺序，未在队列中的 ID 被忽略
	res := svc.Approve(context.Background(), "f1", testQueue(), Selection{Posts: []string{"p3", "p1", "gone"}, Comments: []string{"c2"}})

	require.True(t, res.OK())
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, []string{"p1", "p3", "c2"}, order)
	last, _ := notes.Last()
	assert.Equal(t, notify.Notification{Level: notify.LevelSuccess, Message: "Approved 3 items"}, last)
}

func TestBatchRejectPassesReason(t *testing.T) {
	repo := new(MockModerationRepository)
	svc := NewModerationService(repo, cache.NewQueryCache(nil), nil, nil)

	repo.On("CommentAction", mock.Anything, "f1", "p9", "c1", repository.ActionRemove, "Rejected").Return(nil)

	res := svc.Reject(context.Background(), "f1", testQueue(), Selection{Comments: []string{"c1"}}, "")
	assert.True(t, res.OK())
	repo.AssertExpectations(t)
}

func TestBatchMuteDistinctAuthors(t *testing.T) {
	repo := new(MockModerationRepository)
	notes := notify.NewRecorder()
	svc := NewModerationService(repo, cache.NewQueryCache(nil), notes, nil)

	var users []string
	repo.On("Restrict", mock.Anything, "f1", mock.Anything).Run(func(args mock.Arguments) {
		r := args.Get(2).(repository.Restrict)
		assert.Equal(t, model.RestrictionMuted, r.Type)
		users = append(users, r.User)
	}).Return(nil)

	sel := Selection{Posts: []string{"p1", "p2", "p3"}, Comments: []string{"c1", "c2"}}
	res := svc.MuteAuthors(context.Background(), "f1", testQueue(), sel)

	require.True(t, res.OK())
	assert.Equal(t, []string{"alice", "bob", "carol"}, users)
	last, _ := notes.Last()
	assert.Equal(t, "Muted 3 users", last.Message)
}

func TestBatchBanFailureMessage(t *testing.T) {
	repo := new(MockModerationRepository)
	notes := notify.NewRecorder()
	svc := NewModerationService(repo, cache.NewQueryCache(nil), notes, nil)

	repo.On("Restrict", mock.Anything, "f1", mock.Anything).Return(errors.New("")).Once()

	res := svc.BanAuthors(context.Background(), "f1", testQueue(), Selection{Posts: []string{"p1", "p2"}})
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Aborted)

	all := notes.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Failed to ban users", all[0].Message)
}

func TestBatchEmptySelection(t *testing.T) {
	repo := new(MockModerationRepository)
	notes := notify.NewRecorder()
	svc := NewModerationService(repo, cache.NewQueryCache(nil), notes, nil)

	res := svc.Approve(context.Background(), "f1", testQueue(), Selection{})
	assert.True(t, res.OK())
	assert.Zero(t, res.Total)
	last, _ := notes.Last()
	assert.Equal(t, notify.LevelInfo, last.Level)
	repo.AssertNotCalled(t, "PostAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
