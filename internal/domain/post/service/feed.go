package service

import (
	"context"
	"sync"

	forum "mochi_forums/internal/domain/forum/model"
	"mochi_forums/internal/domain/post/model"
	"mochi_forums/internal/domain/post/repository"
	"mochi_forums/internal/pkg/keys"
	"mochi_forums/pkg/cache"
	base "mochi_forums/pkg/model"
	"mochi_forums/pkg/utils"
)

// FeedMeta 论坛详情元数据，取自第一页
type FeedMeta struct {
	Forum       forum.Forum   `json:"forum"`
	Member      *forum.Member `json:"member,omitempty"`
	CanManage   bool          `json:"can_manage"`
	CanModerate bool          `json:"can_moderate"`
}

// Feed 论坛帖子的"加载更多"列表
type Feed struct {
	*utils.Cursor[model.Post]

	mu   sync.Mutex
	meta *FeedMeta
}

// Meta 第一页返回的论坛元数据，尚未加载时返回 nil
func (f *Feed) Meta() *FeedMeta {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta
}

func (f *Feed) setMeta(page *model.PageResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meta != nil {
		return
	}
	f.meta = &FeedMeta{
		Forum:       page.Forum,
		Member:      page.Member,
		CanManage:   page.CanManage,
		CanModerate: page.CanModerate,
	}
}

// FeedQuery 帖子列表参数
type FeedQuery struct {
	Sort   string
	Server string
	Limit  int
}

func detailKey(forumID, sort string) cache.Key {
	if sort == "" {
		sort = "new"
	}
	return keys.Detail(forumID).With(sort)
}

// newFeed 第一页走查询缓存，后续页直接请求
func newFeed(repo repository.PostRepository, qc *cache.QueryCache, forumID string, q FeedQuery) *Feed {
	feed := &Feed{}
	feed.Cursor = utils.NewCursor(func(ctx context.Context, before *int64) (utils.CursorPage[model.Post], error) {
		pq := repository.PageQuery{
			Pagination: utils.Pagination{Limit: q.Limit, Before: before},
			Sort:       q.Sort,
			Server:     q.Server,
		}

		var (
			page *model.PageResponse
			err  error
		)
		if before == nil {
			page, err = cache.Query(ctx, qc, detailKey(forumID, q.Sort), func(ctx context.Context) (*model.PageResponse, error) {
				return repo.Page(ctx, forumID, pq)
			})
		} else {
			page, err = repo.Page(ctx, forumID, pq)
		}
		if err != nil {
			return utils.CursorPage[model.Post]{}, err
		}

		feed.setMeta(page)
		return utils.CursorPage[model.Post]{
			Items:      page.Posts,
			HasMore:    page.HasMore,
			NextCursor: page.NextCursor,
		}, nil
	})
	return feed
}

// MergeByID 按 ID 合并多个列表
//
// 同一 ID 以最后出现的版本为准，位置保持首次出现的位置。
func MergeByID[T base.Identified](lists ...[]T) []T {
	index := make(map[string]int)
	var out []T
	for _, list := range lists {
		for _, item := range list {
			id := item.GetID()
			if i, ok := index[id]; ok {
				out[i] = item
				continue
			}
			index[id] = len(out)
			out = append(out, item)
		}
	}
	return out
}
