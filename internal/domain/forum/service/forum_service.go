package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"mochi_forums/internal/domain/forum/model"
	"mochi_forums/internal/domain/forum/repository"
	"mochi_forums/internal/pkg/keys"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/state"
	"mochi_forums/internal/pkg/worker"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/security"

	"go.uber.org/zap"
)

// 隐私设置
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

var privacyValidator = &security.EnumValidator{Field: "privacy", Allowed: []string{PrivacyPublic, PrivacyPrivate}}

// SearchEntry 搜索结果，标记是否已订阅
type SearchEntry struct {
	model.DirectoryEntry
	Subscribed bool `json:"subscribed"`
	Remote     bool `json:"remote,omitempty"`
}

type ForumService interface {
	List(ctx context.Context, mode state.ViewMode) ([]model.Forum, error)
	Info(ctx context.Context, forum string) (*model.Info, error)
	Create(ctx context.Context, name, privacy string) (*model.CreateResponse, error)
	Find(ctx context.Context) ([]model.DirectoryEntry, error)
	Search(ctx context.Context, term string) ([]SearchEntry, error)
	Recommendations(ctx context.Context) ([]model.Recommendation, error)

	Subscribe(ctx context.Context, forum, name string) error
	Unsubscribe(ctx context.Context, forum string) error

	Members(ctx context.Context, forum string) (*model.MembersResponse, error)
	SaveRoles(ctx context.Context, forum string, roles map[string]model.Role) worker.Result

	Access(ctx context.Context, forum string) (*model.AccessResponse, error)
	SetAccess(ctx context.Context, forum, user string, level model.AccessLevel) error
	RevokeAccess(ctx context.Context, forum, user string) error
}

type forumService struct {
	repo   repository.ForumRepository
	cache  *cache.QueryCache
	notify notify.Notifier
	state  *state.Store
}

func NewForumService(repo repository.ForumRepository, qc *cache.QueryCache, n notify.Notifier, store *state.Store) ForumService {
	if n == nil {
		n = notify.Discard{}
	}
	if store == nil {
		store = state.NewStore()
	}
	return &forumService{repo: repo, cache: qc, notify: n, state: store}
}

// IsForumURL 输入是否为论坛链接（走 probe 而不是目录搜索）
func IsForumURL(input string) bool {
	return strings.Contains(input, "/forums/") || strings.Contains(input, "/forums?")
}

func (s *forumService) subscribed(ctx context.Context) ([]model.Forum, error) {
	resp, err := cache.Query(ctx, s.cache, keys.List(), func(ctx context.Context) (*model.ListResponse, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return resp.Forums, nil
}

func (s *forumService) List(ctx context.Context, mode state.ViewMode) ([]model.Forum, error) {
	forums, err := s.subscribed(ctx)
	if err != nil {
		return nil, err
	}
	if mode != state.ViewOwned {
		return forums, nil
	}

	owned := make([]model.Forum, 0, len(forums))
	for _, f := range forums {
		if f.Owned() {
			owned = append(owned, f)
		}
	}
	return owned, nil
}

func (s *forumService) Info(ctx context.Context, forum string) (*model.Info, error) {
	return cache.Query(ctx, s.cache, keys.Info(forum), func(ctx context.Context) (*model.Info, error) {
		return s.repo.Info(ctx, forum)
	})
}

func (s *forumService) Create(ctx context.Context, name, privacy string) (*model.CreateResponse, error) {
	name = security.ForumNameValidator.Sanitize(name)
	if privacy == "" {
		privacy = PrivacyPublic
	}
	privacy = privacyValidator.Sanitize(privacy)
	if err := security.ValidateAll(
		func() error { return security.ForumNameValidator.Validate(name) },
		func() error { return privacyValidator.Validate(privacy) },
	); err != nil {
		return nil, err
	}

	resp, err := s.repo.Create(ctx, name, privacy)
	if err != nil {
		notify.ServerError(s.notify, err, "Failed to create forum")
		return nil, err
	}
	s.invalidate(ctx, keys.List())
	s.notify.Success("Forum created")
	return resp, nil
}

func (s *forumService) Find(ctx context.Context) ([]model.DirectoryEntry, error) {
	return cache.Query(ctx, s.cache, keys.Find(), s.repo.Find)
}

// Search 目录搜索；输入为论坛链接时改为探测远程论坛并缓存到状态中
func (s *forumService) Search(ctx context.Context, term string) ([]SearchEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	var entries []model.DirectoryEntry
	remote := IsForumURL(term)
	if remote {
		probe, err := s.repo.Probe(ctx, term)
		if err != nil {
			return nil, err
		}
		if probe != nil && probe.ID != "" {
			entry := probeEntry(probe)
			s.state.CacheRemoteForum(state.RemoteForum{
				ID:          entry.ID,
				Name:        entry.Name,
				Fingerprint: entry.Fingerprint,
				Server:      probe.Server,
			})
			entries = append(entries, entry)
		}
	} else {
		var err error
		entries, err = cache.Query(ctx, s.cache, keys.Search(term), func(ctx context.Context) ([]model.DirectoryEntry, error) {
			return s.repo.Search(ctx, term)
		})
		if err != nil {
			return nil, err
		}
	}

	forums, err := s.subscribed(ctx)
	if err != nil {
		// 订阅状态只用于标记，失败不影响结果
		logger.Log.Warn("load subscriptions for search failed", zap.Error(err))
	}

	results := make([]SearchEntry, 0, len(entries))
	for _, e := range entries {
		results = append(results, SearchEntry{
			DirectoryEntry: e,
			Subscribed:     isSubscribed(forums, e.ID, e.Fingerprint),
			Remote:         remote,
		})
	}
	return results, nil
}

func probeEntry(p *model.Probe) model.DirectoryEntry {
	name := p.Name
	if name == "" {
		name = "Remote Forum"
	}
	return model.DirectoryEntry{
		ID:                 p.ID,
		Fingerprint:        p.Fingerprint,
		FingerprintHyphens: p.Fingerprint,
		Name:               name,
		Class:              p.Class,
		Location:           p.Server,
	}
}

func isSubscribed(forums []model.Forum, id, fingerprint string) bool {
	for _, f := range forums {
		if f.ID == id || (fingerprint != "" && f.Fingerprint == fingerprint) {
			return true
		}
	}
	return false
}

// Recommendations 推荐论坛，过滤已订阅的
func (s *forumService) Recommendations(ctx context.Context) ([]model.Recommendation, error) {
	recs, err := cache.Query(ctx, s.cache, keys.Recommendations(), s.repo.Recommendations)
	if err != nil {
		return nil, err
	}
	forums, err := s.subscribed(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.Recommendation, 0, len(recs))
	for _, r := range recs {
		if !isSubscribed(forums, r.ID, r.Fingerprint) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Subscribe 订阅论坛；远程论坛使用搜索时缓存的服务器地址。name 非空时提示中带上论坛名。
func (s *forumService) Subscribe(ctx context.Context, forum, name string) error {
	var server string
	if remote, ok := s.state.RemoteForum(forum); ok {
		server = remote.Server
	}

	resp, err := s.repo.Subscribe(ctx, forum, server)
	if err != nil {
		notify.ServerError(s.notify, err, "Failed to subscribe")
		return err
	}

	s.invalidate(ctx, keys.List(), keys.Detail(forum), keys.Info(forum), keys.Recommendations())
	s.state.SetSubscription(&state.Subscription{IsRemote: server != "", IsSubscribed: true, CanUnsubscribe: true})

	switch {
	case resp != nil && resp.AlreadySubscribed:
		s.notify.Info("You are already subscribed to this forum")
	case name != "":
		s.notify.Success("Subscribed to " + name)
	default:
		s.notify.Success("Subscribed to forum")
	}
	return nil
}

func (s *forumService) Unsubscribe(ctx context.Context, forum string) error {
	if err := s.repo.Unsubscribe(ctx, forum); err != nil {
		notify.ServerError(s.notify, err, "Failed to unsubscribe")
		return err
	}
	s.invalidate(ctx, keys.List(), keys.Detail(forum), keys.Info(forum), keys.Recommendations())
	s.state.SetSubscription(&state.Subscription{IsSubscribed: false})
	if s.state.SelectedForum() == forum {
		s.state.SetSelectedForum("")
	}
	s.notify.Success("Unsubscribed")
	return nil
}

func (s *forumService) Members(ctx context.Context, forum string) (*model.MembersResponse, error) {
	return cache.Query(ctx, s.cache, keys.Members(forum), func(ctx context.Context) (*model.MembersResponse, error) {
		return s.repo.Members(ctx, forum)
	})
}

// SaveRoles 逐个成员保存角色，每次请求只包含一个成员，遇错即停
func (s *forumService) SaveRoles(ctx context.Context, forum string, roles map[string]model.Role) worker.Result {
	ids := make([]string, 0, len(roles))
	for id := range roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tasks := make([]worker.Task, 0, len(ids))
	for _, id := range ids {
		change := repository.RoleChange{Member: id, Role: roles[id]}
		tasks = append(tasks, worker.Task{
			Name: "role_" + id,
			Run: func(ctx context.Context) error {
				return s.repo.SaveMemberRole(ctx, forum, change)
			},
		})
	}

	res := worker.Sequence(ctx, tasks)
	s.invalidate(ctx, keys.Members(forum), keys.Access(forum))
	if !res.OK() {
		notify.ServerError(s.notify, errors.Unwrap(res.Err), "Failed to save members")
		return res
	}
	s.notify.Success(fmt.Sprintf("Saved %s", notify.Plural(res.Processed, "member")))
	return res
}

func (s *forumService) Access(ctx context.Context, forum string) (*model.AccessResponse, error) {
	return cache.Query(ctx, s.cache, keys.Access(forum), func(ctx context.Context) (*model.AccessResponse, error) {
		return s.repo.Access(ctx, forum)
	})
}

func (s *forumService) SetAccess(ctx context.Context, forum, user string, level model.AccessLevel) error {
	if err := s.repo.SetAccess(ctx, forum, user, level); err != nil {
		notify.ServerError(s.notify, err, "Failed to update access")
		return err
	}
	s.invalidate(ctx, keys.Access(forum), keys.Members(forum))
	s.notify.Success("Access updated")
	return nil
}

func (s *forumService) RevokeAccess(ctx context.Context, forum, user string) error {
	if err := s.repo.RevokeAccess(ctx, forum, user); err != nil {
		notify.ServerError(s.notify, err, "Failed to revoke access")
		return err
	}
	s.invalidate(ctx, keys.Access(forum), keys.Members(forum))
	s.notify.Success("Access revoked")
	return nil
}

func (s *forumService) invalidate(ctx context.Context, ks ...cache.Key) {
	if err := s.cache.InvalidateAll(ctx, ks...); err != nil {
		logger.Log.Warn("cache invalidation failed", zap.Error(err))
	}
}
