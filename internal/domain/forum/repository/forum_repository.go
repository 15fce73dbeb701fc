package repository

import (
	"context"
	"net/url"

	"mochi_forums/internal/domain/forum/model"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/routes"
)

// ForumRepository 论坛接口访问
type ForumRepository interface {
	List(ctx context.Context) (*model.ListResponse, error)
	Info(ctx context.Context, forum string) (*model.Info, error)
	Create(ctx context.Context, name, privacy string) (*model.CreateResponse, error)
	Find(ctx context.Context) ([]model.DirectoryEntry, error)
	Search(ctx context.Context, term string) ([]model.DirectoryEntry, error)
	Probe(ctx context.Context, forumURL string) (*model.Probe, error)
	Recommendations(ctx context.Context) ([]model.Recommendation, error)

	Subscribe(ctx context.Context, forum, server string) (*model.SubscribeResponse, error)
	Unsubscribe(ctx context.Context, forum string) error

	Members(ctx context.Context, forum string) (*model.MembersResponse, error)
	SaveMemberRole(ctx context.Context, forum string, change RoleChange) error

	Access(ctx context.Context, forum string) (*model.AccessResponse, error)
	SetAccess(ctx context.Context, forum, user string, level model.AccessLevel) error
	RevokeAccess(ctx context.Context, forum, user string) error
}

// RoleChange 单个成员的角色变更
type RoleChange struct {
	Member string
	Role   model.Role
}

// Values 编码为 forum=<id>&role_<member>=<role>
func (c RoleChange) Values(forum string) url.Values {
	return url.Values{
		"forum":            {forum},
		"role_" + c.Member: {string(c.Role)},
	}
}

type forumRepository struct {
	client *request.Client
	routes *routes.Router
}

// NewForumRepository 创建论坛仓储
func NewForumRepository(client *request.Client) ForumRepository {
	return &forumRepository{client: client, routes: client.Routes()}
}

func (r *forumRepository) List(ctx context.Context) (*model.ListResponse, error) {
	resp, err := request.Get[model.ListResponse](ctx, r.client, "list forums", routes.List, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *forumRepository) Info(ctx context.Context, forum string) (*model.Info, error) {
	path := routes.Info
	if r.routes.EntityMode() {
		path = r.routes.ForumInfo(forum)
	}
	resp, err := request.Get[model.Info](ctx, r.client, "forum info", path, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *forumRepository) Create(ctx context.Context, name, privacy string) (*model.CreateResponse, error) {
	body := map[string]string{"name": name, "privacy": privacy}
	resp, err := request.Post[model.CreateResponse](ctx, r.client, "create forum", routes.Create, request.JSON(body))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *forumRepository) Find(ctx context.Context) ([]model.DirectoryEntry, error) {
	resp, err := request.Get[model.FindResponse](ctx, r.client, "find forums", routes.Find, nil)
	if err != nil {
		return nil, err
	}
	return resp.Forums, nil
}

func (r *forumRepository) Search(ctx context.Context, term string) ([]model.DirectoryEntry, error) {
	resp, err := request.Get[model.SearchResponse](ctx, r.client, "search forums", routes.Search, url.Values{"search": {term}})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (r *forumRepository) Probe(ctx context.Context, forumURL string) (*model.Probe, error) {
	resp, err := request.Get[model.Probe](ctx, r.client, "probe forum", routes.Probe, url.Values{"url": {forumURL}})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *forumRepository) Recommendations(ctx context.Context) ([]model.Recommendation, error) {
	resp, err := request.Get[model.RecommendationsResponse](ctx, r.client, "recommendations", routes.Recommendations, nil)
	if err != nil {
		return nil, err
	}
	return resp.Forums, nil
}

func (r *forumRepository) Subscribe(ctx context.Context, forum, server string) (*model.SubscribeResponse, error) {
	body := map[string]string{"forum": forum}
	if server != "" {
		body["server"] = server
	}
	resp, err := request.Post[model.SubscribeResponse](ctx, r.client, "subscribe", r.routes.Subscribe(forum), request.JSON(body))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *forumRepository) Unsubscribe(ctx context.Context, forum string) error {
	_, err := request.Post[request.Empty](ctx, r.client, "unsubscribe", r.routes.Unsubscribe(forum), request.JSON(map[string]string{"forum": forum}))
	return err
}

func (r *forumRepository) Members(ctx context.Context, forum string) (*model.MembersResponse, error) {
	resp, err := request.Get[model.MembersResponse](ctx, r.client, "members", r.routes.Members(forum), url.Values{"forum": {forum}})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *forumRepository) SaveMemberRole(ctx context.Context, forum string, change RoleChange) error {
	_, err := request.Post[request.Empty](ctx, r.client, "save members", r.routes.MembersSave(forum), request.Form(change.Values(forum)))
	return err
}

func (r *forumRepository) Access(ctx context.Context, forum string) (*model.AccessResponse, error) {
	resp, err := request.Get[model.AccessResponse](ctx, r.client, "access", r.routes.Access(forum), nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *forumRepository) SetAccess(ctx context.Context, forum, user string, level model.AccessLevel) error {
	body := map[string]string{"forum": forum, "user": user, "level": string(level)}
	_, err := request.Post[request.Empty](ctx, r.client, "set access", r.routes.AccessSet(forum), request.JSON(body))
	return err
}

func (r *forumRepository) RevokeAccess(ctx context.Context, forum, user string) error {
	body := map[string]string{"forum": forum, "user": user}
	_, err := request.Post[request.Empty](ctx, r.client, "revoke access", r.routes.AccessRevoke(forum), request.JSON(body))
	return err
}
