package repository

import (
	"context"
	"net/url"

	"mochi_forums/internal/domain/post/model"
	vote "mochi_forums/internal/domain/vote/model"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/routes"
	"mochi_forums/internal/pkg/uploader"
	"mochi_forums/pkg/utils"
)

// PageQuery 论坛帖子分页参数
type PageQuery struct {
	utils.Pagination
	Sort   string
	Server string // 远程论坛
}

// Values 查询参数
func (q PageQuery) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Pagination.Params() {
		v.Set(k, val)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Server != "" {
		v.Set("server", q.Server)
	}
	return v
}

// CreateInput 发帖
type CreateInput struct {
	Forum string
	Title string
	Body  string
	Files []*uploader.File
}

// EditInput 编辑帖子，Slots 为编辑后的附件顺序
type EditInput struct {
	Forum string
	Post  string
	Title string
	Body  string
	Slots []uploader.Slot
}

type PostRepository interface {
	Overview(ctx context.Context) (*model.OverviewResponse, error)
	Page(ctx context.Context, forum string, q PageQuery) (*model.PageResponse, error)
	View(ctx context.Context, forum, post string) (*model.ViewResponse, error)
	Create(ctx context.Context, in CreateInput) (*model.CreateResponse, error)
	Edit(ctx context.Context, in EditInput) error
	Delete(ctx context.Context, forum, post string) error
	Vote(ctx context.Context, forum, post string, v vote.Vote) error
}

type postRepository struct {
	client *request.Client
	routes *routes.Router
}

func NewPostRepository(client *request.Client) PostRepository {
	return &postRepository{client: client, routes: client.Routes()}
}

func (r *postRepository) Overview(ctx context.Context) (*model.OverviewResponse, error) {
	resp, err := request.Get[model.OverviewResponse](ctx, r.client, "list forums", routes.List, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *postRepository) Page(ctx context.Context, forum string, q PageQuery) (*model.PageResponse, error) {
	resp, err := request.Get[model.PageResponse](ctx, r.client, "view forum", r.routes.View(forum), q.Values())
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *postRepository) View(ctx context.Context, forum, post string) (*model.ViewResponse, error) {
	resp, err := request.Get[model.ViewResponse](ctx, r.client, "view post", r.routes.Post(forum, post), nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *postRepository) Create(ctx context.Context, in CreateInput) (*model.CreateResponse, error) {
	form := uploader.NewForm().
		AddField("forum", in.Forum).
		AddField("title", in.Title).
		AddField("body", in.Body)
	for _, f := range in.Files {
		form.AddFile("attachments", f)
	}

	resp, err := request.Post[model.CreateResponse](ctx, r.client, "create post", routes.PostCreate, form)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Edit multipart：order 混合已有附件 ID 与 new:<i>，attachments 按占位顺序给出新文件
func (r *postRepository) Edit(ctx context.Context, in EditInput) error {
	form := EditForm(in)
	_, err := request.Post[request.Empty](ctx, r.client, "edit post", r.routes.PostEdit(in.Forum, in.Post), form)
	return err
}

// EditForm 构造编辑帖子的表单
func EditForm(in EditInput) *uploader.Form {
	order, files := uploader.BuildOrder(in.Slots)
	form := uploader.NewForm().
		AddField("forum", in.Forum).
		AddField("post", in.Post).
		AddField("title", in.Title).
		AddField("body", in.Body)
	for _, id := range order {
		form.AddField("order", id)
	}
	for _, f := range files {
		form.AddFile("attachments", f)
	}
	return form
}

func (r *postRepository) Delete(ctx context.Context, forum, post string) error {
	body := map[string]string{"forum": forum, "post": post}
	_, err := request.Post[request.Empty](ctx, r.client, "delete post", r.routes.PostDelete(forum, post), request.JSON(body))
	return err
}

// Vote 空字符串表示清除投票，原样发送
func (r *postRepository) Vote(ctx context.Context, forum, post string, v vote.Vote) error {
	body := map[string]string{"forum": forum, "post": post, "vote": string(v)}
	_, err := request.Post[request.Empty](ctx, r.client, "vote post", r.routes.PostVote(forum, post), request.JSON(body))
	return err
}
