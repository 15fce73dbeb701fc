package repository

import (
	"context"

	"mochi_forums/internal/domain/comment/model"
	vote "mochi_forums/internal/domain/vote/model"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/routes"
)

type CommentRepository interface {
	Thread(ctx context.Context, forum, post string) (*model.ThreadResponse, error)
	Create(ctx context.Context, forum, post, parent, body string) (*model.CreateResponse, error)
	Edit(ctx context.Context, forum, post, comment, body string) error
	Delete(ctx context.Context, forum, post, comment string) error
	Vote(ctx context.Context, forum, post, comment string, v vote.Vote) error
}

type commentRepository struct {
	client *request.Client
	routes *routes.Router
}

func NewCommentRepository(client *request.Client) CommentRepository {
	return &commentRepository{client: client, routes: client.Routes()}
}

// Thread 从帖子详情中读取评论树
func (r *commentRepository) Thread(ctx context.Context, forum, post string) (*model.ThreadResponse, error) {
	resp, err := request.Get[model.ThreadResponse](ctx, r.client, "view post", r.routes.Post(forum, post), nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *commentRepository) Create(ctx context.Context, forum, post, parent, body string) (*model.CreateResponse, error) {
	payload := map[string]string{"forum": forum, "post": post, "body": body}
	if parent != "" {
		payload["parent"] = parent
	}
	resp, err := request.Post[model.CreateResponse](ctx, r.client, "create comment", r.routes.CommentCreate(forum, post), request.JSON(payload))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *commentRepository) Edit(ctx context.Context, forum, post, comment, body string) error {
	payload := map[string]string{"forum": forum, "post": post, "comment": comment, "body": body}
	_, err := request.Post[request.Empty](ctx, r.client, "edit comment", r.routes.CommentEdit(forum, post, comment), request.JSON(payload))
	return err
}

func (r *commentRepository) Delete(ctx context.Context, forum, post, comment string) error {
	payload := map[string]string{"forum": forum, "post": post, "comment": comment}
	_, err := request.Post[request.Empty](ctx, r.client, "delete comment", r.routes.CommentDelete(forum, post, comment), request.JSON(payload))
	return err
}

// Vote 空字符串表示清除投票，原样发送
func (r *commentRepository) Vote(ctx context.Context, forum, post, comment string, v vote.Vote) error {
	payload := map[string]string{"forum": forum, "post": post, "comment": comment, "vote": string(v)}
	_, err := request.Post[request.Empty](ctx, r.client, "vote comment", r.routes.CommentVote(forum, post, comment), request.JSON(payload))
	return err
}
