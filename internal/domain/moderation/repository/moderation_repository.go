package repository

import (
	"context"
	"net/url"

	"mochi_forums/internal/domain/moderation/model"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/routes"
	"mochi_forums/pkg/utils"
)

// 帖子审核动作
const (
	ActionRemove  = "remove"
	ActionRestore = "restore"
	ActionApprove = "approve"
	ActionLock    = "lock"
	ActionUnlock  = "unlock"
	ActionPin     = "pin"
	ActionUnpin   = "unpin"
	ActionReport  = "report"
)

// Restrict 限制用户参数，Expires 为 0 表示永久
type Restrict struct {
	User    string
	Type    model.RestrictionType
	Reason  string
	Expires int64
}

// ReportInput 举报参数
type ReportInput struct {
	Reason  string
	Details string
}

type ModerationRepository interface {
	Settings(ctx context.Context, forum string) (*model.SettingsResponse, error)
	SaveSettings(ctx context.Context, forum string, s model.Settings) error
	Queue(ctx context.Context, forum string) (*model.QueueResponse, error)
	Log(ctx context.Context, forum string, p utils.Pagination) (*model.LogResponse, error)
	Reports(ctx context.Context, forum string, status model.ReportStatus) (*model.ReportsResponse, error)
	Resolve(ctx context.Context, forum, report, action string) error
	Restrictions(ctx context.Context, forum string) (*model.RestrictionsResponse, error)
	Restrict(ctx context.Context, forum string, r Restrict) error
	Unrestrict(ctx context.Context, forum, user string) error

	// PostAction remove/restore/approve/lock/unlock/pin/unpin，reason 仅 remove 使用
	PostAction(ctx context.Context, forum, post, action, reason string) error
	// CommentAction remove/restore/approve
	CommentAction(ctx context.Context, forum, post, comment, action, reason string) error
	ReportPost(ctx context.Context, forum, post string, in ReportInput) (string, error)
	ReportComment(ctx context.Context, forum, post, comment string, in ReportInput) (string, error)
}

type moderationRepository struct {
	client *request.Client
	routes *routes.Router
}

func NewModerationRepository(client *request.Client) ModerationRepository {
	return &moderationRepository{client: client, routes: client.Routes()}
}

func forumQuery(forum string) url.Values {
	return url.Values{"forum": {forum}}
}

func (r *moderationRepository) Settings(ctx context.Context, forum string) (*model.SettingsResponse, error) {
	resp, err := request.Get[model.SettingsResponse](ctx, r.client, "moderation settings", r.routes.Moderation(forum, "settings"), forumQuery(forum))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *moderationRepository) SaveSettings(ctx context.Context, forum string, s model.Settings) error {
	body := struct {
		Forum string `json:"forum"`
		model.Settings
	}{forum, s}
	_, err := request.Post[request.Empty](ctx, r.client, "save moderation settings", r.routes.Moderation(forum, "settings", "save"), request.JSON(body))
	return err
}

func (r *moderationRepository) Queue(ctx context.Context, forum string) (*model.QueueResponse, error) {
	resp, err := request.Get[model.QueueResponse](ctx, r.client, "moderation queue", r.routes.Moderation(forum, "queue"), forumQuery(forum))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *moderationRepository) Log(ctx context.Context, forum string, p utils.Pagination) (*model.LogResponse, error) {
	q := forumQuery(forum)
	for k, v := range p.Params() {
		q.Set(k, v)
	}
	resp, err := request.Get[model.LogResponse](ctx, r.client, "moderation log", r.routes.Moderation(forum, "log"), q)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *moderationRepository) Reports(ctx context.Context, forum string, status model.ReportStatus) (*model.ReportsResponse, error) {
	q := forumQuery(forum)
	if status != "" {
		q.Set("status", string(status))
	}
	resp, err := request.Get[model.ReportsResponse](ctx, r.client, "reports", r.routes.Moderation(forum, "reports"), q)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *moderationRepository) Resolve(ctx context.Context, forum, report, action string) error {
	body := map[string]string{"forum": forum, "report": report, "action": action}
	_, err := request.Post[request.Empty](ctx, r.client, "resolve report", r.routes.Moderation(forum, "reports", report, "resolve"), request.JSON(body))
	return err
}

func (r *moderationRepository) Restrictions(ctx context.Context, forum string) (*model.RestrictionsResponse, error) {
	resp, err := request.Get[model.RestrictionsResponse](ctx, r.client, "restrictions", r.routes.Moderation(forum, "restrictions"), forumQuery(forum))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *moderationRepository) Restrict(ctx context.Context, forum string, in Restrict) error {
	body := map[string]any{"forum": forum, "user": in.User, "type": in.Type}
	if in.Reason != "" {
		body["reason"] = in.Reason
	}
	if in.Expires > 0 {
		body["expires"] = in.Expires
	}
	_, err := request.Post[request.Empty](ctx, r.client, "restrict user", r.routes.Moderation(forum, "restrict"), request.JSON(body))
	return err
}

func (r *moderationRepository) Unrestrict(ctx context.Context, forum, user string) error {
	body := map[string]string{"forum": forum, "user": user}
	_, err := request.Post[request.Empty](ctx, r.client, "unrestrict user", r.routes.Moderation(forum, "unrestrict"), request.JSON(body))
	return err
}

func (r *moderationRepository) PostAction(ctx context.Context, forum, post, action, reason string) error {
	body := map[string]string{"forum": forum, "post": post}
	if reason != "" {
		body["reason"] = reason
	}
	_, err := request.Post[request.Empty](ctx, r.client, action+" post", r.routes.PostAction(forum, post, action), request.JSON(body))
	return err
}

func (r *moderationRepository) CommentAction(ctx context.Context, forum, post, comment, action, reason string) error {
	body := map[string]string{"forum": forum, "post": post, "comment": comment}
	if reason != "" {
		body["reason"] = reason
	}
	_, err := request.Post[request.Empty](ctx, r.client, action+" comment", r.routes.CommentAction(forum, post, comment, action), request.JSON(body))
	return err
}

func reportBody(in ReportInput, fields map[string]string) map[string]string {
	fields["reason"] = in.Reason
	if in.Details != "" {
		fields["details"] = in.Details
	}
	return fields
}

func (r *moderationRepository) ReportPost(ctx context.Context, forum, post string, in ReportInput) (string, error) {
	body := reportBody(in, map[string]string{"forum": forum, "post": post})
	resp, err := request.Post[model.ReportResponse](ctx, r.client, "report post", r.routes.PostAction(forum, post, ActionReport), request.JSON(body))
	if err != nil {
		return "", err
	}
	return resp.Report, nil
}

func (r *moderationRepository) ReportComment(ctx context.Context, forum, post, comment string, in ReportInput) (string, error) {
	body := reportBody(in, map[string]string{"forum": forum, "post": post, "comment": comment})
	resp, err := request.Post[model.ReportResponse](ctx, r.client, "report comment", r.routes.CommentAction(forum, post, comment, ActionReport), request.JSON(body))
	if err != nil {
		return "", err
	}
	return resp.Report, nil
}
