package repository

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"mochi_forums/internal/domain/forum/model"
	"mochi_forums/internal/pkg/config"
	"mochi_forums/internal/pkg/request"
	fake "mochi_forums/pkg/testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, s *fake.Server, entity bool) ForumRepository {
	t.Helper()
	client, err := request.NewFromConfig(config.APIConfig{BaseURL: s.URL(), EntityMode: entity, Forum: "f1"}, nil)
	require.NoError(t, err)
	return NewForumRepository(client)
}

func TestSaveMemberRolePayload(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodPost, "/forums/f1/members/save", fake.Data(gin.H{"forum": gin.H{"id": "f1"}}))

	repo := newRepo(t, s, false)
	err := repo.SaveMemberRole(context.Background(), "f1", RoleChange{Member: "m123", Role: model.RoleModerator})
	require.NoError(t, err)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "application/x-www-form-urlencoded", last.Header.Get("Content-Type"))
	assert.Equal(t, url.Values{
		"forum":     {"f1"},
		"role_m123": {"moderator"},
	}, last.Form)
}

func TestListToleratesUnwrappedPayload(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/list", fake.Raw(gin.H{
		"forums": []gin.H{{"id": "f1", "name": "Go", "members": []gin.H{{"id": "a"}}}},
		"posts":  []gin.H{},
	}))

	resp, err := newRepo(t, s, false).List(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Forums, 1)
	assert.Equal(t, 1, int(resp.Forums[0].Members))
}

func TestSubscribeRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("Class mode", func(t *testing.T) {
		s := fake.NewServer()
		defer s.Close()
		s.On(http.MethodPost, "/forums/f1/subscribe", fake.Data(gin.H{"already_subscribed": true}))

		resp, err := newRepo(t, s, false).Subscribe(ctx, "f1", "")
		require.NoError(t, err)
		assert.True(t, resp.AlreadySubscribed)

		last, _ := s.Last()
		assert.Equal(t, map[string]any{"forum": "f1"}, last.JSON)
	})

	t.Run("Entity mode elides forum", func(t *testing.T) {
		s := fake.NewServer()
		defer s.Close()
		s.On(http.MethodPost, "/-/subscribe", fake.Data(gin.H{"already_subscribed": false}))

		_, err := newRepo(t, s, true).Subscribe(ctx, "f1", "https://remote.example")
		require.NoError(t, err)
		assert.Equal(t, 1, s.Count("/-/subscribe"))

		last, _ := s.Last()
		assert.Equal(t, "https://remote.example", last.JSON["server"])
	})
}

func TestSearchAndProbe(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/search", fake.Data(gin.H{"results": []gin.H{{"id": "f2", "name": "Gophers"}}}))
	s.On(http.MethodGet, "/forums/probe", fake.Data(gin.H{"id": "r1", "server": "https://remote.example"}))
	repo := newRepo(t, s, false)
	ctx := context.Background()

	results, err := repo.Search(ctx, "gophers")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "gophers", s.RequestsTo("/forums/search")[0].Query.Get("search"))

	probe, err := repo.Probe(ctx, "https://remote.example/forums/r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", probe.ID)
	assert.Equal(t, "https://remote.example/forums/r1", s.RequestsTo("/forums/probe")[0].Query.Get("url"))
}

func TestAccess(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/f1/access", fake.Data(gin.H{
		"forum":  gin.H{"id": "f1"},
		"access": []gin.H{{"id": "o", "name": "Owner", "level": nil}, {"id": "u", "level": "comment"}},
		"levels": []string{"view", "vote", "comment"},
	}))
	s.On(http.MethodPost, "/forums/f1/access/set")
	s.On(http.MethodPost, "/forums/f1/access/revoke", fake.Fail(http.StatusForbidden, "Not owner"))
	repo := newRepo(t, s, false)
	ctx := context.Background()

	resp, err := repo.Access(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, resp.Access, 2)
	assert.True(t, resp.Access[0].Owner())

	require.NoError(t, repo.SetAccess(ctx, "f1", "u", model.AccessPost))
	last, _ := s.Last()
	assert.Equal(t, map[string]any{"forum": "f1", "user": "u", "level": "post"}, last.JSON)

	err = repo.RevokeAccess(ctx, "f1", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not owner")
}
