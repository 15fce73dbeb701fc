package request

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"mochi_forums/internal/pkg/config"
	"mochi_forums/internal/pkg/uploader"
	"mochi_forums/pkg/response"
	fake "mochi_forums/pkg/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newClient(t *testing.T, s *fake.Server) *Client {
	t.Helper()
	c, err := NewFromConfig(config.APIConfig{BaseURL: s.URL(), Token: "tok"}, nil)
	require.NoError(t, err)
	return c
}

func TestGet(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	c := newClient(t, s)
	ctx := context.Background()

	t.Run("Wrapped", func(t *testing.T) {
		s.On(http.MethodGet, "/forums/wrapped", fake.Data(payload{ID: "1", Name: "one"}))
		got, err := Get[payload](ctx, c, "wrapped", "/forums/wrapped", url.Values{"sort": {"new"}})
		require.NoError(t, err)
		assert.Equal(t, payload{ID: "1", Name: "one"}, got)

		last, _ := s.Last()
		assert.Equal(t, "new", last.Query.Get("sort"))
		assert.Equal(t, "Bearer tok", last.Header.Get("Authorization"))
		assert.NotEmpty(t, last.Header.Get("X-Trace-ID"))
	})

	t.Run("Unwrapped tolerated", func(t *testing.T) {
		s.On(http.MethodGet, "/forums/raw", fake.Raw(payload{ID: "2"}))
		got, err := Get[payload](ctx, c, "raw", "/forums/raw", nil)
		require.NoError(t, err)
		assert.Equal(t, "2", got.ID)
	})

	t.Run("Error status", func(t *testing.T) {
		s.On(http.MethodGet, "/forums/denied", fake.Fail(http.StatusForbidden, "Not allowed"))
		_, err := Get[payload](ctx, c, "denied", "/forums/denied", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, response.Status(err))
		assert.Equal(t, "Not allowed", response.Message(err, "fallback"))
	})

	t.Run("Decode error", func(t *testing.T) {
		s.On(http.MethodGet, "/forums/bad", fake.Data("not an object"))
		_, err := Get[payload](ctx, c, "bad", "/forums/bad", nil)
		var apiErr *response.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, response.ErrDecode, apiErr.Code)
	})
}

func TestPostBodies(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	c := newClient(t, s)
	ctx := context.Background()

	s.On(http.MethodPost, "/forums/json", fake.Data(map[string]string{}))
	_, err := Post[Empty](ctx, c, "json", "/forums/json", JSON(map[string]string{"vote": ""}))
	require.NoError(t, err)
	req := s.RequestsTo("/forums/json")[0]
	require.Contains(t, req.JSON, "vote")
	assert.Equal(t, "", req.JSON["vote"])

	s.On(http.MethodPost, "/forums/form", fake.Data(nil))
	_, err = Post[Empty](ctx, c, "form", "/forums/form", Form(url.Values{"forum": {"f1"}}))
	require.NoError(t, err)
	assert.Equal(t, "f1", s.RequestsTo("/forums/form")[0].Form.Get("forum"))

	s.On(http.MethodPost, "/forums/multipart", fake.Data(nil))
	mp := uploader.NewForm().AddField("title", "t").AddFile("attachments", uploader.FromBytes("a.txt", []byte("x")))
	_, err = Post[Empty](ctx, c, "multipart", "/forums/multipart", mp)
	require.NoError(t, err)
	got := s.RequestsTo("/forums/multipart")[0]
	assert.Equal(t, "t", got.Form.Get("title"))
	assert.Equal(t, []string{"a.txt"}, got.Files["attachments"])
}

func TestNetworkError(t *testing.T) {
	c, err := New("http://127.0.0.1:1", nil, nil)
	require.NoError(t, err)

	_, err = Get[payload](context.Background(), c, "down", "/forums/list", nil)
	var apiErr *response.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, response.ErrNetwork, apiErr.Code)
	assert.Equal(t, 0, apiErr.Status)
}

func TestBasePathIsKept(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/app/forums/list", fake.Data(payload{ID: "x"}))

	c, err := New(s.URL()+"/app/", nil, nil)
	require.NoError(t, err)
	got, err := Get[payload](context.Background(), c, "list", "/forums/list", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", got.ID)
}
