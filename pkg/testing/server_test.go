package testing

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerReplies(t *testing.T) {
	s := NewServer()
	defer s.Close()

	s.On(http.MethodGet, "/forums/list", Data(map[string]int{"n": 1}), Fail(http.StatusInternalServerError, "boom"))

	get := func() (int, string) {
		resp, err := http.Get(s.URL() + "/forums/list?sort=new")
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	status, body := get()
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"data":{"n":1}}`, body)

	// 最后一个响应重复使用
	for i := 0; i < 2; i++ {
		status, body = get()
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.JSONEq(t, `{"error":"boom"}`, body)
	}

	assert.Equal(t, 3, s.Count("/forums/list"))
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "new", last.Query.Get("sort"))
}

func TestServerRecordsBodies(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.On(http.MethodPost, "/forums/f1/members/save", Data(nil))
	s.On(http.MethodPost, "/forums/f1/p1/vote", Data(nil))

	resp, err := http.Post(s.URL()+"/forums/f1/members/save", "application/x-www-form-urlencoded", strings.NewReader("forum=f1&role_m1=viewer"))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Post(s.URL()+"/forums/f1/p1/vote", "application/json", strings.NewReader(`{"vote":""}`))
	require.NoError(t, err)
	resp.Body.Close()

	form := s.RequestsTo("/forums/f1/members/save")[0].Form
	assert.Equal(t, "viewer", form.Get("role_m1"))

	vote := s.RequestsTo("/forums/f1/p1/vote")[0].JSON
	assert.Equal(t, "", vote["vote"])

	resp, err = http.Get(s.URL() + "/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
