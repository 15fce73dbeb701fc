package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"mochi_forums/internal/domain/comment/repository"
	"mochi_forums/internal/domain/comment/service"
	"mochi_forums/internal/pkg/config"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/registry"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/state"
	"mochi_forums/pkg/cache"
	fake "mochi_forums/pkg/testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threadPayload() gin.H {
	return gin.H{
		"forum": gin.H{"id": "f1", "can_moderate": false},
		"post":  gin.H{"id": "p1"},
		"comments": []gin.H{
			{"id": "c1", "post": "p1", "parent": "", "member": "alice", "name": "Alice", "body": "first", "role_voter": true, "role_commenter": true,
				"children": []gin.H{{"id": "c2", "post": "p1", "parent": "c1", "member": "bob", "name": "Bob", "body": "nested", "role_commenter": true, "children": []gin.H{}}}},
			{"id": "c3", "post": "p1", "parent": "", "member": "carol", "name": "Carol", "body": "second", "role_commenter": true, "children": []gin.H{}},
		},
		"role_voter":     true,
		"role_commenter": true,
	}
}

func run(t *testing.T, s *fake.Server, stdin string, args ...string) (string, *notify.Recorder) {
	t.Helper()
	client, err := request.NewFromConfig(config.APIConfig{BaseURL: s.URL()}, nil)
	require.NoError(t, err)

	notes := notify.NewRecorder()
	app := &registry.ModuleContext{Notify: notes, State: state.NewStore(), CurrentUser: "alice"}
	svc := service.NewCommentService(repository.NewCommentRepository(client), cache.NewQueryCache(nil), notes, nil)
	h := NewCommentHandler(svc, app)

	var out bytes.Buffer
	root := &cobra.Command{Use: "forums"}
	root.PersistentFlags().Bool("json", false, "")
	thread := &cobra.Command{Use: "thread", Args: cobra.ExactArgs(2), RunE: h.Thread}
	thread.Flags().Bool("colour", false, "")
	root.AddCommand(thread, &cobra.Command{Use: "vote", Args: cobra.ExactArgs(4), RunE: h.Vote})
	root.SetOut(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))
	return out.String(), notes
}

func TestThreadReplyFlow(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/f1/p1", fake.Data(threadPayload()))
	s.On(http.MethodPost, "/forums/f1/p1/create", fake.Data(gin.H{"comment": "c9"}))

	input := strings.Join([]string{
		"toggle c1",
		"reply c2",
		"draft discarded text",
		"reply c3",
		"draft kept text",
		"send",
		"quit",
	}, "\n")
	out, notes := run(t, s, input, "thread", "f1", "p1")

	assert.Contains(t, out, "c1 collapsed: true")
	creates := s.RequestsTo("/forums/f1/p1/create")
	require.Len(t, creates, 1)
	assert.Equal(t, "c3", creates[0].JSON["parent"])
	assert.Equal(t, "kept text", creates[0].JSON["body"])

	// 发表后重新获取评论树
	assert.Equal(t, 2, s.Count("/forums/f1/p1"))
	last, _ := notes.Last()
	assert.Equal(t, "Comment posted", last.Message)
}

func TestThreadEditRequiresPermission(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/f1/p1", fake.Data(threadPayload()))
	s.On(http.MethodPost, "/forums/f1/p1/c1/edit")

	out, _ := run(t, s, "edit c3\nedit c1\ntext better\nsave\n", "thread", "f1", "p1")

	assert.Contains(t, out, service.ErrCannotEdit.Error())
	edits := s.RequestsTo("/forums/f1/p1/c1/edit")
	require.Len(t, edits, 1)
	assert.Equal(t, "better", edits[0].JSON["body"])
}

func TestVoteCommand(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/f1/p1", fake.Data(threadPayload()))
	s.On(http.MethodPost, "/forums/f1/p1/c1/vote", fake.Data(gin.H{"forum": "f1", "post": "p1"}))

	out, _ := run(t, s, "", "vote", "f1", "p1", "c1", "up")
	assert.Contains(t, out, "c1 ▲1 ▼0 (up)")

	votes := s.RequestsTo("/forums/f1/p1/c1/vote")
	require.Len(t, votes, 1)
	assert.Equal(t, "up", votes[0].JSON["vote"])
}

func TestVoteSyncsWithServer(t *testing.T) {
	fresh := threadPayload()
	first := fresh["comments"].([]gin.H)[0]
	first["up"], first["down"], first["vote"] = 5, 2, "up"

	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/f1/p1", fake.Data(threadPayload()), fake.Data(fresh))
	s.On(http.MethodPost, "/forums/f1/p1/c1/vote", fake.Data(gin.H{"forum": "f1", "post": "p1"}))

	out, _ := run(t, s, "", "vote", "f1", "p1", "c1", "up")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"c1 ▲1 ▼0 (up)", "c1 ▲5 ▼2 (up)"}, lines)
	assert.Equal(t, 2, s.Count("/forums/f1/p1"))
}
