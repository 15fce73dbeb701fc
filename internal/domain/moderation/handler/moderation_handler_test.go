package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"mochi_forums/internal/domain/moderation/repository"
	"mochi_forums/internal/domain/moderation/service"
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

func execute(t *testing.T, s *fake.Server, args ...string) (string, *notify.Recorder, error) {
	t.Helper()
	client, err := request.NewFromConfig(config.APIConfig{BaseURL: s.URL()}, nil)
	require.NoError(t, err)

	notes := notify.NewRecorder()
	app := &registry.ModuleContext{Notify: notes, State: state.NewStore()}
	svc := service.NewModerationService(repository.NewModerationRepository(client), cache.NewQueryCache(nil), notes, nil)
	h := NewModerationHandler(svc, app)
	h.now = func() time.Time { return time.Unix(1700000000, 0) }

	root := &cobra.Command{Use: "forums", SilenceErrors: true, SilenceUsage: true}
	root.PersistentFlags().Bool("json", false, "")

	approve := &cobra.Command{Use: "approve", Args: cobra.MaximumNArgs(1), RunE: h.Batch(service.OpApprove)}
	approve.Flags().StringSlice("posts", nil, "")
	approve.Flags().StringSlice("comments", nil, "")
	approve.Flags().Bool("all", false, "")

	restrict := &cobra.Command{Use: "restrict", Args: cobra.ExactArgs(3), RunE: h.Restrict}
	restrict.Flags().String("reason", "", "")
	restrict.Flags().Duration("for", 0, "")

	root.AddCommand(approve, restrict)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), notes, err
}

func TestApproveAllStopsOnFailure(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodGet, "/forums/f1/moderation/queue", fake.Data(gin.H{
		"posts": []gin.H{{"id": "p1", "member": "a"}, {"id": "p2", "member": "b"}, {"id": "p3", "member": "c"}},
	}))
	s.On(http.MethodPost, "/forums/f1/p1/approve", fake.Data(gin.H{"post": "p1"}))
	s.On(http.MethodPost, "/forums/f1/p2/approve", fake.Fail(http.StatusForbidden, "Not allowed"))
	s.On(http.MethodPost, "/forums/f1/p3/approve", fake.Data(gin.H{"post": "p3"}))

	out, notes, err := execute(t, s, "approve", "f1", "--all")
	require.Error(t, err)
	assert.Contains(t, out, "processed 1 of 3, aborted 1")

	assert.Equal(t, 1, s.Count("/forums/f1/p1/approve"))
	assert.Equal(t, 1, s.Count("/forums/f1/p2/approve"))
	assert.Equal(t, 0, s.Count("/forums/f1/p3/approve"))

	all := notes.All()
	require.Len(t, all, 1)
	assert.Equal(t, notify.Notification{Level: notify.LevelError, Message: "Not allowed"}, all[0])
}

func TestRestrictWithDuration(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()
	s.On(http.MethodPost, "/forums/f1/moderation/restrict", fake.Data(gin.H{"user": "u1", "type": "muted"}))

	_, notes, err := execute(t, s, "restrict", "f1", "u1", "mute", "--for", "24h", "--reason", "spam")
	require.NoError(t, err)

	last, _ := s.Last()
	assert.Equal(t, "muted", last.JSON["type"])
	assert.EqualValues(t, 1700000000+24*3600, last.JSON["expires"])
	n, _ := notes.Last()
	assert.Equal(t, "User muted", n.Message)
}
