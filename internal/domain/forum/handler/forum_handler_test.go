package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"mochi_forums/internal/domain/forum/model"
	"mochi_forums/internal/domain/forum/repository"
	"mochi_forums/internal/domain/forum/service"
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

type harness struct {
	handler *ForumHandler
	notes   *notify.Recorder
	store   *state.Store
}

func newHarness(t *testing.T, s *fake.Server) *harness {
	t.Helper()
	client, err := request.NewFromConfig(config.APIConfig{BaseURL: s.URL()}, nil)
	require.NoError(t, err)

	notes := notify.NewRecorder()
	store := state.NewStore()
	cfg := &config.Config{App: config.AppConfig{SearchDebounce: 20 * time.Millisecond}}
	app := &registry.ModuleContext{Config: cfg, Notify: notes, State: store, CurrentUser: "alice"}
	svc := service.NewForumService(repository.NewForumRepository(client), cache.NewQueryCache(nil), notes, store)
	return &harness{handler: NewForumHandler(svc, app), notes: notes, store: store}
}

// run 执行命令，返回输出与命令错误
func (h *harness) run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	root := &cobra.Command{Use: "forums", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().Bool("json", false, "")

	search := &cobra.Command{Use: "search", RunE: h.handler.Search}
	search.Flags().BoolP("interactive", "i", false, "")
	roles := &cobra.Command{Use: "roles", Args: cobra.MinimumNArgs(2), RunE: h.handler.SaveRoles}
	root.AddCommand(search, roles)

	root.SetOut(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseRoleChanges(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]model.Role
		wantErr string
	}{
		{
			name:  "Valid pairs",
			pairs: []string{"bob=viewer", "carol=Moderator", "dave=none"},
			want:  map[string]model.Role{"bob": model.RoleViewer, "carol": model.RoleModerator, "dave": model.RoleNone},
		},
		{
			name:  "Later pair for the same member wins",
			pairs: []string{"bob=viewer", "bob=poster"},
			want:  map[string]model.Role{"bob": model.RolePoster},
		},
		{
			name:    "Missing separator",
			pairs:   []string{"bob"},
			wantErr: "expected member=role",
		},
		{
			name:    "Empty member",
			pairs:   []string{"=viewer"},
			wantErr: "expected member=role",
		},
		{
			name:    "Unknown role",
			pairs:   []string{"bob=owner"},
			wantErr: `unknown role "owner"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoleChanges(tt.pairs)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchInteractive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		searches []string
		wantOut  []string
	}{
		{
			name:     "Only the latest term is searched",
			input:    "g\ngo\ngophers\n",
			searches: []string{"gophers"},
			wantOut:  []string{`Results for "gophers":`, "Gophers Unite"},
		},
		{
			name:    "Cleared input searches nothing",
			input:   "go\n\n",
			wantOut: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fake.NewServer()
			defer s.Close()
			s.On(http.MethodGet, "/forums/search", fake.Data(gin.H{
				"results": []gin.H{{"id": "f9", "name": "Gophers Unite", "fingerprint": "abc"}},
			}))
			s.On(http.MethodGet, "/forums/list", fake.Data(gin.H{"forums": []gin.H{}}))

			h := newHarness(t, s)
			out, err := h.run(tt.input, "search", "--interactive")
			require.NoError(t, err)

			requests := s.RequestsTo("/forums/search")
			terms := make([]string, 0, len(requests))
			for _, r := range requests {
				terms = append(terms, r.Query.Get("search"))
			}
			assert.Equal(t, len(tt.searches), len(terms))
			if len(tt.searches) > 0 {
				assert.Equal(t, tt.searches, terms)
			}

			if tt.wantOut == nil {
				assert.Empty(t, out)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, `Results for "go":`)
		})
	}
}

func TestSaveRoles(t *testing.T) {
	tests := []struct {
		name      string
		replies   []fake.Reply
		wantErr   bool
		wantSaved []string
		level     notify.Level
	}{
		{
			name:      "All members saved",
			replies:   []fake.Reply{fake.Data(gin.H{})},
			wantSaved: []string{"bob", "carol", "dave"},
			level:     notify.LevelSuccess,
		},
		{
			name:      "Partial failure stops and returns the error",
			replies:   []fake.Reply{fake.Data(gin.H{}), fake.Fail(http.StatusForbidden, "not allowed")},
			wantErr:   true,
			wantSaved: []string{"bob", "carol"},
			level:     notify.LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fake.NewServer()
			defer s.Close()
			s.On(http.MethodPost, "/forums/f1/members/save", tt.replies...)

			h := newHarness(t, s)
			_, err := h.run("", "roles", "f1", "dave=voter", "bob=viewer", "carol=moderator")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "role_carol")
			} else {
				require.NoError(t, err)
			}

			saves := s.RequestsTo("/forums/f1/members/save")
			members := make([]string, 0, len(saves))
			for _, r := range saves {
				assert.Equal(t, "f1", r.Form.Get("forum"))
				for field := range r.Form {
					if member, ok := strings.CutPrefix(field, "role_"); ok {
						members = append(members, member)
					}
				}
			}
			assert.Equal(t, tt.wantSaved, members)
			assert.Equal(t, 1, h.notes.Count(tt.level))
		})
	}
}

func TestSaveRolesRejectsBadPairs(t *testing.T) {
	s := fake.NewServer()
	defer s.Close()

	h := newHarness(t, s)
	_, err := h.run("", "roles", "f1", "bob")
	require.Error(t, err)
	assert.Zero(t, s.Count("/forums/f1/members/save"))
}
