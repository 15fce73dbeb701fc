package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	class := New(false)
	entity := New(true)

	tests := []struct {
		name   string
		class  string
		entity string
	}{
		{"view", class.View("f1"), entity.View("f1")},
		{"subscribe", class.Subscribe("f1"), entity.Subscribe("f1")},
		{"members save", class.MembersSave("f1"), entity.MembersSave("f1")},
		{"post vote", class.PostVote("f1", "p1"), entity.PostVote("f1", "p1")},
		{"comment vote", class.CommentVote("f1", "p1", "c1"), entity.CommentVote("f1", "p1", "c1")},
		{"moderation queue", class.Moderation("f1", "queue"), entity.Moderation("f1", "queue")},
		{"post lock", class.PostAction("f1", "p1", "lock"), entity.PostAction("f1", "p1", "lock")},
	}

	want := map[string][2]string{
		"view":             {"/forums/f1", "/-/"},
		"subscribe":        {"/forums/f1/subscribe", "/-/subscribe"},
		"members save":     {"/forums/f1/members/save", "/-/members/save"},
		"post vote":        {"/forums/f1/p1/vote", "/-/p1/vote"},
		"comment vote":     {"/forums/f1/p1/c1/vote", "/-/p1/c1/vote"},
		"moderation queue": {"/forums/f1/moderation/queue", "/-/moderation/queue"},
		"post lock":        {"/forums/f1/p1/lock", "/-/p1/lock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want[tt.name][0], tt.class)
			assert.Equal(t, want[tt.name][1], tt.entity)
		})
	}
}

func TestForumEscapesSegments(t *testing.T) {
	r := New(false)
	assert.Equal(t, "/forums/a%2Fb/p%201", r.Forum("a/b", "p 1"))
	assert.Equal(t, "/forums/f1/p1", r.Forum("f1", "", "p1"))
}

func TestNilRouterUsesClassMode(t *testing.T) {
	var r *Router
	assert.False(t, r.EntityMode())
	assert.Equal(t, "/forums/f1/subscribe", r.Subscribe("f1"))
}
