package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	for i := 1; i < len(Roles); i++ {
		assert.True(t, Roles[i].AtLeast(Roles[i-1]), "%s >= %s", Roles[i], Roles[i-1])
		assert.False(t, Roles[i-1].AtLeast(Roles[i]), "%s < %s", Roles[i-1], Roles[i])
	}
	assert.True(t, RoleDisabled.AtLeast(RoleNone))
	assert.False(t, RoleNone.AtLeast(RoleDisabled))
	assert.True(t, RoleModerator.AtLeast(RolePoster))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Moderator")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	r, err = ParseRole("none")
	require.NoError(t, err)
	assert.Equal(t, RoleNone, r)

	_, err = ParseRole("owner")
	assert.Error(t, err)
}

func TestForumUnmarshal(t *testing.T) {
	t.Run("Member count as number", func(t *testing.T) {
		var f Forum
		require.NoError(t, json.Unmarshal([]byte(`{"id":"f1","name":"Go","role":"none","members":3,"updated":1700000000}`), &f))
		assert.Equal(t, 3, int(f.Members))
		assert.Equal(t, RoleNone, f.Role)
	})

	t.Run("Member count as array", func(t *testing.T) {
		var f Forum
		require.NoError(t, json.Unmarshal([]byte(`{"id":"f1","members":[{"id":"a"},{"id":"b"}],"role":"poster"}`), &f))
		assert.Equal(t, 2, int(f.Members))
		assert.Equal(t, RolePoster, f.Role)
	})
}

func TestMemberAccessOwner(t *testing.T) {
	var items []MemberAccess
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"o","name":"Owner","level":null},{"id":"u","name":"User","level":"vote"}]`), &items))
	assert.True(t, items[0].Owner())
	assert.False(t, items[1].Owner())
	assert.Equal(t, AccessVote, *items[1].Level)
}
