package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cursorOf(v int64) *int64 { return &v }

func TestCursorLoadMore(t *testing.T) {
	t.Run("Two pages then stop", func(t *testing.T) {
		var befores []*int64
		pages := []CursorPage[string]{
			{Items: []string{"p1", "p2", "p3"}, HasMore: true, NextCursor: cursorOf(17)},
			{Items: []string{"p4", "p5"}, HasMore: false, NextCursor: nil},
		}
		cursor := NewCursor(func(ctx context.Context, before *int64) (CursorPage[string], error) {
			befores = append(befores, before)
			return pages[len(befores)-1], nil
		})

		require.NoError(t, cursor.LoadAll(context.Background()))

		assert.Equal(t, 2, cursor.Requests())
		assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, cursor.Items())
		assert.Nil(t, befores[0])
		require.NotNil(t, befores[1])
		assert.Equal(t, int64(17), *befores[1])
		assert.False(t, cursor.HasMore())

		// Exhausted cursor issues no further requests
		n, err := cursor.LoadMore(context.Background())
		assert.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, 2, cursor.Requests())
	})

	t.Run("Duplicates are kept in arrival order", func(t *testing.T) {
		calls := 0
		cursor := NewCursor(func(ctx context.Context, before *int64) (CursorPage[string], error) {
			calls++
			if calls == 1 {
				return CursorPage[string]{Items: []string{"a", "b"}, HasMore: true, NextCursor: cursorOf(5)}, nil
			}
			return CursorPage[string]{Items: []string{"b", "c"}}, nil
		})

		require.NoError(t, cursor.LoadAll(context.Background()))
		assert.Equal(t, []string{"a", "b", "b", "c"}, cursor.Items())
	})

	t.Run("Failed page keeps state", func(t *testing.T) {
		fail := true
		cursor := NewCursor(func(ctx context.Context, before *int64) (CursorPage[string], error) {
			if fail {
				return CursorPage[string]{}, errors.New("offline")
			}
			return CursorPage[string]{Items: []string{"x"}}, nil
		})

		_, err := cursor.LoadMore(context.Background())
		assert.Error(t, err)
		assert.True(t, cursor.HasMore())
		assert.Empty(t, cursor.Items())

		fail = false
		_, err = cursor.LoadMore(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, []string{"x"}, cursor.Items())
	})

	t.Run("Has more without cursor ends the feed", func(t *testing.T) {
		cursor := NewCursor(func(ctx context.Context, before *int64) (CursorPage[string], error) {
			return CursorPage[string]{Items: []string{"x"}, HasMore: true}, nil
		})
		require.NoError(t, cursor.LoadAll(context.Background()))
		assert.Equal(t, 1, cursor.Requests())
	})

	t.Run("Reset starts from the first page", func(t *testing.T) {
		var befores []*int64
		cursor := NewCursor(func(ctx context.Context, before *int64) (CursorPage[string], error) {
			befores = append(befores, before)
			return CursorPage[string]{Items: []string{"x"}, HasMore: true, NextCursor: cursorOf(9)}, nil
		})
		_, err := cursor.LoadMore(context.Background())
		require.NoError(t, err)

		cursor.Reset()
		assert.Empty(t, cursor.Items())
		assert.True(t, cursor.HasMore())
		assert.Zero(t, cursor.Requests())

		_, err = cursor.LoadMore(context.Background())
		require.NoError(t, err)
		require.Len(t, befores, 2)
		assert.Nil(t, befores[1])
	})
}

func TestPaginationParams(t *testing.T) {
	p := Pagination{Limit: 500, Before: cursorOf(42)}
	params := p.Params()
	assert.Equal(t, "100", params["limit"])
	assert.Equal(t, "42", params["before"])

	assert.Equal(t, map[string]string{"limit": "20"}, Pagination{}.Params())
}
