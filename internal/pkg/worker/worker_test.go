package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	t.Run("All succeed in order", func(t *testing.T) {
		var order []string
		task := func(name string) Task {
			return Task{Name: name, Run: func(context.Context) error {
				order = append(order, name)
				return nil
			}}
		}

		res := Sequence(context.Background(), []Task{task("a"), task("b"), task("c")})
		assert.True(t, res.OK())
		assert.Equal(t, 3, res.Processed)
		assert.Equal(t, 0, res.Aborted)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("Stops at first failure", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		tasks := make([]Task, 3)
		for i := range tasks {
			i := i
			tasks[i] = Task{Name: string(rune('a' + i)), Run: func(context.Context) error {
				calls++
				if i == 1 {
					return boom
				}
				return nil
			}}
		}

		res := Sequence(context.Background(), tasks)
		assert.False(t, res.OK())
		assert.ErrorIs(t, res.Err, boom)
		assert.Equal(t, 1, res.Processed)
		assert.Equal(t, 1, res.Aborted)
		assert.Equal(t, "b", res.Failed)
		assert.Equal(t, 2, calls)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := Sequence(ctx, []Task{{Name: "a", Run: func(context.Context) error { return nil }}})
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Equal(t, 0, res.Processed)
		assert.Equal(t, 1, res.Aborted)
	})

	t.Run("Empty", func(t *testing.T) {
		res := Sequence(context.Background(), nil)
		assert.True(t, res.OK())
		assert.Equal(t, 0, res.Total)
	})
}
