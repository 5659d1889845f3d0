package run

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithUnknownID(t *testing.T) {
	s := NewStore()
	err := s.With("nope", func(*Run) error { return nil })
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_PutWithDelete(t *testing.T) {
	s := NewStore()
	s.Put(&Run{ID: "r1", Level: 1})
	assert.Equal(t, 1, s.Len())

	err := s.With("r1", func(r *Run) error {
		r.Level = 5
		return nil
	})
	require.NoError(t, err)

	var got int
	require.NoError(t, s.With("r1", func(r *Run) error {
		got = r.Level
		return nil
	}))
	assert.Equal(t, 5, got)

	s.Delete("r1")
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, s.With("r1", func(*Run) error { return nil }), ErrRunNotFound)

	// Deleting again is a no-op.
	s.Delete("r1")
}

func TestStore_SerializesPerRun(t *testing.T) {
	s := NewStore()
	s.Put(&Run{ID: "r1"})

	const workers = 32
	const perWorker = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = s.With("r1", func(r *Run) error {
					r.Score++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	var score int
	require.NoError(t, s.With("r1", func(r *Run) error {
		score = r.Score
		return nil
	}))
	assert.Equal(t, workers*perWorker, score)
}
