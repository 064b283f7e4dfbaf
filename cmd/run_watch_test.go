package cmd

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchPlan(t *testing.T) {
	original := watchDebounce
	defer func() { watchDebounce = original }()
	watchDebounce = 20 * time.Millisecond

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: one\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchPlan(ctx, path, func(context.Context) error {
			runs.Add(1)
			return assert.AnError
		})
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("name: two\n"), 0644))
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	// Files next to the plan do not trigger runs.
	seen := runs.Load()
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, seen, runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchPlan did not return after cancel")
	}
}

func TestWatchPlan_MissingDirectory(t *testing.T) {
	err := watchPlan(context.Background(), filepath.Join(t.TempDir(), "absent", "plan.yaml"), func(context.Context) error {
		return nil
	})
	assert.Error(t, err)
}
