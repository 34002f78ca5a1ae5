package localstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"focusmate/internal/localstore"
)

func TestDefaultDir_UsesXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := localstore.DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "focusmate"), dir)
}

func TestGet_MissingKey(t *testing.T) {
	store, err := localstore.Open(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("absent")
	assert.True(t, errors.Is(err, localstore.ErrNotFound))
}

func TestSetGetRemove(t *testing.T) {
	store, err := localstore.Open(filepath.Join(t.TempDir(), "nested", "dir"))
	require.NoError(t, err)

	require.NoError(t, store.Set("focusmate_timer_state_v1", []byte(`{"mode":"focus"}`)))
	got, err := store.Get("focusmate_timer_state_v1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"focus"}`, string(got))

	require.NoError(t, store.Set("focusmate_timer_state_v1", []byte(`{"mode":"break"}`)))
	got, err = store.Get("focusmate_timer_state_v1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"break"}`, string(got))

	require.NoError(t, store.Remove("focusmate_timer_state_v1"))
	require.NoError(t, store.Remove("focusmate_timer_state_v1"))
	_, err = store.Get("focusmate_timer_state_v1")
	assert.True(t, errors.Is(err, localstore.ErrNotFound))
}

func TestKeys(t *testing.T) {
	store, err := localstore.Open(t.TempDir())
	require.NoError(t, err)

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.Set("a", []byte(`1`)))
	require.NoError(t, store.Set("room:b", []byte(`2`)))
	_, err = store.Sub("child")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ".tmp-123"), []byte(`x`), 0o644))

	keys, err = store.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "room:b"}, keys)
}

func TestSet_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := localstore.Open(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Set("key", []byte(`{}`)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "key.json", entries[0].Name())
}

// Arbitrary keys, including ones with path separators, stay inside the
// store directory and round-trip their values.
func TestKeysStayInsideStore(t *testing.T) {
	dir := t.TempDir()
	store, err := localstore.Open(dir)
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.StringMatching(`[a-zA-Z0-9_:/. -]{1,40}`).Draw(rt, "key")
		value := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(rt, "value")

		path := store.Path(key)
		if filepath.Dir(path) != dir {
			rt.Fatalf("key %q escaped the store: %s", key, path)
		}
		if err := store.Set(key, value); err != nil {
			rt.Fatalf("set %q: %v", key, err)
		}
		got, err := store.Get(key)
		if err != nil {
			rt.Fatalf("get %q: %v", key, err)
		}
		if string(got) != string(value) {
			rt.Fatalf("value mismatch for %q", key)
		}
	})
}

func TestWatch_ReportsWritesFromAnotherStore(t *testing.T) {
	dir := t.TempDir()
	watched, err := localstore.Open(dir)
	require.NoError(t, err)
	writer, err := localstore.Open(dir)
	require.NoError(t, err)

	var mu sync.Mutex
	var changes []localstore.Change
	stop, err := watched.Watch(func(c localstore.Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, writer.Set("bc:room", []byte(`{}`)))
	require.NoError(t, writer.Remove("bc:room"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		var written, removed bool
		for _, c := range changes {
			if c.Key != "bc:room" {
				continue
			}
			if c.Removed {
				removed = true
			} else {
				written = true
			}
		}
		return written && removed
	}, 2*time.Second, 10*time.Millisecond)
}
