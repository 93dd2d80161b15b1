package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "draft.md")
	s := NewFileStore(path)

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "# Title\n\nbody"))
	require.NoError(t, s.Save(ctx, "# Title\n\nbody, edited"))

	text, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "# Title\n\nbody, edited", text)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_SavesEmptyDocument(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "empty.md"))

	require.NoError(t, s.Save(ctx, ""))
	text, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "an empty saved document is not the same as none")
	assert.Equal(t, "", text)
}

func TestBackends_RejectBadIDs(t *testing.T) {
	backends := map[string]Backend{
		"file":   FileBackend{Dir: t.TempDir()},
		"memory": NewMemoryBackend(),
	}
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "..", "../etc/passwd", "a/b"} {
				_, err := b.Open(id)
				assert.Error(t, err, id)
			}
			_, err := b.Open("draft-1")
			assert.NoError(t, err)
		})
	}
}

func TestMemoryBackend_SharesStorePerID(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	s1, err := b.Open("doc")
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "hello"))

	s2, err := b.Open("doc")
	require.NoError(t, err)
	text, ok, err := s2.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 1, b.Store("doc").Saves())
}
