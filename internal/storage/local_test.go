package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Local {
	t.Helper()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "upload-*.pdf")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestLocal_PlaceUpload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	temp := writeTemp(t, "pdf bytes")
	placed, err := store.PlaceUpload(ctx, temp, "c1_JaneDoe", "JaneDoe_IDDocument_2024-05-01.pdf")

	require.NoError(t, err)
	assert.Equal(t, "JaneDoe_IDDocument_2024-05-01.pdf", placed.StoredFilename)
	assert.Equal(t, "customers/c1_JaneDoe/JaneDoe_IDDocument_2024-05-01.pdf", placed.RelativePath)
	assert.Equal(t, int64(len("pdf bytes")), placed.Size)

	// The temp file was consumed and the destination holds the bytes.
	_, err = os.Stat(temp)
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(store.Root(), "customers", "c1_JaneDoe", placed.StoredFilename))
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	// The versions subfolder is created alongside the primary file.
	info, err := os.Stat(filepath.Join(store.Root(), "customers", "c1_JaneDoe", "versions"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocal_PlaceUpload_CollisionSuffix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.PlaceUpload(ctx, writeTemp(t, "one"), "c1_JaneDoe", "JaneDoe_ID_2024-05-01.pdf")
	require.NoError(t, err)
	second, err := store.PlaceUpload(ctx, writeTemp(t, "two"), "c1_JaneDoe", "JaneDoe_ID_2024-05-01.pdf")
	require.NoError(t, err)
	third, err := store.PlaceUpload(ctx, writeTemp(t, "three"), "c1_JaneDoe", "JaneDoe_ID_2024-05-01.pdf")
	require.NoError(t, err)

	assert.Equal(t, "JaneDoe_ID_2024-05-01.pdf", first.StoredFilename)
	assert.Equal(t, "JaneDoe_ID_2024-05-01_1.pdf", second.StoredFilename)
	assert.Equal(t, "JaneDoe_ID_2024-05-01_2.pdf", third.StoredFilename)

	// Earlier files are untouched by later placements.
	data, err := os.ReadFile(filepath.Join(store.Root(), "customers", "c1_JaneDoe", first.StoredFilename))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestLocal_ArchiveVersion_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	placed, err := store.PlaceUpload(ctx, writeTemp(t, "original content"), "c1_JaneDoe", "JaneDoe_ID_2024-05-01.pdf")
	require.NoError(t, err)

	archived, err := store.ArchiveVersion(ctx, placed.RelativePath, 1)
	require.NoError(t, err)
	require.NotNil(t, archived)
	assert.Equal(t, "JaneDoe_ID_2024-05-01_v1.pdf", archived.StoredFilename)
	assert.Equal(t, "customers/c1_JaneDoe/versions/JaneDoe_ID_2024-05-01_v1.pdf", archived.RelativePath)

	// Replace the primary slot with a new upload; the archived copy must keep
	// the pre-upload bytes while the primary holds the new bytes.
	require.NoError(t, store.Remove(placed.RelativePath))
	replaced, err := store.PlaceUpload(ctx, writeTemp(t, "new content"), "c1_JaneDoe", "JaneDoe_ID_2024-05-01.pdf")
	require.NoError(t, err)

	archivedBytes, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(archived.RelativePath)))
	require.NoError(t, err)
	assert.Equal(t, "original content", string(archivedBytes))

	primaryBytes, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(replaced.RelativePath)))
	require.NoError(t, err)
	assert.Equal(t, "new content", string(primaryBytes))
}

func TestLocal_ArchiveVersion_MissingPrimary(t *testing.T) {
	store := newTestStore(t)

	// Metadata pointing at a file that is gone from disk: skip, not fail.
	archived, err := store.ArchiveVersion(context.Background(), "customers/c1/vanished.pdf", 3)
	assert.NoError(t, err)
	assert.Nil(t, archived)
}

func TestLocal_Remove_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	placed, err := store.PlaceUpload(ctx, writeTemp(t, "x"), "c1_JaneDoe", "a.pdf")
	require.NoError(t, err)

	assert.NoError(t, store.Remove(placed.RelativePath))
	// Second removal of the same path is a no-op success.
	assert.NoError(t, store.Remove(placed.RelativePath))
}

func TestLocal_RemoveFolder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	placed, err := store.PlaceUpload(ctx, writeTemp(t, "x"), "c1_JaneDoe", "a.pdf")
	require.NoError(t, err)
	_, err = store.ArchiveVersion(ctx, placed.RelativePath, 1)
	require.NoError(t, err)

	require.NoError(t, store.RemoveFolder("c1_JaneDoe"))
	assert.False(t, store.Exists(placed.RelativePath))
	_, err = os.Stat(filepath.Join(store.Root(), "customers", "c1_JaneDoe"))
	assert.True(t, os.IsNotExist(err))
}
