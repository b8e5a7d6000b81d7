package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
)

func newTestStore(t *testing.T) *FileStore {
	path := filepath.Join(t.TempDir(), "state", "supervisor.json")
	return NewFileStore(path, logging.NewLogger("", logging.LogFuncs{}))
}

func TestFileStoreSaveLoad(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Exists())

	doc := Document{
		Services:   []ServiceState{FromDescriptor(sampleDescriptor())},
		LastUpdate: time.Now().Truncate(time.Millisecond),
	}

	require.NoError(t, store.Save(doc))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Services, 1)
	assert.Equal(t, doc.Services[0], loaded.Services[0])
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestFileStoreOverwrite(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(Document{LastUpdate: time.Now()}))
	require.NoError(t, store.Save(Document{
		Services:   []ServiceState{FromDescriptor(sampleDescriptor())},
		LastUpdate: time.Now(),
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Services, 1)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}
