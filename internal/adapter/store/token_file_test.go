package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTokenStoreRoundTrip(t *testing.T) {
	assert := assert.New(t)

	store := NewFileTokenStore(filepath.Join(t.TempDir(), "state", "token.json"))

	token, err := store.Load()
	assert.NoError(err)
	assert.Equal("", token)

	assert.NoError(store.Save("rt_first"))
	token, err = store.Load()
	assert.NoError(err)
	assert.Equal("rt_first", token)

	assert.NoError(store.Save("rt_second"))
	token, err = store.Load()
	assert.NoError(err)
	assert.Equal("rt_second", token)
}

func TestFileTokenStorePermissions(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileTokenStore(path)
	assert.NoError(store.Save("rt_secret"))

	info, err := os.Stat(path)
	assert.NoError(err)
	assert.Equal(os.FileMode(0o600), info.Mode().Perm())
}

func TestFileTokenStoreClear(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileTokenStore(path)

	// clearing a store that never saved is fine
	assert.NoError(store.Clear())

	assert.NoError(store.Save("rt_gone"))
	assert.NoError(store.Clear())

	token, err := store.Load()
	assert.NoError(err)
	assert.Equal("", token)
}

func TestFileTokenStoreRejectsCorruptFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "token.json")
	assert.NoError(os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileTokenStore(path).Load()
	assert.Error(err)
}
