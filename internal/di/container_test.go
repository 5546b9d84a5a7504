package di

import (
	"path/filepath"
	"testing"

	"github.com/reshetovitsme/steam-browser/internal/shared/config"
	"github.com/reshetovitsme/steam-browser/internal/shared/kv"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_LeavesUnbuiltServicesAlone(t *testing.T) {
	storage := filepath.Join(t.TempDir(), "never-opened")
	t.Setenv(config.EnvPrefix+"STORAGE_PATH", storage)

	injector, err := Setup("")
	require.NoError(t, err)

	require.NoError(t, Shutdown(injector))
	assert.NoDirExists(t, storage)
}

func TestShutdown_ClosesBuiltStore(t *testing.T) {
	t.Setenv(config.EnvPrefix+"STORAGE_PATH", t.TempDir())
	t.Setenv(config.EnvPrefix+"STORAGE_DRIVER", string(config.StorageDriverBolt))

	injector, err := Setup("")
	require.NoError(t, err)

	store := do.MustInvoke[kv.Store](injector)
	require.NoError(t, store.Put("favorites", []byte("[]")))

	require.NoError(t, Shutdown(injector))

	_, err = store.Get("favorites")
	assert.Error(t, err)
}
