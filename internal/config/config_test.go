package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
	assert.Equal(t, config.SourceFile, cfg.Source.Kind)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, graph.RepointToTerminal, cfg.DeletePolicy())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lattice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
store:
  backend: redis
redis:
  addr: redis:6379
  lock_ttl: 1m
editor:
  delete_policy: reject
`), 0644))

	t.Setenv("LATTICE_REDIS_PREFIX", "test:")
	t.Setenv("LATTICE_SERVER_ADDR", ":9090")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, "test:", cfg.Redis.Prefix)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, graph.RejectIfReferenced, cfg.DeletePolicy())
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("LATTICE_STORE_BACKEND", "postgres")
	_, err := config.Load("")
	assert.ErrorContains(t, err, "unknown store backend")

	t.Setenv("LATTICE_STORE_BACKEND", "memory")
	t.Setenv("LATTICE_EDITOR_DELETE_POLICY", "cascade")
	_, err = config.Load("")
	assert.ErrorContains(t, err, "unknown delete policy")

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
