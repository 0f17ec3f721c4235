package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.conf"))
	require.NoError(t, err)

	assert.Equal(t, int64(5000), c.Int64(ListenPort))
	assert.Equal(t, DriverPostgres, c.String(DatabaseDriver))
	assert.Equal(t, int64(300), c.Int64(CacheTTLSeconds))
	assert.Equal(t, 5*time.Second, c.Seconds(RetryInitialSeconds))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.conf")
	err := os.WriteFile(path, []byte(`[api]
listen_port = 8080
database_driver = memory
memcached_host = localhost
cache_ttl_seconds = 60
`), 0o600)
	require.NoError(t, err)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(8080), c.Int64(ListenPort))
	assert.Equal(t, DriverMemory, c.String(DatabaseDriver))
	assert.Equal(t, "localhost", c.String(MemcachedHost))
	assert.Equal(t, int64(60), c.Int64(CacheTTLSeconds))

	// Untouched keys keep their defaults
	assert.Equal(t, int64(11211), c.Int64(MemcachedPort))
	assert.Equal(t, "itemcache", c.String(DatabaseName))
}

func TestLoadRejectsBadInt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.conf")
	err := os.WriteFile(path, []byte("[api]\nlisten_port = eighty\n"), 0o600)
	require.NoError(t, err)

	_, err = Load(path)
	assert.Error(t, err)
}
