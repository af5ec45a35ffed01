package settings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaults(t *testing.T) {
	s := New("")

	assert.Equal(t, DefaultDatabase, s.Database())
	assert.False(t, s.Compression())
	assert.Empty(t, s.Options())
	assert.Zero(t, s.Revision())
}

func TestSettingsRevisionTracksChanges(t *testing.T) {
	s := New("analytics")

	s.SetDatabase("analytics") // unchanged
	require.Zero(t, s.Revision())

	s.SetDatabase("logs")
	require.Equal(t, uint64(1), s.Revision())
	require.Equal(t, "logs", s.Database())

	s.EnableCompression(true)
	s.EnableCompression(true)
	require.Equal(t, uint64(2), s.Revision())
	require.True(t, s.Compression())

	s.Apply(nil)
	require.Equal(t, uint64(2), s.Revision())

	s.Set("max_execution_time", 30)
	require.Equal(t, uint64(3), s.Revision())
}

func TestSettingsApplyMergesAndRemoves(t *testing.T) {
	s := New("default")

	s.Apply(map[string]any{"max_execution_time": 30, "readonly": 1})
	s.Apply(map[string]any{"readonly": nil, "max_threads": 4})

	v, ok := s.Get("max_execution_time")
	require.True(t, ok)
	assert.Equal(t, 30, v)

	_, ok = s.Get("readonly")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"max_execution_time": 30, "max_threads": 4}, s.Options())
}

func TestSettingsOptionsIsCopy(t *testing.T) {
	s := New("default")
	s.Set("a", 1)

	opts := s.Options()
	opts["a"] = 2
	opts["b"] = 3

	v, _ := s.Get("a")
	assert.Equal(t, 1, v)
	_, ok := s.Get("b")
	assert.False(t, ok)
}

func TestSettingsConcurrentAccess(t *testing.T) {
	s := New("default")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			s.Set("k", i)
			_ = s.Options()
			s.EnableCompression(i%2 == 0)
			_ = s.Database()
		})
	}
	wg.Wait()

	_, ok := s.Get("k")
	assert.True(t, ok)
}

func TestParseConnection(t *testing.T) {
	conn, err := Parse([]byte(`
host: clickhouse.internal
username: ingest
password: secret
database: analytics
compression: true
dial_timeout: 3s
settings:
  max_execution_time: 60
`))
	require.NoError(t, err)

	assert.Equal(t, "clickhouse.internal", conn.Host)
	assert.Equal(t, DefaultPort, conn.Port)
	assert.Equal(t, "ingest", conn.Username)
	assert.Equal(t, 3*time.Second, conn.DialTimeout)
	assert.Equal(t, 30*time.Second, conn.Timeout)
	assert.Equal(t, 2*time.Second, conn.HealthTimeout)

	s := conn.NewSettings()
	assert.Equal(t, "analytics", s.Database())
	assert.True(t, s.Compression())
	v, ok := s.Get("max_execution_time")
	require.True(t, ok)
	assert.Equal(t, 60, v)
}

func TestParseConnectionErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no host", "port: 8123\n", "host or hosts must be set"},
		{"bad port", "host: a\nport: 70000\n", "invalid port"},
		{"bad yaml", "host: [a\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadConnectionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clickhouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hosts:\n  - 10.0.0.1:8123\n  - 10.0.0.2:8123\n"), 0o600))

	conn, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:8123", "10.0.0.2:8123"}, conn.Hosts)
	assert.Equal(t, "default", conn.Username)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read connection file")
}
