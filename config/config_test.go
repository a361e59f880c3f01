package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settingsYAML = `diagnostics: true
schema_dir: /etc/modelruntime/schemas
providers:
  openai:
    base_url: https://api.openai.com
    api_key: sk-test
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modelruntime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeSettings(t, settingsYAML))
	require.NoError(t, err)

	s := cfg.Get()
	assert.True(t, s.Diagnostics)
	assert.Equal(t, "/etc/modelruntime/schemas", s.SchemaDir)
	require.Contains(t, s.Providers, "openai")
	assert.Equal(t, "sk-test", s.Providers["openai"].APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeSettings(t, "diagnostics: [unclosed"))
	require.Error(t, err)
}

func TestOnChangeReload(t *testing.T) {
	path := writeSettings(t, settingsYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	changed := make(chan Settings, 1)
	cfg.OnChange(func(_, next Settings) {
		select {
		case changed <- next:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("diagnostics: false\nschema_dir: /tmp/schemas\n"), 0o644))

	select {
	case next := <-changed:
		assert.False(t, next.Diagnostics)
		assert.Equal(t, "/tmp/schemas", next.SchemaDir)
		assert.Equal(t, cfg.Get().SchemaDir, next.SchemaDir)
	case <-time.After(5 * time.Second):
		t.Fatal("reload never observed")
	}
}
