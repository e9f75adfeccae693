package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arcstream/textcrypt"
)

var (
	testKey   = strings.Repeat("42", 32)
	testNonce = strings.Repeat("07", 12)
)

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
version_hash: 0x9E3779B9
offset_key: 0xA5A5A5A5
cipher:
  key: ` + testKey + `
  nonce: ` + testNonce + `
string_cache_size: 128
max_decompressed_size: 1048576
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, uint32(0x9E3779B9), cfg.VersionHash)
	assert.Equal(t, uint32(0xA5A5A5A5), cfg.OffsetKey)
	assert.Equal(t, 128, cfg.StringCacheSize)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	keys := cfg.Keys()
	assert.Equal(t, cfg.VersionHash, keys.VersionHash)
	assert.Equal(t, cfg.OffsetKey, keys.OffsetKey)

	dec, err := cfg.Decrypter()
	require.NoError(t, err)
	assert.IsType(t, &textcrypt.Cipher{}, dec)

	assert.Len(t, cfg.SourceOptions(), 1)
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("version_hash: 7\n"))
	require.NoError(t, err)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	dec, err := cfg.Decrypter()
	require.NoError(t, err)
	assert.Equal(t, textcrypt.Plain{}, dec)
	assert.Empty(t, cfg.SourceOptions())
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: "version_hash: [1"},
		{name: "hash too large", yaml: "version_hash: 0x1FFFFFFFF"},
		{name: "negative cache", yaml: "string_cache_size: -1"},
		{name: "bad level", yaml: "log_level: chatty"},
		{name: "bad key hex", yaml: "cipher:\n  key: zz\n  nonce: " + testNonce},
		{name: "short key", yaml: "cipher:\n  key: 0102\n  nonce: " + testNonce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "arcstream.yaml")
	require.NoError(t, os.WriteFile(path, []byte("offset_key: 12\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), cfg.OffsetKey)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arcstream.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version_hash: 3\n"), 0o600))

	t.Setenv(EnvVar, path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.VersionHash)

	t.Setenv(EnvVar, "")
	_, err = Load()
	require.Error(t, err)
}
