package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T) string {
	t.Helper()
	data := []byte{
		// compact 5, compact 42
		0x05,
		0x80, 0x2A, 0x00, 0x00, 0x00,
		// narrow "ok" at 6
		0xFE, 'o', 'k',
		// string block referencing offset 6
		0x01, 0x06, 0x00, 0x00, 0x00,
		// obfuscated offset field at 14
		0x00, 0x00, 0x00, 0x00,
	}
	path := filepath.Join(t.TempDir(), "test.pak")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arcstream.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version_hash: 1\nlog_level: error\n"), 0o600))
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	archive := writeArchive(t)
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "compact", args: []string{"--op", "compact", "--count", "2"}, want: "5\n42\n"},
		{name: "string", args: []string{"--op", "string", "--at", "6"}, want: "\"ok\"\n"},
		{name: "block", args: []string{"--op", "block", "--at", "9"}, want: "\"ok\"\n"},
		{
			name: "string in window",
			args: []string{"--op", "string", "--window-start", "6", "--window-length", "3"},
			want: "\"ok\"\n",
		},
		{name: "offset", args: []string{"--op", "offset", "--at", "14"}, want: "0xffe3ffff\n"},
		{name: "bytes", args: []string{"--op", "bytes", "--at", "6", "--count", "3"}, want: "fe 6f 6b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			args := append([]string{"--config", cfg}, tt.args...)
			args = append(args, archive)
			require.NoError(t, run(args, &stdout, &stderr), stderr.String())
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	archive := writeArchive(t)
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no archive", args: []string{"--config", cfg}},
		{name: "unknown op", args: []string{"--config", cfg, "--op", "nope", archive}},
		{name: "bad tag", args: []string{"--config", cfg, "--op", "block", "--at", "1", archive}},
		{name: "window out of range", args: []string{"--config", cfg, "--window-start", "100", archive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			require.Error(t, run(tt.args, &stdout, &stderr))
		})
	}
}
