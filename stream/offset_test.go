package stream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeobfuscate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		pos          uint32
		sectionStart uint32
		versionHash  uint32
		offsetKey    uint32
		stored       uint32
		want         uint32
	}{
		{
			name:        "identity key",
			pos:         4,
			versionHash: 1,
			want:        0xDFFFFFFF,
		},
		{
			name:        "zero rotation",
			pos:         0,
			versionHash: 1,
			offsetKey:   0x1F,
			want:        0xFFFFFFE0,
		},
		{
			name:         "wrapping section start",
			pos:          0x10,
			sectionStart: 0x80000001,
			versionHash:  3,
			offsetKey:    5,
			stored:       0x12345678,
			want:         0xEDCA0D89,
		},
		{
			name:         "realistic key",
			pos:          12,
			sectionStart: 8,
			versionHash:  0x9E3779B9,
			offsetKey:    0xA5A5A5A5,
			stored:       0xCAFEBABE,
			want:         0x5A2F84E1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Deobfuscate(tt.pos, tt.sectionStart, tt.versionHash, tt.offsetKey, tt.stored)
			assert.Equal(t, tt.want, got, "got 0x%08X", got)
		})
	}
}

func TestReadObfuscatedOffset(t *testing.T) {
	t.Parallel()

	data := new(builder).u32(0xFFFFFFFF).u32(0).u32(0xCAFEBABE).bytes()
	r, _ := newTestReader(t, data, WithKeys(&Keys{VersionHash: 1}))
	require.NoError(t, r.Jump(4))

	got, err := r.ReadObfuscatedOffset(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDFFFFFFF), got)
	requirePosition(t, r, 8)

	// The version hash is read at call time.
	r.SetVersionHash(0x9E3779B9)
	r.Keys().OffsetKey = 0xA5A5A5A5
	require.NoError(t, r.Jump(12))
	_, err = r.ReadObfuscatedOffset(8)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	require.NoError(t, r.Jump(8))
	got, err = r.ReadObfuscatedOffset(8)
	require.NoError(t, err)
	assert.Equal(t, Deobfuscate(8, 8, 0x9E3779B9, 0xA5A5A5A5, 0xCAFEBABE), got)
}
