package textcrypt

import (
	"bytes"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(bytes.Repeat([]byte{0x42}, 32), bytes.Repeat([]byte{0x07}, 12))
	require.NoError(t, err)
	return c
}

func TestPlain(t *testing.T) {
	t.Parallel()

	s, err := Plain{}.DecryptUnicode(utf16.Encode([]rune("héllo, 世界")), false)
	require.NoError(t, err)
	assert.Equal(t, "héllo, 世界", s)

	s, err = Plain{}.DecryptASCII([]byte("Data\\file.txt"), false)
	require.NoError(t, err)
	assert.Equal(t, "Data\\file.txt", s)

	s, err = Plain{}.DecryptASCII([]byte{'c', 'a', 'f', 0xE9}, false)
	require.NoError(t, err)
	assert.Equal(t, "café", s)

	_, err = Plain{}.DecryptUnicode([]uint16{'a'}, true)
	require.ErrorIs(t, err, ErrNoKey)
	_, err = Plain{}.DecryptASCII([]byte("a"), true)
	require.ErrorIs(t, err, ErrNoKey)
}

func TestNewCipher_BadKey(t *testing.T) {
	t.Parallel()

	_, err := NewCipher(make([]byte, 16), make([]byte, 12))
	require.Error(t, err)
	_, err = NewCipher(make([]byte, 32), make([]byte, 8))
	require.Error(t, err)
}

func TestCipher_ASCII(t *testing.T) {
	t.Parallel()

	c := testCipher(t)
	sealed := []byte("textures/grass.dds")
	require.NoError(t, c.apply(sealed))
	assert.NotEqual(t, []byte("textures/grass.dds"), sealed)
	orig := append([]byte(nil), sealed...)

	s, err := c.DecryptASCII(sealed, true)
	require.NoError(t, err)
	assert.Equal(t, "textures/grass.dds", s)
	assert.Equal(t, orig, sealed, "input must not be modified")

	s, err = c.DecryptASCII([]byte("plain"), false)
	require.NoError(t, err)
	assert.Equal(t, "plain", s)
}

func TestCipher_Unicode(t *testing.T) {
	t.Parallel()

	c := testCipher(t)
	raw := unitsToBytes(utf16.Encode([]rune("ダンジョン")))
	require.NoError(t, c.apply(raw))
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}

	s, err := c.DecryptUnicode(units, true)
	require.NoError(t, err)
	assert.Equal(t, "ダンジョン", s)

	s, err = c.DecryptUnicode(utf16.Encode([]rune("ok")), false)
	require.NoError(t, err)
	assert.Equal(t, "ok", s)
}
