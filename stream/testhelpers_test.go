package stream

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

// recordingDecrypter decodes payloads without decryption and records how it
// was called.
type recordingDecrypter struct {
	unicodeCalls int
	asciiCalls   int
	lastFlag     bool
}

func (d *recordingDecrypter) DecryptUnicode(units []uint16, encrypted bool) (string, error) {
	d.unicodeCalls++
	d.lastFlag = encrypted
	return string(utf16.Decode(units)), nil
}

func (d *recordingDecrypter) DecryptASCII(raw []byte, encrypted bool) (string, error) {
	d.asciiCalls++
	d.lastFlag = encrypted
	return string(raw), nil
}

func newTestReader(t *testing.T, data []byte, opts ...Option) (*Reader, *recordingDecrypter) {
	t.Helper()
	dec := &recordingDecrypter{}
	r, err := NewReader(bytes.NewReader(data), append([]Option{WithDecrypter(dec)}, opts...)...)
	require.NoError(t, err)
	return r, dec
}

func requirePosition(t *testing.T, r *Reader, want int64) {
	t.Helper()
	pos, err := r.Position()
	require.NoError(t, err)
	require.Equal(t, want, pos)
}

// builder assembles little-endian test streams.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) u8(v ...byte) *builder {
	b.buf.Write(v)
	return b
}

func (b *builder) i32(v int32) *builder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *builder) u32(v uint32) *builder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

// wide appends a wide string with a short length prefix.
func (b *builder) wide(s string) *builder {
	units := utf16.Encode([]rune(s))
	b.u8(byte(len(units)))
	for _, u := range units {
		_ = binary.Write(&b.buf, binary.LittleEndian, u)
	}
	return b
}

// narrow appends a narrow string with a short negative length prefix.
func (b *builder) narrow(s string) *builder {
	b.u8(byte(-int8(len(s))))
	b.buf.WriteString(s)
	return b
}

func (b *builder) len() int64 {
	return int64(b.buf.Len())
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}

func bytesReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}
