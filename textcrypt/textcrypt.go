// Package textcrypt turns raw string payloads read from an archive into Go
// strings.
//
// Wide payloads are little-endian UTF-16 code units; narrow payloads are
// single-byte Windows-1252 text. Encrypted payloads are XORed with a
// ChaCha20 keystream restarted for every string before decoding.
package textcrypt

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ErrNoKey is returned when an encrypted payload is decoded without key
// material.
var ErrNoKey = errors.New("textcrypt: encrypted string but no key configured")

// Plain decodes unencrypted payloads. Encrypted payloads fail with ErrNoKey.
type Plain struct{}

// DecryptUnicode decodes UTF-16LE code units.
func (Plain) DecryptUnicode(units []uint16, encrypted bool) (string, error) {
	if encrypted {
		return "", ErrNoKey
	}
	return decodeUnicode(unitsToBytes(units))
}

// DecryptASCII decodes single-byte text.
func (Plain) DecryptASCII(raw []byte, encrypted bool) (string, error) {
	if encrypted {
		return "", ErrNoKey
	}
	return decodeASCII(raw)
}

// Cipher decodes payloads that may be encrypted with a ChaCha20 keystream.
// It is safe for concurrent use.
type Cipher struct {
	key   [chacha20.KeySize]byte
	nonce [chacha20.NonceSize]byte
}

// NewCipher returns a Cipher for a 32-byte key and 12-byte nonce.
func NewCipher(key, nonce []byte) (*Cipher, error) {
	if len(key) != chacha20.KeySize {
		return nil, fmt.Errorf("textcrypt: key must be %d bytes, got %d", chacha20.KeySize, len(key))
	}
	if len(nonce) != chacha20.NonceSize {
		return nil, fmt.Errorf("textcrypt: nonce must be %d bytes, got %d", chacha20.NonceSize, len(nonce))
	}
	c := &Cipher{}
	copy(c.key[:], key)
	copy(c.nonce[:], nonce)
	return c, nil
}

// DecryptUnicode decodes UTF-16LE code units, decrypting them first when
// encrypted is set.
func (c *Cipher) DecryptUnicode(units []uint16, encrypted bool) (string, error) {
	buf := unitsToBytes(units)
	if encrypted {
		if err := c.apply(buf); err != nil {
			return "", err
		}
	}
	return decodeUnicode(buf)
}

// DecryptASCII decodes single-byte text, decrypting it first when encrypted
// is set. raw is not modified.
func (c *Cipher) DecryptASCII(raw []byte, encrypted bool) (string, error) {
	if !encrypted {
		return decodeASCII(raw)
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)
	if err := c.apply(buf); err != nil {
		return "", err
	}
	return decodeASCII(buf)
}

// apply XORs buf in place with the keystream. Applying it twice restores
// the input.
func (c *Cipher) apply(buf []byte) error {
	s, err := chacha20.NewUnauthenticatedCipher(c.key[:], c.nonce[:])
	if err != nil {
		return fmt.Errorf("textcrypt: %w", err)
	}
	s.XORKeyStream(buf, buf)
	return nil
}

func unitsToBytes(units []uint16) []byte {
	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2*i:], u)
	}
	return buf
}

func decodeUnicode(buf []byte) (string, error) {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("textcrypt: decode utf-16: %w", err)
	}
	return string(out), nil
}

func decodeASCII(raw []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("textcrypt: decode windows-1252: %w", err)
	}
	return string(out), nil
}
