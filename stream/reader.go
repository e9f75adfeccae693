// Package stream decodes the primitive values of the archive format from a
// seekable byte source: little-endian integers, compact integers, strings
// in their two encodings, string blocks that may reference an interned
// string elsewhere in the archive, and obfuscated offsets.
//
// A Reader is single-threaded. It borrows its source and never closes it.
package stream

import (
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meigma/arcstream/internal/arctype"
	"github.com/meigma/arcstream/textcrypt"
	"github.com/meigma/arcstream/window"
)

// DefaultMaxStringLength is the default limit on the element count of a
// single decoded string (16M code units or bytes).
const DefaultMaxStringLength = 16 << 20

// Errors re-exported from arctype.
var (
	// ErrFormat is returned when a string block tag or a string length is
	// not allowed by the format.
	ErrFormat = arctype.ErrFormat

	// ErrSizeOverflow is returned when a string is longer than the
	// configured limit.
	ErrSizeOverflow = arctype.ErrSizeOverflow
)

// FormatError describes an unexpected tag byte.
type FormatError = arctype.FormatError

// Decrypter turns raw string payloads into strings. Implementations must
// not retain the slices they are given.
type Decrypter interface {
	DecryptUnicode(units []uint16, encrypted bool) (string, error)
	DecryptASCII(raw []byte, encrypted bool) (string, error)
}

// Keys holds the key material for offset de-obfuscation.
//
// A Keys value may be shared by several Readers (see Reader.Window). Every
// decode reads the current values; nothing is snapshotted.
type Keys struct {
	// VersionHash is derived from the archive's declared version string.
	VersionHash uint32

	// OffsetKey is the fixed constant subtracted during de-obfuscation.
	OffsetKey uint32
}

// Reader decodes values from a seekable source.
type Reader struct {
	src             io.ReadSeeker
	dec             Decrypter
	keys            *Keys
	logger          *slog.Logger
	maxStringLength int
	cacheSize       int
	strings         *lru.Cache[stringRef, string]
	buf             [8]byte
}

type stringRef struct {
	offset    int64
	encrypted bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithDecrypter sets the string decryption collaborator.
// Defaults to textcrypt.Plain, which rejects encrypted strings.
func WithDecrypter(d Decrypter) Option {
	return func(r *Reader) {
		if d != nil {
			r.dec = d
		}
	}
}

// WithKeys shares k with the Reader. Changes made to k after the Reader is
// created are used by later offset decodes.
func WithKeys(k *Keys) Option {
	return func(r *Reader) {
		if k != nil {
			r.keys = k
		}
	}
}

// WithStringCache caches up to size strings resolved by ReadStringAtOffset.
// Set to 0 to disable caching (default).
func WithStringCache(size int) Option {
	return func(r *Reader) {
		if size < 0 {
			size = 0
		}
		r.cacheSize = size
	}
}

// WithMaxStringLength limits the element count of a single string.
// Set to 0 to disable the limit; payloads are still never allocated beyond
// the bytes left in the source.
func WithMaxStringLength(n int) Option {
	return func(r *Reader) {
		if n < 0 {
			n = 0
		}
		r.maxStringLength = n
	}
}

// WithLogger sets a logger for the Reader.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader over src.
func NewReader(src io.ReadSeeker, opts ...Option) (*Reader, error) {
	r := &Reader{
		src:             src,
		dec:             textcrypt.Plain{},
		keys:            &Keys{},
		maxStringLength: DefaultMaxStringLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.initCache(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) initCache() error {
	if r.cacheSize == 0 {
		return nil
	}
	c, err := lru.New[stringRef, string](r.cacheSize)
	if err != nil {
		return fmt.Errorf("stream: string cache: %w", err)
	}
	r.strings = c
	return nil
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Source returns the underlying source.
func (r *Reader) Source() io.ReadSeeker {
	return r.src
}

// Keys returns the key material used by the Reader.
func (r *Reader) Keys() *Keys {
	return r.keys
}

// VersionHash returns the current version hash.
func (r *Reader) VersionHash() uint32 {
	return r.keys.VersionHash
}

// SetVersionHash replaces the version hash used by later offset decodes,
// including those of Readers sharing the same Keys.
func (r *Reader) SetVersionHash(h uint32) {
	r.keys.VersionHash = h
}

// Window returns a Reader over [start, start+length) of r's source, in r's
// coordinates. The new Reader shares r's decrypter and keys and has its own
// cursor, starting at 0.
func (r *Reader) Window(start, length int64) (*Reader, error) {
	w, err := window.New(r.src, start, length)
	if err != nil {
		return nil, err
	}
	child := &Reader{
		src:             w,
		dec:             r.dec,
		keys:            r.keys,
		logger:          r.logger,
		maxStringLength: r.maxStringLength,
		cacheSize:       r.cacheSize,
	}
	if err := child.initCache(); err != nil {
		return nil, err
	}
	r.log().Debug("window opened", "start", start, "length", length)
	return child, nil
}
