// Package source opens the random-access byte stores archives are read from:
// local files, memory, and HTTP servers that support range requests.
//
// Archives stored inside a zstd or lz4 frame are detected by their magic
// bytes and decompressed into memory; plain archives are read in place.
package source

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"

	"github.com/meigma/arcstream/internal/arctype"
	"github.com/meigma/arcstream/internal/sizing"
)

// DefaultMaxSize is the default limit on decompressed archive size (1GB).
const DefaultMaxSize = 1 << 30

// ErrSizeOverflow is returned when a decompressed archive exceeds the
// configured limit.
var ErrSizeOverflow = arctype.ErrSizeOverflow

// ErrDecompression is returned when a compressed archive cannot be decoded.
var ErrDecompression = errors.New("arcstream: decompression failed")

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// Compression identifies the framing an archive was stored in.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

// String returns the human-readable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Source provides random access to archive bytes.
// It is safe for concurrent use through ReadAt and Handle.
type Source struct {
	ra          io.ReaderAt
	size        int64
	sourceID    string
	closer      io.Closer
	compression Compression

	maxSize            uint64
	decoderConcurrency int
	decoderLowmem      bool
	httpClient         *nethttp.Client
	httpHeaders        nethttp.Header
	logger             *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithMaxSize limits the decompressed size of a compressed archive.
// Set to 0 to disable the limit.
func WithMaxSize(limit uint64) Option {
	return func(s *Source) {
		s.maxSize = limit
	}
}

// WithDecoderConcurrency sets the zstd decoder concurrency (default: 1).
// Values < 0 are treated as 0 (use GOMAXPROCS).
func WithDecoderConcurrency(n int) Option {
	return func(s *Source) {
		if n < 0 {
			n = 0
		}
		s.decoderConcurrency = n
	}
}

// WithDecoderLowmem sets whether the zstd decoder should use low-memory mode (default: false).
func WithDecoderLowmem(enabled bool) Option {
	return func(s *Source) {
		s.decoderLowmem = enabled
	}
}

// WithLogger sets a logger for the Source.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

func newSource(opts []Option) *Source {
	s := &Source{
		maxSize:            DefaultMaxSize,
		decoderConcurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Source) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Open opens the archive at path.
func Open(path string, opts ...Option) (*Source, error) {
	s := newSource(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}

	compression, err := detect(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if compression != CompressionNone {
		defer f.Close() //nolint:errcheck // read-only file
		data, err := s.decompress(io.NewSectionReader(f, 0, info.Size()), compression)
		if err != nil {
			return nil, fmt.Errorf("open archive %s: %w", path, err)
		}
		s.setBytes(data)
		s.compression = compression
		s.log().Debug("archive decompressed", "path", path, "compression", compression.String(),
			"stored", info.Size(), "size", len(data))
		return s, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	s.ra = f
	s.size = info.Size()
	s.closer = f
	s.sourceID = fileSourceID(abs, info)
	return s, nil
}

// FromBytes returns a Source over data, decompressing it first if it is a
// zstd or lz4 frame.
func FromBytes(data []byte, opts ...Option) (*Source, error) {
	s := newSource(opts)

	compression, err := detect(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if compression != CompressionNone {
		data, err = s.decompress(bytes.NewReader(data), compression)
		if err != nil {
			return nil, err
		}
		s.compression = compression
	}
	s.setBytes(data)
	return s, nil
}

func (s *Source) setBytes(data []byte) {
	sum := blake3.Sum256(data)
	s.ra = bytes.NewReader(data)
	s.size = int64(len(data))
	s.sourceID = "blake3:" + hex.EncodeToString(sum[:])
}

func fileSourceID(path string, info os.FileInfo) string {
	sum := blake3.Sum256(fmt.Appendf(nil, "%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()))
	return "file:" + hex.EncodeToString(sum[:16])
}

// detect inspects the leading magic bytes.
func detect(ra io.ReaderAt, size int64) (Compression, error) {
	if size < 4 {
		return CompressionNone, nil
	}
	var magic [4]byte
	if _, err := ra.ReadAt(magic[:], 0); err != nil && err != io.EOF {
		return CompressionNone, err
	}
	switch {
	case bytes.Equal(magic[:], zstdMagic):
		return CompressionZstd, nil
	case bytes.Equal(magic[:], lz4Magic):
		return CompressionLZ4, nil
	default:
		return CompressionNone, nil
	}
}

func (s *Source) decompress(r io.Reader, c Compression) ([]byte, error) {
	switch c {
	case CompressionZstd:
		opts := []zstd.DOption{
			zstd.WithDecoderConcurrency(s.decoderConcurrency),
			zstd.WithDecoderLowmem(s.decoderLowmem),
		}
		dec, err := zstd.NewReader(r, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		defer dec.Close()
		return s.readAll(dec)

	case CompressionLZ4:
		return s.readAll(lz4.NewReader(r))

	default:
		return nil, fmt.Errorf("unknown compression algorithm: %d", c)
	}
}

func (s *Source) readAll(r io.Reader) ([]byte, error) {
	if s.maxSize == 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		return data, nil
	}
	data, err := sizing.ReadAllWithLimit(r, s.maxSize, ErrSizeOverflow)
	if err != nil {
		if errors.Is(err, ErrSizeOverflow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return data, nil
}

// ReadAt implements io.ReaderAt.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	return s.ra.ReadAt(p, off)
}

// Size returns the size of the (decompressed) archive.
func (s *Source) Size() int64 {
	return s.size
}

// SourceID returns a stable identifier for the archive content.
func (s *Source) SourceID() string {
	return s.sourceID
}

// Compression reports the framing the archive was stored in.
func (s *Source) Compression() Compression {
	return s.compression
}

// Handle returns an independent seekable reader over the whole source.
// Each handle has its own cursor, so handles may be used from different
// goroutines at the same time.
func (s *Source) Handle() *io.SectionReader {
	return io.NewSectionReader(s.ra, 0, s.size)
}

// Fingerprint returns the BLAKE3 hash of the archive content.
func (s *Source) Fingerprint() ([32]byte, error) {
	var sum [32]byte
	h := blake3.New()
	if _, err := io.Copy(h, s.Handle()); err != nil {
		return sum, fmt.Errorf("fingerprint: %w", err)
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// Close releases the underlying file, if any.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
