package arcstream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/arcstream/source"
	"github.com/meigma/arcstream/stream"
)

// DefaultConcurrency is the default number of ResolveStrings workers.
const DefaultConcurrency = 8

// Archive is an opened archive. Readers created from it share its key
// material; each has an independent handle on the archive source.
type Archive struct {
	src         *source.Source
	keys        *stream.Keys
	dec         stream.Decrypter
	stringCache int
	concurrency int
	sourceOpts  []source.Option
	logger      *slog.Logger
}

func newArchive(opts []Option) (*Archive, error) {
	a := &Archive{
		keys:        &stream.Keys{},
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.logger != nil {
		a.sourceOpts = append(a.sourceOpts, source.WithLogger(a.logger))
	}
	return a, nil
}

// Open opens the archive file at path.
func Open(path string, opts ...Option) (*Archive, error) {
	a, err := newArchive(opts)
	if err != nil {
		return nil, err
	}
	src, err := source.Open(path, a.sourceOpts...)
	if err != nil {
		return nil, err
	}
	a.src = src
	a.log().Debug("archive opened", "path", path, "size", src.Size(),
		"compression", src.Compression().String(), "source", src.SourceID())
	return a, nil
}

// OpenURL opens an archive served over HTTP by a server that supports
// range requests.
func OpenURL(ctx context.Context, url string, opts ...Option) (*Archive, error) {
	a, err := newArchive(opts)
	if err != nil {
		return nil, err
	}
	src, err := source.OpenURL(ctx, url, a.sourceOpts...)
	if err != nil {
		return nil, err
	}
	a.src = src
	a.log().Debug("archive opened", "url", url, "size", src.Size(),
		"compression", src.Compression().String(), "source", src.SourceID())
	return a, nil
}

// OpenBytes opens an archive held in memory.
func OpenBytes(data []byte, opts ...Option) (*Archive, error) {
	a, err := newArchive(opts)
	if err != nil {
		return nil, err
	}
	src, err := source.FromBytes(data, a.sourceOpts...)
	if err != nil {
		return nil, err
	}
	a.src = src
	return a, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Source returns the underlying source.
func (a *Archive) Source() *source.Source {
	return a.src
}

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 {
	return a.src.Size()
}

// VersionHash returns the current version hash.
func (a *Archive) VersionHash() uint32 {
	return a.keys.VersionHash
}

// SetVersionHash replaces the version hash seen by all Readers of the
// Archive, including existing ones. It must not be called while Readers are
// decoding on other goroutines.
func (a *Archive) SetVersionHash(h uint32) {
	a.keys.VersionHash = h
}

func (a *Archive) readerOptions(cache bool) []stream.Option {
	opts := []stream.Option{
		stream.WithKeys(a.keys),
		stream.WithDecrypter(a.dec),
		stream.WithLogger(a.logger),
	}
	if cache {
		opts = append(opts, stream.WithStringCache(a.stringCache))
	}
	return opts
}

// Reader returns a Reader over the whole archive, positioned at 0.
func (a *Archive) Reader() (*stream.Reader, error) {
	return stream.NewReader(a.src.Handle(), a.readerOptions(true)...)
}

// Section returns a Reader over [start, start+length) of the archive.
// Positions and string references inside the section are relative to start.
func (a *Archive) Section(start, length int64) (*stream.Reader, error) {
	r, err := a.Reader()
	if err != nil {
		return nil, err
	}
	return r.Window(start, length)
}

// ResolveStrings reads the strings stored at each absolute offset, in
// parallel. Results are returned in the order of offsets. Each worker reads
// through its own handle; repeated offsets being resolved at the same time
// are read once.
func (a *Archive) ResolveStrings(ctx context.Context, offsets []int64, encrypted bool) ([]string, error) {
	out := make([]string, len(offsets))
	var group singleflight.Group

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, off := range offsets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err, _ := group.Do(strconv.FormatInt(off, 10), func() (any, error) {
				r, err := stream.NewReader(a.src.Handle(), a.readerOptions(false)...)
				if err != nil {
					return nil, err
				}
				return r.ReadStringAtOffset(off, encrypted)
			})
			if err != nil {
				return fmt.Errorf("resolve string %d: %w", i, err)
			}
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("resolve string %d: unexpected result %T", i, v)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.log().Debug("strings resolved", "count", len(offsets))
	return out, nil
}

// Fingerprint returns the BLAKE3 hash of the archive content.
func (a *Archive) Fingerprint() ([32]byte, error) {
	return a.src.Fingerprint()
}

// Close releases the archive source.
func (a *Archive) Close() error {
	return a.src.Close()
}
