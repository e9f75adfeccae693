package arcstream

import (
	"log/slog"

	"github.com/meigma/arcstream/config"
	"github.com/meigma/arcstream/source"
	"github.com/meigma/arcstream/stream"
)

// Option configures an Archive.
type Option func(*Archive) error

// WithConfig applies key material, cache size, and decompression limits
// from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(a *Archive) error {
		if cfg == nil {
			return nil
		}
		dec, err := cfg.Decrypter()
		if err != nil {
			return err
		}
		a.keys = cfg.Keys()
		a.dec = dec
		a.stringCache = cfg.StringCacheSize
		a.sourceOpts = append(a.sourceOpts, cfg.SourceOptions()...)
		return nil
	}
}

// WithKeys shares k with every Reader of the Archive.
func WithKeys(k *stream.Keys) Option {
	return func(a *Archive) error {
		if k != nil {
			a.keys = k
		}
		return nil
	}
}

// WithDecrypter sets the string decryption collaborator.
func WithDecrypter(d stream.Decrypter) Option {
	return func(a *Archive) error {
		a.dec = d
		return nil
	}
}

// WithStringCache sets the per-Reader string reference cache size.
// Set to 0 to disable caching (default).
func WithStringCache(size int) Option {
	return func(a *Archive) error {
		a.stringCache = size
		return nil
	}
}

// WithConcurrency limits the number of workers used by ResolveStrings
// (default: DefaultConcurrency). Values < 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(a *Archive) error {
		if n < 1 {
			n = 1
		}
		a.concurrency = n
		return nil
	}
}

// WithSourceOptions passes options through to source.Open,
// source.OpenURL or source.FromBytes.
func WithSourceOptions(opts ...source.Option) Option {
	return func(a *Archive) error {
		a.sourceOpts = append(a.sourceOpts, opts...)
		return nil
	}
}

// WithLogger sets a logger for the Archive.
// The logger is propagated to its sources and readers.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) error {
		a.logger = logger
		return nil
	}
}
