// Package config loads the key material and limits used to read archives.
//
// Configuration is a single YAML file named either explicitly or by the
// ARCSTREAM_CONFIG environment variable. There is no discovery and no
// fallback location.
//
// Example:
//
//	version_hash: 0x9E3779B9
//	offset_key: 0xA5A5A5A5
//	cipher:
//	  key: 000102...1f   # 32 bytes, hex
//	  nonce: 000102...0b # 12 bytes, hex
//	string_cache_size: 4096
//	max_decompressed_size: 1073741824
//	log_level: info
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meigma/arcstream/source"
	"github.com/meigma/arcstream/stream"
	"github.com/meigma/arcstream/textcrypt"
)

// EnvVar names the environment variable read by Load.
const EnvVar = "ARCSTREAM_CONFIG"

// Config holds archive key material and reader limits.
type Config struct {
	// VersionHash is the hash matched from the archive's version string.
	VersionHash uint32 `yaml:"version_hash"`

	// OffsetKey is the constant used by offset de-obfuscation.
	OffsetKey uint32 `yaml:"offset_key"`

	// Cipher holds the string decryption key. Without it, encrypted strings
	// cannot be decoded.
	Cipher *CipherConfig `yaml:"cipher,omitempty"`

	// StringCacheSize is the number of resolved string references each
	// reader keeps. Zero disables the cache.
	StringCacheSize int `yaml:"string_cache_size"`

	// MaxDecompressedSize limits the size of compressed archives once
	// decompressed. Zero uses source.DefaultMaxSize.
	MaxDecompressedSize uint64 `yaml:"max_decompressed_size"`

	// LogLevel is one of debug, info, warn, error. Empty means info.
	LogLevel string `yaml:"log_level"`
}

// CipherConfig holds hex-encoded ChaCha20 key material.
type CipherConfig struct {
	Key   string `yaml:"key"`
	Nonce string `yaml:"nonce"`
}

// Load reads the file named by ARCSTREAM_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile reads and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.StringCacheSize < 0 {
		errs = append(errs, fmt.Errorf("string_cache_size must not be negative, got %d", c.StringCacheSize))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Cipher != nil {
		if _, err := c.Cipher.cipher(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Keys returns a fresh Keys value holding the configured key material.
func (c *Config) Keys() *stream.Keys {
	return &stream.Keys{VersionHash: c.VersionHash, OffsetKey: c.OffsetKey}
}

// Decrypter returns the string decryption collaborator for this
// configuration.
func (c *Config) Decrypter() (stream.Decrypter, error) {
	if c.Cipher == nil {
		return textcrypt.Plain{}, nil
	}
	return c.Cipher.cipher()
}

// SourceOptions returns the source options implied by the configuration.
func (c *Config) SourceOptions() []source.Option {
	if c.MaxDecompressedSize == 0 {
		return nil
	}
	return []source.Option{source.WithMaxSize(c.MaxDecompressedSize)}
}

func (cc *CipherConfig) cipher() (*textcrypt.Cipher, error) {
	key, err := hex.DecodeString(cc.Key)
	if err != nil {
		return nil, fmt.Errorf("cipher.key: %w", err)
	}
	nonce, err := hex.DecodeString(cc.Nonce)
	if err != nil {
		return nil, fmt.Errorf("cipher.nonce: %w", err)
	}
	return textcrypt.NewCipher(key, nonce)
}
