// arcpeek decodes values from an archive at a given position, optionally
// inside a section of the archive. It is a debugging aid for working out
// archive layouts. The archive may be a local path or an http(s) URL.
//
//	arcpeek --config keys.yaml --window-start 0x400 --window-length 0x200 \
//	    --at 0x10 --op block --count 3 --encrypted data.pak
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/meigma/arcstream"
	"github.com/meigma/arcstream/config"
	"github.com/meigma/arcstream/stream"
)

type options struct {
	configPath   string
	windowStart  int64
	windowLength int64
	at           int64
	op           string
	count        int
	encrypted    bool
	sectionStart uint32
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("arcpeek", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.configPath, "config", "", "path to YAML config (default: $"+config.EnvVar+")")
	flagSet.Int64Var(&opts.windowStart, "window-start", 0, "start of the section to read from")
	flagSet.Int64Var(&opts.windowLength, "window-length", -1, "length of the section (-1: whole archive)")
	flagSet.Int64Var(&opts.at, "at", 0, "position to decode from, relative to the section")
	flagSet.StringVar(&opts.op, "op", "u8", "value type: u8, i32, u32, compact, string, block, offset, bytes")
	flagSet.IntVar(&opts.count, "count", 1, "number of values to decode (byte count for --op bytes)")
	flagSet.BoolVar(&opts.encrypted, "encrypted", false, "decode strings as encrypted")
	flagSet.Uint32Var(&opts.sectionStart, "section-start", 0, "section start used by --op offset")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("expected one archive path, got %d", flagSet.NArg())
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a, err := openArchive(flagSet.Arg(0), arcstream.WithConfig(cfg), arcstream.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := openReader(a, opts)
	if err != nil {
		return err
	}
	if err := r.Jump(opts.at); err != nil {
		return err
	}
	return decode(r, opts, stdout)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvVar) != "" {
		return config.Load()
	}
	return &config.Config{}, nil
}

func openReader(a *arcstream.Archive, opts options) (*stream.Reader, error) {
	if opts.windowStart == 0 && opts.windowLength < 0 {
		return a.Reader()
	}
	length := opts.windowLength
	if length < 0 {
		length = a.Size() - opts.windowStart
	}
	return a.Section(opts.windowStart, length)
}

func decode(r *stream.Reader, opts options, w io.Writer) error {
	if opts.op == "bytes" {
		b, err := r.ReadBytes(opts.count)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "% x\n", b)
		return err
	}

	for range opts.count {
		v, err := decodeOne(r, opts)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeOne(r *stream.Reader, opts options) (string, error) {
	switch strings.ToLower(opts.op) {
	case "u8":
		v, err := r.ReadUint8()
		return fmt.Sprintf("0x%02x", v), err
	case "i32":
		v, err := r.ReadInt32()
		return fmt.Sprint(v), err
	case "u32":
		v, err := r.ReadUint32()
		return fmt.Sprintf("0x%08x", v), err
	case "compact":
		v, err := r.ReadCompactInt()
		return fmt.Sprint(v), err
	case "string":
		v, err := r.ReadString(opts.encrypted)
		return fmt.Sprintf("%q", v), err
	case "block":
		v, err := r.ReadStringBlock(opts.encrypted)
		return fmt.Sprintf("%q", v), err
	case "offset":
		v, err := r.ReadObfuscatedOffset(opts.sectionStart)
		return fmt.Sprintf("0x%08x", v), err
	default:
		return "", fmt.Errorf("unknown --op %q", opts.op)
	}
}

func openArchive(target string, opts ...arcstream.Option) (*arcstream.Archive, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return arcstream.OpenURL(context.Background(), target, opts...)
	}
	return arcstream.Open(target, opts...)
}
