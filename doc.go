// Package arcstream reads the primitive values of a proprietary archive
// container format through bounded, independently seekable views.
//
// The format stores:
//   - Compact integers: one signed byte, with -128 escaping to a full int32
//   - Strings: a signed length prefix whose sign selects UTF-16 code units
//     (positive, 127 escapes to int32) or single bytes (negative, -128
//     escapes to int32)
//   - String blocks: a tag byte followed by either an inline string
//     (0x00, 0x73) or the int32 absolute offset of an interned string
//     (0x01, 0x1B)
//   - Obfuscated offsets: 4-byte fields keyed by their own position, the
//     section start, the archive's version hash and a fixed offset key
//
// Low-level decoding lives in the [stream] and [window] packages. This
// package ties them to a [source.Source] and [config.Config]:
//
//	cfg, err := config.LoadFile("arcstream.yaml")
//	if err != nil {
//	    return err
//	}
//	a, err := arcstream.Open("data.pak", arcstream.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	r, err := a.Section(0x400, 0x1000)
//	if err != nil {
//	    return err
//	}
//	name, err := r.ReadStringBlock(true)
//
// Every Reader returned by an Archive has its own handle on the archive
// source, so Readers may be used from different goroutines. A single
// Reader is not safe for concurrent use.
package arcstream
