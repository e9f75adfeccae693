package stream

import "math/bits"

// ReadObfuscatedOffset reads a 4-byte obfuscated offset and returns the
// offset it encodes.
//
// The key is derived from the cursor position before the field, the start
// of the enclosing section, the current version hash and the offset key.
// All arithmetic wraps modulo 2^32.
func (r *Reader) ReadObfuscatedOffset(sectionStart uint32) (uint32, error) {
	pos, err := r.Position()
	if err != nil {
		return 0, err
	}
	stored, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	//nolint:gosec // the format defines the position as a 32-bit value
	return Deobfuscate(uint32(pos), sectionStart, r.keys.VersionHash, r.keys.OffsetKey, stored), nil
}

// Deobfuscate recovers an offset from its stored form. pos is the position
// the stored value was read from.
//
// The rotation amount is the low five bits of the keyed value itself; an
// amount of zero leaves the value unrotated.
func Deobfuscate(pos, sectionStart, versionHash, offsetKey, stored uint32) uint32 {
	base := (pos - sectionStart) ^ 0xFFFFFFFF
	keyed := base * versionHash
	shifted := keyed - offsetKey
	rotated := bits.RotateLeft32(shifted, int(shifted%32))
	return (rotated ^ stored) + sectionStart*2
}
