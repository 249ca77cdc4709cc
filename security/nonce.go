package security

import "zigbeecore/addr"

// Nonce is the 13-byte AES-CCM* nonce: source IEEE address (8
// bytes, little-endian), frame counter (4 bytes, little-endian) and the
// raw security control byte, which MUST carry the effective security
// level from the IB rather than the zeroed on-air value.
type Nonce [13]byte

// BuildNonce assembles the nonce for one frame. effectiveLevel is the
// security_level the IB requires for this frame class, independent of
// whatever level byte appears on the wire.
func BuildNonce(source addr.IeeeAddress, frameCounter uint32, control SecurityControl, effectiveLevel Level) Nonce {
	var n Nonce
	for i := 0; i < 8; i++ {
		n[i] = byte(source >> (8 * uint(i)))
	}
	for i := 0; i < 4; i++ {
		n[8+i] = byte(frameCounter >> (8 * uint(i)))
	}
	n[12] = byte(control.WithLevel(effectiveLevel))
	return n
}
