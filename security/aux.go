package security

import (
	"zigbeecore/addr"
	"zigbeecore/wire"
)

// KeyIdentifier is the 2-bit key_identifier sub-field of SecurityControl
// (auxiliary security header).
type KeyIdentifier uint8

const (
	KeyIdentifierData         KeyIdentifier = 0
	KeyIdentifierNetwork      KeyIdentifier = 1
	KeyIdentifierKeyTransport KeyIdentifier = 2
	KeyIdentifierKeyLoad      KeyIdentifier = 3
)

// Level is the 3-bit security_level sub-field, encoding both whether the
// payload is encrypted and the MIC length (802.15.4 security levels,
// referenced by default EncMic32).
type Level uint8

const (
	LevelNone       Level = 0
	LevelMIC32      Level = 1
	LevelMIC64      Level = 2
	LevelMIC128     Level = 3
	LevelEnc        Level = 4
	LevelEncMIC32   Level = 5
	LevelEncMIC64   Level = 6
	LevelEncMIC128  Level = 7
)

// MICLen returns the MIC length in bytes for l.
func (l Level) MICLen() int {
	switch l & 0x3 {
	case 1:
		return 4
	case 2:
		return 8
	case 3:
		return 16
	default:
		return 0
	}
}

// Encrypts reports whether l requires the payload to be encrypted (as
// opposed to integrity-only or no security).
func (l Level) Encrypts() bool { return l&0x4 != 0 }

// SecurityControl is the 1-byte security control field: bits
// 0..3 security_level, bits 3..5 key_identifier, bit 5 extended_nonce.
type SecurityControl uint8

const (
	scMaskLevel         = 0x07
	scMaskKeyIdentifier = 0x18
	scShiftKeyIdentifier = 3
	scMaskExtendedNonce = 0x20
)

func (sc SecurityControl) Level() Level { return Level(sc & scMaskLevel) }

func (sc SecurityControl) KeyIdentifier() KeyIdentifier {
	return KeyIdentifier((sc & scMaskKeyIdentifier) >> scShiftKeyIdentifier)
}

func (sc SecurityControl) ExtendedNonce() bool { return sc&scMaskExtendedNonce != 0 }

// WithLevel returns a copy of sc with its security_level bits replaced by
// level, leaving key_identifier and extended_nonce untouched. Used both
// to zero the on-air level before transmit (encrypt step 6) and
// to restore the IB's effective level before computing the nonce and AAD
// on receive (decrypt step 6).
func (sc SecurityControl) WithLevel(level Level) SecurityControl {
	return sc&^scMaskLevel | SecurityControl(level)&scMaskLevel
}

// NewSecurityControl builds a SecurityControl from its sub-fields.
func NewSecurityControl(level Level, keyID KeyIdentifier, extendedNonce bool) SecurityControl {
	sc := SecurityControl(level) & scMaskLevel
	sc |= SecurityControl(keyID) << scShiftKeyIdentifier & scMaskKeyIdentifier
	if extendedNonce {
		sc |= scMaskExtendedNonce
	}
	return sc
}

// AuxHeader is the auxiliary security header prefixing every secured
// NWK or APS payload: 1-byte control, 4-byte little-endian
// frame counter, an optional 8-byte source address (iff extended_nonce)
// and an optional 1-byte key sequence number (iff key_id == Network).
type AuxHeader struct {
	Control        SecurityControl
	FrameCounter   uint32
	SourceAddress  *addr.IeeeAddress
	KeySeqNumber   *uint8
}

// ReadAuxHeader parses an AuxHeader from r, consulting already-parsed
// Control bits to decide which trailing fields are present.
func ReadAuxHeader(r *wire.Reader) (AuxHeader, error) {
	var h AuxHeader
	c, err := r.U8()
	if err != nil {
		return h, err
	}
	h.Control = SecurityControl(c)

	ctr, err := r.U32()
	if err != nil {
		return h, err
	}
	h.FrameCounter = ctr

	if h.Control.ExtendedNonce() {
		v, err := r.U64()
		if err != nil {
			return h, err
		}
		ieee := addr.IeeeAddress(v)
		h.SourceAddress = &ieee
	}

	if h.Control.KeyIdentifier() == KeyIdentifierNetwork {
		seq, err := r.U8()
		if err != nil {
			return h, err
		}
		h.KeySeqNumber = &seq
	}

	return h, nil
}

// Write serializes h.
func (h AuxHeader) Write(w *wire.Writer) {
	w.PutU8(uint8(h.Control))
	w.PutU32(h.FrameCounter)
	if h.Control.ExtendedNonce() && h.SourceAddress != nil {
		w.PutU64(uint64(*h.SourceAddress))
	}
	if h.Control.KeyIdentifier() == KeyIdentifierNetwork && h.KeySeqNumber != nil {
		w.PutU8(*h.KeySeqNumber)
	}
}

// Len returns the serialized length of h in bytes.
func (h AuxHeader) Len() int {
	n := 1 + 4
	if h.Control.ExtendedNonce() {
		n += 8
	}
	if h.Control.KeyIdentifier() == KeyIdentifierNetwork {
		n += 1
	}
	return n
}
