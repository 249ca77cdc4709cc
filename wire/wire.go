// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package wire is the bit/byte-exact codec underlying every NWK and APS
// wire struct. It is deliberately data-driven rather than reflective:
// callers decide field order, conditional presence and endianness by
// calling Reader/Writer methods in sequence, the same way encoding/nas and
// encoding/ngap hand-roll their PDU parsing one field at a time.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortInput is returned when a read would run past the end of the
// input slice.
var ErrShortInput = errors.New("wire: short input")

// ErrBadInput is returned when a mandatory discriminant or field value is
// not recognized and has no Reserved/fallback representation.
var ErrBadInput = errors.New("wire: bad input")

// Reader consumes a byte slice field by field. The zero value is not
// usable; use NewReader.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps b for sequential reads. b is not copied; slices handed
// back by Bytes alias it.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortInput, n, r.Remaining())
	}
	return nil
}

// U8 reads a single byte.
func (r *Reader) U8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// U16 reads a little-endian 16-bit value.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// U16BE reads a big-endian 16-bit value. Used only where a field is
// explicitly documented as big-endian; the NWK/APS canonical layout is
// little-endian throughout (an open design question).
func (r *Reader) U16BE() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// U32 reads a little-endian 32-bit value.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// U64 reads a little-endian 64-bit value.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// Bytes reads n raw bytes and returns a slice aliasing the reader's
// backing array. The caller must copy if it needs to outlive buffer reuse.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrBadInput, n)
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

// Rest returns every remaining unconsumed byte and advances to the end.
func (r *Reader) Rest() []byte {
	v := r.buf[r.off:]
	r.off = len(r.buf)
	return v
}

// LenPrefixedBytes reads a 2-byte little-endian length followed by that
// many bytes, the container convention used by IB attributes whose
// contents exceed a fixed inline size.
func (r *Reader) LenPrefixedBytes() ([]byte, error) {
	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// Writer accumulates bytes field by field. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sizing its backing
// array to avoid reallocation.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated output. The slice aliases the Writer's
// internal buffer; callers that keep it across further writes must copy.
func (w *Writer) Bytes() []byte { return w.buf }

// PutU8 appends a single byte.
func (w *Writer) PutU8(v byte) { w.buf = append(w.buf, v) }

// PutU16 appends a little-endian 16-bit value.
func (w *Writer) PutU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutU16BE appends a big-endian 16-bit value.
func (w *Writer) PutU16BE(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutU32 appends a little-endian 32-bit value.
func (w *Writer) PutU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutU64 appends a little-endian 64-bit value.
func (w *Writer) PutU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutBytes appends b verbatim.
func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutLenPrefixedBytes appends a 2-byte little-endian length followed by b.
func (w *Writer) PutLenPrefixedBytes(b []byte) {
	w.PutU16(uint16(len(b)))
	w.PutBytes(b)
}
