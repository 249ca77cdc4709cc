// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package nwk

import (
	"zigbeecore/addr"
	"zigbeecore/wire"
)

// Header is the General NPDU Frame Format. Optional fields are
// present only when the corresponding FrameControl bit is set; this is
// decided by explicit field checks on read/write, never reflection.
type Header struct {
	FrameControl        FrameControl
	Destination         addr.ShortAddress
	Source               addr.ShortAddress
	Radius               uint8
	SequenceNumber       uint8
	DestinationIeee      *addr.IeeeAddress
	SourceIeee           *addr.IeeeAddress
	MulticastControl     *MulticastControl
	SourceRouteSubframe  *SourceRouteSubframe
}

// ReadHeader parses a Header from r. Conditional fields are read only if
// their FrameControl flag is set.
func ReadHeader(r *wire.Reader) (Header, error) {
	var h Header

	fc, err := r.U16()
	if err != nil {
		return h, err
	}
	h.FrameControl = FrameControl(fc)

	dst, err := r.U16()
	if err != nil {
		return h, err
	}
	h.Destination = addr.ShortAddress(dst)

	src, err := r.U16()
	if err != nil {
		return h, err
	}
	h.Source = addr.ShortAddress(src)

	h.Radius, err = r.U8()
	if err != nil {
		return h, err
	}
	h.SequenceNumber, err = r.U8()
	if err != nil {
		return h, err
	}

	if h.FrameControl.DestIeee() {
		v, err := r.U64()
		if err != nil {
			return h, err
		}
		ieee := addr.IeeeAddress(v)
		h.DestinationIeee = &ieee
	}

	if h.FrameControl.SrcIeee() {
		v, err := r.U64()
		if err != nil {
			return h, err
		}
		ieee := addr.IeeeAddress(v)
		h.SourceIeee = &ieee
	}

	if h.FrameControl.Multicast() {
		v, err := r.U8()
		if err != nil {
			return h, err
		}
		mc := MulticastControl(v)
		h.MulticastControl = &mc
	}

	if h.FrameControl.SourceRoute() {
		sub, err := readSourceRouteSubframe(r)
		if err != nil {
			return h, err
		}
		h.SourceRouteSubframe = &sub
	}

	return h, nil
}

// Write serializes h, writing only the fields its FrameControl flags
// declare present.
func (h Header) Write(w *wire.Writer) {
	w.PutU16(uint16(h.FrameControl))
	w.PutU16(uint16(h.Destination))
	w.PutU16(uint16(h.Source))
	w.PutU8(h.Radius)
	w.PutU8(h.SequenceNumber)
	if h.FrameControl.DestIeee() && h.DestinationIeee != nil {
		w.PutU64(uint64(*h.DestinationIeee))
	}
	if h.FrameControl.SrcIeee() && h.SourceIeee != nil {
		w.PutU64(uint64(*h.SourceIeee))
	}
	if h.FrameControl.Multicast() && h.MulticastControl != nil {
		w.PutU8(uint8(*h.MulticastControl))
	}
	if h.FrameControl.SourceRoute() && h.SourceRouteSubframe != nil {
		h.SourceRouteSubframe.write(w)
	}
}

// MulticastControl is the 1-byte Multicast Control field.
type MulticastControl uint8

const (
	mcMaskMode           = 0x03
	mcMaskNonMemberRadius = 0x3C
	mcShiftNonMemberRadius = 2
	mcMaskMaxNonMemberRadius = 0xC0
	mcShiftMaxNonMemberRadius = 6
)

func (m MulticastControl) Mode() uint8 { return uint8(m) & mcMaskMode }
func (m MulticastControl) NonMemberRadius() uint8 {
	return uint8(m&mcMaskNonMemberRadius) >> mcShiftNonMemberRadius
}
func (m MulticastControl) MaxNonMemberRadius() uint8 {
	return uint8(m&mcMaskMaxNonMemberRadius) >> mcShiftMaxNonMemberRadius
}

// SourceRouteSubframe carries an explicit relay list for source-routed
// frames. RelayList is a bounded copy of the on-air
// relay addresses; an open design question notes the original borrows this
// list from the packet buffer, whereas ReadHeader decodes it into a newly
// allocated slice that does not alias the packet buffer.
type SourceRouteSubframe struct {
	RelayIndex uint8
	RelayList  []addr.ShortAddress
}

func readSourceRouteSubframe(r *wire.Reader) (SourceRouteSubframe, error) {
	var s SourceRouteSubframe
	relayCount, err := r.U8()
	if err != nil {
		return s, err
	}
	s.RelayIndex, err = r.U8()
	if err != nil {
		return s, err
	}
	s.RelayList = make([]addr.ShortAddress, 0, relayCount)
	for i := uint8(0); i < relayCount; i++ {
		v, err := r.U16()
		if err != nil {
			return s, err
		}
		s.RelayList = append(s.RelayList, addr.ShortAddress(v))
	}
	return s, nil
}

func (s SourceRouteSubframe) write(w *wire.Writer) {
	w.PutU8(uint8(len(s.RelayList)))
	w.PutU8(s.RelayIndex)
	for _, relay := range s.RelayList {
		w.PutU16(uint16(relay))
	}
}
