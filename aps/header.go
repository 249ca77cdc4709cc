// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package aps

import (
	"zigbeecore/addr"
	"zigbeecore/wire"
)

// FragmentationMode is the extended header's 2-bit fragmentation
// sub-field.
type FragmentationMode uint8

const (
	FragmentationNone       FragmentationMode = 0
	FragmentationFirst      FragmentationMode = 1
	FragmentationSubsequent FragmentationMode = 2
)

// ExtendedHeaderControl is the 1-byte control field of the optional
// extended header.
type ExtendedHeaderControl uint8

const extHdrMaskFragmentation = 0x03

func (c ExtendedHeaderControl) Fragmentation() FragmentationMode {
	return FragmentationMode(c & extHdrMaskFragmentation)
}

// ExtendedHeader carries fragmentation reassembly state: a
// block number when fragmented, plus an ack bitfield when the frame is
// the Ack of a fragmented transfer.
type ExtendedHeader struct {
	Control     ExtendedHeaderControl
	BlockNumber uint8
	AckBitfield *uint8
}

func readExtendedHeader(r *wire.Reader, isAck bool) (ExtendedHeader, error) {
	var e ExtendedHeader
	c, err := r.U8()
	if err != nil {
		return e, err
	}
	e.Control = ExtendedHeaderControl(c)
	if e.Control.Fragmentation() == FragmentationNone {
		return e, nil
	}
	e.BlockNumber, err = r.U8()
	if err != nil {
		return e, err
	}
	if isAck {
		ack, err := r.U8()
		if err != nil {
			return e, err
		}
		e.AckBitfield = &ack
	}
	return e, nil
}

func (e ExtendedHeader) write(w *wire.Writer, isAck bool) {
	w.PutU8(uint8(e.Control))
	if e.Control.Fragmentation() == FragmentationNone {
		return
	}
	w.PutU8(e.BlockNumber)
	if isAck && e.AckBitfield != nil {
		w.PutU8(*e.AckBitfield)
	}
}

// Header is the APS header. Optional fields are present only
// when FrameControl says so; decided by explicit checks, never
// reflection.
type Header struct {
	FrameControl    FrameControl
	DestEndpoint    *uint8
	GroupAddress    *addr.ShortAddress
	ClusterID       *uint16
	ProfileID       *uint16
	SourceEndpoint  uint8
	Counter         uint8
	ExtendedHeader  *ExtendedHeader
}

// ReadHeader parses a Header from r.
func ReadHeader(r *wire.Reader) (Header, error) {
	var h Header

	fc, err := r.U8()
	if err != nil {
		return h, err
	}
	h.FrameControl = FrameControl(fc)

	if h.FrameControl.HasDestEndpoint() {
		ep, err := r.U8()
		if err != nil {
			return h, err
		}
		h.DestEndpoint = &ep
	}

	if h.FrameControl.DeliveryMode() == DeliveryModeGroup {
		v, err := r.U16()
		if err != nil {
			return h, err
		}
		ga := addr.ShortAddress(v)
		h.GroupAddress = &ga
	}

	if h.FrameControl.HasClusterProfile() {
		cl, err := r.U16()
		if err != nil {
			return h, err
		}
		h.ClusterID = &cl
		pr, err := r.U16()
		if err != nil {
			return h, err
		}
		h.ProfileID = &pr
	}

	h.SourceEndpoint, err = r.U8()
	if err != nil {
		return h, err
	}
	h.Counter, err = r.U8()
	if err != nil {
		return h, err
	}

	if h.FrameControl.ExtendedHeader() {
		eh, err := readExtendedHeader(r, h.FrameControl.FrameType() == FrameTypeAck)
		if err != nil {
			return h, err
		}
		h.ExtendedHeader = &eh
	}

	return h, nil
}

// Write serializes h.
func (h Header) Write(w *wire.Writer) {
	if h.DestEndpoint == nil {
		h.DestEndpoint = new(uint8)
	}
	if h.GroupAddress == nil {
		h.GroupAddress = new(addr.ShortAddress)
	}
	if h.ClusterID == nil {
		h.ClusterID = new(uint16)
	}
	if h.ProfileID == nil {
		h.ProfileID = new(uint16)
	}
	if h.ExtendedHeader == nil {
		h.ExtendedHeader = &ExtendedHeader{}
	}
	w.PutU8(uint8(h.FrameControl))
	if h.FrameControl.HasDestEndpoint() && h.DestEndpoint != nil {
		w.PutU8(*h.DestEndpoint)
	}
	if h.FrameControl.DeliveryMode() == DeliveryModeGroup && h.GroupAddress != nil {
		w.PutU16(uint16(*h.GroupAddress))
	}
	if h.FrameControl.HasClusterProfile() && h.ClusterID != nil && h.ProfileID != nil {
		w.PutU16(*h.ClusterID)
		w.PutU16(*h.ProfileID)
	}
	w.PutU8(h.SourceEndpoint)
	w.PutU8(h.Counter)
	if h.FrameControl.ExtendedHeader() && h.ExtendedHeader != nil {
		h.ExtendedHeader.write(w, h.FrameControl.FrameType() == FrameTypeAck)
	}
}
