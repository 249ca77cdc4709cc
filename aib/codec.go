// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package aib

import (
	"zigbeecore/addr"
	"zigbeecore/wire"
)

func marshalBinding(w *wire.Writer, b BindingEntry) {
	w.PutU64(uint64(b.SrcAddress))
	w.PutU8(b.SrcEndpoint)
	w.PutU16(b.ClusterId)
	w.PutU8(b.DstAddrMode)
	w.PutU64(uint64(b.DstAddress))
	w.PutU16(uint16(b.DstGroupAddress))
	w.PutU8(b.DstEndpoint)
}

func unmarshalBinding(r *wire.Reader) (BindingEntry, error) {
	var b BindingEntry
	src, err := r.U64()
	if err != nil {
		return b, err
	}
	srcEp, err := r.U8()
	if err != nil {
		return b, err
	}
	cluster, err := r.U16()
	if err != nil {
		return b, err
	}
	mode, err := r.U8()
	if err != nil {
		return b, err
	}
	dst, err := r.U64()
	if err != nil {
		return b, err
	}
	grp, err := r.U16()
	if err != nil {
		return b, err
	}
	dstEp, err := r.U8()
	if err != nil {
		return b, err
	}
	b = BindingEntry{
		SrcAddress:      addr.IeeeAddress(src),
		SrcEndpoint:     srcEp,
		ClusterId:       cluster,
		DstAddrMode:     mode,
		DstAddress:      addr.IeeeAddress(dst),
		DstGroupAddress: addr.ShortAddress(grp),
		DstEndpoint:     dstEp,
	}
	return b, nil
}

func marshalGroup(w *wire.Writer, g GroupEntry) {
	w.PutU16(uint16(g.GroupAddress))
	w.PutU8(g.Endpoint)
}

func unmarshalGroup(r *wire.Reader) (GroupEntry, error) {
	var g GroupEntry
	addrv, err := r.U16()
	if err != nil {
		return g, err
	}
	ep, err := r.U8()
	if err != nil {
		return g, err
	}
	return GroupEntry{GroupAddress: addr.ShortAddress(addrv), Endpoint: ep}, nil
}

func marshalChannelMask(w *wire.Writer, m uint32) { w.PutU32(m) }

func unmarshalChannelMask(r *wire.Reader) (uint32, error) { return r.U32() }

func marshalDeviceKeyPair(w *wire.Writer, d DeviceKeyPairEntry) {
	w.PutU64(uint64(d.DeviceIeee))
	w.PutU8(d.KeyAttribute)
	w.PutBytes(d.LinkKey[:])
	w.PutU32(d.OutgoingCounter)
	w.PutU32(d.IncomingCounter)
	w.PutU8(d.LinkKeyType)
}

func unmarshalDeviceKeyPair(r *wire.Reader) (DeviceKeyPairEntry, error) {
	var d DeviceKeyPairEntry
	ieee, err := r.U64()
	if err != nil {
		return d, err
	}
	attr, err := r.U8()
	if err != nil {
		return d, err
	}
	key, err := r.Bytes(16)
	if err != nil {
		return d, err
	}
	out, err := r.U32()
	if err != nil {
		return d, err
	}
	in, err := r.U32()
	if err != nil {
		return d, err
	}
	kt, err := r.U8()
	if err != nil {
		return d, err
	}
	d.DeviceIeee = addr.IeeeAddress(ieee)
	d.KeyAttribute = attr
	copy(d.LinkKey[:], key)
	d.OutgoingCounter = out
	d.IncomingCounter = in
	d.LinkKeyType = kt
	return d, nil
}
