// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package nib

import (
	"zigbeecore/addr"
	"zigbeecore/wire"
)

func marshalNeighbor(w *wire.Writer, n NeighborDescriptor) {
	w.PutU64(uint64(n.ExtendedAddress))
	w.PutU16(uint16(n.NetworkAddress))
	w.PutU8(n.DeviceType)
	w.PutU8(boolByte(n.RxOnWhenIdle))
	w.PutU8(n.Relationship)
	w.PutU8(boolByte(n.PermitJoining))
	w.PutU8(n.Depth)
	w.PutU8(n.LQI)
	w.PutU8(n.Age)
}

func unmarshalNeighbor(r *wire.Reader) (NeighborDescriptor, error) {
	var n NeighborDescriptor
	ieee, err := r.U64()
	if err != nil {
		return n, err
	}
	short, err := r.U16()
	if err != nil {
		return n, err
	}
	devType, err := r.U8()
	if err != nil {
		return n, err
	}
	rxOn, err := r.U8()
	if err != nil {
		return n, err
	}
	rel, err := r.U8()
	if err != nil {
		return n, err
	}
	permit, err := r.U8()
	if err != nil {
		return n, err
	}
	depth, err := r.U8()
	if err != nil {
		return n, err
	}
	lqi, err := r.U8()
	if err != nil {
		return n, err
	}
	age, err := r.U8()
	if err != nil {
		return n, err
	}
	n = NeighborDescriptor{
		ExtendedAddress: addr.IeeeAddress(ieee),
		NetworkAddress:  addr.ShortAddress(short),
		DeviceType:      devType,
		RxOnWhenIdle:    rxOn != 0,
		Relationship:    rel,
		PermitJoining:   permit != 0,
		Depth:           depth,
		LQI:             lqi,
		Age:             age,
	}
	return n, nil
}

func marshalRoute(w *wire.Writer, rt RouteDescriptor) {
	w.PutU16(uint16(rt.DestinationAddress))
	flags := rt.Status & 0x0F
	if rt.NoRouteCache {
		flags |= 0x10
	}
	if rt.ManyToOne {
		flags |= 0x20
	}
	if rt.RouteRecordRequired {
		flags |= 0x40
	}
	if rt.GroupID {
		flags |= 0x80
	}
	w.PutU8(flags)
	w.PutU16(uint16(rt.NextHopAddress))
}

func unmarshalRoute(r *wire.Reader) (RouteDescriptor, error) {
	var rt RouteDescriptor
	dst, err := r.U16()
	if err != nil {
		return rt, err
	}
	flags, err := r.U8()
	if err != nil {
		return rt, err
	}
	next, err := r.U16()
	if err != nil {
		return rt, err
	}
	rt = RouteDescriptor{
		DestinationAddress:  addr.ShortAddress(dst),
		Status:              flags & 0x0F,
		NoRouteCache:        flags&0x10 != 0,
		ManyToOne:           flags&0x20 != 0,
		RouteRecordRequired: flags&0x40 != 0,
		GroupID:             flags&0x80 != 0,
		NextHopAddress:      addr.ShortAddress(next),
	}
	return rt, nil
}

func marshalBroadcastTransaction(w *wire.Writer, b BroadcastTransactionRecord) {
	w.PutU16(uint16(b.Source))
	w.PutU8(b.SequenceNumber)
	w.PutU8(b.ExpirationTime)
}

func unmarshalBroadcastTransaction(r *wire.Reader) (BroadcastTransactionRecord, error) {
	var b BroadcastTransactionRecord
	src, err := r.U16()
	if err != nil {
		return b, err
	}
	seq, err := r.U8()
	if err != nil {
		return b, err
	}
	exp, err := r.U8()
	if err != nil {
		return b, err
	}
	return BroadcastTransactionRecord{Source: addr.ShortAddress(src), SequenceNumber: seq, ExpirationTime: exp}, nil
}

func marshalRouteRecord(w *wire.Writer, rr RouteRecordEntry) {
	w.PutU16(uint16(rr.Source))
	w.PutU8(rr.RelayCount)
	for _, relay := range rr.RelayList {
		w.PutU16(uint16(relay))
	}
}

func unmarshalRouteRecord(r *wire.Reader) (RouteRecordEntry, error) {
	var rr RouteRecordEntry
	src, err := r.U16()
	if err != nil {
		return rr, err
	}
	count, err := r.U8()
	if err != nil {
		return rr, err
	}
	rr.Source = addr.ShortAddress(src)
	rr.RelayCount = count
	for i := range rr.RelayList {
		v, err := r.U16()
		if err != nil {
			return rr, err
		}
		rr.RelayList[i] = addr.ShortAddress(v)
	}
	return rr, nil
}

func marshalAddressMap(w *wire.Writer, m AddressMapEntry) {
	w.PutU16(uint16(m.ShortAddr))
	w.PutU64(uint64(m.IeeeAddr))
}

func unmarshalAddressMap(r *wire.Reader) (AddressMapEntry, error) {
	var m AddressMapEntry
	short, err := r.U16()
	if err != nil {
		return m, err
	}
	ieee, err := r.U64()
	if err != nil {
		return m, err
	}
	return AddressMapEntry{ShortAddr: addr.ShortAddress(short), IeeeAddr: addr.IeeeAddress(ieee)}, nil
}

func marshalIncomingCounter(w *wire.Writer, c IncomingCounter) {
	w.PutU64(uint64(c.Source))
	w.PutU32(c.Counter)
}

func unmarshalIncomingCounter(r *wire.Reader) (IncomingCounter, error) {
	var c IncomingCounter
	src, err := r.U64()
	if err != nil {
		return c, err
	}
	counter, err := r.U32()
	if err != nil {
		return c, err
	}
	return IncomingCounter{Source: addr.IeeeAddress(src), Counter: counter}, nil
}

func marshalSecurityMaterial(w *wire.Writer, s SecurityMaterialEntry) {
	w.PutU8(s.SeqNo)
	w.PutU32(s.OutgoingCounter)
	for _, c := range s.IncomingCounterSet {
		marshalIncomingCounter(w, c)
	}
	w.PutBytes(s.Key[:])
	w.PutU8(s.NetworkKeyType)
	w.PutU8(boolByte(s.Poisoned))
}

func unmarshalSecurityMaterial(r *wire.Reader) (SecurityMaterialEntry, error) {
	var s SecurityMaterialEntry
	seq, err := r.U8()
	if err != nil {
		return s, err
	}
	out, err := r.U32()
	if err != nil {
		return s, err
	}
	s.SeqNo = seq
	s.OutgoingCounter = out
	for i := range s.IncomingCounterSet {
		c, err := unmarshalIncomingCounter(r)
		if err != nil {
			return s, err
		}
		s.IncomingCounterSet[i] = c
	}
	key, err := r.Bytes(16)
	if err != nil {
		return s, err
	}
	copy(s.Key[:], key)
	keyType, err := r.U8()
	if err != nil {
		return s, err
	}
	poisoned, err := r.U8()
	if err != nil {
		return s, err
	}
	s.NetworkKeyType = keyType
	s.Poisoned = poisoned != 0
	return s, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
