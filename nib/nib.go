// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package nib is the NWK Information Base: the persistent, typed,
// offset-addressed store of NWK-layer attributes, built on the generic
// ib.Table engine.
package nib

import (
	"zigbeecore/addr"
	"zigbeecore/ib"
	"zigbeecore/wire"
)

// Attribute identifiers. Stable and never reused; a schema change appends
// a new id rather than renumbering the storage layout.
const (
	AttrSequenceNumber             = 1
	AttrNeighborTable              = 2
	AttrRouteTable                 = 3
	AttrBroadcastTransactionTable  = 4
	AttrRouteRecordTable           = 5
	AttrAddressMap                 = 6
	AttrNetworkAddress             = 7
	AttrExtendedPanId              = 8
	AttrPanId                      = 9
	AttrSecurityLevel              = 10
	AttrActiveKeySeqNumber         = 11
	AttrSecurityMaterialSet        = 12
	AttrIeeeAddress                = 13
	AttrUpdateId                   = 14
	AttrMaxBroadcastRetries        = 15
	AttrRouterAgeLimit             = 16
	AttrTransactionPersistenceTime = 17
	AttrEndDeviceTimeoutDefault    = 18
)

const (
	neighborTableSize             = 2 + MaxNeighbors*neighborDescriptorSize
	routeTableSize                = 2 + MaxRoutes*routeDescriptorSize
	broadcastTransactionTableSize = 2 + MaxBroadcastTransactions*broadcastTransactionRecordSize
	routeRecordTableSize          = 2 + MaxRouteRecordEntries*routeRecordEntrySize
	addressMapSize                = 2 + MaxAddressMapEntries*addressMapEntrySize
	securityMaterialSetSize       = 2 + MaxSecurityMaterial*securityMaterialEntrySize
)

// DefaultSecurityLevel is EncMic32 (AES-CCM* with a 4-byte MIC), the
// default required by .
const DefaultSecurityLevel = 0x05

// NIB is the NWK Information Base for one device.
type NIB struct {
	table *ib.Table
}

// New builds the NIB attribute table over storage. It does not write the
// declared defaults: the caller should call Init on first bring-up of
// fresh storage; re-opening already-initialized storage should skip it.
func New(storage ib.Storage) *NIB {
	attrs := []ib.Attr{
		{ID: AttrSequenceNumber, Name: "sequence_number", Size: 1},
		{ID: AttrNeighborTable, Name: "neighbor_table", Size: neighborTableSize},
		{ID: AttrRouteTable, Name: "route_table", Size: routeTableSize},
		{ID: AttrBroadcastTransactionTable, Name: "broadcast_transaction_table", Size: broadcastTransactionTableSize},
		{ID: AttrRouteRecordTable, Name: "route_record_table", Size: routeRecordTableSize},
		{ID: AttrAddressMap, Name: "address_map", Size: addressMapSize},
		{ID: AttrNetworkAddress, Name: "network_address", Size: 2, Default: u16le(uint16(addr.ShortAddressUnknown))},
		{ID: AttrExtendedPanId, Name: "extended_panid", Size: 8},
		{ID: AttrPanId, Name: "panid", Size: 2, Default: u16le(0xFFFF)},
		{ID: AttrSecurityLevel, Name: "security_level", Size: 1, Default: []byte{DefaultSecurityLevel}},
		{ID: AttrActiveKeySeqNumber, Name: "active_key_seq_number", Size: 1},
		{ID: AttrSecurityMaterialSet, Name: "security_material_set", Size: securityMaterialSetSize},
		{ID: AttrIeeeAddress, Name: "ieee_address", Size: 8},
		{ID: AttrUpdateId, Name: "update_id", Size: 1},
		{ID: AttrMaxBroadcastRetries, Name: "max_broadcast_retries", Size: 1, Default: []byte{3}},
		{ID: AttrRouterAgeLimit, Name: "router_age_limit", Size: 1, Default: []byte{3}},
		{ID: AttrTransactionPersistenceTime, Name: "transaction_persistence_time", Size: 2, Default: u16le(0x01F4)},
		{ID: AttrEndDeviceTimeoutDefault, Name: "end_device_timeout_default", Size: 1, Default: []byte{8}},
	}
	return &NIB{table: ib.NewTable(storage, attrs)}
}

func u16le(v uint16) []byte {
	w := wire.NewWriter(2)
	w.PutU16(v)
	return w.Bytes()
}

// Init writes every attribute's default value. See ib.Table.Init.
func (n *NIB) Init() error { return n.table.Init() }

// Table exposes the underlying generic table, e.g. for APSME-style
// generic get/set-by-id operations against the NWK layer.
func (n *NIB) Table() *ib.Table { return n.table }

func (n *NIB) getU8(id int) (uint8, error) {
	raw, err := n.table.GetRaw(id)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

func (n *NIB) setU8(id int, v uint8) error {
	return n.table.SetRaw(id, []byte{v})
}

func (n *NIB) getU16(id int) (uint16, error) {
	raw, err := n.table.GetRaw(id)
	if err != nil {
		return 0, err
	}
	return wire.NewReader(raw).U16()
}

func (n *NIB) setU16(id int, v uint16) error {
	return n.table.SetRaw(id, u16le(v))
}

func (n *NIB) getU64(id int) (uint64, error) {
	raw, err := n.table.GetRaw(id)
	if err != nil {
		return 0, err
	}
	return wire.NewReader(raw).U64()
}

func (n *NIB) setU64(id int, v uint64) error {
	w := wire.NewWriter(8)
	w.PutU64(v)
	return n.table.SetRaw(id, w.Bytes())
}

// SequenceNumber / SetSequenceNumber: NWK header sequence number counter.
func (n *NIB) SequenceNumber() (uint8, error)    { return n.getU8(AttrSequenceNumber) }
func (n *NIB) SetSequenceNumber(v uint8) error   { return n.setU8(AttrSequenceNumber, v) }
func (n *NIB) NextSequenceNumber() (uint8, error) {
	v, err := n.SequenceNumber()
	if err != nil {
		return 0, err
	}
	if err := n.SetSequenceNumber(v + 1); err != nil {
		return 0, err
	}
	return v, nil
}

// NetworkAddress / SetNetworkAddress: this device's assigned short address.
func (n *NIB) NetworkAddress() (addr.ShortAddress, error) {
	v, err := n.getU16(AttrNetworkAddress)
	return addr.ShortAddress(v), err
}
func (n *NIB) SetNetworkAddress(v addr.ShortAddress) error {
	return n.setU16(AttrNetworkAddress, uint16(v))
}

// ExtendedPanId / SetExtendedPanId.
func (n *NIB) ExtendedPanId() (addr.ExtendedPanId, error) {
	v, err := n.getU64(AttrExtendedPanId)
	return addr.ExtendedPanId(v), err
}
func (n *NIB) SetExtendedPanId(v addr.ExtendedPanId) error {
	return n.setU64(AttrExtendedPanId, uint64(v))
}

// PanId / SetPanId.
func (n *NIB) PanId() (addr.PanId, error) {
	v, err := n.getU16(AttrPanId)
	return addr.PanId(v), err
}
func (n *NIB) SetPanId(v addr.PanId) error { return n.setU16(AttrPanId, uint16(v)) }

// IeeeAddress / SetIeeeAddress: this device's burned-in address.
func (n *NIB) IeeeAddress() (addr.IeeeAddress, error) {
	v, err := n.getU64(AttrIeeeAddress)
	return addr.IeeeAddress(v), err
}
func (n *NIB) SetIeeeAddress(v addr.IeeeAddress) error {
	return n.setU64(AttrIeeeAddress, uint64(v))
}

// SecurityLevel / SetSecurityLevel: the effective security level applied
// to every NWK/APS frame; the on-air aux header always carries
// zero regardless of this value.
func (n *NIB) SecurityLevel() (uint8, error)  { return n.getU8(AttrSecurityLevel) }
func (n *NIB) SetSecurityLevel(v uint8) error { return n.setU8(AttrSecurityLevel, v) }

// ActiveKeySeqNumber / SetActiveKeySeqNumber.
func (n *NIB) ActiveKeySeqNumber() (uint8, error)  { return n.getU8(AttrActiveKeySeqNumber) }
func (n *NIB) SetActiveKeySeqNumber(v uint8) error { return n.setU8(AttrActiveKeySeqNumber, v) }

// UpdateId / SetUpdateId: nwkUpdateId, bumped on NETWORK-UPDATE.
func (n *NIB) UpdateId() (uint8, error)  { return n.getU8(AttrUpdateId) }
func (n *NIB) SetUpdateId(v uint8) error { return n.setU8(AttrUpdateId, v) }

// MaxBroadcastRetries, RouterAgeLimit, TransactionPersistenceTime and
// EndDeviceTimeoutDefault are fixed-default tuning attributes, read-only
// in practice but exposed as Set for completeness of the IB contract.
func (n *NIB) MaxBroadcastRetries() (uint8, error)  { return n.getU8(AttrMaxBroadcastRetries) }
func (n *NIB) SetMaxBroadcastRetries(v uint8) error { return n.setU8(AttrMaxBroadcastRetries, v) }

func (n *NIB) RouterAgeLimit() (uint8, error)  { return n.getU8(AttrRouterAgeLimit) }
func (n *NIB) SetRouterAgeLimit(v uint8) error { return n.setU8(AttrRouterAgeLimit, v) }

func (n *NIB) TransactionPersistenceTime() (uint16, error) {
	return n.getU16(AttrTransactionPersistenceTime)
}
func (n *NIB) SetTransactionPersistenceTime(v uint16) error {
	return n.setU16(AttrTransactionPersistenceTime, v)
}

func (n *NIB) EndDeviceTimeoutDefault() (uint8, error) { return n.getU8(AttrEndDeviceTimeoutDefault) }
func (n *NIB) SetEndDeviceTimeoutDefault(v uint8) error {
	return n.setU8(AttrEndDeviceTimeoutDefault, v)
}

// NeighborTable / SetNeighborTable.
func (n *NIB) NeighborTable() ([]NeighborDescriptor, error) {
	raw, err := n.table.GetRaw(AttrNeighborTable)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxNeighbors, unmarshalNeighbor)
}

func (n *NIB) SetNeighborTable(entries []NeighborDescriptor) error {
	if len(entries) > MaxNeighbors {
		entries = entries[:MaxNeighbors]
	}
	buf := marshalList(neighborTableSize, MaxNeighbors, entries, marshalNeighbor)
	return n.table.SetRaw(AttrNeighborTable, buf)
}

// RouteTable / SetRouteTable.
func (n *NIB) RouteTable() ([]RouteDescriptor, error) {
	raw, err := n.table.GetRaw(AttrRouteTable)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxRoutes, unmarshalRoute)
}

func (n *NIB) SetRouteTable(entries []RouteDescriptor) error {
	if len(entries) > MaxRoutes {
		entries = entries[:MaxRoutes]
	}
	buf := marshalList(routeTableSize, MaxRoutes, entries, marshalRoute)
	return n.table.SetRaw(AttrRouteTable, buf)
}

// BroadcastTransactionTable / SetBroadcastTransactionTable.
func (n *NIB) BroadcastTransactionTable() ([]BroadcastTransactionRecord, error) {
	raw, err := n.table.GetRaw(AttrBroadcastTransactionTable)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxBroadcastTransactions, unmarshalBroadcastTransaction)
}

func (n *NIB) SetBroadcastTransactionTable(entries []BroadcastTransactionRecord) error {
	if len(entries) > MaxBroadcastTransactions {
		entries = entries[:MaxBroadcastTransactions]
	}
	buf := marshalList(broadcastTransactionTableSize, MaxBroadcastTransactions, entries, marshalBroadcastTransaction)
	return n.table.SetRaw(AttrBroadcastTransactionTable, buf)
}

// RouteRecordTable / SetRouteRecordTable.
func (n *NIB) RouteRecordTable() ([]RouteRecordEntry, error) {
	raw, err := n.table.GetRaw(AttrRouteRecordTable)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxRouteRecordEntries, unmarshalRouteRecord)
}

func (n *NIB) SetRouteRecordTable(entries []RouteRecordEntry) error {
	if len(entries) > MaxRouteRecordEntries {
		entries = entries[:MaxRouteRecordEntries]
	}
	buf := marshalList(routeRecordTableSize, MaxRouteRecordEntries, entries, marshalRouteRecord)
	return n.table.SetRaw(AttrRouteRecordTable, buf)
}

// AddressMap / SetAddressMap.
func (n *NIB) AddressMap() ([]AddressMapEntry, error) {
	raw, err := n.table.GetRaw(AttrAddressMap)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxAddressMapEntries, unmarshalAddressMap)
}

func (n *NIB) SetAddressMap(entries []AddressMapEntry) error {
	if len(entries) > MaxAddressMapEntries {
		entries = entries[:MaxAddressMapEntries]
	}
	buf := marshalList(addressMapSize, MaxAddressMapEntries, entries, marshalAddressMap)
	return n.table.SetRaw(AttrAddressMap, buf)
}

// SecurityMaterialSet / SetSecurityMaterialSet.
func (n *NIB) SecurityMaterialSet() ([]SecurityMaterialEntry, error) {
	raw, err := n.table.GetRaw(AttrSecurityMaterialSet)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxSecurityMaterial, unmarshalSecurityMaterial)
}

func (n *NIB) SetSecurityMaterialSet(entries []SecurityMaterialEntry) error {
	if len(entries) > MaxSecurityMaterial {
		entries = entries[:MaxSecurityMaterial]
	}
	buf := marshalList(securityMaterialSetSize, MaxSecurityMaterial, entries, marshalSecurityMaterial)
	return n.table.SetRaw(AttrSecurityMaterialSet, buf)
}

// ActiveSecurityMaterial returns the security_material_set entry whose
// SeqNo matches active_key_seq_number, as required by .
func (n *NIB) ActiveSecurityMaterial() (SecurityMaterialEntry, bool, error) {
	seq, err := n.ActiveKeySeqNumber()
	if err != nil {
		return SecurityMaterialEntry{}, false, err
	}
	set, err := n.SecurityMaterialSet()
	if err != nil {
		return SecurityMaterialEntry{}, false, err
	}
	for _, m := range set {
		if m.SeqNo == seq {
			return m, true, nil
		}
	}
	return SecurityMaterialEntry{}, false, nil
}

// SecurityMaterialBySeq returns the security_material_set entry whose
// SeqNo matches seq, used by the security engine to select a key by the
// key_sequence_number carried in an incoming frame's auxiliary header.
func (n *NIB) SecurityMaterialBySeq(seq uint8) (SecurityMaterialEntry, bool, error) {
	set, err := n.SecurityMaterialSet()
	if err != nil {
		return SecurityMaterialEntry{}, false, err
	}
	for _, m := range set {
		if m.SeqNo == seq {
			return m, true, nil
		}
	}
	return SecurityMaterialEntry{}, false, nil
}

// UpdateSecurityMaterial replaces the entry sharing entry.SeqNo, or
// appends it, first evicting the oldest entry if the set is full. Used by the security engine to
// persist advanced outgoing/incoming counters and by key installation
// to promote a newly received network key.
func (n *NIB) UpdateSecurityMaterial(entry SecurityMaterialEntry) error {
	set, err := n.SecurityMaterialSet()
	if err != nil {
		return err
	}
	for i, m := range set {
		if m.SeqNo == entry.SeqNo {
			set[i] = entry
			return n.SetSecurityMaterialSet(set)
		}
	}
	if len(set) >= MaxSecurityMaterial {
		set = set[1:] // oldest generation is evicted to make room for the new key
	}
	set = append(set, entry)
	return n.SetSecurityMaterialSet(set)
}

// generic bounded-list marshal/unmarshal: a 2-byte count followed by up
// to max fixed-size entries.
func marshalList[T any](totalSize, max int, items []T, marshal func(*wire.Writer, T)) []byte {
	w := wire.NewWriter(totalSize)
	w.PutU16(uint16(len(items)))
	for _, it := range items {
		marshal(w, it)
	}
	entrySize := (totalSize - 2) / max
	pad := (max - len(items)) * entrySize
	if pad > 0 {
		w.PutBytes(make([]byte, pad))
	}
	return w.Bytes()
}

func unmarshalList[T any](buf []byte, max int, unmarshal func(*wire.Reader) (T, error)) ([]T, error) {
	r := wire.NewReader(buf)
	count, err := r.U16()
	if err != nil {
		return nil, err
	}
	if int(count) > max {
		count = uint16(max)
	}
	items := make([]T, 0, count)
	for i := 0; i < int(count); i++ {
		it, err := unmarshal(r)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
