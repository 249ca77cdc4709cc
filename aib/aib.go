// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package aib is the APS Information Base: the persistent, typed,
// offset-addressed store of APS-layer attributes, built on the generic
// ib.Table engine.
package aib

import (
	"fmt"

	"zigbeecore/addr"
	"zigbeecore/ib"
	"zigbeecore/wire"
)

// Attribute identifiers. Stable and never reused.
const (
	AttrBindingTable          = 1
	AttrGroupTable            = 2
	AttrChannelMaskList       = 3
	AttrUseExtendedPanId      = 4
	AttrDesignatedCoordinator = 5
	AttrTrustCenterAddress    = 6
	AttrDeviceKeyPairSet      = 7
)

const (
	bindingTableSize     = 2 + MaxBindings*bindingEntrySize
	groupTableSize       = 2 + MaxGroups*groupEntrySize
	channelMaskListSize  = 2 + MaxChannelMasks*channelMaskEntrySize
	deviceKeyPairSetSize = 2 + MaxDeviceKeyPairs*deviceKeyPairEntrySize
)

// AIB is the APS Information Base for one device.
type AIB struct {
	table *ib.Table
}

// New builds the AIB attribute table over storage.
func New(storage ib.Storage) *AIB {
	tcAddr := wire.NewWriter(8)
	tcAddr.PutU64(uint64(DefaultTrustCenterAddress))

	attrs := []ib.Attr{
		{ID: AttrBindingTable, Name: "binding_table", Size: bindingTableSize},
		{ID: AttrGroupTable, Name: "group_table", Size: groupTableSize},
		{ID: AttrChannelMaskList, Name: "channel_mask_list", Size: channelMaskListSize},
		{ID: AttrUseExtendedPanId, Name: "use_extended_pan_id", Size: 8},
		{ID: AttrDesignatedCoordinator, Name: "designated_coordinator", Size: 1},
		{ID: AttrTrustCenterAddress, Name: "trust_center_address", Size: 8, Default: tcAddr.Bytes()},
		{ID: AttrDeviceKeyPairSet, Name: "device_key_pair_set", Size: deviceKeyPairSetSize},
	}
	return &AIB{table: ib.NewTable(storage, attrs)}
}

// Init writes every attribute's default value.
func (a *AIB) Init() error { return a.table.Init() }

// Table exposes the underlying generic table for APSME-GET/SET-by-id use
//.
func (a *AIB) Table() *ib.Table { return a.table }

func (a *AIB) getU64(id int) (uint64, error) {
	raw, err := a.table.GetRaw(id)
	if err != nil {
		return 0, err
	}
	return wire.NewReader(raw).U64()
}

func (a *AIB) setU64(id int, v uint64) error {
	w := wire.NewWriter(8)
	w.PutU64(v)
	return a.table.SetRaw(id, w.Bytes())
}

// UseExtendedPanId / SetUseExtendedPanId.
func (a *AIB) UseExtendedPanId() (addr.ExtendedPanId, error) {
	v, err := a.getU64(AttrUseExtendedPanId)
	return addr.ExtendedPanId(v), err
}
func (a *AIB) SetUseExtendedPanId(v addr.ExtendedPanId) error {
	return a.setU64(AttrUseExtendedPanId, uint64(v))
}

// DesignatedCoordinator / SetDesignatedCoordinator.
func (a *AIB) DesignatedCoordinator() (bool, error) {
	raw, err := a.table.GetRaw(AttrDesignatedCoordinator)
	if err != nil {
		return false, err
	}
	return raw[0] != 0, nil
}

func (a *AIB) SetDesignatedCoordinator(v bool) error {
	var b byte
	if v {
		b = 1
	}
	return a.table.SetRaw(AttrDesignatedCoordinator, []byte{b})
}

// TrustCenterAddress / SetTrustCenterAddress.
func (a *AIB) TrustCenterAddress() (addr.IeeeAddress, error) {
	v, err := a.getU64(AttrTrustCenterAddress)
	return addr.IeeeAddress(v), err
}
func (a *AIB) SetTrustCenterAddress(v addr.IeeeAddress) error {
	return a.setU64(AttrTrustCenterAddress, uint64(v))
}

// BindingTable / SetBindingTable.
func (a *AIB) BindingTable() ([]BindingEntry, error) {
	raw, err := a.table.GetRaw(AttrBindingTable)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxBindings, unmarshalBinding)
}

func (a *AIB) SetBindingTable(entries []BindingEntry) error {
	if len(entries) > MaxBindings {
		entries = entries[:MaxBindings]
	}
	return a.table.SetRaw(AttrBindingTable, marshalList(bindingTableSize, MaxBindings, entries, marshalBinding))
}

// GroupTable / SetGroupTable.
func (a *AIB) GroupTable() ([]GroupEntry, error) {
	raw, err := a.table.GetRaw(AttrGroupTable)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxGroups, unmarshalGroup)
}

func (a *AIB) SetGroupTable(entries []GroupEntry) error {
	if len(entries) > MaxGroups {
		entries = entries[:MaxGroups]
	}
	return a.table.SetRaw(AttrGroupTable, marshalList(groupTableSize, MaxGroups, entries, marshalGroup))
}

// ChannelMaskList / SetChannelMaskList.
func (a *AIB) ChannelMaskList() ([]uint32, error) {
	raw, err := a.table.GetRaw(AttrChannelMaskList)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxChannelMasks, unmarshalChannelMask)
}

func (a *AIB) SetChannelMaskList(masks []uint32) error {
	if len(masks) > MaxChannelMasks {
		masks = masks[:MaxChannelMasks]
	}
	return a.table.SetRaw(AttrChannelMaskList, marshalList(channelMaskListSize, MaxChannelMasks, masks, marshalChannelMask))
}

// DeviceKeyPairSet / SetDeviceKeyPairSet.
func (a *AIB) DeviceKeyPairSet() ([]DeviceKeyPairEntry, error) {
	raw, err := a.table.GetRaw(AttrDeviceKeyPairSet)
	if err != nil {
		return nil, err
	}
	return unmarshalList(raw, MaxDeviceKeyPairs, unmarshalDeviceKeyPair)
}

func (a *AIB) SetDeviceKeyPairSet(entries []DeviceKeyPairEntry) error {
	if len(entries) > MaxDeviceKeyPairs {
		entries = entries[:MaxDeviceKeyPairs]
	}
	return a.table.SetRaw(AttrDeviceKeyPairSet, marshalList(deviceKeyPairSetSize, MaxDeviceKeyPairs, entries, marshalDeviceKeyPair))
}

// DeviceKeyPair looks up the entry for ieee, if any.
func (a *AIB) DeviceKeyPair(ieee addr.IeeeAddress) (DeviceKeyPairEntry, bool, error) {
	set, err := a.DeviceKeyPairSet()
	if err != nil {
		return DeviceKeyPairEntry{}, false, err
	}
	for _, d := range set {
		if d.DeviceIeee == ieee {
			return d, true, nil
		}
	}
	return DeviceKeyPairEntry{}, false, nil
}

// UpsertDeviceKeyPair installs or replaces the entry for entry.DeviceIeee,
// enforcing at most one entry per IEEE address. It fails with a
// full-table error if entry.DeviceIeee is new and the table is already
// at MaxDeviceKeyPairs.
func (a *AIB) UpsertDeviceKeyPair(entry DeviceKeyPairEntry) error {
	set, err := a.DeviceKeyPairSet()
	if err != nil {
		return err
	}
	for i, d := range set {
		if d.DeviceIeee == entry.DeviceIeee {
			set[i] = entry
			return a.SetDeviceKeyPairSet(set)
		}
	}
	if len(set) >= MaxDeviceKeyPairs {
		return fmt.Errorf("aib: device_key_pair_set full (%d entries)", MaxDeviceKeyPairs)
	}
	set = append(set, entry)
	return a.SetDeviceKeyPairSet(set)
}

// generic bounded-list marshal/unmarshal, matching nib's container
// convention: a 2-byte count followed by up to max fixed-size entries.
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
