// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package aib

import "zigbeecore/addr"

// Bounds on the bounded collections carried in the AIB; implementation
// choices sized for a constrained device, documented here rather than
// left to grow unbounded (and 4.7's TableFull status).
const (
	MaxBindings       = 16
	MaxGroups         = 16
	MaxChannelMasks   = 8
	MaxDeviceKeyPairs = 8
)

// Destination addressing modes for a binding, mirroring the APSDE-DATA
// dst_addr_mode values a binding target is stored under.
const (
	DstAddrModeGroup    = 1
	DstAddrModeExtended = 3
)

// BindingEntry is one row of the binding table.
type BindingEntry struct {
	SrcAddress      addr.IeeeAddress
	SrcEndpoint     uint8
	ClusterId       uint16
	DstAddrMode     uint8
	DstAddress      addr.IeeeAddress  // valid when DstAddrMode == DstAddrModeExtended
	DstGroupAddress addr.ShortAddress // valid when DstAddrMode == DstAddrModeGroup
	DstEndpoint     uint8
}

const bindingEntrySize = 8 + 1 + 2 + 1 + 8 + 2 + 1

// GroupEntry associates a local endpoint with a group address it
// belongs to.
type GroupEntry struct {
	GroupAddress addr.ShortAddress
	Endpoint     uint8
}

const groupEntrySize = 2 + 1

const channelMaskEntrySize = 4

// Key attribute values for a device key pair entry (installed
// via TransportKey, then verified).
const (
	KeyAttributeProvisional = iota
	KeyAttributeUnverified
	KeyAttributeVerified
)

// Link key type values.
const (
	LinkKeyTypeUnique = iota
	LinkKeyTypeGlobal
)

// DeviceKeyPairEntry is one row of device_key_pair_set: the per-device
// application link key (or the trust-center link key, when DeviceIeee is
// the trust center) plus its replay counters.
type DeviceKeyPairEntry struct {
	DeviceIeee      addr.IeeeAddress
	KeyAttribute    uint8
	LinkKey         [16]byte
	OutgoingCounter uint32
	IncomingCounter uint32
	LinkKeyType     uint8
}

const deviceKeyPairEntrySize = 8 + 1 + 16 + 4 + 4 + 1

// TrustCenterLinkKey is the default, well-known link key used to protect
// key-transport exchanges before a unique link key is established:
// "ZigBeeAlliance09".
var TrustCenterLinkKey = [16]byte{
	0x5A, 0x69, 0x67, 0x42, 0x65, 0x65, 0x41, 0x6C, 0x6C, 0x69, 0x61, 0x6E, 0x63, 0x65, 0x30, 0x39,
}

// DefaultTrustCenterAddress is the all-ones sentinel used until the real
// trust center address is learned.
const DefaultTrustCenterAddress addr.IeeeAddress = 0xFFFFFFFFFFFFFFFF
