// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package addr defines the Zigbee address types shared by every layer of
// the stack: the 16-bit network address, the 64-bit IEEE address and the
// 64-bit extended PAN id. All three are little-endian on the wire.
package addr

import "fmt"

// ShortAddress is the 16-bit network address assigned to a device once it
// joins a network.
type ShortAddress uint16

// Reserved short address values. See .
const (
	ShortAddressUnknown          ShortAddress = 0xFFFF
	ShortAddressBroadcastRouters ShortAddress = 0xFFFC
	ShortAddressBroadcastRxOn    ShortAddress = 0xFFFD
	ShortAddressNone             ShortAddress = 0xFFFE
)

// IsBroadcast reports whether a is one of the reserved broadcast addresses.
func (a ShortAddress) IsBroadcast() bool {
	switch a {
	case ShortAddressBroadcastRouters, ShortAddressBroadcastRxOn, 0xFFFF:
		return true
	case ShortAddressNone:
		return false
	default:
		return a >= 0xFFF8
	}
}

func (a ShortAddress) String() string {
	return fmt.Sprintf("0x%04X", uint16(a))
}

// IeeeAddress is the 64-bit globally unique address burned into a device.
type IeeeAddress uint64

func (a IeeeAddress) String() string {
	return fmt.Sprintf("%016X", uint64(a))
}

// ExtendedPanId identifies a Zigbee network uniquely.
type ExtendedPanId uint64

// IsUsable reports whether e is a legal network identifier: the all-zeros
// and all-ones values are reserved and never identify a real network.
func (e ExtendedPanId) IsUsable() bool {
	return e != 0x0000000000000000 && e != 0xFFFFFFFFFFFFFFFF
}

func (e ExtendedPanId) String() string {
	return fmt.Sprintf("%016X", uint64(e))
}

// PanId is the 16-bit PAN identifier carried in MAC beacons and in NWK
// formation/join parameters.
type PanId uint16

func (p PanId) String() string {
	return fmt.Sprintf("0x%04X", uint16(p))
}
