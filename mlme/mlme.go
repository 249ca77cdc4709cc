// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package mlme abstracts the IEEE 802.15.4 MAC sub-layer management
// entity behind a small capability interface, so the
// NWK/APS core is portable across radio drivers. The radio is a
// singular resource: whatever implements Mlme owns it exclusively and
// drives it with one request at a time, never concurrent requests
// fanned out across goroutines.
package mlme

import (
	"context"
	"errors"

	"zigbeecore/addr"
)

// ErrNoBeacon is returned by ScanNetwork when no beacon was heard on any
// requested channel.
var ErrNoBeacon = errors.New("mlme: no beacon heard")

// ErrInvalidScanParams is returned for an out-of-range channel or
// duration.
var ErrInvalidScanParams = errors.New("mlme: invalid scan parameters")

// ErrReadError is returned when the radio driver's own buffer/register
// access fails.
var ErrReadError = errors.New("mlme: read error")

// ErrRadioError is a catch-all for radio/transceiver faults.
var ErrRadioError = errors.New("mlme: radio error")

// ScanType selects the MLME-SCAN.request scan type.
type ScanType uint8

const (
	ScanTypeActive  ScanType = iota // solicit beacons with a beacon request
	ScanTypePassive                 // listen for unsolicited beacons only
	ScanTypeED                      // energy detection, no beacon parsing
	ScanTypeOrphan                  // orphan realignment, no beacon parsing
)

// aBaseSuperFrameDuration is the IEEE 802.15.4 constant: 60 symbols at
// 16 microseconds/symbol.
const aBaseSuperFrameDuration = 60 * 16

// ScanDuration returns the per-channel wait time in microseconds for an
// active/passive scan of the given duration order: 16 microseconds/
// symbol * aBaseSuperFrameDuration * (2*duration + 1).
func ScanDuration(duration uint8) int {
	return 16 * aBaseSuperFrameDuration * (2*int(duration) + 1)
}

// ChannelMin and ChannelMax bound the usable 2.4 GHz channel set [11,26].
// Scan requests are not intersected with this range: Simulated.ScanNetwork
// fails the whole scan with ErrInvalidScanParams on the first requested
// channel outside it.
const (
	ChannelMin = 11
	ChannelMax = 26
)

// SuperframeSpec is the 2-byte MAC superframe specification embedded in
// a beacon (IEEE 802.15.4, carried verbatim by PanDescriptor).
type SuperframeSpec uint16

const (
	superframeMaskBeaconOrder      = 0x000F
	superframeMaskSuperframeOrder  = 0x00F0
	superframeShiftSuperframeOrder = 4
	superframeMaskAssociationPermit = 0x8000
)

// BeaconOrder returns bits 0-3 of the superframe specification.
func (s SuperframeSpec) BeaconOrder() uint8 { return uint8(s & superframeMaskBeaconOrder) }

// SuperframeOrder returns bits 4-7 of the superframe specification.
func (s SuperframeSpec) SuperframeOrder() uint8 {
	return uint8((s & superframeMaskSuperframeOrder) >> superframeShiftSuperframeOrder)
}

// AssociationPermit reports the top bit: whether the beaconing device
// currently accepts association requests (joins MLME-level, distinct
// from the NWK permit_joining attribute).
func (s SuperframeSpec) AssociationPermit() bool { return s&superframeMaskAssociationPermit != 0 }

// ZigbeeBeacon is the Zigbee-specific payload of an 802.15.4 beacon
// frame: protocol id, stack profile bitfield, extended PAN
// id, tx offset and update id.
type ZigbeeBeacon struct {
	ProtocolID    uint8
	StackProfile  uint8
	ProtocolVersion uint8
	RouterCapacity  bool
	Depth           uint8
	EndDeviceCapacity bool
	ExtendedPanID   addr.ExtendedPanId
	TxOffset        uint32 // 24-bit on the wire
	UpdateID        uint8
}

// PanDescriptor describes one network heard during a scan.
type PanDescriptor struct {
	Channel            uint8
	CoordinatorPanID   addr.PanId
	CoordinatorAddress addr.IeeeAddress
	Superframe         SuperframeSpec
	LinkQuality        uint8
	SecurityUse        bool
	Beacon             ZigbeeBeacon
}

// ScanResult is the outcome of MLME-SCAN.confirm for an active/passive/
// ED scan.
type ScanResult struct {
	PanDescriptors []PanDescriptor
}

// ReceivedFrame is one MAC frame delivered to the NWK layer.
type ReceivedFrame struct {
	Payload     []byte
	LinkQuality uint8
	Channel     uint8
}

// Mlme is the capability the core drives a radio through. Every method
// is awaitable via ctx:
// scan_network, transmit and receive correspond 1:1 to the three
// required operations. Implementations must support cancellation via
// ctx between await points: on cancellation the radio
// returns to idle, timers are cleared and partial scan results are
// discarded.
type Mlme interface {
	// ScanNetwork performs MLME-SCAN.request for scanType over channels,
	// each channel observed for ScanDuration(duration) microseconds (Active/
	// Passive) or the implementation's own ED dwell time.
	ScanNetwork(ctx context.Context, scanType ScanType, channels []uint8, duration uint8) (ScanResult, error)

	// Transmit sends frame and completes when the radio signals tx-done.
	Transmit(ctx context.Context, frame []byte) error

	// Receive blocks until a frame is available or ctx is done.
	Receive(ctx context.Context) (ReceivedFrame, error)
}
