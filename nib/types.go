// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package nib

import "zigbeecore/addr"

// Bounds on the bounded collections carried in the NIB. The neighbor,
// route and route-record limits come directly from ;
// the others are implementation choices sized for a constrained device
// and documented here rather than left to grow unbounded.
const (
	MaxNeighbors             = 16
	MaxRoutes                = 8
	MaxRouteRecordRelays     = 8
	MaxRouteRecordEntries    = 8
	MaxBroadcastTransactions = 8
	MaxAddressMapEntries     = 16
	MaxSecurityMaterial      = 2 // active key + previous key during a key switch
	MaxIncomingCounters      = 4 // per-key, bounded set of {sender, last-seen counter}
)

// Relationship values for a NeighborDescriptor; not exhaustive beyond
// what the core needs to decide routing/joining behavior.
const (
	RelationshipParent = iota
	RelationshipChild
	RelationshipSibling
	RelationshipNone
	RelationshipPreviousChild
)

// NeighborDescriptor is one entry of the neighbor table.
type NeighborDescriptor struct {
	ExtendedAddress addr.IeeeAddress
	NetworkAddress  addr.ShortAddress
	DeviceType      uint8 // 0 coordinator, 1 router, 2 end device
	RxOnWhenIdle    bool
	Relationship    uint8
	PermitJoining   bool
	Depth           uint8
	LQI             uint8
	Age             uint8 // link-status cycles since last refresh; see router_age_limit
}

const neighborDescriptorSize = 8 + 2 + 1 + 1 + 1 + 1 + 1 + 1 + 1

// RouteStatus values (not reproduced; the subset the core
// acts on).
const (
	RouteStatusActive = iota
	RouteStatusDiscoveryUnderway
	RouteStatusDiscoveryFailed
	RouteStatusInactive
	RouteStatusValidationUnderway
)

// RouteDescriptor is one entry of the routing table.
type RouteDescriptor struct {
	DestinationAddress addr.ShortAddress
	Status             uint8
	NoRouteCache       bool
	ManyToOne          bool
	RouteRecordRequired bool
	GroupID            bool
	NextHopAddress     addr.ShortAddress
}

const routeDescriptorSize = 6

// BroadcastTransactionRecord tracks a broadcast this device has already
// relayed, so it is not relayed twice.
type BroadcastTransactionRecord struct {
	Source         addr.ShortAddress
	SequenceNumber uint8
	ExpirationTime uint8
}

const broadcastTransactionRecordSize = 4

// RouteRecordEntry caches the source route to a device that requested
// one via a RouteRecord command. RelayList is bounded; see
// an open design question on borrowed relay-list slices.
type RouteRecordEntry struct {
	Source     addr.ShortAddress
	RelayCount uint8
	RelayList  [MaxRouteRecordRelays]addr.ShortAddress
}

const routeRecordEntrySize = 2 + 1 + MaxRouteRecordRelays*2

// AddressMapEntry maps a short address to its IEEE address and back.
type AddressMapEntry struct {
	ShortAddr addr.ShortAddress
	IeeeAddr  addr.IeeeAddress
}

const addressMapEntrySize = 10

// Network key types; only Standard is currently issued by
// TransportKey, Distributed is reserved for a future trust-center policy
// engine (out of scope).
const (
	NetworkKeyTypeStandard = iota
	NetworkKeyTypeDistributed
)

// IncomingCounter is the last-seen frame counter for one sender under one
// network key, used for anti-replay (decrypt step 5).
type IncomingCounter struct {
	Source  addr.IeeeAddress
	Counter uint32
}

const incomingCounterSize = 8 + 4

// SecurityMaterialEntry is one generation of network key.
// A key is poisoned once its outgoing counter reaches 2^32-1 (invariant
// 4); Poisoned is latched so a poisoned key is never selected again even
// if the counter field is later overwritten.
type SecurityMaterialEntry struct {
	SeqNo              uint8
	OutgoingCounter    uint32
	IncomingCounterSet [MaxIncomingCounters]IncomingCounter
	Key                [16]byte
	NetworkKeyType     uint8
	Poisoned           bool
}

// IncomingCounterFor returns the last-seen frame counter recorded for
// source, if any.
func (s SecurityMaterialEntry) IncomingCounterFor(source addr.IeeeAddress) (uint32, bool) {
	for _, c := range s.IncomingCounterSet {
		if c.Source == source {
			return c.Counter, true
		}
	}
	return 0, false
}

// WithIncomingCounter returns a copy of s with source's last-seen counter
// advanced to counter, evicting the oldest tracked sender if source is new
// and the bounded set is already full.
func (s SecurityMaterialEntry) WithIncomingCounter(source addr.IeeeAddress, counter uint32) SecurityMaterialEntry {
	out := s
	for i, c := range out.IncomingCounterSet {
		if c.Source == source {
			out.IncomingCounterSet[i].Counter = counter
			return out
		}
	}
	for i, c := range out.IncomingCounterSet {
		if c.Source == 0 && c.Counter == 0 {
			out.IncomingCounterSet[i] = IncomingCounter{Source: source, Counter: counter}
			return out
		}
	}
	copy(out.IncomingCounterSet[:], out.IncomingCounterSet[1:])
	out.IncomingCounterSet[len(out.IncomingCounterSet)-1] = IncomingCounter{Source: source, Counter: counter}
	return out
}

const securityMaterialEntrySize = 1 + 4 + MaxIncomingCounters*incomingCounterSize + 16 + 1 + 1
