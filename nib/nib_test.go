// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package nib

import (
	"testing"

	"zigbeecore/addr"
	"zigbeecore/ib"
)

func newTestNIB(t *testing.T) *NIB {
	t.Helper()
	storage := ib.NewMemStorage(4096)
	n := New(storage)
	if err := n.Init(); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestDefaults(t *testing.T) {
	n := newTestNIB(t)

	if v, err := n.NetworkAddress(); err != nil || v != addr.ShortAddressUnknown {
		t.Fatalf("NetworkAddress = %v, %v", v, err)
	}
	if v, err := n.PanId(); err != nil || v != 0xFFFF {
		t.Fatalf("PanId = %v, %v", v, err)
	}
	if v, err := n.SecurityLevel(); err != nil || v != DefaultSecurityLevel {
		t.Fatalf("SecurityLevel = %v, %v", v, err)
	}
	if v, err := n.MaxBroadcastRetries(); err != nil || v != 3 {
		t.Fatalf("MaxBroadcastRetries = %v, %v", v, err)
	}
	if v, err := n.RouterAgeLimit(); err != nil || v != 3 {
		t.Fatalf("RouterAgeLimit = %v, %v", v, err)
	}
	if v, err := n.TransactionPersistenceTime(); err != nil || v != 0x01F4 {
		t.Fatalf("TransactionPersistenceTime = %v, %v", v, err)
	}
	if v, err := n.EndDeviceTimeoutDefault(); err != nil || v != 8 {
		t.Fatalf("EndDeviceTimeoutDefault = %v, %v", v, err)
	}
	neighbors, err := n.NeighborTable()
	if err != nil || len(neighbors) != 0 {
		t.Fatalf("NeighborTable = %v, %v, want empty", neighbors, err)
	}
}

func TestScalarPersistence(t *testing.T) {
	n := newTestNIB(t)

	if err := n.SetNetworkAddress(0x1234); err != nil {
		t.Fatal(err)
	}
	if v, err := n.NetworkAddress(); err != nil || v != 0x1234 {
		t.Fatalf("NetworkAddress = %v, %v", v, err)
	}

	if err := n.SetExtendedPanId(0xAABBCCDDEEFF0011); err != nil {
		t.Fatal(err)
	}
	if v, err := n.ExtendedPanId(); err != nil || v != 0xAABBCCDDEEFF0011 {
		t.Fatalf("ExtendedPanId = %v, %v", v, err)
	}

	seq, err := n.NextSequenceNumber()
	if err != nil || seq != 0 {
		t.Fatalf("NextSequenceNumber = %v, %v", seq, err)
	}
	seq, err = n.NextSequenceNumber()
	if err != nil || seq != 1 {
		t.Fatalf("NextSequenceNumber = %v, %v", seq, err)
	}
}

func TestNeighborTableRoundTrip(t *testing.T) {
	n := newTestNIB(t)

	entries := []NeighborDescriptor{
		{ExtendedAddress: 0x1111, NetworkAddress: 0x2222, DeviceType: 1, RxOnWhenIdle: true, Relationship: RelationshipChild, Depth: 2, LQI: 200, Age: 1},
		{ExtendedAddress: 0x3333, NetworkAddress: 0x4444, DeviceType: 2, Relationship: RelationshipSibling, Depth: 3, LQI: 100, Age: 0},
	}
	if err := n.SetNeighborTable(entries); err != nil {
		t.Fatal(err)
	}
	got, err := n.NeighborTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(entries) {
		t.Fatalf("len = %d, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestSecurityMaterialActiveSelection(t *testing.T) {
	n := newTestNIB(t)

	key := SecurityMaterialEntry{SeqNo: 0, OutgoingCounter: 5, NetworkKeyType: NetworkKeyTypeStandard}
	copy(key.Key[:], []byte("0123456789ABCDEF"))
	if err := n.SetSecurityMaterialSet([]SecurityMaterialEntry{key}); err != nil {
		t.Fatal(err)
	}
	if err := n.SetActiveKeySeqNumber(0); err != nil {
		t.Fatal(err)
	}
	got, ok, err := n.ActiveSecurityMaterial()
	if err != nil || !ok {
		t.Fatalf("ActiveSecurityMaterial: ok=%v err=%v", ok, err)
	}
	if got.OutgoingCounter != 5 || string(got.Key[:]) != "0123456789ABCDEF" {
		t.Fatalf("ActiveSecurityMaterial = %+v", got)
	}

	if err := n.SetActiveKeySeqNumber(9); err != nil {
		t.Fatal(err)
	}
	_, ok, err = n.ActiveSecurityMaterial()
	if err != nil || ok {
		t.Fatalf("expected no active material for unknown seq, ok=%v err=%v", ok, err)
	}
}
