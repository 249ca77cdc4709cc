// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package aib

import (
	"testing"

	"zigbeecore/addr"
	"zigbeecore/ib"
)

func newTestAIB(t *testing.T) *AIB {
	t.Helper()
	storage := ib.NewMemStorage(4096)
	a := New(storage)
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestDefaults(t *testing.T) {
	a := newTestAIB(t)
	tc, err := a.TrustCenterAddress()
	if err != nil || tc != DefaultTrustCenterAddress {
		t.Fatalf("TrustCenterAddress = %v, %v", tc, err)
	}
	coord, err := a.DesignatedCoordinator()
	if err != nil || coord {
		t.Fatalf("DesignatedCoordinator = %v, %v, want false", coord, err)
	}
	bindings, err := a.BindingTable()
	if err != nil || len(bindings) != 0 {
		t.Fatalf("BindingTable = %v, %v, want empty", bindings, err)
	}
}

func TestDeviceKeyPairInvariant(t *testing.T) {
	a := newTestAIB(t)
	dev := addr.IeeeAddress(0xAAAA)

	entry := DeviceKeyPairEntry{DeviceIeee: dev, KeyAttribute: KeyAttributeUnverified, OutgoingCounter: 1}
	if err := a.UpsertDeviceKeyPair(entry); err != nil {
		t.Fatal(err)
	}
	entry.KeyAttribute = KeyAttributeVerified
	entry.OutgoingCounter = 2
	if err := a.UpsertDeviceKeyPair(entry); err != nil {
		t.Fatal(err)
	}

	set, err := a.DeviceKeyPairSet()
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 {
		t.Fatalf("len(set) = %d, want 1 (upsert must not duplicate)", len(set))
	}
	if set[0].KeyAttribute != KeyAttributeVerified || set[0].OutgoingCounter != 2 {
		t.Fatalf("set[0] = %+v, want updated entry", set[0])
	}

	got, ok, err := a.DeviceKeyPair(dev)
	if err != nil || !ok || got.OutgoingCounter != 2 {
		t.Fatalf("DeviceKeyPair = %+v, %v, %v", got, ok, err)
	}
}

func TestBindingTableRoundTrip(t *testing.T) {
	a := newTestAIB(t)
	entries := []BindingEntry{
		{SrcAddress: 1, SrcEndpoint: 1, ClusterId: 0x0006, DstAddrMode: DstAddrModeExtended, DstAddress: 2, DstEndpoint: 1},
		{SrcAddress: 1, SrcEndpoint: 2, ClusterId: 0x0008, DstAddrMode: DstAddrModeGroup, DstGroupAddress: 0x1000},
	}
	if err := a.SetBindingTable(entries); err != nil {
		t.Fatal(err)
	}
	got, err := a.BindingTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != entries[0] || got[1] != entries[1] {
		t.Fatalf("BindingTable = %+v, want %+v", got, entries)
	}
}
