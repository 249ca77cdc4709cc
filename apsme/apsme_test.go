package apsme

import (
	"testing"

	"zigbeecore/addr"
	"zigbeecore/aib"
	"zigbeecore/ib"
)

func newTestAIB(t *testing.T) *aib.AIB {
	t.Helper()
	a := aib.New(ib.NewMemStorage(4096))
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestBindRequiresJoinedAndSupported(t *testing.T) {
	a := newTestAIB(t)
	req := BindRequest{SrcAddress: 1, SrcEndpoint: 1, ClusterID: 6, DstAddrMode: aib.DstAddrModeExtended, DstAddress: 2, DstEndpoint: 1}

	if confirm, err := Bind(a, false, true, req); err != nil || confirm.Status != BindIllegalRequest {
		t.Fatalf("confirm = %+v, err = %v", confirm, err)
	}
	if confirm, err := Bind(a, true, false, req); err != nil || confirm.Status != BindIllegalRequest {
		t.Fatalf("confirm = %+v, err = %v", confirm, err)
	}
	confirm, err := Bind(a, true, true, req)
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != BindSuccess {
		t.Fatalf("confirm = %+v, want Success", confirm)
	}
}

func TestBindTableFull(t *testing.T) {
	a := newTestAIB(t)
	for i := 0; i < aib.MaxBindings; i++ {
		req := BindRequest{SrcAddress: addr.IeeeAddress(i), SrcEndpoint: 1, ClusterID: 6, DstAddrMode: aib.DstAddrModeExtended, DstAddress: addr.IeeeAddress(i + 100), DstEndpoint: 1}
		if confirm, err := Bind(a, true, true, req); err != nil || confirm.Status != BindSuccess {
			t.Fatalf("entry %d: confirm = %+v, err = %v", i, confirm, err)
		}
	}
	overflow := BindRequest{SrcAddress: 999, SrcEndpoint: 1, ClusterID: 6, DstAddrMode: aib.DstAddrModeExtended, DstAddress: 1000, DstEndpoint: 1}
	confirm, err := Bind(a, true, true, overflow)
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != BindTableFull {
		t.Fatalf("confirm = %+v, want TableFull", confirm)
	}
}

func TestLookupBindings(t *testing.T) {
	a := newTestAIB(t)
	req := BindRequest{SrcAddress: 1, SrcEndpoint: 3, ClusterID: 6, DstAddrMode: aib.DstAddrModeExtended, DstAddress: 2, DstEndpoint: 1}
	if _, err := Bind(a, true, true, req); err != nil {
		t.Fatal(err)
	}
	matches, err := LookupBindings(a, 3, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].DstAddress != 2 {
		t.Fatalf("matches = %+v", matches)
	}
	if matches, err := LookupBindings(a, 3, 99); err != nil || len(matches) != 0 {
		t.Fatalf("matches = %+v, err = %v", matches, err)
	}
}

func TestUnbindRemovesMatchingEntry(t *testing.T) {
	a := newTestAIB(t)
	req := BindRequest{SrcAddress: 1, SrcEndpoint: 3, ClusterID: 6, DstAddrMode: aib.DstAddrModeExtended, DstAddress: 2, DstEndpoint: 1}
	if _, err := Bind(a, true, true, req); err != nil {
		t.Fatal(err)
	}
	confirm, err := Unbind(a, UnbindRequest(req))
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != BindSuccess {
		t.Fatalf("confirm = %+v", confirm)
	}
	if confirm, err := Unbind(a, UnbindRequest(req)); err != nil || confirm.Status != BindNotSupported {
		t.Fatalf("second unbind: confirm = %+v, err = %v", confirm, err)
	}
}

func TestGetSetAttribute(t *testing.T) {
	a := newTestAIB(t)
	confirm := Get(a, aib.AttrTrustCenterAddress)
	if confirm.Status != AttrSuccess || len(confirm.Value) != 8 {
		t.Fatalf("get confirm = %+v", confirm)
	}

	if confirm := Set(a, aib.AttrTrustCenterAddress, confirm.Value); confirm.Status != AttrReadOnly {
		t.Fatalf("set confirm = %+v, want ReadOnly", confirm)
	}

	if confirm := Get(a, 999); confirm.Status != AttrUnsupportedAttribute {
		t.Fatalf("get confirm = %+v, want UnsupportedAttribute", confirm)
	}
	if confirm := Set(a, 999, nil); confirm.Status != AttrUnsupportedAttribute {
		t.Fatalf("set confirm = %+v, want UnsupportedAttribute", confirm)
	}
}

func TestGroupTableLifecycle(t *testing.T) {
	a := newTestAIB(t)
	if confirm, err := AddGroupRequest(a, 1, 0x1234); err != nil || confirm.Status != GroupSuccess {
		t.Fatalf("add: confirm = %+v, err = %v", confirm, err)
	}
	if confirm, err := AddGroupRequest(a, 1, 0x1234); err != nil || confirm.Status != GroupDuplicateEntry {
		t.Fatalf("duplicate add: confirm = %+v, err = %v", confirm, err)
	}
	if confirm, err := AddGroupRequest(a, 2, 0x5678); err != nil || confirm.Status != GroupSuccess {
		t.Fatalf("add endpoint 2: confirm = %+v, err = %v", confirm, err)
	}

	if confirm, err := RemoveAllGroupsRequest(a, 1); err != nil || confirm.Status != GroupSuccess {
		t.Fatalf("remove all: confirm = %+v, err = %v", confirm, err)
	}
	table, err := a.GroupTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 || table[0].Endpoint != 2 {
		t.Fatalf("group table = %+v", table)
	}

	if confirm, err := RemoveGroupRequest(a, 2, 0x5678); err != nil || confirm.Status != GroupSuccess {
		t.Fatalf("remove: confirm = %+v, err = %v", confirm, err)
	}
	if confirm, err := RemoveGroupRequest(a, 2, 0x5678); err != nil || confirm.Status != GroupNotFound {
		t.Fatalf("second remove: confirm = %+v, err = %v", confirm, err)
	}
}
