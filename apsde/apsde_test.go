package apsde

import (
	"bytes"
	"context"
	"testing"
	"time"

	"zigbeecore/addr"
	"zigbeecore/aib"
	"zigbeecore/apsme"
	"zigbeecore/ib"
	"zigbeecore/mlme"
	"zigbeecore/nib"
	"zigbeecore/nwk"
	"zigbeecore/wire"
)

func newTestNIB(t *testing.T) *nib.NIB {
	t.Helper()
	n := nib.New(ib.NewMemStorage(4096))
	if err := n.Init(); err != nil {
		t.Fatal(err)
	}
	if err := n.SetNetworkAddress(addr.ShortAddress(0x1000)); err != nil {
		t.Fatal(err)
	}
	return n
}

func newTestAIB(t *testing.T) *aib.AIB {
	t.Helper()
	a := aib.New(ib.NewMemStorage(4096))
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestRequestNoBoundDevice(t *testing.T) {
	n := newTestNIB(t)
	a := newTestAIB(t)
	radio := mlme.NewSimulated()

	confirm, err := Request(context.Background(), n, a, radio, DataRequest{
		DstAddrMode: DstAddrModeNone,
		SrcEndpoint: 1,
		ClusterID:   6,
		Asdu:        []byte("hello"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != DataNoBoundDevice {
		t.Fatalf("confirm = %+v, want NoBoundDevice", confirm)
	}
}

func TestRequestAsduTooLong(t *testing.T) {
	n := newTestNIB(t)
	a := newTestAIB(t)
	radio := mlme.NewSimulated()

	confirm, err := Request(context.Background(), n, a, radio, DataRequest{
		DstAddrMode: DstAddrModeShort,
		DstAddress:  0x2000,
		SrcEndpoint: 1,
		Asdu:        make([]byte, MaxAsduLength+1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != DataAsduTooLong {
		t.Fatalf("confirm = %+v, want AsduTooLong", confirm)
	}
}

func TestRequestUnsecuredDeliversOverRadio(t *testing.T) {
	n := newTestNIB(t)
	a := newTestAIB(t)
	radio := mlme.NewSimulated()

	confirm, err := Request(context.Background(), n, a, radio, DataRequest{
		DstAddrMode: DstAddrModeShort,
		DstAddress:  0x2000,
		DstEndpoint: 5,
		SrcEndpoint: 1,
		ProfileID:   0x0104,
		ClusterID:   6,
		Asdu:        []byte("hello"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != DataSuccess {
		t.Fatalf("confirm = %+v, want Success", confirm)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	frame, err := radio.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}

	r := wire.NewReader(frame.Payload)
	nwkHeader, err := nwk.ReadHeader(r)
	if err != nil {
		t.Fatal(err)
	}
	if nwkHeader.Destination != 0x2000 {
		t.Fatalf("nwk destination = %#x, want 0x2000", nwkHeader.Destination)
	}

	ind, err := Indicate(a, nwkHeader.Source, 0, frame.Payload[r.Offset():])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ind.Asdu, []byte("hello")) {
		t.Fatalf("Asdu = %q, want %q", ind.Asdu, "hello")
	}
	if ind.ClusterID != 6 || ind.ProfileID != 0x0104 {
		t.Fatalf("indication = %+v", ind)
	}
}

func TestRequestResolvesExtendedBinding(t *testing.T) {
	n := newTestNIB(t)
	a := newTestAIB(t)
	radio := mlme.NewSimulated()

	peerIeee := addr.IeeeAddress(0x1122334455667788)
	if err := n.SetAddressMap([]nib.AddressMapEntry{{ShortAddr: 0x3000, IeeeAddr: peerIeee}}); err != nil {
		t.Fatal(err)
	}
	if _, err := apsme.Bind(a, true, true, apsme.BindRequest{
		SrcAddress: 0x1000, SrcEndpoint: 1, ClusterID: 6,
		DstAddrMode: aib.DstAddrModeExtended, DstAddress: peerIeee, DstEndpoint: 2,
	}); err != nil {
		t.Fatal(err)
	}

	confirm, err := Request(context.Background(), n, a, radio, DataRequest{
		DstAddrMode: DstAddrModeNone,
		SrcEndpoint: 1,
		ClusterID:   6,
		Asdu:        []byte("bound"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != DataSuccess {
		t.Fatalf("confirm = %+v, want Success", confirm)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	frame, err := radio.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(frame.Payload)
	nwkHeader, err := nwk.ReadHeader(r)
	if err != nil {
		t.Fatal(err)
	}
	if nwkHeader.Destination != 0x3000 {
		t.Fatalf("nwk destination = %#x, want 0x3000 (resolved from binding)", nwkHeader.Destination)
	}
}
