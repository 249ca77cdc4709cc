package nlme

import (
	"context"
	"testing"
	"time"

	"zigbeecore/addr"
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
	return n
}

func TestStateMachineTransitions(t *testing.T) {
	m := NewStateMachine()
	if m.Current() != Idle {
		t.Fatalf("initial state = %s, want Idle", m.Current())
	}
	if err := m.beginScan(); err != nil {
		t.Fatal(err)
	}
	if m.Current() != Scanning {
		t.Fatalf("state = %s, want Scanning", m.Current())
	}
	if err := m.beginJoin(); err == nil {
		t.Fatal("expected ErrInvalidTransition from Scanning")
	}
	if err := m.endScan(); err != nil {
		t.Fatal(err)
	}
	if err := m.beginJoin(); err != nil {
		t.Fatal(err)
	}
	if err := m.joinSucceeded(); err != nil {
		t.Fatal(err)
	}
	if m.Current() != Joined {
		t.Fatalf("state = %s, want Joined", m.Current())
	}
	if err := m.beginLeave(); err != nil {
		t.Fatal(err)
	}
	if err := m.leaveComplete(); err != nil {
		t.Fatal(err)
	}
	if m.Current() != Idle {
		t.Fatalf("state = %s, want Idle", m.Current())
	}
}

func TestNetworkDiscoveryProjectsDescriptors(t *testing.T) {
	radio := mlme.NewSimulated()
	radio.Beacons[15] = []mlme.PanDescriptor{{
		Channel:          15,
		CoordinatorPanID: 0x1234,
		Superframe:       0x8F0F, // association permit, superframe order 0, beacon order 15
		Beacon: mlme.ZigbeeBeacon{
			StackProfile:    2,
			ProtocolVersion: 2,
			RouterCapacity:  true,
			ExtendedPanID:   addr.ExtendedPanId(0xAABBCCDD11223344),
			UpdateID:        7,
		},
	}}

	m := NewStateMachine()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	confirm, err := NetworkDiscovery(ctx, m, radio, []uint8{11, 15, 20}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != DiscoverySuccess {
		t.Fatalf("status = %v, want DiscoverySuccess", confirm.Status)
	}
	if len(confirm.Networks) != 1 {
		t.Fatalf("networks = %+v", confirm.Networks)
	}
	got := confirm.Networks[0]
	if got.PanID != 0x1234 || got.UpdateID != 7 || !got.PermitJoining || !got.RouterCapacity {
		t.Fatalf("projected descriptor = %+v", got)
	}
	if m.Current() != Idle {
		t.Fatalf("state after discovery = %s, want Idle", m.Current())
	}
}

func TestNetworkDiscoveryNoNetworks(t *testing.T) {
	radio := mlme.NewSimulated()
	m := NewStateMachine()
	confirm, err := NetworkDiscovery(context.Background(), m, radio, []uint8{11, 12}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != DiscoveryNoNetworks {
		t.Fatalf("status = %v, want DiscoveryNoNetworks", confirm.Status)
	}
}

// rejoinPeer answers each transmitted command with a RejoinResponse
// instead of looping the frame back, so Rejoin never reads its own
// request off the Simulated receive queue.
type rejoinPeer struct{ *mlme.Simulated }

func (p rejoinPeer) Transmit(ctx context.Context, frame []byte) error {
	if _, err := nwk.ParseCommand(wire.NewReader(frame)); err != nil {
		return err
	}
	w := wire.NewWriter(4)
	nwk.WriteCommand(w, nwk.RejoinResponse{NetworkAddress: addr.ShortAddress(0x5678), Status: 0})
	p.Inject(mlme.ReceivedFrame{Payload: w.Bytes()})
	return nil
}

func TestRejoinSuccess(t *testing.T) {
	radio := rejoinPeer{mlme.NewSimulated()}
	n := newTestNIB(t)
	m := NewStateMachine()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	confirm, err := Rejoin(ctx, m, n, radio, JoinParams{ExtendedPanID: addr.ExtendedPanId(0x1122334455667788), Channel: 15})
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != JoinSuccess || confirm.NetworkAddress != 0x5678 {
		t.Fatalf("confirm = %+v", confirm)
	}
	if m.Current() != Joined {
		t.Fatalf("state = %s, want Joined", m.Current())
	}
	got, err := n.NetworkAddress()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x5678 {
		t.Fatalf("NIB network address = %#x, want 0x5678", got)
	}
}

func TestLeaveReturnsToIdle(t *testing.T) {
	radio := mlme.NewSimulated()
	m := NewStateMachine()
	if err := m.beginJoin(); err != nil {
		t.Fatal(err)
	}
	if err := m.joinSucceeded(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	confirm, err := Leave(ctx, m, radio, LeaveRequest{RemoveChildren: true})
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Status != LeaveSuccess {
		t.Fatalf("status = %v, want LeaveSuccess", confirm.Status)
	}
	if m.Current() != Idle {
		t.Fatalf("state = %s, want Idle", m.Current())
	}
}

func TestUpdateAndAgeNeighbors(t *testing.T) {
	n := newTestNIB(t)
	entry := nib.NeighborDescriptor{ExtendedAddress: addr.IeeeAddress(1), Relationship: nib.RelationshipChild}
	if err := UpdateNeighbor(n, entry); err != nil {
		t.Fatal(err)
	}

	if err := n.SetRouterAgeLimit(2); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := AgeNeighbors(n, 2); err != nil {
			t.Fatal(err)
		}
	}
	table, err := n.NeighborTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 0 {
		t.Fatalf("neighbor table = %+v, want empty after aging past limit", table)
	}
}

func TestBroadcastTransactionDedup(t *testing.T) {
	n := newTestNIB(t)
	src := addr.ShortAddress(0x1111)
	if err := RecordBroadcast(n, src, 5, 10); err != nil {
		t.Fatal(err)
	}
	seen, err := AlreadyRelayed(n, src, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Fatal("expected broadcast to be recorded as already relayed")
	}
	if err := RecordBroadcast(n, src, 5, 10); err != nil {
		t.Fatal(err)
	}
	table, err := n.BroadcastTransactionTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 {
		t.Fatalf("expected dedup to keep a single entry, got %+v", table)
	}
}
