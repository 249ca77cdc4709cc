package mlme

import (
	"context"
	"testing"
	"time"
)

// S7: scan duration formula.
func TestScanDuration(t *testing.T) {
	got := ScanDuration(4)
	want := 138240
	if got != want {
		t.Fatalf("ScanDuration(4) = %d, want %d", got, want)
	}
}

func TestSimulatedScanNetwork(t *testing.T) {
	s := NewSimulated()
	s.Beacons[15] = []PanDescriptor{{Channel: 15, CoordinatorPanID: 0x1234}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := s.ScanNetwork(ctx, ScanTypeActive, []uint8{11, 15, 20}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.PanDescriptors) != 1 || result.PanDescriptors[0].CoordinatorPanID != 0x1234 {
		t.Fatalf("PanDescriptors = %+v", result.PanDescriptors)
	}
}

func TestSimulatedTransmitReceiveRoundTrip(t *testing.T) {
	s := NewSimulated()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Transmit(ctx, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	f, err := s.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Payload) != 3 || f.Payload[0] != 1 {
		t.Fatalf("Receive = %+v", f)
	}
}

func TestSimulatedScanInvalidChannel(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()
	if _, err := s.ScanNetwork(ctx, ScanTypeActive, []uint8{30}, 0); err != ErrInvalidScanParams {
		t.Fatalf("err = %v, want ErrInvalidScanParams", err)
	}
}
