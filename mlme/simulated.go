package mlme

import (
	"context"
	"sync"
)

// Simulated is an in-memory Mlme, standing in for a real radio driver so
// everything above that boundary runs unmodified in tests. It is driven
// by two channels a test wires up: Beacons, consulted by ScanNetwork,
// and a loopback queue fed by Transmit and drained by Receive.
type Simulated struct {
	mu sync.Mutex

	// Beacons maps a channel number to the PAN descriptors a scan on
	// that channel should report.
	Beacons map[uint8][]PanDescriptor

	rx chan ReceivedFrame
}

// NewSimulated returns a Simulated radio with no beacons configured and
// a buffered loopback queue holding up to 64 frames.
func NewSimulated() *Simulated {
	return &Simulated{
		Beacons: make(map[uint8][]PanDescriptor),
		rx:      make(chan ReceivedFrame, 64),
	}
}

// ScanNetwork reports the configured Beacons for each requested channel,
// honoring cancellation between channels (scan may be
// cancelled mid-channel, discarding only that channel's partial result).
func (s *Simulated) ScanNetwork(ctx context.Context, scanType ScanType, channels []uint8, duration uint8) (ScanResult, error) {
	var result ScanResult
	for _, ch := range channels {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		if ch < ChannelMin || ch > ChannelMax {
			return result, ErrInvalidScanParams
		}
		s.mu.Lock()
		descs := s.Beacons[ch]
		s.mu.Unlock()
		result.PanDescriptors = append(result.PanDescriptors, descs...)
	}
	return result, nil
}

// Transmit loops frame back onto the receive queue, standing in for a
// radio that delivers its own transmissions to a peer under test.
func (s *Simulated) Transmit(ctx context.Context, frame []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.rx <- ReceivedFrame{Payload: append([]byte{}, frame...), LinkQuality: 255}:
		return nil
	}
}

// Receive blocks until a frame transmitted by Transmit (or injected via
// Inject) is available.
func (s *Simulated) Receive(ctx context.Context) (ReceivedFrame, error) {
	select {
	case <-ctx.Done():
		return ReceivedFrame{}, ctx.Err()
	case f := <-s.rx:
		return f, nil
	}
}

// Inject delivers f to the next Receive call without going through
// Transmit, simulating a frame arriving from a peer.
func (s *Simulated) Inject(f ReceivedFrame) {
	s.rx <- f
}
