package nlme

import (
	"context"

	"zigbeecore/addr"
	"zigbeecore/mlme"
)

// NetworkDescriptor is the NLME-level projection of one heard PAN.
// De-duplication by pan_id is left to the caller.
type NetworkDescriptor struct {
	ExtendedPanID     addr.ExtendedPanId
	PanID             addr.PanId
	UpdateID          uint8
	LogicalChannel    uint8
	StackProfile      uint8
	ZigbeeVersion     uint8
	BeaconOrder       uint8
	SuperframeOrder   uint8
	PermitJoining     bool
	RouterCapacity    bool
	EndDeviceCapacity bool
}

// projectDescriptor turns one PanDescriptor heard over the air into the
// NLME-level NetworkDescriptor.
func projectDescriptor(p mlme.PanDescriptor) NetworkDescriptor {
	b := p.Beacon
	return NetworkDescriptor{
		ExtendedPanID:     b.ExtendedPanID,
		PanID:             p.CoordinatorPanID,
		UpdateID:          b.UpdateID,
		LogicalChannel:    p.Channel,
		StackProfile:      b.StackProfile,
		ZigbeeVersion:     b.ProtocolVersion,
		BeaconOrder:       p.Superframe.BeaconOrder(),
		SuperframeOrder:   p.Superframe.SuperframeOrder(),
		PermitJoining:     p.Superframe.AssociationPermit(),
		RouterCapacity:    b.RouterCapacity,
		EndDeviceCapacity: b.EndDeviceCapacity,
	}
}

// DiscoveryStatus is the result code carried on NLME-NETWORK-DISCOVERY.confirm.
type DiscoveryStatus uint8

const (
	DiscoverySuccess DiscoveryStatus = iota
	DiscoveryInvalidRequest
	DiscoveryNoNetworks
)

// DiscoveryConfirm is NLME-NETWORK-DISCOVERY.confirm.
type DiscoveryConfirm struct {
	Status   DiscoveryStatus
	Networks []NetworkDescriptor
}

// NetworkDiscovery performs NLME-NETWORK-DISCOVERY.request: it drives a
// single active scan across channels through the radio's own ScanNetwork
// call (the radio is a singular resource driven by one request at a
// time; see mlme.Mlme) and projects every heard beacon into a
// NetworkDescriptor. The state machine moves Idle -> Scanning for the
// duration of the scan and back to Idle on completion, cancellation, or
// error.
func NetworkDiscovery(ctx context.Context, m *StateMachine, radio mlme.Mlme, channels []uint8, duration uint8) (DiscoveryConfirm, error) {
	if err := m.beginScan(); err != nil {
		return DiscoveryConfirm{}, err
	}
	defer m.endScan()

	result, err := radio.ScanNetwork(ctx, mlme.ScanTypeActive, channels, duration)
	if err != nil {
		return DiscoveryConfirm{Status: DiscoveryInvalidRequest}, err
	}

	confirm := DiscoveryConfirm{Status: DiscoverySuccess}
	for _, d := range result.PanDescriptors {
		confirm.Networks = append(confirm.Networks, projectDescriptor(d))
	}
	if len(confirm.Networks) == 0 {
		confirm.Status = DiscoveryNoNetworks
	}
	return confirm, nil
}
