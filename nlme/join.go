package nlme

import (
	"context"

	"zigbeecore/addr"
	"zigbeecore/mlme"
	"zigbeecore/nib"
	"zigbeecore/nwk"
	"zigbeecore/wire"
)

// JoinStatus is the result code carried on NLME-JOIN.confirm /
// NLME-REJOIN.confirm.
type JoinStatus uint8

const (
	JoinSuccess JoinStatus = iota
	JoinNotPermitted
	JoinNoAck
	JoinInvalidRequest
)

// JoinParams describes the network a device attempts to join or rejoin
// ("using the current NIB state (extended_panid, channel)").
type JoinParams struct {
	ExtendedPanID addr.ExtendedPanId
	Channel       uint8
	Capability    nwk.CapabilityInformation
}

// JoinConfirm is NLME-JOIN.confirm / NLME-REJOIN.confirm.
type JoinConfirm struct {
	Status         JoinStatus
	NetworkAddress addr.ShortAddress
}

// Rejoin issues NLME-REJOIN.request: it builds an nwk.RejoinRequest
// command, transmits it over radio, and awaits the matching
// RejoinResponse. On success it writes network_address and
// extended_panid into the NIB and transitions Joining -> Joined; on
// failure or error the NIB is left untouched.
func Rejoin(ctx context.Context, m *StateMachine, n *nib.NIB, radio mlme.Mlme, params JoinParams) (JoinConfirm, error) {
	if err := m.beginJoin(); err != nil {
		return JoinConfirm{}, err
	}

	req := nwk.RejoinRequest{Capability: params.Capability}
	w := wire.NewWriter(8)
	nwk.WriteCommand(w, req)

	if err := radio.Transmit(ctx, w.Bytes()); err != nil {
		m.joinFailed()
		return JoinConfirm{Status: JoinNoAck}, nil
	}

	frame, err := radio.Receive(ctx)
	if err != nil {
		m.joinFailed()
		return JoinConfirm{Status: JoinNoAck}, nil
	}

	r := wire.NewReader(frame.Payload)
	cmd, err := nwk.ParseCommand(r)
	if err != nil {
		m.joinFailed()
		return JoinConfirm{Status: JoinInvalidRequest}, nil
	}
	resp, ok := cmd.(nwk.RejoinResponse)
	if !ok {
		m.joinFailed()
		return JoinConfirm{Status: JoinInvalidRequest}, nil
	}
	if resp.Status != 0 {
		m.joinFailed()
		return JoinConfirm{Status: JoinNotPermitted}, nil
	}

	if err := n.SetNetworkAddress(resp.NetworkAddress); err != nil {
		m.joinFailed()
		return JoinConfirm{}, err
	}
	if err := n.SetExtendedPanId(params.ExtendedPanID); err != nil {
		m.joinFailed()
		return JoinConfirm{}, err
	}
	if err := m.joinSucceeded(); err != nil {
		return JoinConfirm{}, err
	}
	return JoinConfirm{Status: JoinSuccess, NetworkAddress: resp.NetworkAddress}, nil
}
