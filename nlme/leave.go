package nlme

import (
	"context"

	"zigbeecore/mlme"
	"zigbeecore/nwk"
	"zigbeecore/wire"
)

// LeaveStatus is the result code carried on NLME-LEAVE.confirm. The
// Joined -> Leaving -> Idle transition's request/response shape is
// modeled on zigbee-base-device-behavior's leave/rejoin primitives.
type LeaveStatus uint8

const (
	LeaveSuccess LeaveStatus = iota
	LeaveNoAck
	LeaveInvalidRequest
)

// LeaveRequest is NLME-LEAVE.request: RemoveChildren asks the recipient
// to also remove its own children, Rejoin asks it to attempt a rejoin
// afterward.
type LeaveRequest struct {
	RemoveChildren bool
	Rejoin         bool
}

// LeaveConfirm is NLME-LEAVE.confirm.
type LeaveConfirm struct {
	Status LeaveStatus
}

// Leave issues NLME-LEAVE.request: builds and transmits an nwk.Leave
// command and transitions Joined -> Leaving -> Idle on completion
// regardless of whether the peer acknowledges it (transition
// table has no "leave failed, stay Joined" edge).
func Leave(ctx context.Context, m *StateMachine, radio mlme.Mlme, req LeaveRequest) (LeaveConfirm, error) {
	if err := m.beginLeave(); err != nil {
		return LeaveConfirm{}, err
	}
	defer m.leaveComplete()

	cmd := nwk.Leave{Options: nwk.NewLeaveOptions(req.Rejoin, true, req.RemoveChildren)}
	w := wire.NewWriter(4)
	nwk.WriteCommand(w, cmd)

	if err := radio.Transmit(ctx, w.Bytes()); err != nil {
		return LeaveConfirm{Status: LeaveNoAck}, nil
	}
	return LeaveConfirm{Status: LeaveSuccess}, nil
}
