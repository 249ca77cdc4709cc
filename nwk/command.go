// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package nwk

import (
	"zigbeecore/addr"
	"zigbeecore/wire"
)

// CommandID is the 1-byte NWK command frame discriminant.
type CommandID uint8

const (
	CommandRouteRequest            CommandID = 0x01
	CommandRouteReply              CommandID = 0x02
	CommandNetworkStatus           CommandID = 0x03
	CommandLeave                   CommandID = 0x04
	CommandRouteRecord             CommandID = 0x05
	CommandRejoinRequest           CommandID = 0x06
	CommandRejoinResponse          CommandID = 0x07
	CommandLinkStatus              CommandID = 0x08
	CommandNetworkReport           CommandID = 0x09
	CommandNetworkUpdate           CommandID = 0x0A
	CommandEndDeviceTimeoutRequest CommandID = 0x0B
	CommandEndDeviceTimeoutResponse CommandID = 0x0C
	CommandLinkPowerDelta          CommandID = 0x0D
)

// Command is any parsed NWK command payload. Reserved carries unmapped
// discriminants (the invariant: every unassigned tag round-trips as
// Reserved(tag)).
type Command interface {
	ID() CommandID
	write(w *wire.Writer)
}

// ParseCommand reads the 1-byte discriminant and dispatches to the
// matching command's reader. An unrecognized discriminant yields
// Reserved(raw_tag) rather than an error, so an unknown command is
// dropped at the dispatcher instead of aborting the whole frame.
func ParseCommand(r *wire.Reader) (Command, error) {
	tag, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch CommandID(tag) {
	case CommandRouteRequest:
		return readRouteRequest(r)
	case CommandRouteReply:
		return readRouteReply(r)
	case CommandNetworkStatus:
		return readNetworkStatus(r)
	case CommandLeave:
		return readLeave(r)
	case CommandRouteRecord:
		return readRouteRecord(r)
	case CommandRejoinRequest:
		return readRejoinRequest(r)
	case CommandRejoinResponse:
		return readRejoinResponse(r)
	case CommandLinkStatus:
		return readLinkStatus(r)
	case CommandNetworkReport:
		return readNetworkReport(r)
	case CommandNetworkUpdate:
		return readNetworkUpdate(r)
	case CommandEndDeviceTimeoutRequest:
		return readEndDeviceTimeoutRequest(r)
	case CommandEndDeviceTimeoutResponse:
		return readEndDeviceTimeoutResponse(r)
	case CommandLinkPowerDelta:
		return readLinkPowerDelta(r)
	default:
		return Reserved{RawTag: tag, Payload: append([]byte(nil), r.Rest()...)}, nil
	}
}

// WriteCommand writes cmd's discriminant followed by its payload.
func WriteCommand(w *wire.Writer, cmd Command) {
	w.PutU8(uint8(cmd.ID()))
	cmd.write(w)
}

// Reserved is the fallback variant for any discriminant not in the table
// above.
type Reserved struct {
	RawTag  uint8
	Payload []byte
}

func (r Reserved) ID() CommandID     { return CommandID(r.RawTag) }
func (r Reserved) write(w *wire.Writer) { w.PutBytes(r.Payload) }

// RouteRequestOptions is the 1-byte command options field of
// RouteRequest (; grounded on original_source's
// nwk/frame/command/route_request.rs).
type RouteRequestOptions uint8

const (
	rreqMaskManyToOne      = 0x18
	rreqShiftManyToOne     = 3
	rreqMaskDestIeee       = 0x20
	rreqMaskMulticast      = 0x40
)

func (o RouteRequestOptions) ManyToOne() uint8 {
	return uint8(o&rreqMaskManyToOne) >> rreqShiftManyToOne
}
func (o RouteRequestOptions) DestIeee() bool  { return o&rreqMaskDestIeee != 0 }
func (o RouteRequestOptions) Multicast() bool { return o&rreqMaskMulticast != 0 }

type RouteRequest struct {
	Options                 RouteRequestOptions
	RouteRequestID          uint8
	DestinationAddress      addr.ShortAddress
	PathCost                uint8
	DestinationIeeeAddress  *addr.IeeeAddress
}

func (RouteRequest) ID() CommandID { return CommandRouteRequest }

func readRouteRequest(r *wire.Reader) (Command, error) {
	var c RouteRequest
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.Options = RouteRequestOptions(opt)
	if c.RouteRequestID, err = r.U8(); err != nil {
		return nil, err
	}
	dst, err := r.U16()
	if err != nil {
		return nil, err
	}
	c.DestinationAddress = addr.ShortAddress(dst)
	if c.PathCost, err = r.U8(); err != nil {
		return nil, err
	}
	if c.Options.DestIeee() {
		v, err := r.U64()
		if err != nil {
			return nil, err
		}
		ieee := addr.IeeeAddress(v)
		c.DestinationIeeeAddress = &ieee
	}
	return c, nil
}

func (c RouteRequest) write(w *wire.Writer) {
	w.PutU8(uint8(c.Options))
	w.PutU8(c.RouteRequestID)
	w.PutU16(uint16(c.DestinationAddress))
	w.PutU8(c.PathCost)
	if c.Options.DestIeee() && c.DestinationIeeeAddress != nil {
		w.PutU64(uint64(*c.DestinationIeeeAddress))
	}
}

// RouteReplyOptions is the 1-byte command options field of RouteReply
// (; grounded on original_source's route_reply.rs).
type RouteReplyOptions uint8

const (
	rrepMaskOriginatorIeee = 0x10
	rrepMaskResponderIeee  = 0x20
	rrepMaskMulticast      = 0x40
)

func (o RouteReplyOptions) OriginatorIeee() bool { return o&rrepMaskOriginatorIeee != 0 }
func (o RouteReplyOptions) ResponderIeee() bool  { return o&rrepMaskResponderIeee != 0 }
func (o RouteReplyOptions) Multicast() bool      { return o&rrepMaskMulticast != 0 }

type RouteReply struct {
	Options               RouteReplyOptions
	RouteRequestID        uint8
	OriginatorAddress     addr.ShortAddress
	ResponderAddress      addr.ShortAddress
	PathCost              uint8
	OriginatorIeeeAddress *addr.IeeeAddress
	ResponderIeeeAddress  *addr.IeeeAddress
}

func (RouteReply) ID() CommandID { return CommandRouteReply }

func readRouteReply(r *wire.Reader) (Command, error) {
	var c RouteReply
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.Options = RouteReplyOptions(opt)
	if c.RouteRequestID, err = r.U8(); err != nil {
		return nil, err
	}
	orig, err := r.U16()
	if err != nil {
		return nil, err
	}
	c.OriginatorAddress = addr.ShortAddress(orig)
	resp, err := r.U16()
	if err != nil {
		return nil, err
	}
	c.ResponderAddress = addr.ShortAddress(resp)
	if c.PathCost, err = r.U8(); err != nil {
		return nil, err
	}
	if c.Options.OriginatorIeee() {
		v, err := r.U64()
		if err != nil {
			return nil, err
		}
		ieee := addr.IeeeAddress(v)
		c.OriginatorIeeeAddress = &ieee
	}
	if c.Options.ResponderIeee() {
		v, err := r.U64()
		if err != nil {
			return nil, err
		}
		ieee := addr.IeeeAddress(v)
		c.ResponderIeeeAddress = &ieee
	}
	return c, nil
}

func (c RouteReply) write(w *wire.Writer) {
	w.PutU8(uint8(c.Options))
	w.PutU8(c.RouteRequestID)
	w.PutU16(uint16(c.OriginatorAddress))
	w.PutU16(uint16(c.ResponderAddress))
	w.PutU8(c.PathCost)
	if c.Options.OriginatorIeee() && c.OriginatorIeeeAddress != nil {
		w.PutU64(uint64(*c.OriginatorIeeeAddress))
	}
	if c.Options.ResponderIeee() && c.ResponderIeeeAddress != nil {
		w.PutU64(uint64(*c.ResponderIeeeAddress))
	}
}

// NetworkStatusCode values (3.4.3.3.1, grounded on
// original_source's network_status.rs). Values beyond the last named
// code are Reserved but still carried byte-exact.
type NetworkStatusCode uint8

const (
	StatusNoRouteAvailable        NetworkStatusCode = 0x00
	StatusTreeLinkFailure         NetworkStatusCode = 0x01
	StatusNonTreeLinkFailure      NetworkStatusCode = 0x02
	StatusLowBatteryLevel         NetworkStatusCode = 0x03
	StatusNoRoutingCapacity       NetworkStatusCode = 0x04
	StatusNoIndirectCapacity      NetworkStatusCode = 0x05
	StatusIndirectTransactionExpiry NetworkStatusCode = 0x06
	StatusTargetDeviceUnavailable NetworkStatusCode = 0x07
	StatusTargetAddressUnallocated NetworkStatusCode = 0x08
	StatusParentLinkFailure       NetworkStatusCode = 0x09
	StatusValidateRoute           NetworkStatusCode = 0x0A
	StatusSourceRouteFailure      NetworkStatusCode = 0x0B
	StatusManyToOneRouteFailure   NetworkStatusCode = 0x0C
	StatusAddressConflict         NetworkStatusCode = 0x0D
	StatusVerifyAddresses         NetworkStatusCode = 0x0E
	StatusPanIdentifierUpdate     NetworkStatusCode = 0x0F
	StatusNetworkAddressUpdate    NetworkStatusCode = 0x10
	StatusBadFrameCounter         NetworkStatusCode = 0x11
	StatusBadKeySequenceNumber    NetworkStatusCode = 0x12
)

type NetworkStatus struct {
	StatusCode          NetworkStatusCode
	DestinationAddress  addr.ShortAddress
}

func (NetworkStatus) ID() CommandID { return CommandNetworkStatus }

func readNetworkStatus(r *wire.Reader) (Command, error) {
	var c NetworkStatus
	code, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.StatusCode = NetworkStatusCode(code)
	dst, err := r.U16()
	if err != nil {
		return nil, err
	}
	c.DestinationAddress = addr.ShortAddress(dst)
	return c, nil
}

func (c NetworkStatus) write(w *wire.Writer) {
	w.PutU8(uint8(c.StatusCode))
	w.PutU16(uint16(c.DestinationAddress))
}

// LeaveOptions is the 1-byte options field of Leave.
type LeaveOptions uint8

const (
	leaveMaskRejoin         = 0x20
	leaveMaskRequest        = 0x40
	leaveMaskRemoveChildren = 0x80
)

func (o LeaveOptions) Rejoin() bool         { return o&leaveMaskRejoin != 0 }
func (o LeaveOptions) Request() bool        { return o&leaveMaskRequest != 0 }
func (o LeaveOptions) RemoveChildren() bool { return o&leaveMaskRemoveChildren != 0 }

func NewLeaveOptions(rejoin, request, removeChildren bool) LeaveOptions {
	var o LeaveOptions
	if rejoin {
		o |= leaveMaskRejoin
	}
	if request {
		o |= leaveMaskRequest
	}
	if removeChildren {
		o |= leaveMaskRemoveChildren
	}
	return o
}

type Leave struct {
	Options LeaveOptions
}

func (Leave) ID() CommandID { return CommandLeave }

func readLeave(r *wire.Reader) (Command, error) {
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	return Leave{Options: LeaveOptions(opt)}, nil
}

func (c Leave) write(w *wire.Writer) { w.PutU8(uint8(c.Options)) }

// RouteRecord carries the relay list back to the frame's originator so
// it can source-route subsequent frames, grounded on
// original_source's route_record.rs. The relay list is copied into a
// bounded vector rather than borrowed.
type RouteRecord struct {
	RelayList []addr.ShortAddress
}

func (RouteRecord) ID() CommandID { return CommandRouteRecord }

func readRouteRecord(r *wire.Reader) (Command, error) {
	count, err := r.U8()
	if err != nil {
		return nil, err
	}
	relays := make([]addr.ShortAddress, 0, count)
	for i := uint8(0); i < count; i++ {
		v, err := r.U16()
		if err != nil {
			return nil, err
		}
		relays = append(relays, addr.ShortAddress(v))
	}
	return RouteRecord{RelayList: relays}, nil
}

func (c RouteRecord) write(w *wire.Writer) {
	w.PutU8(uint8(len(c.RelayList)))
	for _, relay := range c.RelayList {
		w.PutU16(uint16(relay))
	}
}

// CapabilityInformation is the 1-byte MAC capability field carried in
// RejoinRequest and association requests (; grounded on
// original_source's rejoin_request.rs).
type CapabilityInformation uint8

const (
	capMaskDeviceType          = 0x02
	capMaskPowerSource         = 0x04
	capMaskReceiverOnWhenIdle  = 0x08
	capMaskAllocateAddress     = 0x80
)

func (c CapabilityInformation) DeviceType() uint8 {
	if c&capMaskDeviceType != 0 {
		return 1
	}
	return 0
}
func (c CapabilityInformation) PowerSource() uint8 {
	if c&capMaskPowerSource != 0 {
		return 1
	}
	return 0
}
func (c CapabilityInformation) ReceiverOnWhenIdle() bool { return c&capMaskReceiverOnWhenIdle != 0 }
func (c CapabilityInformation) AllocateAddress() bool    { return c&capMaskAllocateAddress != 0 }

type RejoinRequest struct {
	Capability CapabilityInformation
}

func (RejoinRequest) ID() CommandID { return CommandRejoinRequest }

func readRejoinRequest(r *wire.Reader) (Command, error) {
	v, err := r.U8()
	if err != nil {
		return nil, err
	}
	return RejoinRequest{Capability: CapabilityInformation(v)}, nil
}

func (c RejoinRequest) write(w *wire.Writer) { w.PutU8(uint8(c.Capability)) }

type RejoinResponse struct {
	NetworkAddress addr.ShortAddress
	Status         uint8
}

func (RejoinResponse) ID() CommandID { return CommandRejoinResponse }

func readRejoinResponse(r *wire.Reader) (Command, error) {
	addrv, err := r.U16()
	if err != nil {
		return nil, err
	}
	status, err := r.U8()
	if err != nil {
		return nil, err
	}
	return RejoinResponse{NetworkAddress: addr.ShortAddress(addrv), Status: status}, nil
}

func (c RejoinResponse) write(w *wire.Writer) {
	w.PutU16(uint16(c.NetworkAddress))
	w.PutU8(c.Status)
}

// LinkStatusEntry packs incoming/outgoing cost into a single byte (real
// Zigbee wire layout): incoming cost in bits 0-2, outgoing cost in bits
// 4-6.
type LinkStatusEntry struct {
	Address      addr.ShortAddress
	IncomingCost uint8
	OutgoingCost uint8
}

type LinkStatus struct {
	FirstFrame bool
	LastFrame  bool
	Entries    []LinkStatusEntry
}

func (LinkStatus) ID() CommandID { return CommandLinkStatus }

func readLinkStatus(r *wire.Reader) (Command, error) {
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	count := opt & 0x1F
	c := LinkStatus{
		FirstFrame: opt&0x20 != 0,
		LastFrame:  opt&0x40 != 0,
	}
	for i := uint8(0); i < count; i++ {
		addrv, err := r.U16()
		if err != nil {
			return nil, err
		}
		cost, err := r.U8()
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, LinkStatusEntry{
			Address:      addr.ShortAddress(addrv),
			IncomingCost: cost & 0x07,
			OutgoingCost: (cost >> 4) & 0x07,
		})
	}
	return c, nil
}

func (c LinkStatus) write(w *wire.Writer) {
	opt := uint8(len(c.Entries)) & 0x1F
	if c.FirstFrame {
		opt |= 0x20
	}
	if c.LastFrame {
		opt |= 0x40
	}
	w.PutU8(opt)
	for _, e := range c.Entries {
		w.PutU16(uint16(e.Address))
		w.PutU8((e.IncomingCost & 0x07) | ((e.OutgoingCost & 0x07) << 4))
	}
}

// NetworkReportType distinguishes the single report type the core
// supports: a PAN id conflict report, carrying the conflicting PAN ids
// observed (real Zigbee wire semantics; original_source's stub carried a
// placeholder device list instead).
type NetworkReportType uint8

const NetworkReportPanIdConflict NetworkReportType = 0

type NetworkReport struct {
	ReportType    NetworkReportType
	EPID          addr.ExtendedPanId
	ConflictPanIDs []addr.PanId
}

func (NetworkReport) ID() CommandID { return CommandNetworkReport }

func readNetworkReport(r *wire.Reader) (Command, error) {
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	count := opt & 0x1F
	reportType := NetworkReportType((opt >> 5) & 0x07)
	epid, err := r.U64()
	if err != nil {
		return nil, err
	}
	c := NetworkReport{ReportType: reportType, EPID: addr.ExtendedPanId(epid)}
	for i := uint8(0); i < count; i++ {
		v, err := r.U16()
		if err != nil {
			return nil, err
		}
		c.ConflictPanIDs = append(c.ConflictPanIDs, addr.PanId(v))
	}
	return c, nil
}

func (c NetworkReport) write(w *wire.Writer) {
	opt := uint8(len(c.ConflictPanIDs))&0x1F | (uint8(c.ReportType)&0x07)<<5
	w.PutU8(opt)
	w.PutU64(uint64(c.EPID))
	for _, p := range c.ConflictPanIDs {
		w.PutU16(uint16(p))
	}
}

// NetworkUpdateType distinguishes the single update type the core
// supports: a PAN id update.
type NetworkUpdateType uint8

const NetworkUpdatePanIdUpdate NetworkUpdateType = 0

type NetworkUpdate struct {
	UpdateType NetworkUpdateType
	EPID       addr.ExtendedPanId
	NewPanID   addr.PanId
}

func (NetworkUpdate) ID() CommandID { return CommandNetworkUpdate }

func readNetworkUpdate(r *wire.Reader) (Command, error) {
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	updateType := NetworkUpdateType((opt >> 5) & 0x07)
	epid, err := r.U64()
	if err != nil {
		return nil, err
	}
	panID, err := r.U16()
	if err != nil {
		return nil, err
	}
	return NetworkUpdate{UpdateType: updateType, EPID: addr.ExtendedPanId(epid), NewPanID: addr.PanId(panID)}, nil
}

func (c NetworkUpdate) write(w *wire.Writer) {
	w.PutU8((uint8(c.UpdateType) & 0x07) << 5)
	w.PutU64(uint64(c.EPID))
	w.PutU16(uint16(c.NewPanID))
}

type EndDeviceTimeoutRequest struct {
	RequestedTimeoutIndex uint8
	ConfigurationOptions  uint8
}

func (EndDeviceTimeoutRequest) ID() CommandID { return CommandEndDeviceTimeoutRequest }

func readEndDeviceTimeoutRequest(r *wire.Reader) (Command, error) {
	idx, err := r.U8()
	if err != nil {
		return nil, err
	}
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	return EndDeviceTimeoutRequest{RequestedTimeoutIndex: idx, ConfigurationOptions: opt}, nil
}

func (c EndDeviceTimeoutRequest) write(w *wire.Writer) {
	w.PutU8(c.RequestedTimeoutIndex)
	w.PutU8(c.ConfigurationOptions)
}

type EndDeviceTimeoutResponse struct {
	Status                   uint8
	MacDataPollKeepalive     bool
	EndDeviceTimeoutKeepalive bool
}

func (EndDeviceTimeoutResponse) ID() CommandID { return CommandEndDeviceTimeoutResponse }

func readEndDeviceTimeoutResponse(r *wire.Reader) (Command, error) {
	status, err := r.U8()
	if err != nil {
		return nil, err
	}
	parentInfo, err := r.U8()
	if err != nil {
		return nil, err
	}
	return EndDeviceTimeoutResponse{
		Status:                    status,
		MacDataPollKeepalive:      parentInfo&0x01 != 0,
		EndDeviceTimeoutKeepalive: parentInfo&0x02 != 0,
	}, nil
}

func (c EndDeviceTimeoutResponse) write(w *wire.Writer) {
	w.PutU8(c.Status)
	var parentInfo uint8
	if c.MacDataPollKeepalive {
		parentInfo |= 0x01
	}
	if c.EndDeviceTimeoutKeepalive {
		parentInfo |= 0x02
	}
	w.PutU8(parentInfo)
}

// LinkPowerDeltaType distinguishes Notification/Request/Response.
type LinkPowerDeltaType uint8

const (
	LinkPowerDeltaNotification LinkPowerDeltaType = 0
	LinkPowerDeltaRequest      LinkPowerDeltaType = 1
	LinkPowerDeltaResponse     LinkPowerDeltaType = 2
)

type LinkPowerDeltaEntry struct {
	Address    addr.ShortAddress
	PowerDelta int8
}

type LinkPowerDelta struct {
	Type    LinkPowerDeltaType
	Entries []LinkPowerDeltaEntry
}

func (LinkPowerDelta) ID() CommandID { return CommandLinkPowerDelta }

func readLinkPowerDelta(r *wire.Reader) (Command, error) {
	opt, err := r.U8()
	if err != nil {
		return nil, err
	}
	c := LinkPowerDelta{Type: LinkPowerDeltaType(opt & 0x03)}
	count, err := r.U8()
	if err != nil {
		return nil, err
	}
	for i := uint8(0); i < count; i++ {
		addrv, err := r.U16()
		if err != nil {
			return nil, err
		}
		delta, err := r.U8()
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, LinkPowerDeltaEntry{Address: addr.ShortAddress(addrv), PowerDelta: int8(delta)})
	}
	return c, nil
}

func (c LinkPowerDelta) write(w *wire.Writer) {
	w.PutU8(uint8(c.Type) & 0x03)
	w.PutU8(uint8(len(c.Entries)))
	for _, e := range c.Entries {
		w.PutU16(uint16(e.Address))
		w.PutU8(uint8(e.PowerDelta))
	}
}
