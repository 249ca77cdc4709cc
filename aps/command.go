// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package aps

import (
	"fmt"

	"zigbeecore/addr"
	"zigbeecore/wire"
)

// CommandID is the 1-byte APS command discriminant.
type CommandID uint8

// The subset of APS commands the core requires.
const (
	CommandTransportKey CommandID = 0x05
	CommandUpdateDevice  CommandID = 0x06
	CommandRemoveDevice  CommandID = 0x07
	CommandRequestKey    CommandID = 0x08
	CommandSwitchKey     CommandID = 0x09
	CommandTunnel        CommandID = 0x0E
	CommandVerifyKey     CommandID = 0x0F
	CommandConfirmKey    CommandID = 0x10
)

// Command is the common interface for parsed APS command payloads.
type Command interface {
	ID() CommandID
	write(w *wire.Writer)
}

// ParseCommand reads the 1-byte command id then dispatches to the
// matching reader. An unrecognized id is parsed as Reserved, carrying
// the raw tag and remaining bytes, and is dropped at the dispatcher
// (the invariant, tagged-enum fallback).
func ParseCommand(r *wire.Reader) (Command, error) {
	id, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch CommandID(id) {
	case CommandTransportKey:
		return readTransportKey(r)
	case CommandUpdateDevice:
		return readUpdateDevice(r)
	case CommandRemoveDevice:
		return readRemoveDevice(r)
	case CommandRequestKey:
		return readRequestKey(r)
	case CommandSwitchKey:
		return readSwitchKey(r)
	case CommandTunnel:
		return readTunnel(r)
	case CommandVerifyKey:
		return readVerifyKey(r)
	case CommandConfirmKey:
		return readConfirmKey(r)
	default:
		return Reserved{RawTag: id, Payload: r.Rest()}, nil
	}
}

// WriteCommand writes cmd's id byte followed by its body.
func WriteCommand(w *wire.Writer, cmd Command) {
	w.PutU8(uint8(cmd.ID()))
	cmd.write(w)
}

// Reserved absorbs any command id not assigned to a named variant.
type Reserved struct {
	RawTag  byte
	Payload []byte
}

func (r Reserved) ID() CommandID      { return CommandID(r.RawTag) }
func (r Reserved) write(w *wire.Writer) { w.PutBytes(r.Payload) }

// TransportKeyType selects the key-transport payload shape.
type TransportKeyType uint8

const (
	KeyTypeStandardNetworkKey TransportKeyType = 0x01
	KeyTypeApplicationLinkKey TransportKeyType = 0x03
	KeyTypeTrustCenterLinkKey TransportKeyType = 0x04
)

// TransportKey carries key material from the trust center to a device.
// The fields that are meaningful depend on KeyType:
//   - StandardNetworkKey: SeqNo, DestAddress, SourceAddress.
//   - ApplicationLinkKey: DestAddress (the partner device), Initiator.
//   - TrustCenterLinkKey: DestAddress, SourceAddress.
type TransportKey struct {
	KeyType       TransportKeyType
	Key           [16]byte
	SeqNo         uint8
	DestAddress   addr.IeeeAddress
	SourceAddress addr.IeeeAddress
	Initiator     bool
}

func (TransportKey) ID() CommandID { return CommandTransportKey }

func readTransportKey(r *wire.Reader) (Command, error) {
	var c TransportKey
	kt, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.KeyType = TransportKeyType(kt)
	key, err := r.Bytes(16)
	if err != nil {
		return nil, err
	}
	copy(c.Key[:], key)

	switch c.KeyType {
	case KeyTypeStandardNetworkKey:
		c.SeqNo, err = r.U8()
		if err != nil {
			return nil, err
		}
		dest, err := r.U64()
		if err != nil {
			return nil, err
		}
		c.DestAddress = addr.IeeeAddress(dest)
		src, err := r.U64()
		if err != nil {
			return nil, err
		}
		c.SourceAddress = addr.IeeeAddress(src)
	case KeyTypeApplicationLinkKey:
		dest, err := r.U64()
		if err != nil {
			return nil, err
		}
		c.DestAddress = addr.IeeeAddress(dest)
		init, err := r.U8()
		if err != nil {
			return nil, err
		}
		c.Initiator = init != 0
	case KeyTypeTrustCenterLinkKey:
		dest, err := r.U64()
		if err != nil {
			return nil, err
		}
		c.DestAddress = addr.IeeeAddress(dest)
		src, err := r.U64()
		if err != nil {
			return nil, err
		}
		c.SourceAddress = addr.IeeeAddress(src)
	default:
		return nil, fmt.Errorf("%w: transport key type %#x", wire.ErrBadInput, kt)
	}
	return c, nil
}

func (c TransportKey) write(w *wire.Writer) {
	w.PutU8(uint8(c.KeyType))
	w.PutBytes(c.Key[:])
	switch c.KeyType {
	case KeyTypeStandardNetworkKey:
		w.PutU8(c.SeqNo)
		w.PutU64(uint64(c.DestAddress))
		w.PutU64(uint64(c.SourceAddress))
	case KeyTypeApplicationLinkKey:
		w.PutU64(uint64(c.DestAddress))
		if c.Initiator {
			w.PutU8(1)
		} else {
			w.PutU8(0)
		}
	case KeyTypeTrustCenterLinkKey:
		w.PutU64(uint64(c.DestAddress))
		w.PutU64(uint64(c.SourceAddress))
	}
}

// UpdateDeviceStatus values (key-install indications are
// triggered off this).
const (
	UpdateDeviceStatusStandardSecuredRejoin = iota
	UpdateDeviceStatusStandardUnsecuredJoin
	UpdateDeviceStatusLeave
	UpdateDeviceStatusStandardTrustCenterRejoin
)

// UpdateDevice informs the trust center that a device joined, rejoined
// or left, via its parent.
type UpdateDevice struct {
	DeviceAddress      addr.IeeeAddress
	DeviceShortAddress addr.ShortAddress
	Status             uint8
}

func (UpdateDevice) ID() CommandID { return CommandUpdateDevice }

func readUpdateDevice(r *wire.Reader) (Command, error) {
	var c UpdateDevice
	ieee, err := r.U64()
	if err != nil {
		return nil, err
	}
	c.DeviceAddress = addr.IeeeAddress(ieee)
	short, err := r.U16()
	if err != nil {
		return nil, err
	}
	c.DeviceShortAddress = addr.ShortAddress(short)
	c.Status, err = r.U8()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c UpdateDevice) write(w *wire.Writer) {
	w.PutU64(uint64(c.DeviceAddress))
	w.PutU16(uint16(c.DeviceShortAddress))
	w.PutU8(c.Status)
}

// RemoveDevice instructs a router to remove a child device from its
// neighbor/child table.
type RemoveDevice struct {
	TargetAddress addr.IeeeAddress
}

func (RemoveDevice) ID() CommandID { return CommandRemoveDevice }

func readRemoveDevice(r *wire.Reader) (Command, error) {
	ieee, err := r.U64()
	if err != nil {
		return nil, err
	}
	return RemoveDevice{TargetAddress: addr.IeeeAddress(ieee)}, nil
}

func (c RemoveDevice) write(w *wire.Writer) { w.PutU64(uint64(c.TargetAddress)) }

// RequestKeyType selects which key a device is asking the trust center
// to (re)send.
type RequestKeyType uint8

const (
	RequestKeyTypeNetworkKey       RequestKeyType = 0x01
	RequestKeyTypeApplicationLinkKey RequestKeyType = 0x02
)

// RequestKey asks the trust center for fresh key material.
type RequestKey struct {
	KeyType        RequestKeyType
	PartnerAddress addr.IeeeAddress // ApplicationLinkKey only
}

func (RequestKey) ID() CommandID { return CommandRequestKey }

func readRequestKey(r *wire.Reader) (Command, error) {
	var c RequestKey
	kt, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.KeyType = RequestKeyType(kt)
	if c.KeyType == RequestKeyTypeApplicationLinkKey {
		partner, err := r.U64()
		if err != nil {
			return nil, err
		}
		c.PartnerAddress = addr.IeeeAddress(partner)
	}
	return c, nil
}

func (c RequestKey) write(w *wire.Writer) {
	w.PutU8(uint8(c.KeyType))
	if c.KeyType == RequestKeyTypeApplicationLinkKey {
		w.PutU64(uint64(c.PartnerAddress))
	}
}

// SwitchKey tells devices to promote seq_no to the active network key
//.
type SwitchKey struct {
	SeqNo uint8
}

func (SwitchKey) ID() CommandID { return CommandSwitchKey }

func readSwitchKey(r *wire.Reader) (Command, error) {
	seq, err := r.U8()
	if err != nil {
		return nil, err
	}
	return SwitchKey{SeqNo: seq}, nil
}

func (c SwitchKey) write(w *wire.Writer) { w.PutU8(c.SeqNo) }

// Tunnel carries another APS frame end-to-end through an intermediate
// hop that cannot itself decrypt it.
type Tunnel struct {
	DestinationAddress addr.IeeeAddress
	TunneledData        []byte
}

func (Tunnel) ID() CommandID { return CommandTunnel }

func readTunnel(r *wire.Reader) (Command, error) {
	var c Tunnel
	dest, err := r.U64()
	if err != nil {
		return nil, err
	}
	c.DestinationAddress = addr.IeeeAddress(dest)
	c.TunneledData = r.Rest()
	return c, nil
}

func (c Tunnel) write(w *wire.Writer) {
	w.PutU64(uint64(c.DestinationAddress))
	w.PutBytes(c.TunneledData)
}

// VerifyKey asks the recipient to confirm it holds the same link key the
// trust center just installed, by comparing an HMAC-MMO hash of it.
type VerifyKey struct {
	KeyType       TransportKeyType
	SourceAddress addr.IeeeAddress
	KeyHash       [16]byte
}

func (VerifyKey) ID() CommandID { return CommandVerifyKey }

func readVerifyKey(r *wire.Reader) (Command, error) {
	var c VerifyKey
	kt, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.KeyType = TransportKeyType(kt)
	src, err := r.U64()
	if err != nil {
		return nil, err
	}
	c.SourceAddress = addr.IeeeAddress(src)
	hash, err := r.Bytes(16)
	if err != nil {
		return nil, err
	}
	copy(c.KeyHash[:], hash)
	return c, nil
}

func (c VerifyKey) write(w *wire.Writer) {
	w.PutU8(uint8(c.KeyType))
	w.PutU64(uint64(c.SourceAddress))
	w.PutBytes(c.KeyHash[:])
}

// ConfirmKey status values.
const (
	ConfirmKeyStatusSuccess = 0x00
	ConfirmKeyStatusFailure = 0x01
)

// ConfirmKey answers a VerifyKey.
type ConfirmKey struct {
	Status             uint8
	KeyType            TransportKeyType
	DestinationAddress addr.IeeeAddress
}

func (ConfirmKey) ID() CommandID { return CommandConfirmKey }

func readConfirmKey(r *wire.Reader) (Command, error) {
	var c ConfirmKey
	status, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.Status = status
	kt, err := r.U8()
	if err != nil {
		return nil, err
	}
	c.KeyType = TransportKeyType(kt)
	dest, err := r.U64()
	if err != nil {
		return nil, err
	}
	c.DestinationAddress = addr.IeeeAddress(dest)
	return c, nil
}

func (c ConfirmKey) write(w *wire.Writer) {
	w.PutU8(c.Status)
	w.PutU8(uint8(c.KeyType))
	w.PutU64(uint64(c.DestinationAddress))
}
