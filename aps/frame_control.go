// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package aps implements the Application Support sub-layer's on-air
// frame format: frame control, header, the APS commands used by key
// transport/binding, and the Data/Command/Ack frame variants. It
// mirrors the nwk package's layout one layer up the stack.
package aps

// FrameType is the 2-bit frame_type sub-field of FrameControl.
type FrameType uint8

const (
	FrameTypeData     FrameType = 0
	FrameTypeCommand  FrameType = 1
	FrameTypeAck      FrameType = 2
	FrameTypeInterPan FrameType = 3
)

// DeliveryMode is the 2-bit delivery_mode sub-field.
type DeliveryMode uint8

const (
	DeliveryModeUnicast  DeliveryMode = 0
	DeliveryModeReserved DeliveryMode = 1
	DeliveryModeBroadcast DeliveryMode = 2
	DeliveryModeGroup    DeliveryMode = 3
)

// FrameControl is the 1-byte APS frame control field. Bit
// offsets: frame_type 0..2, delivery_mode 2..4, ack_format 4, security
// 5, ack_request 6, extended_header 7.
type FrameControl uint8

const (
	fcMaskFrameType      = 0x03
	fcMaskDeliveryMode   = 0x0C
	fcShiftDeliveryMode  = 2
	fcMaskAckFormat      = 0x10
	fcMaskSecurity       = 0x20
	fcMaskAckRequest     = 0x40
	fcMaskExtendedHeader = 0x80
)

func (fc FrameControl) FrameType() FrameType { return FrameType(fc & fcMaskFrameType) }

func (fc FrameControl) DeliveryMode() DeliveryMode {
	return DeliveryMode((fc & fcMaskDeliveryMode) >> fcShiftDeliveryMode)
}

func (fc FrameControl) AckFormat() bool      { return fc&fcMaskAckFormat != 0 }
func (fc FrameControl) Security() bool       { return fc&fcMaskSecurity != 0 }
func (fc FrameControl) AckRequest() bool     { return fc&fcMaskAckRequest != 0 }
func (fc FrameControl) ExtendedHeader() bool { return fc&fcMaskExtendedHeader != 0 }

// HasDestEndpoint reports whether the destination endpoint field is
// present: iff ack_format is clear, frame_type is Data or Ack, and
// delivery_mode is not group addressing -- a group frame is delivered to
// every endpoint subscribed to the group, so it carries no single
// destination endpoint (APS header table).
func (fc FrameControl) HasDestEndpoint() bool {
	if fc.AckFormat() || fc.DeliveryMode() == DeliveryModeGroup {
		return false
	}
	ft := fc.FrameType()
	return ft == FrameTypeData || ft == FrameTypeAck
}

// HasClusterProfile reports whether cluster id and profile id are
// present: Data and Ack frames only.
func (fc FrameControl) HasClusterProfile() bool {
	ft := fc.FrameType()
	return ft == FrameTypeData || ft == FrameTypeAck
}

// NewFrameControl builds a FrameControl from its sub-fields.
func NewFrameControl(ft FrameType, dm DeliveryMode, ackFormat, security, ackRequest, extendedHeader bool) FrameControl {
	var fc FrameControl
	fc |= FrameControl(ft) & fcMaskFrameType
	fc |= FrameControl(dm) << fcShiftDeliveryMode & fcMaskDeliveryMode
	fc |= boolBit(ackFormat, fcMaskAckFormat)
	fc |= boolBit(security, fcMaskSecurity)
	fc |= boolBit(ackRequest, fcMaskAckRequest)
	fc |= boolBit(extendedHeader, fcMaskExtendedHeader)
	return fc
}

func boolBit(v bool, mask FrameControl) FrameControl {
	if v {
		return mask
	}
	return 0
}

// WithSecurity returns a copy of fc with the security bit set to v.
func (fc FrameControl) WithSecurity(v bool) FrameControl {
	if v {
		return fc | fcMaskSecurity
	}
	return fc &^ fcMaskSecurity
}
