// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package nwk

import (
	"fmt"

	"zigbeecore/wire"
)

// Payload is the per-frame-type body of a Frame: DataPayload for Data,
// CommandPayload for NwkCommand, ReservedPayload and InterPanPayload for
// the remaining two frame types.
type Payload interface {
	isPayload()
}

// DataPayload carries an NWK-layer data PDU (typically an APS frame).
type DataPayload struct {
	Data []byte
}

func (DataPayload) isPayload() {}

// CommandPayload carries one parsed NWK command.
type CommandPayload struct {
	Command Command
}

func (CommandPayload) isPayload() {}

// ReservedPayload carries the raw bytes of the Reserved frame type
// (frame control's frame_type value 2).
type ReservedPayload struct {
	Raw []byte
}

func (ReservedPayload) isPayload() {}

// InterPanPayload carries a raw Inter-PAN NWK payload, out of scope for
// this core beyond round-tripping the bytes.
type InterPanPayload struct {
	Raw []byte
}

func (InterPanPayload) isPayload() {}

// Frame is a fully parsed NWK frame: header plus the payload variant its
// FrameControl.FrameType selects.
type Frame struct {
	Header  Header
	Payload Payload
}

// FromPayload parses payload according to h.FrameControl.FrameType.
func FromPayload(h Header, payload []byte) (Frame, error) {
	switch h.FrameControl.FrameType() {
	case FrameTypeData:
		return Frame{Header: h, Payload: DataPayload{Data: payload}}, nil
	case FrameTypeNwkCommand:
		cmd, err := ParseCommand(wire.NewReader(payload))
		if err != nil {
			return Frame{}, err
		}
		return Frame{Header: h, Payload: CommandPayload{Command: cmd}}, nil
	case FrameTypeReserved:
		return Frame{Header: h, Payload: ReservedPayload{Raw: payload}}, nil
	case FrameTypeInterPan:
		return Frame{Header: h, Payload: InterPanPayload{Raw: payload}}, nil
	default:
		return Frame{}, fmt.Errorf("%w: nwk frame type %d", wire.ErrBadInput, h.FrameControl.FrameType())
	}
}

// WritePayload serializes f.Payload's body (not the header).
func (f Frame) WritePayload(w *wire.Writer) {
	switch p := f.Payload.(type) {
	case DataPayload:
		w.PutBytes(p.Data)
	case CommandPayload:
		WriteCommand(w, p.Command)
	case ReservedPayload:
		w.PutBytes(p.Raw)
	case InterPanPayload:
		w.PutBytes(p.Raw)
	}
}
