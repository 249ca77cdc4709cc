// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package aps

import (
	"fmt"

	"zigbeecore/wire"
)

// Payload is the per-frame-type body of a Frame: DataPayload for Data,
// CommandPayload for Command, AckPayload for Ack.
type Payload interface {
	isPayload()
}

// DataPayload carries an application-layer ASDU.
type DataPayload struct {
	Asdu []byte
}

func (DataPayload) isPayload() {}

// CommandPayload carries one parsed APS command.
type CommandPayload struct {
	Command Command
}

func (CommandPayload) isPayload() {}

// AckPayload is the empty body of an APS acknowledgement frame.
type AckPayload struct{}

func (AckPayload) isPayload() {}

// InterPanPayload carries a raw Inter-PAN APS payload, out of scope for
// this core beyond round-tripping the bytes.
type InterPanPayload struct {
	Raw []byte
}

func (InterPanPayload) isPayload() {}

// Frame is a fully parsed APS frame: header plus the payload variant its
// FrameControl.FrameType selects.
type Frame struct {
	Header  Header
	Payload Payload
}

// FromPayload parses payload according to h.FrameControl.FrameType,
// mirroring nwk.FrameFromPayload one layer up (
// "from_payload(header, bytes)").
func FromPayload(h Header, payload []byte) (Frame, error) {
	switch h.FrameControl.FrameType() {
	case FrameTypeData:
		return Frame{Header: h, Payload: DataPayload{Asdu: payload}}, nil
	case FrameTypeCommand:
		cmd, err := ParseCommand(wire.NewReader(payload))
		if err != nil {
			return Frame{}, err
		}
		return Frame{Header: h, Payload: CommandPayload{Command: cmd}}, nil
	case FrameTypeAck:
		return Frame{Header: h, Payload: AckPayload{}}, nil
	case FrameTypeInterPan:
		return Frame{Header: h, Payload: InterPanPayload{Raw: payload}}, nil
	default:
		return Frame{}, fmt.Errorf("%w: aps frame type %d", wire.ErrBadInput, h.FrameControl.FrameType())
	}
}

// WritePayload serializes f.Payload's body (not the header).
func (f Frame) WritePayload(w *wire.Writer) {
	switch p := f.Payload.(type) {
	case DataPayload:
		w.PutBytes(p.Asdu)
	case CommandPayload:
		WriteCommand(w, p.Command)
	case AckPayload:
	case InterPanPayload:
		w.PutBytes(p.Raw)
	}
}
