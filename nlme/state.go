// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package nlme implements the NWK layer management entity:
// network discovery, join/rejoin, neighbor and route table maintenance,
// and the device's top-level join state machine. It drives a mlme.Mlme
// for radio access and an nib.NIB for persistent state, the same
// "capability in, IB state out" shape the security engine uses.
package nlme

import (
	"errors"
	"fmt"
)

// State is one state of the device's join state machine.
type State uint8

const (
	Idle State = iota
	Scanning
	Joining
	Joined
	Leaving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Scanning:
		return "Scanning"
	case Joining:
		return "Joining"
	case Joined:
		return "Joined"
	case Leaving:
		return "Leaving"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ErrInvalidTransition is returned by StateMachine.transition when the
// current state does not permit the requested move.
var ErrInvalidTransition = errors.New("nlme: invalid state transition")

// StateMachine tracks the device's current join state and enforces its
// transition table. It carries no other state; callers hold their own
// NIB/radio references.
type StateMachine struct {
	state State
}

// NewStateMachine returns a StateMachine starting in Idle.
func NewStateMachine() *StateMachine { return &StateMachine{state: Idle} }

// Current returns the state machine's current state.
func (m *StateMachine) Current() State { return m.state }

// transition moves from one of the allowed "from" states to "to",
// returning ErrInvalidTransition if the current state isn't among them.
func (m *StateMachine) transition(to State, from ...State) error {
	for _, f := range from {
		if m.state == f {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}

func (m *StateMachine) beginScan() error    { return m.transition(Scanning, Idle) }
func (m *StateMachine) endScan() error      { return m.transition(Idle, Scanning) }
func (m *StateMachine) beginJoin() error    { return m.transition(Joining, Idle) }
func (m *StateMachine) joinSucceeded() error { return m.transition(Joined, Joining) }
func (m *StateMachine) joinFailed() error   { return m.transition(Idle, Joining) }
func (m *StateMachine) beginLeave() error   { return m.transition(Leaving, Joined) }
func (m *StateMachine) leaveComplete() error { return m.transition(Idle, Leaving) }

// Reset forces the state machine back to Idle regardless of its current
// state, the same state a stack reset returns to.
func (m *StateMachine) Reset() { m.state = Idle }
