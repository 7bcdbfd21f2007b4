/*
NAME
  state.go

DESCRIPTION
  state.go names the demodulator's state machine and failure kinds.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package modem

// State is a stage of the demodulator's pipeline for a single call to
// Demodulate.
type State int

const (
	Idle State = iota
	Filtering
	Searching
	Locked
	Decoded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Filtering:
		return "Filtering"
	case Searching:
		return "Searching"
	case Locked:
		return "Locked"
	case Decoded:
		return "Decoded"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// FailureKind distinguishes why a Demodulate call ended in Failed.
type FailureKind int

const (
	// NoFailure means the call did not fail.
	NoFailure FailureKind = iota
	// BelowThreshold means peak RMS never reached the detection threshold.
	BelowThreshold
	// NoPreamble means no correlation peak cleared the sync threshold.
	NoPreamble
)

func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "NoFailure"
	case BelowThreshold:
		return "BelowThreshold"
	case NoPreamble:
		return "NoPreamble"
	default:
		return "Unknown"
	}
}

// Error reports a demodulation failure, tagged with the State it occurred
// in and the FailureKind.
type Error struct {
	State State
	Kind  FailureKind
}

func (e *Error) Error() string {
	return "modem: " + e.State.String() + ": " + e.Kind.String()
}
