/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the top-level DecodeError taxonomy that aggregates
  failures from every stage of the decode pipeline, and the Cancelled
  sentinel for caller-initiated cancellation.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ultrasonic

import (
	"context"
	"errors"
	"fmt"

	"github.com/ausocean/ultrasonic/cipher"
	"github.com/ausocean/ultrasonic/frame"
	"github.com/ausocean/ultrasonic/modem"
)

// DecodeKind distinguishes why Decode failed.
type DecodeKind int

const (
	NoSignal DecodeKind = iota
	NoPreamble
	DeframeFailed
	AuthFailed
	BadUTF8
)

func (k DecodeKind) String() string {
	switch k {
	case NoSignal:
		return "NoSignal"
	case NoPreamble:
		return "NoPreamble"
	case DeframeFailed:
		return "DeframeFailed"
	case AuthFailed:
		return "AuthFailed"
	case BadUTF8:
		return "BadUtf8"
	default:
		return "Unknown"
	}
}

// DecodeError aggregates a lower-level failure (from modem, frame or
// cipher) into the top-level taxonomy described in spec.md §7, preserving
// the leaf cause via Unwrap.
type DecodeError struct {
	Kind  DecodeKind
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ultrasonic: decode: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("ultrasonic: decode: %s", e.Kind)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Cancelled is returned when a caller-supplied context is cancelled
// during a long-running Decode call.
var Cancelled = errors.New("ultrasonic: cancelled")

// classifyDecodeErr wraps a lower-stage error into a *DecodeError of the
// appropriate kind, or returns Cancelled unwrapped if err is a context
// cancellation.
func classifyDecodeErr(err error) error {
	if err == nil {
		return nil
	}

	var modemErr *modem.Error
	if errors.As(err, &modemErr) {
		switch modemErr.Kind {
		case modem.BelowThreshold:
			return &DecodeError{Kind: NoSignal, Cause: err}
		case modem.NoPreamble:
			return &DecodeError{Kind: NoPreamble, Cause: err}
		}
	}

	var frameErr *frame.Error
	if errors.As(err, &frameErr) {
		return &DecodeError{Kind: DeframeFailed, Cause: err}
	}

	var authErr *cipher.AuthError
	if errors.As(err, &authErr) {
		return &DecodeError{Kind: AuthFailed, Cause: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}

	return &DecodeError{Kind: DeframeFailed, Cause: err}
}
