// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy laid out in spec §7. Every one of
// these is fatal to the session unless the doc comment says otherwise.
var (
	ErrInvalidStartOctet = errors.New("cs104: invalid APCI start octet")
	ErrFrameLength       = errors.New("cs104: declared APDU length out of range")
	ErrTruncatedFrame    = errors.New("cs104: truncated control field")
	ErrReservedBit       = errors.New("cs104: reserved sequence bit set")
	ErrUnknownUFunction  = errors.New("cs104: unrecognized U-frame function")
	ErrPayloadNotEmpty   = errors.New("cs104: S/U-frame carries a payload")
	ErrBufferOverflow    = errors.New("cs104: streaming decoder buffer capacity exceeded")

	// ErrSessionClosed is returned to callers of Send/Recv after the
	// session has transitioned to STOPPED or CLOSED (Recv, and a Send
	// already waiting, report the recorded fatal cause instead when there
	// is one). Close always returns nil.
	ErrSessionClosed = errors.New("cs104: session is closed")

	// ErrNotRunning is returned when Send is attempted before the
	// handshake has completed.
	ErrNotRunning = errors.New("cs104: session is not in RUNNING state")

	// ErrPolicyRejected names a connection policy denial. The server's
	// accept loop does not return it: a rejected connection is closed,
	// accepting continues, and the remote peer is sent nothing.
	ErrPolicyRejected = errors.New("cs104: connection policy rejected peer")

	// ErrInterrogationTimeout is the domain-level timeout for the
	// composite general-interrogation operation, distinct from T0/T1.
	ErrInterrogationTimeout = errors.New("cs104: general interrogation timed out")

	// ErrUnexpectedASDU is raised by the general-interrogation helper on
	// wrong cause, wrong qualifier, negative confirm, or unexpected type.
	ErrUnexpectedASDU = errors.New("cs104: unexpected response ASDU")

	// ErrServerClosed is returned by ListenAndServe after Close/Shutdown
	// has stopped the listener deliberately.
	ErrServerClosed = errors.New("cs104: server closed")
)

// SequenceError reports an inbound N(S)/N(R) that violates the session's
// ordering invariants (spec §4.6 "I-frame receive" step 1, and the
// acknowledgement-of-unsent-frame case).
type SequenceError struct {
	Expected uint16
	Got      uint16
	Inbound  bool // true for N(S) mismatch, false for an N(R) acking an unsent frame
}

func (e *SequenceError) Error() string {
	if e.Inbound {
		return fmt.Sprintf("cs104: inbound N(S)=%d, expected V(R)=%d", e.Got, e.Expected)
	}
	return fmt.Sprintf("cs104: inbound N(R)=%d acknowledges frame beyond V(S)=%d", e.Got, e.Expected)
}

// HandshakeError reports a failure to complete the STARTDT handshake. The
// session raises it only when T0 expires before STARTDT_CON arrives;
// U-frames arriving during the handshake are handled as in the RUNNING
// state and never produce one, and neither does STOPDT.
type HandshakeError struct {
	Phase string
	Cause error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("cs104: handshake failed in phase %s: %v", e.Phase, e.Cause)
}

func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// ErrT0Expired / ErrT1Expired are the underlying causes wrapped by
// HandshakeError / a session-level timeout close respectively.
var (
	ErrT0Expired = errors.New("cs104: T0 (connection establishment) timer expired")
	ErrT1Expired = errors.New("cs104: T1 (acknowledgement) timer expired")
)
