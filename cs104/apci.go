// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import "fmt"

// startOctet begins every APCI frame on the wire.
const startOctet byte = 0x68

// ctrlFieldSize is the fixed size of the control field (bytes 2..5).
const ctrlFieldSize = 4

// apduSizeMax is the largest legal APDU: start + length + control field + ASDU.
const apduSizeMax = 255

// apduLenMax is the largest legal declared length (control field + ASDU).
const apduLenMax = 253

// U-frame function octets, the six recognized combinations of the two
// control-field discriminator bits plus one set bit per sub-type. See
// companion standard 104, subclass 5.5.
const (
	uStartDtActive  byte = 0x07
	uStartDtConfirm byte = 0x0b
	uStopDtActive   byte = 0x13
	uStopDtConfirm  byte = 0x23
	uTestFrActive   byte = 0x43
	uTestFrConfirm  byte = 0x83
)

// iFrame carries numbered application data: one ASDU plus the sender's
// and receiver's sequence counters.
type iFrame struct {
	sendSeq uint16
	recvSeq uint16
	asdu    []byte
}

func (f iFrame) String() string {
	return fmt.Sprintf("I[N(S)=%d, N(R)=%d, len=%d]", f.sendSeq, f.recvSeq, len(f.asdu))
}

// sFrame acknowledges inbound I-frames without carrying data of its own.
type sFrame struct {
	recvSeq uint16
}

func (f sFrame) String() string {
	return fmt.Sprintf("S[N(R)=%d]", f.recvSeq)
}

// uFrame carries one of the six STARTDT/STOPDT/TESTFR control functions.
type uFrame struct {
	function byte
}

func (f uFrame) String() string {
	switch f.function {
	case uStartDtActive:
		return "U[STARTDT_ACT]"
	case uStartDtConfirm:
		return "U[STARTDT_CON]"
	case uStopDtActive:
		return "U[STOPDT_ACT]"
	case uStopDtConfirm:
		return "U[STOPDT_CON]"
	case uTestFrActive:
		return "U[TESTFR_ACT]"
	case uTestFrConfirm:
		return "U[TESTFR_CON]"
	default:
		return fmt.Sprintf("U[0x%02x]", f.function)
	}
}

// encodeIFrame builds the wire bytes for an I-frame carrying asduBytes.
func encodeIFrame(sendSeq, recvSeq uint16, asduBytes []byte) ([]byte, error) {
	length := ctrlFieldSize + len(asduBytes)
	if length > apduLenMax {
		return nil, ErrFrameLength
	}
	b := make([]byte, 2+length)
	b[0] = startOctet
	b[1] = byte(length)
	b[2], b[3] = packSeq(sendSeq)
	b[4], b[5] = packSeq(recvSeq)
	copy(b[6:], asduBytes)
	return b, nil
}

// encodeSFrame builds the wire bytes for an S-frame acknowledging recvSeq.
func encodeSFrame(recvSeq uint16) []byte {
	low, high := packSeq(recvSeq)
	return []byte{startOctet, ctrlFieldSize, 0x01, 0x00, low, high}
}

// encodeUFrame builds the wire bytes for a U-frame carrying function.
func encodeUFrame(function byte) []byte {
	return []byte{startOctet, ctrlFieldSize, function, 0x00, 0x00, 0x00}
}

// decodeHeader reads the start octet and declared length from the front
// of b, which must be at least 2 bytes long.
func decodeHeader(b []byte) (length int, err error) {
	if b[0] != startOctet {
		return 0, ErrInvalidStartOctet
	}
	length = int(b[1])
	if length < ctrlFieldSize || length > apduLenMax {
		return 0, ErrFrameLength
	}
	return length, nil
}

// decodeFrame parses one complete APDU (start octet through the end of
// its payload, exactly 2+length bytes) into an iFrame, sFrame, or uFrame,
// per spec §4.2 step 2.
func decodeFrame(apdu []byte) (interface{}, error) {
	ctrl := apdu[2:6]
	payload := apdu[6:]

	switch {
	case ctrl[0]&0x01 == 0:
		sendSeq, err := unpackSeq(ctrl[0], ctrl[1])
		if err != nil {
			return nil, err
		}
		recvSeq, err := unpackSeq(ctrl[2], ctrl[3])
		if err != nil {
			return nil, err
		}
		return iFrame{sendSeq: sendSeq, recvSeq: recvSeq, asdu: payload}, nil

	case ctrl[0]&0x03 == 0x01:
		if ctrl[1] != 0 {
			return nil, ErrTruncatedFrame
		}
		if len(payload) != 0 {
			return nil, ErrPayloadNotEmpty
		}
		recvSeq, err := unpackSeq(ctrl[2], ctrl[3])
		if err != nil {
			return nil, err
		}
		return sFrame{recvSeq: recvSeq}, nil

	case ctrl[0]&0x03 == 0x03:
		if ctrl[1] != 0 || ctrl[2] != 0 || ctrl[3] != 0 {
			return nil, ErrTruncatedFrame
		}
		if len(payload) != 0 {
			return nil, ErrPayloadNotEmpty
		}
		switch ctrl[0] {
		case uStartDtActive, uStartDtConfirm, uStopDtActive, uStopDtConfirm, uTestFrActive, uTestFrConfirm:
			return uFrame{function: ctrl[0]}, nil
		default:
			return nil, ErrUnknownUFunction
		}

	default:
		return nil, ErrUnknownUFunction
	}
}
