// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

// SingleCommand is the C_SC_NA_1 information element: bit 0 = state,
// bits 1..6 = qualifier of command, bit 7 = select/execute. SQ=1 is
// rejected for this type (spec §4.3). See companion standard 101,
// subclass 7.3.2.1.
type SingleCommand struct {
	Value     bool
	Qualifier byte // bits 1..6, so in [0, 0x3F]
	Select    bool
}

const commandQualifierMax = 0x3f

func registerSingleCommand() {
	RegisterType(CScNa1, 1, false, encodeSingleCommand, decodeSingleCommand)
}

func encodeSingleCommand(e interface{}) ([]byte, error) {
	sc, ok := e.(SingleCommand)
	if !ok {
		return nil, ErrParam
	}
	if sc.Qualifier > commandQualifierMax {
		return nil, ErrQuality
	}
	b := sc.Qualifier << 1
	if sc.Value {
		b |= 0x01
	}
	if sc.Select {
		b |= 0x80
	}
	return []byte{b}, nil
}

func decodeSingleCommand(b []byte) (interface{}, error) {
	if len(b) < 1 {
		return nil, ErrShortHeader
	}
	return SingleCommand{
		Value:     b[0]&0x01 != 0,
		Qualifier: (b[0] >> 1) & 0x3f,
		Select:    b[0]&0x80 != 0,
	}, nil
}
