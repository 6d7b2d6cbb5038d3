// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import (
	"fmt"
	"strings"
)

// Params carries the per-link encoding choices that both sides of a
// session must agree on: spec §6 only allows a single knob, WithOA.
type Params struct {
	// WithOA enables the originator-address octet (spec §6).
	WithOA bool
}

// Identifier is the 6-or-7 octet data unit identification shared by
// every ASDU: type, variable structure qualifier, cause, addresses.
// See spec §4.3.
type Identifier struct {
	Type       TypeID
	Variable   VSQ
	Cause      Cause
	OrigAddr   OriginAddr
	CommonAddr CommonAddr
}

func (id Identifier) String() string {
	if id.OrigAddr == 0 {
		return fmt.Sprintf("%s %s CA=%d", id.Type, id.Cause, id.CommonAddr)
	}
	return fmt.Sprintf("%s %s OA=%d CA=%d", id.Type, id.Cause, id.OrigAddr, id.CommonAddr)
}

// InformationObject is one addressed element within an ASDU: a 3-octet
// IOA and a typed payload produced by the registered element codec for
// the ASDU's type.
type InformationObject struct {
	IOA     InfoObjAddr
	Element interface{}
}

// ASDU (Application Service Data Unit) is one application message: the
// Identifier plus an ordered, immutable tuple of information objects.
type ASDU struct {
	Params
	Identifier
	Objects []InformationObject
}

// NewASDU creates an empty ASDU with the given identifier and params.
func NewASDU(p Params, id Identifier) *ASDU {
	return &ASDU{Params: p, Identifier: id}
}

func (a *ASDU) String() string {
	var b strings.Builder
	b.WriteString(a.Identifier.String())
	fmt.Fprintf(&b, " %s items=%d", a.Variable, len(a.Objects))
	for i, o := range a.Objects {
		if i == 0 {
			b.WriteString(" [")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d=%v", o.IOA, o.Element)
	}
	if len(a.Objects) > 0 {
		b.WriteByte(']')
	}
	return b.String()
}

// headerSize returns the byte length of the data unit identification:
// 1 (type) + 1 (vsq) + 2 (cause) + [1 (oa)] + 2 (common address).
func (p Params) headerSize() int {
	n := 6
	if p.WithOA {
		n++
	}
	return n
}

// MarshalBinary encodes the full ASDU: header followed by information
// objects, packed sequentially (SQ=1, one base IOA) or individually
// (SQ=0, IOA per element) per spec §4.3.
func (a *ASDU) MarshalBinary() ([]byte, error) {
	if a.Cause.Value == 0 {
		return nil, ErrCauseZero
	}
	if a.CommonAddr == InvalidCommonAddr {
		return nil, ErrCommonAddrZero
	}
	if !a.WithOA && a.OrigAddr != 0 {
		return nil, ErrOriginAddrFit
	}
	n := len(a.Objects)
	if n < 1 || n > 127 {
		return nil, ErrInfoObjIndexFit
	}

	codec, ok := lookup(a.Type)
	if !ok {
		return nil, ErrUnsupportedType
	}

	isSequence := a.Variable.IsSequence
	if isSequence && !codec.AllowSQ {
		return nil, ErrSQNotAllowed
	}
	if isSequence {
		for i := 1; i < n; i++ {
			if a.Objects[i].IOA != a.Objects[0].IOA+InfoObjAddr(i) {
				return nil, ErrSequenceNotConsecutive
			}
		}
	}

	header := a.headerSize()
	buf := make([]byte, header, header+3+n*codec.ElementSize)
	buf[0] = byte(a.Type)
	buf[1] = VSQ{IsSequence: isSequence, Number: n}.byte()
	buf[2] = a.Cause.byte()
	// buf[3] is cot_high, left zero.
	offset := 4
	if a.WithOA {
		buf[offset] = byte(a.OrigAddr)
		offset++
	}
	buf[offset] = byte(a.CommonAddr)
	buf[offset+1] = byte(a.CommonAddr >> 8)

	if isSequence {
		buf = appendIOA(buf, a.Objects[0].IOA)
	}
	for _, o := range a.Objects {
		if !isSequence {
			buf = appendIOA(buf, o.IOA)
		}
		eb, err := codec.Encode(o.Element)
		if err != nil {
			return nil, err
		}
		if len(eb) != codec.ElementSize {
			return nil, ErrLengthMismatch
		}
		buf = append(buf, eb...)
	}
	return buf, nil
}

func appendIOA(buf []byte, ioa InfoObjAddr) []byte {
	return append(buf, byte(ioa), byte(ioa>>8), byte(ioa>>16))
}

// UnmarshalBinary decodes raw into an ASDU. Params.WithOA must already
// be set to match what the sender used.
func (a *ASDU) UnmarshalBinary(raw []byte) error {
	header := a.headerSize()
	if len(raw) < header {
		return ErrShortHeader
	}
	a.Type = TypeID(raw[0])
	a.Variable = parseVSQ(raw[1])
	a.Cause = parseCause(raw[2])
	// raw[3] is cot_high and is not interpreted.
	offset := 4
	if a.WithOA {
		a.OrigAddr = OriginAddr(raw[offset])
		offset++
	} else {
		a.OrigAddr = 0
	}
	a.CommonAddr = CommonAddr(raw[offset]) | CommonAddr(raw[offset+1])<<8
	if a.CommonAddr == InvalidCommonAddr {
		return ErrCommonAddrZero
	}

	n := a.Variable.Number
	if n < 1 || n > 127 {
		return ErrInfoObjIndexFit
	}

	codec, ok := lookup(a.Type)
	if !ok {
		return ErrUnsupportedType
	}
	if a.Variable.IsSequence && !codec.AllowSQ {
		return ErrSQNotAllowed
	}

	body := raw[header:]
	var expected int
	if a.Variable.IsSequence {
		expected = 3 + n*codec.ElementSize
	} else {
		expected = n * (3 + codec.ElementSize)
	}
	if len(body) != expected {
		return ErrLengthMismatch
	}

	objs := make([]InformationObject, 0, n)
	if a.Variable.IsSequence {
		base := decodeIOA(body)
		body = body[3:]
		for i := 0; i < n; i++ {
			elem, err := codec.Decode(body[:codec.ElementSize])
			if err != nil {
				return err
			}
			objs = append(objs, InformationObject{IOA: base + InfoObjAddr(i), Element: elem})
			body = body[codec.ElementSize:]
		}
	} else {
		for i := 0; i < n; i++ {
			ioa := decodeIOA(body)
			body = body[3:]
			elem, err := codec.Decode(body[:codec.ElementSize])
			if err != nil {
				return err
			}
			objs = append(objs, InformationObject{IOA: ioa, Element: elem})
			body = body[codec.ElementSize:]
		}
	}
	a.Objects = objs
	return nil
}

func decodeIOA(b []byte) InfoObjAddr {
	return InfoObjAddr(b[0]) | InfoObjAddr(b[1])<<8 | InfoObjAddr(b[2])<<16
}
