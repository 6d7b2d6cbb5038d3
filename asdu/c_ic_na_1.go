// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

// QualifierOfInterrogation is the qualifier octet of C_IC_NA_1. 20
// requests a general (station) interrogation; 21..36 request group
// 1..16 interrogations.
type QualifierOfInterrogation byte

// QOIStation requests a general interrogation of the whole station.
const QOIStation QualifierOfInterrogation = 20

// Interrogation is the C_IC_NA_1 information element: a single
// qualifier octet. SQ=1 is rejected for this type (spec §4.3). See
// companion standard 101, subclass 7.3.4.1.
type Interrogation struct {
	Qualifier QualifierOfInterrogation
}

func registerInterrogation() {
	RegisterType(CIcNa1, 1, false, encodeInterrogation, decodeInterrogation)
}

func encodeInterrogation(e interface{}) ([]byte, error) {
	ic, ok := e.(Interrogation)
	if !ok {
		return nil, ErrParam
	}
	return []byte{byte(ic.Qualifier)}, nil
}

func decodeInterrogation(b []byte) (interface{}, error) {
	if len(b) < 1 {
		return nil, ErrShortHeader
	}
	return Interrogation{Qualifier: QualifierOfInterrogation(b[0])}, nil
}
