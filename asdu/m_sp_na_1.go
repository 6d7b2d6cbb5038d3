// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

// SinglePoint is the M_SP_NA_1 information element: a boolean status
// plus a 4-bit quality descriptor. See companion standard 101,
// subclass 7.3.1.1.
type SinglePoint struct {
	Value   bool
	Quality byte // bits 1..4 of the wire octet, so the value itself is in [0, 0x1E]
}

// singlePointQualityMax is the largest legal SinglePoint.Quality value (spec §8).
const singlePointQualityMax = 0x1e

func registerSinglePoint() {
	RegisterType(MSpNa1, 1, true, encodeSinglePoint, decodeSinglePoint)
}

func encodeSinglePoint(e interface{}) ([]byte, error) {
	sp, ok := e.(SinglePoint)
	if !ok {
		return nil, ErrParam
	}
	if sp.Quality > singlePointQualityMax || sp.Quality&0x01 != 0 {
		return nil, ErrQuality
	}
	b := sp.Quality
	if sp.Value {
		b |= 0x01
	}
	return []byte{b}, nil
}

func decodeSinglePoint(b []byte) (interface{}, error) {
	if len(b) < 1 {
		return nil, ErrShortHeader
	}
	return SinglePoint{
		Value:   b[0]&0x01 != 0,
		Quality: b[0] & 0x1e,
	}, nil
}
