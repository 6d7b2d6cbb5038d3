// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import (
	"encoding/binary"
	"math"
)

// MeasuredFloat is the M_ME_NC_1 information element: an IEEE-754
// single precision value plus a 5-bit quality descriptor. See
// companion standard 101, subclass 7.3.1.13.
type MeasuredFloat struct {
	Value   float32
	Quality byte // bits 0..4, so in [0, 0x1F]
}

const measuredFloatQualityMax = 0x1f

func registerMeasuredFloat() {
	RegisterType(MMeNc1, 5, true, encodeMeasuredFloat, decodeMeasuredFloat)
}

func encodeMeasuredFloat(e interface{}) ([]byte, error) {
	mv, ok := e.(MeasuredFloat)
	if !ok {
		return nil, ErrParam
	}
	if mv.Quality > measuredFloatQualityMax {
		return nil, ErrQuality
	}
	b := make([]byte, 5)
	binary.LittleEndian.PutUint32(b, math.Float32bits(mv.Value))
	b[4] = mv.Quality
	return b, nil
}

func decodeMeasuredFloat(b []byte) (interface{}, error) {
	if len(b) < 5 {
		return nil, ErrShortHeader
	}
	return MeasuredFloat{
		Value:   math.Float32frombits(binary.LittleEndian.Uint32(b)),
		Quality: b[4] & 0x1f,
	}, nil
}
