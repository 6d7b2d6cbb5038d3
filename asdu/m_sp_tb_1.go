// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

// SinglePointTime is the M_SP_TB_1 information element: a SinglePoint
// value plus a CP56Time2a timestamp. SQ=1 is rejected for this type
// (spec §4.3). See companion standard 101, subclass 7.3.1.22.
type SinglePointTime struct {
	Value   bool
	Quality byte
	Time    CP56Time2a
}

func registerSinglePointTime() {
	RegisterType(MSpTb1, 1+CP56Time2aSize, false, encodeSinglePointTime, decodeSinglePointTime)
}

func encodeSinglePointTime(e interface{}) ([]byte, error) {
	sp, ok := e.(SinglePointTime)
	if !ok {
		return nil, ErrParam
	}
	if sp.Quality > singlePointQualityMax || sp.Quality&0x01 != 0 {
		return nil, ErrQuality
	}
	tb, err := sp.Time.Encode()
	if err != nil {
		return nil, err
	}
	b := sp.Quality
	if sp.Value {
		b |= 0x01
	}
	return append([]byte{b}, tb...), nil
}

func decodeSinglePointTime(b []byte) (interface{}, error) {
	if len(b) < 1+CP56Time2aSize {
		return nil, ErrShortHeader
	}
	t, err := DecodeCP56Time2a(b[1:])
	if err != nil {
		return nil, err
	}
	return SinglePointTime{
		Value:   b[0]&0x01 != 0,
		Quality: b[0] & 0x1e,
		Time:    t,
	}, nil
}
