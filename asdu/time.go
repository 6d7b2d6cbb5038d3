// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import "time"

// CP56Time2aSize is the fixed wire size of a CP56Time2a timestamp.
// See companion standard 101, subclass 7.2.6.18.
const CP56Time2aSize = 7

// CP56Time2a is the seven-octet absolute timestamp used by time-tagged
// ASDUs (spec §4.4):
//
//	[ms_low][ms_high][IV|0|minute(6)][SU|00|hour(5)][DOW(3)|DOM(5)][0000|month(4)][0|year(7)]
type CP56Time2a struct {
	Millisecond int  // 0..59999
	Minute      int  // 0..59
	Invalid     bool // IV
	Hour        int  // 0..23
	SummerTime  bool // SU
	DayOfMonth  int  // 1..31
	DayOfWeek   int  // 0..7, 0 meaning "not used"
	Month       int  // 1..12
	Year        int  // 0..99, offset from 2000
}

// Validate checks that every field lies within its declared range.
func (t CP56Time2a) Validate() error {
	switch {
	case t.Millisecond < 0 || t.Millisecond > 59999:
		return ErrTimeRange
	case t.Minute < 0 || t.Minute > 59:
		return ErrTimeRange
	case t.Hour < 0 || t.Hour > 23:
		return ErrTimeRange
	case t.DayOfMonth < 1 || t.DayOfMonth > 31:
		return ErrTimeRange
	case t.DayOfWeek < 0 || t.DayOfWeek > 7:
		return ErrTimeRange
	case t.Month < 1 || t.Month > 12:
		return ErrTimeRange
	case t.Year < 0 || t.Year > 99:
		return ErrTimeRange
	}
	return nil
}

// Encode returns the 7-octet wire representation.
func (t CP56Time2a) Encode() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	b := make([]byte, CP56Time2aSize)
	b[0] = byte(t.Millisecond)
	b[1] = byte(t.Millisecond >> 8)
	b[2] = byte(t.Minute & 0x3f)
	if t.Invalid {
		b[2] |= 0x80
	}
	b[3] = byte(t.Hour & 0x1f)
	if t.SummerTime {
		b[3] |= 0x80
	}
	b[4] = byte(t.DayOfMonth&0x1f) | byte(t.DayOfWeek&0x07)<<5
	b[5] = byte(t.Month & 0x0f)
	b[6] = byte(t.Year & 0x7f)
	return b, nil
}

// DecodeCP56Time2a parses the first 7 octets of b into a CP56Time2a.
func DecodeCP56Time2a(b []byte) (CP56Time2a, error) {
	if len(b) < CP56Time2aSize {
		return CP56Time2a{}, ErrShortHeader
	}
	ms := int(b[0]) | int(b[1])<<8
	t := CP56Time2a{
		Millisecond: ms,
		Minute:      int(b[2] & 0x3f),
		Invalid:     b[2]&0x80 != 0,
		Hour:        int(b[3] & 0x1f),
		SummerTime:  b[3]&0x80 != 0,
		DayOfMonth:  int(b[4] & 0x1f),
		DayOfWeek:   int(b[4]>>5) & 0x07,
		Month:       int(b[5] & 0x0f),
		Year:        int(b[6] & 0x7f),
	}
	if err := t.Validate(); err != nil {
		return CP56Time2a{}, err
	}
	return t, nil
}

// Time converts the representation to a UTC wall-clock value (year
// offset 2000). Returns ErrTimeInvalid if IV is set: an invalid
// timestamp is encodable/decodable but has no meaningful instant.
func (t CP56Time2a) Time() (time.Time, error) {
	if t.Invalid {
		return time.Time{}, ErrTimeInvalid
	}
	if err := t.Validate(); err != nil {
		return time.Time{}, err
	}
	sec := t.Millisecond / 1000
	nsec := (t.Millisecond % 1000) * int(time.Millisecond)
	return time.Date(2000+t.Year, time.Month(t.Month), t.DayOfMonth, t.Hour, t.Minute, sec, nsec, time.UTC), nil
}

// CP56Time2aFromTime builds a CP56Time2a from a UTC wall-clock value.
// DayOfWeek is derived from the Go weekday (Sunday=0 mapped to ISO 7).
func CP56Time2aFromTime(ts time.Time) CP56Time2a {
	ts = ts.UTC()
	dow := int(ts.Weekday())
	if dow == 0 {
		dow = 7
	}
	msec := ts.Second()*1000 + ts.Nanosecond()/int(time.Millisecond)
	return CP56Time2a{
		Millisecond: msec,
		Minute:      ts.Minute(),
		Hour:        ts.Hour(),
		DayOfMonth:  ts.Day(),
		DayOfWeek:   dow,
		Month:       int(ts.Month()),
		Year:        ts.Year() - 2000,
	}
}
