// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func genCause(t *rapid.T) Cause {
	return Cause{
		Value:    CauseOfTransmission(rapid.IntRange(1, 63).Draw(t, "cause")),
		Negative: rapid.Bool().Draw(t, "negative"),
		Test:     rapid.Bool().Draw(t, "test"),
	}
}

// TestSinglePointASDURoundtrip exercises MarshalBinary/UnmarshalBinary for
// M_SP_NA_1 with arbitrary non-sequential information objects (spec §8
// "roundtrip" property).
func TestSinglePointASDURoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		withOA := rapid.Bool().Draw(t, "withOA")

		a := NewASDU(Params{WithOA: withOA}, Identifier{
			Type:       MSpNa1,
			Variable:   VSQ{IsSequence: false, Number: n},
			Cause:      genCause(t),
			OrigAddr:   0,
			CommonAddr: CommonAddr(rapid.IntRange(1, 0xfffe).Draw(t, "ca")),
		})
		if withOA {
			a.OrigAddr = OriginAddr(rapid.IntRange(0, 255).Draw(t, "oa"))
		}
		for i := 0; i < n; i++ {
			a.Objects = append(a.Objects, InformationObject{
				IOA: InfoObjAddr(rapid.IntRange(0, int(MaxInfoObjAddr)).Draw(t, "ioa")),
				Element: SinglePoint{
					Value:   rapid.Bool().Draw(t, "value"),
					Quality: QualityStep(rapid.IntRange(0, 15).Draw(t, "qstep")),
				},
			})
		}

		raw, err := a.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		back := NewASDU(Params{WithOA: withOA}, Identifier{})
		if err := back.UnmarshalBinary(raw); err != nil {
			t.Fatalf("UnmarshalBinary: %v", err)
		}
		if back.Type != a.Type || back.Cause != a.Cause || back.CommonAddr != a.CommonAddr || back.OrigAddr != a.OrigAddr {
			t.Fatalf("header mismatch: got %+v, want %+v", back.Identifier, a.Identifier)
		}
		if len(back.Objects) != len(a.Objects) {
			t.Fatalf("object count mismatch: got %d, want %d", len(back.Objects), len(a.Objects))
		}
		for i := range a.Objects {
			if back.Objects[i].IOA != a.Objects[i].IOA {
				t.Fatalf("object %d IOA mismatch: got %d, want %d", i, back.Objects[i].IOA, a.Objects[i].IOA)
			}
			if back.Objects[i].Element.(SinglePoint) != a.Objects[i].Element.(SinglePoint) {
				t.Fatalf("object %d element mismatch: got %+v, want %+v", i, back.Objects[i].Element, a.Objects[i].Element)
			}
		}
	})
}

// QualityStep maps a 4-bit step into the even-only byte range SinglePoint
// expects (bit 0 is reserved for Value).
func QualityStep(step int) byte {
	return byte(step) << 1
}

// TestMeasuredFloatASDURoundtrip checks the float element survives the
// IEEE-754 little-endian codec bit-for-bit, including NaN and subnormals.
func TestMeasuredFloatASDURoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.Uint32().Draw(t, "bits")
		quality := byte(rapid.IntRange(0, 0x1f).Draw(t, "quality"))

		a := NewASDU(Params{}, Identifier{
			Type:       MMeNc1,
			Variable:   VSQ{Number: 1},
			Cause:      Cause{Value: Spontaneous},
			CommonAddr: 1,
		})
		value := math.Float32frombits(bits)
		a.Objects = []InformationObject{{IOA: 1, Element: MeasuredFloat{Value: value, Quality: quality}}}

		raw, err := a.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		back := NewASDU(Params{}, Identifier{})
		if err := back.UnmarshalBinary(raw); err != nil {
			t.Fatalf("UnmarshalBinary: %v", err)
		}
		mv := back.Objects[0].Element.(MeasuredFloat)
		if math.Float32bits(mv.Value) != bits {
			t.Fatalf("value bits mismatch: got %x, want %x", math.Float32bits(mv.Value), bits)
		}
		if mv.Quality != quality {
			t.Fatalf("quality mismatch: got %x, want %x", mv.Quality, quality)
		}
	})
}

// TestCP56Time2aRoundtrip checks Encode/DecodeCP56Time2a for every valid
// (IV=false) field combination (spec §8 "CP56Time2a roundtrip" property).
func TestCP56Time2aRoundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ts := CP56Time2a{
			Millisecond: rapid.IntRange(0, 59999).Draw(t, "ms"),
			Minute:      rapid.IntRange(0, 59).Draw(t, "min"),
			Hour:        rapid.IntRange(0, 23).Draw(t, "hour"),
			SummerTime:  rapid.Bool().Draw(t, "su"),
			DayOfMonth:  rapid.IntRange(1, 31).Draw(t, "dom"),
			DayOfWeek:   rapid.IntRange(0, 7).Draw(t, "dow"),
			Month:       rapid.IntRange(1, 12).Draw(t, "month"),
			Year:        rapid.IntRange(0, 99).Draw(t, "year"),
		}
		b, err := ts.Encode()
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if len(b) != CP56Time2aSize {
			t.Fatalf("encoded length got %d, want %d", len(b), CP56Time2aSize)
		}
		back, err := DecodeCP56Time2a(b)
		if err != nil {
			t.Fatalf("DecodeCP56Time2a: %v", err)
		}
		if back != ts {
			t.Fatalf("roundtrip mismatch: got %+v, want %+v", back, ts)
		}
	})
}

