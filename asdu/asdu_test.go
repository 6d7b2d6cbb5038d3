// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import (
	"bytes"
	"testing"
)

func TestSinglePointRoundtrip(t *testing.T) {
	// spec §8 scenario 1
	a := NewASDU(Params{}, Identifier{
		Type:       MSpNa1,
		Variable:   VSQ{IsSequence: false, Number: 1},
		Cause:      Cause{Value: Spontaneous},
		CommonAddr: 1,
	})
	a.Objects = []InformationObject{{IOA: 1, Element: SinglePoint{Value: true, Quality: 0}}}

	got, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	want := []byte{0x01, 0x01, 0x03, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}

	back := NewASDU(Params{}, Identifier{})
	if err := back.UnmarshalBinary(got); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if back.Type != MSpNa1 || back.Cause.Value != Spontaneous || back.CommonAddr != 1 {
		t.Fatalf("header mismatch: %+v", back.Identifier)
	}
	if len(back.Objects) != 1 || back.Objects[0].IOA != 1 {
		t.Fatalf("objects mismatch: %+v", back.Objects)
	}
	sp := back.Objects[0].Element.(SinglePoint)
	if !sp.Value || sp.Quality != 0 {
		t.Fatalf("element mismatch: %+v", sp)
	}
}

func TestSequentialSinglePoint(t *testing.T) {
	// spec §8 scenario 2
	a := NewASDU(Params{}, Identifier{
		Type:       MSpNa1,
		Variable:   VSQ{IsSequence: true, Number: 3},
		Cause:      Cause{Value: Spontaneous},
		CommonAddr: 1,
	})
	a.Objects = []InformationObject{
		{IOA: 10, Element: SinglePoint{Value: true}},
		{IOA: 11, Element: SinglePoint{Value: false}},
		{IOA: 12, Element: SinglePoint{Value: true}},
	}
	got, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	payload := got[6:]
	want := []byte{0x0a, 0x00, 0x00, 0x01, 0x00, 0x01}
	if !bytes.Equal(payload, want) {
		t.Fatalf("payload got % x, want % x", payload, want)
	}

	back := NewASDU(Params{}, Identifier{})
	if err := back.UnmarshalBinary(got); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if len(back.Objects) != 3 {
		t.Fatalf("want 3 objects, got %d", len(back.Objects))
	}
	for i, ioa := range []InfoObjAddr{10, 11, 12} {
		if back.Objects[i].IOA != ioa {
			t.Fatalf("object %d: IOA got %d, want %d", i, back.Objects[i].IOA, ioa)
		}
	}
}

func TestSequentialNonConsecutiveRejected(t *testing.T) {
	a := NewASDU(Params{}, Identifier{
		Type:       MSpNa1,
		Variable:   VSQ{IsSequence: true, Number: 2},
		Cause:      Cause{Value: Spontaneous},
		CommonAddr: 1,
	})
	a.Objects = []InformationObject{
		{IOA: 10, Element: SinglePoint{Value: true}},
		{IOA: 12, Element: SinglePoint{Value: false}},
	}
	if _, err := a.MarshalBinary(); err != ErrSequenceNotConsecutive {
		t.Fatalf("got %v, want ErrSequenceNotConsecutive", err)
	}
}

func TestMeasuredFloatRoundtrip(t *testing.T) {
	// spec §8 scenario 3
	a := NewASDU(Params{}, Identifier{
		Type:       MMeNc1,
		Variable:   VSQ{Number: 1},
		Cause:      Cause{Value: Spontaneous},
		CommonAddr: 1,
	})
	a.Objects = []InformationObject{{IOA: 5, Element: MeasuredFloat{Value: 1.5, Quality: 1}}}

	got, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	floatBytes := got[len(got)-5 : len(got)-1]
	want := []byte{0x00, 0x00, 0xc0, 0x3f}
	if !bytes.Equal(floatBytes, want) {
		t.Fatalf("float bytes got % x, want % x", floatBytes, want)
	}

	back := NewASDU(Params{}, Identifier{})
	if err := back.UnmarshalBinary(got); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	mv := back.Objects[0].Element.(MeasuredFloat)
	if mv.Value != 1.5 || mv.Quality != 1 {
		t.Fatalf("element mismatch: %+v", mv)
	}
}

func TestSingleCommandRejectsSQ(t *testing.T) {
	a := NewASDU(Params{}, Identifier{
		Type:       CScNa1,
		Variable:   VSQ{IsSequence: true, Number: 1},
		Cause:      Cause{Value: Activation},
		CommonAddr: 1,
	})
	a.Objects = []InformationObject{{IOA: 1, Element: SingleCommand{Value: true}}}
	if _, err := a.MarshalBinary(); err != ErrSQNotAllowed {
		t.Fatalf("got %v, want ErrSQNotAllowed", err)
	}
}

func TestQualityMaskEnforced(t *testing.T) {
	a := NewASDU(Params{}, Identifier{Type: MSpNa1, Variable: VSQ{Number: 1}, Cause: Cause{Value: Spontaneous}, CommonAddr: 1})
	a.Objects = []InformationObject{{IOA: 1, Element: SinglePoint{Quality: 0x1f}}} // odd bit set
	if _, err := a.MarshalBinary(); err != ErrQuality {
		t.Fatalf("got %v, want ErrQuality", err)
	}

	b := NewASDU(Params{}, Identifier{Type: CScNa1, Variable: VSQ{Number: 1}, Cause: Cause{Value: Activation}, CommonAddr: 1})
	b.Objects = []InformationObject{{IOA: 1, Element: SingleCommand{Qualifier: 0x40}}}
	if _, err := b.MarshalBinary(); err != ErrQuality {
		t.Fatalf("got %v, want ErrQuality", err)
	}
}

func TestUnsupportedTypeRejected(t *testing.T) {
	a := NewASDU(Params{}, Identifier{Type: TypeID(9), Variable: VSQ{Number: 1}, Cause: Cause{Value: Spontaneous}, CommonAddr: 1})
	a.Objects = []InformationObject{{IOA: 1, Element: SinglePoint{}}}
	if _, err := a.MarshalBinary(); err != ErrUnsupportedType {
		t.Fatalf("got %v, want ErrUnsupportedType", err)
	}

	raw := []byte{9, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00}
	back := NewASDU(Params{}, Identifier{})
	if err := back.UnmarshalBinary(raw); err != ErrUnsupportedType {
		t.Fatalf("got %v, want ErrUnsupportedType", err)
	}
}

func TestWithOAHeader(t *testing.T) {
	a := NewASDU(Params{WithOA: true}, Identifier{
		Type: MSpNa1, Variable: VSQ{Number: 1}, Cause: Cause{Value: Spontaneous}, OrigAddr: 7, CommonAddr: 1,
	})
	a.Objects = []InformationObject{{IOA: 1, Element: SinglePoint{Value: true}}}
	got, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if got[4] != 7 {
		t.Fatalf("expected OA octet 7 at offset 4, got %d", got[4])
	}

	back := NewASDU(Params{WithOA: true}, Identifier{})
	if err := back.UnmarshalBinary(got); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if back.OrigAddr != 7 {
		t.Fatalf("OrigAddr got %d, want 7", back.OrigAddr)
	}
}
