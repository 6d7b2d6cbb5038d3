// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import (
	"bytes"
	"testing"

	"github.com/marrasen/iec104/asdu"
	"pgregory.net/rapid"
)

func TestDecoderChunkInvariance(t *testing.T) {
	functions := []byte{uStartDtActive, uStartDtConfirm, uTestFrActive, uTestFrConfirm, uStopDtActive, uStopDtConfirm}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		var stream []byte
		var wantFns []byte
		for i := 0; i < n; i++ {
			fn := functions[rapid.IntRange(0, len(functions)-1).Draw(t, "fn")]
			stream = append(stream, encodeUFrame(fn)...)
			wantFns = append(wantFns, fn)
		}

		chunks := splitIntoChunks(t, stream)

		d := newStreamingDecoder(asdu.Params{})
		var gotFns []byte
		for _, c := range chunks {
			out, err := d.feed(c)
			if err != nil {
				t.Fatalf("feed: %v", err)
			}
			for _, entry := range out {
				uf, ok := entry.frame.(uFrame)
				if !ok {
					t.Fatalf("expected uFrame, got %T", entry.frame)
				}
				gotFns = append(gotFns, uf.function)
			}
		}
		if !bytes.Equal(gotFns, wantFns) {
			t.Fatalf("got %v, want %v", gotFns, wantFns)
		}
	})
}

// splitIntoChunks partitions stream into an arbitrary, rapid-drawn set of
// non-empty contiguous pieces whose concatenation reproduces stream.
func splitIntoChunks(t *rapid.T, stream []byte) [][]byte {
	if len(stream) == 0 {
		return nil
	}
	numCuts := rapid.IntRange(0, len(stream)-1).Draw(t, "numCuts")
	cutSet := map[int]bool{}
	for i := 0; i < numCuts; i++ {
		cutSet[rapid.IntRange(1, len(stream)-1).Draw(t, "cut")] = true
	}
	cuts := make([]int, 0, len(cutSet)+1)
	for c := range cutSet {
		cuts = append(cuts, c)
	}
	cuts = append(cuts, len(stream))
	for i := 0; i < len(cuts); i++ {
		for j := i + 1; j < len(cuts); j++ {
			if cuts[j] < cuts[i] {
				cuts[i], cuts[j] = cuts[j], cuts[i]
			}
		}
	}
	chunks := make([][]byte, 0, len(cuts))
	prev := 0
	for _, c := range cuts {
		chunks = append(chunks, stream[prev:c])
		prev = c
	}
	return chunks
}

func TestDecoderBuffersPartialFrame(t *testing.T) {
	d := newStreamingDecoder(asdu.Params{})
	full := encodeUFrame(uStartDtActive)

	out, err := d.feed(full[:3])
	if err != nil {
		t.Fatalf("feed partial: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no frames from a partial feed, got %d", len(out))
	}

	out, err = d.feed(full[3:])
	if err != nil {
		t.Fatalf("feed remainder: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one frame, got %d", len(out))
	}
}

func TestDecoderRejectsInvalidStartOctetLeavingBufferIntact(t *testing.T) {
	d := newStreamingDecoder(asdu.Params{})
	bad := []byte{0x00, 0x04, 0, 0, 0, 0}
	if _, err := d.feed(bad); err != ErrInvalidStartOctet {
		t.Fatalf("got %v, want ErrInvalidStartOctet", err)
	}
	if d.buf.len() != len(bad) {
		t.Fatalf("buffer length got %d, want %d (untouched)", d.buf.len(), len(bad))
	}
}

func TestDecoderOverflowRejectsBeforeEnqueue(t *testing.T) {
	d := newStreamingDecoderCapacity(asdu.Params{}, 4)
	big := make([]byte, 5)
	if _, err := d.feed(big); err != ErrBufferOverflow {
		t.Fatalf("got %v, want ErrBufferOverflow", err)
	}
	if d.buf.len() != 0 {
		t.Fatalf("buffer should remain empty after rejected append, got len %d", d.buf.len())
	}
}

func TestDecoderIFrameCarriesASDU(t *testing.T) {
	a := asdu.NewASDU(asdu.Params{}, asdu.Identifier{
		Type: asdu.MSpNa1, Variable: asdu.VSQ{Number: 1}, Cause: asdu.Cause{Value: asdu.Spontaneous}, CommonAddr: 1,
	})
	a.Objects = []asdu.InformationObject{{IOA: 1, Element: asdu.SinglePoint{Value: true}}}
	raw, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	frame, err := encodeIFrame(0, 0, raw)
	if err != nil {
		t.Fatalf("encodeIFrame: %v", err)
	}

	d := newStreamingDecoder(asdu.Params{})
	out, err := d.feed(frame)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(out) != 1 || out[0].asdu == nil {
		t.Fatalf("expected one decoded ASDU, got %+v", out)
	}
	if out[0].asdu.Type != asdu.MSpNa1 {
		t.Fatalf("type got %v, want MSpNa1", out[0].asdu.Type)
	}
}
