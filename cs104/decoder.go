// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import "github.com/marrasen/iec104/asdu"

// defaultDecoderCapacity is twice the largest declared APDU length
// (2 x apduLenMax = 506 octets): room for one maximum-size 255-octet
// APDU plus the first 251 octets of the next.
const defaultDecoderCapacity = 2 * apduLenMax

// decodedAPDU pairs a parsed control frame with its ASDU, when present
// (only I-frames carry one).
type decodedAPDU struct {
	frame interface{} // iFrame, sFrame, or uFrame
	asdu  *asdu.ASDU
}

// streamingDecoder reassembles complete APDUs out of an arbitrary byte
// stream. It owns a bounded FIFO buffer and never holds more than its
// capacity in memory (spec §4.5).
type streamingDecoder struct {
	buf    *boundedBuffer
	params asdu.Params
}

func newStreamingDecoder(params asdu.Params) *streamingDecoder {
	return newStreamingDecoderCapacity(params, defaultDecoderCapacity)
}

func newStreamingDecoderCapacity(params asdu.Params, capacity int) *streamingDecoder {
	return &streamingDecoder{buf: newBoundedBuffer(capacity), params: params}
}

// feed appends b to the internal buffer and extracts every complete APDU
// now available. feed never blocks. If appending b would exceed capacity
// it returns ErrBufferOverflow before enqueuing any of b. Any other error
// is returned together with the APDUs decoded before it: on
// ErrInvalidStartOctet or ErrFrameLength the offending bytes are left in
// the buffer untouched so the caller can inspect them before closing the
// session, while a frame or ASDU decode error has already consumed that
// APDU's bytes.
func (d *streamingDecoder) feed(b []byte) ([]decodedAPDU, error) {
	if err := d.buf.append(b); err != nil {
		return nil, err
	}

	var out []decodedAPDU
	for {
		if d.buf.len() < 2 {
			return out, nil
		}
		length, err := decodeHeader(d.buf.data[:2])
		if err != nil {
			return out, err
		}
		total := 2 + length
		if d.buf.len() < total {
			return out, nil
		}

		apdu := make([]byte, total)
		copy(apdu, d.buf.data[:total])
		d.buf.consume(total)

		frame, err := decodeFrame(apdu)
		if err != nil {
			return out, err
		}

		entry := decodedAPDU{frame: frame}
		if f, ok := frame.(iFrame); ok && len(f.asdu) > 0 {
			a := asdu.NewASDU(d.params, asdu.Identifier{})
			if err := a.UnmarshalBinary(f.asdu); err != nil {
				return out, err
			}
			entry.asdu = a
		}
		out = append(out, entry)
	}
}

// clear resets the decoder's buffer to empty while preserving capacity.
func (d *streamingDecoder) clear() {
	d.buf.clear()
}
