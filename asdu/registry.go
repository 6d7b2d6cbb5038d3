// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import "sync"

// ElementEncoder encodes one information object's typed payload (not the
// IOA) into its fixed-size wire representation.
type ElementEncoder func(element interface{}) ([]byte, error)

// ElementDecoder decodes one fixed-size element from the front of b and
// returns the typed payload value.
type ElementDecoder func(b []byte) (interface{}, error)

// typeCodec is the per-TypeID registration record. The codec and decoder
// tables are process-wide state behind a narrow RegisterType entry
// point, matching spec §9's "codec registry" design note: dispatch on
// decode inspects the registry before any type-specific allocation.
type typeCodec struct {
	ElementSize int
	AllowSQ     bool
	Encode      ElementEncoder
	Decode      ElementDecoder
}

var (
	registryMu sync.RWMutex
	registry   = map[TypeID]typeCodec{}
)

// RegisterType installs the encoder/decoder pair for a type identifier.
// Callers outside this package can extend the codec with additional
// ASDU types without modifying asdu itself, per spec §4.3.
func RegisterType(id TypeID, elementSize int, allowSQ bool, enc ElementEncoder, dec ElementDecoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = typeCodec{ElementSize: elementSize, AllowSQ: allowSQ, Encode: enc, Decode: dec}
}

func lookup(id TypeID) (typeCodec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[id]
	return c, ok
}

func init() {
	registerSinglePoint()
	registerMeasuredFloat()
	registerSinglePointTime()
	registerSingleCommand()
	registerInterrogation()
}
