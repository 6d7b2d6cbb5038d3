// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import "github.com/marrasen/iec104/asdu"

// Handler processes ASDUs received on a server-side session.
type Handler interface {
	Handle(sess *Session, a *asdu.ASDU) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(sess *Session, a *asdu.ASDU) error

func (f HandlerFunc) Handle(sess *Session, a *asdu.ASDU) error { return f(sess, a) }
