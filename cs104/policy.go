// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import (
	"net"
	"strings"
)

// ConnectionPolicy decides whether an accepted TCP connection is allowed
// to proceed to the STARTDT handshake. Returning false closes the
// transport immediately without affecting other sessions.
type ConnectionPolicy func(remote net.Addr) bool

// AllowAll is a ConnectionPolicy that admits every peer.
func AllowAll(net.Addr) bool { return true }

// IPAllowlist builds a ConnectionPolicy admitting only the given hosts.
func IPAllowlist(hosts ...string) ConnectionPolicy {
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		allowed[h] = struct{}{}
	}
	return func(remote net.Addr) bool {
		host := remote.String()
		if i := strings.LastIndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		_, ok := allowed[host]
		return ok
	}
}
