// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/marrasen/iec104/asdu"
)

// Client is the controlling-station role: a thin wrapper over a
// *Session that dials the transport and awaits the STARTDT handshake.
type Client struct {
	*Session
}

// Dial opens a TCP connection to addr, constructs a Session in the
// client role, and blocks until the STARTDT handshake completes or
// T0 expires.
func Dial(ctx context.Context, addr string, opt *ClientOption) (*Client, error) {
	if opt == nil {
		opt = NewClientOption(addr)
	}
	dialer := &net.Dialer{Timeout: opt.dialTimeout}
	var conn net.Conn
	var err error
	if opt.tlsConfig != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, opt.tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	params := asdu.Params{WithOA: opt.config.WithOA}
	sess := newSession(RoleClient, conn, opt.config, params, nil)
	sess.start(ctx)

	handshakeCtx, cancel := context.WithTimeout(ctx, opt.config.ConnectTimeout0)
	defer cancel()
	if err := sess.awaitRunning(handshakeCtx); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return &Client{Session: sess}, nil
}

// GeneralInterrogation issues a C_IC_NA_1 activation (spec §4.7) and
// collects the station's data response until COMMAND_TERMINATION
// arrives, or timeout elapses.
func (c *Client) GeneralInterrogation(ctx context.Context, ca asdu.CommonAddr, qualifier asdu.QualifierOfInterrogation, originator asdu.OriginAddr, timeout time.Duration) ([]*asdu.ASDU, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := asdu.NewASDU(c.params, asdu.Identifier{
		Type:       asdu.CIcNa1,
		Variable:   asdu.VSQ{Number: 1},
		Cause:      asdu.Cause{Value: asdu.Activation},
		OrigAddr:   originator,
		CommonAddr: ca,
	})
	req.Objects = []asdu.InformationObject{{IOA: 0, Element: asdu.Interrogation{Qualifier: qualifier}}}
	if err := c.Send(ctx, req); err != nil {
		return nil, err
	}

	confirm, err := c.Recv(ctx)
	if err != nil {
		if err == context.DeadlineExceeded {
			return nil, ErrInterrogationTimeout
		}
		return nil, err
	}
	if err := validateInterrogationConfirm(confirm, qualifier); err != nil {
		return nil, err
	}

	var data []*asdu.ASDU
	for {
		a, err := c.Recv(ctx)
		if err != nil {
			if err == context.DeadlineExceeded {
				return nil, ErrInterrogationTimeout
			}
			return nil, err
		}
		if a.Type == asdu.CIcNa1 {
			if a.Cause.Value != asdu.CommandTermination || a.Cause.Negative {
				return nil, ErrUnexpectedASDU
			}
			return data, nil
		}
		data = append(data, a)
	}
}

// RunClient supervises a Client across reconnects: it dials, hands the
// connected Client to fn, and when fn returns (or the dial fails) redials
// after opt.reconnectInterval as long as opt.autoReconnect is set and ctx
// is not done. It does not watch the session itself: a fatal session
// error is noticed only through fn returning. With autoReconnect off it
// returns the dial or fn error; once ctx is done it returns ctx.Err().
func RunClient(ctx context.Context, addr string, opt *ClientOption, fn func(*Client) error) error {
	if opt == nil {
		opt = NewClientOption(addr)
	}
	for {
		c, err := Dial(ctx, addr, opt)
		if err != nil {
			if !opt.autoReconnect {
				return err
			}
		} else {
			fnErr := fn(c)
			_ = c.Close()
			err = fnErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !opt.autoReconnect {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opt.reconnectInterval):
		}
	}
}

func validateInterrogationConfirm(a *asdu.ASDU, qualifier asdu.QualifierOfInterrogation) error {
	if a.Type != asdu.CIcNa1 {
		return ErrUnexpectedASDU
	}
	if a.Cause.Value != asdu.ActivationConfirmation || a.Cause.Negative {
		return ErrUnexpectedASDU
	}
	if len(a.Objects) != 1 {
		return ErrUnexpectedASDU
	}
	ic, ok := a.Objects[0].Element.(asdu.Interrogation)
	if !ok || ic.Qualifier != qualifier {
		return ErrUnexpectedASDU
	}
	return nil
}
