// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import (
	"crypto/tls"
	"errors"
	"time"
)

// Port is the IANA registered port number for unsecured IEC 104.
const Port = 2404

// Config ranges, companion standard 104 subclass 5.5 and figures 10/18.
const (
	ConnectTimeout0Min = 1 * time.Second
	ConnectTimeout0Max = 255 * time.Second

	SendUnAckTimeout1Min = 1 * time.Second
	SendUnAckTimeout1Max = 255 * time.Second

	RecvUnAckTimeout2Min = 1 * time.Second
	RecvUnAckTimeout2Max = 255 * time.Second

	IdleTimeout3Min = 1 * time.Second
	IdleTimeout3Max = 48 * time.Hour

	SendUnAckLimitKMin = 1
	SendUnAckLimitKMax = 32767

	RecvUnAckLimitWMin = 1
	RecvUnAckLimitWMax = 32767
)

// Config carries the IEC 104 session parameters. The zero value of each
// field means "apply the IEC default" once Valid runs.
type Config struct {
	// T0: maximum time to complete the STARTDT handshake. Default 30s.
	ConnectTimeout0 time.Duration

	// k: maximum outstanding unacknowledged outbound I-frames. Default 12.
	SendUnAckLimitK uint16

	// T1: maximum time an outbound I-frame may go unacknowledged before
	// the session is fatally closed. Default 15s.
	SendUnAckTimeout1 time.Duration

	// w: inbound I-frames received before an S-frame must be emitted.
	// Default 8. Should not exceed 2/3 of k.
	RecvUnAckLimitW uint16

	// T2: acknowledgement hold-off bound for implementations that batch
	// S-frames. Default 10s. Unused by the per-frame acknowledgement
	// policy this package implements (see DESIGN.md).
	RecvUnAckTimeout2 time.Duration

	// T3: idle time after which a TESTFR_ACT keep-alive is sent. Default 20s.
	IdleTimeout3 time.Duration

	// WithOA enables the originator-address octet on every ASDU header.
	WithOA bool
}

// Valid fills in IEC defaults for every unset field and range-checks the
// rest, matching the teacher's builder-time validation style.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("cs104: nil config")
	}
	if c.ConnectTimeout0 == 0 {
		c.ConnectTimeout0 = 30 * time.Second
	} else if c.ConnectTimeout0 < ConnectTimeout0Min || c.ConnectTimeout0 > ConnectTimeout0Max {
		return errors.New(`cs104: ConnectTimeout0 "T0" not in [1, 255]s`)
	}
	if c.SendUnAckLimitK == 0 {
		c.SendUnAckLimitK = 12
	} else if c.SendUnAckLimitK < SendUnAckLimitKMin || c.SendUnAckLimitK > SendUnAckLimitKMax {
		return errors.New(`cs104: SendUnAckLimitK "k" not in [1, 32767]`)
	}
	if c.SendUnAckTimeout1 == 0 {
		c.SendUnAckTimeout1 = 15 * time.Second
	} else if c.SendUnAckTimeout1 < SendUnAckTimeout1Min || c.SendUnAckTimeout1 > SendUnAckTimeout1Max {
		return errors.New(`cs104: SendUnAckTimeout1 "T1" not in [1, 255]s`)
	}
	if c.RecvUnAckLimitW == 0 {
		c.RecvUnAckLimitW = 8
	} else if c.RecvUnAckLimitW < RecvUnAckLimitWMin || c.RecvUnAckLimitW > RecvUnAckLimitWMax {
		return errors.New(`cs104: RecvUnAckLimitW "w" not in [1, 32767]`)
	}
	if c.RecvUnAckTimeout2 == 0 {
		c.RecvUnAckTimeout2 = 10 * time.Second
	} else if c.RecvUnAckTimeout2 < RecvUnAckTimeout2Min || c.RecvUnAckTimeout2 > RecvUnAckTimeout2Max {
		return errors.New(`cs104: RecvUnAckTimeout2 "T2" not in [1, 255]s`)
	}
	if c.IdleTimeout3 == 0 {
		c.IdleTimeout3 = 20 * time.Second
	} else if c.IdleTimeout3 < IdleTimeout3Min || c.IdleTimeout3 > IdleTimeout3Max {
		return errors.New(`cs104: IdleTimeout3 "T3" not in [1s, 48h]`)
	}
	return nil
}

// DefaultConfig returns the IEC-specified parameter defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout0:   30 * time.Second,
		SendUnAckLimitK:   12,
		SendUnAckTimeout1: 15 * time.Second,
		RecvUnAckLimitW:   8,
		RecvUnAckTimeout2: 10 * time.Second,
		IdleTimeout3:      20 * time.Second,
	}
}

// ClientOption configures a Client via builder-style setters.
type ClientOption struct {
	config            Config
	addr              string
	dialTimeout       time.Duration
	autoReconnect     bool
	reconnectInterval time.Duration
	tlsConfig         *tls.Config
}

// DefaultReconnectInterval is how long a client waits between dial
// attempts when auto-reconnect is enabled.
const DefaultReconnectInterval = 1 * time.Minute

// NewClientOption returns an option set with IEC defaults and auto-reconnect on.
func NewClientOption(addr string) *ClientOption {
	return &ClientOption{
		config:            DefaultConfig(),
		addr:              addr,
		dialTimeout:       10 * time.Second,
		autoReconnect:     true,
		reconnectInterval: DefaultReconnectInterval,
	}
}

// SetConfig sets the session configuration; an invalid config falls back
// to DefaultConfig, matching the teacher's tolerant builder behavior.
func (o *ClientOption) SetConfig(cfg Config) *ClientOption {
	if err := cfg.Valid(); err != nil {
		o.config = DefaultConfig()
	} else {
		o.config = cfg
	}
	return o
}

// SetDialTimeout sets the TCP dial timeout.
func (o *ClientOption) SetDialTimeout(d time.Duration) *ClientOption {
	if d > 0 {
		o.dialTimeout = d
	}
	return o
}

// SetAutoReconnect enables or disables automatic reconnection on dial failure.
func (o *ClientOption) SetAutoReconnect(b bool) *ClientOption {
	o.autoReconnect = b
	return o
}

// SetReconnectInterval sets the delay between reconnection attempts.
func (o *ClientOption) SetReconnectInterval(d time.Duration) *ClientOption {
	if d > 0 {
		o.reconnectInterval = d
	}
	return o
}

// SetTLSConfig enables TLS for the dial: when set, Dial wraps the TCP
// connection with tls.Client using this configuration instead of
// connecting in the clear.
func (o *ClientOption) SetTLSConfig(t *tls.Config) *ClientOption {
	o.tlsConfig = t
	return o
}

// ServerOption configures a Server via builder-style setters.
type ServerOption struct {
	config    Config
	policy    ConnectionPolicy
	tlsConfig *tls.Config
}

// NewServerOption returns an option set with IEC defaults and no admission policy.
func NewServerOption() *ServerOption {
	return &ServerOption{config: DefaultConfig()}
}

// SetConfig sets the session configuration applied to every accepted connection.
func (o *ServerOption) SetConfig(cfg Config) *ServerOption {
	if err := cfg.Valid(); err != nil {
		o.config = DefaultConfig()
	} else {
		o.config = cfg
	}
	return o
}

// SetConnectionPolicy installs an admission hook invoked before the
// handshake begins for each accepted connection.
func (o *ServerOption) SetConnectionPolicy(p ConnectionPolicy) *ServerOption {
	o.policy = p
	return o
}

// SetTLSConfig enables TLS for the listener: when set, ListenAndServe
// wraps the accept loop with tls.NewListener using this configuration.
func (o *ServerOption) SetTLSConfig(t *tls.Config) *ServerOption {
	o.tlsConfig = t
	return o
}
