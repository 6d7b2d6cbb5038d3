// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"

	"github.com/marrasen/iec104/asdu"
	"github.com/marrasen/iec104/clog"
)

// Server is the controlled-station role: it accepts TCP connections,
// runs each through the configured ConnectionPolicy, and hands
// admitted peers a Session in the server role.
type Server struct {
	clog.Clog
	config  Config
	params  asdu.Params
	handler Handler
	policy  ConnectionPolicy
	tlsCfg  *tls.Config

	mux      sync.Mutex
	sessions map[*Session]struct{}
	listen   net.Listener

	wg      sync.WaitGroup
	closing uint32
}

// NewServer returns a Server with IEC defaults and no admission policy
// (every peer is accepted) until overridden by opt.
func NewServer(handler Handler, opt *ServerOption) *Server {
	if opt == nil {
		opt = NewServerOption()
	}
	policy := opt.policy
	if policy == nil {
		policy = AllowAll
	}
	return &Server{
		Clog:     clog.NewLogger("cs104", map[string]interface{}{"role": "server"}),
		config:   opt.config,
		params:   asdu.Params{WithOA: opt.config.WithOA},
		handler:  handler,
		policy:   policy,
		tlsCfg:   opt.tlsConfig,
		sessions: make(map[*Session]struct{}),
	}
}

// ListenAndServe accepts connections on addr until the server is
// closed or Accept fails fatally.
func (srv *Server) ListenAndServe(addr string) error {
	listen, err := net.Listen("tcp", addr)
	if err != nil {
		srv.Error("listen failed: %v", err)
		return err
	}
	if srv.tlsCfg != nil {
		listen = tls.NewListener(listen, srv.tlsCfg)
	}
	srv.mux.Lock()
	srv.listen = listen
	srv.mux.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		_ = srv.Close()
	}()

	srv.Debug("server listening on %s", addr)
	for {
		conn, err := listen.Accept()
		if err != nil {
			if atomic.LoadUint32(&srv.closing) != 0 {
				return ErrServerClosed
			}
			srv.Error("accept failed: %v", err)
			return err
		}

		if !srv.policy(conn.RemoteAddr()) {
			srv.Debug("rejected %s: policy denied", conn.RemoteAddr())
			_ = conn.Close()
			continue
		}

		srv.wg.Add(1)
		go srv.serve(ctx, conn)
	}
}

func (srv *Server) serve(ctx context.Context, conn net.Conn) {
	defer srv.wg.Done()

	sess := newSession(RoleServer, conn, srv.config, srv.params, srv.handler)
	srv.mux.Lock()
	srv.sessions[sess] = struct{}{}
	srv.mux.Unlock()

	sess.start(ctx)
	<-sess.Done()

	srv.mux.Lock()
	delete(srv.sessions, sess)
	srv.mux.Unlock()
}

// Close stops accepting new connections and closes every active session.
func (srv *Server) Close() error {
	atomic.StoreUint32(&srv.closing, 1)

	srv.mux.Lock()
	var err error
	if srv.listen != nil {
		err = srv.listen.Close()
		srv.listen = nil
	}
	sessions := make([]*Session, 0, len(srv.sessions))
	for s := range srv.sessions {
		sessions = append(sessions, s)
	}
	srv.mux.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
	return err
}

// Shutdown closes the listener and every session, then waits for all
// per-connection goroutines to return or ctx to expire.
func (srv *Server) Shutdown(ctx context.Context) error {
	if err := srv.Close(); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Broadcast sends an ASDU to every current session, ignoring per-session
// send errors (a session that is not RUNNING just returns one). Sends are
// made one session at a time, so a session whose send window is full
// holds up the sessions after it until its window opens or ctx is done.
func (srv *Server) Broadcast(ctx context.Context, a *asdu.ASDU) {
	srv.mux.Lock()
	sessions := make([]*Session, 0, len(srv.sessions))
	for s := range srv.sessions {
		sessions = append(sessions, s)
	}
	srv.mux.Unlock()

	for _, s := range sessions {
		_ = s.Send(ctx, a)
	}
}
