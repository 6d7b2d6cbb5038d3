// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package cs104

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marrasen/iec104/asdu"
	"github.com/marrasen/iec104/clog"
)

// Role distinguishes which side of the handshake a Session plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// State is the session lifecycle state of spec §4.6.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateIdle
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateConnecting:
		return "CONNECTING"
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// timeoutResolution is how often the run loop polls its deadlines. A
// tenth of a second keeps S-frame latency and TESTFR response snappy
// without busy-polling the ticker.
const timeoutResolution = 100 * time.Millisecond

// willNotTimeout stands in for "timer not armed" so deadline comparisons
// never need a separate armed/disarmed boolean.
var willNotTimeout = time.Now().Add(100 * 365 * 24 * time.Hour)

type unackedEntry struct {
	seq    uint16
	frame  []byte
	sentAt time.Time
}

type sendRequest struct {
	payload []byte
	resp    chan error
}

// Session is the unified IEC 104 session state machine: one instance
// drives either the client or the server side of a connection, per
// spec §4.6. Concurrency follows the teacher's channel-actor shape: a
// read loop owns the transport's read half and feeds the streaming
// decoder, a write loop owns the write half, and this type's run loop
// is the single goroutine that ever touches V(S)/V(R)/ACK/unacked.
type Session struct {
	clog.Clog

	role    Role
	conn    net.Conn
	config  Config
	params  asdu.Params
	handler Handler // server role only

	decoder *streamingDecoder

	state int32 // atomic State

	sendReqCh  chan sendRequest
	sendRawCh  chan []byte
	rcvFrameCh chan decodedAPDU
	rcvASDUCh  chan *asdu.ASDU // client role: delivered to Recv()

	runningCh chan struct{}
	closedCh  chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	closeErr error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSession(role Role, conn net.Conn, config Config, params asdu.Params, handler Handler) *Session {
	initial := StateIdle
	if role == RoleClient {
		initial = StateConnecting
	}
	s := &Session{
		role:       role,
		conn:       conn,
		config:     config,
		params:     params,
		handler:    handler,
		decoder:    newStreamingDecoder(params),
		state:      int32(initial),
		sendReqCh:  make(chan sendRequest, 64),
		sendRawCh:  make(chan []byte, 64),
		rcvFrameCh: make(chan decodedAPDU, 64),
		rcvASDUCh:  make(chan *asdu.ASDU, int(config.RecvUnAckLimitW)<<4),
		runningCh:  make(chan struct{}),
		closedCh:   make(chan struct{}),
		Clog:       clog.NewLogger("cs104", map[string]interface{}{"role": roleName(role), "peer": peerName(conn)}),
	}
	return s
}

func roleName(r Role) string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

func peerName(conn net.Conn) string {
	if conn == nil {
		return "-"
	}
	return conn.RemoteAddr().String()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Session) setState(st State) {
	atomic.StoreInt32(&s.state, int32(st))
}

// start launches the read/write/run loops. Call once per Session.
func (s *Session) start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go s.runLoop()
}

// readLoop owns the transport's read half and is the decoder's sole
// feeder, matching the ownership rule of spec §5 ("the streaming
// decoder's buffer is owned by the session's reader path").
func (s *Session) readLoop() {
	defer func() {
		s.cancel()
		s.wg.Done()
	}()
	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			entries, ferr := s.decoder.feed(buf[:n])
			for _, e := range entries {
				select {
				case s.rcvFrameCh <- e:
				case <-s.ctx.Done():
					return
				}
			}
			if ferr != nil {
				s.Error("decode failed: %v", ferr)
				return
			}
		}
		if err != nil {
			s.Debug("read stopped: %v", err)
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case raw := <-s.sendRawCh:
			for written := 0; written < len(raw); {
				n, err := s.conn.Write(raw[written:])
				if err != nil {
					if isFatalNetErr(err) {
						s.Error("write failed: %v", err)
						return
					}
				}
				written += n
			}
		}
	}
}

func isFatalNetErr(err error) bool {
	if err == io.EOF || strings.Contains(err.Error(), "use of closed network connection") {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return !ne.Temporary()
	}
	return true
}

// runLoop is the sole mutator of V(S)/V(R)/ACK/unacked/timers.
func (s *Session) runLoop() {
	defer func() {
		s.cancel()
		_ = s.conn.Close()
		s.wg.Wait()
		close(s.closedCh)
	}()

	var vs, vr, ackOut uint16
	var unacked []unackedEntry

	t0Deadline := willNotTimeout
	t1Deadline := willNotTimeout
	t3Deadline := willNotTimeout

	if s.role == RoleClient {
		s.sendU(uStartDtActive)
		t0Deadline = time.Now().Add(s.config.ConnectTimeout0)
	}

	ticker := time.NewTicker(timeoutResolution)
	defer ticker.Stop()

	fail := func(err error) {
		s.mu.Lock()
		if s.closeErr == nil {
			s.closeErr = err
		}
		s.mu.Unlock()
		s.setState(StateClosed)
	}

	ackSend := func(frame []byte) {
		s.sendRawCh <- frame
	}

	for {
		windowOpen := s.State() == StateRunning && seqDistance(vs, ackOut) < uint16(s.config.SendUnAckLimitK)
		var sendReq chan sendRequest
		if windowOpen {
			sendReq = s.sendReqCh
		}

		select {
		case <-s.ctx.Done():
			return

		case req := <-sendReq:
			frame, err := encodeIFrame(vs, vr, req.payload)
			if err != nil {
				req.resp <- err
				continue
			}
			unacked = append(unacked, unackedEntry{seq: vs, frame: frame, sentAt: time.Now()})
			vs = seqIncrement(vs)
			t1Deadline = time.Now().Add(s.config.SendUnAckTimeout1)
			ackSend(frame)
			req.resp <- nil

		case now := <-ticker.C:
			if now.After(t0Deadline) {
				fail(&HandshakeError{Phase: "STARTDT", Cause: ErrT0Expired})
				return
			}
			if now.After(t1Deadline) {
				fail(ErrT1Expired)
				return
			}
			if now.After(t3Deadline) {
				s.sendU(uTestFrActive)
				t3Deadline = now.Add(s.config.IdleTimeout3)
			}

		case entry := <-s.rcvFrameCh:
			t3Deadline = time.Now().Add(s.config.IdleTimeout3)

			switch f := entry.frame.(type) {
			case sFrame:
				removed := 0
				for len(unacked) > 0 && seqAcknowledges(unacked[0].seq, f.recvSeq) {
					unacked = unacked[1:]
					removed++
				}
				if removed == 0 && f.recvSeq != ackOut {
					fail(&SequenceError{Expected: vs, Got: f.recvSeq, Inbound: false})
					return
				}
				ackOut = f.recvSeq
				if len(unacked) == 0 {
					t1Deadline = willNotTimeout
				}

			case iFrame:
				if s.State() != StateRunning {
					s.Warn("I-frame received while not RUNNING, ignored")
					continue
				}
				removed := 0
				for len(unacked) > 0 && seqAcknowledges(unacked[0].seq, f.recvSeq) {
					unacked = unacked[1:]
					removed++
				}
				if removed > 0 {
					ackOut = f.recvSeq
					if len(unacked) == 0 {
						t1Deadline = willNotTimeout
					}
				}
				if f.sendSeq != vr {
					fail(&SequenceError{Expected: vr, Got: f.sendSeq, Inbound: true})
					return
				}
				vr = seqIncrement(vr)

				s.sendRawCh <- encodeSFrame(vr)
				if entry.asdu != nil {
					s.deliver(entry.asdu)
				}

			case uFrame:
				switch f.function {
				case uStartDtActive:
					s.sendU(uStartDtConfirm)
					s.setState(StateRunning)
					t3Deadline = time.Now().Add(s.config.IdleTimeout3)
					s.signalRunning()
				case uStartDtConfirm:
					t0Deadline = willNotTimeout
					s.setState(StateRunning)
					t3Deadline = time.Now().Add(s.config.IdleTimeout3)
					s.signalRunning()
				case uStopDtActive:
					s.sendU(uStopDtConfirm)
					s.setState(StateStopped)
					return
				case uStopDtConfirm:
					s.setState(StateStopped)
					return
				case uTestFrActive:
					s.sendU(uTestFrConfirm)
				case uTestFrConfirm:
					// nothing further: T3 already rearmed above
				}
			}
		}
	}
}

func (s *Session) sendU(function byte) {
	s.sendRawCh <- encodeUFrame(function)
}

func (s *Session) signalRunning() {
	select {
	case <-s.runningCh:
	default:
		close(s.runningCh)
	}
}

func (s *Session) deliver(a *asdu.ASDU) {
	if s.role == RoleServer && s.handler != nil {
		if err := s.handler.Handle(s, a); err != nil {
			s.Warn("handler returned error: %v", err)
		}
		return
	}
	select {
	case s.rcvASDUCh <- a:
	default:
		s.Warn("inbound ASDU queue full, dropping %v", a)
	}
}

// awaitRunning blocks until the handshake completes, the context is
// cancelled, or the session closes for another reason.
func (s *Session) awaitRunning(ctx context.Context) error {
	select {
	case <-s.runningCh:
		return nil
	case <-s.closedCh:
		return s.err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeErr != nil {
		return s.closeErr
	}
	return ErrSessionClosed
}

// Send encodes and transmits an ASDU, suspending until the outbound
// window has room (spec §4.6 "I-frame send" step 1).
func (s *Session) Send(ctx context.Context, a *asdu.ASDU) error {
	switch s.State() {
	case StateStopped, StateClosed:
		return ErrSessionClosed
	case StateConnecting, StateIdle:
		return ErrNotRunning
	}
	payload, err := a.MarshalBinary()
	if err != nil {
		return err
	}
	req := sendRequest{payload: payload, resp: make(chan error, 1)}
	select {
	case s.sendReqCh <- req:
	case <-s.closedCh:
		return s.err()
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-s.closedCh:
		return s.err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv waits for the next inbound ASDU (client role).
func (s *Session) Recv(ctx context.Context) (*asdu.ASDU, error) {
	select {
	case a := <-s.rcvASDUCh:
		return a, nil
	case <-s.closedCh:
		return nil, s.err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close gracefully stops the session: best-effort STOPDT, then tears
// down the transport and timers. Idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if st := s.State(); st == StateRunning {
			select {
			case s.sendRawCh <- encodeUFrame(uStopDtActive):
			default:
			}
		}
		s.setState(StateStopped)
		if s.cancel != nil {
			s.cancel()
		}
	})
	<-s.closedCh
	return nil
}

// Done returns a channel closed once the session has fully shut down.
func (s *Session) Done() <-chan struct{} {
	return s.closedCh
}
