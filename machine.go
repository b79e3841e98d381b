// go-siterm
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-siterm.
//
// go-siterm is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-siterm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-siterm; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package siterm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZaparooProject/go-siterm/internal/buffer"
	"github.com/ZaparooProject/go-siterm/internal/frame"
	"github.com/ZaparooProject/go-siterm/internal/transport"
	"github.com/ZaparooProject/go-siterm/protocol"
	"github.com/ZaparooProject/go-siterm/status"
)

// StateMachine sequences the handshake, frame reassembly, command decoding,
// execution and response framing for one connection at a time. All buffers
// are allocated by New and never grow. A StateMachine is not safe for
// concurrent use; Serve drives it from a single goroutine.
type StateMachine struct {
	endpoint Endpoint
	handler  Handler
	now      func() time.Time
	config   *MachineConfig
	selector *status.Selector
	logger   zerolog.Logger

	handshakeBuf *buffer.Buffer
	frameBuf     *buffer.Buffer
	commandBuf   *buffer.Buffer
	pendingBuf   *buffer.Buffer
	responseBuf  *buffer.Buffer
	partialBuf   *buffer.Buffer
	encodeBuf    []byte

	handshakeDeadline time.Time
	pending           CommandOwned
	state             SystemState
	hasPending        bool
	hasDeadline       bool
	handshakeComplete bool
}

// New creates a state machine that talks to endpoint and runs commands on
// handler.
func New(endpoint Endpoint, handler Handler, opts ...Option) (*StateMachine, error) {
	if endpoint == nil {
		return nil, errors.New("nil endpoint")
	}
	if handler == nil {
		return nil, errors.New("nil handler")
	}

	m := &StateMachine{
		endpoint:     endpoint,
		handler:      handler,
		now:          time.Now,
		config:       DefaultMachineConfig(),
		selector:     status.NewSelector(nil),
		logger:       log.Logger,
		handshakeBuf: buffer.New(HandshakeBufferSize),
		frameBuf:     buffer.New(FrameBufferSize),
		commandBuf:   buffer.New(MaxCommandSize),
		pendingBuf:   buffer.New(MaxCommandSize),
		responseBuf:  buffer.New(MaxCommandSize),
		partialBuf:   buffer.New(MaxCommandSize),
		encodeBuf:    make([]byte, EncodedFrameBufferSize),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if err := m.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine config: %w", err)
	}

	m.Reset()
	return m, nil
}

// State returns the current state.
func (m *StateMachine) State() SystemState {
	return m.state
}

// Status returns the indicator pattern last published for the machine.
// ok is false before the first publication.
func (m *StateMachine) Status() (pattern status.Pattern, ok bool) {
	return m.selector.Current()
}

// HandshakeComplete reports whether the current connection has handshaked.
func (m *StateMachine) HandshakeComplete() bool {
	return m.handshakeComplete
}

// Reset returns the machine to Init for a new connection. Buffers are
// cleared, any pending command is discarded and a fresh handshake deadline
// is armed.
func (m *StateMachine) Reset() {
	m.handshakeBuf.Clear()
	m.frameBuf.Clear()
	m.commandBuf.Clear()
	m.pendingBuf.Clear()
	m.responseBuf.Clear()
	m.partialBuf.Clear()
	m.pending = CommandOwned{}
	m.hasPending = false
	m.handshakeComplete = false
	m.selector.Forget()
	m.hasDeadline = false
	m.scheduleHandshakeDeadline()
	m.setState(State(StateInit))
}

// Tick refreshes the status indicator so latched patterns expire on time.
func (m *StateMachine) Tick() {
	m.refreshStatus()
}

// Consume feeds received bytes into the machine and advances it until it
// needs more input. Errors come only from writing to the endpoint. A failed
// write does not stop the remaining bytes from being processed; the first
// such error is returned once data is exhausted. ErrDisabled returns at once.
func (m *StateMachine) Consume(ctx context.Context, data []byte) error {
	var writeErr error
	keep := func(err error) error {
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDisabled) {
			return err
		}
		m.logger.Debug().Err(err).Msg("write failed, continuing with buffered input")
		if writeErr == nil {
			writeErr = err
		}
		return nil
	}

	if err := keep(m.advance(ctx)); err != nil {
		return err
	}

	for _, b := range data {
		switch m.state.Kind {
		case StateWaitForHandshake:
			if err := keep(m.stepHandshake(ctx, b)); err != nil {
				return err
			}
		case StateWaitForMessage:
			if err := m.frameBuf.Push(b); err != nil {
				m.logger.Warn().Int("buffered", m.frameBuf.Len()).Msg("frame buffer overflow")
				m.frameBuf.Clear()
				m.enterError(ErrInvalidChecksum)
			}
		default:
		}

		if err := keep(m.advance(ctx)); err != nil {
			return err
		}
	}

	if err := keep(m.advance(ctx)); err != nil {
		return err
	}
	return writeErr
}

// HandshakeTimeoutRemaining returns the time left before the handshake
// deadline. ok is false once the handshake completed or when no deadline
// applies to the current state.
func (m *StateMachine) HandshakeTimeoutRemaining() (remaining time.Duration, ok bool) {
	if m.handshakeComplete || !m.hasDeadline {
		return 0, false
	}
	if m.state.Kind != StateWaitForHandshake && m.state.Kind != StateInit {
		return 0, false
	}
	return max(m.handshakeDeadline.Sub(m.now()), 0), true
}

// HandleHandshakeTimeout reports Error(Timeout) to the host and arms a fresh
// handshake deadline.
func (m *StateMachine) HandleHandshakeTimeout(ctx context.Context) error {
	m.logger.Debug().Msg("handshake timed out")
	m.handshakeBuf.Clear()
	m.frameBuf.Clear()
	m.handshakeComplete = false
	m.scheduleHandshakeDeadline()
	m.enterError(ErrTimeout)
	return m.advance(ctx)
}

// HandleBufferOverflow drops any partially received frame after the
// endpoint lost data and reports Error(InvalidChecksum).
func (m *StateMachine) HandleBufferOverflow(ctx context.Context) error {
	m.logger.Warn().Msg("endpoint receive overflow")
	m.frameBuf.Clear()
	m.enterError(ErrInvalidChecksum)
	return m.advance(ctx)
}

// stepHandshake consumes one handshake byte and answers once a complete
// line matches the handshake command.
func (m *StateMachine) stepHandshake(ctx context.Context, b byte) error {
	if err := m.handshakeBuf.Push(b); err != nil {
		m.handshakeBuf.Clear()
		return nil
	}
	if !m.handshakeBuf.HasSuffix(protocol.HandshakeDelimiter) {
		return nil
	}

	line := m.handshakeBuf.Bytes()
	matches := string(line[:len(line)-len(protocol.HandshakeDelimiter)]) == protocol.HandshakeCommand
	m.handshakeBuf.Clear()

	if !matches {
		m.logger.Debug().Msg("ignoring unexpected handshake line")
		return nil
	}

	if err := m.writePacket(ctx, []byte(protocol.HandshakeResponse)); err != nil {
		return fmt.Errorf("handshake response: %w", err)
	}
	m.frameBuf.Clear()
	m.handshakeComplete = true
	m.hasDeadline = false
	m.logger.Info().Msg("handshake complete")
	m.setState(State(StateWaitForMessage))
	return nil
}

// advance runs transitions until the machine needs more input or an
// endpoint write fails.
func (m *StateMachine) advance(ctx context.Context) error {
	for {
		m.refreshStatus()

		switch m.state.Kind {
		case StateInit:
			if !m.hasDeadline {
				m.scheduleHandshakeDeadline()
			}
			m.setState(State(StateWaitForHandshake))

		case StateWaitForHandshake:
			return nil

		case StateWaitForMessage:
			ready, kind := m.takeReadyFrame()
			switch {
			case kind != 0:
				m.enterError(kind)
			case ready:
				m.setState(State(StateParseCommand))
			default:
				return nil
			}

		case StateParseCommand:
			if kind := m.decodePendingCommand(); kind != 0 {
				m.enterError(kind)
			} else {
				m.setState(State(StateExecuteAction))
			}

		case StateExecuteAction:
			if kind := m.performCommand(ctx); kind != 0 {
				m.enterError(kind)
			} else {
				m.setState(State(StateSendResponse))
			}

		case StateSendResponse:
			err := m.sendFramed(ctx, m.responseBuf.Bytes())
			m.responseBuf.Clear()
			m.setState(State(StateWaitForMessage))
			if err != nil {
				return fmt.Errorf("send response: %w", err)
			}

		case StateError:
			kind := m.state.Err
			err := m.flushError(ctx, kind)
			m.resolveError()
			if err != nil {
				return fmt.Errorf("send %s fault: %w", kind, err)
			}
		}
	}
}

// takeReadyFrame moves one complete frame payload from the frame buffer to
// the command buffer. It reports ready=false when more bytes are needed and
// a non-zero kind when the buffered data is unusable.
func (m *StateMachine) takeReadyFrame() (ready bool, kind ErrorKind) {
	frm, consumed, err := frame.Decode(m.frameBuf.Bytes())
	switch {
	case errors.Is(err, frame.ErrNeedMoreData):
		return false, 0
	case err != nil:
		m.logger.Debug().Err(err).Msg("discarding malformed frame data")
		m.frameBuf.Clear()
		return false, ErrInvalidChecksum
	}

	if setErr := m.commandBuf.Set(frm.Payload); setErr != nil {
		m.frameBuf.Clear()
		return false, ErrInvalidChecksum
	}
	m.frameBuf.DropPrefix(consumed)
	return true, 0
}

// decodePendingCommand decodes the command buffer into the pending command.
func (m *StateMachine) decodePendingCommand() ErrorKind {
	cmd, err := protocol.Decode(m.commandBuf.Bytes())
	if err != nil {
		m.logger.Debug().Err(err).Msg("command decode failed")
		return protocolErrorKind(err)
	}

	owned, err := newCommandOwned(cmd, m.pendingBuf)
	if err != nil {
		return kindOf(err)
	}
	m.pending = owned
	m.hasPending = true
	m.commandBuf.Clear()
	return 0
}

// performCommand runs the pending command through the handler.
func (m *StateMachine) performCommand(ctx context.Context) ErrorKind {
	if !m.hasPending {
		return 0
	}
	cmd := m.pending
	m.pending = CommandOwned{}
	m.hasPending = false
	m.responseBuf.Clear()

	if err := m.handler.Execute(ctx, cmd, m.responseBuf); err != nil {
		kind := kindOf(err)
		m.logger.Warn().
			Err(err).
			Stringer("method", cmd.Command.Method()).
			Stringer("operation", cmd.Command.Operation()).
			Stringer("fault", kind).
			Msg("command failed")
		return kind
	}
	return 0
}

// flushError sends "ERR: <kind>" followed by any partial response.
func (m *StateMachine) flushError(ctx context.Context, kind ErrorKind) error {
	m.partialBuf.Clear()
	m.partialBuf.AppendTruncated(m.responseBuf.Bytes())
	m.responseBuf.Clear()

	m.responseBuf.AppendTruncated([]byte(ErrorPrefix))
	m.responseBuf.AppendTruncated([]byte(kind.String()))
	if !m.partialBuf.IsEmpty() {
		m.responseBuf.AppendTruncated([]byte(": "))
		m.responseBuf.AppendTruncated(m.partialBuf.Bytes())
	}

	err := m.sendFramed(ctx, m.responseBuf.Bytes())
	m.responseBuf.Clear()
	m.partialBuf.Clear()
	return err
}

// resolveError leaves the error state for the next state the connection can
// make progress in.
func (m *StateMachine) resolveError() {
	if m.handshakeComplete {
		m.setState(State(StateWaitForMessage))
		return
	}
	m.scheduleHandshakeDeadline()
	m.setState(State(StateWaitForHandshake))
}

// enterError drops the pending command and moves to the error state.
func (m *StateMachine) enterError(kind ErrorKind) {
	m.pending = CommandOwned{}
	m.hasPending = false
	m.commandBuf.Clear()
	m.setState(ErrorState(kind))
}

func (m *StateMachine) setState(state SystemState) {
	if state != m.state {
		m.logger.Trace().Stringer("from", m.state).Stringer("to", state).Msg("state transition")
	}
	m.state = state
	m.refreshStatus()
}

func (m *StateMachine) refreshStatus() {
	pattern, hold := m.state.statusPattern()
	m.selector.Update(m.now(), pattern, hold)
}

func (m *StateMachine) scheduleHandshakeDeadline() {
	m.handshakeDeadline = m.now().Add(m.config.HandshakeTimeout)
	m.hasDeadline = true
}

// writePacket writes p, retrying while the endpoint reports
// ErrBufferOverflow until the write retry deadline.
func (m *StateMachine) writePacket(ctx context.Context, p []byte) error {
	attempts := 0
	_, err := transport.TimeoutRetry(ctx, m.config.WriteRetryTimeout, m.config.WriteRetryInterval,
		func() (struct{}, bool, error) {
			attempts++
			err := m.endpoint.WritePacket(p)
			if errors.Is(err, ErrBufferOverflow) {
				return struct{}{}, true, nil
			}
			return struct{}{}, false, err
		})
	if errors.Is(err, transport.ErrRetryTimeout) {
		m.logger.Warn().Int("attempts", attempts).Int("len", len(p)).Msg("write retry deadline exceeded")
		return ErrBufferOverflow
	}
	return err
}

// sendFramed frame-encodes payload and writes it in packets of at most the
// endpoint's maximum packet size. Payloads that cannot be encoded are
// logged and dropped.
func (m *StateMachine) sendFramed(ctx context.Context, payload []byte) error {
	n, err := frame.Encode(m.encodeBuf, payload)
	if err != nil {
		m.logger.Error().Err(err).Int("len", len(payload)).Msg("failed to encode frame")
		return nil
	}

	chunk := m.endpoint.MaxPacketSize()
	if chunk <= 0 {
		chunk = n
	}
	encoded := m.encodeBuf[:n]
	for offset := 0; offset < n; offset += chunk {
		end := min(offset+chunk, n)
		if err := m.writePacket(ctx, encoded[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

// protocolErrorKind maps a decode failure to the fault reported to the host.
func protocolErrorKind(err error) ErrorKind {
	switch {
	case errors.Is(err, protocol.ErrUnknownMethod),
		errors.Is(err, protocol.ErrUnknownOperation),
		errors.Is(err, protocol.ErrUnsupportedOperation):
		return ErrUnknownCommand
	default:
		return ErrInvalidChecksum
	}
}
