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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-siterm/internal/frame"
	testutil "github.com/ZaparooProject/go-siterm/internal/testing"
	"github.com/ZaparooProject/go-siterm/protocol"
	"github.com/ZaparooProject/go-siterm/status"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var echoHandler = HandlerFunc(func(_ context.Context, cmd CommandOwned, resp *ResponseBuffer) error {
	echo, ok := cmd.Command.(protocol.EchoWrite)
	if !ok {
		return ErrUnknownCommand
	}
	if err := resp.AppendString("rp2040: "); err != nil {
		return ErrExecutionFailed
	}
	if err := resp.Append(echo.Payload); err != nil {
		return ErrExecutionFailed
	}
	return nil
})

func newTestMachine(t *testing.T, handler Handler, opts ...Option) (*StateMachine, *MockEndpoint, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	ep := NewMockEndpoint()
	ep.Connect()

	all := append([]Option{WithClock(clock.Now), WithLogger(zerolog.Nop())}, opts...)
	m, err := New(ep, handler, all...)
	require.NoError(t, err)
	require.NoError(t, m.Consume(context.Background(), nil))
	return m, ep, clock
}

func handshake(t *testing.T, m *StateMachine, ep *MockEndpoint) {
	t.Helper()
	require.NoError(t, m.Consume(context.Background(), testutil.HandshakeLine()))
	require.Equal(t, protocol.HandshakeResponse, string(ep.Written()))
	require.Equal(t, State(StateWaitForMessage), m.State())
	ep.ResetWrites()
}

func frameOf(t *testing.T, payload []byte) []byte {
	t.Helper()
	require.LessOrEqual(t, len(payload), frame.MaxPayloadSize)
	return testutil.BuildFrame(payload)
}

func decodeFrames(t *testing.T, data []byte) []string {
	t.Helper()
	payloads, err := testutil.DecodeFrames(data)
	require.NoError(t, err)
	out := make([]string, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, string(p))
	}
	return out
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, echoHandler)
	require.Error(t, err)

	_, err = New(NewMockEndpoint(), nil)
	require.Error(t, err)

	_, err = New(NewMockEndpoint(), echoHandler, WithHandshakeTimeout(0))
	require.Error(t, err)

	_, err = New(NewMockEndpoint(), echoHandler, WithConfig(&MachineConfig{}))
	require.Error(t, err)
}

func TestInitialState(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	assert.Equal(t, State(StateWaitForHandshake), m.State())
	assert.False(t, m.HandshakeComplete())
	assert.Empty(t, ep.Written())

	remaining, ok := m.HandshakeTimeoutRemaining()
	require.True(t, ok)
	assert.Equal(t, protocol.HandshakeTimeout, remaining)
}

func TestHandshake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		chunks  []string
		matches bool
	}{
		{name: "exact", chunks: []string{"SiTerm?\n"}, matches: true},
		{name: "split", chunks: []string{"SiT", "erm", "?", "\n"}, matches: true},
		{name: "after junk line", chunks: []string{"hello\n", "SiTerm?\n"}, matches: true},
		{name: "lowercase", chunks: []string{"siterm?\n"}},
		{name: "no delimiter", chunks: []string{"SiTerm?"}},
		{name: "carriage return", chunks: []string{"SiTerm?\r\n"}},
		{name: "trailing space", chunks: []string{"SiTerm? \n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, ep, _ := newTestMachine(t, echoHandler)
			for _, chunk := range tt.chunks {
				require.NoError(t, m.Consume(context.Background(), []byte(chunk)))
			}

			if tt.matches {
				assert.Equal(t, protocol.HandshakeResponse, string(ep.Written()))
				assert.Equal(t, State(StateWaitForMessage), m.State())
				assert.True(t, m.HandshakeComplete())
				_, ok := m.HandshakeTimeoutRemaining()
				assert.False(t, ok)
				return
			}
			assert.Empty(t, ep.Written())
			assert.Equal(t, State(StateWaitForHandshake), m.State())
		})
	}
}

func TestHandshakeBufferOverflowResets(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)

	// the 65th byte overflows the handshake buffer and starts a new line
	junk := bytes.Repeat([]byte{'x'}, HandshakeBufferSize+1)
	require.NoError(t, m.Consume(context.Background(), junk))
	assert.Equal(t, State(StateWaitForHandshake), m.State())
	assert.Empty(t, ep.Written())

	require.NoError(t, m.Consume(context.Background(), testutil.HandshakeLine()))
	assert.Equal(t, protocol.HandshakeResponse, string(ep.Written()))
}

func TestHandshakeTimeout(t *testing.T) {
	t.Parallel()

	m, ep, clock := newTestMachine(t, echoHandler)

	clock.Advance(time.Second)
	remaining, ok := m.HandshakeTimeoutRemaining()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, remaining)

	clock.Advance(5 * time.Second)
	remaining, ok = m.HandshakeTimeoutRemaining()
	require.True(t, ok)
	assert.Zero(t, remaining)

	require.NoError(t, m.HandleHandshakeTimeout(context.Background()))
	assert.Equal(t, []string{"ERR: Timeout"}, decodeFrames(t, ep.Written()))
	assert.Equal(t, State(StateWaitForHandshake), m.State())

	remaining, ok = m.HandshakeTimeoutRemaining()
	require.True(t, ok)
	assert.Equal(t, protocol.HandshakeTimeout, remaining, "a fresh deadline is armed")

	// the handshake still works afterwards
	ep.ResetWrites()
	handshake(t, m, ep)
}

func TestHandshakeTimeoutDiscardsPartialHandshake(t *testing.T) {
	t.Parallel()

	m, ep, clock := newTestMachine(t, echoHandler)
	require.NoError(t, m.Consume(context.Background(), []byte("SiTe")))

	clock.Advance(protocol.HandshakeTimeout)
	require.NoError(t, m.HandleHandshakeTimeout(context.Background()))
	ep.ResetWrites()

	require.NoError(t, m.Consume(context.Background(), []byte("rm?\n")))
	assert.Empty(t, ep.Written())
}

func TestEchoEndToEnd(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)

	require.NoError(t, m.Consume(context.Background(), frameOf(t, []byte{0x01, 0x02, 'h', 'i'})))
	assert.Equal(t, []string{"rp2040: hi"}, decodeFrames(t, ep.Written()))
	assert.Equal(t, State(StateWaitForMessage), m.State())

	ep.ResetWrites()
	var chunk []byte
	chunk = append(chunk, frameOf(t, []byte{0x01, 0x02, 'o', 'n', 'e'})...)
	chunk = append(chunk, frameOf(t, []byte{0x01, 0x02, 't', 'w', 'o'})...)
	require.NoError(t, m.Consume(context.Background(), chunk))
	assert.Equal(t, []string{"rp2040: one", "rp2040: two"}, decodeFrames(t, ep.Written()))
}

func TestFrameSplitAcrossReads(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)

	encoded := frameOf(t, append([]byte{0x01, 0x02}, "split"...))
	for _, b := range encoded {
		require.NoError(t, m.Consume(context.Background(), []byte{b}))
	}
	assert.Equal(t, []string{"rp2040: split"}, decodeFrames(t, ep.Written()))
}

func TestHandshakeAndFrameInOneRead(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)

	data := append([]byte("SiTerm?\n"), frameOf(t, []byte{0x01, 0x02, 'x'})...)
	require.NoError(t, m.Consume(context.Background(), data))

	written := ep.Written()
	require.True(t, bytes.HasPrefix(written, []byte(protocol.HandshakeResponse)))
	assert.Equal(t, []string{"rp2040: x"}, decodeFrames(t, written[len(protocol.HandshakeResponse):]))
}

func TestFaultResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		payload []byte
	}{
		{name: "unknown method", payload: []byte{0xFF, 0x01}, want: "ERR: UnknownCommand"},
		{name: "unknown operation", payload: []byte{0x01, 0x07}, want: "ERR: UnknownCommand"},
		{name: "unsupported pair", payload: []byte{0x03, 0x01}, want: "ERR: UnknownCommand"},
		{name: "empty payload", payload: []byte{}, want: "ERR: InvalidChecksum"},
		{name: "short operands", payload: []byte{0x02, 0x01, 0x50}, want: "ERR: InvalidChecksum"},
		{name: "method only", payload: []byte{0x01}, want: "ERR: InvalidChecksum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, ep, _ := newTestMachine(t, echoHandler)
			handshake(t, m, ep)

			require.NoError(t, m.Consume(context.Background(), frameOf(t, tt.payload)))
			assert.Equal(t, []string{tt.want}, decodeFrames(t, ep.Written()))
			assert.Equal(t, State(StateWaitForMessage), m.State(), "faults resolve forward")

			ep.ResetWrites()
			require.NoError(t, m.Consume(context.Background(), frameOf(t, []byte{0x01, 0x02, 'k'})))
			assert.Equal(t, []string{"rp2040: k"}, decodeFrames(t, ep.Written()))
		})
	}
}

func TestMalformedStreamRecovers(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)

	// a length prefix that can never be valid
	require.NoError(t, m.Consume(context.Background(), bytes.Repeat([]byte{0xFF}, FrameBufferSize+10)))
	frames := decodeFrames(t, ep.Written())
	require.NotEmpty(t, frames)
	for _, f := range frames {
		assert.Equal(t, "ERR: InvalidChecksum", f)
	}
	assert.Zero(t, m.frameBuf.Len())
	assert.Equal(t, State(StateWaitForMessage), m.State())
}

func TestHandleBufferOverflow(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)

	require.NoError(t, m.Consume(context.Background(), []byte{0x05, 0x01}))
	require.NoError(t, m.HandleBufferOverflow(context.Background()))

	assert.Equal(t, []string{"ERR: InvalidChecksum"}, decodeFrames(t, ep.Written()))
	assert.Zero(t, m.frameBuf.Len())
	assert.Equal(t, State(StateWaitForMessage), m.State())
}

func TestFaultBeforeHandshakeRearmsDeadline(t *testing.T) {
	t.Parallel()

	m, ep, clock := newTestMachine(t, echoHandler)
	clock.Advance(2 * time.Second)

	require.NoError(t, m.HandleBufferOverflow(context.Background()))
	assert.Equal(t, []string{"ERR: InvalidChecksum"}, decodeFrames(t, ep.Written()))
	assert.Equal(t, State(StateWaitForHandshake), m.State())

	remaining, ok := m.HandshakeTimeoutRemaining()
	require.True(t, ok)
	assert.Equal(t, protocol.HandshakeTimeout, remaining)
}

func TestHandlerFaults(t *testing.T) {
	t.Parallel()

	boom := errors.New("bus stuck")
	tests := []struct {
		handler HandlerFunc
		name    string
		want    string
	}{
		{
			name: "plain error",
			handler: func(context.Context, CommandOwned, *ResponseBuffer) error {
				return boom
			},
			want: "ERR: ExecutionFailed",
		},
		{
			name: "partial response",
			handler: func(_ context.Context, _ CommandOwned, resp *ResponseBuffer) error {
				_ = resp.AppendString("part")
				return boom
			},
			want: "ERR: ExecutionFailed: part",
		},
		{
			name: "explicit kind",
			handler: func(context.Context, CommandOwned, *ResponseBuffer) error {
				return NewHandlerError(ErrBufferProcessFailed, boom)
			},
			want: "ERR: BufferProcessFailed",
		},
		{
			name: "wrapped kind",
			handler: func(context.Context, CommandOwned, *ResponseBuffer) error {
				return errors.Join(boom, ErrUnknownCommand)
			},
			want: "ERR: UnknownCommand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, ep, _ := newTestMachine(t, tt.handler)
			handshake(t, m, ep)

			require.NoError(t, m.Consume(context.Background(), frameOf(t, []byte{0x01, 0x02})))
			assert.Equal(t, []string{tt.want}, decodeFrames(t, ep.Written()))
		})
	}
}

func TestHandlerGetsOwnedPayload(t *testing.T) {
	t.Parallel()

	var got CommandOwned
	var m *StateMachine
	handler := HandlerFunc(func(_ context.Context, cmd CommandOwned, _ *ResponseBuffer) error {
		got = cmd
		payload := cmd.Command.(protocol.I2CWrite).Payload
		assert.Same(t, &m.pendingBuf.Bytes()[0], &payload[0])
		return nil
	})

	m, ep, _ := newTestMachine(t, handler)
	handshake(t, m, ep)

	require.NoError(t, m.Consume(context.Background(), frameOf(t, []byte{0x02, 0x02, 0x50, 0x01, 0xAA, 0xBB})))
	assert.Equal(t, protocol.I2CWrite{Address: 0x50, Register: 0x01, Payload: []byte{0xAA, 0xBB}}, got.Command)
	assert.Equal(t, []string{""}, decodeFrames(t, ep.Written()), "empty response is still framed")
}

func TestWriteRetry(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler, WithWriteRetry(time.Second, time.Millisecond))
	handshake(t, m, ep)

	ep.FailWrites(ErrBufferOverflow, ErrBufferOverflow, ErrBufferOverflow)
	require.NoError(t, m.Consume(context.Background(), frameOf(t, []byte{0x01, 0x02, 'r'})))
	assert.Equal(t, []string{"rp2040: r"}, decodeFrames(t, ep.Written()))
}

func TestWriteRetryDeadline(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler, WithWriteRetry(20*time.Millisecond, time.Millisecond))
	handshake(t, m, ep)

	errs := make([]error, 500)
	for i := range errs {
		errs[i] = ErrBufferOverflow
	}
	ep.FailWrites(errs...)

	err := m.Consume(context.Background(), frameOf(t, []byte{0x01, 0x02, 'r'}))
	require.ErrorIs(t, err, ErrBufferOverflow)
	assert.Empty(t, ep.Written())
	assert.Equal(t, State(StateWaitForMessage), m.State())
}

func TestFailedWriteKeepsRestOfRead(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)

	stall := errors.New("stall")
	ep.FailWrites(stall)

	var chunk []byte
	chunk = append(chunk, frameOf(t, []byte{0x01, 0x02, 'a'})...)
	chunk = append(chunk, frameOf(t, []byte{0x01, 0x02, 'b'})...)

	err := m.Consume(context.Background(), chunk)
	require.ErrorIs(t, err, stall)
	assert.Equal(t, []string{"rp2040: b"}, decodeFrames(t, ep.Written()))
	assert.Equal(t, State(StateWaitForMessage), m.State())
}

func TestWriteRetryDeadlineKeepsRestOfRead(t *testing.T) {
	t.Parallel()

	var executed []string
	handler := HandlerFunc(func(ctx context.Context, cmd CommandOwned, resp *ResponseBuffer) error {
		if echo, ok := cmd.Command.(protocol.EchoWrite); ok {
			executed = append(executed, string(echo.Payload))
		}
		return echoHandler(ctx, cmd, resp)
	})

	m, ep, _ := newTestMachine(t, handler, WithWriteRetry(20*time.Millisecond, time.Millisecond))
	handshake(t, m, ep)

	errs := make([]error, 500)
	for i := range errs {
		errs[i] = ErrBufferOverflow
	}
	ep.FailWrites(errs...)

	var chunk []byte
	chunk = append(chunk, frameOf(t, []byte{0x01, 0x02, 'a'})...)
	chunk = append(chunk, frameOf(t, []byte{0x01, 0x02, 'b'})...)

	err := m.Consume(context.Background(), chunk)
	require.ErrorIs(t, err, ErrBufferOverflow)
	assert.Equal(t, []string{"a", "b"}, executed)
	assert.True(t, m.frameBuf.IsEmpty())
	assert.Equal(t, State(StateWaitForMessage), m.State())
}

func TestWriteOtherErrorNotRetried(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler, WithWriteRetry(time.Second, time.Millisecond))
	handshake(t, m, ep)

	ep.FailWrites(ErrDisabled)
	err := m.Consume(context.Background(), frameOf(t, []byte{0x01, 0x02, 'r'}))
	require.ErrorIs(t, err, ErrDisabled)
	assert.Empty(t, ep.Written())
}

func TestResponseChunking(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)

	text := bytes.Repeat([]byte{'z'}, 200)
	require.NoError(t, m.Consume(context.Background(), frameOf(t, append([]byte{0x01, 0x02}, text...))))

	writes := ep.Writes()
	require.Len(t, writes, 4)
	for _, w := range writes {
		assert.LessOrEqual(t, len(w), ReadBufferSize)
	}
	assert.Equal(t, []string{"rp2040: " + string(text)}, decodeFrames(t, ep.Written()))
}

func TestResponseOverflowReportsPartial(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)

	// prefix plus 254 bytes overflows the response buffer
	text := bytes.Repeat([]byte{'z'}, frame.MaxPayloadSize-2)
	require.NoError(t, m.Consume(context.Background(), frameOf(t, append([]byte{0x01, 0x02}, text...))))

	frames := decodeFrames(t, ep.Written())
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0], "ERR: ExecutionFailed: rp2040: ")
	assert.LessOrEqual(t, len(frames[0]), MaxCommandSize)
}

func TestResetDiscardsConnectionState(t *testing.T) {
	t.Parallel()

	m, ep, _ := newTestMachine(t, echoHandler)
	handshake(t, m, ep)
	require.NoError(t, m.Consume(context.Background(), []byte{0x05, 0x01, 0x02}))

	m.Reset()
	assert.Equal(t, State(StateInit), m.State())
	assert.False(t, m.HandshakeComplete())
	assert.Zero(t, m.frameBuf.Len())

	require.NoError(t, m.Consume(context.Background(), nil))
	assert.Equal(t, State(StateWaitForHandshake), m.State())
	handshake(t, m, ep)
}

func currentStatus(t *testing.T, m *StateMachine) status.Pattern {
	t.Helper()
	p, ok := m.Status()
	require.True(t, ok, "no status published")
	return p
}

func TestStatusPatterns(t *testing.T) {
	t.Parallel()

	signal := status.NewSignal()
	m, ep, clock := newTestMachine(t, echoHandler, WithStatusSignal(signal))

	assert.Equal(t, status.BlinkPattern(status.ColourWarning, status.HandshakeBlinkPeriod), currentStatus(t, m))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	published, err := signal.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentStatus(t, m), published, "the signal carries the published pattern")

	handshake(t, m, ep)
	assert.Equal(t, status.SolidPattern(status.ColourIdle), currentStatus(t, m))

	require.NoError(t, m.Consume(context.Background(), frameOf(t, []byte{0x01, 0x02, 'a'})))
	success := status.BlinkPattern(status.ColourSuccess, status.SuccessBlinkPeriod)
	assert.Equal(t, success, currentStatus(t, m), "success stays latched after returning to idle")

	clock.Advance(status.SuccessHoldDuration)
	m.Tick()
	assert.Equal(t, status.SolidPattern(status.ColourIdle), currentStatus(t, m))

	require.NoError(t, m.Consume(context.Background(), frameOf(t, []byte{0xFF, 0x01})))
	assert.Equal(t, status.BlinkPattern(status.ColourError, status.ErrorBlinkPeriod), currentStatus(t, m))

	clock.Advance(status.ErrorHoldDuration)
	m.Tick()
	assert.Equal(t, status.SolidPattern(status.ColourIdle), currentStatus(t, m))
}

func TestTimeoutStatusPattern(t *testing.T) {
	t.Parallel()

	signal := status.NewSignal()
	m, _, clock := newTestMachine(t, echoHandler, WithStatusSignal(signal))

	clock.Advance(protocol.HandshakeTimeout)
	require.NoError(t, m.HandleHandshakeTimeout(context.Background()))
	assert.Equal(t, status.BlinkPattern(status.ColourWarning, status.DefaultBlinkPeriod), currentStatus(t, m))

	clock.Advance(status.WarningHoldDuration)
	m.Tick()
	assert.Equal(t, status.BlinkPattern(status.ColourWarning, status.HandshakeBlinkPeriod), currentStatus(t, m))
}

func TestErrorKindNames(t *testing.T) {
	t.Parallel()

	for _, kind := range []ErrorKind{
		ErrInvalidChecksum, ErrUnknownCommand, ErrTimeout, ErrExecutionFailed, ErrBufferProcessFailed,
	} {
		parsed, ok := ParseErrorKind(kind.String())
		require.True(t, ok)
		assert.Equal(t, kind, parsed)
		assert.Equal(t, kind.String(), kind.Error())
	}

	_, ok := ParseErrorKind("Nope")
	assert.False(t, ok)
	assert.Equal(t, "Error(Timeout)", ErrorState(ErrTimeout).String())
	assert.Equal(t, "WaitForMessage", State(StateWaitForMessage).String())
}

func TestChunkedCommandStream(t *testing.T) {
	t.Parallel()

	var seen []protocol.Command
	recorder := HandlerFunc(func(_ context.Context, cmd CommandOwned, resp *ResponseBuffer) error {
		// payloads live in machine storage that the next command reuses
		switch c := cmd.Command.(type) {
		case protocol.EchoWrite:
			c.Payload = bytes.Clone(c.Payload)
			seen = append(seen, c)
		case protocol.I2CWrite:
			c.Payload = bytes.Clone(c.Payload)
			seen = append(seen, c)
		default:
			seen = append(seen, c)
		}
		return resp.AppendString("ok")
	})
	m, ep, _ := newTestMachine(t, recorder)
	handshake(t, m, ep)

	var stream []byte
	stream = append(stream, testutil.BuildI2CReadCommand(0x68, 0x75, 1)...)
	stream = append(stream, testutil.BuildEchoCommand("mid")...)
	stream = append(stream, testutil.BuildI2CWriteCommand(0x3C, 0x00, 0xAE, 0xAF)...)
	for _, chunk := range testutil.SplitChunks(stream, 5) {
		require.NoError(t, m.Consume(context.Background(), chunk))
	}

	assert.Equal(t, []protocol.Command{
		protocol.I2CRead{Address: 0x68, Register: 0x75, Length: 1},
		protocol.EchoWrite{Payload: []byte("mid")},
		protocol.I2CWrite{Address: 0x3C, Register: 0x00, Payload: []byte{0xAE, 0xAF}},
	}, seen)
	assert.Equal(t, []string{"ok", "ok", "ok"}, decodeFrames(t, ep.Written()))
}
