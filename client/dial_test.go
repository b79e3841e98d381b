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

package client

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/ZaparooProject/go-siterm/internal/transport"
	"github.com/ZaparooProject/go-siterm/protocol"
)

// pipePort is a serial.Port over one end of a net.Pipe
type pipePort struct {
	net.Conn
}

func (pipePort) SetMode(*serial.Mode) error { return nil }
func (pipePort) Drain() error { return nil }
func (pipePort) ResetInputBuffer() error { return nil }
func (pipePort) ResetOutputBuffer() error { return nil }
func (pipePort) SetDTR(bool) error { return nil }
func (pipePort) SetRTS(bool) error { return nil }
func (pipePort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return &serial.ModemStatusBits{}, nil }
func (pipePort) SetReadTimeout(time.Duration) error { return nil }
func (pipePort) Break(time.Duration) error { return nil }

// flakyOpener fails with errs in order, then hands out port
type flakyOpener struct {
	port  serial.Port
	errs  []error
	modes []serial.Mode
	calls int
	mu    sync.Mutex
}

func (o *flakyOpener) open(_ string, mode *serial.Mode) (serial.Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	o.modes = append(o.modes, *mode)
	if len(o.errs) > 0 {
		err := o.errs[0]
		if len(o.errs) > 1 {
			o.errs = o.errs[1:]
		} else if o.port != nil {
			o.errs = nil
		}
		return nil, err
	}
	return o.port, nil
}

func (o *flakyOpener) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func dialOptions(o *flakyOpener, retries int) []Option {
	return []Option{
		WithOpener(o.open),
		WithOpenRetries(retries, time.Millisecond),
		WithLogger(zerolog.Nop()),
		WithHandshakeTimeout(time.Second),
	}
}

func TestDialRetriesMissingPort(t *testing.T) {
	t.Parallel()

	host, device := net.Pipe()
	defer func() { _ = device.Close() }()

	o := &flakyOpener{port: pipePort{host}, errs: []error{os.ErrNotExist, os.ErrNotExist}}
	go func() {
		readHandshake(t, device)
		_, _ = device.Write([]byte(protocol.HandshakeResponse))
	}()

	c, err := Dial(context.Background(), "/dev/ttyACM0", append(dialOptions(o, 3), WithBaudRate(9600))...)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, 3, o.callCount())
	for _, mode := range o.modes {
		assert.Equal(t, 9600, mode.BaudRate)
		assert.Equal(t, 8, mode.DataBits)
		assert.Equal(t, serial.NoParity, mode.Parity)
		assert.Equal(t, serial.OneStopBit, mode.StopBits)
	}
}

func TestDialRetriesExhausted(t *testing.T) {
	t.Parallel()

	o := &flakyOpener{errs: []error{os.ErrNotExist}}
	_, err := Dial(context.Background(), "/dev/ttyACM0", dialOptions(o, 2)...)
	require.ErrorIs(t, err, transport.ErrRetriesExhausted)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrorTypeTransient, GetErrorType(err))
	assert.Equal(t, 3, o.callCount())
}

func TestDialPermanentOpenError(t *testing.T) {
	t.Parallel()

	denied := errors.New("permission denied")
	o := &flakyOpener{errs: []error{denied}}
	_, err := Dial(context.Background(), "/dev/ttyACM0", dialOptions(o, 5)...)
	require.ErrorIs(t, err, denied)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 1, o.callCount())
}

func TestDialCancelledWhileRetrying(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := &flakyOpener{errs: []error{os.ErrNotExist}}
	_, err := Dial(ctx, "/dev/ttyACM0", WithOpener(o.open), WithLogger(zerolog.Nop()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(err))
	assert.Equal(t, 1, o.callCount())
}

func TestOpenRetriesValidation(t *testing.T) {
	t.Parallel()

	_, err := Dial(context.Background(), "/dev/ttyACM0", WithOpenRetries(-1, 0))
	require.Error(t, err)
	_, err = Dial(context.Background(), "/dev/ttyACM0", WithOpenRetries(1, -time.Second))
	require.Error(t, err)
	_, err = Dial(context.Background(), "/dev/ttyACM0", WithOpener(nil))
	require.Error(t, err)
}
