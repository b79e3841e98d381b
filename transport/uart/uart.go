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

// Package uart provides a siterm.Endpoint on a serial port.
package uart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	siterm "github.com/ZaparooProject/go-siterm"
)

const (
	// DefaultBaudRate is used when New is given a zero baud rate
	DefaultBaudRate = 115200

	// DefaultReopenInterval is the delay between attempts to open a
	// missing port
	DefaultReopenInterval = 500 * time.Millisecond
)

// Opener opens a serial port. serial.Open is used unless WithOpener is given.
type Opener func(name string, mode *serial.Mode) (serial.Port, error)

// Endpoint is a siterm.Endpoint backed by a serial port. A UART has no
// notion of a host attaching, so the link counts as connected while the
// port is open.
type Endpoint struct {
	port           serial.Port
	open           Opener
	logger         zerolog.Logger
	portName       string
	mode           serial.Mode
	reopenInterval time.Duration
	mu             sync.Mutex
}

// Option is a functional option for configuring an Endpoint
type Option func(*Endpoint) error

// WithOpener replaces serial.Open
func WithOpener(open Opener) Option {
	return func(e *Endpoint) error {
		if open == nil {
			return errors.New("opener cannot be nil")
		}
		e.open = open
		return nil
	}
}

// WithReopenInterval sets the delay between attempts to open the port
func WithReopenInterval(d time.Duration) Option {
	return func(e *Endpoint) error {
		if d <= 0 {
			return fmt.Errorf("reopen interval must be positive, got %v", d)
		}
		e.reopenInterval = d
		return nil
	}
}

// WithLogger sets the logger for port events
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Endpoint) error {
		e.logger = logger
		return nil
	}
}

// New creates an endpoint for portName. The port is opened by
// WaitConnection.
func New(portName string, baudRate int, opts ...Option) (*Endpoint, error) {
	if portName == "" {
		return nil, errors.New("port name cannot be empty")
	}
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if baudRate < 0 {
		return nil, fmt.Errorf("invalid baud rate %d", baudRate)
	}

	e := &Endpoint{
		open:     serial.Open,
		logger:   log.Logger,
		portName: portName,
		mode: serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		reopenInterval: DefaultReopenInterval,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// WaitConnection opens the port, retrying every reopen interval while it
// is missing or busy.
func (e *Endpoint) WaitConnection(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := e.tryOpen()
		if err == nil {
			return nil
		}
		if !retryableOpen(err) {
			return fmt.Errorf("open %s: %w", e.portName, err)
		}
		e.logger.Trace().Err(err).Str("port", e.portName).Msg("serial port not available")

		timer := time.NewTimer(e.reopenInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (e *Endpoint) tryOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.port != nil {
		return nil
	}

	mode := e.mode
	port, err := e.open(e.portName, &mode)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		_ = port.Close()
		return err
	}
	_ = port.ResetInputBuffer()

	e.port = port
	e.logger.Debug().Str("port", e.portName).Int("baud", e.mode.BaudRate).Msg("serial port opened")
	return nil
}

// ReadPacket reads whatever bytes are available, up to len(p)
func (e *Endpoint) ReadPacket(p []byte) (int, error) {
	port := e.current()
	if port == nil {
		return 0, siterm.ErrDisabled
	}

	n, err := port.Read(p)
	if err != nil {
		return n, e.fail(port, err)
	}
	return n, nil
}

// WritePacket writes all of p
func (e *Endpoint) WritePacket(p []byte) error {
	if len(p) > siterm.ReadBufferSize {
		return siterm.ErrBufferOverflow
	}
	port := e.current()
	if port == nil {
		return siterm.ErrDisabled
	}

	for len(p) > 0 {
		n, err := port.Write(p)
		if err != nil {
			return e.fail(port, err)
		}
		if n == 0 {
			return siterm.ErrBufferOverflow
		}
		p = p[n:]
	}
	return nil
}

// MaxPacketSize returns the USB full-speed bulk packet size
func (*Endpoint) MaxPacketSize() int {
	return siterm.ReadBufferSize
}

// Type returns EndpointUART
func (*Endpoint) Type() siterm.EndpointType {
	return siterm.EndpointUART
}

// PortName returns the serial port path
func (e *Endpoint) PortName() string {
	return e.portName
}

// Close closes the port. A later WaitConnection reopens it.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	port := e.port
	e.port = nil
	e.mu.Unlock()

	if port == nil {
		return nil
	}
	if err := port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", e.portName, err)
	}
	return nil
}

func (e *Endpoint) current() serial.Port {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.port
}

// fail maps err onto the siterm sentinels. A lost port is closed so the
// other direction sees ErrDisabled too.
func (e *Endpoint) fail(port serial.Port, err error) error {
	if !portGone(err) {
		return fmt.Errorf("serial %s: %w", e.portName, err)
	}

	e.mu.Lock()
	if e.port == port {
		e.port = nil
		_ = port.Close()
	}
	e.mu.Unlock()

	e.logger.Debug().Err(err).Str("port", e.portName).Msg("serial port lost")
	return fmt.Errorf("%w: %w", siterm.ErrDisabled, err)
}

func portGone(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortClosed, serial.PortNotFound:
			return true
		default:
			return false
		}
	}
	return deviceGone(err) || errors.Is(err, os.ErrClosed)
}

func retryableOpen(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortBusy:
			return true
		default:
			return false
		}
	}
	return errors.Is(err, os.ErrNotExist)
}
