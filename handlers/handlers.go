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

// Package handlers executes decoded commands on the device peripherals.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"

	siterm "github.com/ZaparooProject/go-siterm"
	"github.com/ZaparooProject/go-siterm/protocol"
)

// DefaultEchoPrefix is prepended to every echo response
const DefaultEchoPrefix = "rp2040: "

// i2cOK is the response to a successful I2C write.
const i2cOK = "OK"

// Handler errors
var (
	ErrNoBus          = errors.New("no i2c bus configured")
	ErrReadTooLong    = errors.New("i2c read longer than response buffer")
	ErrResponseTooBig = errors.New("response exceeds buffer")
)

// Table dispatches commands to their peripheral. It implements
// siterm.Handler and, like the state machine, is used from one goroutine.
type Table struct {
	bus        i2c.Bus
	logger     zerolog.Logger
	echoPrefix string
	readBuf    [siterm.MaxCommandSize]byte
	writeBuf   [siterm.MaxCommandSize + 1]byte
}

// Option is a functional option for configuring a Table
type Option func(*Table)

// WithBus sets the I2C bus used by I2C commands
func WithBus(bus i2c.Bus) Option {
	return func(t *Table) {
		t.bus = bus
	}
}

// WithLogger sets the logger for peripheral activity
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// WithEchoPrefix replaces DefaultEchoPrefix
func WithEchoPrefix(prefix string) Option {
	return func(t *Table) {
		t.echoPrefix = prefix
	}
}

// New creates a handler table. Without WithBus, I2C commands fail with
// ExecutionFailed.
func New(opts ...Option) *Table {
	t := &Table{
		logger:     log.Logger,
		echoPrefix: DefaultEchoPrefix,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute runs cmd and writes its response into resp
func (t *Table) Execute(ctx context.Context, cmd siterm.CommandOwned, resp *siterm.ResponseBuffer) error {
	if err := ctx.Err(); err != nil {
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, err)
	}

	switch c := cmd.Command.(type) {
	case protocol.EchoWrite:
		return t.echo(c, resp)
	case protocol.I2CRead:
		return t.i2cRead(c, resp)
	case protocol.I2CWrite:
		return t.i2cWrite(c, resp)
	default:
		return siterm.ErrUnknownCommand
	}
}

func (t *Table) echo(c protocol.EchoWrite, resp *siterm.ResponseBuffer) error {
	if err := resp.AppendString(t.echoPrefix); err != nil {
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, ErrResponseTooBig)
	}
	if err := resp.Append(c.Payload); err != nil {
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, ErrResponseTooBig)
	}
	return nil
}

func (t *Table) i2cRead(c protocol.I2CRead, resp *siterm.ResponseBuffer) error {
	if t.bus == nil {
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, ErrNoBus)
	}
	length := int(c.Length)
	if length > resp.Remaining() {
		return siterm.NewHandlerError(siterm.ErrExecutionFailed,
			fmt.Errorf("%w: %d bytes", ErrReadTooLong, length))
	}

	register := [1]byte{c.Register}
	read := t.readBuf[:length]
	if err := t.bus.Tx(uint16(c.Address), register[:], read); err != nil {
		t.logger.Debug().Err(err).
			Uint8("address", c.Address).
			Uint8("register", c.Register).
			Msg("i2c read failed")
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, fmt.Errorf("i2c read 0x%02X: %w", c.Address, err))
	}

	t.logger.Trace().Uint8("address", c.Address).Uint8("register", c.Register).Int("len", length).Msg("i2c read")
	return resp.Append(read)
}

func (t *Table) i2cWrite(c protocol.I2CWrite, resp *siterm.ResponseBuffer) error {
	if t.bus == nil {
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, ErrNoBus)
	}
	if len(c.Payload)+1 > len(t.writeBuf) {
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, ErrResponseTooBig)
	}

	t.writeBuf[0] = c.Register
	n := 1 + copy(t.writeBuf[1:], c.Payload)
	if err := t.bus.Tx(uint16(c.Address), t.writeBuf[:n], nil); err != nil {
		t.logger.Debug().Err(err).
			Uint8("address", c.Address).
			Uint8("register", c.Register).
			Msg("i2c write failed")
		return siterm.NewHandlerError(siterm.ErrExecutionFailed, fmt.Errorf("i2c write 0x%02X: %w", c.Address, err))
	}

	t.logger.Trace().Uint8("address", c.Address).Uint8("register", c.Register).Int("len", len(c.Payload)).Msg("i2c write")
	return resp.AppendString(i2cOK)
}
