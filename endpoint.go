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

import "context"

// Endpoint is a packet-oriented serial link to one host at a time.
// It can be implemented by a PTY, a UART or a USB CDC class.
type Endpoint interface {
	// WaitConnection blocks until a host is attached
	WaitConnection(ctx context.Context) error

	// ReadPacket reads one packet into p. It returns ErrDisabled once the
	// host has gone and ErrBufferOverflow if received data was lost.
	ReadPacket(p []byte) (int, error)

	// WritePacket writes one packet of at most MaxPacketSize bytes. It
	// returns ErrBufferOverflow when the link cannot accept data right now.
	WritePacket(p []byte) error

	// MaxPacketSize returns the largest packet WritePacket accepts
	MaxPacketSize() int

	// Type returns the endpoint type
	Type() EndpointType
}

// EndpointType represents the type of endpoint
type EndpointType string

const (
	// EndpointPTY is a pseudo-terminal master.
	EndpointPTY EndpointType = "pty"
	// EndpointUART is a serial port.
	EndpointUART EndpointType = "uart"
	// EndpointMock is a mock endpoint for testing
	EndpointMock EndpointType = "mock"
)

// Handler executes decoded commands.
type Handler interface {
	// Execute runs cmd and appends its response to resp. A returned
	// ErrorKind, possibly wrapped, selects the fault reported to the host;
	// any other error is reported as ErrExecutionFailed. Bytes already in
	// resp are sent with the fault as partial context.
	Execute(ctx context.Context, cmd CommandOwned, resp *ResponseBuffer) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, cmd CommandOwned, resp *ResponseBuffer) error

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, cmd CommandOwned, resp *ResponseBuffer) error {
	return f(ctx, cmd, resp)
}
