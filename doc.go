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

/*
Package siterm implements the device side of the SiTerm serial command link.

A host talks to the device over a byte stream with no message boundaries,
such as a USB CDC serial port. After a plaintext handshake the host sends
length-framed binary commands; the device decodes each one, runs it on a
peripheral handler and answers with one framed response or one framed
"ERR: <kind>" fault.

Features:
  - Fixed-capacity buffers allocated once per StateMachine
  - Handshake deadline with automatic recovery
  - Frame reassembly across arbitrary read boundaries
  - Write retry on a full endpoint with a bounded deadline
  - Status indicator patterns with latched hold times
  - PTY and UART endpoints for running on a regular host

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-siterm"
	    "github.com/ZaparooProject/go-siterm/handlers"
	    "github.com/ZaparooProject/go-siterm/transport/pty"
	)

	endpoint, err := pty.Open(pty.WithLink("/tmp/siterm"))
	if err != nil {
	    log.Fatal(err)
	}
	defer endpoint.Close()

	machine, err := siterm.New(endpoint, handlers.New(),
	    siterm.WithLogger(logger),
	)
	if err != nil {
	    log.Fatal(err)
	}

	// Serve connections until ctx is cancelled
	if err := machine.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    log.Fatal(err)
	}

Host side:

	c, err := client.Dial(ctx, "/dev/ttyACM0")
	if err != nil {
	    log.Fatal(err)
	}
	defer c.Close()

	resp, err := c.Send(ctx, "echo hello")
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(string(resp.Payload)) // rp2040: hello

Wire format:

The handshake is the line "SiTerm?\n", answered with "SiTerm v1.0". Every
later message is a frame: an unsigned LEB128 payload length followed by at
most 256 payload bytes. A command payload is

	[method][operation][operands...]

with methods Echo (0x01) and I2C (0x02) and operations Read (0x01) and
Write (0x02). See package protocol for the operand layouts and the text
syntax accepted by the host.

Faults:

Every fault is reported to the host as one frame and the connection stays
usable. InvalidChecksum covers framing and capacity faults, UnknownCommand
covers unsupported selectors, Timeout a missed handshake deadline,
ExecutionFailed a handler failure and BufferProcessFailed a failed internal
copy.
*/
package siterm
