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

// Package testing builds wire fixtures for tests.
package testing

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ZaparooProject/go-siterm/internal/frame"
	"github.com/ZaparooProject/go-siterm/protocol"
)

// HandshakeLine returns the line a host sends to start a session
func HandshakeLine() []byte {
	return []byte(protocol.HandshakeCommand + protocol.HandshakeDelimiter)
}

// BuildFrame wraps payload in a frame envelope. Unlike frame.Append it does
// not check the size, so it can build frames the decoder must reject.
func BuildFrame(payload []byte) []byte {
	return protowire.AppendBytes(nil, payload)
}

// BuildFrames concatenates one frame per payload
func BuildFrames(payloads ...[]byte) []byte {
	var out []byte
	for _, p := range payloads {
		out = protowire.AppendBytes(out, p)
	}
	return out
}

// BuildEchoCommand creates a framed echo command
func BuildEchoCommand(text string) []byte {
	return BuildFrame(protocol.Encode(protocol.EchoWrite{Payload: []byte(text)}))
}

// BuildI2CReadCommand creates a framed I2C read command
func BuildI2CReadCommand(address, register, length byte) []byte {
	return BuildFrame(protocol.Encode(protocol.I2CRead{Address: address, Register: register, Length: length}))
}

// BuildI2CWriteCommand creates a framed I2C write command
func BuildI2CWriteCommand(address, register byte, data ...byte) []byte {
	return BuildFrame(protocol.Encode(protocol.I2CWrite{Address: address, Register: register, Payload: data}))
}

// BuildErrorResponse creates the framed fault the device sends for kind
func BuildErrorResponse(kind, partial string) []byte {
	body := "ERR: " + kind
	if partial != "" {
		body += ": " + partial
	}
	return BuildFrame([]byte(body))
}

// DecodeFrames splits data into frame payloads. Trailing bytes that do not
// form a whole frame are an error.
func DecodeFrames(data []byte) ([][]byte, error) {
	var out [][]byte
	for len(data) > 0 {
		frm, n, err := frame.Decode(data)
		if err != nil {
			return out, err
		}
		out = append(out, frm.Payload)
		data = data[n:]
	}
	return out, nil
}

// SplitChunks cuts data into pieces of at most size bytes, the way a host
// write is split into USB packets.
func SplitChunks(data []byte, size int) [][]byte {
	if size <= 0 {
		return [][]byte{data}
	}
	var out [][]byte
	for len(data) > size {
		out = append(out, data[:size])
		data = data[size:]
	}
	if len(data) > 0 {
		out = append(out, data)
	}
	return out
}
