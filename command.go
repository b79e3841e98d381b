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
	"github.com/ZaparooProject/go-siterm/internal/buffer"
	"github.com/ZaparooProject/go-siterm/protocol"
)

// ResponseBuffer is the fixed-capacity buffer a Handler writes its response
// into.
type ResponseBuffer = buffer.Buffer

// CommandOwned is a decoded command whose operand bytes live in storage
// owned by the state machine rather than in the receive buffer. The payload
// is valid until the next command is decoded.
type CommandOwned struct {
	Command protocol.Command
}

// newCommandOwned copies the payload of cmd into storage.
func newCommandOwned(cmd protocol.Command, storage *buffer.Buffer) (CommandOwned, error) {
	switch c := cmd.(type) {
	case protocol.EchoWrite:
		if err := storage.Set(c.Payload); err != nil {
			return CommandOwned{}, ErrBufferProcessFailed
		}
		return CommandOwned{Command: protocol.EchoWrite{Payload: storage.Bytes()}}, nil
	case protocol.I2CWrite:
		if err := storage.Set(c.Payload); err != nil {
			return CommandOwned{}, ErrBufferProcessFailed
		}
		return CommandOwned{Command: protocol.I2CWrite{
			Address:  c.Address,
			Register: c.Register,
			Payload:  storage.Bytes(),
		}}, nil
	default:
		storage.Clear()
		return CommandOwned{Command: cmd}, nil
	}
}
