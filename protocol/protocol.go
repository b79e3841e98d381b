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

// Package protocol defines the SiTerm command wire format shared by the
// device and the host: the handshake exchange, the method/operation
// selectors, the binary command decoder and the host text encoder.
//
// A command on the wire is
//
//	[method][operation][operands...]
//
// and is carried as the payload of one frame. The host builds commands from
// text such as "i2c write 0x50 0x01 0xAA"; the device decodes them with
// Decode. The two are exact inverses for every entry in Dictionary.
package protocol

import (
	"fmt"
	"strings"
	"time"
)

// Handshake exchange
const (
	HandshakeCommand   = "SiTerm?"
	HandshakeResponse  = "SiTerm v1.0"
	HandshakeDelimiter = "\n"
	HandshakeTimeout   = 3 * time.Second
)

// Method selects the peripheral a command targets.
type Method byte

// Methods. SPI, UART and PWM are reserved.
const (
	MethodEcho Method = 0x01
	MethodI2C  Method = 0x02
	MethodSPI  Method = 0x03
	MethodUART Method = 0x04
	MethodPWM  Method = 0x05
)

var methodNames = map[Method]string{
	MethodEcho: "echo",
	MethodI2C:  "i2c",
	MethodSPI:  "spi",
	MethodUART: "uart",
	MethodPWM:  "pwm",
}

// String returns the text keyword for the method.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(0x%02X)", byte(m))
}

// Valid reports whether m is a known method byte.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod maps a text keyword to a Method.
func ParseMethod(keyword string) (Method, bool) {
	for m, name := range methodNames {
		if strings.EqualFold(keyword, name) {
			return m, true
		}
	}
	return 0, false
}

// Operation selects read or write.
type Operation byte

// Operations
const (
	OperationRead  Operation = 0x01
	OperationWrite Operation = 0x02
)

// String returns the text keyword for the operation.
func (o Operation) String() string {
	switch o {
	case OperationRead:
		return "read"
	case OperationWrite:
		return "write"
	default:
		return fmt.Sprintf("operation(0x%02X)", byte(o))
	}
}

// Valid reports whether o is a known operation byte.
func (o Operation) Valid() bool {
	return o == OperationRead || o == OperationWrite
}

// ParseOperation maps a text keyword to an Operation.
func ParseOperation(keyword string) (Operation, bool) {
	switch {
	case strings.EqualFold(keyword, "read"):
		return OperationRead, true
	case strings.EqualFold(keyword, "write"):
		return OperationWrite, true
	default:
		return 0, false
	}
}

// Definition describes one supported command.
type Definition struct {
	Usage       string
	Description string
	// MinOperands is the shortest operand section the decoder accepts.
	MinOperands int
	Method      Method
	Operation   Operation
}

// Dictionary is the fixed set of supported commands.
var Dictionary = []Definition{
	{
		Method:      MethodEcho,
		Operation:   OperationWrite,
		MinOperands: 0,
		Usage:       "echo <text>",
		Description: "Echo text back with the device prefix",
	},
	{
		Method:      MethodI2C,
		Operation:   OperationRead,
		MinOperands: 3,
		Usage:       "i2c read <address> <register> [<length>]",
		Description: "Read bytes from a register of an I2C device",
	},
	{
		Method:      MethodI2C,
		Operation:   OperationWrite,
		MinOperands: 3,
		Usage:       "i2c write <address> <register> <byte> [<byte> ...]",
		Description: "Write bytes to a register of an I2C device",
	},
}

// Lookup returns the dictionary entry for a method/operation pair.
func Lookup(method Method, operation Operation) (Definition, bool) {
	for _, def := range Dictionary {
		if def.Method == method && def.Operation == operation {
			return def, true
		}
	}
	return Definition{}, false
}
