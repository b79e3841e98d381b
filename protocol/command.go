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

package protocol

// Command is a decoded command. It is implemented by EchoWrite, I2CRead and
// I2CWrite only.
type Command interface {
	Method() Method
	Operation() Operation
	isCommand()
}

// EchoWrite asks the device to echo Payload back.
type EchoWrite struct {
	Payload []byte
}

// I2CRead reads Length bytes from Register of the device at Address.
type I2CRead struct {
	Address  uint8
	Register uint8
	Length   uint8
}

// I2CWrite writes Payload to Register of the device at Address.
type I2CWrite struct {
	Payload  []byte
	Address  uint8
	Register uint8
}

func (EchoWrite) Method() Method       { return MethodEcho }
func (EchoWrite) Operation() Operation { return OperationWrite }
func (EchoWrite) isCommand()           {}

func (I2CRead) Method() Method       { return MethodI2C }
func (I2CRead) Operation() Operation { return OperationRead }
func (I2CRead) isCommand()           {}

func (I2CWrite) Method() Method       { return MethodI2C }
func (I2CWrite) Operation() Operation { return OperationWrite }
func (I2CWrite) isCommand()           {}

// Decode parses the payload of one frame into a Command. Operand payloads
// alias b. The method/operation pair is checked against Dictionary before
// any operand is interpreted.
func Decode(b []byte) (Command, error) {
	if len(b) == 0 {
		return nil, &ProtocolError{Kind: ErrEmpty}
	}

	method := Method(b[0])
	if !method.Valid() {
		return nil, &ProtocolError{Kind: ErrUnknownMethod, Method: method}
	}
	if len(b) < 2 {
		return nil, &ProtocolError{Kind: ErrMalformedPayload, Method: method, Need: 2, Got: len(b)}
	}

	operation := Operation(b[1])
	if !operation.Valid() {
		return nil, &ProtocolError{Kind: ErrUnknownOperation, Method: method, Operation: operation}
	}

	def, ok := Lookup(method, operation)
	if !ok {
		return nil, &ProtocolError{Kind: ErrUnsupportedOperation, Method: method, Operation: operation}
	}

	operands := b[2:]
	if len(operands) < def.MinOperands {
		return nil, &ProtocolError{
			Kind:      ErrMalformedPayload,
			Method:    method,
			Operation: operation,
			Need:      def.MinOperands,
			Got:       len(operands),
		}
	}

	switch {
	case method == MethodEcho && operation == OperationWrite:
		return EchoWrite{Payload: operands}, nil
	case method == MethodI2C && operation == OperationRead:
		return I2CRead{Address: operands[0], Register: operands[1], Length: operands[2]}, nil
	case method == MethodI2C && operation == OperationWrite:
		return I2CWrite{Address: operands[0], Register: operands[1], Payload: operands[2:]}, nil
	default:
		return nil, &ProtocolError{Kind: ErrUnsupportedOperation, Method: method, Operation: operation}
	}
}

// Encode returns the wire bytes for cmd.
func Encode(cmd Command) []byte {
	out := []byte{byte(cmd.Method()), byte(cmd.Operation())}
	switch c := cmd.(type) {
	case EchoWrite:
		out = append(out, c.Payload...)
	case I2CRead:
		out = append(out, c.Address, c.Register, c.Length)
	case I2CWrite:
		out = append(out, c.Address, c.Register)
		out = append(out, c.Payload...)
	}
	return out
}
