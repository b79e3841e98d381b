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

import (
	"errors"
	"fmt"
)

// Decode errors
var (
	ErrEmpty                = errors.New("empty command")
	ErrUnknownMethod        = errors.New("unknown method")
	ErrUnknownOperation     = errors.New("unknown operation")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrMalformedPayload     = errors.New("malformed payload")
)

// ProtocolError describes why a byte sequence is not a valid command.
type ProtocolError struct {
	Kind      error
	Method    Method
	Operation Operation
	Need      int
	Got       int
}

func (e *ProtocolError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrUnknownMethod):
		return fmt.Sprintf("%v: 0x%02X", e.Kind, byte(e.Method))
	case errors.Is(e.Kind, ErrUnknownOperation):
		return fmt.Sprintf("%v: 0x%02X for %s", e.Kind, byte(e.Operation), e.Method)
	case errors.Is(e.Kind, ErrUnsupportedOperation):
		return fmt.Sprintf("%v: %s %s", e.Kind, e.Method, e.Operation)
	case errors.Is(e.Kind, ErrMalformedPayload):
		return fmt.Sprintf("%v: need %d bytes, got %d", e.Kind, e.Need, e.Got)
	default:
		return e.Kind.Error()
	}
}

func (e *ProtocolError) Unwrap() error {
	return e.Kind
}

// Encode errors
var (
	ErrEncodeEmpty         = errors.New("empty input")
	ErrEncodeUnknownMethod = errors.New("unknown method")
	ErrEncodeUnknownOp     = errors.New("unknown operation")
	ErrEncodeUnsupported   = errors.New("unsupported operation")
	ErrMissingOperation    = errors.New("missing operation")
	ErrMissingArgument     = errors.New("missing argument")
	ErrUnexpectedArgument  = errors.New("unexpected argument")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// EncodeError describes why a text command could not be encoded. Index is
// the zero-based argument position for argument errors.
type EncodeError struct {
	Kind      error
	Token     string
	Index     int
	Method    Method
	Operation Operation
}

func (e *EncodeError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrMissingArgument),
		errors.Is(e.Kind, ErrUnexpectedArgument):
		return fmt.Sprintf("%v at position %d", e.Kind, e.Index)
	case errors.Is(e.Kind, ErrInvalidArgument):
		return fmt.Sprintf("%v at position %d: %q", e.Kind, e.Index, e.Token)
	case errors.Is(e.Kind, ErrEncodeUnknownMethod),
		errors.Is(e.Kind, ErrEncodeUnknownOp):
		return fmt.Sprintf("%v: %q", e.Kind, e.Token)
	case errors.Is(e.Kind, ErrEncodeUnsupported):
		return fmt.Sprintf("%v: %s %s", e.Kind, e.Method, e.Operation)
	default:
		return e.Kind.Error()
	}
}

func (e *EncodeError) Unwrap() error {
	return e.Kind
}
