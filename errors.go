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
	"errors"
	"fmt"
)

// Endpoint errors
var (
	// ErrDisabled reports that the host side of the link went away.
	ErrDisabled = errors.New("endpoint disabled")
	// ErrBufferOverflow reports that the endpoint could not accept or deliver
	// a packet because a buffer was full.
	ErrBufferOverflow = errors.New("endpoint buffer overflow")
)

// ErrorKind is the category of fault reported to the host as "ERR: <kind>".
type ErrorKind uint8

// Fault categories
const (
	// ErrInvalidChecksum covers framing, decoding and receive capacity faults.
	ErrInvalidChecksum ErrorKind = iota + 1
	// ErrUnknownCommand is a method or operation that is not supported.
	ErrUnknownCommand
	// ErrTimeout is a handshake that did not arrive in time.
	ErrTimeout
	// ErrExecutionFailed is a handler failure.
	ErrExecutionFailed
	// ErrBufferProcessFailed is a failed copy into machine-owned storage.
	ErrBufferProcessFailed
)

// String returns the name sent on the wire.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidChecksum:
		return "InvalidChecksum"
	case ErrUnknownCommand:
		return "UnknownCommand"
	case ErrTimeout:
		return "Timeout"
	case ErrExecutionFailed:
		return "ExecutionFailed"
	case ErrBufferProcessFailed:
		return "BufferProcessFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

// ParseErrorKind maps a wire name back to its ErrorKind.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for k := ErrInvalidChecksum; k <= ErrBufferProcessFailed; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// HandlerError attaches a fault category to an underlying handler error.
type HandlerError struct {
	Err  error
	Kind ErrorKind
}

func (e *HandlerError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *HandlerError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewHandlerError wraps err so that the state machine reports it as kind.
func NewHandlerError(kind ErrorKind, err error) error {
	return &HandlerError{Kind: kind, Err: err}
}

// kindOf maps a handler error to its fault category.
func kindOf(err error) ErrorKind {
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	return ErrExecutionFailed
}
