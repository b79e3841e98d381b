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

package client

import (
	"bytes"
	"errors"
	"fmt"

	siterm "github.com/ZaparooProject/go-siterm"
)

// Client errors
var (
	ErrHandshakeMismatch = errors.New("unexpected handshake response")
	ErrTimeout           = errors.New("timeout waiting for device")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrFrameCorrupted    = errors.New("frame corrupted")
	ErrCommandTooLarge   = errors.New("command too large")
)

// ErrorType classifies transport failures
type ErrorType int

const (
	// ErrorTypePermanent failures will not go away by retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient failures may succeed on retry
	ErrorTypeTransient
	// ErrorTypeTimeout failures are deadlines that expired
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError is a failure talking to the device
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError. Timeout and transient
// errors are retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTimeout, ErrorTypeTimeout)
}

// NewFrameCorruptedError creates a retryable framing error
func NewFrameCorruptedError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrFrameCorrupted, cause), ErrorTypeTransient)
}

// IsRetryable reports whether err is worth retrying
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrFrameCorrupted)
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrFrameCorrupted):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// RemoteError is a fault reported by the device
type RemoteError struct {
	Partial []byte
	Kind    siterm.ErrorKind
}

func (e *RemoteError) Error() string {
	if len(e.Partial) > 0 {
		return fmt.Sprintf("device error %s: %q", e.Kind, e.Partial)
	}
	return "device error " + e.Kind.String()
}

// Unwrap returns the kind so errors.Is(err, siterm.ErrTimeout) works
func (e *RemoteError) Unwrap() error {
	return e.Kind
}

// ParseRemoteError parses an "ERR: <Kind>[: <partial>]" payload. It
// returns nil for any other payload.
func ParseRemoteError(payload []byte) *RemoteError {
	rest, ok := bytes.CutPrefix(payload, []byte(siterm.ErrorPrefix))
	if !ok {
		return nil
	}
	name, partial, _ := bytes.Cut(rest, []byte(": "))
	kind, ok := siterm.ParseErrorKind(string(name))
	if !ok {
		return nil
	}
	return &RemoteError{Kind: kind, Partial: partial}
}
