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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-siterm/status"
)

// StateKind identifies a state of the connection state machine.
type StateKind uint8

// States
const (
	StateInit StateKind = iota
	StateWaitForHandshake
	StateWaitForMessage
	StateParseCommand
	StateExecuteAction
	StateSendResponse
	StateError
)

func (k StateKind) String() string {
	switch k {
	case StateInit:
		return "Init"
	case StateWaitForHandshake:
		return "WaitForHandshake"
	case StateWaitForMessage:
		return "WaitForMessage"
	case StateParseCommand:
		return "ParseCommand"
	case StateExecuteAction:
		return "ExecuteAction"
	case StateSendResponse:
		return "SendResponse"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("StateKind(%d)", uint8(k))
	}
}

// SystemState is a state of the machine. Err is set only when Kind is
// StateError.
type SystemState struct {
	Kind StateKind
	Err  ErrorKind
}

// State builds a non-error state.
func State(kind StateKind) SystemState {
	return SystemState{Kind: kind}
}

// ErrorState builds the error state carrying kind.
func ErrorState(kind ErrorKind) SystemState {
	return SystemState{Kind: StateError, Err: kind}
}

func (s SystemState) String() string {
	if s.Kind == StateError {
		return fmt.Sprintf("Error(%s)", s.Err)
	}
	return s.Kind.String()
}

// statusPattern returns the indicator pattern for s and how long it must
// stay visible.
func (s SystemState) statusPattern() (status.Pattern, time.Duration) {
	switch s.Kind {
	case StateWaitForHandshake:
		return status.BlinkPattern(status.ColourWarning, status.HandshakeBlinkPeriod), 0
	case StateParseCommand, StateExecuteAction:
		return status.PulsePattern(status.ColourCommunicating, status.CommunicationPulsePeriod), 0
	case StateSendResponse:
		return status.BlinkPattern(status.ColourSuccess, status.SuccessBlinkPeriod), status.SuccessHoldDuration
	case StateError:
		if s.Err == ErrTimeout {
			return status.BlinkPattern(status.ColourWarning, status.DefaultBlinkPeriod), status.WarningHoldDuration
		}
		return status.BlinkPattern(status.ColourError, status.ErrorBlinkPeriod), status.ErrorHoldDuration
	default:
		return status.SolidPattern(status.ColourIdle), 0
	}
}
