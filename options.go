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
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-siterm/protocol"
	"github.com/ZaparooProject/go-siterm/status"
)

// MachineConfig holds the timing of a StateMachine
type MachineConfig struct {
	HandshakeTimeout   time.Duration
	WriteRetryTimeout  time.Duration
	WriteRetryInterval time.Duration
	StatusPollInterval time.Duration
}

// DefaultMachineConfig returns the timing used by the device firmware
func DefaultMachineConfig() *MachineConfig {
	return &MachineConfig{
		HandshakeTimeout:   protocol.HandshakeTimeout,
		WriteRetryTimeout:  DefaultWriteRetryTimeout,
		WriteRetryInterval: DefaultWriteRetryInterval,
		StatusPollInterval: DefaultStatusPollInterval,
	}
}

// Validate checks that every duration is usable
func (c *MachineConfig) Validate() error {
	if c.HandshakeTimeout <= 0 {
		return errors.New("handshake timeout must be positive")
	}
	if c.WriteRetryTimeout < 0 {
		return errors.New("write retry timeout must not be negative")
	}
	if c.WriteRetryInterval <= 0 {
		return errors.New("write retry interval must be positive")
	}
	if c.StatusPollInterval <= 0 {
		return errors.New("status poll interval must be positive")
	}
	return nil
}

// Option is a functional option for configuring a StateMachine
type Option func(*StateMachine) error

// WithConfig replaces the whole machine configuration
func WithConfig(config *MachineConfig) Option {
	return func(m *StateMachine) error {
		if config == nil {
			return errors.New("nil machine config")
		}
		cfg := *config
		m.config = &cfg
		return nil
	}
}

// WithLogger sets the logger for state transitions and faults
func WithLogger(logger zerolog.Logger) Option {
	return func(m *StateMachine) error {
		m.logger = logger
		return nil
	}
}

// WithStatusSignal publishes status indicator patterns to signal
func WithStatusSignal(signal *status.Signal) Option {
	return func(m *StateMachine) error {
		m.selector = status.NewSelector(signal)
		return nil
	}
}

// WithClock replaces time.Now for deadline and latch bookkeeping
func WithClock(now func() time.Time) Option {
	return func(m *StateMachine) error {
		if now == nil {
			return errors.New("nil clock")
		}
		m.now = now
		return nil
	}
}

// WithHandshakeTimeout sets how long a new connection may take to handshake
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(m *StateMachine) error {
		if timeout <= 0 {
			return errors.New("handshake timeout must be positive")
		}
		m.config.HandshakeTimeout = timeout
		return nil
	}
}

// WithWriteRetry sets the deadline and interval for retrying rejected writes
func WithWriteRetry(timeout, interval time.Duration) Option {
	return func(m *StateMachine) error {
		if timeout < 0 || interval <= 0 {
			return errors.New("invalid write retry timing")
		}
		m.config.WriteRetryTimeout = timeout
		m.config.WriteRetryInterval = interval
		return nil
	}
}
