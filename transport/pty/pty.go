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

// Package pty provides a siterm.Endpoint on a pseudo-terminal master. The
// host opens the slave side like any serial port.
package pty

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	siterm "github.com/ZaparooProject/go-siterm"
)

// DefaultPollInterval is how often WaitConnection checks for a host
const DefaultPollInterval = 50 * time.Millisecond

// ErrUnsupported is returned by Open where pseudo-terminals are unavailable
var ErrUnsupported = errors.New("pty endpoint not supported on this platform")

// Endpoint is a siterm.Endpoint on a PTY master
type Endpoint struct {
	master       *os.File
	logger       zerolog.Logger
	slavePath    string
	link         string
	pollInterval time.Duration
	closeOnce    sync.Once
}

// Option is a functional option for configuring an Endpoint
type Option func(*Endpoint) error

// WithLink creates a symlink at path pointing to the slave device. An
// existing symlink is replaced; any other file is an error.
func WithLink(path string) Option {
	return func(e *Endpoint) error {
		e.link = path
		return nil
	}
}

// WithPollInterval sets how often WaitConnection checks for a host
func WithPollInterval(d time.Duration) Option {
	return func(e *Endpoint) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive, got %v", d)
		}
		e.pollInterval = d
		return nil
	}
}

// WithLogger sets the logger for connection events
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Endpoint) error {
		e.logger = logger
		return nil
	}
}

func newEndpoint(opts []Option) (*Endpoint, error) {
	e := &Endpoint{
		logger:       log.Logger,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SlavePath returns the path the host opens, e.g. /dev/pts/3
func (e *Endpoint) SlavePath() string {
	return e.slavePath
}

// Link returns the symlink created by WithLink, or ""
func (e *Endpoint) Link() string {
	return e.link
}

// MaxPacketSize returns the USB full-speed bulk packet size
func (*Endpoint) MaxPacketSize() int {
	return siterm.ReadBufferSize
}

// Type returns EndpointPTY
func (*Endpoint) Type() siterm.EndpointType {
	return siterm.EndpointPTY
}

// Close releases the master and removes the symlink
func (e *Endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.link != "" {
			if rmErr := os.Remove(e.link); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = fmt.Errorf("remove link: %w", rmErr)
			}
		}
		if e.master != nil {
			if closeErr := e.master.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("close pty master: %w", closeErr))
			}
		}
	})
	return err
}

// createLink points e.link at the slave, replacing an old symlink.
func (e *Endpoint) createLink() error {
	if e.link == "" {
		return nil
	}
	if info, err := os.Lstat(e.link); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("link %s exists and is not a symlink", e.link)
		}
		if err := os.Remove(e.link); err != nil {
			return fmt.Errorf("remove stale link: %w", err)
		}
	}
	if err := os.Symlink(e.slavePath, e.link); err != nil {
		return fmt.Errorf("create link: %w", err)
	}
	return nil
}
