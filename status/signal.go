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

package status

import (
	"context"
	"sync"
)

// Signal is a one-slot mailbox. Send overwrites any value not yet taken, so
// the reader always sees the latest pattern. Safe for one writer and one
// reader in different goroutines.
type Signal struct {
	notify  chan struct{}
	value   Pattern
	mu      sync.Mutex
	pending bool
}

// NewSignal returns an empty Signal.
func NewSignal() *Signal {
	return &Signal{notify: make(chan struct{}, 1)}
}

// Send stores p, replacing any pending value, and wakes a waiting reader.
func (s *Signal) Send(p Pattern) {
	s.mu.Lock()
	s.value = p
	s.pending = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Wait blocks until a value is pending and takes it.
func (s *Signal) Wait(ctx context.Context) (Pattern, error) {
	for {
		if p, ok := s.take(); ok {
			return p, nil
		}
		select {
		case <-ctx.Done():
			return Pattern{}, ctx.Err()
		case <-s.notify:
		}
	}
}

func (s *Signal) take() (Pattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return Pattern{}, false
	}
	s.pending = false
	return s.value, true
}
