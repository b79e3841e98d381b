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
	"context"
	"sync"
)

// MockEndpoint is an in-memory Endpoint for tests. Packets queued with
// QueueRead are returned by ReadPacket in order; writes are recorded.
type MockEndpoint struct {
	changed       chan struct{}
	writeErrors   []error
	readQueue     []mockRead
	writes        [][]byte
	maxPacketSize int
	generation    int
	mu            sync.Mutex
	connected     bool
}

type mockRead struct {
	err  error
	data []byte
}

// NewMockEndpoint creates a disconnected mock endpoint with 64-byte packets
func NewMockEndpoint() *MockEndpoint {
	return &MockEndpoint{
		changed:       make(chan struct{}),
		maxPacketSize: ReadBufferSize,
	}
}

// notifyLocked wakes every goroutine waiting for a state change.
func (m *MockEndpoint) notifyLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// Connect attaches a host
func (m *MockEndpoint) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	m.notifyLocked()
}

// Disconnect detaches the host and drops queued reads
func (m *MockEndpoint) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.generation++
	m.readQueue = nil
	m.notifyLocked()
}

// QueueRead queues data to be returned by one ReadPacket call
func (m *MockEndpoint) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readQueue = append(m.readQueue, mockRead{data: append([]byte(nil), data...)})
	m.notifyLocked()
}

// QueueReadError queues err to be returned by one ReadPacket call
func (m *MockEndpoint) QueueReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readQueue = append(m.readQueue, mockRead{err: err})
	m.notifyLocked()
}

// FailWrites makes the next len(errs) WritePacket calls return errs in order
func (m *MockEndpoint) FailWrites(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrors = append(m.writeErrors, errs...)
}

// SetMaxPacketSize changes the packet size reported by MaxPacketSize
func (m *MockEndpoint) SetMaxPacketSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxPacketSize = size
}

// Writes returns a copy of every successfully written packet
func (m *MockEndpoint) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	for i, w := range m.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Written returns all successfully written bytes concatenated
func (m *MockEndpoint) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []byte
	for _, w := range m.writes {
		out = append(out, w...)
	}
	return out
}

// ResetWrites forgets recorded writes
func (m *MockEndpoint) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}

// WaitConnection blocks until Connect is called or ctx is done
func (m *MockEndpoint) WaitConnection(ctx context.Context) error {
	for {
		m.mu.Lock()
		connected := m.connected
		changed := m.changed
		m.mu.Unlock()

		if connected {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// ReadPacket returns the next queued packet, blocking until one is queued.
// It returns ErrDisabled while disconnected and when a disconnect happened
// during the call.
func (m *MockEndpoint) ReadPacket(p []byte) (int, error) {
	m.mu.Lock()
	generation := m.generation
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if !m.connected || m.generation != generation {
			m.mu.Unlock()
			return 0, ErrDisabled
		}
		if len(m.readQueue) > 0 {
			next := m.readQueue[0]
			m.readQueue = m.readQueue[1:]
			m.mu.Unlock()
			if next.err != nil {
				return 0, next.err
			}
			if len(next.data) > len(p) {
				return 0, ErrBufferOverflow
			}
			return copy(p, next.data), nil
		}
		changed := m.changed
		m.mu.Unlock()
		<-changed
	}
}

// WritePacket records p unless a failure was queued with FailWrites
func (m *MockEndpoint) WritePacket(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrDisabled
	}
	if len(m.writeErrors) > 0 {
		err := m.writeErrors[0]
		m.writeErrors = m.writeErrors[1:]
		if err != nil {
			return err
		}
	}
	if len(p) > m.maxPacketSize {
		return ErrBufferOverflow
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	m.notifyLocked()
	return nil
}

// MaxPacketSize returns the configured packet size
func (m *MockEndpoint) MaxPacketSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxPacketSize
}

// Type returns EndpointMock
func (*MockEndpoint) Type() EndpointType {
	return EndpointMock
}
