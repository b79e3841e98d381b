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

// Package buffer provides a fixed-capacity byte arena with an explicit
// length cursor. Storage is allocated once and never grown.
package buffer

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned when an append would grow a buffer past its capacity.
var ErrCapacityExceeded = errors.New("buffer capacity exceeded")

// Buffer is a fixed-capacity byte buffer. The first Cap() bytes of storage
// are always valid; Len() of them hold data.
type Buffer struct {
	data []byte
	n    int
}

// New allocates a buffer that can hold at most capacity bytes.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Remaining returns how many more bytes fit.
func (b *Buffer) Remaining() int { return len(b.data) - b.n }

// IsEmpty reports whether the buffer holds no data.
func (b *Buffer) IsEmpty() bool { return b.n == 0 }

// Bytes returns the buffered data. The slice aliases the buffer storage and
// is only valid until the next mutation.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Push appends a single byte.
func (b *Buffer) Push(c byte) error {
	if b.n >= len(b.data) {
		return ErrCapacityExceeded
	}
	b.data[b.n] = c
	b.n++
	return nil
}

// Append appends p in full or not at all.
func (b *Buffer) Append(p []byte) error {
	if len(p) > b.Remaining() {
		return fmt.Errorf("%w: need %d, have %d", ErrCapacityExceeded, len(p), b.Remaining())
	}
	b.n += copy(b.data[b.n:], p)
	return nil
}

// AppendString appends s in full or not at all.
func (b *Buffer) AppendString(s string) error {
	if len(s) > b.Remaining() {
		return fmt.Errorf("%w: need %d, have %d", ErrCapacityExceeded, len(s), b.Remaining())
	}
	b.n += copy(b.data[b.n:], s)
	return nil
}

// AppendTruncated appends as much of p as fits and returns the number of
// bytes written.
func (b *Buffer) AppendTruncated(p []byte) int {
	written := copy(b.data[b.n:], p)
	b.n += written
	return written
}

// Set replaces the contents with p.
func (b *Buffer) Set(p []byte) error {
	if len(p) > len(b.data) {
		return fmt.Errorf("%w: need %d, have %d", ErrCapacityExceeded, len(p), len(b.data))
	}
	b.n = copy(b.data, p)
	return nil
}

// Clear empties the buffer without releasing storage.
func (b *Buffer) Clear() { b.n = 0 }

// DropPrefix removes the first count bytes by moving the remainder to the
// front of storage and truncating the length.
func (b *Buffer) DropPrefix(count int) {
	if count <= 0 {
		return
	}
	if count >= b.n {
		b.n = 0
		return
	}
	remaining := copy(b.data, b.data[count:b.n])
	b.n = remaining
}

// HasSuffix reports whether the buffered data ends with suffix.
func (b *Buffer) HasSuffix(suffix string) bool {
	if len(suffix) > b.n {
		return false
	}
	return string(b.data[b.n-len(suffix):b.n]) == suffix
}
