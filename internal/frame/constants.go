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

// Package frame provides the length-prefixed envelope used to carry command
// and response payloads over the serial link.
package frame

import "google.golang.org/protobuf/encoding/protowire"

// Frame size limits
const (
	MaxPayloadSize = 256 // Largest payload a frame may carry
	MaxEncodedSize = 320 // Scratch size for one encoded frame
)

// MaxHeaderSize is the longest valid length prefix (varint of MaxPayloadSize).
var MaxHeaderSize = protowire.SizeVarint(MaxPayloadSize)

// EncodedLen returns the size of the envelope for an n-byte payload.
func EncodedLen(n int) int {
	return protowire.SizeBytes(n)
}
