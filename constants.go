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
	"time"

	"github.com/ZaparooProject/go-siterm/internal/frame"
	"github.com/ZaparooProject/go-siterm/status"
)

// Buffer sizes
const (
	// ReadBufferSize is the largest packet read from an endpoint at once
	ReadBufferSize = 64
	// HandshakeBufferSize bounds a handshake line including its delimiter
	HandshakeBufferSize = 64
	// FrameBufferSize holds partially received frames
	FrameBufferSize = 512
	// MaxCommandSize bounds a command payload and a response
	MaxCommandSize = frame.MaxPayloadSize
	// EncodedFrameBufferSize holds one encoded response frame
	EncodedFrameBufferSize = frame.MaxEncodedSize
)

// Timing defaults
const (
	// DefaultWriteRetryTimeout bounds retries of a packet the endpoint rejected
	// with ErrBufferOverflow
	DefaultWriteRetryTimeout = 250 * time.Millisecond
	// DefaultWriteRetryInterval is the pause between those retries
	DefaultWriteRetryInterval = 10 * time.Millisecond
	// DefaultStatusPollInterval is the longest the driver waits for data
	// before refreshing the status indicator
	DefaultStatusPollInterval = status.PollInterval
)

// ErrorPrefix starts every fault response.
const ErrorPrefix = "ERR: "
