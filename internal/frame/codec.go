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

package frame

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Frame errors
var (
	ErrNeedMoreData    = errors.New("frame: need more data")
	ErrMalformed       = errors.New("frame: malformed")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrOutputTooSmall  = errors.New("frame: output buffer too small")
)

// Frame is one envelope carrying a single opaque payload.
type Frame struct {
	Payload []byte
}

// Encode writes the envelope for payload into dst and returns the number of
// bytes written. dst is never grown.
func Encode(dst, payload []byte) (int, error) {
	if len(payload) > MaxPayloadSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	need := EncodedLen(len(payload))
	if need > len(dst) {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrOutputTooSmall, need, len(dst))
	}
	// Capacity is checked above so the append stays inside dst.
	out := protowire.AppendBytes(dst[:0], payload)
	return len(out), nil
}

// Append appends the envelope for payload to dst.
func Append(dst, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return dst, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return protowire.AppendBytes(dst, payload), nil
}

// Decode parses one frame from the front of buf. On success it returns the
// frame (its payload aliases buf) and the number of leading bytes the frame
// occupied. ErrNeedMoreData means buf is a valid but incomplete prefix and
// must be kept. Any other error means the buffered data cannot be decoded.
func Decode(buf []byte) (Frame, int, error) {
	length, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		err := protowire.ParseError(n)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			if len(buf) >= MaxHeaderSize {
				return Frame{}, 0, fmt.Errorf("%w: length prefix longer than %d bytes", ErrMalformed, MaxHeaderSize)
			}
			return Frame{}, 0, ErrNeedMoreData
		}
		return Frame{}, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if length > MaxPayloadSize {
		return Frame{}, 0, fmt.Errorf("%w: declared length %d exceeds %d", ErrMalformed, length, MaxPayloadSize)
	}

	end := n + int(length)
	if end > len(buf) {
		return Frame{}, 0, ErrNeedMoreData
	}

	return Frame{Payload: buf[n:end]}, end, nil
}
