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

package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-siterm/internal/frame"
)

func TestBuilders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0x04, 0x01, 0x02, 'h', 'i'}, BuildEchoCommand("hi"))
	assert.Equal(t, []byte{0x05, 0x02, 0x01, 0x68, 0x75, 0x02}, BuildI2CReadCommand(0x68, 0x75, 2))
	assert.Equal(t, []byte{0x05, 0x02, 0x02, 0x3C, 0x00, 0xAE}, BuildI2CWriteCommand(0x3C, 0x00, 0xAE))

	got, err := DecodeFrames(BuildFrames([]byte("a"), nil, BuildErrorResponse("Timeout", "")[1:]))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), {}, []byte("ERR: Timeout")}, got)

	_, err = DecodeFrames(BuildFrame(bytes.Repeat([]byte{1}, frame.MaxPayloadSize+1)))
	require.ErrorIs(t, err, frame.ErrMalformed)
}

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	chunks := SplitChunks([]byte("abcdefg"), 3)
	assert.Equal(t, [][]byte{[]byte("abc"), []byte("def"), []byte("g")}, chunks)
	assert.Len(t, SplitChunks(nil, 3), 0)
	assert.Len(t, SplitChunks([]byte("abc"), 0), 1)
}
