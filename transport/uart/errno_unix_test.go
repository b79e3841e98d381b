//go:build unix

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

package uart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	siterm "github.com/ZaparooProject/go-siterm"
)

func TestDeviceGone(t *testing.T) {
	t.Parallel()

	assert.True(t, deviceGone(unix.EIO))
	assert.True(t, deviceGone(fmt.Errorf("write: %w", unix.ENXIO)))
	assert.True(t, deviceGone(unix.EBADF))
	assert.False(t, deviceGone(unix.EAGAIN))
	assert.False(t, deviceGone(errors.New("other")))
}

func TestUnpluggedPortDisables(t *testing.T) {
	t.Parallel()

	for _, errno := range []unix.Errno{unix.EIO, unix.ENXIO, unix.EBADF} {
		t.Run(errno.Error(), func(t *testing.T) {
			t.Parallel()

			port := newFakePort()
			ep := newEndpoint(t, &opener{ports: []*fakePort{port}})
			require.NoError(t, ep.WaitConnection(context.Background()))

			port.mu.Lock()
			port.writeErr = errno
			port.mu.Unlock()

			err := ep.WritePacket([]byte("x"))
			require.ErrorIs(t, err, siterm.ErrDisabled)
			require.ErrorIs(t, err, errno)
			assert.True(t, port.isClosed())
		})
	}
}
