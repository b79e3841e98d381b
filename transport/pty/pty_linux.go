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

//go:build linux

package pty

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	siterm "github.com/ZaparooProject/go-siterm"
)

// Open allocates a PTY pair in raw mode and returns the master endpoint
func Open(opts ...Option) (*Endpoint, error) {
	e, err := newEndpoint(opts)
	if err != nil {
		return nil, err
	}

	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open ptmx: %w", err)
	}
	e.master = master

	var number int
	err = e.control(func(fd int) error {
		if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
			return fmt.Errorf("unlock pty: %w", err)
		}
		n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
		if err != nil {
			return fmt.Errorf("get pty number: %w", err)
		}
		number = n
		return makeRaw(fd)
	})
	if err != nil {
		_ = master.Close()
		return nil, err
	}
	e.slavePath = fmt.Sprintf("/dev/pts/%d", number)

	if err := e.createLink(); err != nil {
		_ = master.Close()
		return nil, err
	}

	e.logger.Debug().Str("slave", e.slavePath).Str("link", e.link).Msg("pty allocated")
	return e, nil
}

func makeRaw(fd int) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

// control runs fn on the raw master descriptor without switching it to
// blocking mode.
func (e *Endpoint) control(fn func(fd int) error) error {
	raw, err := e.master.SyscallConn()
	if err != nil {
		return fmt.Errorf("pty master: %w", err)
	}
	var fnErr error
	if err := raw.Control(func(fd uintptr) { fnErr = fn(int(fd)) }); err != nil {
		return mapErr(err)
	}
	return fnErr
}

// hostAttached reports whether the slave side is open. The master reports
// POLLHUP until a host opens the slave and again after it closes it.
func (e *Endpoint) hostAttached() (bool, error) {
	var attached bool
	err := e.control(func(fd int) error {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		for {
			_, err := unix.Poll(fds, 0)
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if err != nil {
				return fmt.Errorf("poll pty master: %w", err)
			}
			attached = fds[0].Revents&unix.POLLHUP == 0
			return nil
		}
	})
	return attached, err
}

// WaitConnection blocks until a host has the slave open
func (e *Endpoint) WaitConnection(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		attached, err := e.hostAttached()
		if err != nil {
			return err
		}
		if attached {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReadPacket blocks until the host writes. It returns ErrDisabled once the
// host has closed the slave or the endpoint is closed.
func (e *Endpoint) ReadPacket(p []byte) (int, error) {
	n, err := e.master.Read(p)
	if err != nil {
		return n, mapErr(err)
	}
	return n, nil
}

// WritePacket writes p without blocking. A full slave input queue gives
// ErrBufferOverflow.
func (e *Endpoint) WritePacket(p []byte) error {
	if len(p) > siterm.ReadBufferSize {
		return siterm.ErrBufferOverflow
	}

	raw, err := e.master.SyscallConn()
	if err != nil {
		return mapErr(err)
	}
	for len(p) > 0 {
		var n int
		var writeErr error
		err := raw.Write(func(fd uintptr) bool {
			n, writeErr = unix.Write(int(fd), p)
			return true
		})
		if err != nil {
			return mapErr(err)
		}
		if errors.Is(writeErr, unix.EAGAIN) || (writeErr == nil && n == 0) {
			return siterm.ErrBufferOverflow
		}
		if writeErr != nil {
			return mapErr(writeErr)
		}
		p = p[n:]
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, unix.EIO) || errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %w", siterm.ErrDisabled, err)
	}
	return err
}
