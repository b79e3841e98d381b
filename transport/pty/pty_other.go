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

//go:build !linux

package pty

import (
	"context"

	siterm "github.com/ZaparooProject/go-siterm"
)

// Open returns ErrUnsupported
func Open(opts ...Option) (*Endpoint, error) {
	if _, err := newEndpoint(opts); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

// WaitConnection returns ErrUnsupported
func (*Endpoint) WaitConnection(context.Context) error {
	return ErrUnsupported
}

// ReadPacket returns ErrDisabled
func (*Endpoint) ReadPacket([]byte) (int, error) {
	return 0, siterm.ErrDisabled
}

// WritePacket returns ErrDisabled
func (*Endpoint) WritePacket([]byte) error {
	return siterm.ErrDisabled
}
