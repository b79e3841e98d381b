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

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	siterm "github.com/ZaparooProject/go-siterm"
	"github.com/ZaparooProject/go-siterm/internal/config"
	"github.com/ZaparooProject/go-siterm/transport/pty"
	"github.com/ZaparooProject/go-siterm/transport/uart"
)

// openEndpoint creates the configured endpoint and a function releasing it.
func openEndpoint(dev config.Device) (siterm.Endpoint, func(), error) {
	switch dev.Endpoint {
	case config.EndpointPTY:
		var opts []pty.Option
		opts = append(opts, pty.WithLogger(log.Logger))
		if dev.Link != "" {
			opts = append(opts, pty.WithLink(dev.Link))
		}
		ep, err := pty.Open(opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open pty: %w", err)
		}
		log.Info().Str("slave", ep.SlavePath()).Str("link", ep.Link()).Msg("waiting for host on pty")
		return ep, func() { _ = ep.Close() }, nil

	case config.EndpointUART:
		ep, err := uart.New(dev.Port, dev.Baud, uart.WithLogger(log.Logger))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create UART endpoint: %w", err)
		}
		log.Info().Str("port", ep.PortName()).Int("baud", dev.Baud).Msg("serving on serial port")
		return ep, func() { _ = ep.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported endpoint type: %s", dev.Endpoint)
	}
}
