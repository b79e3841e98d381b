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

package handlers

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultBusSpeed is the I2C clock requested by OpenBus (400 kHz).
const DefaultBusSpeed = 400 * physic.KiloHertz

// OpenBus initialises the host drivers and opens an I2C bus by name, alias
// or number. An empty name opens the first available bus. A zero speed
// keeps the bus default.
func OpenBus(name string, speed physic.Frequency) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}

	if speed > 0 {
		_ = bus.SetSpeed(speed) // not every driver supports it
	}
	return bus, nil
}

// BusInfo describes a registered I2C bus
type BusInfo struct {
	Name    string
	Aliases []string
	Number  int
}

// Buses initialises the host drivers and lists the registered I2C buses.
func Buses() ([]BusInfo, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	refs := i2creg.All()
	out := make([]BusInfo, 0, len(refs))
	for _, ref := range refs {
		out = append(out, BusInfo{
			Name:    ref.Name,
			Aliases: append([]string(nil), ref.Aliases...),
			Number:  ref.Number,
		})
	}
	return out, nil
}
