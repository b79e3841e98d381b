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

// Package uart detects SiTerm devices among the USB serial ports.
// Importing it registers the detector.
package uart

import (
	"context"
	"fmt"
	"path/filepath"

	"go.bug.st/serial/enumerator"

	"github.com/ZaparooProject/go-siterm/detection"
)

// lister enumerates serial ports
type lister func() ([]*enumerator.PortDetails, error)

// detector implements the Detector interface for USB serial ports
type detector struct {
	list lister
}

// New creates a new serial port detector
func New() detection.Detector {
	return &detector{list: enumerator.GetDetailedPortsList}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect lists the USB serial ports accepted by opts
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		if port == nil || !port.IsUSB {
			continue
		}
		vidpid := detection.FormatVIDPID(port.VID, port.PID)
		if !opts.Accept(port.Name, vidpid) {
			continue
		}
		devices = append(devices, detection.DeviceInfo{
			Name:      filepath.Base(port.Name),
			Path:      port.Name,
			Transport: "uart",
			VIDPID:    vidpid,
			Serial:    port.SerialNumber,
			Product:   port.Product,
		})
	}
	return devices, nil
}
