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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	"github.com/ZaparooProject/go-siterm/detection"
)

func ports() []*enumerator.PortDetails {
	return []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2e8a", PID: "000a", SerialNumber: "E6616407E3", Product: "Pico"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "2E8A", PID: "000A"},
		nil,
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	d := &detector{list: func() ([]*enumerator.PortDetails, error) { return ports(), nil }}
	assert.Equal(t, "uart", d.Transport())

	opts := detection.DefaultOptions()
	opts.IgnorePaths = []string{"/dev/ttyACM1"}

	got, err := d.Detect(context.Background(), &opts)
	require.NoError(t, err)
	assert.Equal(t, []detection.DeviceInfo{{
		Name:      "ttyACM0",
		Path:      "/dev/ttyACM0",
		Transport: "uart",
		VIDPID:    "2E8A:000A",
		Serial:    "E6616407E3",
		Product:   "Pico",
	}}, got)

	all := &detection.Options{}
	got, err = d.Detect(context.Background(), all)
	require.NoError(t, err)
	assert.Len(t, got, 3, "every USB port without a match list")
}

func TestDetectErrors(t *testing.T) {
	t.Parallel()

	listErr := errors.New("no sysfs")
	d := &detector{list: func() ([]*enumerator.PortDetails, error) { return nil, listErr }}
	opts := detection.DefaultOptions()

	_, err := d.Detect(context.Background(), &opts)
	require.ErrorIs(t, err, listErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Detect(ctx, &opts)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	var found bool
	for _, d := range detection.Detectors() {
		found = found || d.Transport() == "uart"
	}
	assert.True(t, found)
}
