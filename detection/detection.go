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

// Package detection finds attached SiTerm devices. Transport-specific
// detectors register themselves on import.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNoDevicesFound is returned when no detector found a device
	ErrNoDevicesFound = errors.New("no devices found")

	// ErrUnsupportedPlatform is returned by detectors that cannot run here
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
)

// DeviceInfo describes one detected device
type DeviceInfo struct {
	Name      string
	Path      string
	Transport string
	VIDPID    string
	Serial    string
	Product   string
}

// String returns a one-line description
func (d DeviceInfo) String() string {
	s := fmt.Sprintf("%s %s", d.Transport, d.Path)
	if d.VIDPID != "" {
		s += " [" + d.VIDPID + "]"
	}
	if d.Serial != "" {
		s += " serial=" + d.Serial
	}
	if d.Product != "" {
		s += " " + d.Product
	}
	return s
}

// Options filters detection
type Options struct {
	// Match lists the VID:PID pairs to report. Empty reports every USB
	// serial device.
	Match []string
	// Blocklist lists VID:PID pairs never reported
	Blocklist []string
	// IgnorePaths lists device paths never reported
	IgnorePaths []string
}

// DefaultOptions matches the Pico CDC device
func DefaultOptions() Options {
	return Options{
		Match:     DefaultMatch(),
		Blocklist: DefaultBlocklist(),
	}
}

// Accept reports whether a device passes the filters
func (o *Options) Accept(path, vidpid string) bool {
	if IsPathIgnored(path, o.IgnorePaths) || IsBlocked(vidpid, o.Blocklist) {
		return false
	}
	return len(o.Match) == 0 || InList(vidpid, o.Match)
}

// Detector finds devices on one transport
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Detector{}
)

// RegisterDetector adds d, replacing any detector for the same transport
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Transport()] = d
}

// Detectors returns the registered detectors ordered by transport name
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Detector, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transport() < out[j].Transport() })
	return out
}

// DetectAll runs every registered detector. Unsupported detectors are
// skipped; other failures are returned only if nothing was found.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	var found []DeviceInfo
	var errs []error
	for _, d := range Detectors() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		devices, err := d.Detect(ctx, opts)
		if errors.Is(err, ErrUnsupportedPlatform) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Transport(), err))
			continue
		}
		found = append(found, devices...)
	}

	if len(found) > 0 {
		return found, nil
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, ErrNoDevicesFound
}
