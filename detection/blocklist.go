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

package detection

import (
	"path/filepath"
	"strings"
)

// PicoVIDPID is the Raspberry Pi Pico USB serial device (RP2040 CDC).
const PicoVIDPID = "2E8A:000A"

// DefaultMatch returns the VID:PID pairs detected by default.
func DefaultMatch() []string {
	return []string{PicoVIDPID}
}

// DefaultBlocklist returns USB devices that are never reported.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"2E8A:0003", // Pico in BOOTSEL mass storage mode
	}
}

// FormatVIDPID joins vendor and product IDs in the canonical VID:PID form.
// Missing IDs give "".
func FormatVIDPID(vid, pid string) string {
	vid = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(vid), "0x")))
	pid = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(pid), "0x")))
	if !isHex(vid) || !isHex(pid) {
		return ""
	}
	return padHex(vid) + ":" + padHex(pid)
}

// InList checks if vidpid is one of list. Both sides are normalised with
// ParseVIDPID, so "2e8a:a" and "VID:2E8A PID:000A" match "2E8A:000A".
func InList(vidpid string, list []string) bool {
	want := ParseVIDPID(vidpid)
	if want == "" {
		return false
	}
	for _, entry := range list {
		if ParseVIDPID(entry) == want {
			return true
		}
	}
	return false
}

// IsBlocked checks if a USB device is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	return InList(vidpid, blocklist)
}

// ParseVIDPID extracts VID:PID from "1234:5678", "VID:1234 PID:5678" or
// "vid=1234 pid=5678" style descriptors.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(descriptor)

	vid := hexAfter(descriptor, "VID:", "VID=", "VENDOR=")
	pid := hexAfter(descriptor, "PID:", "PID=", "PRODUCT=")
	if vid != "" && pid != "" {
		return FormatVIDPID(vid, pid)
	}

	if left, right, ok := strings.Cut(strings.TrimSpace(descriptor), ":"); ok && !strings.Contains(right, ":") {
		return FormatVIDPID(left, right)
	}
	return ""
}

// hexAfter returns the hex digits following the first key found.
func hexAfter(s string, keys ...string) string {
	for _, key := range keys {
		if idx := strings.Index(s, key); idx >= 0 {
			return leadingHex(s[idx+len(key):])
		}
	}
	return ""
}

func leadingHex(s string) string {
	end := 0
	for end < len(s) && isHexDigit(rune(s[end])) {
		end++
	}
	return s[:end]
}

func padHex(s string) string {
	if len(s) < 4 {
		return strings.Repeat("0", 4-len(s)) + s
	}
	return s
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

// isHex checks if a string contains only hexadecimal characters.
func isHex(s string) bool {
	if s == "" || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

// IsPathIgnored checks if a device path should be ignored.
// Paths are compared cleaned and case-insensitively.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	normalizedDevice := normalizedPath(devicePath)
	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}
		if devicePath == ignorePath || normalizedDevice == normalizedPath(ignorePath) {
			return true
		}
	}
	return false
}

// normalizedPath normalizes a device path for comparison
func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
