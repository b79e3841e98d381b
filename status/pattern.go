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

// Package status carries the device status indication: the pattern the
// connection state machine wants shown, a one-slot mailbox that hands it to
// the indicator task, and the indicator animation itself.
package status

import (
	"fmt"
	"time"
)

// Pattern timing
const (
	HandshakeBlinkPeriod     = 500 * time.Millisecond
	CommunicationPulsePeriod = 600 * time.Millisecond
	SuccessBlinkPeriod       = 100 * time.Millisecond
	ErrorBlinkPeriod         = 150 * time.Millisecond
	DefaultBlinkPeriod       = 300 * time.Millisecond

	SuccessHoldDuration = 300 * time.Millisecond
	ErrorHoldDuration   = 1500 * time.Millisecond
	WarningHoldDuration = time.Second

	// PollInterval is how often the driver refreshes the latch while idle.
	PollInterval = 100 * time.Millisecond
)

// RGB is a single LED colour.
type RGB struct {
	R, G, B uint8
}

// Scale returns the colour dimmed to level/255.
func (c RGB) Scale(level uint8) RGB {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(level) / 255) }
	return RGB{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

// Off is the dark LED colour.
var Off = RGB{}

// Colour is a semantic status colour.
type Colour uint8

// Status colours
const (
	ColourIdle Colour = iota
	ColourWarning
	ColourCommunicating
	ColourSuccess
	ColourError
)

// RGB returns the LED value for the colour.
func (c Colour) RGB() RGB {
	switch c {
	case ColourError:
		return RGB{R: 100}
	case ColourWarning:
		return RGB{R: 100, G: 100}
	case ColourCommunicating:
		return RGB{R: 70, G: 10, B: 100}
	case ColourSuccess:
		return RGB{G: 100}
	default:
		return RGB{B: 100}
	}
}

func (c Colour) String() string {
	switch c {
	case ColourIdle:
		return "idle"
	case ColourWarning:
		return "warning"
	case ColourCommunicating:
		return "communicating"
	case ColourSuccess:
		return "success"
	case ColourError:
		return "error"
	default:
		return fmt.Sprintf("colour(%d)", uint8(c))
	}
}

// Kind is the animation style of a pattern.
type Kind uint8

// Pattern kinds
const (
	Solid Kind = iota
	Blink
	Pulse
)

func (k Kind) String() string {
	switch k {
	case Solid:
		return "solid"
	case Blink:
		return "blink"
	case Pulse:
		return "pulse"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Pattern is what the indicator should show. Period is ignored for Solid.
type Pattern struct {
	Period time.Duration
	Kind   Kind
	Colour Colour
}

// SolidPattern shows colour constantly.
func SolidPattern(colour Colour) Pattern {
	return Pattern{Kind: Solid, Colour: colour}
}

// BlinkPattern alternates colour and off, each for half of period.
func BlinkPattern(colour Colour, period time.Duration) Pattern {
	return Pattern{Kind: Blink, Colour: colour, Period: period}
}

// PulsePattern ramps colour up and down once per period.
func PulsePattern(colour Colour, period time.Duration) Pattern {
	return Pattern{Kind: Pulse, Colour: colour, Period: period}
}

func (p Pattern) String() string {
	if p.Kind == Solid {
		return fmt.Sprintf("%s %s", p.Kind, p.Colour)
	}
	return fmt.Sprintf("%s %s %s", p.Kind, p.Colour, p.Period)
}
