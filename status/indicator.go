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

package status

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// pulseSteps is the number of brightness updates per pulse period.
const pulseSteps = 32

// Display shows a single colour.
type Display interface {
	SetColour(c RGB) error
}

// FrameAt returns the colour p shows elapsed into its animation.
func FrameAt(p Pattern, elapsed time.Duration) RGB {
	base := p.Colour.RGB()
	if p.Kind == Solid || p.Period <= 0 {
		return base
	}

	phase := elapsed % p.Period
	half := p.Period / 2

	switch p.Kind {
	case Blink:
		if phase < half {
			return base
		}
		return Off
	case Pulse:
		// triangle wave: 0 -> 255 over the first half, back to 0 over the second
		var level int64
		if phase < half {
			level = int64(phase) * 255 / int64(half)
		} else {
			level = int64(p.Period-phase) * 255 / int64(p.Period-half)
		}
		return base.Scale(uint8(min(level, 255)))
	default:
		return base
	}
}

// frameInterval is how long a frame of p stays on the display, zero for
// patterns that never change.
func frameInterval(p Pattern) time.Duration {
	if p.Period <= 0 {
		return 0
	}
	switch p.Kind {
	case Blink:
		return p.Period / 2
	case Pulse:
		return max(p.Period/pulseSteps, time.Millisecond)
	default:
		return 0
	}
}

// Indicator animates the patterns received on a Signal onto a Display.
type Indicator struct {
	display Display
	signal  *Signal
	logger     zerolog.Logger
	initial    Pattern
	brightness uint8
}

// IndicatorOption configures an Indicator
type IndicatorOption func(*Indicator)

// WithIndicatorLogger sets the logger used for display faults
func WithIndicatorLogger(logger zerolog.Logger) IndicatorOption {
	return func(i *Indicator) {
		i.logger = logger
	}
}

// WithInitialPattern sets the pattern shown before the first signal arrives
func WithInitialPattern(p Pattern) IndicatorOption {
	return func(i *Indicator) {
		i.initial = p
	}
}

// WithBrightness dims every frame to level/255
func WithBrightness(level uint8) IndicatorOption {
	return func(i *Indicator) {
		i.brightness = level
	}
}

// NewIndicator drives display from signal.
func NewIndicator(signal *Signal, display Display, opts ...IndicatorOption) *Indicator {
	ind := &Indicator{
		display:    display,
		signal:     signal,
		logger:     log.Logger,
		initial:    SolidPattern(ColourIdle),
		brightness: 255,
	}
	for _, opt := range opts {
		opt(ind)
	}
	return ind
}

// Run animates until ctx is done. A new pattern restarts the animation from
// its first frame.
func (ind *Indicator) Run(ctx context.Context) error {
	updates := make(chan Pattern)
	go func() {
		defer close(updates)
		for {
			p, err := ind.signal.Wait(ctx)
			if err != nil {
				return
			}
			select {
			case updates <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	current := ind.initial
	started := time.Now()
	var shown RGB
	hasShown := false

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		colour := FrameAt(current, time.Since(started)).Scale(ind.brightness)
		if !hasShown || colour != shown {
			if err := ind.display.SetColour(colour); err != nil {
				ind.logger.Warn().Err(err).Msg("status display update failed")
			}
			shown = colour
			hasShown = true
		}

		interval := frameInterval(current)
		var tick <-chan time.Time
		if interval > 0 {
			resetTimer(timer, interval)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case p, ok := <-updates:
			if !ok {
				return nil
			}
			current = p
			started = time.Now()
		case <-tick:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// LogDisplay renders colours as log events. It stands in for an LED on a
// host without one.
type LogDisplay struct {
	Logger zerolog.Logger
}

// SetColour logs c at trace level.
func (d LogDisplay) SetColour(c RGB) error {
	d.Logger.Trace().
		Uint8("r", c.R).
		Uint8("g", c.G).
		Uint8("b", c.B).
		Msg("status led")
	return nil
}
