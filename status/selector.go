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

import "time"

// Selector decides which pattern is visible. A pattern requested with a hold
// stays visible until the hold expires even if later requests have none.
// Only changes are published to the Signal.
type Selector struct {
	signal  *Signal
	latched Pattern
	until   time.Time
	last    Pattern
	hasLast bool
	hasLock bool
}

// NewSelector publishes to signal. A nil signal discards output.
func NewSelector(signal *Signal) *Selector {
	return &Selector{signal: signal}
}

// Update requests pattern at now. A positive hold latches it until now+hold.
// It returns the pattern that is now effective.
func (s *Selector) Update(now time.Time, pattern Pattern, hold time.Duration) Pattern {
	if s.hasLock && !now.Before(s.until) {
		s.hasLock = false
	}

	if hold > 0 {
		s.latched = pattern
		s.until = now.Add(hold)
		s.hasLock = true
	}

	effective := pattern
	if s.hasLock {
		effective = s.latched
	}

	if !s.hasLast || s.last != effective {
		s.last = effective
		s.hasLast = true
		if s.signal != nil {
			s.signal.Send(effective)
		}
	}
	return effective
}

// Current returns the last published pattern.
func (s *Selector) Current() (Pattern, bool) {
	return s.last, s.hasLast
}

// Forget clears the latch and the change memory so the next Update always
// publishes.
func (s *Selector) Forget() {
	*s = Selector{signal: s.signal}
}
