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

package siterm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// packet is one read result handed from the reader goroutine to Serve.
type packet struct {
	err  error
	n    int
	data [ReadBufferSize]byte
}

// Serve runs the machine on its endpoint until ctx is done. Each connection
// starts from Reset; a disconnect ends the connection and Serve waits for
// the next one.
func (m *StateMachine) Serve(ctx context.Context) error {
	for {
		if err := m.endpoint.WaitConnection(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("wait for connection: %w", err)
		}

		m.Reset()
		m.logger.Info().Str("endpoint", string(m.endpoint.Type())).Msg("host connected")

		if err := m.serveConnection(ctx); err != nil {
			return err
		}
		m.logger.Info().Msg("host disconnected")
	}
}

// serveConnection services one connection. It returns nil on disconnect and
// ctx.Err() when ctx is done.
func (m *StateMachine) serveConnection(ctx context.Context) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	packets := make(chan packet, 1)
	go m.readPackets(connCtx, packets)

	// kick once so anything due immediately is sent
	if m.disconnected(m.Consume(ctx, nil)) {
		drainPackets(ctx, packets)
		return ctx.Err()
	}

	timer := time.NewTimer(m.config.StatusPollInterval)
	defer timer.Stop()

	for {
		m.Tick()

		wait := m.config.StatusPollInterval
		if remaining, ok := m.HandshakeTimeoutRemaining(); ok {
			wait = min(wait, remaining)
		}
		resetTimer(timer, max(wait, time.Millisecond))

		var pkt packet
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok = <-packets:
		case <-timer.C:
			// data that arrived together with the timer wins
			select {
			case pkt, ok = <-packets:
			default:
				if remaining, due := m.HandshakeTimeoutRemaining(); due && remaining == 0 {
					if m.disconnected(m.HandleHandshakeTimeout(ctx)) {
						drainPackets(ctx, packets)
						return ctx.Err()
					}
				}
				continue
			}
		}

		if !ok {
			return ctx.Err()
		}

		var err error
		switch {
		case errors.Is(pkt.err, ErrDisabled):
			return nil
		case errors.Is(pkt.err, ErrBufferOverflow):
			err = m.HandleBufferOverflow(ctx)
		case pkt.err != nil:
			m.logger.Warn().Err(pkt.err).Msg("endpoint read failed")
			continue
		case pkt.n == 0:
			continue
		default:
			err = m.Consume(ctx, pkt.data[:pkt.n])
		}

		if m.disconnected(err) {
			drainPackets(ctx, packets)
			return ctx.Err()
		}
	}
}

// disconnected logs a write failure and reports whether it ended the
// connection.
func (m *StateMachine) disconnected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDisabled) {
		return true
	}
	m.logger.Warn().Err(err).Msg("endpoint write failed")
	return false
}

// readPackets reads from the endpoint until it reports ErrDisabled or ctx
// is done, then closes out.
func (m *StateMachine) readPackets(ctx context.Context, out chan<- packet) {
	defer close(out)
	for {
		var p packet
		p.n, p.err = m.endpoint.ReadPacket(p.data[:])
		select {
		case out <- p:
		case <-ctx.Done():
			return
		}
		if errors.Is(p.err, ErrDisabled) {
			return
		}
	}
}

// drainPackets discards packets until the reader stops so that it never
// reads into the next connection.
func drainPackets(ctx context.Context, packets <-chan packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-packets:
			if !ok {
				return
			}
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
