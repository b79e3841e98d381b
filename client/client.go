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

// Package client talks to a SiTerm device from the host side of the serial
// link.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/ZaparooProject/go-siterm/internal/frame"
	"github.com/ZaparooProject/go-siterm/internal/transport"
	"github.com/ZaparooProject/go-siterm/protocol"
)

const (
	// DefaultBaudRate is the serial speed used by Dial
	DefaultBaudRate = 115200

	// DefaultResponseTimeout bounds the wait for one framed response
	DefaultResponseTimeout = 2 * time.Second

	// DefaultOpenRetries is how many more times Dial tries a port that is
	// missing or busy, as happens right after the device enumerates
	DefaultOpenRetries = 3

	// DefaultOpenRetryDelay is the pause between open attempts
	DefaultOpenRetryDelay = 250 * time.Millisecond

	readChunkSize = 256
)

// Response is one framed reply from the device
type Response struct {
	Payload []byte
}

// Err returns the device fault carried by the response, or nil
func (r *Response) Err() error {
	if remote := ParseRemoteError(r.Payload); remote != nil {
		return remote
	}
	return nil
}

// String returns the payload as text
func (r *Response) String() string {
	return string(r.Payload)
}

// Opener opens a serial port. serial.Open is used unless WithOpener is given.
type Opener func(name string, mode *serial.Mode) (serial.Port, error)

type config struct {
	logger           zerolog.Logger
	open             Opener
	portName         string
	baudRate         int
	openRetries      int
	openRetryDelay   time.Duration
	handshakeTimeout time.Duration
	responseTimeout  time.Duration
}

// Option is a functional option for configuring a Client
type Option func(*config) error

// WithBaudRate sets the serial speed used by Dial
func WithBaudRate(baud int) Option {
	return func(c *config) error {
		if baud <= 0 {
			return fmt.Errorf("invalid baud rate %d", baud)
		}
		c.baudRate = baud
		return nil
	}
}

// WithHandshakeTimeout sets how long Handshake waits for the reply
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("handshake timeout must be positive, got %v", d)
		}
		c.handshakeTimeout = d
		return nil
	}
}

// WithResponseTimeout sets how long ReadFrame waits for a frame
func WithResponseTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("response timeout must be positive, got %v", d)
		}
		c.responseTimeout = d
		return nil
	}
}

// WithOpener replaces serial.Open in Dial
func WithOpener(open Opener) Option {
	return func(c *config) error {
		if open == nil {
			return errors.New("opener cannot be nil")
		}
		c.open = open
		return nil
	}
}

// WithOpenRetries sets how often Dial retries a missing or busy port and
// the delay between attempts
func WithOpenRetries(retries int, delay time.Duration) Option {
	return func(c *config) error {
		if retries < 0 {
			return fmt.Errorf("open retries cannot be negative, got %d", retries)
		}
		if delay < 0 {
			return fmt.Errorf("open retry delay cannot be negative, got %v", delay)
		}
		c.openRetries = retries
		c.openRetryDelay = delay
		return nil
	}
}

// WithPortName labels errors with the port name
func WithPortName(name string) Option {
	return func(c *config) error {
		c.portName = name
		return nil
	}
}

// WithLogger sets the logger for session events
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		logger:           log.Logger,
		open:             serial.Open,
		baudRate:         DefaultBaudRate,
		openRetries:      DefaultOpenRetries,
		openRetryDelay:   DefaultOpenRetryDelay,
		handshakeTimeout: protocol.HandshakeTimeout,
		responseTimeout:  DefaultResponseTimeout,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}

// Client is a host session with one device. Its methods must not be called
// concurrently.
type Client struct {
	rw      io.ReadWriteCloser
	chunks  chan []byte
	done    chan struct{}
	readErr error
	cfg     config
	pending []byte
	scratch [frame.MaxEncodedSize]byte
	mu      sync.Mutex
	closed  bool
}

// Dial opens portName at 8N1, discards stale input and performs the
// handshake. A missing or busy port is retried per WithOpenRetries.
func Dial(ctx context.Context, portName string, opts ...Option) (*Client, error) {
	cfg, err := newConfig(append([]Option{WithPortName(portName)}, opts...))
	if err != nil {
		return nil, err
	}

	port, err := openPort(ctx, portName, cfg)
	if err != nil {
		return nil, err
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, NewTransportError("reset", portName, err, ErrorTypeTransient)
	}

	c := newClient(port, cfg)
	if err := c.Handshake(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func openPort(ctx context.Context, portName string, cfg config) (serial.Port, error) {
	mode := serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	var lastErr error
	port, err := transport.WithRetry(ctx, transport.RetryConfig{
		MaxRetries: cfg.openRetries,
		RetryDelay: cfg.openRetryDelay,
		OnRetry: func(attempt int) error {
			cfg.logger.Debug().Err(lastErr).Str("port", portName).Int("attempt", attempt).
				Msg("serial port not ready, retrying")
			return nil
		},
	}, func() (serial.Port, bool, error) {
		m := mode
		p, openErr := cfg.open(portName, &m)
		if openErr == nil {
			return p, false, nil
		}
		if openRetryable(openErr) {
			lastErr = openErr
			return nil, true, nil
		}
		return nil, false, openErr
	})

	switch {
	case err == nil:
		return port, nil
	case errors.Is(err, transport.ErrRetriesExhausted):
		return nil, NewTransportError("open", portName, fmt.Errorf("%w: %w", err, lastErr), ErrorTypeTransient)
	case ctx.Err() != nil:
		return nil, NewTransportError("open", portName, err, ErrorTypeTimeout)
	default:
		return nil, NewTransportError("open", portName, err, ErrorTypePermanent)
	}
}

func openRetryable(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortBusy:
			return true
		default:
			return false
		}
	}
	return errors.Is(err, os.ErrNotExist)
}

// New wraps an already open link. The handshake is not performed.
func New(rw io.ReadWriteCloser, opts ...Option) (*Client, error) {
	if rw == nil {
		return nil, errors.New("link cannot be nil")
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newClient(rw, cfg), nil
}

func newClient(rw io.ReadWriteCloser, cfg config) *Client {
	c := &Client{
		rw:     rw,
		cfg:    cfg,
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// readLoop forwards everything read from the link until it fails.
func (c *Client) readLoop() {
	defer close(c.chunks)
	for {
		buf := make([]byte, readChunkSize)
		n, err := c.rw.Read(buf)
		if n > 0 {
			select {
			case c.chunks <- buf[:n]:
			case <-c.done:
				return
			}
		}
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
	}
}

// Close closes the link
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	if err := c.rw.Close(); err != nil {
		return NewTransportError("close", c.cfg.portName, err, ErrorTypePermanent)
	}
	return nil
}

// Handshake sends the handshake phrase and checks the reply. Bytes after
// the reply are kept for ReadFrame.
func (c *Client) Handshake(ctx context.Context) error {
	if err := c.write([]byte(protocol.HandshakeCommand + protocol.HandshakeDelimiter)); err != nil {
		return err
	}

	want := len(protocol.HandshakeResponse)
	deadline := time.Now().Add(c.cfg.handshakeTimeout)
	for len(c.pending) < want {
		if err := c.fill(ctx, deadline, "handshake"); err != nil {
			return err
		}
	}

	got := c.pending[:want]
	if string(got) != protocol.HandshakeResponse {
		err := fmt.Errorf("%w: %q", ErrHandshakeMismatch, got)
		c.pending = c.pending[:0]
		return NewTransportError("handshake", c.cfg.portName, err, ErrorTypePermanent)
	}
	c.pending = append(c.pending[:0], c.pending[want:]...)

	c.cfg.logger.Debug().Str("port", c.cfg.portName).Msg("handshake complete")
	return nil
}

// Send encodes a text command, sends it framed and waits for the reply.
// A device fault is returned in the Response; check Response.Err.
func (c *Client) Send(ctx context.Context, text string) (*Response, error) {
	payload, err := protocol.EncodeCommand(text)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", text, err)
	}
	return c.SendRaw(ctx, payload)
}

// SendRaw sends an already encoded command and waits for the reply
func (c *Client) SendRaw(ctx context.Context, payload []byte) (*Response, error) {
	n, err := frame.Encode(c.scratch[:], payload)
	if err != nil {
		return nil, NewTransportError("send", c.cfg.portName,
			fmt.Errorf("%w: %w", ErrCommandTooLarge, err), ErrorTypePermanent)
	}
	if err := c.write(c.scratch[:n]); err != nil {
		return nil, err
	}

	reply, err := c.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}
	return &Response{Payload: reply}, nil
}

// ReadFrame returns the next framed payload, reassembling it from as many
// reads as needed.
func (c *Client) ReadFrame(ctx context.Context) ([]byte, error) {
	deadline := time.Now().Add(c.cfg.responseTimeout)
	for {
		frm, used, err := frame.Decode(c.pending)
		switch {
		case err == nil:
			payload := bytes.Clone(frm.Payload)
			c.pending = append(c.pending[:0], c.pending[used:]...)
			return payload, nil
		case errors.Is(err, frame.ErrNeedMoreData):
			if err := c.fill(ctx, deadline, "read"); err != nil {
				return nil, err
			}
		default:
			c.pending = c.pending[:0]
			return nil, NewFrameCorruptedError("read", c.cfg.portName, err)
		}
	}
}

// fill appends the next chunk from the link to pending.
func (c *Client) fill(ctx context.Context, deadline time.Time, op string) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return NewTransportError(op, c.cfg.portName, ctx.Err(), ErrorTypeTimeout)
	case <-timer.C:
		return NewTimeoutError(op, c.cfg.portName)
	case chunk, ok := <-c.chunks:
		if !ok {
			c.mu.Lock()
			cause := c.readErr
			c.mu.Unlock()
			return NewTransportError(op, c.cfg.portName,
				fmt.Errorf("%w: %w", ErrConnectionClosed, cause), ErrorTypePermanent)
		}
		c.pending = append(c.pending, chunk...)
		return nil
	}
}

func (c *Client) write(data []byte) error {
	if _, err := c.rw.Write(data); err != nil {
		return NewTransportError("write", c.cfg.portName,
			fmt.Errorf("%w: %w", ErrConnectionClosed, err), ErrorTypePermanent)
	}
	return nil
}
