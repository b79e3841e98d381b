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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ZaparooProject/go-siterm/client"
	"github.com/ZaparooProject/go-siterm/protocol"
)

const historyLimit = 20

// sender sends one text command and returns the reply
type sender interface {
	Send(ctx context.Context, text string) (*client.Response, error)
}

type session struct {
	device  sender
	out     io.Writer
	history []string
}

func newSession(device sender, out io.Writer) *session {
	return &session{device: device, out: out}
}

// run reads commands from in until EOF, quit or a lost connection
func (s *session) run(ctx context.Context, in io.Reader, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			_, _ = fmt.Fprint(s.out, "siterm> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		quit, err := s.handle(ctx, scanner.Text())
		if err != nil || quit {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// handle runs one input line. Only a lost connection is returned as an
// error; command failures are printed.
func (s *session) handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help", "?":
		s.printHelp()
		return false, nil
	case "history":
		for i, entry := range s.history {
			_, _ = fmt.Fprintf(s.out, "%3d  %s\n", i+1, entry)
		}
		return false, nil
	}

	s.pushHistory(line)
	resp, err := s.device.Send(ctx, line)
	var encErr *protocol.EncodeError
	switch {
	case errors.As(err, &encErr):
		_, _ = fmt.Fprintf(s.out, "Failed to encode command %q: %v\n", line, encErr)
		return false, nil
	case errors.Is(err, client.ErrConnectionClosed):
		return false, err
	case err != nil:
		_, _ = fmt.Fprintf(s.out, "Error: %v\n", err)
		return false, nil
	}

	if remote := resp.Err(); remote != nil {
		_, _ = fmt.Fprintf(s.out, "%v\n", remote)
		return false, nil
	}
	_, _ = fmt.Fprintln(s.out, formatPayload(resp.Payload))
	return false, nil
}

func (s *session) pushHistory(line string) {
	if len(s.history) >= historyLimit {
		s.history = s.history[1:]
	}
	s.history = append(s.history, line)
}

func (s *session) printHelp() {
	_, _ = fmt.Fprintln(s.out, "Commands:")
	for _, def := range protocol.Dictionary {
		_, _ = fmt.Fprintf(s.out, "  %-48s %s\n", def.Usage, def.Description)
	}
	_, _ = fmt.Fprintf(s.out, "  %-48s %s\n", "history", "Show recent commands")
	_, _ = fmt.Fprintf(s.out, "  %-48s %s\n", "quit", "Close the session")
	_, _ = fmt.Fprintln(s.out, "Numbers accept decimal, 0x hex and 0b binary.")
}

// formatPayload prints text replies as text and anything else as hex bytes.
func formatPayload(p []byte) string {
	if len(p) == 0 {
		return "(empty)"
	}
	if utf8.Valid(p) {
		printable := true
		for _, r := range string(p) {
			if !unicode.IsPrint(r) && r != '\t' {
				printable = false
				break
			}
		}
		if printable {
			return string(p)
		}
	}
	return fmt.Sprintf("% X", p)
}
