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

// Package logging configures the global zerolog logger for the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment overrides
const (
	EnvLevel     = "SITERM_LOG_LEVEL"
	EnvNoColor   = "SITERM_LOG_NOCOLOR"
	EnvTimestamp = "SITERM_LOG_TIMESTAMP"
)

// Profile describes how a command logs
type Profile struct {
	Out       io.Writer
	App       string
	Level     string
	NoColor   bool
	Timestamp bool
}

// Configure installs a console logger built from p and the environment as
// log.Logger and returns it.
func Configure(p Profile) (zerolog.Logger, error) {
	if v := os.Getenv(EnvLevel); v != "" {
		p.Level = v
	}
	if v, ok := envBool(EnvNoColor); ok {
		p.NoColor = v
	}
	if v, ok := envBool(EnvTimestamp); ok {
		p.Timestamp = v
	}
	if p.Out == nil {
		p.Out = os.Stderr
	}

	level := zerolog.InfoLevel
	if p.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(p.Level)))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", p.Level, err)
		}
		level = parsed
	}

	output := zerolog.ConsoleWriter{
		Out:        p.Out,
		NoColor:    p.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !p.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if p.App != "" {
		ctx = ctx.Str("app", p.App)
	}
	logger := ctx.Logger()

	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger, nil
}

func envBool(name string) (value, ok bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
