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

// Command siterm is the host terminal for a SiTerm device.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ZaparooProject/go-siterm/client"
	"github.com/ZaparooProject/go-siterm/detection"
	// Import detectors to register them
	_ "github.com/ZaparooProject/go-siterm/detection/uart"
	"github.com/ZaparooProject/go-siterm/internal/config"
	"github.com/ZaparooProject/go-siterm/internal/logging"
)

type flags struct {
	configPath *string
	port       *string
	command    *string
	baud       *int
	timeout    *time.Duration
	list       *bool
	allPorts   *bool
	debug      *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "", "TOML configuration file"),
		port: flag.String("port", "",
			"Serial device path (e.g., /dev/ttyACM0, /tmp/siterm or COM3). Leave empty for auto-detection."),
		command: flag.String("c", "", "Run one command and exit"),
		baud:    flag.Int("baud", 0, "Baud rate"),
		timeout: flag.Duration("timeout", 0, "Response timeout"),
		list:    flag.Bool("list", false, "List detected devices and exit"),
		allPorts: flag.Bool("all", false,
			"With -list or auto-detection, consider every USB serial port"),
		debug: flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()
	return f
}

func loadConfig(f *flags) (config.Host, error) {
	cfg := config.Default()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return config.Host{}, err
		}
		cfg = loaded
	}

	host := cfg.Host
	if *f.port != "" {
		host.Port = *f.port
	}
	if *f.baud > 0 {
		host.Baud = *f.baud
	}
	if *f.timeout > 0 {
		host.ResponseTimeout = *f.timeout
	}
	if *f.debug {
		host.LogLevel = "debug"
	}
	return host, nil
}

func detectOptions(all bool) *detection.Options {
	opts := detection.DefaultOptions()
	if all {
		opts.Match = nil
	}
	return &opts
}

func listDevices(ctx context.Context, all bool) error {
	devices, err := detection.DetectAll(ctx, detectOptions(all))
	if errors.Is(err, detection.ErrNoDevicesFound) {
		_, _ = fmt.Println("No devices found")
		return nil
	}
	if err != nil {
		return err
	}
	for _, dev := range devices {
		_, _ = fmt.Println(dev.String())
	}
	return nil
}

// resolvePort returns the configured port or the single detected device.
func resolvePort(ctx context.Context, host config.Host, all bool) (string, error) {
	if host.Port != "" {
		return host.Port, nil
	}

	_, _ = fmt.Fprintln(os.Stderr, "Auto-detecting SiTerm devices...")
	devices, err := detection.DetectAll(ctx, detectOptions(all))
	if err != nil {
		return "", fmt.Errorf("auto-detection failed: %w", err)
	}
	if len(devices) > 1 {
		paths := make([]string, 0, len(devices))
		for _, dev := range devices {
			paths = append(paths, dev.Path)
		}
		return "", fmt.Errorf("several devices found, pick one with -port: %s", strings.Join(paths, ", "))
	}
	return devices[0].Path, nil
}

func run(ctx context.Context, f *flags, host config.Host) error {
	port, err := resolvePort(ctx, host, *f.allPorts)
	if err != nil {
		return err
	}

	c, err := client.Dial(ctx, port,
		client.WithBaudRate(host.Baud),
		client.WithHandshakeTimeout(host.HandshakeTimeout),
		client.WithResponseTimeout(host.ResponseTimeout),
		client.WithLogger(log.Logger))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = c.Close() }()

	s := newSession(c, os.Stdout)
	if *f.command != "" {
		_, err := s.handle(ctx, *f.command)
		return err
	}

	_, _ = fmt.Printf("Connected to %s @ %d baud. Type help for commands.\n", port, host.Baud)
	return s.run(ctx, os.Stdin, true)
}

func main() {
	f := parseFlags()

	host, err := loadConfig(f)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if _, err := logging.Configure(logging.Profile{App: "siterm", Level: host.LogLevel}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *f.list {
		err = listDevices(ctx, *f.allPorts)
	} else {
		err = run(ctx, f, host)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		stop()
		os.Exit(1)
	}
}
