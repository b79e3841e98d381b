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

// Command siterm-device runs the SiTerm device side on a PTY or serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	siterm "github.com/ZaparooProject/go-siterm"
	"github.com/ZaparooProject/go-siterm/handlers"
	"github.com/ZaparooProject/go-siterm/internal/config"
	"github.com/ZaparooProject/go-siterm/internal/logging"
	"github.com/ZaparooProject/go-siterm/status"
)

type flags struct {
	configPath *string
	endpoint   *string
	port       *string
	link       *string
	i2cBus     *string
	baud       *int
	listBuses  *bool
	debug      *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "", "TOML configuration file"),
		endpoint:   flag.String("endpoint", "", "Endpoint kind: pty or uart"),
		port:       flag.String("port", "", "Serial port for the uart endpoint (e.g., /dev/ttyAMA0)"),
		link:       flag.String("link", "", "Symlink to create for the pty slave (e.g., /tmp/siterm)"),
		i2cBus:     flag.String("i2c-bus", "", "I2C bus name or number for i2c commands"),
		baud:       flag.Int("baud", 0, "Baud rate for the uart endpoint"),
		listBuses:  flag.Bool("list-buses", false, "List I2C buses and exit"),
		debug:      flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()
	return f
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(f *flags) (config.Config, error) {
	cfg := config.Default()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "endpoint":
			cfg.Device.Endpoint = *f.endpoint
		case "port":
			cfg.Device.Port = *f.port
		case "link":
			cfg.Device.Link = *f.link
		case "i2c-bus":
			cfg.Device.I2CBus = *f.i2cBus
		case "baud":
			cfg.Device.Baud = *f.baud
		}
	})
	if *f.debug {
		cfg.Device.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func listBuses() error {
	buses, err := handlers.Buses()
	if err != nil {
		return err
	}
	if len(buses) == 0 {
		_, _ = fmt.Println("No I2C buses found")
		return nil
	}
	for _, bus := range buses {
		_, _ = fmt.Printf("%d\t%s\t%v\n", bus.Number, bus.Name, bus.Aliases)
	}
	return nil
}

func run(ctx context.Context, cfg config.Config) error {
	ep, closeEndpoint, err := openEndpoint(cfg.Device)
	if err != nil {
		return err
	}
	defer closeEndpoint()

	tableOpts := []handlers.Option{
		handlers.WithLogger(log.Logger),
		handlers.WithEchoPrefix(cfg.Device.EchoPrefix),
	}
	if cfg.Device.I2CBus != "" {
		bus, busErr := handlers.OpenBus(cfg.Device.I2CBus, cfg.Device.I2CSpeed())
		if busErr != nil {
			return busErr
		}
		defer func() { _ = bus.Close() }()
		tableOpts = append(tableOpts, handlers.WithBus(bus))
		log.Info().Str("bus", bus.String()).Msg("i2c bus opened")
	}

	statusSignal := status.NewSignal()
	indicator := status.NewIndicator(statusSignal,
		status.LogDisplay{Logger: log.Logger},
		status.WithBrightness(cfg.Device.Brightness))
	go func() { _ = indicator.Run(ctx) }()

	machine, err := siterm.New(ep, handlers.New(tableOpts...),
		siterm.WithConfig(&cfg.Device.Machine),
		siterm.WithStatusSignal(statusSignal),
		siterm.WithLogger(log.Logger))
	if err != nil {
		return fmt.Errorf("failed to create state machine: %w", err)
	}

	err = machine.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	f := parseFlags()

	if *f.listBuses {
		if err := listBuses(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to list I2C buses: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(f)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	if _, err := logging.Configure(logging.Profile{App: "siterm-device", Level: cfg.Device.LogLevel}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("device stopped")
		stop()
		os.Exit(1)
	}
	log.Debug().Msg("shutdown")
}
